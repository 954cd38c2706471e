package logchain

import "testing"

func TestNewSeedsGenesis(t *testing.T) {
	chain, err := New([]byte("0123456789abcdef0123456789abcdef"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	report := chain.Verify()
	if !report.Valid {
		t.Fatalf("fresh chain should verify, got %+v", report)
	}
}

func TestAppendChainsHashes(t *testing.T) {
	chain, err := New([]byte("0123456789abcdef0123456789abcdef"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	first, err := chain.Append(Info, "first entry", nil)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	second, err := chain.Append(Info, "second entry", map[string]any{"n": 1})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	if second.PrevHash != first.Hash {
		t.Error("second entry's prev_hash does not match first entry's hash")
	}
	if second.Seq != first.Seq+1 {
		t.Errorf("second.Seq = %d, want %d", second.Seq, first.Seq+1)
	}

	report := chain.Verify()
	if !report.Valid {
		t.Fatalf("untampered chain should verify, got %+v", report)
	}
}

// TestVerifyDetectsTampering mirrors the seed scenario: append three
// entries, flip a byte in entries[1].message, and expect verification to
// flag both the tampered entry and the entry chained after it (since its
// prev_hash no longer matches the tampered entry's recomputed hash).
func TestVerifyDetectsTampering(t *testing.T) {
	chain, err := New([]byte("0123456789abcdef0123456789abcdef"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := chain.Append(Info, "entry", nil); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	// Entries are [genesis(0), entry(1), entry(2), entry(3)]; tamper
	// with index 1's message directly, bypassing Append.
	chain.entries[1].Message = "entry-TAMPERED"

	report := chain.Verify()
	if report.Valid {
		t.Fatal("expected tampering to be detected")
	}

	wantTampered := map[uint64]bool{1: true, 2: true}
	got := map[uint64]bool{}
	for _, idx := range report.TamperedIndices {
		got[idx] = true
	}
	for idx := range wantTampered {
		if !got[idx] {
			t.Errorf("expected index %d to be reported tampered, report=%+v", idx, report)
		}
	}
}

func TestClearReseedsGenesis(t *testing.T) {
	chain, err := New([]byte("0123456789abcdef0123456789abcdef"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := chain.Append(Info, "entry", nil); err != nil {
		t.Fatalf("Append: %v", err)
	}
	chain.Clear()

	report := chain.Verify()
	if !report.Valid {
		t.Fatalf("chain after Clear should verify, got %+v", report)
	}
	if len(chain.entries) != 1 {
		t.Errorf("len(entries) after Clear = %d, want 1 (genesis only)", len(chain.entries))
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	chain, err := New([]byte("0123456789abcdef0123456789abcdef"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for i := 0; i < 5; i++ {
		if _, err := chain.Append(Info, "entry", nil); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if _, err := chain.Append(Info, "structured entry", map[string]any{"n": 1, "ok": true}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	exported := chain.Export()

	restored, err := New([]byte("0123456789abcdef0123456789abcdef"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	report, err := restored.Import(exported, true)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if !report.Valid {
		t.Fatalf("imported chain should verify, got %+v", *report)
	}
	if len(restored.entries) != len(chain.entries) {
		t.Errorf("len(restored.entries) = %d, want %d", len(restored.entries), len(chain.entries))
	}
}

func TestImportRejectsMalformedInput(t *testing.T) {
	chain, err := New([]byte("0123456789abcdef0123456789abcdef"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = chain.Import([]byte{0xff, 0xff}, false)
	if err == nil {
		t.Fatal("expected Import to reject truncated input")
	}
}
