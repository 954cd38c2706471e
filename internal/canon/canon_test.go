package canon

import "testing"

func encode(v any) []byte {
	enc := NewEncoder()
	enc.Encode(v)
	return enc.Bytes()
}

func TestEncodeIsDeterministic(t *testing.T) {
	v := map[string]any{"b": 2, "a": 1, "c": []any{1, 2, 3}}
	a := encode(v)
	b := encode(v)
	if string(a) != string(b) {
		t.Error("Encode not deterministic for the same input")
	}
}

func TestMapKeyOrderDoesNotAffectEncoding(t *testing.T) {
	m1 := map[string]any{"alpha": 1, "beta": 2, "gamma": 3}
	m2 := map[string]any{"gamma": 3, "alpha": 1, "beta": 2}
	if string(encode(m1)) != string(encode(m2)) {
		t.Error("differing map construction order produced different encodings")
	}
}

func TestDistinctValuesEncodeDifferently(t *testing.T) {
	if string(encode("1")) == string(encode(1)) {
		t.Error("string \"1\" and int 1 encoded identically")
	}
	if string(encode([]any{1, 2})) == string(encode([]any{2, 1})) {
		t.Error("reordered slice encoded identically")
	}
}

func TestCycleDetectionDoesNotInfiniteLoop(t *testing.T) {
	s := make([]any, 1)
	s[0] = s // a slice that contains itself

	out := encode(s) // hangs (and fails the test via go test's timeout) if cycle detection regresses
	if len(out) == 0 {
		t.Error("expected a non-empty encoding for a self-referential slice")
	}
}
