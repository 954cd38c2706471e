package entropy

import (
	"strings"
	"testing"

	xerrors "github.com/Nehonix-Team/xypriss-crypto-core/errors"
)

func TestRandomBytesLength(t *testing.T) {
	sb, err := RandomBytes(32)
	if err != nil {
		t.Fatalf("RandomBytes: %v", err)
	}
	defer sb.Wipe()
	if sb.Len() != 32 {
		t.Errorf("Len() = %d, want 32", sb.Len())
	}
}

func TestRandomBytesNegativeLength(t *testing.T) {
	_, err := RandomBytes(-1)
	if kind, ok := xerrors.KindOf(err); !ok || kind != xerrors.InvalidParams {
		t.Errorf("expected InvalidParams, got %v", err)
	}
}

func TestRandomBytesDistinctCalls(t *testing.T) {
	a, err := RandomBytes(32)
	if err != nil {
		t.Fatalf("RandomBytes: %v", err)
	}
	defer a.Wipe()
	b, err := RandomBytes(32)
	if err != nil {
		t.Fatalf("RandomBytes: %v", err)
	}
	defer b.Wipe()

	var av, bv []byte
	a.View(func(buf []byte) { av = append(av, buf...) })
	b.View(func(buf []byte) { bv = append(bv, buf...) })
	if string(av) == string(bv) {
		t.Error("two independent RandomBytes(32) calls produced identical output")
	}
}

func TestTokenUsesRequestedAlphabet(t *testing.T) {
	tok, err := Token(64, Digits)
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if len(tok) != 64 {
		t.Errorf("len(tok) = %d, want 64", len(tok))
	}
	for _, r := range tok {
		if !strings.ContainsRune(string(Digits), r) {
			t.Fatalf("token contains character %q outside requested alphabet", r)
		}
	}
}

func TestTokenTooLarge(t *testing.T) {
	_, err := Token(TokenTooLargeBytes+1, Lowercase)
	if kind, ok := xerrors.KindOf(err); !ok || kind != xerrors.TokenTooLarge {
		t.Errorf("expected TokenTooLarge, got %v", err)
	}
}

func TestTokenEmptyAlphabet(t *testing.T) {
	_, err := Token(8, Alphabet(""))
	if kind, ok := xerrors.KindOf(err); !ok || kind != xerrors.InvalidParams {
		t.Errorf("expected InvalidParams, got %v", err)
	}
}

func TestAlphabetWithoutSimilar(t *testing.T) {
	cleaned := Uppercase.WithoutSimilar()
	for _, bad := range []rune{'O', 'I'} {
		if strings.ContainsRune(string(cleaned), bad) {
			t.Errorf("WithoutSimilar() still contains ambiguous character %q", bad)
		}
	}
}
