package ctutil

import (
	"math/big"
	"testing"

	xerrors "github.com/Nehonix-Team/xypriss-crypto-core/errors"
)

func TestConstantTimeEq(t *testing.T) {
	cases := []struct {
		name string
		a, b []byte
		want bool
	}{
		{"equal", []byte("hello"), []byte("hello"), true},
		{"different bytes, same length", []byte("hello"), []byte("hellp"), false},
		{"different length", []byte("hello"), []byte("hell"), false},
		{"both empty", nil, nil, true},
		{"one empty", []byte{}, []byte("x"), false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := ConstantTimeEq(c.a, c.b); got != c.want {
				t.Errorf("ConstantTimeEq(%q, %q) = %v, want %v", c.a, c.b, got, c.want)
			}
		})
	}
}

func TestFaultResistantEq(t *testing.T) {
	if !FaultResistantEq([]byte("secret-key-material"), []byte("secret-key-material")) {
		t.Error("expected equal buffers to compare equal")
	}
	if FaultResistantEq([]byte("secret-key-material"), []byte("secret-key-matErial")) {
		t.Error("expected a single-byte difference to compare unequal")
	}
	if FaultResistantEq([]byte("short"), []byte("much longer buffer")) {
		t.Error("expected length mismatch to compare unequal")
	}
}

func TestMaskedAccess(t *testing.T) {
	table := [][]byte{
		{1, 1, 1},
		{2, 2, 2},
		{3, 3, 3},
	}
	for i := range table {
		got, err := MaskedAccess(table, i)
		if err != nil {
			t.Fatalf("MaskedAccess(%d): %v", i, err)
		}
		if !ConstantTimeEq(got, table[i]) {
			t.Errorf("MaskedAccess(%d) = %v, want %v", i, got, table[i])
		}
	}

	_, err := MaskedAccess(table, len(table))
	if kind, ok := xerrors.KindOf(err); !ok || kind != xerrors.IndexOutOfBounds {
		t.Errorf("expected IndexOutOfBounds, got %v", err)
	}
}

func TestConstantTimeModPow(t *testing.T) {
	cases := []struct {
		base, exp, mod, want int64
	}{
		{3, 7, 11, 9},
		{2, 10, 1000, 24},
		{5, 0, 7, 1},
		{0, 5, 7, 0},
		{5, 0, 1, 0}, // mod == 1: every residue, including base^0, reduces to 0
	}
	for _, c := range cases {
		got, err := ConstantTimeModPow(big.NewInt(c.base), big.NewInt(c.exp), big.NewInt(c.mod))
		if err != nil {
			t.Fatalf("ConstantTimeModPow(%d,%d,%d): %v", c.base, c.exp, c.mod, err)
		}
		if got.Int64() != c.want {
			t.Errorf("ConstantTimeModPow(%d,%d,%d) = %v, want %d", c.base, c.exp, c.mod, got, c.want)
		}
	}

	want := new(big.Int).Exp(big.NewInt(123), big.NewInt(456), big.NewInt(997))
	got, err := ConstantTimeModPow(big.NewInt(123), big.NewInt(456), big.NewInt(997))
	if err != nil {
		t.Fatalf("ConstantTimeModPow large case: %v", err)
	}
	if got.Cmp(want) != 0 {
		t.Errorf("ConstantTimeModPow(123,456,997) = %v, want %v (cross-checked against math/big.Exp)", got, want)
	}
}

func TestConstantTimeModPowInvalidModulus(t *testing.T) {
	_, err := ConstantTimeModPow(big.NewInt(2), big.NewInt(2), big.NewInt(0))
	if kind, ok := xerrors.KindOf(err); !ok || kind != xerrors.InvalidModulus {
		t.Errorf("expected InvalidModulus, got %v", err)
	}
}

func TestConstantTimeModPowNegativeExponent(t *testing.T) {
	_, err := ConstantTimeModPow(big.NewInt(2), big.NewInt(-1), big.NewInt(5))
	if kind, ok := xerrors.KindOf(err); !ok || kind != xerrors.NegativeExponent {
		t.Errorf("expected NegativeExponent, got %v", err)
	}
}
