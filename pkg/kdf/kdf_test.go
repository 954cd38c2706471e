package kdf

import (
	"bytes"
	"testing"

	xerrors "github.com/Nehonix-Team/xypriss-crypto-core/errors"
)

func TestNewParamsFloors(t *testing.T) {
	cases := []struct {
		name                                     string
		memory, time, parallelism, salt, outLen  int
	}{
		{"memory below floor", 7, 1, 1, 16, 32},
		{"time below floor", 8, 0, 1, 16, 32},
		{"parallelism below floor", 8, 1, 0, 16, 32},
		{"salt too short", 8, 1, 1, 4, 32},
		{"salt too long", 8, 1, 1, 65, 32},
		{"output too short", 8, 1, 1, 16, 8},
		{"output too long", 8, 1, 1, 16, 2048},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			salt := make([]byte, c.salt)
			_, err := NewParams(uint32(c.memory), uint32(c.time), uint32(c.parallelism), salt, uint32(c.outLen), Argon2id)
			if kind, ok := xerrors.KindOf(err); !ok || kind != xerrors.InvalidParams {
				t.Errorf("expected InvalidParams, got %v", err)
			}
		})
	}
}

func TestDeriveArgon2idIsDeterministic(t *testing.T) {
	salt := []byte("saltsalt")
	params, err := NewParams(64, 2, 1, append([]byte(nil), salt...), 32, Argon2id)
	if err != nil {
		t.Fatalf("NewParams: %v", err)
	}
	params2, err := NewParams(64, 2, 1, append([]byte(nil), salt...), 32, Argon2id)
	if err != nil {
		t.Fatalf("NewParams: %v", err)
	}

	out1, err := DeriveArgon2id([]byte("correct horse battery staple"), params)
	if err != nil {
		t.Fatalf("DeriveArgon2id: %v", err)
	}
	out2, err := DeriveArgon2id([]byte("correct horse battery staple"), params2)
	if err != nil {
		t.Fatalf("DeriveArgon2id: %v", err)
	}

	var k1, k2 []byte
	out1.Key.View(func(b []byte) { k1 = append(k1, b...) })
	out2.Key.View(func(b []byte) { k2 = append(k2, b...) })
	if !bytes.Equal(k1, k2) {
		t.Error("DeriveArgon2id not deterministic for identical (password, params)")
	}
	if len(k1) != 32 {
		t.Errorf("derived key length = %d, want 32", len(k1))
	}
}

func TestDeriveArgon2idRejectsBalloonParams(t *testing.T) {
	params, err := NewParams(64, 2, 1, []byte("saltsalt"), 32, Balloon)
	if err != nil {
		t.Fatalf("NewParams: %v", err)
	}
	_, err = DeriveArgon2id([]byte("pw"), params)
	if kind, ok := xerrors.KindOf(err); !ok || kind != xerrors.InvalidParams {
		t.Errorf("expected InvalidParams when variant mismatches, got %v", err)
	}
}

func TestDeriveBalloonIsDeterministic(t *testing.T) {
	newParams := func() *Params {
		p, err := NewParams(256, 2, 1, []byte("saltsalt"), 32, Balloon)
		if err != nil {
			t.Fatalf("NewParams: %v", err)
		}
		return p
	}

	out1, err := DeriveBalloon([]byte("correct horse battery staple"), newParams())
	if err != nil {
		t.Fatalf("DeriveBalloon: %v", err)
	}
	out2, err := DeriveBalloon([]byte("correct horse battery staple"), newParams())
	if err != nil {
		t.Fatalf("DeriveBalloon: %v", err)
	}

	var k1, k2 []byte
	out1.Key.View(func(b []byte) { k1 = append(k1, b...) })
	out2.Key.View(func(b []byte) { k2 = append(k2, b...) })
	if !bytes.Equal(k1, k2) {
		t.Error("DeriveBalloon not deterministic for identical (password, params)")
	}
	if len(k1) != 32 {
		t.Errorf("derived key length = %d, want 32", len(k1))
	}
}

func TestDeriveBalloonDifferentPasswordsDiffer(t *testing.T) {
	params1, err := NewParams(256, 2, 1, []byte("saltsalt"), 32, Balloon)
	if err != nil {
		t.Fatalf("NewParams: %v", err)
	}
	params2, err := NewParams(256, 2, 1, []byte("saltsalt"), 32, Balloon)
	if err != nil {
		t.Fatalf("NewParams: %v", err)
	}

	out1, err := DeriveBalloon([]byte("password-one"), params1)
	if err != nil {
		t.Fatalf("DeriveBalloon: %v", err)
	}
	out2, err := DeriveBalloon([]byte("password-two"), params2)
	if err != nil {
		t.Fatalf("DeriveBalloon: %v", err)
	}

	var k1, k2 []byte
	out1.Key.View(func(b []byte) { k1 = append(k1, b...) })
	out2.Key.View(func(b []byte) { k2 = append(k2, b...) })
	if bytes.Equal(k1, k2) {
		t.Error("DeriveBalloon produced identical keys for different passwords")
	}
}
