// Package kdf implements C5: the memory-hard key derivation engine,
// Argon2id (delegating to golang.org/x/crypto/argon2, exactly as the
// teacher's hashing package's Argon2IdHasher does) and Balloon
// (hand-rolled per Boneh–Corrigan-Gibbs–Schechter, since no vetted Go
// Balloon library exists in the retrieval pack or the broader
// ecosystem).
package kdf

import (
	xerrors "github.com/Nehonix-Team/xypriss-crypto-core/errors"
	"github.com/Nehonix-Team/xypriss-crypto-core/pkg/securemem"
)

// Variant selects which memory-hard construction a Params is for;
// DeriveArgon2id and DeriveBalloon each reject the other's variant.
type Variant int

const (
	Argon2id Variant = iota
	Balloon
)

func (v Variant) String() string {
	if v == Balloon {
		return "balloon"
	}
	return "argon2id"
}

// Params is the immutable DerivationParams record from spec §3. Build it
// with NewParams, which validates every floor at construction time
// instead of leaving invalid option combinations to be discovered deep
// inside the derivation loop.
type Params struct {
	memoryCostKiB uint32
	timeCost      uint32
	parallelism   uint32
	salt          *securemem.SecureBytes
	outputLen     uint32
	variant       Variant
}

// NewParams validates and constructs a Params. salt is taken by
// ownership per SecureBytes.FromBytes semantics (the caller's slice is
// zeroized).
func NewParams(memoryCostKiB, timeCost, parallelism uint32, salt []byte, outputLen uint32, variant Variant) (*Params, error) {
	if memoryCostKiB < 8 {
		return nil, xerrors.New(xerrors.InvalidParams, "memory_cost_kib must be >= 8").WithWhich("memory_cost_kib")
	}
	if timeCost < 1 {
		return nil, xerrors.New(xerrors.InvalidParams, "time_cost must be >= 1").WithWhich("time_cost")
	}
	if parallelism < 1 {
		return nil, xerrors.New(xerrors.InvalidParams, "parallelism must be >= 1").WithWhich("parallelism")
	}
	if len(salt) < 8 || len(salt) > 64 {
		return nil, xerrors.New(xerrors.InvalidParams, "salt length must be in [8, 64]").WithWhich("salt")
	}
	if outputLen < 16 || outputLen > 1024 {
		return nil, xerrors.New(xerrors.InvalidParams, "output_len must be in [16, 1024]").WithWhich("output_len")
	}

	return &Params{
		memoryCostKiB: memoryCostKiB,
		timeCost:      timeCost,
		parallelism:   parallelism,
		salt:          securemem.FromBytes(salt),
		outputLen:     outputLen,
		variant:       variant,
	}, nil
}

func (p *Params) MemoryCostKiB() uint32 { return p.memoryCostKiB }
func (p *Params) TimeCost() uint32      { return p.timeCost }
func (p *Params) Parallelism() uint32   { return p.parallelism }
func (p *Params) OutputLen() uint32     { return p.outputLen }
func (p *Params) Variant() Variant      { return p.variant }

// SaltCopy returns an independent copy of the salt bytes (not the
// owning SecureBytes), suitable for attaching to a DerivationOutput.
func (p *Params) SaltCopy() []byte {
	var out []byte
	p.salt.View(func(b []byte) {
		out = append(out, b...)
	})
	return out
}

// Output is the DerivationOutput record from spec §3.
type Output struct {
	Key              *securemem.SecureBytes
	SaltCopy         []byte
	Params           *Params
	TimingMs         uint64
	MemoryPeakBytes  uint64
}
