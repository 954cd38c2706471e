package kdf

import (
	"time"

	"golang.org/x/crypto/argon2"

	xerrors "github.com/Nehonix-Team/xypriss-crypto-core/errors"
	"github.com/Nehonix-Team/xypriss-crypto-core/pkg/securemem"
)

// DeriveArgon2id derives a key using the reference Argon2id construction
// from golang.org/x/crypto/argon2, which spec §4.5 explicitly prefers
// over a hand-rolled implementation: memory_cost_kib maps directly onto
// argon2.IDKey's memory parameter, exactly as the reference
// implementation defines it, so two calls with identical
// (password, salt, memory, time, parallelism, output_len) are
// byte-identical by construction.
func DeriveArgon2id(password []byte, params *Params) (out *Output, err error) {
	if params.Variant() != Argon2id {
		return nil, xerrors.New(xerrors.InvalidParams, "params.Variant() must be Argon2id").WithWhich("variant")
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			// A panic inside the reference library must not leak a
			// partially populated SecureBytes; there is none allocated
			// yet at this point, so simply convert to an error.
			err = xerrors.Newf(xerrors.OutOfMemory, "argon2id derivation panicked: %v", r)
		}
	}()

	saltCopy := params.SaltCopy()
	defer securemem.SecureWipe(saltCopy, 0, len(saltCopy))

	key := argon2.IDKey(password, saltCopy, params.TimeCost(), params.MemoryCostKiB(), uint8(clampParallelism(params.Parallelism())), params.OutputLen())

	return &Output{
		Key:             securemem.FromBytes(key).WithInterpretation(securemem.KeyMaterial),
		SaltCopy:        params.SaltCopy(),
		Params:          params,
		TimingMs:        uint64(time.Since(start).Milliseconds()),
		MemoryPeakBytes: uint64(params.MemoryCostKiB()) * 1024,
	}, nil
}

// clampParallelism narrows parallelism to uint8 range; argon2.IDKey's
// signature takes a uint8 lane count, while spec §3 only bounds
// parallelism at >= 1, so callers requesting more than 255 lanes are
// clamped rather than silently wrapping.
func clampParallelism(p uint32) uint32 {
	if p > 255 {
		return 255
	}
	return p
}
