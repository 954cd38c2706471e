package kdf

import (
	"crypto/sha512"
	"encoding/binary"
	"io"
	"time"

	"golang.org/x/crypto/hkdf"

	xerrors "github.com/Nehonix-Team/xypriss-crypto-core/errors"
	"github.com/Nehonix-Team/xypriss-crypto-core/pkg/digest"
	"github.com/Nehonix-Team/xypriss-crypto-core/pkg/securemem"
)

const blockSize = 64 // SHA-512 output size, per spec §4.5 "reference hash inside Balloon"

// blockCount clamps memory_cost_kib into the [256, 65536] block-count
// range spec §4.5 step 1 names, "N = clamp(memory_cost_kib, 256, 65536)".
func blockCount(memoryCostKiB uint32) uint64 {
	n := uint64(memoryCostKiB)
	if n < 256 {
		n = 256
	}
	if n > 65536 {
		n = 65536
	}
	return n
}

// DeriveBalloon derives a key using the Boneh–Corrigan-Gibbs–Schechter
// construction: Expand, Mix, Extract, exactly as spec §4.5 step 1-3
// describe. The same (password, params) pair always walks the same
// sequence of block fills and mixing rounds, so the output is
// byte-identical across platforms of the same hardware word size.
func DeriveBalloon(password []byte, params *Params) (out *Output, err error) {
	if params.Variant() != Balloon {
		return nil, xerrors.New(xerrors.InvalidParams, "params.Variant() must be Balloon").WithWhich("variant")
	}

	start := time.Now()
	n := blockCount(params.MemoryCostKiB())
	timeCost := uint64(params.TimeCost())

	blocks, err := expand(password, params, n, timeCost)
	if err != nil {
		return nil, err
	}
	mix(blocks, n, timeCost)
	key := extract(blocks, n, params)

	return &Output{
		Key:             securemem.FromBytes(key).WithInterpretation(securemem.KeyMaterial),
		SaltCopy:        params.SaltCopy(),
		Params:          params,
		TimingMs:        uint64(time.Since(start).Milliseconds()),
		MemoryPeakBytes: n * blockSize,
	}, nil
}

// expand fills N 64-byte blocks: block 0 hashes password‖salt‖N‖time_cost;
// block i (i in [1, N)) hashes block[i-1]‖i‖0, per spec §4.5 step 1.
func expand(password []byte, params *Params, n, timeCost uint64) ([][blockSize]byte, error) {
	blocks := make([][blockSize]byte, n)
	if n == 0 {
		return nil, xerrors.New(xerrors.InvalidParams, "block count must be positive").WithWhich("memory_cost_kib")
	}

	saltCopy := params.SaltCopy()
	defer securemem.SecureWipe(saltCopy, 0, len(saltCopy))

	var buf []byte
	buf = append(buf, password...)
	buf = append(buf, saltCopy...)
	buf = appendUint64(buf, n)
	buf = appendUint64(buf, timeCost)
	blocks[0] = digest.SHA512(buf)

	for i := uint64(1); i < n; i++ {
		var b []byte
		b = append(b, blocks[i-1][:]...)
		b = appendUint64(b, i)
		b = appendUint64(b, 0)
		blocks[i] = digest.SHA512(b)
	}
	return blocks, nil
}

// mix runs time_cost rounds over every block, rehashing it with
// (round, i) and absorbing four dependency blocks: the previous block
// (sequential), a deterministic-but-chaotic index, and two
// data-dependent indices derived from hashing the current block — the
// data dependency spec §4.5 step 2 calls "essential to memory-hardness".
func mix(blocks [][blockSize]byte, n, timeCost uint64) {
	for round := uint64(0); round < timeCost; round++ {
		for i := uint64(0); i < n; i++ {
			var buf []byte
			buf = appendUint64(buf, round)
			buf = appendUint64(buf, i)
			buf = append(buf, blocks[i][:]...)
			cur := digest.SHA512(buf)

			prevIdx := (i + n - 1) % n
			chaoticIdx := (i ^ round ^ (i * round)) % n
			dataIdx1, dataIdx2 := dataDependentIndices(cur, n)

			var mixed []byte
			mixed = append(mixed, cur[:]...)
			mixed = append(mixed, blocks[prevIdx][:]...)
			mixed = append(mixed, blocks[chaoticIdx][:]...)
			mixed = append(mixed, blocks[dataIdx1][:]...)
			mixed = append(mixed, blocks[dataIdx2][:]...)
			blocks[i] = digest.SHA512(mixed)
		}
	}
}

// dataDependentIndices hashes the current block's own content to derive
// two table indices, the "hash-and-take-first-u32" variant spec §9
// picks over the source's simpler "memory[i][0] mod N" shortcut.
func dataDependentIndices(block [blockSize]byte, n uint64) (uint64, uint64) {
	h1 := digest.SHA256(append([]byte{0x01}, block[:]...))
	h2 := digest.SHA256(append([]byte{0x02}, block[:]...))
	idx1 := binary.BigEndian.Uint32(h1[:4])
	idx2 := binary.BigEndian.Uint32(h2[:4])
	return uint64(idx1) % n, uint64(idx2) % n
}

// extract concatenates the last min(16, N) blocks with the salt, hashes
// to produce a seed, and always stretches that seed to output_len with
// stretch, even when output_len fits in one SHA-512 block.
func extract(blocks [][blockSize]byte, n uint64, params *Params) []byte {
	tail := uint64(16)
	if n < tail {
		tail = n
	}

	var buf []byte
	for i := n - tail; i < n; i++ {
		buf = append(buf, blocks[i][:]...)
	}
	saltCopy := params.SaltCopy()
	defer securemem.SecureWipe(saltCopy, 0, len(saltCopy))
	buf = append(buf, saltCopy...)

	seed := digest.SHA512(buf)
	return stretch(seed[:], params.OutputLen())
}

// stretch expands seed to exactly n bytes via HKDF-Expand (RFC 5869,
// SHA-512), the "stretch by repeating as necessary" spec §4.5 step 3
// describes — HKDF-Expand's own counter-and-truncate construction is
// exactly that repetition, so this does not hand-roll a second one.
func stretch(seed []byte, n uint32) []byte {
	reader := hkdf.Expand(sha512.New, seed, []byte("xypriss-balloon-stretch"))
	out := make([]byte, n)
	if _, err := io.ReadFull(reader, out); err != nil {
		// HKDF-Expand only fails when the requested length exceeds
		// 255*hash_len (~16KB for SHA-512); Params.outputLen is bounded
		// to 1024 at construction, well under that ceiling.
		panic(err)
	}
	return out
}

func appendUint64(buf []byte, v uint64) []byte {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	return append(buf, tmp[:]...)
}
