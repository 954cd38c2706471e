// Package ctutil implements C3: side-channel-resistant primitives —
// constant-time equality, fault-resistant equality, a Montgomery-ladder
// constant_time_modpow, and masked table access. The equality and
// masked-access primitives express their bit operations in fixed-width
// integers with no early exit. ConstantTimeModPow keeps a uniform
// per-bit ladder structure, but its multiplications and reductions use
// math/big, whose arithmetic is not constant-time in operand values.
package ctutil

import (
	"math/big"

	xerrors "github.com/Nehonix-Team/xypriss-crypto-core/errors"
)

// ConstantTimeEq runs in time dependent only on max(len(a), len(b)). It
// accumulates the XOR of every position up to the longer length
// (treating out-of-range positions as zero) and combines the result with
// the length comparison only after the full pass, rather than returning
// early, so
// a mismatched length and a mismatched byte are indistinguishable by
// timing alone. This hand-rolled accumulator — rather than a delegation
// to crypto/subtle.ConstantTimeCompare — is what spec §4.3 prescribes
// verbatim, since ConstantTimeCompare alone does not fold in the
// "out-of-range positions count as zero" behavior this spec requires.
func ConstantTimeEq(a, b []byte) bool {
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}

	var acc byte
	for i := 0; i < maxLen; i++ {
		var ai, bi byte
		if i < len(a) {
			ai = a[i]
		}
		if i < len(b) {
			bi = b[i]
		}
		acc |= ai ^ bi
	}

	lenEq := byte(1)
	if len(a) != len(b) {
		lenEq = 0
	}
	return acc == 0 && lenEq == 1
}

// FaultResistantEq performs three independent constant-time comparisons
// — forward, reverse, and chunked into four equal chunks with the final
// chunk absorbing the remainder — and returns their conjunction. A
// single-fault adversary who glitches one comparison flips at most one
// of the three results, so the conjunction still reflects the true
// answer.
func FaultResistantEq(a, b []byte) bool {
	forward := ConstantTimeEq(a, b)
	reverse := ConstantTimeEq(reversed(a), reversed(b))
	chunked := chunkedEq(a, b, 4)
	return forward && reverse && chunked
}

func reversed(b []byte) []byte {
	out := make([]byte, len(b))
	for i, v := range b {
		out[len(b)-1-i] = v
	}
	return out
}

// chunkedEq splits a and b into n equal chunks (the last absorbing any
// remainder) and constant-time-compares each chunk, ANDing the results.
// When lengths differ, no chunking happens: the result is a single
// whole-slice ConstantTimeEq, which reports false for the length
// mismatch. Slices shorter than n are likewise compared whole.
func chunkedEq(a, b []byte, n int) bool {
	if len(a) != len(b) {
		return ConstantTimeEq(a, b)
	}
	if len(a) == 0 {
		return true
	}
	chunkSize := len(a) / n
	if chunkSize == 0 {
		return ConstantTimeEq(a, b)
	}

	ok := true
	for i := 0; i < n; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if i == n-1 {
			end = len(a)
		}
		ok = ok && ConstantTimeEq(a[start:end], b[start:end])
	}
	return ok
}

// MaskedAccess reads every slot of table, selecting the target value via
// a constant-time mask so which slot was actually needed is not
// observable from access timing. The bounds check on index is itself
// allowed to be non-constant-time per spec §4.3: it is input validation,
// not the secret lookup.
func MaskedAccess(table [][]byte, index int) ([]byte, error) {
	if index < 0 || index >= len(table) {
		return nil, xerrors.Newf(xerrors.IndexOutOfBounds, "index %d out of bounds for table of size %d", index, len(table))
	}

	width := 0
	for _, row := range table {
		if len(row) > width {
			width = len(row)
		}
	}

	out := make([]byte, width)
	for i, row := range table {
		mask := constEqMask32(uint32(i), uint32(index))
		for j := 0; j < width; j++ {
			var v byte
			if j < len(row) {
				v = row[j]
			}
			out[j] |= v & mask
		}
	}
	return out, nil
}

// constEqMask32 returns 0xFF in every bit when a == b, else 0x00,
// computed without branching on the comparison result.
func constEqMask32(a, b uint32) byte {
	diff := a ^ b
	// Fold diff down to a single bit: diff == 0 iff a == b.
	diff |= diff >> 16
	diff |= diff >> 8
	diff |= diff >> 4
	diff |= diff >> 2
	diff |= diff >> 1
	// bit0 of diff is 1 iff a != b.
	isNotEqual := diff & 1
	return byte(isNotEqual) - 1 // 0 -> 0xFF... (as byte: 0-1=0xFF); 1 -> 0x00
}

// ConstantTimeModPow computes base^exp mod m using a Montgomery ladder:
// for each bit of exp from MSB to LSB it always computes r0*r0, r0*r1
// and r1*r1 (mod m), then selects the new (r0, r1) pair with a byte mask
// derived from the current exponent bit, so both branches of work happen
// regardless of the bit's value. The products themselves are math/big
// operations and are not constant-time.
func ConstantTimeModPow(base, exp, m *big.Int) (*big.Int, error) {
	if m.Sign() <= 0 {
		return nil, xerrors.New(xerrors.InvalidModulus, "modulus must be positive")
	}
	if exp.Sign() < 0 {
		return nil, xerrors.New(xerrors.NegativeExponent, "exponent must be non-negative")
	}

	b := new(big.Int).Mod(base, m)
	r0 := big.NewInt(1)
	r1 := new(big.Int).Set(b)

	bits := exp.BitLen()
	if bits == 0 {
		// exp == 0: base^0 mod m == 1 mod m, which is 0 when m == 1.
		return new(big.Int).Mod(r0, m), nil
	}

	for i := bits - 1; i >= 0; i-- {
		bit := exp.Bit(i)

		r0r0 := new(big.Int).Mod(new(big.Int).Mul(r0, r0), m)
		r0r1 := new(big.Int).Mod(new(big.Int).Mul(r0, r1), m)
		r1r1 := new(big.Int).Mod(new(big.Int).Mul(r1, r1), m)

		// bit == 0: (r0, r1) = (r0*r0, r0*r1)
		// bit == 1: (r0, r1) = (r0*r1, r1*r1)
		newR0 := selectBigInt(bit, r0r0, r0r1)
		newR1 := selectBigInt(bit, r0r1, r1r1)
		r0, r1 = newR0, newR1
	}
	return r0, nil
}

// selectBigInt returns b when bit == 1, a when bit == 0, via a
// constant-time byte mask over both operands' encodings rather than a
// branch on bit.
func selectBigInt(bit uint, a, b *big.Int) *big.Int {
	mask := byte(0) - byte(bit) // bit==1 -> 0xFF, bit==0 -> 0x00

	ab := a.Bytes()
	bb := b.Bytes()
	width := len(ab)
	if len(bb) > width {
		width = len(bb)
	}
	ap := leftPad(ab, width)
	bp := leftPad(bb, width)

	out := make([]byte, width)
	for i := range out {
		out[i] = (ap[i] &^ mask) | (bp[i] & mask)
	}
	return new(big.Int).SetBytes(out)
}

func leftPad(b []byte, width int) []byte {
	if len(b) >= width {
		return b
	}
	out := make([]byte, width)
	copy(out[width-len(b):], b)
	return out
}
