// Package entropy implements C1: the platform CSPRNG surface for random
// bytes, salts, tokens and generated log chain keys. It never accepts a
// caller-supplied seed, and deliberately
// does not reuse the teacher framework's packages/support/src/str
// random-string helper, which seeds strings from math/rand — exactly
// the "possibly-buggy source behavior" spec §9 asks us to flag rather
// than carry forward.
package entropy

import (
	"crypto/rand"
	"math/big"

	xerrors "github.com/Nehonix-Team/xypriss-crypto-core/errors"
	"github.com/Nehonix-Team/xypriss-crypto-core/pkg/securemem"
)

// TokenTooLargeBytes is the ceiling spec §4.1 places on a single token
// request.
const TokenTooLargeBytes = 1 << 20

// Alphabet is a named character set for Token.
type Alphabet string

const (
	Uppercase       Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	Lowercase       Alphabet = "abcdefghijklmnopqrstuvwxyz"
	Digits          Alphabet = "0123456789"
	Symbols         Alphabet = "!@#$%^&*()-_=+[]{}:;,.?"
	excludeSimilar  Alphabet = "0O0o1lI"
)

// WithoutSimilar returns a copy of the alphabet with visually ambiguous
// characters {0,O,o,1,l,I} removed.
func (a Alphabet) WithoutSimilar() Alphabet {
	out := make([]rune, 0, len(a))
	for _, r := range string(a) {
		skip := false
		for _, s := range string(excludeSimilar) {
			if r == s {
				skip = true
				break
			}
		}
		if !skip {
			out = append(out, r)
		}
	}
	return Alphabet(out)
}

// RandomBytes draws n cryptographically random bytes from the platform
// CSPRNG into a SecureBytes, elevating any failure to EntropyUnavailable
// (the platform source is not expected to fail in practice; when it
// does, the caller cannot safely proceed).
func RandomBytes(n int) (*securemem.SecureBytes, error) {
	if n < 0 {
		return nil, xerrors.New(xerrors.InvalidParams, "length must be non-negative").WithWhich("n")
	}
	raw := make([]byte, n)
	if _, err := rand.Read(raw); err != nil {
		return nil, xerrors.New(xerrors.EntropyUnavailable, "platform CSPRNG failed").WithWrapped(err)
	}
	return securemem.FromBytes(raw), nil
}

// GenerateSalt draws n cryptographically random bytes as plain Bytes
// (not secret material requiring zeroization — salts are stored
// alongside their derived output).
func GenerateSalt(n int) ([]byte, error) {
	if n < 0 {
		return nil, xerrors.New(xerrors.InvalidParams, "length must be non-negative").WithWhich("n")
	}
	out := make([]byte, n)
	if _, err := rand.Read(out); err != nil {
		return nil, xerrors.New(xerrors.EntropyUnavailable, "platform CSPRNG failed").WithWrapped(err)
	}
	return out, nil
}

// Token generates a length-len printable token drawn from alphabet.
// rand.Int performs its own rejection sampling internally, so the
// distribution over alphabet characters is exactly uniform with no
// modulo bias. Requests above TokenTooLargeBytes are rejected.
func Token(length int, alphabet Alphabet) (string, error) {
	if length < 0 {
		return "", xerrors.New(xerrors.InvalidParams, "length must be non-negative").WithWhich("length")
	}
	if length > TokenTooLargeBytes {
		return "", xerrors.Newf(xerrors.TokenTooLarge, "requested %d bytes exceeds 2^20 ceiling", length)
	}
	if len(alphabet) == 0 {
		return "", xerrors.New(xerrors.InvalidParams, "alphabet must not be empty").WithWhich("alphabet")
	}

	letters := []rune(string(alphabet))
	n := big.NewInt(int64(len(letters)))

	out := make([]rune, length)
	for i := range out {
		idx, err := rand.Int(rand.Reader, n)
		if err != nil {
			return "", xerrors.New(xerrors.EntropyUnavailable, "platform CSPRNG failed").WithWrapped(err)
		}
		out[i] = letters[idx.Int64()]
	}
	return string(out), nil
}
