// Package digest implements C2: the primitive hash and HMAC surface
// every other core component (KDF, log chain, cache fingerprinting)
// builds on. SHA-3 is exposed optionally per spec §4.2; SHA3-256 is
// checked against NIST test vectors in digest_test.go. MD5/SHA-1 are intentionally
// absent per spec §1's non-goals.
package digest

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"

	"golang.org/x/crypto/sha3"
)

// SHA256 returns the 32-byte SHA-256 digest of data.
func SHA256(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// SHA512 returns the 64-byte SHA-512 digest of data.
func SHA512(data []byte) [64]byte {
	return sha512.Sum512(data)
}

// HMACSHA256 returns the 32-byte HMAC-SHA256 of data under key.
func HMACSHA256(key, data []byte) [32]byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	var out [32]byte
	copy(out[:], mac.Sum(nil))
	return out
}

// HMACSHA512 returns the 64-byte HMAC-SHA512 of data under key.
func HMACSHA512(key, data []byte) [64]byte {
	mac := hmac.New(sha512.New, key)
	mac.Write(data)
	var out [64]byte
	copy(out[:], mac.Sum(nil))
	return out
}

// SHA3_256 returns the 32-byte SHA3-256 digest of data. Optional per
// spec §4.2; exercised against the NIST test vectors in digest_test.go.
func SHA3_256(data []byte) [32]byte {
	return sha3.Sum256(data)
}

// SHA3_512 returns the 64-byte SHA3-512 digest of data.
func SHA3_512(data []byte) [64]byte {
	return sha3.Sum512(data)
}
