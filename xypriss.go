// Package xypriss is the façade (F): a single entry point binding the
// seven core components behind one Vault, constructed from an
// internal/xconfig.Config. RandomBytes and DeriveKey open an
// internal/xcontext.ExecutionContext at entry and close it on every exit
// path via defer, so SecureBytes they track mid-call are wiped even if
// the call panics; the other operations do not open one.
package xypriss

import (
	"context"
	"math/big"
	"time"

	"github.com/Nehonix-Team/xypriss-crypto-core/internal/canon"
	xerrors "github.com/Nehonix-Team/xypriss-crypto-core/errors"
	"github.com/Nehonix-Team/xypriss-crypto-core/internal/xconfig"
	"github.com/Nehonix-Team/xypriss-crypto-core/internal/xcontext"
	"github.com/Nehonix-Team/xypriss-crypto-core/internal/xlog"
	"github.com/Nehonix-Team/xypriss-crypto-core/pkg/cache"
	"github.com/Nehonix-Team/xypriss-crypto-core/pkg/ctutil"
	"github.com/Nehonix-Team/xypriss-crypto-core/pkg/digest"
	"github.com/Nehonix-Team/xypriss-crypto-core/pkg/entropy"
	"github.com/Nehonix-Team/xypriss-crypto-core/pkg/kdf"
	"github.com/Nehonix-Team/xypriss-crypto-core/pkg/logchain"
	"github.com/Nehonix-Team/xypriss-crypto-core/pkg/securemem"
)

// Re-exported building blocks so callers need not import every pkg/
// subpackage directly for the common path, mirroring the teacher
// façade's re-export of its primitive value objects at the package
// root.
type (
	SecureBytes        = securemem.SecureBytes
	Alphabet           = entropy.Alphabet
	KDFParams          = kdf.Params
	KDFOutput          = kdf.Output
	KDFVariant         = kdf.Variant
	LogEntry           = logchain.Entry
	LogLevel           = logchain.Level
	VerificationReport = logchain.VerificationReport
	Config             = xconfig.Config
)

const (
	Argon2id = kdf.Argon2id
	Balloon  = kdf.Balloon
)

const (
	LogDebug    = logchain.Debug
	LogInfo     = logchain.Info
	LogWarning  = logchain.Warning
	LogError    = logchain.Error
	LogCritical = logchain.Critical
)

// Vault is the façade's handle: one configured instance wiring together
// the CSPRNG source (C1), constant-time primitives (C3), secure memory
// (C4), the KDF engine (C5), and an owned fortified cache (C7). A
// caller that needs more than one independent hash chain constructs
// additional ones with NewLogChain; the cache, by contrast, is a single
// shared instance per Vault, since spec §6's cache.* configuration is
// vault-wide.
type Vault struct {
	cfg   xconfig.Config
	log   *xlog.Logger
	cache *cache.Cache[any]
}

// New constructs a Vault from cfg. Call Close when done to stop the
// cache's background janitor goroutine.
func New(cfg xconfig.Config) (*Vault, error) {
	c := cache.New[any](cache.Config{
		MaxEntries:      cfg.CacheMaxEntries,
		MaxMemoryBytes:  cfg.CacheMaxMemoryBytes,
		DefaultTTLMs:    cfg.CacheDefaultTTLMs,
		EvictionPolicy:  mapEvictionPolicy(cfg.CacheEvictionPolicy),
		CleanupDelayMs:  cfg.CacheCleanupDelayMs,
		FingerprintSalt: cfg.CacheFingerprintSalt,
	})
	return &Vault{cfg: cfg, log: xlog.New(), cache: c}, nil
}

// Close releases the Vault's background resources.
func (v *Vault) Close() {
	v.cache.Close()
}

func mapEvictionPolicy(p xconfig.EvictionPolicy) cache.EvictionPolicy {
	switch p {
	case xconfig.LFU:
		return cache.LFU
	case xconfig.TTLPriority:
		return cache.TTLPriority
	default:
		return cache.LRU
	}
}

// --- C1: entropy -----------------------------------------------------

// RandomBytes draws n cryptographically random bytes into a SecureBytes.
func (v *Vault) RandomBytes(n int) (*SecureBytes, error) {
	ctx := xcontext.New(nowMs(), []byte{byte(n)})
	defer ctx.Close()
	return entropy.RandomBytes(n)
}

// GenerateToken draws a random token of length from alphabet.
func (v *Vault) GenerateToken(length int, alphabet Alphabet) (string, error) {
	return entropy.Token(length, alphabet)
}

// --- C3: constant-time primitives -------------------------------------

// ConstantTimeEq reports whether a and b are equal, in time dependent
// only on max(len(a), len(b)).
func (v *Vault) ConstantTimeEq(a, b []byte) bool { return ctutil.ConstantTimeEq(a, b) }

// FaultResistantEq reports equality via triple independent comparisons,
// resistant to a single-fault adversary flipping one of the three.
func (v *Vault) FaultResistantEq(a, b []byte) bool { return ctutil.FaultResistantEq(a, b) }

// ConstantTimeModPow computes base^exp mod m via a Montgomery ladder.
func (v *Vault) ConstantTimeModPow(base, exp, m *big.Int) (*big.Int, error) {
	return ctutil.ConstantTimeModPow(base, exp, m)
}

// MaskedAccess reads table[index] without revealing which row was
// accessed via timing.
func (v *Vault) MaskedAccess(table [][]byte, index int) ([]byte, error) {
	return ctutil.MaskedAccess(table, index)
}

// --- C2: digests -------------------------------------------------------

// Digest hashes data with the named primitive ("sha256", "sha512",
// "sha3-256", "sha3-512") and returns the raw digest bytes.
func (v *Vault) Digest(algorithm string, data []byte) ([]byte, error) {
	switch algorithm {
	case "sha256":
		out := digest.SHA256(data)
		return out[:], nil
	case "sha3-256":
		out := digest.SHA3_256(data)
		return out[:], nil
	case "sha512":
		out := digest.SHA512(data)
		return out[:], nil
	case "sha3-512":
		out := digest.SHA3_512(data)
		return out[:], nil
	default:
		return nil, errInvalidDigest(algorithm)
	}
}

// --- C4: secure memory --------------------------------------------------

// SecureBytesNew allocates a zeroed SecureBytes of length n.
func (v *Vault) SecureBytesNew(n int) *SecureBytes { return securemem.New(n) }

// SecureWipe overwrites data[start:end] with zeros through a path the
// optimizer cannot elide.
func (v *Vault) SecureWipe(data []byte, start, end int) { securemem.SecureWipe(data, start, end) }

// WithSecret is a package-level generic function (not a Vault method,
// since Go methods cannot carry their own type parameters): it wraps
// initial in a SecureBytes, hands body a read-only view, and wipes the
// buffer on every exit path including a panic.
func WithSecret[R any](initial []byte, body func(*SecureBytes) R) R {
	return securemem.WithSecret(initial, body)
}

// --- C5: key derivation --------------------------------------------------

// NewKDFParams validates and constructs derivation parameters.
func (v *Vault) NewKDFParams(memoryCostKiB, timeCost, parallelism uint32, salt []byte, outputLen uint32, variant KDFVariant) (*KDFParams, error) {
	return kdf.NewParams(memoryCostKiB, timeCost, parallelism, salt, outputLen, variant)
}

// DeriveKey runs the derivation named by params.Variant(), wrapping the
// call in an ExecutionContext so the password bytes are tracked for
// wipe-on-exit even if the underlying derivation panics.
func (v *Vault) DeriveKey(password []byte, params *KDFParams) (out *KDFOutput, err error) {
	ctx := xcontext.New(nowMs(), passwordDigestInput(params))
	passwordBuf := securemem.FromBytes(append([]byte(nil), password...))
	ctx.Track(0, passwordBuf)
	defer ctx.Close()

	var derived *kdf.Output
	passwordBuf.View(func(b []byte) {
		switch params.Variant() {
		case kdf.Balloon:
			derived, err = kdf.DeriveBalloon(b, params)
		default:
			derived, err = kdf.DeriveArgon2id(b, params)
		}
	})
	if err != nil {
		v.log.Errorf("key derivation failed: %v", err)
		return nil, err
	}
	return derived, nil
}

func passwordDigestInput(params *KDFParams) []byte {
	enc := canon.NewEncoder()
	enc.Encode(params.MemoryCostKiB())
	enc.Encode(params.TimeCost())
	enc.Encode(params.Parallelism())
	return enc.Bytes()
}

// --- C6: hash-chained log -------------------------------------------------

// NewLogChain constructs an independent LogChain. Passing a nil key
// draws a fresh one from the platform CSPRNG.
func (v *Vault) NewLogChain(key []byte) (*logchain.Chain, error) {
	return logchain.New(key)
}

// --- C7: fortified cache --------------------------------------------------

// CacheFingerprint computes the fingerprint for args under the Vault's
// configured salt.
func (v *Vault) CacheFingerprint(args []any) [32]byte {
	return cache.Fingerprint(args, v.cfg.CacheFingerprintSalt)
}

// CacheGet returns the cached value for a fingerprint computed from
// args, if present and unexpired.
func (v *Vault) CacheGet(args []any) (any, bool) {
	return v.cache.Get(v.CacheFingerprint(args))
}

// CacheGetOrCompute returns the cached value for args, computing it via
// compute with at-most-once semantics across concurrent callers sharing
// the same fingerprint. ttlMs of 0 uses the Vault's configured default.
func (v *Vault) CacheGetOrCompute(ctx context.Context, args []any, ttlMs int64, compute cache.ComputeFn[any]) (any, error) {
	return v.cache.GetOrCompute(ctx, v.CacheFingerprint(args), ttlMs, compute)
}

// CacheInvalidate removes the cached value for args, if any.
func (v *Vault) CacheInvalidate(args []any) {
	v.cache.Invalidate(v.CacheFingerprint(args))
}

// CacheClear wipes every cached entry.
func (v *Vault) CacheClear() { v.cache.Clear() }

func nowMs() int64 { return time.Now().UnixMilli() }

func errInvalidDigest(algorithm string) error {
	return xerrors.Newf(xerrors.InvalidParams, "unknown digest algorithm %q", algorithm).WithWhich("algorithm")
}
