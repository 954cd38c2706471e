// Package xconfig binds the toolkit's configuration table (spec §6) onto
// typed fields loaded from the environment, the way the teacher's
// template/src/config package binds application config through its Env
// helper — except every field here is a concrete type on a struct, not a
// map[string]any, per the design note that variadic option objects
// should become explicit validated records.
package xconfig

import (
	"os"
	"strconv"
	"strings"
)

// EvictionPolicy names one of the three cache eviction strategies from
// spec §4.7.
type EvictionPolicy string

const (
	LRU        EvictionPolicy = "LRU"
	LFU        EvictionPolicy = "LFU"
	TTLPriority EvictionPolicy = "TTL-priority"
)

// Config is the toolkit-wide configuration record, covering every row of
// spec §6's configuration table. Zero value is not valid; use Default()
// or Load() to obtain one. Neither checks the KDF floors: those are
// enforced when kdf.NewParams builds derivation parameters.
type Config struct {
	KDFMemoryCostKiB uint32
	KDFTimeCost      uint32
	KDFParallelism   uint32
	KDFSaltLength    uint32
	KDFOutputLength  uint32

	LogChainKeyBytes uint32

	CacheMaxEntries       int
	CacheMaxMemoryBytes   int64
	CacheDefaultTTLMs     int64
	CacheEvictionPolicy   EvictionPolicy
	CacheCleanupDelayMs   int64
	CacheFingerprintSalt  string
}

// Default returns the configuration the façade falls back to when the
// caller does not override it, using the floors and defaults named
// throughout spec §3/§4/§6.
func Default() Config {
	return Config{
		KDFMemoryCostKiB: 65536,
		KDFTimeCost:      3,
		KDFParallelism:   4,
		KDFSaltLength:    16,
		KDFOutputLength:  32,

		LogChainKeyBytes: 32,

		CacheMaxEntries:      10_000,
		CacheMaxMemoryBytes:  256 << 20,
		CacheDefaultTTLMs:    0,
		CacheEvictionPolicy:  LRU,
		CacheCleanupDelayMs:  30_000,
		CacheFingerprintSalt: "xypriss-fortified-cache-v1",
	}
}

// Load builds a Config from Default(), overriding each field from its
// environment variable when present, mirroring the teacher's
// Env(key, default) pattern.
func Load() Config {
	c := Default()
	c.KDFMemoryCostKiB = envUint32("KDF_MEMORY_COST_KIB", c.KDFMemoryCostKiB)
	c.KDFTimeCost = envUint32("KDF_TIME_COST", c.KDFTimeCost)
	c.KDFParallelism = envUint32("KDF_PARALLELISM", c.KDFParallelism)
	c.KDFSaltLength = envUint32("KDF_SALT_LENGTH", c.KDFSaltLength)
	c.KDFOutputLength = envUint32("KDF_OUTPUT_LENGTH", c.KDFOutputLength)

	c.LogChainKeyBytes = envUint32("LOG_CHAIN_KEY_BYTES", c.LogChainKeyBytes)

	c.CacheMaxEntries = int(envUint32("CACHE_MAX_ENTRIES", uint32(c.CacheMaxEntries)))
	c.CacheMaxMemoryBytes = envInt64("CACHE_MAX_MEMORY_BYTES", c.CacheMaxMemoryBytes)
	c.CacheDefaultTTLMs = envInt64("CACHE_DEFAULT_TTL_MS", c.CacheDefaultTTLMs)
	c.CacheCleanupDelayMs = envInt64("CACHE_CLEANUP_DELAY_MS", c.CacheCleanupDelayMs)
	if v := os.Getenv("CACHE_EVICTION_POLICY"); v != "" {
		if strings.EqualFold(v, string(TTLPriority)) {
			c.CacheEvictionPolicy = TTLPriority
		} else {
			c.CacheEvictionPolicy = EvictionPolicy(strings.ToUpper(v))
		}
	}
	if v := os.Getenv("CACHE_FINGERPRINT_SALT"); v != "" {
		c.CacheFingerprintSalt = v
	}
	return c
}

func envUint32(key string, fallback uint32) uint32 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return fallback
	}
	return uint32(n)
}

func envInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}
