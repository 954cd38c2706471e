// Package cache implements C7: the fortified, fingerprint-keyed
// memoization cache with at-most-once concurrent computation per
// fingerprint, TTL eviction, and secure cleanup of any SecureBytes a
// cached value references.
package cache

import (
	"strings"

	"github.com/Nehonix-Team/xypriss-crypto-core/internal/canon"
	"github.com/Nehonix-Team/xypriss-crypto-core/pkg/digest"
)

const (
	redactedMarker  = "<redacted>"
	defaultTruncate = 4096
)

// RequestLike is the explicit interface spec §9 asks for in place of
// duck-typed Express request detection: callers who want request-aware
// fingerprinting implement it themselves instead of this package
// sniffing shapes at runtime.
type RequestLike interface {
	Method() string
	URL() string
	Headers() map[string]string
	Params() map[string]any
	Body() string
}

var sensitiveHeaders = map[string]bool{
	"authorization": true,
	"cookie":        true,
	"set-cookie":    true,
	"x-api-key":     true,
	"x-auth-token":  true,
}

// requestToTagged reduces a RequestLike to the tagged structure spec
// §4.7 names, redacting authorization/cookie/token headers and
// truncating large bodies above truncateAt bytes.
func requestToTagged(r RequestLike, truncateAt int) map[string]any {
	headers := make(map[string]any, len(r.Headers()))
	for k, v := range r.Headers() {
		if sensitiveHeaders[strings.ToLower(k)] {
			headers[k] = redactedMarker
		} else {
			headers[k] = v
		}
	}

	body := r.Body()
	if truncateAt > 0 && len(body) > truncateAt {
		body = body[:truncateAt] + "<truncated>"
	}

	return map[string]any{
		"method":  r.Method(),
		"url":     r.URL(),
		"headers": headers,
		"params":  r.Params(),
		"body":    body,
	}
}

// Fingerprint computes fingerprint(args) = SHA-256(canonical_encode(args)
// ‖ fixed_salt) per spec §4.7, where fixedSalt is the configured
// cache.fingerprint_salt.
func Fingerprint(args []any, fixedSalt string) [32]byte {
	resolved := make([]any, len(args))
	for i, a := range args {
		if rl, ok := a.(RequestLike); ok {
			resolved[i] = requestToTagged(rl, defaultTruncate)
		} else {
			resolved[i] = a
		}
	}

	enc := canon.NewEncoder()
	enc.Encode(resolved)
	payload := append(enc.Bytes(), fixedSalt...)
	return digest.SHA256(payload)
}
