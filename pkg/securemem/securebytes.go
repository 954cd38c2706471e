// Package securemem implements C4: SecureBytes, the owned, zeroizing
// buffer that secret values (KDF keys, chain keys, entropy.RandomBytes
// output) flow through before they reach the caller. Content is zeroed
// when Wipe runs (directly, or via WithSecret or an ExecutionContext's
// Close); no finalizer wipes a buffer that is dropped without Wipe.
// It collapses the teacher
// framework's SecureObject/SecureString/SecureBuffer style inheritance
// trinity (never present in this teacher directly, but the pattern spec
// §9 explicitly calls out) into one primitive plus a thin Interpretation
// tag, per the design note.
package securemem

import (
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// Interpretation records how a SecureBytes's content should be treated
// by callers that print or serialize it, without reviving a type
// hierarchy: it is metadata on the one concrete type, not a subclass.
type Interpretation int

const (
	Opaque Interpretation = iota
	UTF8
	KeyMaterial
)

// SecureBytes is an owned, exclusive, zeroizing byte buffer. The zero
// value is not usable; construct with New, FromBytes, or Clone.
type SecureBytes struct {
	mu             sync.Mutex
	data           []byte
	interpretation Interpretation
	wiped          atomic.Bool
	locked         bool
}

// New allocates a zeroed SecureBytes of length n.
func New(n int) *SecureBytes {
	sb := &SecureBytes{data: make([]byte, n)}
	sb.tryLock()
	return sb
}

// FromBytes takes ownership of raw: raw is zeroized by this call and
// must not be used by the caller afterward, satisfying the invariant
// that every write path populating a SecureBytes records length and
// never leaves a duplicate plaintext copy behind.
func FromBytes(raw []byte) *SecureBytes {
	sb := &SecureBytes{data: make([]byte, len(raw))}
	copy(sb.data, raw)
	wipeSlice(raw)
	sb.tryLock()
	return sb
}

// Clone produces an independent copy of the content; the source is left
// untouched (cloning copies, it does not move ownership), matching the
// spec §3 ownership rule that sharing requires explicit cloning into
// fresh zeroizing memory.
func (s *SecureBytes) Clone() *SecureBytes {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := &SecureBytes{data: make([]byte, len(s.data)), interpretation: s.interpretation}
	copy(out.data, s.data)
	out.tryLock()
	return out
}

// WithInterpretation sets how this buffer's content should be treated
// and returns the receiver for chaining at construction sites.
func (s *SecureBytes) WithInterpretation(i Interpretation) *SecureBytes {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interpretation = i
	return s
}

// Len reports the buffer length, or 0 once wiped.
func (s *SecureBytes) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

// Interpretation reports the recorded content interpretation.
func (s *SecureBytes) Interpretation() Interpretation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interpretation
}

// View hands the caller a read-only borrow of the content. The returned
// slice must not be retained past the lifetime of s (it aliases s's
// backing array and will be zeroed out from under the caller once s is
// wiped); callers that need an independent copy should Clone first.
func (s *SecureBytes) View(fn func(b []byte)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.data)
	runtime.KeepAlive(s)
}

// Redacted implements xlog.Redactor so SecureBytes never prints its
// content in a log line.
func (s *SecureBytes) Redacted() string {
	return "[redacted:" + interpretationName(s.Interpretation()) + "]"
}

func interpretationName(i Interpretation) string {
	switch i {
	case UTF8:
		return "utf8"
	case KeyMaterial:
		return "key"
	default:
		return "opaque"
	}
}

// Wipe overwrites the entire allocation's capacity with zeros via a path
// the optimizer cannot elide (a manual loop followed by
// runtime.KeepAlive), then marks the buffer empty. Wipe is idempotent:
// calling it twice has no additional observable effect.
func (s *SecureBytes) Wipe() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wipeLocked()
}

func (s *SecureBytes) wipeLocked() {
	if s.wiped.Load() {
		return
	}
	wipeSlice(s.data)
	if s.locked {
		_ = unix.Munlock(s.data)
		s.locked = false
	}
	s.data = nil
	s.wiped.Store(true)
}

// Wiped reports whether Wipe has already run.
func (s *SecureBytes) Wiped() bool { return s.wiped.Load() }

// tryLock best-effort mlocks the backing array so it is never written to
// swap; platforms without mlock support (or without CAP_IPC_LOCK) simply
// leave locked false, which Wipe treats as a no-op unlock.
func (s *SecureBytes) tryLock() {
	if len(s.data) == 0 {
		return
	}
	if err := unix.Mlock(s.data); err == nil {
		s.locked = true
	}
}

// wipeSlice overwrites every byte of b with zero. The explicit
// byte-at-a-time loop plus KeepAlive defeats dead-store elimination
// without depending on an unavailable compiler intrinsic; platforms
// that expose one (e.g. via golang.org/x/sys) could substitute it here
// without changing the contract.
func wipeSlice(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b)
}

// WithSecret allocates a SecureBytes from initial (taking ownership per
// FromBytes), hands a read-only view to body, and guarantees the buffer
// is wiped on every exit path including a panic inside body.
func WithSecret[R any](initial []byte, body func(secret *SecureBytes) R) R {
	sb := FromBytes(initial)
	defer sb.Wipe()
	return body(sb)
}

// SecureWipe overwrites data[start:end] with zeros through the same
// non-elidable path Wipe uses. It is a free function (rather than a
// SecureBytes method) because spec §4.4 specifies it over a plain
// buffer and range, for callers holding raw byte slices outside the
// SecureBytes lifecycle.
func SecureWipe(data []byte, start, end int) {
	if start < 0 {
		start = 0
	}
	if end > len(data) {
		end = len(data)
	}
	if start >= end {
		return
	}
	wipeSlice(data[start:end])
}
