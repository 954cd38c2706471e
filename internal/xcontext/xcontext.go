// Package xcontext implements the ExecutionContext record from spec §3:
// created at every façade call entry, destroyed after the result is
// either cached or returned — on all paths, including a panic — via
// defer Close(). This is how the module avoids relying on GC
// finalizers to guarantee SecureBytes cleanup on every exit path.
package xcontext

import (
	"sync"

	"github.com/google/uuid"

	"github.com/Nehonix-Team/xypriss-crypto-core/pkg/digest"
	"github.com/Nehonix-Team/xypriss-crypto-core/pkg/securemem"
)

// ExecutionContext tracks the SecureBytes allocated for one façade
// operation so Close can guarantee they are all wiped regardless of how
// the operation exits.
type ExecutionContext struct {
	ExecutionID     [16]byte
	StartedAtMs     int64
	ParameterDigest [32]byte
	AuditFlags      map[string]bool

	mu            sync.Mutex
	secureBuffers map[int]*securemem.SecureBytes
	closed        bool
}

// New creates an ExecutionContext, fingerprinting paramBytes into
// ParameterDigest for audit logging (never the parameters themselves).
func New(startedAtMs int64, paramBytes []byte) *ExecutionContext {
	id := uuid.New()
	var idArr [16]byte
	copy(idArr[:], id[:])

	return &ExecutionContext{
		ExecutionID:     idArr,
		StartedAtMs:     startedAtMs,
		ParameterDigest: digest.SHA256(paramBytes),
		AuditFlags:      make(map[string]bool),
		secureBuffers:   make(map[int]*securemem.SecureBytes),
	}
}

// Track registers a SecureBytes at paramIndex so Close wipes it.
func (ctx *ExecutionContext) Track(paramIndex int, sb *securemem.SecureBytes) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	if ctx.closed {
		sb.Wipe()
		return
	}
	ctx.secureBuffers[paramIndex] = sb
}

// Flag sets an audit marker (e.g. "tampered", "fallback-used").
func (ctx *ExecutionContext) Flag(marker string) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	ctx.AuditFlags[marker] = true
}

// Close wipes every tracked SecureBytes exactly once. Safe to call more
// than once and safe to defer unconditionally at the top of a façade
// method.
func (ctx *ExecutionContext) Close() {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	if ctx.closed {
		return
	}
	for _, sb := range ctx.secureBuffers {
		sb.Wipe()
	}
	ctx.closed = true
}
