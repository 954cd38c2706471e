// Package logchain implements C6: the hash-chained, tamper-evident,
// append-only log. Entry IDs are generated with google/uuid, exactly as
// the teacher framework generates identifiers elsewhere (e.g.
// packages/new/bus/src/pending_batch.go, packages/support/src/str).
package logchain

import (
	"github.com/google/uuid"

	"github.com/Nehonix-Team/xypriss-crypto-core/internal/canon"
)

// Level is the LogEntry severity vocabulary from spec §3, shared with
// internal/xlog so ambient diagnostics and domain entries read the same
// way.
type Level int

const (
	Debug Level = iota
	Info
	Warning
	Error
	Critical
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "DEBUG"
	case Info:
		return "INFO"
	case Warning:
		return "WARNING"
	case Error:
		return "ERROR"
	case Critical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// Entry is the LogEntry record from spec §3.
//
// DataCanonical holds Data's canonical encoding, computed once when the
// entry is constructed. hashEntry folds DataCanonical into the hash
// rather than re-deriving it from Data each time, and Export persists it
// directly: Data's concrete Go type (map[string]any, []any, ...) cannot
// be round-tripped through the wire format without a schema, but its
// canonical bytes can, and the hash only ever depended on those bytes.
// After Import, Data is nil; callers that need the original value
// should decode DataCanonical themselves or keep their own side copy.
type Entry struct {
	ID            [16]byte
	Seq           uint64
	TimestampMs   uint64
	Level         Level
	Message       string
	Data          any // opaque JSON-like value, or nil; not restored by Import
	DataCanonical []byte
	PrevHash      [32]byte
	Hash          [32]byte
}

func newEntryID() [16]byte {
	id := uuid.New()
	var out [16]byte
	copy(out[:], id[:])
	return out
}

// canonicalFields returns the canonical encoding of every field except
// Hash, in the fixed field order spec §4.6 requires: id, timestamp,
// level, message, data, prev_hash, seq.
func (e *Entry) canonicalFields() []byte {
	enc := canon.NewEncoder()
	enc.Encode(e.ID[:])
	enc.Encode(int64(e.TimestampMs))
	enc.Encode(e.Level.String())
	enc.Encode(e.Message)
	enc.WriteRaw(e.DataCanonical)
	enc.Encode(e.PrevHash[:])
	enc.Encode(int64(e.Seq))
	return enc.Bytes()
}
