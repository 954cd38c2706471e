// Package canon implements the one canonical encoder spec §4.7 and §4.6
// both require: deterministic, fixed-order, length-prefixed bytes for
// log entries and cache fingerprint arguments alike. Solving circular
// references and non-determinism once here — instead of scattered across
// call sites — is exactly the design note spec §9 asks for.
package canon

import (
	"encoding/binary"
	"fmt"
	"math"
	"reflect"
	"sort"
)

// Tag bytes distinguish encoded value kinds so the byte stream is
// unambiguous regardless of content.
const (
	tagNil byte = iota
	tagBool
	tagInt
	tagFloat
	tagString
	tagBytes
	tagSlice
	tagMap
	tagCycle
	tagFunc
)

// Encoder accumulates the canonical byte representation of a value
// graph, detecting cycles via the reference identity of any map or
// slice it has entered but not yet finished walking.
type Encoder struct {
	buf     []byte
	visited map[uintptr]bool
}

// NewEncoder returns a ready-to-use Encoder.
func NewEncoder() *Encoder {
	return &Encoder{visited: make(map[uintptr]bool)}
}

// Bytes returns the accumulated canonical encoding.
func (e *Encoder) Bytes() []byte { return e.buf }

// WriteRaw splices a byte string produced by an earlier EncodeValue call
// directly into the stream, unwrapped and untagged. Callers use this to
// embed a value's canonical encoding, computed once and persisted
// alongside it, without re-deriving it from the value's live Go type —
// the two must stay byte-identical for hash verification to survive a
// round trip through a lossy wire format.
func (e *Encoder) WriteRaw(b []byte) { e.buf = append(e.buf, b...) }

// EncodeValue is the one-shot form of Encode: it returns v's canonical
// encoding on its own, for callers that need to persist it (e.g.
// alongside a value whose concrete Go type an export format cannot
// faithfully restore).
func EncodeValue(v any) []byte {
	enc := NewEncoder()
	enc.Encode(v)
	return enc.Bytes()
}

func (e *Encoder) putTag(t byte)      { e.buf = append(e.buf, t) }
func (e *Encoder) putUint64(n uint64) { e.buf = binary.LittleEndian.AppendUint64(e.buf, n) }

// Encode appends the canonical encoding of v, recursing into slices and
// maps, sorting map keys by UTF-8 byte order, and replacing cycles with
// a <cycle> marker and functions with a <fn> marker per spec §4.7.
func (e *Encoder) Encode(v any) {
	switch val := v.(type) {
	case nil:
		e.putTag(tagNil)
	case bool:
		e.putTag(tagBool)
		if val {
			e.buf = append(e.buf, 1)
		} else {
			e.buf = append(e.buf, 0)
		}
	case string:
		e.putTag(tagString)
		e.putUint64(uint64(len(val)))
		e.buf = append(e.buf, val...)
	case []byte:
		e.putTag(tagBytes)
		e.putUint64(uint64(len(val)))
		e.buf = append(e.buf, val...)
	case int:
		e.encodeInt(int64(val))
	case int64:
		e.encodeInt(val)
	case uint32:
		e.encodeInt(int64(val))
	case uint64:
		e.encodeInt(int64(val))
	case float64:
		e.putTag(tagFloat)
		e.putUint64(math.Float64bits(val))
	case []any:
		e.encodeSlice(val)
	case map[string]any:
		e.encodeMap(val)
	default:
		e.encodeFallback(v)
	}
}

func (e *Encoder) encodeInt(n int64) {
	e.putTag(tagInt)
	e.putUint64(uint64(n))
}

func (e *Encoder) encodeSlice(s []any) {
	rv := reflect.ValueOf(s)
	if rv.Len() > 0 {
		ptr := rv.Pointer()
		if e.visited[ptr] {
			e.putTag(tagCycle)
			e.buf = append(e.buf, "<cycle>"...)
			return
		}
		e.visited[ptr] = true
		defer delete(e.visited, ptr)
	}

	e.putTag(tagSlice)
	e.putUint64(uint64(len(s)))
	for _, item := range s {
		e.Encode(item)
	}
}

func (e *Encoder) encodeMap(m map[string]any) {
	rv := reflect.ValueOf(m)
	if rv.Len() > 0 {
		ptr := rv.Pointer()
		if e.visited[ptr] {
			e.putTag(tagCycle)
			e.buf = append(e.buf, "<cycle>"...)
			return
		}
		e.visited[ptr] = true
		defer delete(e.visited, ptr)
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys) // key-sorted by UTF-8 byte order

	e.putTag(tagMap)
	e.putUint64(uint64(len(keys)))
	for _, k := range keys {
		e.Encode(k)
		e.Encode(m[k])
	}
}

// encodeFallback handles every value shape not covered by the switch in
// Encode: functions become a <fn:TYPE> marker carrying the function's
// type (not its name, so functions of one type share a marker), fmt.Stringer values are
// encoded via their String() form, and anything else falls back to its
// %v rendering so the encoder stays total over arbitrary argument
// tuples without resorting to reflection-based struct walking.
func (e *Encoder) encodeFallback(v any) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Func {
		e.putTag(tagFunc)
		name := reflect.TypeOf(v).String()
		e.buf = append(e.buf, fmt.Sprintf("<fn:%s>", name)...)
		return
	}
	if s, ok := v.(fmt.Stringer); ok {
		e.Encode(s.String())
		return
	}
	e.Encode(fmt.Sprintf("%v", v))
}
