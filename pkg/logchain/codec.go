package logchain

import (
	"encoding/binary"
	"fmt"
)

// appendEntry writes one entry in the fixed-order binary layout spec §6
// names: id, seq, timestamp, level, length-prefixed message,
// length-prefixed data (DataCanonical, the internal/canon encoding
// computed once at construction, persisted raw rather than re-derived
// from Data's live Go type — the hash was computed over these same
// bytes, so this is the only representation that survives a round trip
// byte-identically), prev_hash, hash.
func appendEntry(buf []byte, e Entry) []byte {
	buf = append(buf, e.ID[:]...)
	buf = appendUint64(buf, e.Seq)
	buf = appendUint64(buf, e.TimestampMs)
	buf = appendUint64(buf, uint64(e.Level))
	buf = appendString(buf, e.Message)
	buf = appendBytes(buf, e.DataCanonical)
	buf = append(buf, e.PrevHash[:]...)
	buf = append(buf, e.Hash[:]...)
	return buf
}

func appendString(buf []byte, s string) []byte {
	buf = appendUint64(buf, uint64(len(s)))
	return append(buf, s...)
}

func appendBytes(buf []byte, b []byte) []byte {
	buf = appendUint64(buf, uint64(len(b)))
	return append(buf, b...)
}

// decodeExport parses the binary layout appendEntry writes, returning
// ImportFailed-worthy errors (via the plain error return, wrapped by the
// caller) on any malformed input.
func decodeExport(data []byte) ([]Entry, error) {
	r := &reader{buf: data}

	count, err := r.uint64()
	if err != nil {
		return nil, err
	}
	// Smallest encoded entry: id, seq, timestamp, level, two length
	// prefixes, prev_hash, hash.
	const minEntryLen = 16 + 8 + 8 + 8 + 8 + 8 + 32 + 32
	if count > uint64(len(data))/minEntryLen {
		return nil, fmt.Errorf("entry count %d exceeds what %d input bytes can hold", count, len(data))
	}

	entries := make([]Entry, 0, count)
	for i := uint64(0); i < count; i++ {
		var e Entry
		id, err := r.bytes(16)
		if err != nil {
			return nil, err
		}
		copy(e.ID[:], id)

		if e.Seq, err = r.uint64(); err != nil {
			return nil, err
		}
		if e.TimestampMs, err = r.uint64(); err != nil {
			return nil, err
		}
		levelVal, err := r.uint64()
		if err != nil {
			return nil, err
		}
		e.Level = Level(levelVal)

		if e.Message, err = r.string(); err != nil {
			return nil, err
		}
		dataCanonical, err := r.rawBytes()
		if err != nil {
			return nil, err
		}
		e.DataCanonical = dataCanonical
		// e.Data is intentionally left nil: DataCanonical's Go type
		// cannot be reconstructed without a schema, but the hash only
		// ever depended on the canonical bytes, which are preserved.

		prevHash, err := r.bytes(32)
		if err != nil {
			return nil, err
		}
		copy(e.PrevHash[:], prevHash)

		hash, err := r.bytes(32)
		if err != nil {
			return nil, err
		}
		copy(e.Hash[:], hash)

		entries = append(entries, e)
	}
	if !r.exhausted() {
		return nil, fmt.Errorf("trailing bytes after %d entries", count)
	}
	return entries, nil
}

type reader struct {
	buf []byte
	pos int
}

func (r *reader) exhausted() bool { return r.pos >= len(r.buf) }

func (r *reader) bytes(n int) ([]byte, error) {
	if n < 0 || n > len(r.buf)-r.pos {
		return nil, fmt.Errorf("unexpected end of input at offset %d, need %d bytes", r.pos, n)
	}
	out := r.buf[r.pos : r.pos+n]
	r.pos += n
	return out, nil
}

func (r *reader) uint64() (uint64, error) {
	b, err := r.bytes(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

func (r *reader) string() (string, error) {
	n, err := r.uint64()
	if err != nil {
		return "", err
	}
	b, err := r.bytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// rawBytes reads a length-prefixed byte string and returns an
// independent copy, since r.bytes returns a slice aliasing the caller's
// Import buffer.
func (r *reader) rawBytes() ([]byte, error) {
	n, err := r.uint64()
	if err != nil {
		return nil, err
	}
	b, err := r.bytes(int(n))
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), b...), nil
}
