package logchain

import (
	"encoding/binary"
	"sync"
	"time"

	xerrors "github.com/Nehonix-Team/xypriss-crypto-core/errors"
	"github.com/Nehonix-Team/xypriss-crypto-core/internal/canon"
	"github.com/Nehonix-Team/xypriss-crypto-core/pkg/digest"
	"github.com/Nehonix-Team/xypriss-crypto-core/pkg/entropy"
	"github.com/Nehonix-Team/xypriss-crypto-core/pkg/securemem"
)

var genesisPrevHash [32]byte // all-zeros, per spec §3 genesis marker

// VerificationReport is the non-mutating verify() result from spec §3/§4.6.
type VerificationReport struct {
	Valid              bool
	TamperedIndices    []uint64
	InvalidSeqIndices  []uint64
	MissingSeqs        []uint64
}

// Chain is the LogChain state machine from spec §4.6: empty until New
// seeds a genesis entry, active thereafter. Appends are serialized by a
// single writer; verification may run concurrently with other
// verifications but not with an append, per spec §5 — both are modeled
// with one sync.RWMutex (append takes the write lock, verify the read
// lock).
type Chain struct {
	mu       sync.RWMutex
	key      *securemem.SecureBytes
	entries  []Entry
	tailHash [32]byte
	nextSeq  uint64
	active   bool
}

// New constructs a Chain and immediately seeds it with a genesis entry
// (the empty -> active transition from spec §4.6's state table). Passing
// a nil key draws a fresh 32-byte chain key from the platform CSPRNG.
func New(key []byte) (*Chain, error) {
	c := &Chain{}
	if key == nil {
		generated, err := entropy.RandomBytes(32)
		if err != nil {
			return nil, err
		}
		var raw []byte
		generated.View(func(b []byte) { raw = append(raw, b...) })
		generated.Wipe()
		key = raw
	}
	c.key = securemem.FromBytes(key).WithInterpretation(securemem.KeyMaterial)
	c.resetGenesis()
	return c, nil
}

func (c *Chain) hashEntry(e *Entry) {
	var out [32]byte
	c.key.View(func(keyBytes []byte) {
		out = digest.HMACSHA256(keyBytes, e.canonicalFields())
	})
	e.Hash = out
}

// Append inserts a new entry with seq = tail.seq+1 and prev_hash =
// tail.hash, per spec §4.6's active->active append transition.
func (c *Chain) Append(level Level, message string, data any) (Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.active {
		c.resetGenesis()
	}

	entry := Entry{
		ID:            newEntryID(),
		Seq:           c.nextSeq,
		TimestampMs:   nowMs(),
		Level:         level,
		Message:       message,
		Data:          data,
		DataCanonical: canon.EncodeValue(data),
		PrevHash:      c.tailHash,
	}
	c.hashEntry(&entry)

	c.entries = append(c.entries, entry)
	c.tailHash = entry.Hash
	c.nextSeq++
	return entry, nil
}

// resetGenesis (re-)seeds a genesis entry. Callers must already hold
// c.mu for writing, or call it during construction before c is shared.
func (c *Chain) resetGenesis() {
	genesis := Entry{
		ID:            newEntryID(),
		Seq:           0,
		TimestampMs:   nowMs(),
		Level:         Info,
		Message:       "genesis",
		DataCanonical: canon.EncodeValue(nil),
		PrevHash:      genesisPrevHash,
	}
	c.hashEntry(&genesis)
	c.entries = []Entry{genesis}
	c.tailHash = genesis.Hash
	c.nextSeq = 1
	c.active = true
}

// Verify recomputes every entry's hash and prev_hash linkage, producing
// a fresh VerificationReport without mutating the chain. Tampering does
// not panic or return an error: the report makes the chain's state
// explicit, per spec §7's propagation policy for ChainTampered.
func (c *Chain) Verify() VerificationReport {
	c.mu.RLock()
	defer c.mu.RUnlock()

	report := VerificationReport{Valid: true}
	seenSeqs := make(map[uint64]bool, len(c.entries))

	// prevRecomputedHash carries the *recomputed* hash of the prior
	// entry forward, not its stored Hash field: a tampered entry whose
	// stored Hash was never touched must still break the link into the
	// next entry, or the cascade stops one entry too early.
	prevRecomputedHash := genesisPrevHash
	for i, e := range c.entries {
		recomputed := e
		c.hashEntry(&recomputed)

		tampered := recomputed.Hash != e.Hash
		if e.PrevHash != prevRecomputedHash {
			tampered = true
		}
		if tampered {
			report.TamperedIndices = append(report.TamperedIndices, uint64(i))
			report.Valid = false
		}

		if e.Seq != uint64(i)+c.entries[0].Seq {
			report.InvalidSeqIndices = append(report.InvalidSeqIndices, uint64(i))
			report.Valid = false
		}
		seenSeqs[e.Seq] = true
		prevRecomputedHash = recomputed.Hash
	}

	if len(c.entries) > 0 {
		genesisSeq := c.entries[0].Seq
		tailSeq := c.entries[len(c.entries)-1].Seq
		for seq := genesisSeq; seq <= tailSeq; seq++ {
			if !seenSeqs[seq] {
				report.MissingSeqs = append(report.MissingSeqs, seq)
				report.Valid = false
			}
		}
	}

	return report
}

// Clear drops all entries and re-seeds a fresh genesis entry under the
// same chain key (the active->empty->active transition of spec §4.6).
func (c *Chain) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetGenesis()
}

// Export produces the canonical length-prefixed binary serialization
// from spec §6's persisted format.
func (c *Chain) Export() []byte {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var buf []byte
	buf = appendUint64(buf, uint64(len(c.entries)))
	for _, e := range c.entries {
		buf = appendEntry(buf, e)
	}
	return buf
}

// Import replaces the chain's entries with those parsed from data. When
// verify is true, it runs Verify() against the chain's own key (set at
// New) and returns the report; otherwise no verification happens and the
// first return value is nil. ImportFailed is returned if data cannot be
// parsed.
func (c *Chain) Import(data []byte, verify bool) (*VerificationReport, error) {
	entries, err := decodeExport(data)
	if err != nil {
		return nil, xerrors.New(xerrors.ImportFailed, err.Error())
	}

	c.mu.Lock()
	c.entries = entries
	if len(entries) > 0 {
		c.tailHash = entries[len(entries)-1].Hash
		c.nextSeq = entries[len(entries)-1].Seq + 1
	}
	c.active = len(entries) > 0
	c.mu.Unlock()

	if !verify {
		return nil, nil
	}
	report := c.Verify()
	return &report, nil
}

func nowMs() uint64 {
	return uint64(time.Now().UnixMilli())
}

func appendUint64(buf []byte, v uint64) []byte {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	return append(buf, tmp[:]...)
}
