// Package chain defines the concrete block/header/digest types shared by
// every consensus component. The original source threads a generic chain
// block type through every layer; this repo owns a single concrete type
// instead (see DESIGN.md, Design Note 1).
package chain

import (
	"golang.org/x/crypto/blake2b"
)

// Hash is a 32-byte content hash (BLAKE2b-256).
type Hash [32]byte

// IsZero reports whether h is the zero hash.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

func (h Hash) String() string {
	const hextable = "0123456789abcdef"
	buf := make([]byte, 2+len(h)*2)
	buf[0], buf[1] = '0', 'x'
	for i, b := range h {
		buf[2+i*2] = hextable[b>>4]
		buf[2+i*2+1] = hextable[b&0x0f]
	}
	return string(buf)
}

// SumHash returns the BLAKE2b-256 digest of data.
func SumHash(data []byte) Hash {
	return Hash(blake2b.Sum256(data))
}

// BlockNumber is a block height.
type BlockNumber = uint64

// EngineID is a 4-byte consensus-engine tag, e.g. POW_ENGINE_ID.
type EngineID [4]byte

var (
	// PowEngineID tags mainchain PoW digests.
	PowEngineID = EngineID{'p', 'o', 'w', '_'}
	// P2PoolEngineID tags p2pool-side pre-runtime digests.
	P2PoolEngineID = EngineID{'p', '2', 'p', '_'}
)

// DigestItemKind discriminates the DigestItem sum type (Design Note 3).
type DigestItemKind uint8

const (
	DigestPreRuntime DigestItemKind = iota
	DigestSeal
	DigestOther
)

// DigestItem is a typed log entry in a block header's digest.
type DigestItem struct {
	Kind     DigestItemKind
	EngineID EngineID
	Data     []byte
}

// Digest is an ordered list of DigestItem.
type Digest struct {
	Logs []DigestItem
}

// Push appends an item to the digest.
func (d *Digest) Push(item DigestItem) {
	d.Logs = append(d.Logs, item)
}

// FindPreRuntime returns the sole PreRuntime digest tagged with engine,
// erroring if there is more than one (spec.md §4.I find_pre_digest).
func (d *Digest) FindPreRuntime(engine EngineID) (data []byte, found bool, multiple bool) {
	for _, item := range d.Logs {
		if item.Kind == DigestPreRuntime && item.EngineID == engine {
			if found {
				return nil, true, true
			}
			data = item.Data
			found = true
		}
	}
	return data, found, false
}

// LastSeal returns the last Seal digest tagged with engine.
func (d *Digest) LastSeal(engine EngineID) ([]byte, bool) {
	for i := len(d.Logs) - 1; i >= 0; i-- {
		item := d.Logs[i]
		if item.Kind == DigestSeal && item.EngineID == engine {
			return item.Data, true
		}
	}
	return nil, false
}

// Header is the concrete block header used across the repo.
type Header struct {
	ParentHash     Hash
	Number         BlockNumber
	StateRoot      Hash
	ExtrinsicsRoot Hash
	Digest         Digest
}

// HashWithoutSeal returns the block's pre-hash: the hash of the header
// including pre-runtime digests but excluding any Seal item.
func (h *Header) HashWithoutSeal() Hash {
	stripped := *h
	stripped.Digest = Digest{}
	for _, item := range h.Digest.Logs {
		if item.Kind != DigestSeal {
			stripped.Digest.Logs = append(stripped.Digest.Logs, item)
		}
	}
	return SumHash(encodeHeader(&stripped))
}

// Hash returns the full header hash, including any seal.
func (h *Header) Hash() Hash {
	return SumHash(encodeHeader(h))
}

func encodeHeader(h *Header) []byte {
	buf := make([]byte, 0, 64+len(h.Digest.Logs)*8)
	buf = append(buf, h.ParentHash[:]...)
	buf = appendUint64(buf, h.Number)
	buf = append(buf, h.StateRoot[:]...)
	buf = append(buf, h.ExtrinsicsRoot[:]...)
	for _, item := range h.Digest.Logs {
		buf = append(buf, byte(item.Kind))
		buf = append(buf, item.EngineID[:]...)
		buf = appendUint64(buf, uint64(len(item.Data)))
		buf = append(buf, item.Data...)
	}
	return buf
}

func appendUint64(buf []byte, v uint64) []byte {
	var tmp [8]byte
	for i := 0; i < 8; i++ {
		tmp[i] = byte(v >> (8 * i))
	}
	return append(buf, tmp[:]...)
}

// Block pairs a header with an opaque extrinsics body.
type Block struct {
	Header Header
	Body   [][]byte
}

// AccountID identifies a block author (mainchain address).
type AccountID [32]byte

func (a AccountID) String() string { return Hash(a).String() }
