package chain

import "errors"

var errShortCoinbaseBuffer = errors.New("chain: coinbase inherent buffer too short")

// CoinbaseEngineID tags the per-block coinbase/shares inherent recorded by
// the mainchain runtime's pallets/coinbase, ported from
// original_source/hashcash/pallets/coinbase/src/lib.rs. Only the inherent
// identifier and the shares payload shape are modeled here; the payout
// pallet itself (balance accounting) is out of scope.
var CoinbaseEngineID = EngineID{'c', 'o', 'i', 'n'}

// CoinbaseShare is one author's PPLNS-weighted contribution recorded
// alongside a mined block, the shape pallets/coinbase stores per inherent.
type CoinbaseShare struct {
	Author     AccountID
	Difficulty Difficulty
}

// CoinbaseInherent is the opaque inherent-extrinsic body a block author
// attaches to credit that round's PPLNS window.
type CoinbaseInherent struct {
	Shares []CoinbaseShare
}

// Encode serializes the inherent as a length-prefixed list of
// (author, difficulty) pairs, matching internal/codec's binary conventions.
func (c CoinbaseInherent) Encode() []byte {
	buf := make([]byte, 0, 4+len(c.Shares)*64)
	buf = appendUint64(buf, uint64(len(c.Shares)))
	for _, s := range c.Shares {
		buf = append(buf, s.Author[:]...)
		buf = append(buf, s.Difficulty.Encode()...)
	}
	return buf
}

// DecodeCoinbaseInherent parses an inherent produced by Encode.
func DecodeCoinbaseInherent(b []byte) (CoinbaseInherent, error) {
	if len(b) < 8 {
		return CoinbaseInherent{}, errShortCoinbaseBuffer
	}
	count := beUint64(b[:8])
	rest := b[8:]
	shares := make([]CoinbaseShare, 0, count)
	for i := uint64(0); i < count; i++ {
		if len(rest) < 64 {
			return CoinbaseInherent{}, errShortCoinbaseBuffer
		}
		var author AccountID
		copy(author[:], rest[:32])
		difficulty := DecodeDifficulty(rest[32:64])
		shares = append(shares, CoinbaseShare{Author: author, Difficulty: difficulty})
		rest = rest[64:]
	}
	return CoinbaseInherent{Shares: shares}, nil
}

func beUint64(b []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return v
}
