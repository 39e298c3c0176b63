// Package codec provides a small, deterministic binary encoding for the
// wire types exchanged between mining, import, and RPC components. The
// ecosystem mirror in _examples/ carries no generic structured-binary-codec
// library (no protobuf/msgpack/cbor dependency in any example go.mod), so
// this concern is implemented directly against encoding/binary rather than
// inventing a dependency nothing in the corpus uses (see DESIGN.md).
package codec

import (
	"encoding/binary"
	"errors"

	"github.com/randomx-labs/p2pool-node/internal/chain"
)

var errShortBuffer = errors.New("codec: buffer too short")

// EncodeSeal serializes {nonce} as an 8-byte little-endian value.
func EncodeSeal(seal chain.Seal) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, uint64(seal.Nonce))
	return buf
}

// DecodeSeal parses a Seal from its wire form.
func DecodeSeal(b []byte) (chain.Seal, error) {
	if len(b) < 8 {
		return chain.Seal{}, errShortBuffer
	}
	return chain.Seal{Nonce: chain.Nonce(binary.LittleEndian.Uint64(b))}, nil
}

// EncodePreHashNonce encodes (pre_hash, nonce), the exact RandomX input used
// by both the mainchain and p2pool algorithm adapters and the mining worker.
func EncodePreHashNonce(preHash chain.Hash, nonce chain.Nonce) []byte {
	buf := make([]byte, 40)
	copy(buf[:32], preHash[:])
	binary.LittleEndian.PutUint64(buf[32:], uint64(nonce))
	return buf
}

// EncodeBlockHashNonce encodes (block_hash, nonce) — the p2pool share/verify
// input, distinct from EncodePreHashNonce only in naming at the call site.
func EncodeBlockHashNonce(blockHash chain.Hash, nonce chain.Nonce) []byte {
	return EncodePreHashNonce(blockHash, nonce)
}

// EncodeAuthorAccount serializes a bare AccountID pre-runtime payload.
func EncodeAuthorAccount(author chain.AccountID) []byte {
	out := make([]byte, 32)
	copy(out, author[:])
	return out
}

// DecodeAuthorAccount parses a bare AccountID.
func DecodeAuthorAccount(b []byte) (chain.AccountID, error) {
	var a chain.AccountID
	if len(b) < 32 {
		return a, errShortBuffer
	}
	copy(a[:], b[:32])
	return a, nil
}

// EncodeAuthorMinerData serializes the p2pool pre-runtime digest payload
// (AuthorId, Option<MinerData>).
func EncodeAuthorMinerData(author chain.AccountID, data *chain.MinerData) []byte {
	buf := make([]byte, 0, 96)
	buf = append(buf, author[:]...)
	if data == nil {
		return append(buf, 0)
	}
	buf = append(buf, 1)
	buf = appendBlock(buf, data.Block)
	buf = append(buf, data.Difficulty.Encode()...)
	buf = append(buf, data.SeedHash[:]...)
	return buf
}

// DecodeAuthorMinerData parses the p2pool pre-runtime digest payload.
func DecodeAuthorMinerData(b []byte) (chain.AccountID, *chain.MinerData, error) {
	author, err := DecodeAuthorAccount(b)
	if err != nil {
		return author, nil, err
	}
	rest := b[32:]
	if len(rest) < 1 {
		return author, nil, errShortBuffer
	}
	if rest[0] == 0 {
		return author, nil, nil
	}
	rest = rest[1:]
	block, rest, err := readBlock(rest)
	if err != nil {
		return author, nil, err
	}
	if len(rest) < 32+32 {
		return author, nil, errShortBuffer
	}
	difficulty := chain.DecodeDifficulty(rest[:32])
	var seed chain.Hash
	copy(seed[:], rest[32:64])
	return author, &chain.MinerData{Block: block, Difficulty: difficulty, SeedHash: seed}, nil
}

// EncodeMinerData serializes an Option<MinerData> payload on its own,
// without an accompanying author (used by the mainchain RPC surface).
func EncodeMinerData(data *chain.MinerData) []byte {
	if data == nil {
		return []byte{0}
	}
	buf := []byte{1}
	buf = appendBlock(buf, data.Block)
	buf = append(buf, data.Difficulty.Encode()...)
	buf = append(buf, data.SeedHash[:]...)
	return buf
}

// DecodeMinerData parses an Option<MinerData> payload produced by EncodeMinerData.
func DecodeMinerData(b []byte) (*chain.MinerData, error) {
	if len(b) < 1 {
		return nil, errShortBuffer
	}
	if b[0] == 0 {
		return nil, nil
	}
	rest := b[1:]
	block, rest, err := readBlock(rest)
	if err != nil {
		return nil, err
	}
	if len(rest) < 32+32 {
		return nil, errShortBuffer
	}
	difficulty := chain.DecodeDifficulty(rest[:32])
	var seed chain.Hash
	copy(seed[:], rest[32:64])
	return &chain.MinerData{Block: block, Difficulty: difficulty, SeedHash: seed}, nil
}

// EncodeHeader serializes a bare Header.
func EncodeHeader(h chain.Header) []byte {
	return appendHeader(nil, h)
}

// DecodeHeader parses a bare Header.
func DecodeHeader(b []byte) (chain.Header, error) {
	h, _, err := readHeader(b)
	return h, err
}

// EncodePowAux serializes a PowAux record.
func EncodePowAux(aux chain.PowAux) []byte {
	buf := make([]byte, 0, 64)
	buf = append(buf, aux.Difficulty.Encode()...)
	buf = append(buf, aux.TotalDifficulty.Encode()...)
	return buf
}

// DecodePowAux parses a PowAux record.
func DecodePowAux(b []byte) (chain.PowAux, error) {
	if len(b) < 64 {
		return chain.PowAux{}, errShortBuffer
	}
	return chain.PowAux{
		Difficulty:      chain.DecodeDifficulty(b[:32]),
		TotalDifficulty: chain.DecodeDifficulty(b[32:64]),
	}, nil
}

// EncodeBlockSubmitParams serializes {block, seal} for miner_submitBlock.
func EncodeBlockSubmitParams(p chain.BlockSubmitParams) []byte {
	buf := appendBlock(nil, p.Block)
	buf = appendBytes(buf, p.Seal)
	return buf
}

// DecodeBlockSubmitParams parses a BlockSubmitParams payload.
func DecodeBlockSubmitParams(b []byte) (chain.BlockSubmitParams, error) {
	block, rest, err := readBlock(b)
	if err != nil {
		return chain.BlockSubmitParams{}, err
	}
	seal, _, err := readBytes(rest)
	if err != nil {
		return chain.BlockSubmitParams{}, err
	}
	return chain.BlockSubmitParams{Block: block, Seal: seal}, nil
}

func appendBytes(buf, data []byte) []byte {
	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(data)))
	buf = append(buf, lenBuf[:]...)
	return append(buf, data...)
}

func readBytes(b []byte) ([]byte, []byte, error) {
	if len(b) < 8 {
		return nil, nil, errShortBuffer
	}
	n := binary.LittleEndian.Uint64(b[:8])
	b = b[8:]
	if uint64(len(b)) < n {
		return nil, nil, errShortBuffer
	}
	return b[:n], b[n:], nil
}

func appendHeader(buf []byte, h chain.Header) []byte {
	buf = append(buf, h.ParentHash[:]...)
	var num [8]byte
	binary.LittleEndian.PutUint64(num[:], h.Number)
	buf = append(buf, num[:]...)
	buf = append(buf, h.StateRoot[:]...)
	buf = append(buf, h.ExtrinsicsRoot[:]...)
	var count [8]byte
	binary.LittleEndian.PutUint64(count[:], uint64(len(h.Digest.Logs)))
	buf = append(buf, count[:]...)
	for _, item := range h.Digest.Logs {
		buf = append(buf, byte(item.Kind))
		buf = append(buf, item.EngineID[:]...)
		buf = appendBytes(buf, item.Data)
	}
	return buf
}

func readHeader(b []byte) (chain.Header, []byte, error) {
	var h chain.Header
	if len(b) < 32+8+32+32+8 {
		return h, nil, errShortBuffer
	}
	copy(h.ParentHash[:], b[:32])
	b = b[32:]
	h.Number = binary.LittleEndian.Uint64(b[:8])
	b = b[8:]
	copy(h.StateRoot[:], b[:32])
	b = b[32:]
	copy(h.ExtrinsicsRoot[:], b[:32])
	b = b[32:]
	count := binary.LittleEndian.Uint64(b[:8])
	b = b[8:]
	for i := uint64(0); i < count; i++ {
		if len(b) < 1+4 {
			return h, nil, errShortBuffer
		}
		kind := chain.DigestItemKind(b[0])
		b = b[1:]
		var engine chain.EngineID
		copy(engine[:], b[:4])
		b = b[4:]
		data, rest, err := readBytes(b)
		if err != nil {
			return h, nil, err
		}
		b = rest
		h.Digest.Logs = append(h.Digest.Logs, chain.DigestItem{Kind: kind, EngineID: engine, Data: data})
	}
	return h, b, nil
}

func appendBlock(buf []byte, blk chain.Block) []byte {
	buf = appendHeader(buf, blk.Header)
	var count [8]byte
	binary.LittleEndian.PutUint64(count[:], uint64(len(blk.Body)))
	buf = append(buf, count[:]...)
	for _, ext := range blk.Body {
		buf = appendBytes(buf, ext)
	}
	return buf
}

func readBlock(b []byte) (chain.Block, []byte, error) {
	var blk chain.Block
	header, rest, err := readHeader(b)
	if err != nil {
		return blk, nil, err
	}
	blk.Header = header
	if len(rest) < 8 {
		return blk, nil, errShortBuffer
	}
	count := binary.LittleEndian.Uint64(rest[:8])
	rest = rest[8:]
	for i := uint64(0); i < count; i++ {
		var data []byte
		data, rest, err = readBytes(rest)
		if err != nil {
			return blk, nil, err
		}
		blk.Body = append(blk.Body, data)
	}
	return blk, rest, nil
}
