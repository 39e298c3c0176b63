package rpcclient

import (
	"context"
	"encoding/hex"

	"github.com/randomx-labs/p2pool-node/internal/chain"
	"github.com/randomx-labs/p2pool-node/internal/codec"
	"github.com/randomx-labs/p2pool-node/internal/pplns"
)

// shareParam is the wire shape of one PPLNS share entry.
type shareParam struct {
	Author     string `json:"author"`
	Difficulty string `json:"difficulty"`
}

// hexBlob is a generic hex-encoded binary-codec payload, used for any
// result shaped by internal/codec rather than plain JSON fields.
type hexBlob struct {
	Data string `json:"data"`
}

// GetMinerData requests a fresh block template for author, crediting
// shares, via miner_getMinerData(author, shares).
func (c *Client) GetMinerData(ctx context.Context, author chain.AccountID, shares []pplns.Share) (*chain.MinerData, error) {
	params := make([]shareParam, 0, len(shares))
	for _, s := range shares {
		params = append(params, shareParam{
			Author:     hex.EncodeToString(s.Author[:]),
			Difficulty: hex.EncodeToString(s.Difficulty.Encode()),
		})
	}

	var out hexBlob
	if err := c.Call(ctx, "miner_getMinerData", []interface{}{hex.EncodeToString(author[:]), params}, &out); err != nil {
		return nil, err
	}
	return decodeMinerData(out.Data)
}

func decodeMinerData(hexData string) (*chain.MinerData, error) {
	raw, err := hex.DecodeString(hexData)
	if err != nil {
		return nil, err
	}
	return codec.DecodeMinerData(raw)
}

// SubmitBlock forwards a solved block and seal to miner_submitBlock.
func (c *Client) SubmitBlock(ctx context.Context, params chain.BlockSubmitParams) error {
	encoded := hex.EncodeToString(codec.EncodeBlockSubmitParams(params))
	return c.Call(ctx, "miner_submitBlock", []interface{}{encoded}, nil)
}

// LatestHeader fetches the mainchain tip header.
func (c *Client) LatestHeader(ctx context.Context) (chain.Header, error) {
	var out hexBlob
	if err := c.Call(ctx, "chain_getLatestHeader", nil, &out); err != nil {
		return chain.Header{}, err
	}
	raw, err := hex.DecodeString(out.Data)
	if err != nil {
		return chain.Header{}, err
	}
	return codec.DecodeHeader(raw)
}
