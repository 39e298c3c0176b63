package rpcserver

import (
	"encoding/hex"

	"github.com/randomx-labs/p2pool-node/internal/chain"
	"github.com/randomx-labs/p2pool-node/internal/codec"
)

func encodeMinerData(data *chain.MinerData) string {
	return hex.EncodeToString(codec.EncodeMinerData(data))
}
