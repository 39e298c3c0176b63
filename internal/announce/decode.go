package announce

import (
	"errors"

	"github.com/randomx-labs/p2pool-node/internal/chain"
	"github.com/randomx-labs/p2pool-node/internal/codec"
)

var errNoMinerData = errors.New("announce: pre-digest carries no embedded mainchain template")

func embeddedMainchainNumber(preDigest []byte) (chain.BlockNumber, error) {
	_, data, err := codec.DecodeAuthorMinerData(preDigest)
	if err != nil {
		return 0, err
	}
	if data == nil {
		return 0, errNoMinerData
	}
	return data.Block.Header.Number, nil
}
