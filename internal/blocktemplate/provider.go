// Package blocktemplate composes the PPLNS share aggregator with a call to
// the mainchain RPC surface to produce a fresh MinerData for the p2pool
// miner, ported from
// original_source/p2pool/client/block-template/src/{provider,worker}.rs.
package blocktemplate

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/randomx-labs/p2pool-node/internal/auxstore"
	"github.com/randomx-labs/p2pool-node/internal/chain"
	"github.com/randomx-labs/p2pool-node/internal/codec"
	"github.com/randomx-labs/p2pool-node/internal/pplns"
)

// RPC is the subset of internal/rpcclient.Client this package depends on.
type RPC interface {
	GetMinerData(ctx context.Context, author chain.AccountID, shares []pplns.Share) (*chain.MinerData, error)
}

// Provider produces a MinerData for the current best sidechain tip.
type Provider struct {
	RPC        RPC
	Aggregator *pplns.Aggregator
	Author     chain.AccountID
	// Aux serves LegacyBlockTemplate from the authoring loop's last
	// persisted block_template aux record instead of a fresh upstream call.
	Aux auxstore.Store
	Log *zap.Logger
}

// BlockTemplate returns the current miner data for bestHash, or nil if the
// RPC round-trip or share aggregation failed — logged, never propagated,
// mirroring the original's block_template() -> Option<BlockTemplate>.
func (p *Provider) BlockTemplate(ctx context.Context, bestHash chain.Hash) *chain.MinerData {
	shares := p.Aggregator.Shares(bestHash)
	data, err := p.RPC.GetMinerData(ctx, p.Author, shares)
	if err != nil {
		p.logWarn("failed to fetch miner data", err)
		return nil
	}
	return data
}

// LegacyBlockTemplate is the no-arg aux-cache variant (spec.md §9's
// getBlockTemplate Open Question, the second resolved signature): it reads
// back the most recently authored template the authoring loop persisted
// under auxstore.PrefixBlockTemplate rather than making a fresh upstream
// call, matching the BlockTemplateAux singleton (spec.md §3).
func (p *Provider) LegacyBlockTemplate(ctx context.Context) *chain.MinerData {
	if p.Aux == nil {
		return nil
	}
	raw, err := p.Aux.Get(auxstore.PrefixBlockTemplate)
	if err != nil {
		if !errors.Is(err, auxstore.ErrNotFound) {
			p.logWarn("failed to read block template aux", err)
		}
		return nil
	}
	data, err := codec.DecodeMinerData(raw)
	if err != nil {
		p.logWarn("failed to decode block template aux", err)
		return nil
	}
	return data
}

func (p *Provider) logWarn(msg string, err error) {
	if p.Log != nil {
		p.Log.Warn(msg, zap.Error(err))
	}
}
