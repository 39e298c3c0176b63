// Package p2poolauthor supplies the concrete authoring.PreRuntimeProvider,
// authoring.InherentDataProvider, and authoring.Proposer the node needs to
// author its own sidechain blocks, ported from
// original_source/p2pool/client/consensus/src/import.rs and
// block-template/src/worker.rs. A p2pool block's body is just the PPLNS
// window's coinbase/shares inherent — there is no transaction pool or WASM
// runtime execution behind it, so this package, unlike the mainchain's own
// authoring contracts, can be concrete rather than a named interface.
package p2poolauthor

import (
	"context"
	"time"

	"github.com/randomx-labs/p2pool-node/internal/chain"
	"github.com/randomx-labs/p2pool-node/internal/codec"
	"github.com/randomx-labs/p2pool-node/internal/mininghandle"
	"github.com/randomx-labs/p2pool-node/internal/pplns"
)

// Templates resolves the mainchain MinerData a p2pool block embeds,
// satisfied by internal/blocktemplate.Provider.
type Templates interface {
	BlockTemplate(ctx context.Context, bestHash chain.Hash) *chain.MinerData
}

// Shares resolves the current PPLNS window, satisfied by
// internal/pplns.Aggregator.
type Shares interface {
	Shares(bestHash chain.Hash) []pplns.Share
}

// Author drives pre-runtime digest, inherent, and proposal construction
// under the node's own account.
type Author struct {
	Engine    chain.EngineID
	Account   chain.AccountID
	Templates Templates
	Shares    Shares
}

// PreRuntime implements authoring.PreRuntimeProvider: embeds (author,
// MinerData) as a single pre-runtime digest item tagged Engine. data is
// nil when the mainchain RPC round-trip fails; the digest still carries
// the author id so the block is attributable even without a template.
func (a *Author) PreRuntime(best chain.Hash) []chain.DigestItem {
	data := a.Templates.BlockTemplate(context.Background(), best)
	payload := codec.EncodeAuthorMinerData(a.Account, data)
	return []chain.DigestItem{{Kind: chain.DigestPreRuntime, EngineID: a.Engine, Data: payload}}
}

// CreateInherentData implements authoring.InherentDataProvider: encodes
// the current PPLNS window as the block's sole coinbase inherent.
func (a *Author) CreateInherentData(best chain.Hash) ([][]byte, error) {
	shares := a.Shares.Shares(best)
	inherent := chain.CoinbaseInherent{Shares: make([]chain.CoinbaseShare, len(shares))}
	for i, s := range shares {
		inherent.Shares[i] = chain.CoinbaseShare{Author: s.Author, Difficulty: s.Difficulty}
	}
	return [][]byte{inherent.Encode()}, nil
}

// proposal is the open, unsealed block a Propose call hands back; sealing
// only appends the Seal digest item, matching Design Note 1's concrete
// header shape.
type proposal struct {
	header chain.Header
	body   [][]byte
}

// Finalize implements mininghandle.Proposal.
func (p *proposal) Finalize(engine chain.EngineID, seal []byte) chain.Block {
	header := p.header
	header.Digest.Push(chain.DigestItem{Kind: chain.DigestSeal, EngineID: engine, Data: seal})
	return chain.Block{Header: header, Body: p.body}
}

// Propose implements authoring.Proposer: builds the child header directly
// on top of best. No state root is computed; state transition/runtime
// execution stays out of scope.
func (a *Author) Propose(best chain.Header, inherents [][]byte, digest chain.Digest, buildTime time.Duration) (mininghandle.Proposal, chain.Header, error) {
	header := chain.Header{
		ParentHash: best.Hash(),
		Number:     best.Number + 1,
		Digest:     digest,
	}
	return &proposal{header: header, body: inherents}, header, nil
}
