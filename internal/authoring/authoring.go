// Package authoring drives the block-authoring control loop: on each
// timer tick, pull the best chain, compute difficulty, gather pre-runtime
// digests and inherents, propose a block, and publish it to the mining
// handle as a new job. Ported from
// original_source/hashcash/client/consensus/src/pow.rs::start_mining_worker.
//
// The runtime contracts it depends on (Proposer, InherentDataProvider) are
// out of scope for this repo (spec.md Non-goals exclude the transaction
// pool and runtime execution); they are named interfaces here so the loop
// itself is complete and testable against fakes.
package authoring

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/randomx-labs/p2pool-node/internal/auxstore"
	"github.com/randomx-labs/p2pool-node/internal/chain"
	"github.com/randomx-labs/p2pool-node/internal/codec"
	"github.com/randomx-labs/p2pool-node/internal/consensus"
	"github.com/randomx-labs/p2pool-node/internal/mininghandle"
)

// SelectChain reports the current best header to build on.
type SelectChain interface {
	BestHeader() (chain.Header, error)
}

// SyncOracle reports whether the node is still catching up with its peers;
// authoring is skipped while major syncing is in progress.
type SyncOracle interface {
	IsMajorSyncing() bool
}

// PreRuntimeProvider supplies the pre-runtime digest items (author id,
// and on p2pool, the embedded mainchain MinerData) for the next block.
type PreRuntimeProvider interface {
	PreRuntime(best chain.Hash) []chain.DigestItem
}

// InherentDataProvider supplies opaque inherent-extrinsic bytes for the
// next block body (e.g. the PPLNS coinbase shares inherent).
type InherentDataProvider interface {
	CreateInherentData(best chain.Hash) ([][]byte, error)
}

// Proposer builds a new unsealed block proposal.
type Proposer interface {
	Propose(best chain.Header, inherents [][]byte, digest chain.Digest, buildTime time.Duration) (mininghandle.Proposal, chain.Header, error)
}

// Loop is the authoring control loop.
type Loop struct {
	Engine     chain.EngineID
	Chain      SelectChain
	Sync       SyncOracle
	Algo       consensus.Algorithm
	PreRuntime PreRuntimeProvider
	Inherents  InherentDataProvider
	Proposer   Proposer
	Handle     *mininghandle.Handle
	BuildTime  time.Duration
	// Aux, if set, receives the most recently authored template under
	// auxstore.PrefixBlockTemplate, letting a no-arg RPC serve it back
	// without a fresh upstream round-trip.
	Aux auxstore.Store
	Log *zap.Logger

	lastBest chain.Hash
	hasLast  bool
}

// Run ticks every interval until ctx is cancelled, attempting to author a
// new block and publish it to Handle on each tick.
func (l *Loop) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.tick()
		}
	}
}

func (l *Loop) tick() {
	if l.Sync.IsMajorSyncing() {
		l.Handle.OnMajorSyncing()
		return
	}

	bestHeader, err := l.Chain.BestHeader()
	if err != nil {
		l.warn("unable to pull new block for authoring: select best chain failed", err)
		return
	}
	bestHash := bestHeader.Hash()
	if l.hasLast && l.lastBest == bestHash {
		return
	}

	difficulty, err := l.Algo.Difficulty(bestHash)
	if err != nil {
		l.warn("unable to propose new block for authoring: fetch difficulty failed", err)
		return
	}

	inherents, err := l.Inherents.CreateInherentData(bestHash)
	if err != nil {
		l.warn("unable to propose new block for authoring: creating inherent data failed", err)
		return
	}

	var digest chain.Digest
	var preRuntime []byte
	for _, item := range l.PreRuntime.PreRuntime(bestHash) {
		if item.Kind == chain.DigestPreRuntime && item.EngineID == l.Engine {
			preRuntime = item.Data
		}
		digest.Push(item)
	}

	proposal, header, err := l.Proposer.Propose(bestHeader, inherents, digest, l.BuildTime)
	if err != nil {
		l.warn("unable to propose new block for authoring: creating proposal failed", err)
		return
	}

	l.persistTemplate(preRuntime)

	build := mininghandle.Build{
		Metadata: chain.MiningMetadata{
			BestHash:   bestHash,
			BestNumber: bestHeader.Number,
			PreHash:    header.Hash(),
			PreRuntime: preRuntime,
			Difficulty: difficulty,
		},
		Proposal: proposal,
	}
	l.Handle.OnBuild(build)
	l.lastBest = bestHash
	l.hasLast = true
}

// persistTemplate stores the mainchain MinerData embedded in this tick's
// pre-runtime digest under the block_template aux singleton, last-writer-
// wins, so LegacyBlockTemplate can serve it back without a fresh upstream
// round-trip. No-op if Aux is unset, preRuntime is empty, or no MinerData
// was embedded (e.g. the mainchain RPC round-trip failed this tick).
func (l *Loop) persistTemplate(preRuntime []byte) {
	if l.Aux == nil || len(preRuntime) == 0 {
		return
	}
	_, data, err := codec.DecodeAuthorMinerData(preRuntime)
	if err != nil || data == nil {
		return
	}
	if err := l.Aux.Put(auxstore.PrefixBlockTemplate, codec.EncodeMinerData(data)); err != nil {
		l.warn("unable to persist block template aux", err)
	}
}

func (l *Loop) warn(msg string, err error) {
	if l.Log != nil {
		l.Log.Warn(msg, zap.Error(err))
	}
}
