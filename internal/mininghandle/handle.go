// Package mininghandle implements the shared mining job record: the
// authoring loop publishes a new build as it assembles one, and mining
// worker goroutines read snapshots of it and submit solved seals back. The
// type is owned outright rather than borrowed from a dependency, since no
// example in the pack ships an equivalent abstraction (DESIGN.md).
package mininghandle

import (
	"sync"
	"sync/atomic"

	"github.com/randomx-labs/p2pool-node/internal/chain"
	"github.com/randomx-labs/p2pool-node/internal/consensus"
)

// Proposal is the not-yet-sealed block a solved seal gets attached to and
// handed to the importer. Left abstract so both the mainchain and p2pool
// authoring loops can supply their own concrete builder.
type Proposal interface {
	// Finalize attaches seal as the last digest item tagged engine and
	// returns the sealed block ready for import.
	Finalize(engine chain.EngineID, seal []byte) chain.Block
}

// Build is a published unit of mining work: the metadata miners hash
// against, plus the still-open proposal submit() will finalize on success.
type Build struct {
	Metadata chain.MiningMetadata
	Proposal Proposal
}

// Importer hands a finalized block to the import pipeline.
type Importer interface {
	Import(block chain.Block) error
}

// Handle coordinates one authoring loop (writer) with N mining worker
// goroutines (readers). All methods are safe for concurrent use.
type Handle struct {
	engine   chain.EngineID
	algo     consensus.Algorithm
	importer Importer

	mu    sync.RWMutex
	build *Build

	version atomic.Uint32
}

// New constructs a Handle for the given consensus engine tag.
func New(engine chain.EngineID, algo consensus.Algorithm, importer Importer) *Handle {
	return &Handle{engine: engine, algo: algo, importer: importer}
}

// Metadata returns a snapshot of the currently published job, or false if
// none has been published (or syncing cleared it).
func (h *Handle) Metadata() (chain.MiningMetadata, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.build == nil {
		return chain.MiningMetadata{}, false
	}
	return h.build.Metadata, true
}

// BestHash returns the best hash of the currently published job, if any.
func (h *Handle) BestHash() (chain.Hash, bool) {
	m, ok := h.Metadata()
	if !ok {
		return chain.Hash{}, false
	}
	return m.BestHash, true
}

// Version returns the current job version. Mining workers poll this to know
// when to restart their hash loop against a fresh job.
func (h *Handle) Version() uint32 {
	return h.version.Load()
}

// OnBuild publishes a newly assembled build and bumps the version, waking
// any mining worker polling Version().
func (h *Handle) OnBuild(b Build) {
	h.mu.Lock()
	h.build = &b
	h.mu.Unlock()
	h.version.Add(1)
}

// OnMajorSyncing clears the published build so mining workers idle instead
// of wasting hashes on a job that is about to become stale.
func (h *Handle) OnMajorSyncing() {
	h.mu.Lock()
	h.build = nil
	h.mu.Unlock()
	h.version.Add(1)
}

// Submit is called by a mining worker that believes it found a winning
// nonce. It re-verifies the seal against the currently held metadata before
// finalizing and importing the block, so a stale or forged submission from
// a worker still iterating an old job can never reach the importer.
func (h *Handle) Submit(sealBytes []byte) (bool, error) {
	h.mu.RLock()
	build := h.build
	h.mu.RUnlock()
	if build == nil {
		return false, nil
	}

	ok, err := h.algo.Verify(build.Metadata.BestNumber, build.Metadata.PreHash, build.Metadata.PreRuntime, sealBytes, build.Metadata.Difficulty)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	block := build.Proposal.Finalize(h.engine, sealBytes)
	if err := h.importer.Import(block); err != nil {
		return false, err
	}
	return true, nil
}
