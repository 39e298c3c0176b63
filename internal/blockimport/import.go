// Package blockimport implements the mainchain-style import pipeline: seal
// verification, PoW aux bookkeeping (running total difficulty), and
// fork-choice, ported from spec.md §4.I — the plain import path that
// original_source/p2pool/client/consensus/src/import.rs wraps on the
// sidechain side.
package blockimport

import (
	"errors"
	"fmt"

	"github.com/randomx-labs/p2pool-node/internal/auxstore"
	"github.com/randomx-labs/p2pool-node/internal/chain"
	"github.com/randomx-labs/p2pool-node/internal/codec"
	"github.com/randomx-labs/p2pool-node/internal/consensus"
	"github.com/randomx-labs/p2pool-node/internal/errs"
)

// ForkChoice is the outcome of importing a block: whether it should become
// the new best chain head.
type ForkChoice struct {
	IsBest bool
}

// SelectChain reports the current best header.
type SelectChain interface {
	BestHeader() (chain.Header, error)
}

// Inner is the next stage of the import pipeline (e.g. the p2pool
// extension, or a terminal no-op that just appends the block).
type Inner interface {
	ImportBlock(block chain.Block, aux chain.PowAux, fork ForkChoice) error
}

// Result carries the PoW aux record written for the block and its
// fork-choice outcome.
type Result struct {
	Aux   chain.PowAux
	Fork  ForkChoice
}

// Importer is the mainchain block-import pipeline.
type Importer struct {
	Engine      chain.EngineID
	Chain       SelectChain
	Aux         auxstore.Store
	Algo        consensus.Algorithm
	Inner       Inner
	HeaderByHash func(chain.Hash) (chain.Header, error)
}

// ImportBlock runs the full verify-and-account pipeline for block and
// forwards it to Inner.
func (imp *Importer) ImportBlock(block chain.Block) (Result, error) {
	best, err := imp.Chain.BestHeader()
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", errs.ErrBestHeader, err)
	}
	bestAux, err := readPowAux(imp.Aux, best.Hash())
	if err != nil {
		return Result{}, err
	}
	parentHash := block.Header.ParentHash
	parentAux, err := readPowAux(imp.Aux, parentHash)
	if err != nil {
		return Result{}, err
	}

	innerSeal, ok := block.Header.Digest.LastSeal(imp.Engine)
	if !ok {
		return Result{}, errs.ErrHeaderUnsealed
	}

	preDigest, found, multiple := block.Header.Digest.FindPreRuntime(imp.Engine)
	if multiple {
		return Result{}, errs.ErrMultiplePreRuntimeDigest
	}
	if !found {
		preDigest = nil
	}

	difficulty, err := imp.Algo.Difficulty(parentHash)
	if err != nil {
		return Result{}, err
	}

	preHash := block.Header.HashWithoutSeal()
	parent, err := imp.HeaderByHash(parentHash)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", errs.ErrClient, err)
	}
	ok, err = imp.Algo.Verify(parent.Number, preHash, preDigest, innerSeal, difficulty)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return Result{}, errs.ErrInvalidSeal
	}

	aux := chain.PowAux{
		Difficulty:      difficulty,
		TotalDifficulty: parentAux.TotalDifficulty.Add(difficulty),
	}
	postHash := block.Header.Hash()
	if err := imp.Aux.Put(auxstore.PrefixPowAux+postHash.String(), codec.EncodePowAux(aux)); err != nil {
		return Result{}, err
	}

	bestInnerSeal, _ := best.Digest.LastSeal(imp.Engine)
	isBest := aux.TotalDifficulty.Cmp(bestAux.TotalDifficulty) > 0 ||
		(aux.TotalDifficulty.Cmp(bestAux.TotalDifficulty) == 0 && imp.Algo.BreakTie(bestInnerSeal, innerSeal))
	fork := ForkChoice{IsBest: isBest}

	if imp.Inner != nil {
		if err := imp.Inner.ImportBlock(block, aux, fork); err != nil {
			return Result{}, err
		}
	}
	return Result{Aux: aux, Fork: fork}, nil
}

func readPowAux(store auxstore.Store, hash chain.Hash) (chain.PowAux, error) {
	raw, err := store.Get(auxstore.PrefixPowAux + hash.String())
	if err != nil {
		if errors.Is(err, auxstore.ErrNotFound) {
			return chain.PowAux{}, nil
		}
		return chain.PowAux{}, err
	}
	return codec.DecodePowAux(raw)
}
