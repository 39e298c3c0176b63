// Package p2poolimport wraps the mainchain-style import pipeline with the
// p2pool sidechain's own bookkeeping: mainchain-block dedup and per-share
// RandomX-derived difficulty, ported near-verbatim in semantics from
// original_source/p2pool/client/consensus/src/import.rs.
package p2poolimport

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/randomx-labs/p2pool-node/internal/auxstore"
	"github.com/randomx-labs/p2pool-node/internal/blockimport"
	"github.com/randomx-labs/p2pool-node/internal/chain"
	"github.com/randomx-labs/p2pool-node/internal/codec"
	"github.com/randomx-labs/p2pool-node/internal/errs"
)

// Engine computes a RandomX hash under a given seed, satisfied by
// internal/randomxpool.Pool.
type Engine interface {
	Hash(seed chain.Hash, input []byte) (chain.Hash, error)
}

// Extension is the p2pool block-import extension wired in as the mainchain
// importer's Inner stage.
type Extension struct {
	Engine chain.EngineID
	Aux    auxstore.Store
	Hasher Engine
	Next   blockimport.Inner             // optional terminal stage, may be nil
	OnWin  func(chain.BlockSubmitParams) // optional, fires on a merge-mined mainchain block win
}

var _ blockimport.Inner = (*Extension)(nil)

// ImportBlock is invoked by blockimport.Importer after it has verified the
// sidechain seal and computed aux/fork for the share itself.
func (e *Extension) ImportBlock(block chain.Block, aux chain.PowAux, fork blockimport.ForkChoice) error {
	preDigest, found, multiple := block.Header.Digest.FindPreRuntime(e.Engine)
	if multiple {
		return errs.ErrMultiplePreRuntimeDigest
	}
	if !found {
		return errs.ErrHeaderUnsealed
	}
	_, template, err := codec.DecodeAuthorMinerData(preDigest)
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrCodec, err)
	}
	if template == nil {
		return errs.ErrHeaderUnsealed
	}

	sealBytes, ok := block.Header.Digest.LastSeal(e.Engine)
	if !ok {
		return errs.ErrHeaderUnsealed
	}
	seal, err := codec.DecodeSeal(sealBytes)
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrInvalidSeal, err)
	}

	sidechainPostHash := block.Header.Hash()

	work, err := e.Hasher.Hash(template.SeedHash, codec.EncodeBlockHashNonce(template.Block.Header.Hash(), seal.Nonce))
	if err != nil {
		return err
	}

	if fork.IsBest {
		mainchainBlock := template.Block
		mainchainBlock.Header.Digest.Push(chain.DigestItem{Kind: chain.DigestSeal, EngineID: chain.PowEngineID, Data: sealBytes})
		mainchainHash := mainchainBlock.Header.Hash()

		dedupKey := auxstore.PrefixMainchainDedup + mainchainHash.String()
		exists, err := e.Aux.Has(dedupKey)
		if err != nil {
			return err
		}
		if exists {
			return errs.ErrAlreadyImported
		}
		if err := e.Aux.Put(dedupKey, sidechainPostHash[:]); err != nil {
			return err
		}

		if e.OnWin != nil && chain.CheckHash(work, template.Difficulty) {
			e.OnWin(chain.BlockSubmitParams{Block: mainchainBlock, Seal: sealBytes})
		}
	}

	share := shareDifficulty(work)
	if err := e.Aux.Put(auxstore.PrefixShareDifficulty+sidechainPostHash.String(), share.Encode()); err != nil {
		return err
	}

	if e.Next != nil {
		return e.Next.ImportBlock(block, aux, fork)
	}
	return nil
}

// shareDifficulty is floor(U256::MAX / U256(work)). A zero work hash, which
// would otherwise divide by zero, yields U256::MAX.
func shareDifficulty(work chain.Hash) chain.Difficulty {
	w := new(uint256.Int).SetBytes(work[:])
	if w.IsZero() {
		return chain.DifficultyFromUint256(new(uint256.Int).SetAllOne())
	}
	max := new(uint256.Int).SetAllOne()
	quotient := new(uint256.Int).Div(max, w)
	if quotient.IsZero() {
		return chain.NewDifficulty(1)
	}
	return chain.DifficultyFromUint256(quotient)
}

