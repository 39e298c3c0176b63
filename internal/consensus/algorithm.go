// Package consensus provides the PoW algorithm adapters that verify a seal
// against (pre-hash, nonce) for both the mainchain and the p2pool sidechain,
// ported from original_source's hashcash/.../algorithm.rs and
// p2pool/.../algorithm.rs.
package consensus

import (
	"fmt"

	"github.com/randomx-labs/p2pool-node/internal/chain"
	"github.com/randomx-labs/p2pool-node/internal/codec"
	"github.com/randomx-labs/p2pool-node/internal/errs"
	"github.com/randomx-labs/p2pool-node/internal/seedheight"
)

// Engine computes a RandomX hash under a given seed. internal/randomxpool
// satisfies this.
type Engine interface {
	Hash(seed chain.Hash, input []byte) (chain.Hash, error)
}

// DifficultyProvider resolves the difficulty a child of parent must meet.
// Mainchain and p2pool each supply their own implementation (runtime
// DifficultyApi equivalent / sidechain WTEMA state respectively).
type DifficultyProvider interface {
	DifficultyAt(parent chain.Hash) (chain.Difficulty, error)
}

// SeedSource resolves the RandomX seed hash active for a given block number,
// i.e. the hash of the header at seedheight.SeedHeight(number).
type SeedSource interface {
	HashAtHeight(height chain.BlockNumber) (chain.Hash, error)
}

// Algorithm is the common adapter surface used by both block import and the
// mining worker. preDigest is the pre-runtime digest payload attached to the
// header under verification; MainchainAlgorithm ignores it, P2PoolAlgorithm
// reads its embedded seed hash from it.
type Algorithm interface {
	Difficulty(parent chain.Hash) (chain.Difficulty, error)
	Verify(parentNumber chain.BlockNumber, preHash chain.Hash, preDigest []byte, sealBytes []byte, difficulty chain.Difficulty) (bool, error)
	BreakTie(seal1, seal2 []byte) bool
}

// MainchainAlgorithm verifies PoW against the chain's own running RandomX
// seed (mirrored from the block at seedheight.SeedHeight(number)).
type MainchainAlgorithm struct {
	Engine       Engine
	DiffProvider DifficultyProvider
	Seeds        SeedSource
}

var _ Algorithm = (*MainchainAlgorithm)(nil)

// Difficulty returns the difficulty a child of parent must meet.
func (a *MainchainAlgorithm) Difficulty(parent chain.Hash) (chain.Difficulty, error) {
	return a.DiffProvider.DifficultyAt(parent)
}

// Verify recomputes the RandomX hash of (preHash, nonce) under the seed
// active for the child of parentNumber and checks it against difficulty.
// preDigest is unused: the mainchain seed is a pure function of height.
func (a *MainchainAlgorithm) Verify(parentNumber chain.BlockNumber, preHash chain.Hash, preDigest []byte, sealBytes []byte, difficulty chain.Difficulty) (bool, error) {
	seal, err := codec.DecodeSeal(sealBytes)
	if err != nil {
		return false, fmt.Errorf("%w: %v", errs.ErrInvalidSeal, err)
	}
	seed, err := a.Seeds.HashAtHeight(seedheight.SeedHeight(parentNumber + 1))
	if err != nil {
		return false, err
	}
	hash, err := a.Engine.Hash(seed, codec.EncodePreHashNonce(preHash, seal.Nonce))
	if err != nil {
		return false, err
	}
	return chain.CheckHash(hash, difficulty), nil
}

// BreakTie is the mainchain's fork-choice tiebreaker between two seals of
// equal cumulative difficulty. It reports true (seal2 wins) when seal1
// orders before seal2 by raw seal bytes (shorter first, then bytewise), so
// the larger seal wins.
func (a *MainchainAlgorithm) BreakTie(seal1, seal2 []byte) bool {
	return lessSeal(seal1, seal2)
}

// P2PoolAlgorithm verifies a sidechain share's PoW. The seed hash travels in
// the pre-runtime digest payload itself (the mainchain block a share refers
// to), so no SeedSource lookup is needed.
type P2PoolAlgorithm struct {
	Engine       Engine
	DiffProvider DifficultyProvider
}

var _ Algorithm = (*P2PoolAlgorithm)(nil)

// Difficulty returns the sidechain share difficulty a child of parent must
// meet, as tracked by the p2pool import extension's own WTEMA state.
func (a *P2PoolAlgorithm) Difficulty(parent chain.Hash) (chain.Difficulty, error) {
	return a.DiffProvider.DifficultyAt(parent)
}

// Verify decodes the pre-runtime (author, MinerData) payload carried by
// preDigest for its seed hash and embedded mainchain template, and checks
// the share's RandomX hash against difficulty. preHash (the sidechain
// proposal's own hash) and parentNumber are both unused: the hash input is
// the embedded mainchain template's block hash, not the sidechain header,
// matching the original's encode(block_template.block.hash(), nonce).
func (a *P2PoolAlgorithm) Verify(_ chain.BlockNumber, _ chain.Hash, preDigest []byte, sealBytes []byte, difficulty chain.Difficulty) (bool, error) {
	seal, err := codec.DecodeSeal(sealBytes)
	if err != nil {
		return false, fmt.Errorf("%w: %v", errs.ErrInvalidSeal, err)
	}
	_, minerData, err := codec.DecodeAuthorMinerData(preDigest)
	if err != nil {
		return false, fmt.Errorf("%w: %v", errs.ErrCodec, err)
	}
	if minerData == nil {
		return false, errs.ErrHeaderUnsealed
	}
	hash, err := a.Engine.Hash(minerData.SeedHash, codec.EncodeBlockHashNonce(minerData.Block.Header.Hash(), seal.Nonce))
	if err != nil {
		return false, err
	}
	return chain.CheckHash(hash, difficulty), nil
}

// BreakTie mirrors MainchainAlgorithm's tiebreaker for sidechain forks.
func (a *P2PoolAlgorithm) BreakTie(seal1, seal2 []byte) bool {
	return lessSeal(seal1, seal2)
}

func lessSeal(a, b []byte) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
