// Package pplns implements the PPLNS share aggregator: walking the
// sidechain back from the best header to genesis (or window_size blocks,
// whichever comes first), summing per-author share difficulty. Ported
// from original_source/p2pool/client/block-template/src/provider.rs::get_shares,
// with the Open-Question fix applied: current always advances to its
// parent, even when a per-block lookup fails.
package pplns

import (
	"sort"

	"go.uber.org/zap"

	"github.com/randomx-labs/p2pool-node/internal/auxstore"
	"github.com/randomx-labs/p2pool-node/internal/chain"
	"github.com/randomx-labs/p2pool-node/internal/codec"
)

// Share is one author's aggregated difficulty over the PPLNS window.
type Share struct {
	Author     chain.AccountID
	Difficulty chain.Difficulty
}

// HeaderSource resolves a header by hash, used to walk the sidechain.
type HeaderSource interface {
	HeaderByHash(hash chain.Hash) (chain.Header, bool)
}

// Aggregator computes PPLNS shares over a sidechain window.
type Aggregator struct {
	Chain       HeaderSource
	Aux         auxstore.Store
	Engine      chain.EngineID
	GenesisHash chain.Hash
	WindowSize  uint64
	SelfAuthor  chain.AccountID
	Log         *zap.Logger
}

// Shares walks back from bestHash toward GenesisHash, for up to WindowSize
// blocks, summing share difficulty per author. current always advances to
// its parent on every loop iteration regardless of per-block errors, so
// the walk is guaranteed to terminate within WindowSize steps or at
// genesis (spec.md §9's PPLNS walk fix).
func (a *Aggregator) Shares(bestHash chain.Hash) []Share {
	totals := make(map[chain.AccountID]chain.Difficulty)
	order := make([]chain.AccountID, 0)

	current, ok := a.Chain.HeaderByHash(bestHash)
	if !ok {
		a.logWarn("best header not found", bestHash)
		return a.seeded(totals, order)
	}

	var count uint64
	for current.Hash() != a.GenesisHash && count < a.WindowSize {
		hash := current.Hash()
		author, aerr := authorOf(&current, a.Engine)
		diff, derr := a.difficultyOf(hash)

		if aerr == nil && derr == nil {
			if existing, found := totals[author]; found {
				totals[author] = existing.Add(diff)
			} else {
				totals[author] = diff
				order = append(order, author)
			}
		} else if aerr != nil {
			a.logWarn("author lookup failed", hash)
		} else {
			a.logWarn("share difficulty lookup failed", hash)
		}

		parent, found := a.Chain.HeaderByHash(current.ParentHash)
		count++
		if !found {
			break
		}
		current = parent
	}

	return a.seeded(totals, order)
}

func (a *Aggregator) seeded(totals map[chain.AccountID]chain.Difficulty, order []chain.AccountID) []Share {
	if len(totals) == 0 {
		return []Share{{Author: a.SelfAuthor, Difficulty: chain.NewDifficulty(1)}}
	}
	shares := make([]Share, 0, len(order))
	for _, author := range order {
		shares = append(shares, Share{Author: author, Difficulty: totals[author]})
	}
	sort.Slice(shares, func(i, j int) bool {
		return string(shares[i].Author[:]) < string(shares[j].Author[:])
	})
	return shares
}

func (a *Aggregator) difficultyOf(hash chain.Hash) (chain.Difficulty, error) {
	raw, err := a.Aux.Get(auxstore.PrefixShareDifficulty + hash.String())
	if err != nil {
		return chain.Difficulty{}, err
	}
	return chain.DecodeDifficulty(raw), nil
}

func (a *Aggregator) logWarn(msg string, hash chain.Hash) {
	if a.Log != nil {
		a.Log.Warn(msg, zap.String("hash", hash.String()))
	}
}

func authorOf(header *chain.Header, engine chain.EngineID) (chain.AccountID, error) {
	preDigest, found, multiple := header.Digest.FindPreRuntime(engine)
	if multiple {
		return chain.AccountID{}, errMultipleAuthors
	}
	if !found {
		return chain.AccountID{}, errNoAuthor
	}
	author, _, err := codec.DecodeAuthorMinerData(preDigest)
	if err != nil {
		return chain.AccountID{}, err
	}
	return author, nil
}
