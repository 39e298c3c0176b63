// Package difficulty implements the WTEMA (weighted-target exponential
// moving average) difficulty adjustment rule, ported from
// original_source's hashcash/pallets/wtema/src/lib.rs.
package difficulty

import (
	"github.com/holiman/uint256"

	"github.com/randomx-labs/p2pool-node/internal/chain"
)

// Target block times in seconds the two chains each steer towards: the
// mainchain's own hashcash pallet runs at a 120s target, the p2pool
// sidechain shares at 10s.
const (
	MainchainTargetBlockTimeSecs = 120
	P2PoolTargetBlockTimeSecs    = 10
)

// Filter controls the rule's responsiveness: larger values smooth harder.
// Shared by both chains.
const Filter = 72

// Update computes the next difficulty given the previous difficulty, the
// chain's target block time, and the observed timestamp delta (in seconds)
// between the last two blocks:
//
//	next = prev * T / (T + (delta - T) / N)
//
// where T is the target block time and N is Filter. Expressed over uint256
// as prev + prev*(T-delta)/denom with denom = (N-1)*T + delta, matching the pallet's integer arithmetic
// so two independent nodes always converge on the same value.
func Update(prev chain.Difficulty, targetSecs, deltaSecs int64) chain.Difficulty {
	if deltaSecs < 1 {
		deltaSecs = 1
	}
	t := uint256.NewInt(uint64(targetSecs))
	n := uint256.NewInt(Filter)
	delta := uint256.NewInt(uint64(deltaSecs))

	// denom = (N-1)*T + delta
	denom := new(uint256.Int).Sub(n, uint256.NewInt(1))
	denom.Mul(denom, t)
	denom.Add(denom, delta)
	if denom.IsZero() {
		denom = uint256.NewInt(1)
	}

	// next = prev * N*T / ((N-1)*T + delta)
	// equivalently next = prev + prev*(T-delta)/denom, computed without
	// going negative by branching on sign.
	prevInt := prev.Int()
	if deltaSecs >= targetSecs {
		diff := uint256.NewInt(uint64(deltaSecs - targetSecs))
		adj := new(uint256.Int).Mul(prevInt, diff)
		adj.Div(adj, denom)
		next := new(uint256.Int)
		if _, overflow := next.SubOverflow(prevInt, adj); overflow {
			return chain.NewDifficulty(1)
		}
		if next.IsZero() {
			return chain.NewDifficulty(1)
		}
		return chain.DifficultyFromUint256(next)
	}

	diff := uint256.NewInt(uint64(targetSecs - deltaSecs))
	adj := new(uint256.Int).Mul(prevInt, diff)
	adj.Div(adj, denom)
	next := new(uint256.Int)
	if _, overflow := next.AddOverflow(prevInt, adj); overflow {
		return chain.DifficultyFromUint256(new(uint256.Int).SetAllOne())
	}
	return chain.DifficultyFromUint256(next)
}
