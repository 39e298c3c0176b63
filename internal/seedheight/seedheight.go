// Package seedheight implements the RandomX seed-height rule that maps a
// block number to the height whose hash seeds the RandomX cache/dataset for
// that block, ported from original_source's common.rs::seed_height.
package seedheight

import "github.com/randomx-labs/p2pool-node/internal/chain"

// Epoch is the number of blocks a single RandomX seed remains valid for.
const Epoch = 2048

// Lag delays seed rotation so miners have time to warm the next dataset
// before it becomes active.
const Lag = 64

// SeedHeight returns the height whose hash seeds the RandomX context used to
// mine block number n: 0 below the first epoch boundary, otherwise the start
// of the epoch that began Lag+1 blocks ago.
func SeedHeight(n chain.BlockNumber) chain.BlockNumber {
	if n <= Epoch+Lag {
		return 0
	}
	return (n - Lag - 1) &^ (Epoch - 1)
}
