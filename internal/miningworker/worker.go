// Package miningworker runs the CPU-bound hash loop: one goroutine per
// configured thread, each independently streaming RandomX hashes against
// the currently published mining job and submitting any winning nonce back
// through the mining handle. Ported from original_source's
// hashcash/client/consensus/src/miner.rs and
// p2pool/client/consensus/src/miner.rs, which differ only in how the seed
// hash and verify input are derived (plain height-based seed vs. the
// sidechain's embedded MinerData.SeedHash) — both are expressed here via
// the SeedResolver/InputResolver seams instead of two near-duplicate files.
package miningworker

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/randomx-labs/p2pool-node/internal/chain"
	"github.com/randomx-labs/p2pool-node/internal/codec"
	"github.com/randomx-labs/p2pool-node/internal/mininghandle"
	"github.com/randomx-labs/p2pool-node/internal/randomxpool"
	"github.com/randomx-labs/p2pool-node/internal/seedheight"
)

var errNoMinerData = errors.New("miningworker: job carries no MinerData")

// SeedSource resolves the active RandomX seed hash for the child of a given
// best-block number. Satisfied by internal/mainchainmirror for mainchain
// mining.
type SeedSource interface {
	HashAtHeight(height chain.BlockNumber) (chain.Hash, error)
}

// SeedResolver extracts the RandomX seed hash a job's hashes must be
// computed under. MainchainSeedResolver derives it from chain height;
// P2PoolSeedResolver reads it out of the job's own pre-runtime digest.
type SeedResolver func(metadata chain.MiningMetadata) (chain.Hash, error)

// MainchainSeedResolver resolves the seed purely from the job's block
// height, matching original_source's miner.rs.
func MainchainSeedResolver(seeds SeedSource) SeedResolver {
	return func(metadata chain.MiningMetadata) (chain.Hash, error) {
		return seeds.HashAtHeight(seedheight.SeedHeight(metadata.BestNumber + 1))
	}
}

// P2PoolSeedResolver resolves the seed embedded in the job's own
// (author, MinerData) pre-runtime digest, matching
// p2pool/client/consensus/src/miner.rs.
func P2PoolSeedResolver() SeedResolver {
	return func(metadata chain.MiningMetadata) (chain.Hash, error) {
		_, data, err := codec.DecodeAuthorMinerData(metadata.PreRuntime)
		if err != nil {
			return chain.Hash{}, err
		}
		if data == nil {
			return chain.Hash{}, errNoMinerData
		}
		return data.SeedHash, nil
	}
}

// InputResolver extracts the hash each nonce attempt is computed against.
// MainchainInputResolver hashes the proposal's own pre-hash; P2PoolInputResolver
// hashes the embedded mainchain template's block hash instead, matching
// p2pool/client/consensus/src/miner.rs, where the sidechain pre-hash plays
// no role in the RandomX input.
type InputResolver func(metadata chain.MiningMetadata) (chain.Hash, error)

// MainchainInputResolver hashes the job's own pre-hash, matching
// original_source's hashcash miner.rs.
func MainchainInputResolver() InputResolver {
	return func(metadata chain.MiningMetadata) (chain.Hash, error) {
		return metadata.PreHash, nil
	}
}

// P2PoolInputResolver hashes the mainchain template embedded in the job's
// own (author, MinerData) pre-runtime digest, matching
// p2pool/client/consensus/src/miner.rs's block_template.block.hash().
func P2PoolInputResolver() InputResolver {
	return func(metadata chain.MiningMetadata) (chain.Hash, error) {
		_, data, err := codec.DecodeAuthorMinerData(metadata.PreRuntime)
		if err != nil {
			return chain.Hash{}, err
		}
		if data == nil {
			return chain.Hash{}, errNoMinerData
		}
		return data.Block.Header.Hash(), nil
	}
}

// Params configures a mining thread pool.
type Params struct {
	Handle   *mininghandle.Handle
	Pool     *randomxpool.Pool
	Resolver SeedResolver
	Input    InputResolver
	Threads  int
	Log      *zap.Logger
}

// Run launches Threads worker goroutines (one when Threads is below 1) and
// blocks until ctx is canceled.
func Run(ctx context.Context, p Params) {
	threads := p.Threads
	if threads < 1 {
		threads = 1
	}
	baseNonce := chain.Nonce(rand.Uint64())

	done := make(chan struct{}, threads)
	for i := 0; i < threads; i++ {
		go func(index int) {
			defer func() { done <- struct{}{} }()
			runThread(ctx, p, index, threads, baseNonce+chain.Nonce(index))
		}(i)
	}
	for i := 0; i < threads; i++ {
		<-done
	}
}

func runThread(ctx context.Context, p Params, threadIndex, threadsCount int, startNonce chain.Nonce) {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	input := p.Input
	if input == nil {
		input = MainchainInputResolver()
	}
	vm := randomxpool.NewWorkerVM(p.Pool, true)
	defer vm.Close()

	nonce := startNonce
	version := p.Handle.Version()
	var seedHash chain.Hash
	var haveSeed bool
	isNewVm := false
	isBuildChanged := false

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		metadata, ok := p.Handle.Metadata()
		if !ok {
			sleep(ctx, time.Second)
			continue
		}

		newSeed, err := p.Resolver(metadata)
		if err != nil {
			log.Warn("miningworker: seed hash lookup failed", zap.Int("thread", threadIndex), zap.Error(err))
			sleep(ctx, time.Second)
			continue
		}
		if !haveSeed || newSeed != seedHash {
			seedHash = newSeed
			haveSeed = true
			isNewVm = true
		}

		hashInput, err := input(metadata)
		if err != nil {
			log.Warn("miningworker: hash input lookup failed", zap.Int("thread", threadIndex), zap.Error(err))
			sleep(ctx, time.Second)
			continue
		}

		if isNewVm {
			if err := vm.HashFirst(seedHash, codec.EncodePreHashNonce(hashInput, nonce)); err != nil {
				log.Warn("miningworker: vm seed failed", zap.Int("thread", threadIndex), zap.Error(err))
				sleep(ctx, time.Second)
				continue
			}
			isNewVm = false
			isBuildChanged = false
		}

	inner:
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			newVersion := p.Handle.Version()
			if newVersion != version {
				version = newVersion
				isBuildChanged = true
				break inner
			}

			submitNonce := nonce
			if !isBuildChanged {
				nonce += chain.Nonce(threadsCount)
			}

			hash := vm.HashNext(codec.EncodePreHashNonce(hashInput, nonce))

			if !isBuildChanged && chain.CheckHash(hash, metadata.Difficulty) {
				sealBytes := codec.EncodeSeal(chain.Seal{Nonce: submitNonce})
				ok, err := p.Handle.Submit(sealBytes)
				if err != nil {
					log.Warn("miningworker: submit failed", zap.Int("thread", threadIndex), zap.Error(err))
				} else if ok {
					log.Info("miningworker: found a winning nonce", zap.Int("thread", threadIndex), zap.Uint64("nonce", uint64(submitNonce)))
				}
			}
			isBuildChanged = false
		}
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
