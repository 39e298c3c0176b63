// Package randomxpool bounds the number of live RandomX caches and datasets
// kept in memory at once via an LRU eviction policy, ported from
// original_source's hashcash/client/consensus/src/randomx.rs. Each is keyed
// by the seed hash it was initialized with, so a reorg that revisits a
// recent seed reuses the already-initialized cache/dataset instead of
// reallocating (cache init and especially dataset init are expensive).
package randomxpool

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru"

	"github.com/randomx-labs/p2pool-node/internal/chain"
	"github.com/randomx-labs/p2pool-node/internal/randomx"
)

// MaxCaches and MaxDatasets bound the pool's memory footprint: a dataset is
// ~2080 MiB and a cache ~256 MiB, so these caps keep worst-case RSS bounded
// even across rapid seed rotation.
const (
	MaxCaches   = 3
	MaxDatasets = 2
)

// Pool owns the process-wide cache/dataset LRUs. It is intentionally a
// process-wide singleton value (Design Note 2: an explicit "RandomX
// context" constructed once at startup and threaded to every consumer,
// rather than a package-level global).
type Pool struct {
	flags randomx.Flags

	mu       sync.Mutex
	caches   *lru.Cache
	datasets *lru.Cache
}

// New constructs a Pool using the recommended flags for the running
// machine, optionally OR'd with extra (e.g. randomx.FlagFullMem for miners
// that always want dataset-backed VMs).
func New(extra randomx.Flags) (*Pool, error) {
	p := &Pool{flags: randomx.DefaultFlags() | extra}

	caches, err := lru.NewWithEvict(MaxCaches, func(_ interface{}, v interface{}) {
		v.(*randomx.Cache).Release()
	})
	if err != nil {
		return nil, fmt.Errorf("randomxpool: allocate cache LRU: %w", err)
	}
	datasets, err := lru.NewWithEvict(MaxDatasets, func(_ interface{}, v interface{}) {
		v.(*randomx.Dataset).Release()
	})
	if err != nil {
		return nil, fmt.Errorf("randomxpool: allocate dataset LRU: %w", err)
	}
	p.caches = caches
	p.datasets = datasets
	return p, nil
}

// GetOrInitCache returns the cache for seed, allocating and initializing a
// new one (evicting the least-recently-used entry if the pool is full) if
// it isn't already resident.
func (p *Pool) GetOrInitCache(seed chain.Hash) (*randomx.Cache, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if v, ok := p.caches.Get(seed); ok {
		return v.(*randomx.Cache), nil
	}
	cache, err := randomx.NewCache(p.flags)
	if err != nil {
		return nil, err
	}
	cache.Init(seed[:])
	p.caches.Add(seed, cache)
	return cache, nil
}

// GetOrInitDataset returns the dataset seeded by seed, building it from the
// corresponding cache (via GetOrInitCache) on first use.
func (p *Pool) GetOrInitDataset(seed chain.Hash) (*randomx.Dataset, error) {
	p.mu.Lock()
	if v, ok := p.datasets.Get(seed); ok {
		defer p.mu.Unlock()
		return v.(*randomx.Dataset), nil
	}
	p.mu.Unlock()

	cache, err := p.GetOrInitCache(seed)
	if err != nil {
		return nil, err
	}
	dataset, err := randomx.NewDataset(p.flags)
	if err != nil {
		return nil, err
	}
	dataset.Init(cache)

	p.mu.Lock()
	defer p.mu.Unlock()
	if v, ok := p.datasets.Get(seed); ok {
		dataset.Release()
		return v.(*randomx.Dataset), nil
	}
	p.datasets.Add(seed, dataset)
	return dataset, nil
}

// Hash computes the RandomX hash of input under the cache seeded by seed,
// in light mode. It satisfies consensus.Engine for verify-path use, where
// allocating a fresh VM per call is acceptable (verification is rare
// compared to mining).
func (p *Pool) Hash(seed chain.Hash, input []byte) (chain.Hash, error) {
	cache, err := p.GetOrInitCache(seed)
	if err != nil {
		return chain.Hash{}, err
	}
	vm, err := randomx.NewVm(p.flags &^ randomx.FlagFullMem, cache, nil)
	if err != nil {
		return chain.Hash{}, err
	}
	defer vm.Destroy()
	return chain.Hash(vm.CalculateHash(input)), nil
}
