package randomxpool

import (
	"github.com/randomx-labs/p2pool-node/internal/chain"
	"github.com/randomx-labs/p2pool-node/internal/randomx"
)

// WorkerVM is a per-mining-goroutine RandomX VM. It is not safe for
// concurrent use: each miningworker goroutine owns exactly one, matching
// the ported source's thread-local fast/light VM reuse (Design Note 2 — a
// plain struct field, not a global).
type WorkerVM struct {
	pool    *Pool
	fast    bool
	vm      *randomx.Vm
	seed    chain.Hash
	hasSeed bool
}

// NewWorkerVM constructs a VM holder. fast selects full-memory (dataset
// backed) mode, used by the actual mining loop; light mode (cache only) is
// cheaper to seed and is what the verify path uses instead.
func NewWorkerVM(pool *Pool, fast bool) *WorkerVM {
	return &WorkerVM{pool: pool, fast: fast}
}

// Hash computes the RandomX hash of input under seed, reseeding the held VM
// in place (via set_cache/set_dataset) instead of reallocating one when the
// seed has rotated since the last call.
func (w *WorkerVM) Hash(seed chain.Hash, input []byte) (chain.Hash, error) {
	if err := w.ensure(seed); err != nil {
		return chain.Hash{}, err
	}
	return chain.Hash(w.vm.CalculateHash(input)), nil
}

// HashFirst/HashNext/HashLast expose the pipelined streaming API for
// sustained hashing against a fixed seed, amortizing dataset-read latency
// across consecutive nonces.
func (w *WorkerVM) HashFirst(seed chain.Hash, input []byte) error {
	if err := w.ensure(seed); err != nil {
		return err
	}
	w.vm.CalculateHashFirst(input)
	return nil
}

func (w *WorkerVM) HashNext(input []byte) chain.Hash {
	return chain.Hash(w.vm.CalculateHashNext(input))
}

func (w *WorkerVM) HashLast() chain.Hash {
	return chain.Hash(w.vm.CalculateHashLast())
}

func (w *WorkerVM) ensure(seed chain.Hash) error {
	if w.hasSeed && w.seed == seed {
		return nil
	}
	if w.fast {
		dataset, err := w.pool.GetOrInitDataset(seed)
		if err != nil {
			return err
		}
		if w.vm == nil {
			vm, err := randomx.NewVm(w.pool.flags, nil, dataset)
			if err != nil {
				return err
			}
			w.vm = vm
		} else {
			w.vm.SetDataset(dataset)
		}
	} else {
		cache, err := w.pool.GetOrInitCache(seed)
		if err != nil {
			return err
		}
		if w.vm == nil {
			vm, err := randomx.NewVm(w.pool.flags&^randomx.FlagFullMem, cache, nil)
			if err != nil {
				return err
			}
			w.vm = vm
		} else {
			w.vm.SetCache(cache)
		}
	}
	w.seed = seed
	w.hasSeed = true
	return nil
}

// Close releases the underlying VM. Call when the owning worker goroutine
// exits.
func (w *WorkerVM) Close() {
	if w.vm != nil {
		w.vm.Destroy()
		w.vm = nil
	}
}
