package randomx

/*
#include <randomx.h>
*/
import "C"

import "runtime"

// Dataset is an allocated RandomX dataset, used by full-memory ("fast") VMs.
type Dataset struct {
	ptr *C.randomx_dataset
}

// NewDataset allocates a RandomX dataset under flags.
func NewDataset(flags Flags) (*Dataset, error) {
	ptr := C.randomx_alloc_dataset(C.randomx_flags(flags))
	if ptr == nil {
		return nil, ErrDatasetNotAllocated
	}
	d := &Dataset{ptr: ptr}
	runtime.SetFinalizer(d, (*Dataset).Release)
	return d, nil
}

// Init populates every dataset item from cache, single-threaded. Callers
// mining at scale may instead split this across goroutines using the
// itemCount/itemOffset form exposed by randomx_dataset_item_count, but a
// single full-range init keeps the wrapper's surface matching the ported
// source.
func (d *Dataset) Init(cache *Cache) {
	itemCount := C.randomx_dataset_item_count()
	C.randomx_init_dataset(d.ptr, cache.ptr, 0, itemCount)
}

// Release frees the underlying C allocation. Safe to call multiple times.
func (d *Dataset) Release() {
	if d.ptr == nil {
		return
	}
	C.randomx_release_dataset(d.ptr)
	d.ptr = nil
	runtime.SetFinalizer(d, nil)
}
