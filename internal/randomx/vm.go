package randomx

/*
#include <randomx.h>
*/
import "C"

import (
	"runtime"
	"unsafe"
)

// Vm is a RandomX virtual machine bound to either a Cache (light mode) or a
// Dataset (fast mode). A Vm is not safe for concurrent use; the pool package
// gives each mining worker goroutine its own.
type Vm struct {
	ptr     *C.randomx_vm
	cache   *Cache
	dataset *Dataset
}

// NewVm creates and initializes a RandomX VM. Exactly one of cache/dataset
// is required depending on flags (light mode needs cache, fast/full-mem
// mode needs dataset; either may additionally hold the other as a no-op).
func NewVm(flags Flags, cache *Cache, dataset *Dataset) (*Vm, error) {
	var cachePtr *C.randomx_cache
	if cache != nil {
		cachePtr = cache.ptr
	}
	var datasetPtr *C.randomx_dataset
	if dataset != nil {
		datasetPtr = dataset.ptr
	}
	ptr := C.randomx_create_vm(C.randomx_flags(flags), cachePtr, datasetPtr)
	if ptr == nil {
		return nil, ErrVmNotCreated
	}
	v := &Vm{ptr: ptr, cache: cache, dataset: dataset}
	runtime.SetFinalizer(v, (*Vm).Destroy)
	return v, nil
}

// SetCache reinitializes the VM to use a new cache (light mode reseed).
func (v *Vm) SetCache(cache *Cache) {
	C.randomx_vm_set_cache(v.ptr, cache.ptr)
	v.cache = cache
}

// SetDataset reinitializes the VM to use a new dataset (fast mode reseed).
func (v *Vm) SetDataset(dataset *Dataset) {
	C.randomx_vm_set_dataset(v.ptr, dataset.ptr)
	v.dataset = dataset
}

// CalculateHash computes the RandomX hash of input in one call.
func (v *Vm) CalculateHash(input []byte) [HashSize]byte {
	var out [HashSize]byte
	p, n := cBytes(input)
	C.randomx_calculate_hash(v.ptr, p, n, unsafe.Pointer(&out[0]))
	return out
}

// CalculateHashFirst begins a streaming hash calculation, pipelining the
// VM's internal stages across calls to amortize dataset-read latency when
// hashing many nonces back to back.
func (v *Vm) CalculateHashFirst(input []byte) {
	p, n := cBytes(input)
	C.randomx_calculate_hash_first(v.ptr, p, n)
}

// CalculateHashNext returns the hash of the previous input and begins
// calculating the hash of the new input.
func (v *Vm) CalculateHashNext(input []byte) [HashSize]byte {
	var out [HashSize]byte
	p, n := cBytes(input)
	C.randomx_calculate_hash_next(v.ptr, p, n, unsafe.Pointer(&out[0]))
	return out
}

// CalculateHashLast returns the hash of the final input queued via
// CalculateHashFirst/CalculateHashNext.
func (v *Vm) CalculateHashLast() [HashSize]byte {
	var out [HashSize]byte
	C.randomx_calculate_hash_last(v.ptr, unsafe.Pointer(&out[0]))
	return out
}

// Destroy frees the underlying C allocation. Safe to call multiple times.
func (v *Vm) Destroy() {
	if v.ptr == nil {
		return
	}
	C.randomx_destroy_vm(v.ptr)
	v.ptr = nil
	runtime.SetFinalizer(v, nil)
}
