package randomx

/*
#include <randomx.h>
*/
import "C"

import "runtime"

// Cache is an allocated RandomX cache (used directly by light-mode VMs, or
// as the seed for a Dataset in fast mode).
type Cache struct {
	ptr *C.randomx_cache
}

// NewCache allocates a RandomX cache under flags.
func NewCache(flags Flags) (*Cache, error) {
	ptr := C.randomx_alloc_cache(C.randomx_flags(flags))
	if ptr == nil {
		return nil, ErrCacheNotAllocated
	}
	c := &Cache{ptr: ptr}
	runtime.SetFinalizer(c, (*Cache).Release)
	return c, nil
}

// Init initializes the cache's memory and SuperscalarHash programs from key
// (typically the block hash at seedheight.SeedHeight(n)).
func (c *Cache) Init(key []byte) {
	p, n := cBytes(key)
	C.randomx_init_cache(c.ptr, p, n)
}

// Release frees the underlying C allocation. Safe to call multiple times.
func (c *Cache) Release() {
	if c.ptr == nil {
		return
	}
	C.randomx_release_cache(c.ptr)
	c.ptr = nil
	runtime.SetFinalizer(c, nil)
}
