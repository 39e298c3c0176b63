// Package randomx binds the upstream tevador/RandomX C library via cgo,
// ported 1:1 in structure from original_source's hashcash/randomx/src/lib.rs
// (itself a thin Rust wrapper over the same C API).
package randomx

/*
#cgo LDFLAGS: -lrandomx
#include <randomx.h>
#include <stdlib.h>
*/
import "C"

import (
	"errors"
	"unsafe"
)

// HashSize is the length in bytes of a RandomX output hash.
const HashSize = C.RANDOMX_HASH_SIZE

// Flags mirrors the bitflags RandomXFlags type: a bitmask selecting the
// cache/dataset/VM configuration (large pages, hardware AES, full memory
// mode, the JIT compiler, hardened mode, and the Argon2 implementation).
type Flags uint32

const (
	FlagDefault     Flags = 0
	FlagLargePages  Flags = C.RANDOMX_FLAG_LARGE_PAGES
	FlagHardAES     Flags = C.RANDOMX_FLAG_HARD_AES
	FlagFullMem     Flags = C.RANDOMX_FLAG_FULL_MEM
	FlagJIT         Flags = C.RANDOMX_FLAG_JIT
	FlagSecure      Flags = C.RANDOMX_FLAG_SECURE
	FlagArgon2SSSE3 Flags = C.RANDOMX_FLAG_ARGON2_SSSE3
	FlagArgon2AVX2  Flags = C.RANDOMX_FLAG_ARGON2_AVX2
	FlagArgon2      Flags = C.RANDOMX_FLAG_ARGON2
)

// DefaultFlags returns the flags recommended for the current machine, as
// reported by randomx_get_flags.
func DefaultFlags() Flags {
	return Flags(C.randomx_get_flags())
}

// Error is the three-member allocation-failure enum from the wrapped C API.
type Error struct {
	kind string
}

func (e *Error) Error() string { return e.kind }

var (
	ErrCacheNotAllocated   = &Error{"randomx: cache not allocated"}
	ErrDatasetNotAllocated = &Error{"randomx: dataset not allocated"}
	ErrVmNotCreated        = &Error{"randomx: vm not created"}
)

var errNilPointer = errors.New("randomx: unexpected nil pointer")

func cBytes(b []byte) (unsafe.Pointer, C.size_t) {
	if len(b) == 0 {
		return nil, 0
	}
	return unsafe.Pointer(&b[0]), C.size_t(len(b))
}
