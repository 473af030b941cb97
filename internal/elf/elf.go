// Package elf stands in for a real ELF loader. Full ELF parsing is out
// of scope; Loader is the narrow interface execv needs, and FlatLoader
// is a minimal implementation that copies a raw byte blob into the text
// region at a fixed entry point, enough to drive execv end-to-end in
// tests.
package elf

import (
	"osteach/internal/defs"
	"osteach/internal/vm"
)

// Loader maps an executable's image into as and returns the entry point.
type Loader interface {
	Load(as *vm.As_t, image []uint8) (entry uintptr, err defs.Err_t)
}

// FlatLoader treats the entire image as a single read+write+exec text
// region starting at a fixed base address, with no section parsing.
type FlatLoader struct {
	TextBase uintptr
}

// DefaultFlatLoader loads images at the conventional low user text
// address used throughout the execv tests.
var DefaultFlatLoader = FlatLoader{TextBase: 0x400000}

// Load defines one region covering the image (rounded up to a page),
// marks the address space as loading, copies the image in via page
// faults, then completes the load.
func (fl FlatLoader) Load(as *vm.As_t, image []uint8) (uintptr, defs.Err_t) {
	if len(image) == 0 {
		return 0, defs.EFAULT
	}
	r := as.DefineRegion(fl.TextBase, len(image), true, true, true)
	as.PrepareLoad()

	for off := 0; off < len(image); off += vm.PageSize {
		va := r.Base + uintptr(off)
		if err := as.Fault(vm.FaultWrite, va); err != 0 {
			return 0, err
		}
	}
	for off := 0; off < len(image); off++ {
		va := r.Base + uintptr(off)
		page := as.PageFor(va)
		if page == nil {
			return 0, defs.EFAULT
		}
		page[va%vm.PageSize] = image[off]
	}

	as.CompleteLoad()
	return fl.TextBase, 0
}
