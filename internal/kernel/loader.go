package kernel

import (
	"fmt"

	"github.com/Talescruzs/so2025s2/internal/swapstore"
)

// TrapHandlerLoadAddress is the fixed physical address the simulator
// firmware mandates for the trap-handler image (spec.md §4.7). Physical
// address 0 is conventionally reserved for it, since the CPU's interrupt
// entry trampoline runs from there before any process is mapped.
const TrapHandlerLoadAddress = 0

// loadTrapHandler writes the trap-handler image directly into physical
// memory at TrapHandlerLoadAddress (spec.md §4.9: "for the trap handler:
// write directly to physical memory at the firmware-required address").
func (k *Kernel) loadTrapHandler(name string) error {
	handle, err := k.machine.Loader.Open(name)
	if err != nil {
		return fmt.Errorf("kernel: open trap handler %q: %w", name, err)
	}
	for i := 0; i < handle.Size(); i++ {
		v, err := handle.DataAt(handle.LoadAddress() + i)
		if err != nil {
			return fmt.Errorf("kernel: read trap handler datum %d: %w", i, err)
		}
		if err := k.machine.Memory.Write(TrapHandlerLoadAddress+i, v); err != nil {
			return fmt.Errorf("kernel: write trap handler datum %d: %w", i, err)
		}
	}
	return nil
}

// loadProgramIntoSwap implements the user-program half of spec.md §4.9: it
// computes the page count, allocates a swap extent for proc, and writes the
// image page-by-page (zero-padding the last page), without mapping any page
// into a frame. Records the extent and page count in proc, and returns an
// error if no swap space is available or the image cannot be read.
func (k *Kernel) loadProgramIntoSwap(proc *Process, name string) error {
	handle, err := k.machine.Loader.Open(name)
	if err != nil {
		return fmt.Errorf("kernel: open program %q: %w", name, err)
	}
	pageSize := k.cfg.PageSize
	nPages := (handle.Size() + pageSize - 1) / pageSize
	if nPages == 0 {
		nPages = 1
	}
	base := k.swap.Allocate(proc.Pid, nPages)
	if base < 0 {
		return fmt.Errorf("kernel: no swap space for program %q (%d pages)", name, nPages)
	}
	proc.SwapExtent = swapstore.Extent{Base: base, Pages: nPages}
	proc.NPages = nPages

	for page := 0; page < nPages; page++ {
		data := make([]int, pageSize)
		for i := 0; i < pageSize; i++ {
			addr := page*pageSize + i
			if addr >= handle.Size() {
				continue // zero-pad the tail of the last page
			}
			v, err := handle.DataAt(handle.LoadAddress() + addr)
			if err != nil {
				k.swap.Free(proc.Pid)
				return fmt.Errorf("kernel: read program datum %d: %w", addr, err)
			}
			data[i] = v
		}
		if err := k.swap.LoadPage(base+page, data); err != nil {
			k.swap.Free(proc.Pid)
			return fmt.Errorf("kernel: write swap page %d: %w", base+page, err)
		}
	}
	return nil
}
