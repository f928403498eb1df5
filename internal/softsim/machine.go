package softsim

import "github.com/Talescruzs/so2025s2/internal/simcontract"

// Machine bundles a full softsim collaborator set plus direct handles to the
// concrete devices, so callers can drive the simulation (type keys, advance
// the clock, inspect screens) without type-asserting the simcontract
// interfaces back down.
type Machine struct {
	*simcontract.Machine

	CPUDevice    *CPU
	MemoryDevice *Memory
	MMUDevice    *MMU
	IODevice     *IOController
	LoaderDevice *Loader
}

// Config sizes a softsim Machine.
type Config struct {
	MemoryWords   int
	PageSize      int
	FrameBase     int
	TerminalCount int
}

// New builds a ready-to-use Machine: fresh CPU, zeroed physical memory, an
// MMU with no page table installed, the requested number of terminals, and
// an empty loader registry.
func New(cfg Config) *Machine {
	cpu := NewCPU()
	mem := NewMemory(cfg.MemoryWords)
	mmu := NewMMU(mem, cfg.PageSize, cfg.FrameBase)
	io := NewIOController(cfg.TerminalCount)
	loader := NewLoader()

	return &Machine{
		Machine: &simcontract.Machine{
			CPU:    cpu,
			Memory: mem,
			MMU:    mmu,
			IO:     io,
			Loader: loader,
		},
		CPUDevice:    cpu,
		MemoryDevice: mem,
		MMUDevice:    mmu,
		IODevice:     io,
		LoaderDevice: loader,
	}
}
