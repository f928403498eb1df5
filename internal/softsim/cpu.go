package softsim

import "github.com/Talescruzs/so2025s2/internal/simcontract"

// CPU holds the register snapshot that, on a real machine, would live at
// fixed physical addresses the trap handler writes to and the kernel reads
// from (spec.md §6). The driving loop (a test or cmd/teachos) calls
// SetRegisters to deposit the trapping values before invoking the kernel's
// HandleInterrupt, and reads Registers back afterward to resume execution.
type CPU struct {
	regs simcontract.Registers
}

// NewCPU builds a CPU with all registers zeroed.
func NewCPU() *CPU {
	return &CPU{}
}

func (c *CPU) SnapshotRegisters() (simcontract.Registers, error) {
	return c.regs, nil
}

func (c *CPU) RestoreRegisters(r simcontract.Registers) error {
	c.regs = r
	return nil
}

// SetRegisters deposits the trapping register values, as the simulator's
// trap-handler firmware would before invoking the kernel.
func (c *CPU) SetRegisters(r simcontract.Registers) {
	c.regs = r
}

// Registers returns the CPU's current register set.
func (c *CPU) Registers() simcontract.Registers {
	return c.regs
}
