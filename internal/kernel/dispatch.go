package kernel

import "github.com/Talescruzs/so2025s2/internal/simcontract"

// HandleInterrupt is the kernel's single entry point (C7, spec.md §4.1),
// invoked by the simulator's "call-into-C" firmware instruction. It performs,
// in order: snapshot the interrupted process's registers, dispatch on cause,
// drain pending work, schedule, install the chosen process's state, and
// return whether the simulator should resume or halt.
func (k *Kernel) HandleInterrupt(cause simcontract.Cause) simcontract.ResumeCode {
	now := k.machine.IO.Now()
	k.metrics.RecordInterrupt(cause)

	prev := k.current
	if prev != nil && prev.State == StateRunning {
		if err := k.snapshotRegisters(prev); err != nil {
			k.fail("%v", err)
		}
	}

	if !k.internalError {
		switch cause {
		case simcontract.CauseReset:
			k.handleReset(now)
		case simcontract.CauseSyscall:
			if prev == nil {
				k.fail("syscall with no current process")
			} else {
				k.handleSyscall(prev, now)
			}
		case simcontract.CauseCPUError:
			if prev == nil {
				k.fail("cpu error with no current process")
			} else {
				k.handleCPUError(prev, now)
			}
		case simcontract.CauseClock:
			k.handleClock(prev, now)
		default:
			k.fail("%v: %v", errUnknownCause, cause)
		}
	}

	if k.internalError {
		return simcontract.Halt
	}

	k.drainPendingWork(now)
	k.schedule(prev, now)

	if k.internalError {
		return simcontract.Halt
	}
	if k.current == nil {
		return simcontract.Halt
	}

	k.machine.MMU.InstallPageTable(k.current.PageTable)
	if err := k.restoreRegisters(k.current); err != nil {
		k.fail("%v", err)
		return simcontract.Halt
	}
	return simcontract.Resume
}

// snapshotRegisters saves the CPU's current register set into p, per
// spec.md §4.1 step (a) and §6's fixed CPU-save addresses.
func (k *Kernel) snapshotRegisters(p *Process) error {
	regs, err := k.machine.CPU.SnapshotRegisters()
	if err != nil {
		return err
	}
	p.A = regs.A
	p.X = regs.X
	p.PC = regs.PC
	p.ErrorCode = regs.ErrorCode
	p.Complement = regs.Complement
	return nil
}

// restoreRegisters writes p's saved register set to the CPU-restore
// addresses, per spec.md §4.1 step (e).
func (k *Kernel) restoreRegisters(p *Process) error {
	return k.machine.CPU.RestoreRegisters(simcontract.Registers{
		A:          p.A,
		X:          p.X,
		PC:         p.PC,
		ErrorCode:  p.ErrorCode,
		Complement: p.Complement,
	})
}

// handleCPUError routes a CPU-error interrupt: page-absent goes to demand
// paging (C9); anything else is fatal to the faulting process (spec.md
// §4.1, §7).
func (k *Kernel) handleCPUError(caller *Process, now int) {
	if caller.ErrorCode == simcontract.ErrCodePageAbsent {
		k.handlePageFault(caller, now)
		return
	}
	k.killProcess(caller, now)
}

// handleClock implements §4.4: rearms the timer, decrements the running
// process's quantum, and ticks the aging shift-register of every valid page
// it owns.
func (k *Kernel) handleClock(current *Process, now int) {
	k.machine.IO.ArmTimer(k.cfg.ClockInterval)
	k.machine.IO.AckInterrupt()

	if current == nil || current.State != StateRunning {
		return
	}
	if current.Quantum > 0 {
		current.Quantum--
	}
	for vpage := 0; vpage < current.NPages; vpage++ {
		frame, ok := current.PageTable.Translate(vpage)
		if !ok {
			continue
		}
		accessed := current.PageTable.TestAccessed(vpage)
		k.frames.Tick(frame, accessed)
		current.PageTable.ClearAccessed(vpage)
	}
}

// drainPendingWork implements §4.6: after the cause-specific handler, every
// BLOCKED process is re-checked in creation order for its unblock predicate.
func (k *Kernel) drainPendingWork(now int) {
	for _, p := range k.procs.all() {
		if p.State != StateBlocked {
			continue
		}
		switch p.BlockCause {
		case BlockDeviceRead:
			k.drainDeviceRead(p, now)
		case BlockDeviceWrite:
			k.drainDeviceWrite(p, now)
		case BlockSwapIO:
			if now >= p.BlockUnblockInstant {
				p.clearBlock()
				k.transition(p, StateReady, now)
			}
		case BlockChildExit:
			// Resolved eagerly by wakeWaiters at the moment the awaited
			// child dies; nothing left to poll here.
		}
	}
}

func (k *Kernel) drainDeviceRead(p *Process, now int) {
	ready, err := k.machine.IO.KeyboardReady(p.BlockDevice)
	if err != nil {
		k.fail("%v", err)
		return
	}
	if !ready {
		return
	}
	datum, err := k.machine.IO.ReadKeyboard(p.BlockDevice)
	if err != nil {
		k.fail("%v", err)
		return
	}
	p.A = datum
	p.clearBlock()
	k.transition(p, StateReady, now)
}

func (k *Kernel) drainDeviceWrite(p *Process, now int) {
	ready, err := k.machine.IO.ScreenReady(p.BlockDevice)
	if err != nil {
		k.fail("%v", err)
		return
	}
	if !ready {
		return
	}
	if err := k.machine.IO.WriteScreen(p.BlockDevice, p.BlockWriteByte); err != nil {
		k.fail("%v", err)
		return
	}
	p.A = 0
	p.clearBlock()
	k.transition(p, StateReady, now)
}
