package kernel

// handleReset implements spec.md §4.7: loads the trap handler, arms the
// clock, creates init (pid 1, parent 0), loads its image into swap, and
// pre-faults its first page so it can execute immediately. Only valid once;
// a second RESET is a kernel-internal invariant breach.
func (k *Kernel) handleReset(now int) {
	if k.booted {
		k.fail("reset received after boot")
		return
	}
	k.booted = true

	if err := k.loadTrapHandler(k.cfg.TrapHandlerImage); err != nil {
		k.fail("%v", err)
		return
	}
	k.machine.IO.ArmTimer(k.cfg.ClockInterval)

	proc := k.procs.alloc(0)
	if proc == nil {
		k.fail("no free process slot for init")
		return
	}
	proc.Terminal = k.terminalFor(proc.Pid)
	proc.PageTable = k.machine.MMU.NewPageTable()

	if err := k.loadProgramIntoSwap(proc, k.cfg.InitProgram); err != nil {
		k.fail("%v", err)
		return
	}
	proc.PC = 0

	if err := k.prefaultPage(proc, 0); err != nil {
		k.fail("%v", err)
		return
	}

	k.metrics.RecordProcessCreated(proc.Pid, now)
	proc.Quantum = k.cfg.Quantum
	k.transition(proc, StateRunning, now)
	k.current = proc

	k.trace.Writef("kernel.boot", "init pid=%d npages=%d", proc.Pid, proc.NPages)
}

// prefaultPage maps vpage of proc into a free frame without going through
// the blocking page-fault path: used only at boot, before any process is
// running to be blocked. Spawned processes get no eagerly mapped page.
func (k *Kernel) prefaultPage(proc *Process, vpage int) error {
	frame := k.frames.FindFree()
	if frame < 0 {
		// The machine must be sized with at least one frame beyond what
		// the trap handler needs; running out this early is a kernel
		// invariant breach, not a user-visible condition.
		return errNoFreeFrameAtBoot
	}
	addr := k.swap.PageAddress(proc.Pid, vpage)
	if addr < 0 {
		return errInvalidPrefault
	}
	data, err := k.swap.PeekPage(addr)
	if err != nil {
		return err
	}
	base := k.cfg.FrameBase + frame*k.cfg.PageSize
	for i, word := range data {
		if err := k.machine.Memory.Write(base+i, word); err != nil {
			return err
		}
	}
	proc.PageTable.DefineFrame(vpage, frame)
	k.frames.Assign(frame, proc.Pid, vpage)
	return nil
}
