package kernel

import "github.com/Talescruzs/so2025s2/internal/simcontract"

// handleSyscall dispatches one of the five system calls (C8, spec.md §4.5).
// caller is the process that trapped; its A register (already snapshotted)
// selects the call, X carries the argument, and A receives the result unless
// the call blocks the caller instead.
func (k *Kernel) handleSyscall(caller *Process, now int) {
	k.metrics.RecordSyscall()
	switch simcontract.Syscall(caller.A) {
	case simcontract.SyscallRead:
		k.sysRead(caller, now)
	case simcontract.SyscallWrite:
		k.sysWrite(caller, now)
	case simcontract.SyscallSpawn:
		k.sysSpawn(caller, now)
	case simcontract.SyscallKill:
		k.sysKill(caller, now)
	case simcontract.SyscallWait:
		k.sysWait(caller, now)
	default:
		k.fail("%v: %d", errUnknownSyscall, caller.A)
	}
}

// sysRead implements READ: one datum from the caller's input terminal,
// blocking on BlockDeviceRead if the device isn't ready yet.
func (k *Kernel) sysRead(caller *Process, now int) {
	ready, err := k.machine.IO.KeyboardReady(caller.Terminal)
	if err != nil {
		k.fail("%v", err)
		return
	}
	if !ready {
		caller.blockOnDevice(BlockDeviceRead, caller.Terminal, 0)
		k.transition(caller, StateBlocked, now)
		return
	}
	datum, err := k.machine.IO.ReadKeyboard(caller.Terminal)
	if err != nil {
		k.fail("%v", err)
		return
	}
	caller.A = datum
}

// sysWrite implements WRITE: one datum (X) to the caller's output terminal,
// blocking on BlockDeviceWrite (with the pending byte stashed) if not ready.
func (k *Kernel) sysWrite(caller *Process, now int) {
	ready, err := k.machine.IO.ScreenReady(caller.Terminal)
	if err != nil {
		k.fail("%v", err)
		return
	}
	if !ready {
		caller.blockOnDevice(BlockDeviceWrite, caller.Terminal, caller.X)
		k.transition(caller, StateBlocked, now)
		return
	}
	if err := k.machine.IO.WriteScreen(caller.Terminal, caller.X); err != nil {
		k.fail("%v", err)
		return
	}
	caller.A = 0
}

// sysSpawn implements SPAWN: copies the zero-terminated program name from the
// caller's address space (X holds its virtual address), creates a child
// process, loads its image into swap, and returns the child's pid in A (or
// -1 on any recoverable failure). An out-of-range name address kills the
// caller outright, per spec.md §4.5/§8 scenario 6.
func (k *Kernel) sysSpawn(caller *Process, now int) {
	name, killed := k.readCString(caller, caller.X, k.cfg.NameLengthLimit, now)
	if killed {
		return
	}
	if name == "" {
		caller.A = -1
		return
	}

	child := k.procs.alloc(caller.Pid)
	if child == nil {
		caller.A = -1
		return
	}
	child.Terminal = k.terminalFor(child.Pid)
	child.PageTable = k.machine.MMU.NewPageTable()

	if err := k.loadProgramIntoSwap(child, name); err != nil {
		k.procs.free(child.Pid)
		caller.A = -1
		return
	}
	child.PC = 0

	k.metrics.RecordProcessCreated(child.Pid, now)
	k.transition(child, StateReady, now)
	caller.A = child.Pid
}

// sysKill implements KILL: target 0 means self. Killing an already-dead or
// nonexistent pid returns -1 and changes nothing.
func (k *Kernel) sysKill(caller *Process, now int) {
	target := caller.X
	if target == 0 {
		target = caller.Pid
	}
	p := k.procs.get(target)
	if p == nil || p.State == StateDead {
		caller.A = -1
		return
	}
	selfKill := p == caller
	k.killProcess(p, now)
	if !selfKill {
		caller.A = 0
	}
	// A self-kill never gets to observe its own return value.
}

// sysWait implements WAIT: blocks the caller until target terminates, unless
// it is already dead or never existed.
func (k *Kernel) sysWait(caller *Process, now int) {
	target := caller.X
	if !k.procs.alive(target) {
		caller.A = -1
		return
	}
	caller.blockOnChild(target)
	k.transition(caller, StateBlocked, now)
}

// readCString reads a zero-terminated string of at most limit bytes from
// owner's virtual address space starting at addr, bringing in unmapped but
// in-range pages synchronously (spec.md §4.5: "handling page faults by
// invoking the page-fault handler on the caller mid-traversal"). Unlike a
// user-instruction fault, this happens inline within syscall handling rather
// than by blocking and re-dispatching, since there is no user PC to
// re-execute partway through a kernel-side traversal. Returns killed=true if
// the traversal hit an out-of-range address, in which case owner has already
// been killed, and also on a kernel-internal failure (recorded via fail, with
// owner left alive); either way the string result must be ignored.
func (k *Kernel) readCString(owner *Process, addr int, limit int, now int) (s string, killed bool) {
	var bytes []byte
	for i := 0; i < limit; i++ {
		v, err := k.machine.MMU.ReadUser(addr + i)
		if err == simcontract.ErrPageAbsent {
			vpage := (addr + i) / k.cfg.PageSize
			if vpage < 0 || vpage >= owner.NPages {
				k.killProcess(owner, now)
				return "", true
			}
			if _, ok := k.fetchPage(owner, vpage, now); !ok {
				return "", true
			}
			v, err = k.machine.MMU.ReadUser(addr + i)
		}
		if err != nil {
			k.fail("%v", err)
			return "", true
		}
		if v == 0 {
			return string(bytes), false
		}
		bytes = append(bytes, byte(v))
	}
	return "", false // overflow: name longer than limit fails the call
}
