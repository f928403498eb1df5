package kernel

// killProcess terminates p unconditionally: reclaims its frames, its swap
// extent, and its page table, and wakes every process waiting on it, per
// spec.md §3's "a dying process releases its frames, swap extent, and page
// table" and §4.2's "any → DEAD (wake waiters)" transition and §4.8 step 1's
// "terminate owner as for any fatal CPU error". Shared by the KILL syscall
// and the CPU-error / invalid page-fault paths so there is exactly one place
// a process dies. The descriptor itself is left in its slot — reusable by a
// later spawn (see ProcTable.alloc) — so kill/wait on this pid keep
// resolving to it until then.
func (k *Kernel) killProcess(p *Process, now int) {
	if p.State == StateDead {
		return
	}
	k.frames.FreeAll(p.Pid)
	k.swap.Free(p.Pid)
	p.PageTable = nil
	k.transition(p, StateDead, now)
	k.wakeWaiters(p.Pid, now)
	if k.current == p {
		k.current = nil
	}
}

// wakeWaiters transitions to READY every BLOCKED process awaiting dead's
// termination whose wait set is now fully satisfied (spec.md §4.2, §4.6
// child-exit cause).
func (k *Kernel) wakeWaiters(dead int, now int) {
	for _, p := range k.procs.all() {
		if p.State != StateBlocked || p.BlockCause != BlockChildExit {
			continue
		}
		if !p.AwaitingChildren[dead] {
			continue
		}
		delete(p.AwaitingChildren, dead)
		if len(p.AwaitingChildren) == 0 {
			p.A = 0
			p.clearBlock()
			k.transition(p, StateReady, now)
		}
	}
}
