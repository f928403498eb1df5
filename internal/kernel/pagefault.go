package kernel

// handlePageFault implements C9 (spec.md §4.8), triggered when the CPU-error
// handler sees error code page-absent. owner is the faulting process; its
// Complement register holds the faulting virtual address.
func (k *Kernel) handlePageFault(owner *Process, now int) {
	v := owner.Complement / k.cfg.PageSize

	if _, ok := owner.PageTable.Translate(v); ok {
		// Already mapped: a second fault on the same address before the
		// first completed (or a stale re-dispatch). Re-entrant no-op per
		// SPEC_FULL.md §4 rather than double-allocating a frame.
		return
	}

	if v < 0 || v >= owner.NPages {
		k.killProcess(owner, now)
		return
	}

	completion, ok := k.fetchPage(owner, v, now)
	if !ok {
		return
	}

	owner.blockOnSwap(completion)
	k.transition(owner, StateBlocked, now)
}

// fetchPage brings owner's virtual page v into a physical frame: it finds or
// evicts a frame, reads the page from swap (charging simulated disk time),
// writes it into physical memory, and maps it in owner's page table. Returns
// the instant the transfer completes and whether the operation succeeded;
// false means a kernel-internal failure has already been recorded via fail.
func (k *Kernel) fetchPage(owner *Process, v int, now int) (completion int, ok bool) {
	frame := k.frames.FindFree()
	if frame < 0 {
		frame = k.evictVictim(now)
		if frame < 0 {
			k.fail("no victim frame available for eviction")
			return 0, false
		}
	}

	addr := k.swap.PageAddress(owner.Pid, v)
	if addr < 0 {
		k.fail("process %d has no swap extent for page %d", owner.Pid, v)
		return 0, false
	}
	data, completion, err := k.swap.ReadPage(addr, now)
	if err != nil {
		k.fail("%v", err)
		return 0, false
	}
	base := k.cfg.FrameBase + frame*k.cfg.PageSize
	for i, word := range data {
		if err := k.machine.Memory.Write(base+i, word); err != nil {
			k.fail("%v", err)
			return 0, false
		}
	}

	owner.PageTable.DefineFrame(v, frame)
	k.frames.Assign(frame, owner.Pid, v)
	k.metrics.RecordPageFault(owner.Pid)
	owner.FaultCount++
	return completion, true
}

// evictVictim selects a frame under the table's configured policy, writes
// its contents back to swap if dirty, invalidates the victim's page-table
// entry, and returns the now-free frame index (or -1 on an internal
// failure, which the caller turns into a kernel-fatal error).
func (k *Kernel) evictVictim(now int) int {
	victim := k.frames.Victim()
	if victim < 0 {
		return -1
	}
	pid, vpage, _, _, ok := k.frames.Owner(victim)
	if !ok {
		return -1
	}
	victimProc := k.procs.get(pid)
	if victimProc == nil {
		return -1
	}

	dirty := victimProc.PageTable.TestDirty(vpage)
	k.frames.SetDirty(victim, dirty)
	if dirty {
		base := k.cfg.FrameBase + victim*k.cfg.PageSize
		data := make([]int, k.cfg.PageSize)
		for i := range data {
			word, err := k.machine.Memory.Read(base + i)
			if err != nil {
				k.fail("%v", err)
				return -1
			}
			data[i] = word
		}
		addr := k.swap.PageAddress(pid, vpage)
		if addr < 0 {
			k.fail("evicted process %d has no swap extent for page %d", pid, vpage)
			return -1
		}
		if _, err := k.swap.WritePage(addr, data, now); err != nil {
			k.fail("%v", err)
			return -1
		}
		victimProc.PageTable.ClearDirty(vpage)
	}

	victimProc.PageTable.Invalidate(vpage)
	k.frames.Free(victim)
	return victim
}
