// Package frametable implements C3: physical-frame ownership and the victim
// selection policies used by demand paging. Grounded on the original course's
// frame_table.h/frame_table.c, restructured per spec.md §9 DESIGN NOTES into a
// struct-with-methods instead of a package-level global.
package frametable

// Policy selects the victim-selection algorithm used when no frame is free.
// spec.md §9 leaves the exact policy an open question and asks for at least
// FIFO and LRU-aging to be supported.
type Policy int

const (
	PolicyFIFO Policy = iota
	PolicyLRU
)

// entry is one physical frame's bookkeeping: ownership, FIFO sequence
// number, the LRU-aging shift register ticked by the clock handler, and the
// soft accessed/dirty bits sampled from the owning page table.
type entry struct {
	used     bool
	pid      int
	vpage    int
	sequence int
	aging    uint8
	accessed bool
	dirty    bool
}

// Table is the physical-frame ownership map: a bijection between occupied
// frames and (pid, vpage) pairs, per spec.md §3's invariant.
type Table struct {
	frames  []entry
	nextSeq int
	policy  Policy
}

// New builds a frame table of nFrames frames, initially all free.
func New(nFrames int, policy Policy) *Table {
	return &Table{
		frames: make([]entry, nFrames),
		policy: policy,
	}
}

// NumFrames returns the table's total frame count.
func (t *Table) NumFrames() int {
	return len(t.frames)
}

// FindFree returns the index of a free frame, or -1 if none exists.
func (t *Table) FindFree() int {
	for i := range t.frames {
		if !t.frames[i].used {
			return i
		}
	}
	return -1
}

// Assign marks frame as owned by (pid, vpage), records a fresh FIFO sequence
// number, and resets its aging/accessed/dirty state. The caller is
// responsible for having written the frame's contents first.
func (t *Table) Assign(frame, pid, vpage int) {
	t.nextSeq++
	t.frames[frame] = entry{
		used:     true,
		pid:      pid,
		vpage:    vpage,
		sequence: t.nextSeq,
		accessed: true,
	}
}

// Free marks frame as unowned.
func (t *Table) Free(frame int) {
	t.frames[frame] = entry{}
}

// FreeAll releases every frame owned by pid, used when a process dies.
func (t *Table) FreeAll(pid int) {
	for i := range t.frames {
		if t.frames[i].used && t.frames[i].pid == pid {
			t.frames[i] = entry{}
		}
	}
}

// Owner reports the (pid, vpage, dirty, accessed) bookkeeping for frame, and
// whether the frame is currently occupied.
func (t *Table) Owner(frame int) (pid, vpage int, dirty, accessed bool, ok bool) {
	e := t.frames[frame]
	if !e.used {
		return 0, 0, false, false, false
	}
	return e.pid, e.vpage, e.dirty, e.accessed, true
}

// SetDirty records the dirty bit sampled from the owning page table.
func (t *Table) SetDirty(frame int, dirty bool) {
	t.frames[frame].dirty = dirty
}

// Tick shifts frame's aging register right one bit, ORing in the top bit
// when accessed is true, per spec.md §4.4's clock-driven LRU approximation.
func (t *Table) Tick(frame int, accessed bool) {
	e := &t.frames[frame]
	e.aging >>= 1
	if accessed {
		e.aging |= 0x80
	}
	e.accessed = accessed
}

// Victim selects a frame to evict under the table's configured policy.
// Returns -1 if the table has no occupied frame at all, which would be a
// kernel-internal invariant breach (callers only invoke Victim after FindFree
// has returned -1).
func (t *Table) Victim() int {
	switch t.policy {
	case PolicyLRU:
		return t.victimLRU()
	default:
		return t.victimFIFO()
	}
}

func (t *Table) victimFIFO() int {
	best := -1
	bestSeq := 0
	for i := range t.frames {
		if !t.frames[i].used {
			continue
		}
		if best == -1 || t.frames[i].sequence < bestSeq {
			best = i
			bestSeq = t.frames[i].sequence
		}
	}
	return best
}

func (t *Table) victimLRU() int {
	best := -1
	var bestAging uint8
	for i := range t.frames {
		if !t.frames[i].used {
			continue
		}
		if best == -1 || t.frames[i].aging < bestAging {
			best = i
			bestAging = t.frames[i].aging
		}
	}
	return best
}
