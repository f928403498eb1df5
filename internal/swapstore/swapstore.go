// Package swapstore implements C2: a fixed-size page-indexed backing store
// with per-process extents and a simulated serial disk timeline. Grounded on
// the original course's swap.h/swap.c, with the extent/transfer API reframed
// (per tinyrange-cc's internal/devices/virtio/blk.go) as a direct
// ReadPage/WritePage call contract rather than a virtio queue protocol, which
// has no role in a teaching kernel with no guest driver stack.
package swapstore

import "fmt"

// Extent is a contiguous range of pages owned by one process for that
// process's lifetime. It never relocates once allocated (spec.md §3).
type Extent struct {
	Base  int
	Pages int
}

// Store is the backing store: nPages fixed-size pages of pageSize words
// each, partitioned into non-overlapping per-process extents.
type Store struct {
	pageSize int
	pages    [][]int
	owner    []int // pid owning each page, 0 = free
	extents  map[int]Extent

	// disk timeline: no transfer may start before this instant.
	busyUntil int

	pageTransferTime int
}

const noOwner = 0

// New builds a store of nPages pages of pageSize words, with each page
// transfer costing pageTransferTime simulated instructions.
func New(nPages, pageSize, pageTransferTime int) *Store {
	pages := make([][]int, nPages)
	for i := range pages {
		pages[i] = make([]int, pageSize)
	}
	return &Store{
		pageSize:         pageSize,
		pages:            pages,
		owner:            make([]int, nPages),
		extents:          make(map[int]Extent),
		pageTransferTime: pageTransferTime,
	}
}

// Allocate reserves a contiguous extent of nPages pages for pid. Returns the
// extent's base page index, or -1 if no contiguous free run exists (spec.md
// §8 boundary: a failed spawn must not consume a swap extent).
func (s *Store) Allocate(pid, nPages int) int {
	if nPages <= 0 {
		return -1
	}
	run := 0
	start := -1
	for i := 0; i <= len(s.owner); i++ {
		free := i < len(s.owner) && s.owner[i] == noOwner
		if free {
			if run == 0 {
				start = i
			}
			run++
			if run == nPages {
				break
			}
			continue
		}
		run = 0
		start = -1
	}
	if start == -1 || run < nPages {
		return -1
	}
	for i := start; i < start+nPages; i++ {
		s.owner[i] = pid
	}
	s.extents[pid] = Extent{Base: start, Pages: nPages}
	return start
}

// Free releases every page owned by pid. Per-process only, atomic from the
// caller's perspective (spec.md §3).
func (s *Store) Free(pid int) {
	ext, ok := s.extents[pid]
	if !ok {
		return
	}
	for i := ext.Base; i < ext.Base+ext.Pages; i++ {
		s.owner[i] = noOwner
	}
	delete(s.extents, pid)
}

// PageAddress returns the swap page index for pid's virtual page vpage, or
// -1 if pid owns no such page.
func (s *Store) PageAddress(pid, vpage int) int {
	ext, ok := s.extents[pid]
	if !ok || vpage < 0 || vpage >= ext.Pages {
		return -1
	}
	return ext.Base + vpage
}

// WritePage writes data (pageSize words) to swap page addr, charging
// simulated disk time. It returns the instant at which the transfer
// completes, computed as max(now, disk-busy-until) + per-page-time, and
// serializes the disk timeline so later transfers never start before this
// one finishes (spec.md §3, §4.8 step 2).
func (s *Store) WritePage(addr int, data []int, now int) (completion int, err error) {
	if addr < 0 || addr >= len(s.pages) {
		return 0, fmt.Errorf("swapstore: address %d out of range", addr)
	}
	if len(data) != s.pageSize {
		return 0, fmt.Errorf("swapstore: expected %d words, got %d", s.pageSize, len(data))
	}
	copy(s.pages[addr], data)
	return s.chargeTransfer(now), nil
}

// ReadPage reads a page from swap page addr, charging simulated disk time
// the same way WritePage does.
func (s *Store) ReadPage(addr int, now int) (data []int, completion int, err error) {
	if addr < 0 || addr >= len(s.pages) {
		return nil, 0, fmt.Errorf("swapstore: address %d out of range", addr)
	}
	out := make([]int, s.pageSize)
	copy(out, s.pages[addr])
	return out, s.chargeTransfer(now), nil
}

// LoadPage writes data directly into swap page addr without charging
// simulated disk time. Used by the program loader at spawn/boot time
// (spec.md §4.9): assembling a process's initial image is kernel setup, not
// a runtime swap transfer, and must not perturb the disk-busy timeline that
// serializes real page-fault traffic.
func (s *Store) LoadPage(addr int, data []int) error {
	if addr < 0 || addr >= len(s.pages) {
		return fmt.Errorf("swapstore: address %d out of range", addr)
	}
	if len(data) != s.pageSize {
		return fmt.Errorf("swapstore: expected %d words, got %d", s.pageSize, len(data))
	}
	copy(s.pages[addr], data)
	return nil
}

// PeekPage reads swap page addr without charging simulated disk time, the
// read-side counterpart of LoadPage, used to pre-fault init's first page at
// boot (spec.md §4.7) before any process is running to be blocked.
func (s *Store) PeekPage(addr int) ([]int, error) {
	if addr < 0 || addr >= len(s.pages) {
		return nil, fmt.Errorf("swapstore: address %d out of range", addr)
	}
	out := make([]int, s.pageSize)
	copy(out, s.pages[addr])
	return out, nil
}

func (s *Store) chargeTransfer(now int) int {
	start := now
	if s.busyUntil > start {
		start = s.busyUntil
	}
	completion := start + s.pageTransferTime
	s.busyUntil = completion
	return completion
}

// PageSize returns the store's fixed page size in words.
func (s *Store) PageSize() int {
	return s.pageSize
}
