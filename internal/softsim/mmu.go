package softsim

import "github.com/Talescruzs/so2025s2/internal/simcontract"

// MMU translates user addresses through whichever PageTable is currently
// installed, setting the accessed/dirty bits the way real hardware would on
// every successful translation.
type MMU struct {
	mem       *Memory
	pageSize  int
	frameBase int
	current   *PageTable
}

// NewMMU builds an MMU over mem with the given page size, with no page table
// installed. frameBase is the physical address frame 0 starts at, matching
// the kernel's reserved region for the trap-handler image (spec.md §4.7,
// §4.9) ahead of the frame-indexed pool.
func NewMMU(mem *Memory, pageSize, frameBase int) *MMU {
	return &MMU{mem: mem, pageSize: pageSize, frameBase: frameBase}
}

func (m *MMU) InstallPageTable(pt simcontract.PageTable) {
	if pt == nil {
		m.current = nil
		return
	}
	m.current = pt.(*PageTable)
}

func (m *MMU) NewPageTable() simcontract.PageTable {
	return NewPageTable()
}

func (m *MMU) translate(addr int) (frame, vpage, offset int, err error) {
	if m.current == nil {
		return 0, 0, 0, simcontract.ErrPageAbsent
	}
	vpage = addr / m.pageSize
	offset = addr % m.pageSize
	frame, ok := m.current.Translate(vpage)
	if !ok {
		return 0, 0, 0, simcontract.ErrPageAbsent
	}
	return frame, vpage, offset, nil
}

func (m *MMU) ReadUser(addr int) (int, error) {
	frame, vpage, offset, err := m.translate(addr)
	if err != nil {
		return 0, err
	}
	m.current.markAccessed(vpage)
	return m.mem.Read(m.frameBase + frame*m.pageSize + offset)
}

func (m *MMU) WriteUser(addr int, value int) error {
	frame, vpage, offset, err := m.translate(addr)
	if err != nil {
		return err
	}
	m.current.markAccessed(vpage)
	m.current.markDirty(vpage)
	return m.mem.Write(m.frameBase+frame*m.pageSize+offset, value)
}
