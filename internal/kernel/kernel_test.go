package kernel

import (
	"io"
	"log/slog"
	"testing"

	"github.com/Talescruzs/so2025s2/internal/simcontract"
	"github.com/Talescruzs/so2025s2/internal/softsim"
	"github.com/Talescruzs/so2025s2/internal/swapstore"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.MaxProcesses = 4
	cfg.Quantum = 3
	cfg.ClockInterval = 3
	cfg.PageSize = 4
	cfg.FrameBase = 4
	cfg.FrameCount = 2
	cfg.SwapPages = 16
	cfg.SwapPageTransferTime = 5
	cfg.TerminalCount = 2
	cfg.NameLengthLimit = 16
	return cfg
}

func newTestMachine(cfg Config) *softsim.Machine {
	m := softsim.New(softsim.Config{
		MemoryWords:   cfg.FrameBase + cfg.FrameCount*cfg.PageSize,
		PageSize:      cfg.PageSize,
		FrameBase:     cfg.FrameBase,
		TerminalCount: cfg.TerminalCount,
	})
	m.LoaderDevice.Register(cfg.TrapHandlerImage, []int{0})
	m.LoaderDevice.Register(cfg.InitProgram, []int{0})
	return m
}

func newTestKernel(cfg Config) (*Kernel, *softsim.Machine) {
	m := newTestMachine(cfg)
	return New(cfg, m.Machine, WithLogger(quietLogger())), m
}

// --- end-to-end scenarios (spec.md §8) ---

func TestBootOnlySelfKill(t *testing.T) {
	cfg := testConfig()
	k, m := newTestKernel(cfg)

	if code := k.HandleInterrupt(simcontract.CauseReset); code != simcontract.Resume {
		t.Fatalf("reset returned %v, want Resume", code)
	}
	if k.current == nil || k.current.Pid != 1 || k.current.State != StateRunning {
		t.Fatalf("init not created/running after reset: %+v", k.current)
	}

	regs := m.CPUDevice.Registers()
	regs.A = int(simcontract.SyscallKill)
	regs.X = 0
	m.CPUDevice.SetRegisters(regs)

	if code := k.HandleInterrupt(simcontract.CauseSyscall); code != simcontract.Halt {
		t.Fatalf("self-kill returned %v, want Halt (no other process to run)", code)
	}

	snap := k.Metrics()
	if snap.ProcessesCreated != 1 {
		t.Errorf("ProcessesCreated = %d, want 1", snap.ProcessesCreated)
	}
	if snap.SyscallsServiced != 1 {
		t.Errorf("SyscallsServiced = %d, want 1", snap.SyscallsServiced)
	}
	if snap.Preemptions != 0 {
		t.Errorf("Preemptions = %d, want 0", snap.Preemptions)
	}
	if !snap.Processes[1].Died {
		t.Error("pid 1 should be recorded dead")
	}
}

func TestKillingAlreadyDeadPidReturnsMinusOne(t *testing.T) {
	cfg := testConfig()
	k, _ := newTestKernel(cfg)
	now := 0

	// The caller takes its slot first so that the dead process's slot is
	// not reused by it.
	caller := k.procs.alloc(0)
	caller.PageTable = newPageTableFor(k)

	p := k.procs.alloc(0)
	p.PageTable = newPageTableFor(k)
	k.metrics.RecordProcessCreated(p.Pid, now)
	k.transition(p, StateDead, now)
	k.frames.FreeAll(p.Pid)
	k.swap.Free(p.Pid)

	caller.A = int(simcontract.SyscallKill)
	caller.X = p.Pid
	k.sysKill(caller, now)

	if caller.A != -1 {
		t.Errorf("caller.A = %d, want -1", caller.A)
	}
}

// --- scheduler (C6) ---

func TestSchedulePicksLowestAgedPriorityBreakingTiesByPid(t *testing.T) {
	cfg := testConfig()
	k, _ := newTestKernel(cfg)

	high := k.procs.alloc(0) // pid 1
	high.State = StateReady
	high.AgedPriority = 0.9

	low := k.procs.alloc(0) // pid 2
	low.State = StateReady
	low.AgedPriority = 0.1

	tie := k.procs.alloc(0) // pid 3, same priority as pid 2
	tie.State = StateReady
	tie.AgedPriority = 0.1

	k.schedule(nil, 0)

	if k.current != low {
		t.Fatalf("selected pid %d, want pid %d (lowest aged priority, lowest pid on a tie)", k.current.Pid, low.Pid)
	}
}

func TestQuantumExpiryAgesAndReselects(t *testing.T) {
	cfg := testConfig()
	k, m := newTestKernel(cfg)

	p := k.procs.alloc(0)
	p.PageTable = m.Machine.MMU.NewPageTable()
	p.Quantum = cfg.Quantum
	p.AgedPriority = 0.5
	k.metrics.RecordProcessCreated(p.Pid, 0)
	k.transition(p, StateRunning, 0)
	k.current = p

	now := 0
	for i := 0; i < cfg.Quantum; i++ {
		k.handleClock(k.current, now)
		now++
	}
	if p.Quantum != 0 {
		t.Fatalf("quantum after %d ticks = %d, want 0", cfg.Quantum, p.Quantum)
	}

	k.schedule(p, now)

	if p.AgedPriority != 0.75 {
		t.Errorf("AgedPriority after one full quantum = %v, want 0.75", p.AgedPriority)
	}
	if k.current != p || p.State != StateRunning || p.Quantum != cfg.Quantum {
		t.Errorf("process should be reselected with a fresh quantum: state=%v quantum=%d", p.State, p.Quantum)
	}
}

func TestPreemptionRecordedOnlyOnActualSwitch(t *testing.T) {
	cfg := testConfig()
	k, m := newTestKernel(cfg)

	a := k.procs.alloc(0)
	a.PageTable = m.Machine.MMU.NewPageTable()
	a.Quantum = 0 // about to lose the CPU
	a.AgedPriority = 0.2
	k.metrics.RecordProcessCreated(a.Pid, 0)
	k.transition(a, StateRunning, 0)
	k.current = a

	b := k.procs.alloc(0)
	b.State = StateReady
	b.AgedPriority = 0.1 // strictly better than a's resulting priority

	k.schedule(a, 10)

	if k.current != b {
		t.Fatalf("expected switch to pid %d, got pid %d", b.Pid, k.current.Pid)
	}
	if got := k.Metrics().Preemptions; got != 1 {
		t.Errorf("Preemptions = %d, want 1", got)
	}
}

func TestIdleWhenNoProcessReady(t *testing.T) {
	cfg := testConfig()
	k, _ := newTestKernel(cfg)

	k.schedule(nil, 0)
	if k.current != nil {
		t.Fatalf("expected idle (nil current), got pid %d", k.current.Pid)
	}
	if got := k.metrics.IdleTime(10); got != 10 {
		t.Errorf("IdleTime(10) = %d, want 10 (idle since instant 0)", got)
	}
}

// --- demand paging (C9) ---

func newPageTableFor(k *Kernel) simcontract.PageTable {
	return k.machine.MMU.NewPageTable()
}

func TestPageFaultBlocksForDiskTimeThenUnblocks(t *testing.T) {
	cfg := testConfig()
	k, _ := newTestKernel(cfg)

	p := k.procs.alloc(0)
	p.PageTable = newPageTableFor(k)
	p.NPages = 2
	base := k.swap.Allocate(p.Pid, 2)
	p.SwapExtent = swapstore.Extent{Base: base, Pages: 2}
	if err := k.swap.LoadPage(base, []int{1, 2, 3, 4}); err != nil {
		t.Fatalf("LoadPage: %v", err)
	}
	if err := k.swap.LoadPage(base+1, []int{5, 6, 7, 8}); err != nil {
		t.Fatalf("LoadPage: %v", err)
	}

	p.Complement = 1 * cfg.PageSize // faults on virtual page 1
	p.ErrorCode = simcontract.ErrCodePageAbsent
	k.metrics.RecordProcessCreated(p.Pid, 0)
	k.transition(p, StateRunning, 0)
	k.current = p

	k.handleCPUError(p, 0)

	if p.State != StateBlocked || p.BlockCause != BlockSwapIO {
		t.Fatalf("process state = %v/%v, want Blocked/SwapIO", p.State, p.BlockCause)
	}
	if p.BlockUnblockInstant != cfg.SwapPageTransferTime {
		t.Errorf("unblock instant = %d, want %d", p.BlockUnblockInstant, cfg.SwapPageTransferTime)
	}
	if p.FaultCount != 1 {
		t.Errorf("FaultCount = %d, want 1", p.FaultCount)
	}
	if frame, ok := p.PageTable.Translate(1); !ok {
		t.Error("page 1 should now be mapped")
	} else if frame < 0 || frame >= cfg.FrameCount {
		t.Errorf("mapped frame %d out of range", frame)
	}

	k.drainPendingWork(cfg.SwapPageTransferTime - 1)
	if p.State != StateBlocked {
		t.Fatal("should still be blocked before completion instant")
	}

	k.drainPendingWork(cfg.SwapPageTransferTime)
	if p.State != StateReady {
		t.Errorf("state = %v, want Ready once the swap completion instant passes", p.State)
	}
}

func TestOutOfRangePageAccessKillsProcess(t *testing.T) {
	cfg := testConfig()
	k, _ := newTestKernel(cfg)

	p := k.procs.alloc(0)
	p.PageTable = newPageTableFor(k)
	p.NPages = 1
	k.metrics.RecordProcessCreated(p.Pid, 0)
	k.transition(p, StateRunning, 0)
	k.current = p

	p.Complement = 5 * cfg.PageSize // page 5, well outside NPages=1
	p.ErrorCode = simcontract.ErrCodePageAbsent

	k.handleCPUError(p, 0)

	if p.State != StateDead {
		t.Errorf("state = %v, want Dead", p.State)
	}
}

func TestReentrantPageFaultOnAlreadyMappedPageIsNoOp(t *testing.T) {
	cfg := testConfig()
	k, _ := newTestKernel(cfg)

	p := k.procs.alloc(0)
	p.PageTable = newPageTableFor(k)
	p.NPages = 1
	base := k.swap.Allocate(p.Pid, 1)
	p.SwapExtent = swapstore.Extent{Base: base, Pages: 1}
	k.swap.LoadPage(base, make([]int, cfg.PageSize))
	k.metrics.RecordProcessCreated(p.Pid, 0)
	k.transition(p, StateRunning, 0)
	k.current = p

	p.Complement = 0
	p.ErrorCode = simcontract.ErrCodePageAbsent
	k.handleCPUError(p, 0)
	if p.FaultCount != 1 {
		t.Fatalf("FaultCount after first fault = %d, want 1", p.FaultCount)
	}

	// Same process, same address, before it even got to run again: must not
	// double-allocate a frame or double-count a fault.
	p.State = StateRunning
	k.handleCPUError(p, 1)
	if p.FaultCount != 1 {
		t.Errorf("FaultCount after re-entrant fault = %d, want still 1", p.FaultCount)
	}
}

// --- process lifecycle / waiters ---

func TestKillWakesAllWaiters(t *testing.T) {
	cfg := testConfig()
	k, _ := newTestKernel(cfg)

	child := k.procs.alloc(0)
	child.PageTable = newPageTableFor(k)
	k.metrics.RecordProcessCreated(child.Pid, 0)
	k.transition(child, StateRunning, 0)

	waiter := k.procs.alloc(0)
	waiter.PageTable = newPageTableFor(k)
	k.metrics.RecordProcessCreated(waiter.Pid, 0)
	k.transition(waiter, StateRunning, 0)
	waiter.blockOnChild(child.Pid)
	k.transition(waiter, StateBlocked, 0)

	second := k.procs.alloc(0)
	second.PageTable = newPageTableFor(k)
	k.metrics.RecordProcessCreated(second.Pid, 0)
	k.transition(second, StateRunning, 0)
	second.blockOnChild(child.Pid)
	k.transition(second, StateBlocked, 0)

	k.killProcess(child, 5)

	if waiter.State != StateReady {
		t.Errorf("waiter state = %v, want Ready", waiter.State)
	}
	if second.State != StateReady {
		t.Errorf("second waiter state = %v, want Ready", second.State)
	}
	if waiter.A != 0 {
		t.Errorf("waiter.A = %d, want 0", waiter.A)
	}
}

// --- device-blocked syscalls ---

func TestReadBlocksThenDrainDelivers(t *testing.T) {
	cfg := testConfig()
	k, m := newTestKernel(cfg)

	p := k.procs.alloc(0)
	p.PageTable = newPageTableFor(k)
	p.Terminal = 0
	p.A = int(simcontract.SyscallRead)
	k.metrics.RecordProcessCreated(p.Pid, 0)
	k.transition(p, StateRunning, 0)
	k.current = p

	k.sysRead(p, 0)
	if p.State != StateBlocked || p.BlockCause != BlockDeviceRead {
		t.Fatalf("state = %v/%v, want Blocked/DeviceRead", p.State, p.BlockCause)
	}

	m.IODevice.TypeKey(0, 42)
	k.drainPendingWork(1)

	if p.State != StateReady {
		t.Fatalf("state = %v, want Ready after keypress", p.State)
	}
	if p.A != 42 {
		t.Errorf("A = %d, want 42", p.A)
	}
}

func TestWriteBlocksWhenScreenNotReady(t *testing.T) {
	cfg := testConfig()
	k, m := newTestKernel(cfg)

	p := k.procs.alloc(0)
	p.PageTable = newPageTableFor(k)
	p.Terminal = 0
	p.A = int(simcontract.SyscallWrite)
	p.X = 88
	k.metrics.RecordProcessCreated(p.Pid, 0)
	k.transition(p, StateRunning, 0)
	k.current = p

	m.IODevice.SetScreenReady(0, false)
	k.sysWrite(p, 0)
	if p.State != StateBlocked || p.BlockCause != BlockDeviceWrite || p.BlockWriteByte != 88 {
		t.Fatalf("state = %v/%v byte=%d, want Blocked/DeviceWrite/88", p.State, p.BlockCause, p.BlockWriteByte)
	}

	m.IODevice.SetScreenReady(0, true)
	k.drainPendingWork(1)
	if p.State != StateReady {
		t.Fatal("should be Ready once the screen becomes ready")
	}
	log := m.IODevice.ScreenLog(0)
	if len(log) != 1 || log[0] != 88 {
		t.Errorf("screen log = %v, want [88]", log)
	}
}
