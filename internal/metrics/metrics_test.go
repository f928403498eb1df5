package metrics

import (
	"testing"

	"github.com/Talescruzs/so2025s2/internal/simcontract"
)

func TestRecordTransitionAccumulatesTimeInState(t *testing.T) {
	r := New()
	r.RecordProcessCreated(1, 0)
	r.RecordTransition(1, StateReady, 0)
	r.RecordTransition(1, StateRunning, 10)
	r.RecordTransition(1, StateBlocked, 25)

	snap := r.Snapshot(40)
	ps := snap.Processes[1]
	if ps.TimeReady != 10 {
		t.Errorf("TimeReady = %d, want 10", ps.TimeReady)
	}
	if ps.TimeRunning != 15 {
		t.Errorf("TimeRunning = %d, want 15", ps.TimeRunning)
	}
	if ps.TimeBlocked != 15 {
		t.Errorf("TimeBlocked (still open at snapshot) = %d, want 15", ps.TimeBlocked)
	}
}

func TestRecordDeathClosesOutTurnaround(t *testing.T) {
	r := New()
	r.RecordProcessCreated(1, 5)
	r.RecordTransition(1, StateRunning, 5)
	r.RecordDeath(1, 30)

	snap := r.Snapshot(100)
	ps := snap.Processes[1]
	if !ps.Died {
		t.Fatal("expected Died true")
	}
	if ps.Turnaround != 25 {
		t.Errorf("Turnaround = %d, want 25 (wall clock creation to death)", ps.Turnaround)
	}
	// A later Snapshot must not keep accruing time-in-state for a dead process.
	later := r.Snapshot(500)
	if later.Processes[1].TimeRunning != ps.TimeRunning {
		t.Errorf("dead process time-in-state changed between snapshots: %d vs %d",
			later.Processes[1].TimeRunning, ps.TimeRunning)
	}
}

func TestIdleTimeAccumulatesOnFallingEdge(t *testing.T) {
	r := New()
	r.SetIdle(true, 10)
	if got := r.IdleTime(20); got != 10 {
		t.Errorf("IdleTime while still idle = %d, want 10", got)
	}
	r.SetIdle(false, 20)
	if got := r.IdleTime(100); got != 10 {
		t.Errorf("IdleTime after leaving idle = %d, want 10 (frozen)", got)
	}
	r.SetIdle(true, 100)
	if got := r.IdleTime(110); got != 20 {
		t.Errorf("IdleTime across two idle spans = %d, want 20", got)
	}
}

func TestRecordInterruptCountsByCause(t *testing.T) {
	r := New()
	r.RecordInterrupt(simcontract.CauseClock)
	r.RecordInterrupt(simcontract.CauseClock)
	r.RecordInterrupt(simcontract.CauseSyscall)

	snap := r.Snapshot(0)
	if snap.InterruptCounts[simcontract.CauseClock] != 2 {
		t.Errorf("clock interrupts = %d, want 2", snap.InterruptCounts[simcontract.CauseClock])
	}
	if snap.InterruptCounts[simcontract.CauseSyscall] != 1 {
		t.Errorf("syscall interrupts = %d, want 1", snap.InterruptCounts[simcontract.CauseSyscall])
	}
}

func TestRecordPreemptionCountsGlobalAndPerProcess(t *testing.T) {
	r := New()
	r.RecordProcessCreated(1, 0)
	r.RecordProcessCreated(2, 0)
	r.RecordPreemption(1)
	r.RecordPreemption(1)
	r.RecordPreemption(2)

	snap := r.Snapshot(0)
	if snap.Preemptions != 3 {
		t.Errorf("global preemptions = %d, want 3", snap.Preemptions)
	}
	if snap.Processes[1].Preemptions != 2 {
		t.Errorf("pid 1 preemptions = %d, want 2", snap.Processes[1].Preemptions)
	}
}
