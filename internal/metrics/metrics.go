// Package metrics implements C1: the accounting subsystem tightly coupled to
// every process-state transition. It is deliberately not safe for concurrent
// use — spec.md §5 mandates the kernel itself is single-threaded with no
// internal concurrency, so the usual mutex/atomic counters the rest of the
// retrieval pack reaches for (see examples/shared/metrics.go) would be dead
// weight here.
package metrics

import "github.com/Talescruzs/so2025s2/internal/simcontract"

// ProcessState mirrors the three states the original course's metrics track
// time-in-state for (ready, running, blocked); DEAD is terminal and has no
// time-in-state accumulator of its own.
type ProcessState int

const (
	StateReady ProcessState = iota
	StateRunning
	StateBlocked
	numStates
)

func (s ProcessState) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateBlocked:
		return "blocked"
	default:
		return "unknown"
	}
}

type processStats struct {
	created        bool
	createdAt      int
	diedAt         int
	died           bool
	entries        [numStates]int
	timeInState    [numStates]int
	lastTransition int
	lastState      ProcessState
	havePrev       bool
	preemptions    int
	faultCount     int
}

// Recorder accumulates C1's counters: events, per-state time per process, and
// idle time. One Recorder is owned by one kernel.Kernel value.
type Recorder struct {
	processesCreated int
	syscallsServiced int
	preemptions      int
	interruptCounts  map[simcontract.Cause]int

	procs map[int]*processStats

	idle      bool
	idleSince int
	idleTotal int
}

// New builds an empty Recorder.
func New() *Recorder {
	return &Recorder{
		interruptCounts: make(map[simcontract.Cause]int),
		procs:           make(map[int]*processStats),
	}
}

// RecordInterrupt increments the per-cause interrupt counter, mirroring the
// original course's metrica.n_interrupcoes_tipo[].
func (r *Recorder) RecordInterrupt(cause simcontract.Cause) {
	r.interruptCounts[cause]++
}

// RecordSyscall increments the serviced-syscall counter.
func (r *Recorder) RecordSyscall() {
	r.syscallsServiced++
}

// RecordProcessCreated registers pid as created at instant now, and starts
// its per-state accounting.
func (r *Recorder) RecordProcessCreated(pid int, now int) {
	r.processesCreated++
	r.procs[pid] = &processStats{
		created:        true,
		createdAt:      now,
		lastTransition: now,
	}
}

// RecordTransition updates time-in-previous-state and entry counts for pid
// moving into newState at instant now. Per spec.md §4.2, every transition
// other than DEAD-from-DEAD calls this. Transitions into DEAD are recorded
// via RecordDeath instead, which also closes out the process's record.
func (r *Recorder) RecordTransition(pid int, newState ProcessState, now int) {
	ps := r.procs[pid]
	if ps == nil {
		return
	}
	if ps.havePrev {
		ps.timeInState[ps.lastState] += now - ps.lastTransition
	}
	ps.entries[newState]++
	ps.lastState = newState
	ps.lastTransition = now
	ps.havePrev = true
}

// RecordDeath closes out pid's accounting at instant now and records its
// turnaround time as wall-clock from creation to death (spec.md §9 resolves
// the original's self-subtracting turnaround expression this way).
func (r *Recorder) RecordDeath(pid int, now int) {
	ps := r.procs[pid]
	if ps == nil {
		return
	}
	if ps.havePrev {
		ps.timeInState[ps.lastState] += now - ps.lastTransition
	}
	ps.died = true
	ps.diedAt = now
	ps.lastTransition = now
	ps.havePrev = false
}

// RecordPreemption increments both the global and the per-process preemption
// counters, per the original course's n_preempcao / n_preempcao_processo.
func (r *Recorder) RecordPreemption(pid int) {
	r.preemptions++
	if ps := r.procs[pid]; ps != nil {
		ps.preemptions++
	}
}

// RecordPageFault increments pid's fault counter.
func (r *Recorder) RecordPageFault(pid int) {
	if ps := r.procs[pid]; ps != nil {
		ps.faultCount++
	}
}

// SetIdle marks the system idle (every process BLOCKED or DEAD) or not idle,
// accumulating elapsed idle time on the falling edge, per spec.md §4.6.
func (r *Recorder) SetIdle(idle bool, now int) {
	if idle == r.idle {
		return
	}
	if idle {
		r.idle = true
		r.idleSince = now
		return
	}
	r.idleTotal += now - r.idleSince
	r.idle = false
}

// IdleTime returns the accumulated idle time, including any idle period
// still open at instant now.
func (r *Recorder) IdleTime(now int) int {
	total := r.idleTotal
	if r.idle {
		total += now - r.idleSince
	}
	return total
}

// Snapshot is a point-in-time, read-only view of the recorded metrics.
type Snapshot struct {
	ProcessesCreated int
	SyscallsServiced int
	Preemptions      int
	InterruptCounts  map[simcontract.Cause]int
	IdleTime         int
	Processes        map[int]ProcessSnapshot
}

// ProcessSnapshot is the per-process slice of Snapshot.
type ProcessSnapshot struct {
	CreatedAt      int
	Died           bool
	DiedAt         int
	Turnaround     int
	TimeReady      int
	TimeRunning    int
	TimeBlocked    int
	EntriesReady   int
	EntriesRunning int
	EntriesBlocked int
	Preemptions    int
	PageFaults     int
}

// Snapshot renders the current state of the recorder for reporting.
func (r *Recorder) Snapshot(now int) Snapshot {
	snap := Snapshot{
		ProcessesCreated: r.processesCreated,
		SyscallsServiced: r.syscallsServiced,
		Preemptions:      r.preemptions,
		InterruptCounts:  make(map[simcontract.Cause]int, len(r.interruptCounts)),
		IdleTime:         r.IdleTime(now),
		Processes:        make(map[int]ProcessSnapshot, len(r.procs)),
	}
	for c, n := range r.interruptCounts {
		snap.InterruptCounts[c] = n
	}
	for pid, ps := range r.procs {
		timeInState := ps.timeInState
		if ps.havePrev && !ps.died {
			timeInState[ps.lastState] += now - ps.lastTransition
		}
		turnaround := 0
		if ps.died {
			turnaround = ps.diedAt - ps.createdAt
		} else {
			turnaround = now - ps.createdAt
		}
		snap.Processes[pid] = ProcessSnapshot{
			CreatedAt:      ps.createdAt,
			Died:           ps.died,
			DiedAt:         ps.diedAt,
			Turnaround:     turnaround,
			TimeReady:      timeInState[StateReady],
			TimeRunning:    timeInState[StateRunning],
			TimeBlocked:    timeInState[StateBlocked],
			EntriesReady:   ps.entries[StateReady],
			EntriesRunning: ps.entries[StateRunning],
			EntriesBlocked: ps.entries[StateBlocked],
			Preemptions:    ps.preemptions,
			PageFaults:     ps.faultCount,
		}
	}
	return snap
}
