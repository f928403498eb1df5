package kernel

import "github.com/Talescruzs/so2025s2/internal/metrics"

// toMetricsState maps a kernel.State to the metrics package's narrower
// ProcessState. DEAD has no direct counterpart: transitions into DEAD go
// through metrics.Recorder.RecordDeath instead of RecordTransition.
func toMetricsState(s State) metrics.ProcessState {
	switch s {
	case StateRunning:
		return metrics.StateRunning
	case StateBlocked:
		return metrics.StateBlocked
	default:
		return metrics.StateReady
	}
}

// transition is the single operation spec.md §9 DESIGN NOTES calls for:
// every state change a process descriptor undergoes goes through here, so
// that the metrics side effect can never be forgotten or duplicated.
func (k *Kernel) transition(p *Process, newState State, now int) {
	if newState == StateDead {
		k.metrics.RecordDeath(p.Pid, now)
	} else {
		k.metrics.RecordTransition(p.Pid, toMetricsState(newState), now)
	}
	p.State = newState
}

// schedule implements C6, the priority-aging quantum scheduler (spec.md
// §4.3). prev is the process that was RUNNING going into this interrupt (nil
// if the CPU was idle); now is the current simulated instant. A cause
// handler may already have installed a fresh RUNNING process (boot's
// handleReset does this for init); schedule leaves that alone rather than
// second-guessing it.
func (k *Kernel) schedule(prev *Process, now int) {
	if k.current != nil && k.current.State == StateRunning && k.current.Quantum > 0 {
		return
	}

	if prev != nil && (prev.State != StateRunning || prev.Quantum <= 0) {
		tExec := k.cfg.Quantum - prev.Quantum
		prev.AgedPriority = (prev.AgedPriority + float64(tExec)/float64(k.cfg.Quantum)) / 2
		if prev.State == StateRunning {
			// Quantum ran out; the cause handler didn't already move it to
			// BLOCKED or DEAD.
			k.transition(prev, StateReady, now)
		}
	}

	best := k.pickReady()
	k.updateIdle(best, now)

	if best == nil {
		k.current = nil
		return
	}
	if prev != nil && prev != best {
		k.metrics.RecordPreemption(prev.Pid)
	}
	best.Quantum = k.cfg.Quantum
	k.transition(best, StateRunning, now)
	k.current = best
}

// pickReady scans every process for the READY one with the smallest aged
// priority, breaking ties by lowest pid (spec.md §4.3, §5 ordering
// guarantee). Returns nil if none is READY.
func (k *Kernel) pickReady() *Process {
	var best *Process
	for _, p := range k.procs.all() {
		if p.State != StateReady {
			continue
		}
		if best == nil || p.AgedPriority < best.AgedPriority {
			best = p
		}
	}
	return best
}

// updateIdle reports the system idle to the metrics recorder whenever no
// process is selected to run (spec.md §4.6): by construction, pickReady only
// runs once any previously-RUNNING process has already left that state, so
// selected == nil means every live process is BLOCKED or DEAD.
func (k *Kernel) updateIdle(selected *Process, now int) {
	k.metrics.SetIdle(selected == nil, now)
}
