// Package kernel implements the core of the teaching operating system: the
// interrupt dispatcher (C7), the process table and state machine (C5), the
// priority-aging scheduler (C6), the system-call layer (C8), and the
// demand-paging subsystem (C9), plus the metrics it drives at every
// transition (C1, via internal/metrics). It treats the hardware simulator
// purely as the internal/simcontract interfaces — nothing in this package
// depends on how those are actually implemented.
package kernel

import (
	"fmt"
	"log/slog"

	"github.com/Talescruzs/so2025s2/internal/debug"
	"github.com/Talescruzs/so2025s2/internal/frametable"
	"github.com/Talescruzs/so2025s2/internal/metrics"
	"github.com/Talescruzs/so2025s2/internal/simcontract"
	"github.com/Talescruzs/so2025s2/internal/swapstore"
)

// Kernel is the kernel value: every piece of state that would otherwise be a
// module-level global (the process table, the frame table, the swap store)
// is threaded here instead, per spec.md §9 DESIGN NOTES. There is no "next
// pid" counter: a pid is derived from its process-table slot.
type Kernel struct {
	cfg     Config
	machine *simcontract.Machine

	procs   *ProcTable
	frames  *frametable.Table
	swap    *swapstore.Store
	metrics *metrics.Recorder

	current *Process

	internalError bool
	booted        bool

	logger *slog.Logger
	trace  *debug.Ring
}

// Option customises a Kernel at construction time.
type Option func(*Kernel)

// WithLogger overrides the kernel's structured logger (default
// slog.Default()), matching the teacher's log/slog idiom.
func WithLogger(l *slog.Logger) Option {
	return func(k *Kernel) {
		if l != nil {
			k.logger = l
		}
	}
}

// WithTrace attaches a trace ring for dispatch-loop diagnostics (see
// internal/debug); nil disables tracing.
func WithTrace(r *debug.Ring) Option {
	return func(k *Kernel) { k.trace = r }
}

// New builds a Kernel bound to machine, sized and tuned by cfg.
func New(cfg Config, machine *simcontract.Machine, opts ...Option) *Kernel {
	k := &Kernel{
		cfg:     cfg,
		machine: machine,
		procs:   newProcTable(cfg.MaxProcesses),
		frames:  frametable.New(cfg.FrameCount, cfg.Policy()),
		swap:    swapstore.New(cfg.SwapPages, cfg.PageSize, cfg.SwapPageTransferTime),
		metrics: metrics.New(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// Metrics returns a snapshot of the accounting subsystem as of the
// simulator's current instant.
func (k *Kernel) Metrics() metrics.Snapshot {
	return k.metrics.Snapshot(k.machine.IO.Now())
}

// HasInternalError reports whether the kernel has recorded a kernel-fatal
// invariant breach (spec.md §7).
func (k *Kernel) HasInternalError() bool {
	return k.internalError
}

// terminalFor computes the terminal index assigned to pid, per spec.md §4.5:
// ((pid−1) mod T) × 4, where T is the configured terminal count.
func (k *Kernel) terminalFor(pid int) int {
	return ((pid - 1) % k.cfg.TerminalCount) * 4
}

// fail records a kernel-internal invariant breach: logs it, sets the
// internal-error flag, and causes every subsequent (and, per this
// implementation, the remainder of this) dispatch to halt, per spec.md §7.
func (k *Kernel) fail(format string, args ...any) {
	k.internalError = true
	k.logger.Error("kernel internal error", "detail", fmt.Sprintf(format, args...))
	k.trace.Writef("kernel.fail", format, args...)
}
