// Command teachos is the wrapper binary from spec.md §6: it constructs the
// simulated machine and the kernel, boots it, and drives the dispatch loop
// until the kernel halts. The hardware simulator's instruction-fetch/execute
// loop is out of scope (spec.md §1 treats the CPU as an external
// collaborator, interfaces only), so this driver does not interpret a user
// instruction set; it advances the simulation by feeding the kernel the
// interrupt causes a real simulator would raise for the bundled
// boot-then-self-terminate demonstration program (spec.md §8 scenario 1),
// printing the resulting metrics snapshot on exit.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/Talescruzs/so2025s2/internal/debug"
	"github.com/Talescruzs/so2025s2/internal/kernel"
	"github.com/Talescruzs/so2025s2/internal/simcontract"
	"github.com/Talescruzs/so2025s2/internal/softsim"
)

// exitError carries the process exit code a failure should produce,
// mirroring the CLI surface's "any other argument is rejected with a
// diagnostic" and "exit status 0 on normal termination" requirements.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

func main() {
	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	configPath := fs.String("config", "", "path to a YAML config file overriding the defaults")
	traceCap := fs.Int("trace", 0, "capture up to N dispatch trace entries (0 disables)")
	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}

	variant, err := parseVariant(fs.Args())
	if err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			fmt.Fprintln(os.Stderr, ee.msg)
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := run(*configPath, *traceCap, variant); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			fmt.Fprintln(os.Stderr, ee.msg)
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// parseVariant validates the optional positional scheduler-variant argument.
// Both 1 and 2 select the same priority-aging scheduler (spec.md §9
// reconciles the source's duplicated drafts into one scheduler design); the
// argument is accepted purely for CLI-surface compatibility, per DESIGN.md.
func parseVariant(args []string) (int, error) {
	if len(args) == 0 {
		return 1, nil
	}
	if len(args) > 1 {
		return 0, &exitError{code: 2, msg: fmt.Sprintf("teachos: unexpected arguments %v", args[1:])}
	}
	switch args[0] {
	case "1":
		return 1, nil
	case "2":
		return 2, nil
	default:
		return 0, &exitError{code: 2, msg: fmt.Sprintf("teachos: invalid scheduler variant %q, want 1 or 2", args[0])}
	}
}

func run(configPath string, traceCap int, variant int) error {
	_ = variant

	cfg := kernel.DefaultConfig()
	if configPath != "" {
		var err error
		cfg, err = kernel.LoadConfig(configPath)
		if err != nil {
			return &exitError{code: 1, msg: fmt.Sprintf("teachos: %v", err)}
		}
	}
	kernel.ApplyEnvOverrides(&cfg)

	sim := softsim.New(softsim.Config{
		MemoryWords:   cfg.FrameBase + cfg.FrameCount*cfg.PageSize,
		PageSize:      cfg.PageSize,
		FrameBase:     cfg.FrameBase,
		TerminalCount: cfg.TerminalCount,
	})
	sim.LoaderDevice.Register(cfg.TrapHandlerImage, []int{0})
	sim.LoaderDevice.Register(cfg.InitProgram, []int{0})

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	k := kernel.New(cfg, sim.Machine, kernel.WithLogger(logger), kernel.WithTrace(debug.NewRing(traceCap)))

	code := k.HandleInterrupt(simcontract.CauseReset)
	for code == simcontract.Resume {
		sim.IODevice.Advance(1)

		regs := sim.CPUDevice.Registers()
		regs.A = int(simcontract.SyscallKill)
		regs.X = 0
		sim.CPUDevice.SetRegisters(regs)

		code = k.HandleInterrupt(simcontract.CauseSyscall)
	}

	if k.HasInternalError() {
		return &exitError{code: 1, msg: "teachos: kernel halted on an internal error"}
	}

	snap := k.Metrics()
	fmt.Printf("processes created: %d\n", snap.ProcessesCreated)
	fmt.Printf("syscalls serviced: %d\n", snap.SyscallsServiced)
	fmt.Printf("preemptions: %d\n", snap.Preemptions)
	fmt.Printf("idle time: %d\n", snap.IdleTime)
	return nil
}
