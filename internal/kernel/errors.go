package kernel

import "errors"

// Kernel-internal invariant-breach errors (spec.md §7's "kernel internal
// invariant breach" class): these never reach a user process, they only ever
// feed Kernel.fail.
var (
	errNoFreeFrameAtBoot = errors.New("kernel: no free frame to prefault boot page")
	errInvalidPrefault   = errors.New("kernel: prefault target page not owned by process")
	errUnknownCause      = errors.New("kernel: unknown interrupt cause")
	errUnknownSyscall    = errors.New("kernel: unknown syscall id")
)
