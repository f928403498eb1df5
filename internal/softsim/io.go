package softsim

import "fmt"

// terminal is one keyboard/screen pair. A terminal's keyboard starts not
// ready; a test or the driving loop calls TypeKey to make a datum available.
// The screen is ready unless a test explicitly jams it with SetScreenReady.
type terminal struct {
	keyboardReady bool
	keyboardData  int
	screenReady   bool
	screenLog     []int
}

// IOController is the simulated I/O controller: a fixed number of terminals
// plus a single free-running clock.
type IOController struct {
	terminals []terminal
	now       int
	interval  int
	acked     int
}

// NewIOController builds an IOController with nTerminals terminals, screens
// initially ready and keyboards initially not ready.
func NewIOController(nTerminals int) *IOController {
	io := &IOController{terminals: make([]terminal, nTerminals)}
	for i := range io.terminals {
		io.terminals[i].screenReady = true
	}
	return io
}

func (io *IOController) bounds(t int) error {
	if t < 0 || t >= len(io.terminals) {
		return fmt.Errorf("softsim: terminal %d out of range", t)
	}
	return nil
}

func (io *IOController) KeyboardReady(t int) (bool, error) {
	if err := io.bounds(t); err != nil {
		return false, err
	}
	return io.terminals[t].keyboardReady, nil
}

func (io *IOController) ReadKeyboard(t int) (int, error) {
	if err := io.bounds(t); err != nil {
		return 0, err
	}
	term := &io.terminals[t]
	datum := term.keyboardData
	term.keyboardReady = false
	term.keyboardData = 0
	return datum, nil
}

func (io *IOController) ScreenReady(t int) (bool, error) {
	if err := io.bounds(t); err != nil {
		return false, err
	}
	return io.terminals[t].screenReady, nil
}

func (io *IOController) WriteScreen(t int, value int) error {
	if err := io.bounds(t); err != nil {
		return err
	}
	io.terminals[t].screenLog = append(io.terminals[t].screenLog, value)
	return nil
}

func (io *IOController) Now() int {
	return io.now
}

func (io *IOController) ArmTimer(interval int) {
	io.interval = interval
}

func (io *IOController) AckInterrupt() {
	io.acked++
}

// Advance moves the simulated clock forward n instructions, as the driving
// loop would between interrupts.
func (io *IOController) Advance(n int) {
	io.now += n
}

// TimerInterval returns the interval last armed via ArmTimer.
func (io *IOController) TimerInterval() int {
	return io.interval
}

// TypeKey makes datum available for terminal t's next ReadKeyboard,
// simulating a keypress arriving at the device.
func (io *IOController) TypeKey(t int, datum int) {
	io.terminals[t].keyboardReady = true
	io.terminals[t].keyboardData = datum
}

// SetScreenReady forces terminal t's screen ready status, for tests that
// exercise the device-blocked-write path.
func (io *IOController) SetScreenReady(t int, ready bool) {
	io.terminals[t].screenReady = ready
}

// ScreenLog returns everything written to terminal t's screen, in order.
func (io *IOController) ScreenLog(t int) []int {
	return io.terminals[t].screenLog
}
