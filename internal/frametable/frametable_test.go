package frametable

import "testing"

func TestFindFreeThenAssignMakesFrameOccupied(t *testing.T) {
	ft := New(2, PolicyFIFO)
	frame := ft.FindFree()
	if frame != 0 {
		t.Fatalf("FindFree = %d, want 0", frame)
	}
	ft.Assign(frame, 7, 3)
	pid, vpage, _, accessed, ok := ft.Owner(frame)
	if !ok || pid != 7 || vpage != 3 {
		t.Fatalf("Owner = (%d, %d, ok=%v), want (7, 3, true)", pid, vpage, ok)
	}
	if !accessed {
		t.Error("newly assigned frame should start accessed")
	}
}

func TestFreeAllReleasesOnlyThatPidsFrames(t *testing.T) {
	ft := New(3, PolicyFIFO)
	ft.Assign(0, 1, 0)
	ft.Assign(1, 2, 0)
	ft.Assign(2, 1, 1)

	ft.FreeAll(1)

	if _, _, _, _, ok := ft.Owner(0); ok {
		t.Error("frame 0 (pid 1) should be free")
	}
	if _, _, _, _, ok := ft.Owner(2); ok {
		t.Error("frame 2 (pid 1) should be free")
	}
	if _, _, _, _, ok := ft.Owner(1); !ok {
		t.Error("frame 1 (pid 2) should still be occupied")
	}
}

func TestVictimFIFOPicksOldestSequence(t *testing.T) {
	ft := New(3, PolicyFIFO)
	ft.Assign(0, 1, 0)
	ft.Assign(1, 1, 1)
	ft.Assign(2, 1, 2)

	if got := ft.Victim(); got != 0 {
		t.Errorf("FIFO victim = %d, want 0 (oldest)", got)
	}
}

func TestVictimLRUPicksColdestAgingRegister(t *testing.T) {
	ft := New(2, PolicyLRU)
	ft.Assign(0, 1, 0)
	ft.Assign(1, 1, 1)

	// Frame 0 kept warm, frame 1 left cold.
	ft.Tick(0, true)
	ft.Tick(1, false)
	ft.Tick(0, true)
	ft.Tick(1, false)

	if got := ft.Victim(); got != 1 {
		t.Errorf("LRU victim = %d, want 1 (coldest aging register)", got)
	}
}

func TestTickShiftsAgingRegisterRight(t *testing.T) {
	ft := New(1, PolicyLRU)
	ft.Assign(0, 1, 0)
	ft.Tick(0, true) // aging = 1000 0000
	ft.Tick(0, false)
	ft.Tick(0, true)

	// After three ticks: 1000 0000 -> 0100 0000 -> 1010 0000 (accessed=true shifted in)
	if got := ft.frames[0].aging; got != 0xA0 {
		t.Errorf("aging = %08b, want 10100000", got)
	}
	_, _, _, accessed, _ := ft.Owner(0)
	if !accessed {
		t.Error("Owner should reflect the most recent accessed sample")
	}
}
