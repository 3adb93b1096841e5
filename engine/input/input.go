// Package input turns window callbacks into a per-frame snapshot of keyboard and pointer state.
package input

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-scene/common"
)

// Pointer is a pointer position in window pixels plus the buttons that matter to the scene.
type Pointer struct {
	X, Y        float32
	LeftButton  bool
	RightButton bool
}

// State is the input snapshot handed to the scene once per frame.
type State struct {
	// Keys is indexed by the virtual key codes in common/key_codes.go.
	Keys [common.KeyCount]bool
	// Pointer is the pointer as of this snapshot.
	Pointer Pointer
	// PrevPointer is the pointer as of the previous snapshot.
	PrevPointer Pointer
	// HasPointer is false until the pointer has entered the window.
	HasPointer bool
	// HasPrevPointer is false on the first snapshot that carries a pointer.
	HasPrevPointer bool
}

// Down reports whether key is held. Out of range codes are never held.
func (s State) Down(key uint32) bool {
	if key >= common.KeyCount {
		return false
	}
	return s.Keys[key]
}

// PointerDelta returns the pointer movement since the previous snapshot, or zero if either is missing.
func (s State) PointerDelta() (dx, dy float32) {
	if !s.HasPointer || !s.HasPrevPointer {
		return 0, 0
	}
	return s.Pointer.X - s.PrevPointer.X, s.Pointer.Y - s.PrevPointer.Y
}

// MouseButton identifies a pointer button.
type MouseButton int

const (
	MouseButtonLeft MouseButton = iota
	MouseButtonRight
	MouseButtonMiddle
)

// Tracker accumulates window events between frames. The event methods are safe to call from the window
// goroutine while the frame loop calls Snapshot.
type Tracker struct {
	mu         *sync.Mutex
	keys       [common.KeyCount]bool
	pointer    Pointer
	hasPointer bool
	last       Pointer
	hasLast    bool
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{mu: &sync.Mutex{}}
}

// KeyDown marks key as held.
func (t *Tracker) KeyDown(key uint32) {
	t.setKey(key, true)
}

// KeyUp marks key as released.
func (t *Tracker) KeyUp(key uint32) {
	t.setKey(key, false)
}

func (t *Tracker) setKey(key uint32, down bool) {
	if key >= common.KeyCount {
		return
	}
	t.mu.Lock()
	t.keys[key] = down
	t.mu.Unlock()
}

// MouseMove records the pointer position.
func (t *Tracker) MouseMove(x, y int32) {
	t.mu.Lock()
	t.pointer.X, t.pointer.Y = float32(x), float32(y)
	t.hasPointer = true
	t.mu.Unlock()
}

// MouseButton records a button press or release at the given position.
func (t *Tracker) MouseButton(button MouseButton, pressed bool, x, y int32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pointer.X, t.pointer.Y = float32(x), float32(y)
	t.hasPointer = true
	switch button {
	case MouseButtonLeft:
		t.pointer.LeftButton = pressed
	case MouseButtonRight:
		t.pointer.RightButton = pressed
	}
}

// Snapshot returns the current state. The pointer it reports becomes PrevPointer of the next snapshot.
//
// Returns:
//   - State: a copy of the accumulated input
func (t *Tracker) Snapshot() State {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := State{
		Keys:           t.keys,
		Pointer:        t.pointer,
		PrevPointer:    t.last,
		HasPointer:     t.hasPointer,
		HasPrevPointer: t.hasLast,
	}
	if t.hasPointer {
		t.last = t.pointer
		t.hasLast = true
	}
	return s
}

// Reset releases every key and forgets the pointer, e.g. when the window loses focus.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.keys = [common.KeyCount]bool{}
	t.pointer = Pointer{}
	t.hasPointer = false
	t.last = Pointer{}
	t.hasLast = false
}
