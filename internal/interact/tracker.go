// Package interact derives the current pointer interaction mode.
package interact

import "time"

// Mode classifies what the pointer is currently doing over the render
// surface. It drives the cursor hint only and carries no data of its own.
type Mode int

const (
	Idle Mode = iota
	Rotating
	Panning
	Zooming
	Placing
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case Rotating:
		return "rotating"
	case Panning:
		return "panning"
	case Zooming:
		return "zooming"
	case Placing:
		return "placing"
	default:
		return "unknown"
	}
}

// WheelDebounce is how long after the last wheel tick the mode stays
// zooming before falling back to idle.
const WheelDebounce = 180 * time.Millisecond

// Tracker is a small state machine fed from raw pointer events. It is
// recomputed on every event, never persisted.
type Tracker struct {
	mode      Mode
	placing   bool
	lastWheel time.Time

	// now is swappable for tests.
	now func() time.Time
}

func NewTracker() *Tracker {
	return &Tracker{now: time.Now}
}

// SetPlacing toggles the external placing flag. While set, a primary
// button press is routed to picking instead of camera orbit.
func (t *Tracker) SetPlacing(placing bool) {
	t.placing = placing
	if !placing && t.mode == Placing {
		t.mode = Idle
	}
}

// PrimaryDown reports whether the press should be treated as a pick.
// When the placing flag is off it starts a rotate instead.
func (t *Tracker) PrimaryDown() (pick bool) {
	if t.placing {
		t.mode = Placing
		return true
	}
	t.mode = Rotating
	return false
}

func (t *Tracker) SecondaryDown() {
	if t.placing {
		return
	}
	t.mode = Panning
}

// Wheel records a wheel tick. The mode stays zooming until WheelDebounce
// elapses without another tick; callers poll Mode to observe the decay.
func (t *Tracker) Wheel() {
	if t.placing {
		return
	}
	t.lastWheel = t.now()
	t.mode = Zooming
}

// PointerUp ends any drag gesture.
func (t *Tracker) PointerUp() {
	if t.mode == Rotating || t.mode == Panning || t.mode == Placing {
		t.mode = Idle
	}
}

// PointerLeave resets to idle; a drag that leaves the surface is dropped
// rather than resumed on re-entry.
func (t *Tracker) PointerLeave() {
	t.mode = Idle
	t.lastWheel = time.Time{}
}

// Mode returns the current interaction mode, decaying zooming back to
// idle once the debounce window has passed.
func (t *Tracker) Mode() Mode {
	if t.mode == Zooming && t.now().Sub(t.lastWheel) >= WheelDebounce {
		t.mode = Idle
	}
	if t.mode == Idle && t.placing {
		return Placing
	}
	return t.mode
}
