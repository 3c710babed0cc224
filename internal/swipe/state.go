package swipe

// Phase is the carousel's position in the gesture/settle state machine.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseDragging
	PhaseCommitting
	PhaseCancelling
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseDragging:
		return "dragging"
	case PhaseCommitting:
		return "committing"
	case PhaseCancelling:
		return "cancelling"
	default:
		return "unknown"
	}
}

// GestureState is the live pointer gesture.
type GestureState struct {
	Origin *PointerSample
	Offset Vec2
	Active bool
}

// DragState is recognizer bookkeeping for the active gesture.
type DragState struct {
	// StartIndex is the observed index when the pointer went down.
	StartIndex int

	// Prev and Last are the two most recent distinct samples, used for release velocity.
	Prev, Last PointerSample
	HasPrev    bool

	// Moved is set once the pointer leaves the tap dead zone.
	Moved bool

	// AxisLocked is set when the scroll axis has been decided for this gesture.
	AxisLocked    bool
	PreventScroll bool
}

// velocity is the horizontal release speed in px/ms over the last two samples.
func (d DragState) velocity() float64 {
	if !d.HasPrev {
		return 0
	}
	dt := float64(d.Last.TimestampMs - d.Prev.TimestampMs)
	if dt <= 0 {
		return 0
	}
	return (d.Last.X - d.Prev.X) / dt
}

// Layout is the measured element geometry.
type Layout struct {
	Width float64
	Left  float64
}

// SettleTask is one settle animation. Only the task referenced by
// State.Settle is live; a superseded task is simply dropped.
type SettleTask struct {
	InitialOffset   float64
	InitialVelocity float64
	StartMs         int64
	TargetOffset    float64

	Generation  uint64
	Commit      bool // false when the target is "stay"
	CommitIndex int
	Model       SettleModel
}

// Outcome records how the last gesture was classified.
type Outcome struct {
	Step   int    // -1 retreat, 0 stay, +1 advance
	Reason string // "fling", "distance", "tap_edge", "tap", "cancel", "zero_width", "single_item"
}

// State is the carousel-owned state. It is owned by a single dispatcher and
// must not be shared between goroutines.
type State struct {
	Phase   Phase
	Gesture GestureState
	Drag    DragState

	Layout    Layout
	ItemCount int

	// Index is the last index observed from the external store. The reducer
	// proposes changes with CmdSetIndex and only updates this on IndexObserved.
	Index int

	// Offset is the visible horizontal offset, written by dragging or settling.
	Offset float64

	Settle     *SettleTask
	Generation uint64

	LastOutcome Outcome

	// ClockMs is the latest dispatcher time seen, used for untimed events.
	ClockMs int64
}

// NewState creates an idle carousel state.
func NewState(width float64, itemCount, index int) *State {
	return &State{
		Layout:    Layout{Width: width},
		ItemCount: itemCount,
		Index:     WrapIndex(index, itemCount),
	}
}

// resetGesture returns the gesture to {nil, {0,0}, false}.
func (s *State) resetGesture() {
	s.Gesture = GestureState{}
	s.Drag = DragState{}
}
