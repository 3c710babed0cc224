package swipe

// ============================================================================
// Pointer Unification
// ============================================================================
// Mouse and touch input arrive as RawPointerEvents. Normalize collapses both
// into PointerDown / PointerMove / PointerUp / PointerCancel events carrying a
// single PointerSample, so the recognizer never sees where input came from.
// ============================================================================

// PointerSample is one pointer position in page coordinates.
type PointerSample struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	TimestampMs int64   `json:"t"`
}

// Sub returns the displacement from o to p.
func (p PointerSample) Sub(o PointerSample) Vec2 {
	return Vec2{X: p.X - o.X, Y: p.Y - o.Y}
}

// Vec2 is a 2D offset in pixels.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// RawKind identifies a platform pointer event.
type RawKind string

const (
	RawMouseDown   RawKind = "mouse_down"
	RawMouseMove   RawKind = "mouse_move"
	RawMouseUp     RawKind = "mouse_up"
	RawMouseLeave  RawKind = "mouse_leave"
	RawTouchStart  RawKind = "touch_start"
	RawTouchMove   RawKind = "touch_move"
	RawTouchEnd    RawKind = "touch_end"
	RawTouchCancel RawKind = "touch_cancel"
)

// Touch is one entry of a touch event's changed-touches list.
type Touch struct {
	PageX float64 `json:"page_x"`
	PageY float64 `json:"page_y"`
}

// RawPointerEvent is a mouse or touch event as the host delivers it.
// Mouse events use PageX/PageY; touch events use ChangedTouches.
type RawPointerEvent struct {
	Kind           RawKind `json:"kind,omitempty"`
	PageX          float64 `json:"page_x,omitempty"`
	PageY          float64 `json:"page_y,omitempty"`
	ChangedTouches []Touch `json:"changed_touches,omitempty"`
	TimestampMs    int64   `json:"t"`
}

// IsTouch reports whether the event came from a touch surface.
func (r RawPointerEvent) IsTouch() bool {
	switch r.Kind {
	case RawTouchStart, RawTouchMove, RawTouchEnd, RawTouchCancel:
		return true
	default:
		return false
	}
}

// Normalize converts a raw event into a pointer Event.
// ok is false when the event carries no usable point (a touch event without a
// changed touch) or has an unknown kind; such events are dropped.
func Normalize(r RawPointerEvent) (ev Event, ok bool) {
	// Cancellation carries no position; it only ends the gesture.
	if r.Kind == RawTouchCancel || r.Kind == RawMouseLeave {
		return PointerCancel{}, true
	}

	var sample PointerSample
	if r.IsTouch() {
		if len(r.ChangedTouches) == 0 {
			return nil, false
		}
		t := r.ChangedTouches[0]
		sample = PointerSample{X: t.PageX, Y: t.PageY, TimestampMs: r.TimestampMs}
	} else {
		sample = PointerSample{X: r.PageX, Y: r.PageY, TimestampMs: r.TimestampMs}
	}

	switch r.Kind {
	case RawMouseDown, RawTouchStart:
		return PointerDown{Sample: sample}, true
	case RawMouseMove, RawTouchMove:
		return PointerMove{Sample: sample}, true
	case RawMouseUp, RawTouchEnd:
		return PointerUp{Sample: sample}, true
	default:
		return nil, false
	}
}
