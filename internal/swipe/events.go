package swipe

import (
	"encoding/json"
	"fmt"
)

// Event is the input to the reducer.
type Event interface {
	eventMarker()
}

// PointerDown starts a gesture.
type PointerDown struct {
	Sample PointerSample `json:"sample"`
}

// PointerMove updates an active gesture.
type PointerMove struct {
	Sample PointerSample `json:"sample"`
}

// PointerUp ends a gesture at Sample.
type PointerUp struct {
	Sample PointerSample `json:"sample"`
}

// PointerCancel ends a gesture because the pointer was lost.
// The last seen sample stands in for the release point.
type PointerCancel struct{}

// FrameTick is delivered once per display refresh after a CmdRequestFrame.
// Ticks whose Generation does not match the active settle task are stale.
type FrameTick struct {
	Generation uint64
	NowMs      int64
}

// ScrollToIndex asks the carousel to animate to Index (wrapped).
type ScrollToIndex struct {
	Index int `json:"index"`
}

// LayoutChanged reports a new measured element geometry.
// Left is the element's page x, used to locate edge taps.
type LayoutChanged struct {
	Width float64 `json:"width"`
	Left  float64 `json:"left,omitempty"`
}

// ItemCountChanged reports the number of carousel items.
type ItemCountChanged struct {
	Count int `json:"count"`
}

// IndexObserved reports the index the external store currently holds.
type IndexObserved struct {
	Index int `json:"index"`
}

// TimedEvent stamps an event with the dispatcher's clock (ms).
// Settle tasks start at AtMs, so the frame clock and the task clock agree.
type TimedEvent struct {
	Event Event
	AtMs  int64
}

func (PointerDown) eventMarker()      {}
func (PointerMove) eventMarker()      {}
func (PointerUp) eventMarker()        {}
func (PointerCancel) eventMarker()    {}
func (FrameTick) eventMarker()        {}
func (ScrollToIndex) eventMarker()    {}
func (LayoutChanged) eventMarker()    {}
func (ItemCountChanged) eventMarker() {}
func (IndexObserved) eventMarker()    {}
func (TimedEvent) eventMarker()       {}

// ============================================================================
// JSON Encoding/Decoding Support
// ============================================================================
// Hosts talk to the carousel with {"type": ..., "data": {...}} envelopes.
// Pointer input is sent in its raw mouse/touch form and unified here.
// ============================================================================

// EventEnvelope wraps an event with a type discriminator for JSON marshaling.
type EventEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// UnmarshalEvent decodes a JSON envelope into an Event.
//
// Raw pointer envelopes ("mouse_down", "touch_move", ...) go through Normalize.
// A pointer envelope Normalize drops yields (nil, nil): it is not an error,
// the caller just has nothing to dispatch.
func UnmarshalEvent(data []byte) (Event, error) {
	var env EventEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}

	switch RawKind(env.Type) {
	case RawMouseDown, RawMouseMove, RawMouseUp, RawMouseLeave,
		RawTouchStart, RawTouchMove, RawTouchEnd, RawTouchCancel:
		var raw RawPointerEvent
		if len(env.Data) > 0 {
			if err := json.Unmarshal(env.Data, &raw); err != nil {
				return nil, fmt.Errorf("unmarshal %s: %w", env.Type, err)
			}
		}
		raw.Kind = RawKind(env.Type)
		ev, ok := Normalize(raw)
		if !ok {
			return nil, nil
		}
		return ev, nil
	}

	switch env.Type {
	case "scroll_to_index":
		var e ScrollToIndex
		if err := json.Unmarshal(env.Data, &e); err != nil {
			return nil, fmt.Errorf("unmarshal ScrollToIndex: %w", err)
		}
		return e, nil

	case "layout":
		var e LayoutChanged
		if err := json.Unmarshal(env.Data, &e); err != nil {
			return nil, fmt.Errorf("unmarshal LayoutChanged: %w", err)
		}
		return e, nil

	case "item_count":
		var e ItemCountChanged
		if err := json.Unmarshal(env.Data, &e); err != nil {
			return nil, fmt.Errorf("unmarshal ItemCountChanged: %w", err)
		}
		return e, nil

	case "index_observed":
		var e IndexObserved
		if err := json.Unmarshal(env.Data, &e); err != nil {
			return nil, fmt.Errorf("unmarshal IndexObserved: %w", err)
		}
		return e, nil

	default:
		return nil, fmt.Errorf("unknown event type: %q", env.Type)
	}
}

// MarshalEvent encodes the host-originated events into an envelope.
// Pointer events are encoded as mouse events since that is their lossless raw form.
func MarshalEvent(e Event) ([]byte, error) {
	var env EventEnvelope
	var payload any

	switch e := e.(type) {
	case PointerDown:
		env.Type = string(RawMouseDown)
		payload = rawMouse(e.Sample)
	case PointerMove:
		env.Type = string(RawMouseMove)
		payload = rawMouse(e.Sample)
	case PointerUp:
		env.Type = string(RawMouseUp)
		payload = rawMouse(e.Sample)
	case PointerCancel:
		env.Type = string(RawMouseLeave)
	case ScrollToIndex:
		env.Type = "scroll_to_index"
		payload = e
	case LayoutChanged:
		env.Type = "layout"
		payload = e
	case ItemCountChanged:
		env.Type = "item_count"
		payload = e
	case IndexObserved:
		env.Type = "index_observed"
		payload = e
	default:
		return nil, fmt.Errorf("unsupported event type: %T", e)
	}

	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", env.Type, err)
		}
		env.Data = data
	}
	return json.Marshal(env)
}

func rawMouse(s PointerSample) RawPointerEvent {
	return RawPointerEvent{PageX: s.X, PageY: s.Y, TimestampMs: s.TimestampMs}
}
