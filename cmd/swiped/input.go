package main

import (
	"swipeable/internal/swipe"
)

// inputEvent represents a Linux input event structure
// struct input_event { struct timeval time; __u16 type; __u16 code; __s32 value; };
type inputEvent struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

// Linux input event types and codes (linux/input-event-codes.h)
const (
	evSyn = 0x00
	evKey = 0x01
	evRel = 0x02
	evAbs = 0x03

	synReport  = 0x00
	synDropped = 0x03

	btnLeft  = 0x110
	btnTouch = 0x14a

	relX = 0x00
	relY = 0x01

	absX          = 0x00
	absY          = 0x01
	absMTSlot     = 0x2f
	absMTPosX     = 0x35
	absMTPosY     = 0x36
	absMTTracking = 0x39
)

// deviceEvent is an evdev event tagged with the index of the device it came from.
type deviceEvent struct {
	device int
	ev     inputEvent
}

// deviceDecoders keeps one pointerDecoder per device, so a touchscreen's
// absolute position and a mouse's relative motion never mix.
type deviceDecoders struct {
	scale    float64
	decoders map[int]*pointerDecoder
}

func newDeviceDecoders(scale float64) *deviceDecoders {
	return &deviceDecoders{scale: scale, decoders: make(map[int]*pointerDecoder)}
}

func (dd *deviceDecoders) feed(de deviceEvent) (swipe.RawPointerEvent, bool) {
	d, ok := dd.decoders[de.device]
	if !ok {
		d = newPointerDecoder(dd.scale)
		dd.decoders[de.device] = d
	}
	return d.feed(de.ev)
}

// pointerDecoder turns a stream of evdev events from a touchscreen,
// touchpad or mouse into raw pointer events, one per SYN_REPORT frame.
// Only the first touch slot is followed.
type pointerDecoder struct {
	scale float64

	x, y float64

	down    bool
	wasDown bool
	touch   bool
	moved   bool
	slot    int32

	// dropping is set after SYN_DROPPED until the next SYN_REPORT.
	dropping bool
}

func newPointerDecoder(scale float64) *pointerDecoder {
	if scale <= 0 {
		scale = 1
	}
	return &pointerDecoder{scale: scale}
}

// feed consumes one event. ok is true when a complete frame produced a pointer event.
func (d *pointerDecoder) feed(ev inputEvent) (raw swipe.RawPointerEvent, ok bool) {
	switch ev.Type {
	case evSyn:
		switch ev.Code {
		case synDropped:
			d.dropping = true
			return raw, false
		case synReport:
			if d.dropping {
				d.dropping = false
				// The frame is incomplete; end any gesture rather than guess.
				if d.wasDown {
					d.down, d.wasDown, d.moved = false, false, false
					return swipe.RawPointerEvent{Kind: d.kind(swipe.RawTouchCancel, swipe.RawMouseLeave)}, true
				}
				return raw, false
			}
			return d.frame(timestampMs(ev))
		}

	case evKey:
		switch ev.Code {
		case btnTouch:
			d.touch = true
			d.down = ev.Value != 0
		case btnLeft:
			d.touch = false
			d.down = ev.Value != 0
		}

	case evRel:
		switch ev.Code {
		case relX:
			d.x += float64(ev.Value) * d.scale
			d.moved = true
		case relY:
			d.y += float64(ev.Value) * d.scale
			d.moved = true
		}

	case evAbs:
		switch ev.Code {
		case absMTSlot:
			d.slot = ev.Value
		case absX, absMTPosX:
			if ev.Code == absMTPosX && d.slot != 0 {
				return raw, false
			}
			d.x = float64(ev.Value) * d.scale
			d.moved = true
		case absY, absMTPosY:
			if ev.Code == absMTPosY && d.slot != 0 {
				return raw, false
			}
			d.y = float64(ev.Value) * d.scale
			d.moved = true
		case absMTTracking:
			// Tracking id -1 lifts the first slot on devices without BTN_TOUCH.
			if d.slot == 0 {
				d.touch = true
				d.down = ev.Value >= 0
			}
		}
	}
	return raw, false
}

func (d *pointerDecoder) frame(ts int64) (swipe.RawPointerEvent, bool) {
	moved := d.moved
	d.moved = false

	var kind swipe.RawKind
	switch {
	case d.down && !d.wasDown:
		kind = d.kind(swipe.RawTouchStart, swipe.RawMouseDown)
	case !d.down && d.wasDown:
		kind = d.kind(swipe.RawTouchEnd, swipe.RawMouseUp)
	case d.down && moved:
		kind = d.kind(swipe.RawTouchMove, swipe.RawMouseMove)
	default:
		return swipe.RawPointerEvent{}, false
	}
	d.wasDown = d.down

	raw := swipe.RawPointerEvent{Kind: kind, TimestampMs: ts}
	if d.touch {
		raw.ChangedTouches = []swipe.Touch{{PageX: d.x, PageY: d.y}}
	} else {
		raw.PageX, raw.PageY = d.x, d.y
	}
	return raw, true
}

func (d *pointerDecoder) kind(touch, mouse swipe.RawKind) swipe.RawKind {
	if d.touch {
		return touch
	}
	return mouse
}

func timestampMs(ev inputEvent) int64 {
	return ev.Sec*1000 + ev.Usec/1000
}
