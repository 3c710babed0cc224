package main

import (
	"testing"

	"swipeable/internal/swipe"
)

func ev(ms int64, typ, code uint16, value int32) inputEvent {
	return inputEvent{Sec: ms / 1000, Usec: (ms % 1000) * 1000, Type: typ, Code: code, Value: value}
}

func feedAll(d *pointerDecoder, evs ...inputEvent) []swipe.RawPointerEvent {
	var out []swipe.RawPointerEvent
	for _, e := range evs {
		if raw, ok := d.feed(e); ok {
			out = append(out, raw)
		}
	}
	return out
}

func TestPointerDecoder_TouchscreenGesture(t *testing.T) {
	d := newPointerDecoder(1)

	got := feedAll(d,
		ev(1000, evAbs, absMTTracking, 7),
		ev(1000, evAbs, absMTPosX, 200),
		ev(1000, evAbs, absMTPosY, 50),
		ev(1000, evKey, btnTouch, 1),
		ev(1000, evSyn, synReport, 0),

		ev(1016, evAbs, absMTPosX, 180),
		ev(1016, evSyn, synReport, 0),

		// Second finger in slot 1 is ignored.
		ev(1020, evAbs, absMTSlot, 1),
		ev(1020, evAbs, absMTPosX, 900),
		ev(1020, evAbs, absMTSlot, 0),
		ev(1020, evSyn, synReport, 0),

		ev(1032, evAbs, absMTTracking, -1),
		ev(1032, evKey, btnTouch, 0),
		ev(1032, evSyn, synReport, 0),
	)

	if len(got) != 3 {
		t.Fatalf("expected start/move/end, got %d events: %+v", len(got), got)
	}
	wantKinds := []swipe.RawKind{swipe.RawTouchStart, swipe.RawTouchMove, swipe.RawTouchEnd}
	wantX := []float64{200, 180, 180}
	for i, raw := range got {
		if raw.Kind != wantKinds[i] {
			t.Errorf("event %d kind %q, want %q", i, raw.Kind, wantKinds[i])
		}
		if len(raw.ChangedTouches) != 1 || raw.ChangedTouches[0].PageX != wantX[i] {
			t.Errorf("event %d touches %+v, want x=%v", i, raw.ChangedTouches, wantX[i])
		}
	}
	if got[1].TimestampMs != 1016 {
		t.Errorf("expected move at 1016ms, got %d", got[1].TimestampMs)
	}

	// The raw events unify like any other touch input.
	if pev, ok := swipe.Normalize(got[2]); !ok || pev != (swipe.PointerUp{Sample: swipe.PointerSample{X: 180, Y: 50, TimestampMs: 1032}}) {
		t.Errorf("unexpected normalized release: %+v (ok=%v)", pev, ok)
	}
}

func TestPointerDecoder_RelativeMouse(t *testing.T) {
	d := newPointerDecoder(2)

	got := feedAll(d,
		ev(10, evKey, btnLeft, 1),
		ev(10, evSyn, synReport, 0),
		ev(20, evRel, relX, -5),
		ev(20, evRel, relY, 1),
		ev(20, evSyn, synReport, 0),
		ev(30, evKey, btnLeft, 0),
		ev(30, evSyn, synReport, 0),
		// Hover without a button pressed produces nothing.
		ev(40, evRel, relX, 3),
		ev(40, evSyn, synReport, 0),
	)

	if len(got) != 3 {
		t.Fatalf("expected down/move/up, got %+v", got)
	}
	if got[0].Kind != swipe.RawMouseDown || got[1].Kind != swipe.RawMouseMove || got[2].Kind != swipe.RawMouseUp {
		t.Fatalf("unexpected kinds: %q %q %q", got[0].Kind, got[1].Kind, got[2].Kind)
	}
	if got[1].PageX != -10 || got[1].PageY != 2 {
		t.Fatalf("expected scaled move to (-10,2), got (%v,%v)", got[1].PageX, got[1].PageY)
	}
}

func TestPointerDecoder_DroppedFrameCancelsGesture(t *testing.T) {
	d := newPointerDecoder(1)

	got := feedAll(d,
		ev(0, evAbs, absX, 10),
		ev(0, evKey, btnTouch, 1),
		ev(0, evSyn, synReport, 0),
		ev(5, evSyn, synDropped, 0),
		ev(6, evAbs, absX, 40),
		ev(6, evSyn, synReport, 0),
	)

	if len(got) != 2 || got[1].Kind != swipe.RawTouchCancel {
		t.Fatalf("expected start then cancel, got %+v", got)
	}
}

func TestDeviceDecoders_KeepPositionsApart(t *testing.T) {
	dd := newDeviceDecoders(1)
	touch := func(e inputEvent) deviceEvent { return deviceEvent{device: 0, ev: e} }
	mouse := func(e inputEvent) deviceEvent { return deviceEvent{device: 1, ev: e} }

	var got []swipe.RawPointerEvent
	for _, de := range []deviceEvent{
		touch(ev(0, evAbs, absX, 500)),
		touch(ev(0, evAbs, absY, 40)),
		touch(ev(0, evKey, btnTouch, 1)),
		touch(ev(0, evSyn, synReport, 0)),

		mouse(ev(10, evKey, btnLeft, 1)),
		mouse(ev(10, evSyn, synReport, 0)),
		mouse(ev(20, evRel, relX, -5)),
		mouse(ev(20, evSyn, synReport, 0)),
	} {
		if raw, ok := dd.feed(de); ok {
			got = append(got, raw)
		}
	}

	if len(got) != 3 {
		t.Fatalf("expected touch start, mouse down, mouse move; got %+v", got)
	}
	if got[0].Kind != swipe.RawTouchStart || got[0].ChangedTouches[0].PageX != 500 {
		t.Fatalf("unexpected touch start %+v", got[0])
	}
	if got[2].Kind != swipe.RawMouseMove || got[2].PageX != -5 || got[2].PageY != 0 {
		t.Fatalf("mouse motion leaked the touch position: %+v", got[2])
	}
}
