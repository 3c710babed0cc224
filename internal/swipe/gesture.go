package swipe

import "math"

// beginDrag handles pointer-down. Any settle in flight is superseded: bumping
// the generation makes its pending frame stale, so it can never commit.
// Offset keeps the last settled frame, which is what the host still shows.
func (s *State) beginDrag(sample PointerSample) []Command {
	if s.Phase == PhaseDragging {
		// A second pointer while one is already down is ignored.
		return nil
	}

	if s.Settle != nil {
		s.Generation++
		s.Settle = nil
	}

	origin := sample
	s.Phase = PhaseDragging
	s.Gesture = GestureState{Origin: &origin, Active: true}
	s.Drag = DragState{StartIndex: s.Index, Last: sample}
	return nil
}

// drag handles pointer-move. The offset tracks the pointer exactly.
func (s *State) drag(sample PointerSample, t Tuning) []Command {
	if s.Phase != PhaseDragging || s.Gesture.Origin == nil {
		return nil
	}

	var cmds []Command
	delta := sample.Sub(*s.Gesture.Origin)
	s.Gesture.Offset = delta
	s.Offset = delta.X
	s.pushSample(sample)

	if !s.Drag.Moved && (math.Abs(delta.X) > t.TapDeadZonePx || math.Abs(delta.Y) > t.TapDeadZonePx) {
		s.Drag.Moved = true
	}

	// The axis is decided once, on the first move out of the dead zone.
	if s.Drag.Moved && !s.Drag.AxisLocked {
		s.Drag.AxisLocked = true
		if math.Abs(delta.X) > math.Abs(delta.Y) {
			s.Drag.PreventScroll = true
			cmds = append(cmds, CmdPreventScroll{Enabled: true})
		}
	}

	return append(cmds, CmdApplyOffset{X: s.Offset})
}

// pushSample keeps the last two distinct samples. A sample at the same
// position as the last one is skipped so a release on the spot keeps the
// velocity of the movement before it.
func (s *State) pushSample(sample PointerSample) {
	last := s.Drag.Last
	if sample.X == last.X && sample.Y == last.Y {
		return
	}
	s.Drag.Prev = last
	s.Drag.Last = sample
	s.Drag.HasPrev = true
}

// endDrag handles pointer-up (release at sample) and pointer loss (release=nil).
func (s *State) endDrag(release *PointerSample, at int64, t Tuning) []Command {
	if s.Phase != PhaseDragging || s.Gesture.Origin == nil {
		return nil
	}

	var cmds []Command
	velocity := 0.0
	if release != nil {
		delta := release.Sub(*s.Gesture.Origin)
		s.Gesture.Offset = delta
		if math.Abs(delta.X) > t.TapDeadZonePx || math.Abs(delta.Y) > t.TapDeadZonePx {
			s.Drag.Moved = true
		}
		// Without movement the host still shows whatever it held at pointer-down,
		// which may be a superseded settle frame.
		if s.Drag.Moved {
			s.Offset = delta.X
		}
		idle := release.TimestampMs - s.Drag.Last.TimestampMs
		s.pushSample(*release)
		if idle <= t.ReleaseIdleMs {
			velocity = s.Drag.velocity()
		}
	} else if at-s.Drag.Last.TimestampMs <= t.ReleaseIdleMs {
		velocity = s.Drag.velocity()
	}

	var outcome Outcome
	if release == nil && !s.Drag.Moved {
		// A lost pointer is never a tap.
		outcome = Outcome{Step: 0, Reason: "cancel"}
	} else {
		outcome = s.classify(velocity, t)
	}
	s.LastOutcome = outcome

	if s.Drag.PreventScroll {
		cmds = append(cmds, CmdPreventScroll{Enabled: false})
	}
	s.resetGesture()

	if outcome.Step == 0 && s.Offset == 0 {
		s.Phase = PhaseIdle
		return cmds
	}

	target := -float64(outcome.Step) * s.Layout.Width
	next := WrapIndex(s.Index+outcome.Step, s.ItemCount)
	return append(cmds, s.startSettle(target, velocity, next, outcome.Step != 0, at, t)...)
}

// classify applies the release policy. Precedence: degenerate layout, tap,
// velocity override, distance threshold, cancel.
func (s *State) classify(velocity float64, t Tuning) Outcome {
	width := s.Layout.Width
	if width <= 0 {
		return Outcome{Step: 0, Reason: "zero_width"}
	}
	if s.ItemCount < 2 {
		return Outcome{Step: 0, Reason: "single_item"}
	}

	if !s.Drag.Moved {
		edge := t.tapEdgeFraction()
		x := s.Drag.Last.X - s.Layout.Left
		switch {
		case edge > 0 && x > (1-edge)*width:
			return Outcome{Step: 1, Reason: "tap_edge"}
		case edge > 0 && x < edge*width:
			return Outcome{Step: -1, Reason: "tap_edge"}
		default:
			return Outcome{Step: 0, Reason: "tap"}
		}
	}

	// Swiping left (negative offset) brings the next item in.
	if math.Abs(velocity) > t.FlingVelocity && s.Index == s.Drag.StartIndex {
		return Outcome{Step: -sign(velocity), Reason: "fling"}
	}

	dx := s.Gesture.Offset.X
	if math.Abs(dx) > t.distanceFraction()*width {
		return Outcome{Step: -sign(dx), Reason: "distance"}
	}

	return Outcome{Step: 0, Reason: "cancel"}
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
