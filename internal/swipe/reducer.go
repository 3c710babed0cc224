package swipe

// This file implements the carousel reducer:
//
//   - Events: pointer input, frame ticks, layout/store observations, scroll requests
//   - Commands: offsets, index proposals, scroll suppression, frame requests
//   - Reduce(): computes next state + commands without touching the host
//
// The hosting loop executes Commands and feeds observations (IndexObserved,
// FrameTick) back as Events.

// ReduceResult is the output of Reduce: next state plus Commands to execute in order.
type ReduceResult struct {
	State    *State
	Commands []Command
}

// Reduce is the carousel's only entry point.
//
// Rules:
// - Must not perform I/O
// - Must not block
// - Mutates and returns s; no other state is touched
func Reduce(s *State, e Event, t Tuning) ReduceResult {
	if s == nil {
		s = &State{}
	}
	t = t.withDefaults()

	at := s.ClockMs
	if te, ok := e.(TimedEvent); ok {
		e = te.Event
		at = te.AtMs
	} else if ts, ok := sampleTime(e); ok {
		at = ts
	}
	if at > s.ClockMs {
		s.ClockMs = at
	}

	var cmds []Command

	switch ev := e.(type) {
	case PointerDown:
		cmds = s.beginDrag(ev.Sample)

	case PointerMove:
		cmds = s.drag(ev.Sample, t)

	case PointerUp:
		release := ev.Sample
		cmds = s.endDrag(&release, at, t)

	case PointerCancel:
		cmds = s.endDrag(nil, at, t)

	case FrameTick:
		if ev.NowMs > s.ClockMs {
			s.ClockMs = ev.NowMs
		}
		cmds = s.advanceSettle(ev)

	case ScrollToIndex:
		cmds = s.scrollTo(ev.Index, at, t)

	case LayoutChanged:
		s.Layout = Layout{Width: ev.Width, Left: ev.Left}

	case ItemCountChanged:
		if ev.Count >= 0 {
			s.ItemCount = ev.Count
			s.Index = WrapIndex(s.Index, s.ItemCount)
		}

	case IndexObserved:
		s.Index = WrapIndex(ev.Index, s.ItemCount)

	default:
		// Unknown event type: no-op.
	}

	return ReduceResult{State: s, Commands: cmds}
}

func sampleTime(e Event) (int64, bool) {
	switch ev := e.(type) {
	case PointerDown:
		return ev.Sample.TimestampMs, true
	case PointerMove:
		return ev.Sample.TimestampMs, true
	case PointerUp:
		return ev.Sample.TimestampMs, true
	default:
		return 0, false
	}
}

// startSettle replaces any active task with a new one from the current offset.
func (s *State) startSettle(target, velocity float64, commitIndex int, commit bool, at int64, t Tuning) []Command {
	s.Generation++
	s.Settle = &SettleTask{
		InitialOffset:   s.Offset,
		InitialVelocity: velocity,
		StartMs:         at,
		TargetOffset:    target,
		Generation:      s.Generation,
		Commit:          commit,
		CommitIndex:     commitIndex,
		Model:           NewSettleModel(s.Offset, target, velocity, t),
	}
	if commit {
		s.Phase = PhaseCommitting
	} else {
		s.Phase = PhaseCancelling
	}

	if s.Settle.Model.Duration() <= 0 {
		return s.finishSettle()
	}
	return []Command{CmdRequestFrame{Generation: s.Generation}}
}

// advanceSettle evaluates the active task at the tick's time.
func (s *State) advanceSettle(tick FrameTick) []Command {
	task := s.Settle
	if task == nil || tick.Generation != task.Generation {
		return nil
	}

	elapsed := float64(tick.NowMs - task.StartMs)
	if elapsed >= task.Model.Duration() {
		return s.finishSettle()
	}

	s.Offset = task.Model.Position(elapsed)
	return []Command{
		CmdApplyOffset{X: s.Offset},
		CmdRequestFrame{Generation: task.Generation},
	}
}

// finishSettle snaps to the target and commits at most once: the task is
// cleared before returning, so a repeated tick finds nothing to finish.
func (s *State) finishSettle() []Command {
	task := s.Settle
	if task == nil {
		return nil
	}
	s.Settle = nil
	s.Phase = PhaseIdle

	cmds := []Command{CmdApplyOffset{X: task.TargetOffset}}
	if task.Commit {
		cmds = append(cmds, CmdSetIndex{Index: task.CommitIndex})
	}

	// The committed item now sits at rest, so the offset rebases to zero.
	s.Offset = 0
	if task.TargetOffset != 0 {
		cmds = append(cmds, CmdApplyOffset{X: 0})
	}
	return cmds
}

// scrollTo handles a programmatic request. It supersedes an active settle and
// aborts a drag in progress.
func (s *State) scrollTo(index int, at int64, t Tuning) []Command {
	if s.ItemCount <= 0 {
		return nil
	}

	var cmds []Command
	if s.Phase == PhaseDragging {
		if s.Drag.PreventScroll {
			cmds = append(cmds, CmdPreventScroll{Enabled: false})
		}
		s.resetGesture()
	}
	if s.Settle != nil {
		s.Generation++
		s.Settle = nil
	}

	target := WrapIndex(index, s.ItemCount)
	steps := shortestSteps(s.Index, target, s.ItemCount)
	if steps == 0 && s.Offset == 0 {
		s.Phase = PhaseIdle
		return cmds
	}

	targetOffset := -float64(steps) * s.Layout.Width
	return append(cmds, s.startSettle(targetOffset, 0, target, steps != 0, at, t)...)
}
