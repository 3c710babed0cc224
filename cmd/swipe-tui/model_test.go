package main

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"swipeable/internal/swipe"
)

type fakeClock struct{ now int64 }

func (c *fakeClock) Now() int64 { return c.now }

func newTestModel(t *testing.T, clock *fakeClock) model {
	t.Helper()
	m := newModel(modelConfig{
		Tuning:   swipe.DefaultTuning(),
		Swatches: []string{"#F25D94", "#EDFF82", "#5FD7FF", "#A8E6CF", "#B58AFF"},
		CellPx:   1,
		Clock:    clock.Now,
	})
	return update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
}

func update(t *testing.T, m model, msg tea.Msg) model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return out
}

func mouse(x int, action tea.MouseAction, button tea.MouseButton) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: 10, Action: action, Button: button}
}

// settle delivers 16ms frame ticks until the model stops asking for them.
func settle(t *testing.T, m model, clock *fakeClock) model {
	t.Helper()
	for i := 0; m.wantFrame != 0; i++ {
		if i > 1000 {
			t.Fatal("settle never finished")
		}
		clock.now += 16
		m = update(t, m, frameMsg{generation: m.wantFrame, nowMs: clock.now})
	}
	return m
}

func TestModel_EdgeClickAdvances(t *testing.T) {
	clock := &fakeClock{now: 1000}
	m := newTestModel(t, clock)

	m = update(t, m, mouse(78, tea.MouseActionPress, tea.MouseButtonLeft))
	clock.now += 40
	m = update(t, m, mouse(78, tea.MouseActionRelease, tea.MouseButtonNone))

	if m.wantFrame == 0 {
		t.Fatal("expected a frame request after the tap")
	}
	if m.state.Phase != swipe.PhaseCommitting {
		t.Fatalf("expected committing, got %s", m.state.Phase)
	}

	m = settle(t, m, clock)

	if m.state.Index != 1 || m.state.Phase != swipe.PhaseIdle {
		t.Fatalf("expected idle at index 1, got %s at %d", m.state.Phase, m.state.Index)
	}
	if idx, _ := m.store.Index(carouselID); idx != 1 {
		t.Fatalf("expected store index 1, got %d", idx)
	}
	if m.view.offset != 0 {
		t.Fatalf("expected offset rebased to 0, got %v", m.view.offset)
	}
	if m.status != "advanced by tap_edge" {
		t.Fatalf("unexpected status %q", m.status)
	}
}

func TestModel_DragMovesStripAndLocksScroll(t *testing.T) {
	clock := &fakeClock{now: 0}
	m := newTestModel(t, clock)

	m = update(t, m, mouse(40, tea.MouseActionPress, tea.MouseButtonLeft))
	clock.now += 16
	m = update(t, m, mouse(20, tea.MouseActionMotion, tea.MouseButtonLeft))

	if m.view.offset != -20 {
		t.Fatalf("expected offset -20, got %v", m.view.offset)
	}
	if !m.view.preventScroll {
		t.Fatal("expected a horizontal drag to lock scrolling")
	}
	if !strings.Contains(m.View(), "scroll locked") {
		t.Fatal("expected the status line to show the scroll lock")
	}

	// Hold still past the idle window, then release short of the threshold.
	clock.now += 500
	m = update(t, m, mouse(20, tea.MouseActionRelease, tea.MouseButtonNone))
	m = settle(t, m, clock)

	if m.state.Index != 0 || m.view.offset != 0 || m.view.preventScroll {
		t.Fatalf("expected snap back to 0, got index %d offset %v lock %v",
			m.state.Index, m.view.offset, m.view.preventScroll)
	}
}

func TestModel_IgnoresOtherButtonsAndHover(t *testing.T) {
	clock := &fakeClock{}
	m := newTestModel(t, clock)

	m = update(t, m, mouse(78, tea.MouseActionPress, tea.MouseButtonRight))
	m = update(t, m, mouse(70, tea.MouseActionMotion, tea.MouseButtonNone))
	m = update(t, m, mouse(78, tea.MouseActionRelease, tea.MouseButtonNone))

	if m.pressed || m.state.Phase != swipe.PhaseIdle || m.wantFrame != 0 {
		t.Fatalf("expected no gesture, got pressed=%v phase=%s frame=%d", m.pressed, m.state.Phase, m.wantFrame)
	}
}

func TestModel_KeysScrollTheShortWay(t *testing.T) {
	clock := &fakeClock{now: 5000}
	m := newTestModel(t, clock)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	m = settle(t, m, clock)
	if m.state.Index != 4 {
		t.Fatalf("expected left from 0 to wrap to 4, got %d", m.state.Index)
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("3")})
	m = settle(t, m, clock)
	if m.state.Index != 2 {
		t.Fatalf("expected jump to index 2, got %d", m.state.Index)
	}
	if !strings.Contains(m.View(), "item 3/5") {
		t.Fatalf("expected status to show item 3/5, got %q", m.View())
	}
}

func TestModel_StaleFrameIsIgnored(t *testing.T) {
	clock := &fakeClock{now: 100}
	m := newTestModel(t, clock)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyRight})
	first := m.wantFrame
	// A second scroll supersedes the first settle.
	m = update(t, m, tea.KeyMsg{Type: tea.KeyRight})
	if m.wantFrame == first {
		t.Fatal("expected a new generation for the superseding scroll")
	}

	before := m.view.offset
	clock.now += 16
	m = update(t, m, frameMsg{generation: first, nowMs: clock.now})
	if m.view.offset != before {
		t.Fatalf("stale frame moved the strip from %v to %v", before, m.view.offset)
	}

	m = settle(t, m, clock)
	if m.state.Index != 1 {
		t.Fatalf("expected index 1, got %d", m.state.Index)
	}
}

func TestView_LabelsVisibleItems(t *testing.T) {
	clock := &fakeClock{}
	m := newTestModel(t, clock)

	out := m.View()
	if !strings.Contains(out, " 1 ") {
		t.Fatalf("expected the current item label, got %q", out)
	}
	if lines := strings.Count(out, "\n"); lines != 23 {
		t.Fatalf("expected 23 line breaks for a 24 row terminal, got %d", lines)
	}
}
