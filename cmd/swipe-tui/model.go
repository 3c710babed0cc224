package main

import (
	"io"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"swipeable/internal/carousel"
	"swipeable/internal/swipe"
)

// carouselID is the store key of the demo carousel.
const carouselID = "tui"

type frameMsg struct {
	generation uint64
	nowMs      int64
}

// swatchView records what the carousel last asked the screen to show.
type swatchView struct {
	offset        float64
	preventScroll bool
}

func (v *swatchView) ApplyOffset(x float64) error {
	v.offset = x
	return nil
}

func (v *swatchView) PreventScroll(enabled bool) error {
	v.preventScroll = enabled
	return nil
}

type model struct {
	state *swipe.State
	exec  *carousel.Executor
	store *carousel.Store
	view  *swatchView

	swatches []string
	cellPx   float64
	frame    time.Duration
	clock    func() int64

	width, height int

	// pressed is set between a left press and its release.
	pressed bool

	// wantFrame is the generation of the tick in flight, 0 when none.
	wantFrame uint64

	status string
}

type modelConfig struct {
	Tuning     swipe.Tuning
	Swatches   []string
	StartIndex int
	CellPx     float64
	FrameHz    int
	Clock      func() int64
	Logger     *slog.Logger
}

func newModel(cfg modelConfig) model {
	if cfg.CellPx <= 0 {
		cfg.CellPx = 1
	}
	if cfg.FrameHz <= 0 {
		cfg.FrameHz = carousel.DefaultFrameHz
	}
	if cfg.Clock == nil {
		cfg.Clock = func() int64 { return time.Now().UnixMilli() }
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	store := carousel.NewStore()
	store.Register(carouselID, len(cfg.Swatches), cfg.StartIndex)
	start, _ := store.Index(carouselID)
	view := &swatchView{}
	state := swipe.NewState(0, len(cfg.Swatches), start)

	return model{
		state: state,
		exec: &carousel.Executor{
			State:  state,
			Tuning: cfg.Tuning,
			Host:   store.Host(carouselID, view),
			Logger: cfg.Logger,
		},
		store:    store,
		view:     view,
		swatches: cfg.Swatches,
		cellPx:   cfg.CellPx,
		frame:    time.Second / time.Duration(cfg.FrameHz),
		clock:    cfg.Clock,
		status:   "drag or click the edges to swipe",
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m.dispatch(m.timed(swipe.LayoutChanged{Width: float64(msg.Width) * m.cellPx}))
	case tea.MouseMsg:
		return m.updateMouse(msg)
	case frameMsg:
		if msg.generation == m.wantFrame {
			m.wantFrame = 0
		}
		return m.dispatch(swipe.FrameTick{Generation: msg.generation, NowMs: msg.nowMs})
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "left", "h":
			return m.dispatch(m.timed(swipe.ScrollToIndex{Index: m.state.Index - 1}))
		case "right", "l":
			return m.dispatch(m.timed(swipe.ScrollToIndex{Index: m.state.Index + 1}))
		case "1", "2", "3", "4", "5", "6", "7", "8", "9":
			return m.dispatch(m.timed(swipe.ScrollToIndex{Index: int(msg.String()[0] - '1')}))
		}
	}
	return m, nil
}

// updateMouse turns left-button mouse events into raw pointer input.
// Cell coordinates are scaled by cellPx so thresholds keep their pixel meaning.
func (m model) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	var kind swipe.RawKind
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		m.pressed = true
		kind = swipe.RawMouseDown
	case tea.MouseActionMotion:
		if !m.pressed {
			return m, nil
		}
		kind = swipe.RawMouseMove
	case tea.MouseActionRelease:
		if !m.pressed {
			return m, nil
		}
		m.pressed = false
		kind = swipe.RawMouseUp
	default:
		return m, nil
	}

	ev, ok := swipe.Normalize(swipe.RawPointerEvent{
		Kind:        kind,
		PageX:       float64(msg.X) * m.cellPx,
		PageY:       float64(msg.Y) * m.cellPx,
		TimestampMs: m.clock(),
	})
	if !ok {
		return m, nil
	}
	return m.dispatch(ev)
}

// dispatch reduces ev and everything it feeds back, then schedules at most one
// frame tick for the newest requested generation.
func (m model) dispatch(ev swipe.Event) (model, tea.Cmd) {
	var frame uint64
	m.exec.OnFrame = func(generation uint64) { frame = generation }
	m.exec.Dispatch(ev)
	m.state = m.exec.State

	if o := m.state.LastOutcome; o.Reason != "" && m.state.Phase != swipe.PhaseDragging {
		m.status = outcomeText(o)
	}

	if frame == 0 || frame == m.wantFrame {
		return m, nil
	}
	m.wantFrame = frame
	return m, m.tick(frame)
}

// timed stamps an event that carries no time of its own.
func (m model) timed(ev swipe.Event) swipe.Event {
	return swipe.TimedEvent{Event: ev, AtMs: m.clock()}
}

func (m model) tick(generation uint64) tea.Cmd {
	return tea.Tick(m.frame, func(t time.Time) tea.Msg {
		return frameMsg{generation: generation, nowMs: t.UnixMilli()}
	})
}

func outcomeText(o swipe.Outcome) string {
	switch o.Step {
	case 1:
		return "advanced by " + o.Reason
	case -1:
		return "retreated by " + o.Reason
	default:
		return "stayed (" + o.Reason + ")"
	}
}
