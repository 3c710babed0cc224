package carousel

import (
	"context"
	"io"
	"log/slog"
	"time"

	"swipeable/internal/swipe"
)

// ============================================================================
// Carousel Dispatcher Loop
// ============================================================================
//
// Design rules enforced here:
//   - The reducer performs no I/O and computes: next state + commands.
//   - The loop is the only place that executes side effects (Host calls).
//   - Host responses are turned into Events and fed back into the reducer.
//   - Frames are delivered only while the reducer keeps requesting them, each
//     tick carrying the generation it was requested for.
//
// ============================================================================

// DefaultFrameHz is the frame rate used when Options.FrameHz is unset.
const DefaultFrameHz = 60

// Options configures a carousel loop.
type Options struct {
	Tuning swipe.Tuning

	// FrameHz is the settle animation frame rate.
	FrameHz int

	// Clock returns the dispatcher time in milliseconds. Defaults to wall time.
	Clock func() int64

	Logger *slog.Logger

	// Observe, if set, receives a Snapshot after every reduced batch.
	Observe func(Snapshot)
}

func (o Options) withDefaults() Options {
	if o.FrameHz <= 0 {
		o.FrameHz = DefaultFrameHz
	}
	if o.Clock == nil {
		o.Clock = func() int64 { return time.Now().UnixMilli() }
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o
}

// Snapshot is a read-only copy of the carousel state for other goroutines.
type Snapshot struct {
	Phase       string  `json:"phase"`
	Index       int     `json:"index"`
	ItemCount   int     `json:"item_count"`
	Offset      float64 `json:"offset"`
	Width       float64 `json:"width"`
	LastOutcome string  `json:"last_outcome,omitempty"`
}

func snapshotOf(s *swipe.State) Snapshot {
	return Snapshot{
		Phase:       s.Phase.String(),
		Index:       s.Index,
		ItemCount:   s.ItemCount,
		Offset:      s.Offset,
		Width:       s.Layout.Width,
		LastOutcome: s.LastOutcome.Reason,
	}
}

// Run is the carousel dispatcher. It:
//   - Receives Events from the host
//   - Emits FrameTick events while a settle is animating
//   - Reduces events into (state, commands)
//   - Executes commands on the host and feeds observations back into the reducer
//
// Shutdown semantics:
//   - Exits when ctx is canceled
//   - Exits cleanly when the events channel is closed
func Run(
	ctx context.Context,
	events <-chan swipe.Event,
	state *swipe.State,
	host Host,
	opts Options,
) {
	opts = opts.withDefaults()
	logger := opts.Logger

	if state == nil {
		logger.Error("carousel state is nil")
		return
	}

	frameInterval := time.Second / time.Duration(opts.FrameHz)

	// The ticker only exists while a frame is pending, so an idle carousel
	// costs nothing.
	var ticker *time.Ticker
	var tickC <-chan time.Time
	stopTicker := func() {
		if ticker != nil {
			ticker.Stop()
			ticker = nil
			tickC = nil
		}
	}
	defer stopTicker()

	var (
		frameWanted bool
		frameGen    uint64
	)
	requestFrame := func(gen uint64) {
		frameWanted = true
		frameGen = gen
		if ticker == nil {
			ticker = time.NewTicker(frameInterval)
			tickC = ticker.C
		}
	}

	exec := &Executor{
		State:   state,
		Tuning:  opts.Tuning,
		Host:    host,
		Logger:  logger,
		OnFrame: requestFrame,
	}

	publish := func() {
		if opts.Observe != nil {
			opts.Observe(snapshotOf(exec.State))
		}
	}

	publish()

	for {
		select {
		case <-ctx.Done():
			logger.Debug("carousel stopping (context canceled)")
			return

		case ev, ok := <-events:
			if !ok {
				logger.Debug("carousel stopping (events channel closed)")
				return
			}
			if ev == nil {
				continue
			}
			exec.Dispatch(swipe.TimedEvent{Event: ev, AtMs: opts.Clock()})
			publish()

		case <-tickC:
			if !frameWanted {
				stopTicker()
				continue
			}
			frameWanted = false
			exec.Dispatch(swipe.FrameTick{Generation: frameGen, NowMs: opts.Clock()})
			publish()
		}
	}
}
