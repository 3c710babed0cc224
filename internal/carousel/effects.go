package carousel

import (
	"io"
	"log/slog"

	"swipeable/internal/swipe"
)

// Executor reduces events and executes the commands they produce against a
// host, in order. Observations the host reports are reduced before the next
// command runs. It is not safe for concurrent use.
type Executor struct {
	State  *swipe.State
	Tuning swipe.Tuning
	Host   Host
	Logger *slog.Logger

	// OnFrame receives every frame request. Only the newest generation is live.
	OnFrame func(generation uint64)

	events []swipe.Event
	cmds   []swipe.Command
}

// Dispatch reduces ev and everything it feeds back.
func (x *Executor) Dispatch(ev swipe.Event) {
	if x.Logger == nil {
		x.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	x.enqueue(ev)
	x.flushEvents()

	for len(x.cmds) > 0 {
		cmd := x.cmds[0]
		x.cmds = x.cmds[1:]

		if rf, ok := cmd.(swipe.CmdRequestFrame); ok {
			if x.OnFrame != nil {
				x.OnFrame(rf.Generation)
			}
			continue
		}

		x.Logger.Debug("carousel command", "command", cmd.String())
		_ = runEffect(x.Host, cmd, x.Logger, x.enqueue)

		// Observations are reduced promptly so follow-up commands keep their order.
		x.flushEvents()
	}
}

func (x *Executor) enqueue(ev swipe.Event) {
	x.events = append(x.events, ev)
}

func (x *Executor) flushEvents() {
	for len(x.events) > 0 {
		ev := x.events[0]
		x.events = x.events[1:]

		rr := swipe.Reduce(x.State, ev, x.Tuning)
		if rr.State != nil {
			x.State = rr.State
		}
		x.cmds = append(x.cmds, rr.Commands...)
	}
}

// runEffect executes a single reducer-emitted Command against the host and
// reports any observation via onEvent.
//
// Design rules:
// - This function is allowed to perform I/O.
// - It must never call Reduce() directly; it only emits Events to be reduced by the loop.
// - Frame requests are scheduled by the loop and never reach this function.
func runEffect(
	host Host,
	cmd swipe.Command,
	logger *slog.Logger,
	onEvent func(swipe.Event),
) error {
	if host == nil {
		return errNoHost{}
	}

	switch c := cmd.(type) {
	case swipe.CmdApplyOffset:
		if err := host.ApplyOffset(c.X); err != nil {
			logger.Error("host ApplyOffset failed", "error", err, "x", c.X)
			return err
		}

	case swipe.CmdSetIndex:
		observed, err := host.SetIndex(c.Index)
		if err != nil {
			// The store keeps its old index; the carousel stays on what it last observed.
			logger.Error("host SetIndex failed", "error", err, "index", c.Index)
			return err
		}
		if onEvent != nil {
			onEvent(swipe.IndexObserved{Index: observed})
		}

	case swipe.CmdPreventScroll:
		if err := host.PreventScroll(c.Enabled); err != nil {
			logger.Error("host PreventScroll failed", "error", err, "enabled", c.Enabled)
			return err
		}

	default:
		logger.Warn("unknown command type", "command", cmd.String())
		return errUnknownCommand{cmd: cmd}
	}
	return nil
}

// errNoHost indicates the loop was asked to execute a command without a host.
type errNoHost struct{}

func (errNoHost) Error() string { return "no carousel host" }

type errUnknownCommand struct {
	cmd swipe.Command
}

func (e errUnknownCommand) Error() string { return "unknown command: " + e.cmd.String() }
