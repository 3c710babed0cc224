package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"swipeable/internal/swipe"
)

// ============================================================================
// swipe-ctl - Command-line client for swiped
// ============================================================================
// IPC commands drive the daemon's local carousel over its Unix socket.
// replay and watch talk to the WebSocket endpoints instead.
// ============================================================================

const defaultSocket = "/tmp/swiped.sock"

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	socketPath := defaultSocket

	if len(args) > 0 && (args[0] == "-socket" || args[0] == "--socket") {
		if len(args) < 2 {
			return fmt.Errorf("-socket requires an argument")
		}
		socketPath = args[1]
		args = args[2:]
	}

	if len(args) == 0 {
		printUsage(out)
		return fmt.Errorf("no command given")
	}

	switch args[0] {
	case "next", "prev":
		st, err := queryStatus(socketPath)
		if err != nil {
			return err
		}
		step := 1
		if args[0] == "prev" {
			step = -1
		}
		return report(out, sendEvent(socketPath, swipe.ScrollToIndex{Index: st.Index + step}))

	case "goto":
		n, err := intArg(args, "goto requires an index")
		if err != nil {
			return err
		}
		return report(out, sendEvent(socketPath, swipe.ScrollToIndex{Index: n}))

	case "set":
		n, err := intArg(args, "set requires an index")
		if err != nil {
			return err
		}
		return report(out, sendEvent(socketPath, swipe.IndexObserved{Index: n}))

	case "count":
		n, err := intArg(args, "count requires an item count")
		if err != nil {
			return err
		}
		return report(out, sendEvent(socketPath, swipe.ItemCountChanged{Count: n}))

	case "layout":
		if len(args) < 2 {
			return fmt.Errorf("layout requires a width in px")
		}
		w, err := strconv.ParseFloat(args[1], 64)
		if err != nil || w < 0 {
			return fmt.Errorf("invalid width: %s", args[1])
		}
		return report(out, sendEvent(socketPath, swipe.LayoutChanged{Width: w}))

	case "status":
		st, err := queryStatus(socketPath)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(st)

	case "replay":
		return runReplay(args[1:], out)

	case "watch":
		return runWatch(args[1:], out)

	case "help", "-h", "--help":
		printUsage(out)
		return nil

	default:
		printUsage(out)
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

func runReplay(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("replay", flag.ContinueOnError)
	fs.SetOutput(out)
	var (
		url      = fs.String("url", "ws://127.0.0.1:8088/ws", "swiped session endpoint")
		width    = fs.Float64("width", 1080, "Item width in px")
		distance = fs.Float64("distance", 0.2, "Share of the width to travel")
		steps    = fs.Int("steps", 5, "Number of move samples")
		duration = fs.Int64("duration", 40, "Gesture duration in ms")
		right    = fs.Bool("right", false, "Swipe right (previous item) instead of left")
		idle     = fs.Duration("idle", time.Second, "Stop after this long without frames")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	script := flingScript{Width: *width, Distance: *distance, Steps: *steps, DurationMs: *duration, Direction: -1}
	if *right {
		script.Direction = 1
	}
	return replay(*url, script, *idle, out)
}

func runWatch(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	fs.SetOutput(out)
	url := fs.String("url", "ws://127.0.0.1:8088/watch", "swiped watch endpoint")
	if err := fs.Parse(args); err != nil {
		return err
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigc)

	stop := make(chan struct{})
	go func() {
		<-sigc
		close(stop)
	}()
	return watch(*url, out, stop)
}

func intArg(args []string, missing string) (int, error) {
	if len(args) < 2 {
		return 0, fmt.Errorf("%s", missing)
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, fmt.Errorf("invalid number: %s", args[1])
	}
	return n, nil
}

func report(out io.Writer, err error) error {
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "ok")
	return nil
}

func printUsage(out io.Writer) {
	fmt.Fprintf(out, `swipe-ctl - Drive and observe the swiped carousel daemon

Usage:
  swipe-ctl [options] <command> [args]

Options:
  -socket PATH    Unix domain socket path (default: %s)

Commands:
  next, prev              Scroll the local carousel one item
  goto <index>            Scroll to an index (wrapped, shortest way round)
  set <index>             Write the index store directly, as another app would
  count <n>               Change the item count
  layout <width>          Report a new item width in px
  status                  Print the local carousel snapshot
  replay [flags]          Play a scripted fling over a WebSocket session and print frames
  watch [flags]           Print the local carousel's frames until Ctrl+C
  help, -h, --help        Show this help message

Examples:
  swipe-ctl next
  swipe-ctl goto 3
  swipe-ctl replay -url ws://127.0.0.1:8088/ws -distance 0.3
  swipe-ctl -socket /run/swiped.sock status
`, defaultSocket)
}
