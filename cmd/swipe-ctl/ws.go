package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/gorilla/websocket"

	"swipeable/internal/swipe"
)

// frame is the daemon's outbound envelope. Only the fields we print are decoded.
type frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type frameData struct {
	ID        string   `json:"id"`
	Index     *int     `json:"index"`
	ItemCount int      `json:"item_count"`
	X         *float64 `json:"x"`
	Enabled   *bool    `json:"enabled"`
}

// flingScript describes a scripted horizontal swipe.
type flingScript struct {
	Width      float64
	Distance   float64 // fraction of Width travelled
	Steps      int
	DurationMs int64
	Direction  int // -1 swipes left (advance), +1 swipes right (retreat)
}

// events turns the script into down, Steps moves and up, starting in the
// middle of the item so the release is never mistaken for an edge tap.
func (s flingScript) events() []swipe.Event {
	steps := s.Steps
	if steps < 1 {
		steps = 1
	}
	dir := float64(s.Direction)
	if dir == 0 {
		dir = -1
	}
	x0 := s.Width / 2
	y := 100.0
	dx := dir * s.Distance * s.Width / float64(steps)
	dt := s.DurationMs / int64(steps)
	if dt < 1 {
		dt = 1
	}

	evs := []swipe.Event{
		swipe.LayoutChanged{Width: s.Width},
		swipe.PointerDown{Sample: swipe.PointerSample{X: x0, Y: y}},
	}
	var last swipe.PointerSample
	for i := 1; i <= steps; i++ {
		last = swipe.PointerSample{X: x0 + dx*float64(i), Y: y, TimestampMs: dt * int64(i)}
		evs = append(evs, swipe.PointerMove{Sample: last})
	}
	last.TimestampMs += dt
	return append(evs, swipe.PointerUp{Sample: last})
}

func dial(url string) (*websocket.Conn, error) {
	d := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	conn, _, err := d.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", url, err)
	}
	return conn, nil
}

// replay opens a carousel session, plays the script and prints frames until the
// settle completes or nothing arrives for idle.
func replay(url string, script flingScript, idle time.Duration, out io.Writer) error {
	conn, err := dial(url)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := printUntil(conn, out, idle, func(f frame, _ frameData) bool { return f.Type == "session" }); err != nil {
		return fmt.Errorf("waiting for session: %w", err)
	}

	for _, ev := range script.events() {
		data, err := swipe.MarshalEvent(ev)
		if err != nil {
			return fmt.Errorf("marshal event: %w", err)
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return fmt.Errorf("send event: %w", err)
		}
	}

	sawIndex := false
	err = printUntil(conn, out, idle, func(f frame, d frameData) bool {
		if f.Type == "index" {
			sawIndex = true
		}
		return sawIndex && f.Type == "offset" && d.X != nil && *d.X == 0
	})
	if isTimeout(err) {
		// Nothing more is coming: a cancelled gesture or an already settled one.
		return nil
	}
	if err == nil {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}
	return err
}

// watch prints frames from the daemon's local carousel until the connection
// closes or stop is closed.
func watch(url string, out io.Writer, stop <-chan struct{}) error {
	conn, err := dial(url)
	if err != nil {
		return err
	}
	defer conn.Close()

	done := make(chan error, 1)
	go func() {
		done <- printUntil(conn, out, 0, func(frame, frameData) bool { return false })
	}()

	select {
	case <-stop:
		return conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	case err := <-done:
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return nil
		}
		return err
	}
}

// printUntil prints frames until stop reports true. A zero idle waits forever.
func printUntil(conn *websocket.Conn, out io.Writer, idle time.Duration, stop func(frame, frameData) bool) error {
	for {
		if idle > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(idle))
		}
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if messageType != websocket.TextMessage {
			fmt.Fprintf(out, "[BINARY] %d bytes\n", len(message))
			continue
		}

		var f frame
		if err := json.Unmarshal(message, &f); err != nil {
			fmt.Fprintf(out, "[TEXT] %s\n", message)
			continue
		}
		var d frameData
		_ = json.Unmarshal(f.Data, &d)
		printFrame(out, f, d)

		if stop(f, d) {
			return nil
		}
	}
}

func printFrame(out io.Writer, f frame, d frameData) {
	switch {
	case f.Type == "session":
		fmt.Fprintf(out, "[SESSION] id=%s items=%d\n", d.ID, d.ItemCount)
	case f.Type == "offset" && d.X != nil:
		fmt.Fprintf(out, "[OFFSET] %.1f\n", *d.X)
	case f.Type == "index" && d.Index != nil:
		fmt.Fprintf(out, "[INDEX] %d\n", *d.Index)
	case f.Type == "prevent_scroll" && d.Enabled != nil:
		fmt.Fprintf(out, "[PREVENT_SCROLL] %v\n", *d.Enabled)
	default:
		fmt.Fprintf(out, "[%s] %s\n", f.Type, f.Data)
	}
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
