package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"swipeable/internal/carousel"
	"swipeable/internal/swipe"
)

// fakeCarousel records events instead of running a dispatcher.
type fakeCarousel struct {
	mu     sync.Mutex
	events []swipe.Event
	full   bool
	snap   carousel.Snapshot
}

func (f *fakeCarousel) Send(ev swipe.Event) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.full {
		return false
	}
	f.events = append(f.events, ev)
	return true
}

func (f *fakeCarousel) Snapshot() carousel.Snapshot { return f.snap }

func (f *fakeCarousel) sent() []swipe.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]swipe.Event(nil), f.events...)
}

func newTestIPC() (*ipcServer, *fakeCarousel, *carousel.Store) {
	store := carousel.NewStore()
	store.Register(localID, 5, 0)
	fc := &fakeCarousel{snap: carousel.Snapshot{Phase: "idle", Index: 2, ItemCount: 5}}
	return &ipcServer{id: localID, carousel: fc, store: store, logger: slog.Default()}, fc, store
}

func TestIPC_HandleLine(t *testing.T) {
	srv, fc, store := newTestIPC()

	var watched []int
	if err := store.Watch(localID, func(i int) { watched = append(watched, i) }); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		line    string
		status  string
		errPart string
	}{
		{`{"type":"scroll_to_index","data":{"index":3}}`, "ok", ""},
		{`{"type":"layout","data":{"width":640}}`, "ok", ""},
		{`{"type":"item_count","data":{"count":3}}`, "ok", ""},
		{`{"type":"index_observed","data":{"index":4}}`, "ok", ""},
		{`{"type":"touch_start","data":{"t":1}}`, "error", "no pointer position"},
		{`{"type":"warp"}`, "error", "unknown event type"},
		{`nope`, "error", "parse event"},
	}
	for _, tt := range tests {
		resp := srv.handleLine([]byte(tt.line))
		if resp.Status != tt.status {
			t.Errorf("%s: status %q, want %q (error %q)", tt.line, resp.Status, tt.status, resp.Error)
			continue
		}
		if tt.errPart != "" && !strings.Contains(resp.Error, tt.errPart) {
			t.Errorf("%s: error %q should mention %q", tt.line, resp.Error, tt.errPart)
		}
	}

	got := fc.sent()
	want := []swipe.Event{
		swipe.ScrollToIndex{Index: 3},
		swipe.LayoutChanged{Width: 640},
		swipe.ItemCountChanged{Count: 3},
	}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("sent %v, want %v", got, want)
	}

	// index_observed goes through the store, wrapped by the new item count.
	if idx, _ := store.Index(localID); idx != 1 {
		t.Fatalf("expected store index 1, got %d", idx)
	}
	if len(watched) != 1 || watched[0] != 1 {
		t.Fatalf("expected watcher to see [1], got %v", watched)
	}
}

func TestIPC_StatusAndQueueFull(t *testing.T) {
	srv, fc, _ := newTestIPC()

	resp := srv.handleLine([]byte(`{"type":"status"}`))
	if resp.Status != "ok" || resp.State == nil || resp.State.Index != 2 {
		t.Fatalf("unexpected status response: %+v", resp)
	}

	fc.full = true
	resp = srv.handleLine([]byte(`{"type":"scroll_to_index","data":{"index":1}}`))
	if resp.Status != "error" || resp.Error != "event queue full" {
		t.Fatalf("expected queue full error, got %+v", resp)
	}
}

func TestIPC_SocketRoundTrip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv, fc, _ := newTestIPC()
	// t.TempDir paths can exceed the unix socket path limit.
	dir, err := os.MkdirTemp("", "swiped")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	socket := filepath.Join(dir, "s.sock")

	errc := make(chan error, 1)
	go func() { errc <- runIPCServer(ctx, socket, srv) }()

	var conn net.Conn
	waitUntil(t, time.Second, func() bool {
		c, err := net.Dial("unix", socket)
		if err != nil {
			return false
		}
		conn = c
		return true
	}, "ipc socket never came up")
	defer conn.Close()

	if _, err := fmt.Fprintln(conn, `{"type":"scroll_to_index","data":{"index":4}}`); err != nil {
		t.Fatalf("write: %v", err)
	}
	var resp IPCResponse
	if err := json.NewDecoder(bufio.NewReader(conn)).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" {
		t.Fatalf("expected ok, got %+v", resp)
	}
	if got := fc.sent(); len(got) != 1 || got[0] != (swipe.ScrollToIndex{Index: 4}) {
		t.Fatalf("unexpected events: %v", got)
	}

	cancel()
	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("runIPCServer: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("ipc server did not stop")
	}
}
