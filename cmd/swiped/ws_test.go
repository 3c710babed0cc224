package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"swipeable/internal/carousel"
	"swipeable/internal/swipe"
)

// newTestHub returns a hub with small buffers for deterministic tests.
func newTestHub(t *testing.T, sendBuf int, broadcastBuf int) *Hub {
	t.Helper()
	return NewHub(slog.Default(), HubConfig{
		SendBuf:      sendBuf,
		BroadcastBuf: broadcastBuf,
	})
}

// newTestWatcher builds a /watch client without a websocket connection.
func newTestWatcher(hub *Hub, name string, sendBuf int) *Client {
	return &Client{
		hub:        hub,
		id:         name,
		send:       make(chan []byte, sendBuf),
		done:       make(chan struct{}),
		watcher:    true,
		remoteAddr: name,
		logger:     slog.Default(),
	}
}

func registerAndWait(t *testing.T, hub *Hub, c *Client) {
	t.Helper()
	hub.register <- c
	waitUntil(t, 500*time.Millisecond, func() bool {
		hub.mu.Lock()
		defer hub.mu.Unlock()
		_, ok := hub.clients[c]
		return ok
	}, c.remoteAddr+" not registered in time")
}

func TestHub_BroadcastReachesWatchersOnly(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := newTestHub(t, 4, 8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		hub.Run(ctx)
	}()

	w := newTestWatcher(hub, "watcher", 4)
	s := newTestWatcher(hub, "session", 4)
	s.watcher = false
	registerAndWait(t, hub, w)
	registerAndWait(t, hub, s)

	msg := []byte(`{"type":"offset","data":{"x":-12}}`)
	hub.broadcast <- msg

	select {
	case got := <-w.send:
		if string(got) != string(msg) {
			t.Fatalf("watcher got %q, want %q", got, msg)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("timeout waiting for watcher to receive broadcast")
	}

	select {
	case got := <-s.send:
		t.Fatalf("session client should not receive local broadcasts, got %q", got)
	case <-time.After(50 * time.Millisecond):
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for hub to stop")
	}
	select {
	case <-w.done:
	default:
		t.Fatal("expected watcher shut down with the hub")
	}
}

func TestHub_SlowWatcherDisconnected(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := newTestHub(t, 1, 8)
	go hub.Run(ctx)

	slow := newTestWatcher(hub, "slow", 1)
	fast := newTestWatcher(hub, "fast", 8)
	registerAndWait(t, hub, slow)
	registerAndWait(t, hub, fast)

	slow.send <- []byte(`"already queued"`)

	msg := []byte(`{"type":"index","data":{"index":2}}`)
	hub.broadcast <- msg

	select {
	case got := <-fast.send:
		if string(got) != string(msg) {
			t.Fatalf("fast client got %q, want %q", got, msg)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("timeout waiting for fast client to receive broadcast")
	}

	waitUntil(t, 750*time.Millisecond, func() bool {
		select {
		case <-slow.done:
			return true
		default:
			return false
		}
	}, "expected slow watcher to be shut down")

	if hub.Len() != 1 {
		t.Fatalf("expected 1 client left, got %d", hub.Len())
	}
}

type wsFrame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func readFrame(t *testing.T, conn *websocket.Conn) wsFrame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var f wsFrame
	if err := conn.ReadJSON(&f); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return f
}

func TestServer_SessionSwipeCommitsIndex(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tun := swipe.DefaultTuning()
	tun.MinSettleSpeed = 10
	tun.MaxSettleSpeed = 20
	tun.Deceleration = 1

	store := carousel.NewStore()
	srv := NewServer(slog.Default(), store, ServerConfig{
		Width:     300,
		ItemCount: 5,
		Carousel:  carousel.Options{Tuning: tun, FrameHz: 250},
	})
	go srv.Hub().Run(ctx)

	mux := http.NewServeMux()
	srv.Register(mux, "/ws")
	ts := httptest.NewServer(mux)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	first := readFrame(t, conn)
	if first.Type != "session" {
		t.Fatalf("expected session frame first, got %q", first.Type)
	}
	var sess wsSessionData
	if err := json.Unmarshal(first.Data, &sess); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if sess.ID == "" || sess.ItemCount != 5 {
		t.Fatalf("unexpected session payload: %+v", sess)
	}

	for _, line := range []string{
		`{"type":"mouse_down","data":{"page_x":295,"page_y":40,"t":0}}`,
		`{"type":"mouse_up","data":{"page_x":295,"page_y":40,"t":30}}`,
	} {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	var offsets int
	for {
		f := readFrame(t, conn)
		switch f.Type {
		case "offset":
			offsets++
		case "index":
			var idx wsIndexData
			if err := json.Unmarshal(f.Data, &idx); err != nil {
				t.Fatalf("decode index: %v", err)
			}
			if idx.Index != 1 {
				t.Fatalf("expected index 1, got %d", idx.Index)
			}
			if offsets == 0 {
				t.Fatal("expected offset frames before the index commit")
			}
			if got, ok := store.Index(sess.ID); !ok || got != 1 {
				t.Fatalf("expected store index 1 for session, got %d (ok=%v)", got, ok)
			}
			return
		case "prevent_scroll":
			t.Fatal("a tap must not toggle scroll prevention")
		}
	}
}

func TestServer_SessionRemovedFromStoreOnDisconnect(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := carousel.NewStore()
	srv := NewServer(slog.Default(), store, ServerConfig{Width: 300, ItemCount: 3})
	go srv.Hub().Run(ctx)

	mux := http.NewServeMux()
	srv.Register(mux, "/ws")
	ts := httptest.NewServer(mux)
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	readFrame(t, conn)
	waitUntil(t, time.Second, func() bool { return store.Len() == 1 }, "session not registered in store")

	_ = conn.Close()
	waitUntil(t, 2*time.Second, func() bool { return store.Len() == 0 && srv.Hub().Len() == 0 }, "session not cleaned up")
}

func TestSessionHost_IndexStoredWhenClientCannotKeepUp(t *testing.T) {
	store := carousel.NewStore()
	store.Register("s1", 5, 0)

	// An unbuffered queue with no reader is always full.
	client := newTestWatcher(nil, "s1", 0)
	host := &sessionHost{client: client, store: store.Host("s1", nil)}

	got, err := host.SetIndex(6)
	if err != nil {
		t.Fatalf("SetIndex: %v", err)
	}
	if got != 1 {
		t.Fatalf("expected wrapped index 1, got %d", got)
	}
	if idx, _ := store.Index("s1"); idx != 1 {
		t.Fatalf("expected store index 1, got %d", idx)
	}
}

func TestServer_FailedSessionFrameReleasesSession(t *testing.T) {
	store := carousel.NewStore()
	srv := NewServer(slog.Default(), store, ServerConfig{Width: 300, ItemCount: 3, Hub: HubConfig{SendBuf: 1}})

	client := NewClient(srv.Hub(), nil, "stuck", slog.Default())
	client.send <- []byte("backlog")

	if _, err := srv.openSession(client); err == nil {
		t.Fatal("expected the session frame to fail")
	}
	if store.Len() != 0 {
		t.Fatalf("expected the store entry to be removed, got %d", store.Len())
	}
	if len(srv.Hub().register) != 0 {
		t.Fatal("a failed session must not reach the hub")
	}
	select {
	case <-client.done:
	default:
		t.Fatal("expected the client to be shut down")
	}
}

func waitUntil(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timeout: %s", msg)
}
