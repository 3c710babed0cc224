package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"swipeable/internal/carousel"
	"swipeable/internal/swipe"
)

// ============================================================================
// Carousel WebSocket: hub + per-session pumps
// ============================================================================
//
// This file implements:
//   - /ws: each connection owns one carousel. The browser streams raw
//     mouse/touch envelopes plus layout/item_count; the carousel answers with
//     offset, index and prevent_scroll frames.
//   - /watch: read-only observers of the daemon's local carousel (evdev/IPC
//     driven). Frames are fanned out through the hub broadcast queue.
//
// Notes:
//   - Slow clients are disconnected when their send buffer fills.
//   - Messages are JSON text frames with an envelope: {type, ts, data}.
//   - The first message on /ws is "session" carrying the session id.
//
// ============================================================================

// envelope is the wire format envelope for outbound WS messages.
type envelope struct {
	Type string     `json:"type"`
	Ts   *time.Time `json:"ts,omitempty"`
	Data any        `json:"data,omitempty"`
}

type wsSessionData struct {
	ID        string `json:"id"`
	Index     int    `json:"index"`
	ItemCount int    `json:"item_count"`
}

type wsOffsetData struct {
	X float64 `json:"x"`
}

type wsIndexData struct {
	Index int `json:"index"`
}

type wsPreventScrollData struct {
	Enabled bool `json:"enabled"`
}

func marshalFrame(typ string, data any) ([]byte, error) {
	now := time.Now().UTC()
	return json.Marshal(envelope{Type: typ, Ts: &now, Data: data})
}

// ============================================================================
// Hub
// ============================================================================

type Hub struct {
	logger *slog.Logger

	// Buffered broadcast channel for already-serialized JSON frames.
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu      sync.Mutex
	clients map[*Client]struct{}

	sendBuf int
}

type HubConfig struct {
	// SendBuf is the per-client outbound queue size.
	SendBuf int

	// BroadcastBuf is the hub inbound broadcast queue size.
	BroadcastBuf int
}

// NewHub constructs a hub. Call Run(ctx) to start it.
func NewHub(logger *slog.Logger, cfg HubConfig) *Hub {
	sendBuf := cfg.SendBuf
	if sendBuf <= 0 {
		sendBuf = 64
	}
	bcastBuf := cfg.BroadcastBuf
	if bcastBuf <= 0 {
		bcastBuf = 256
	}

	return &Hub{
		logger:     logger,
		broadcast:  make(chan []byte, bcastBuf),
		register:   make(chan *Client, 64),
		unregister: make(chan *Client, 64),
		clients:    make(map[*Client]struct{}),
		sendBuf:    sendBuf,
	}
}

// Run processes hub events until ctx is canceled.
// It disconnects all clients on shutdown.
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("ws hub starting")

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("ws hub stopping (context canceled)")
			h.closeAllClients()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("ws client registered", "remote_addr", c.remoteAddr, "session", c.id, "clients", n)

		case c := <-h.unregister:
			h.removeClient(c, "unregister")

		case msg := <-h.broadcast:
			// Collect slow clients first, then remove them after we unlock.
			var slow []*Client

			h.mu.Lock()
			for c := range h.clients {
				if !c.watcher {
					continue
				}
				select {
				case c.send <- msg:
				default:
					slow = append(slow, c)
				}
			}
			h.mu.Unlock()

			for _, c := range slow {
				h.removeClient(c, "slow_client")
			}
		}
	}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
		delete(h.clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.shutdown()
	}
}

func (h *Hub) removeClient(c *Client, reason string) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
	}
	n := len(h.clients)
	h.mu.Unlock()

	if ok {
		c.shutdown()
		h.logger.Info("ws client disconnected", "remote_addr", c.remoteAddr, "session", c.id, "reason", reason, "clients", n)
	}
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// BroadcastBytes enqueues a pre-serialized JSON WS frame for /watch clients.
// It never blocks; if the hub queue is full it drops the message.
func (h *Hub) BroadcastBytes(msg []byte) {
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("ws hub broadcast queue full, dropping message", "bytes", len(msg))
	}
}

// ============================================================================
// Client
// ============================================================================

type Client struct {
	hub *Hub

	id      string
	conn    *websocket.Conn
	send    chan []byte
	watcher bool

	// carousel is nil for /watch clients.
	carousel *carousel.Instance
	release  func()

	closeOnce sync.Once
	done      chan struct{}

	remoteAddr string
	logger     *slog.Logger
}

// NewClient creates a client with a buffered send channel.
func NewClient(hub *Hub, conn *websocket.Conn, remoteAddr string, logger *slog.Logger) *Client {
	sendBuf := 64
	if hub != nil && hub.sendBuf > 0 {
		sendBuf = hub.sendBuf
	}
	id := uuid.NewString()
	return &Client{
		hub:        hub,
		id:         id,
		conn:       conn,
		send:       make(chan []byte, sendBuf),
		done:       make(chan struct{}),
		remoteAddr: remoteAddr,
		logger:     logger.With("session", id),
	}
}

// shutdown releases the client's carousel and closes its connection.
// Safe to call from any goroutine, any number of times.
func (c *Client) shutdown() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.release != nil {
			c.release()
		}
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

// enqueue queues a frame without blocking. A client that cannot keep up is
// disconnected.
func (c *Client) enqueue(msg []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- msg:
		return true
	default:
		if c.hub != nil {
			select {
			case c.hub.unregister <- c:
			default:
				go c.shutdown()
			}
		}
		return false
	}
}

func (c *Client) enqueueFrame(typ string, data any) error {
	msg, err := marshalFrame(typ, data)
	if err != nil {
		return err
	}
	if !c.enqueue(msg) {
		return errClientGone
	}
	return nil
}

var errClientGone = errors.New("ws client gone")

const (
	writeWait = 5 * time.Second

	// Browsers answer pings automatically, so pongWait only needs to cover
	// one ping period plus slack.
	defaultPingPeriod = 30 * time.Second
)

// closeStatus extracts a human-readable websocket close code / text when possible.
func closeStatus(err error) (code int, text string, ok bool) {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		return ce.Code, ce.Text, true
	}
	return 0, "", false
}

// writePump writes messages from the send queue to the websocket.
// It exits on write error or when the client shuts down.
func (c *Client) writePump(pingPeriod time.Duration) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return

		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.logExit("writePump", "write error", err)
				c.unregister()
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logExit("writePump", "ping error", err)
				c.unregister()
				return
			}
		}
	}
}

// readPump decodes inbound envelopes and feeds them to the client's carousel.
// /watch clients only read to detect disconnects and handle control frames.
// It exits on read error, then unregisters the client.
func (c *Client) readPump(pongWait time.Duration, onEvent func(swipe.Event)) {
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.logExit("readPump", "read error", err)
			c.unregister()
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

		if onEvent == nil {
			continue
		}

		ev, err := swipe.UnmarshalEvent(data)
		if err != nil {
			c.logger.Debug("ws dropping malformed event", "error", err)
			continue
		}
		if ev == nil {
			continue
		}
		onEvent(ev)
	}
}

func (c *Client) unregister() {
	if c.hub == nil {
		c.shutdown()
		return
	}
	select {
	case c.hub.unregister <- c:
	case <-c.done:
	}
}

func (c *Client) logExit(pump, what string, err error) {
	select {
	case <-c.done:
		// Expected during shutdown.
		return
	default:
	}
	if errors.Is(err, websocket.ErrCloseSent) {
		return
	}
	if code, text, ok := closeStatus(err); ok {
		c.logger.Info("ws "+pump+" exiting (close)", "remote_addr", c.remoteAddr, "code", code, "reason", text)
		return
	}
	c.logger.Info("ws "+pump+" exiting ("+what+")", "remote_addr", c.remoteAddr, "error", err)
}

// ============================================================================
// Session host
// ============================================================================

// sessionHost renders carousel commands as WS frames and keeps the index in
// the shared store under the session id.
type sessionHost struct {
	client *Client
	store  carousel.Host
}

func (h *sessionHost) ApplyOffset(x float64) error {
	return h.client.enqueueFrame("offset", wsOffsetData{X: x})
}

func (h *sessionHost) PreventScroll(enabled bool) error {
	return h.client.enqueueFrame("prevent_scroll", wsPreventScrollData{Enabled: enabled})
}

func (h *sessionHost) SetIndex(index int) (int, error) {
	stored, err := h.store.SetIndex(index)
	if err != nil {
		return 0, err
	}
	// The store already moved, so the carousel must observe it even if the
	// client cannot be told.
	if err := h.client.enqueueFrame("index", wsIndexData{Index: stored}); err != nil {
		h.client.logger.Warn("index frame dropped", "index", stored, "error", err)
	}
	return stored, nil
}

// ============================================================================
// HTTP Handler + server wiring helpers
// ============================================================================

type ServerConfig struct {
	Hub        HubConfig
	PingPeriod time.Duration

	// Defaults for each new session's carousel.
	Width     float64
	ItemCount int
	Carousel  carousel.Options
}

type Server struct {
	logger *slog.Logger
	hub    *Hub
	store  *carousel.Store
	cfg    ServerConfig
}

// NewServer constructs the WS server. Call Register on a mux and start Hub().Run(ctx).
func NewServer(logger *slog.Logger, store *carousel.Store, cfg ServerConfig) *Server {
	if cfg.PingPeriod <= 0 {
		cfg.PingPeriod = defaultPingPeriod
	}
	return &Server{
		logger: logger,
		hub:    NewHub(logger, cfg.Hub),
		store:  store,
		cfg:    cfg,
	}
}

func (s *Server) Hub() *Hub { return s.hub }

// Register registers the session and watch handlers on the provided mux.
func (s *Server) Register(mux *http.ServeMux, path string) {
	if mux == nil {
		return
	}
	mux.HandleFunc(path, s.handleSession)
	mux.HandleFunc("/watch", s.handleWatch)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleSession upgrades the connection and gives it its own carousel.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("ws upgrade failed", "error", err)
		return
	}

	client := NewClient(s.hub, conn, r.RemoteAddr, s.logger)
	onEvent, err := s.openSession(client)
	if err != nil {
		client.logger.Warn("session setup failed", "error", err)
		return
	}

	go client.writePump(s.cfg.PingPeriod)
	go client.readPump(s.cfg.PingPeriod+s.cfg.PingPeriod/2, onEvent)
}

// openSession starts the client's carousel, announces the session and
// registers the client with the hub. On error everything it started is
// released again.
func (s *Server) openSession(client *Client) (func(swipe.Event), error) {
	s.store.Register(client.id, s.cfg.ItemCount, 0)
	host := &sessionHost{client: client, store: s.store.Host(client.id, nil)}

	opts := s.cfg.Carousel
	opts.Logger = client.logger

	// Do not tie the carousel or the pumps to the request context: net/http
	// cancels it as soon as the handler returns.
	inst, release := carousel.Start(context.Background(), swipe.NewState(s.cfg.Width, s.cfg.ItemCount, 0), host, opts)
	client.carousel = inst
	client.release = func() {
		release()
		s.store.Remove(client.id)
	}

	// Another component may move this session's index through the store.
	_ = s.store.Watch(client.id, func(i int) { inst.Send(swipe.IndexObserved{Index: i}) })

	if err := client.enqueueFrame("session", wsSessionData{ID: client.id, ItemCount: s.cfg.ItemCount}); err != nil {
		client.shutdown()
		return nil, err
	}

	s.hub.register <- client

	return func(ev swipe.Event) {
		// The store wraps indices by item count, so it must learn of changes too.
		if ic, ok := ev.(swipe.ItemCountChanged); ok && ic.Count >= 0 {
			_, _ = s.store.SetCount(client.id, ic.Count)
		}
		if !inst.Send(ev) {
			client.logger.Warn("carousel inbox full, dropping event", "event", eventName(ev))
		}
	}, nil
}

// handleWatch upgrades a read-only observer of the local carousel.
func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("ws upgrade failed", "error", err)
		return
	}

	client := NewClient(s.hub, conn, r.RemoteAddr, s.logger)
	client.watcher = true
	s.hub.register <- client

	go client.writePump(s.cfg.PingPeriod)
	go client.readPump(s.cfg.PingPeriod+s.cfg.PingPeriod/2, nil)
}

func eventName(ev swipe.Event) string {
	switch ev.(type) {
	case swipe.PointerDown:
		return "pointer_down"
	case swipe.PointerMove:
		return "pointer_move"
	case swipe.PointerUp:
		return "pointer_up"
	case swipe.PointerCancel:
		return "pointer_cancel"
	case swipe.ScrollToIndex:
		return "scroll_to_index"
	case swipe.LayoutChanged:
		return "layout"
	case swipe.ItemCountChanged:
		return "item_count"
	case swipe.IndexObserved:
		return "index_observed"
	default:
		return "unknown"
	}
}

// ============================================================================
// Local carousel view
// ============================================================================

// broadcastView draws the local carousel by broadcasting frames to /watch clients.
type broadcastView struct {
	hub *Hub
}

func (v broadcastView) ApplyOffset(x float64) error {
	return v.broadcast("offset", wsOffsetData{X: x})
}

func (v broadcastView) PreventScroll(enabled bool) error {
	return v.broadcast("prevent_scroll", wsPreventScrollData{Enabled: enabled})
}

func (v broadcastView) broadcast(typ string, data any) error {
	msg, err := marshalFrame(typ, data)
	if err != nil {
		return err
	}
	v.hub.BroadcastBytes(msg)
	return nil
}

// localHost is the store-backed host of the local carousel; committed
// indices are announced to /watch clients as well.
type localHost struct {
	carousel.Host
	view broadcastView
}

func (h localHost) SetIndex(index int) (int, error) {
	stored, err := h.Host.SetIndex(index)
	if err != nil {
		return 0, err
	}
	return stored, h.view.broadcast("index", wsIndexData{Index: stored})
}
