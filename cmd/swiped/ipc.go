package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"

	"swipeable/internal/carousel"
	"swipeable/internal/swipe"
)

// ============================================================================
// IPC Server - Unix Domain Socket Interface
// ============================================================================
// Scripts drive the daemon's local carousel over a Unix domain socket.
//
// Protocol: Line-delimited JSON
//   - Client sends: {"type": "scroll_to_index", "data": {"index": 2}}
//   - Server responds: {"status": "ok"} or {"status": "error", "error": "msg"}
//   - {"type": "status"} answers with the carousel snapshot in "state".
//   - "index_observed" writes the store; the carousel learns of it through
//     its store watcher like any other external index change.
// ============================================================================

// IPCResponse represents the response sent back to IPC clients
type IPCResponse struct {
	Status string             `json:"status"`          // "ok" or "error"
	Error  string             `json:"error,omitempty"` // error message if status == "error"
	State  *carousel.Snapshot `json:"state,omitempty"`
}

// localCarousel is what the IPC server needs from the daemon's carousel.
type localCarousel interface {
	Send(ev swipe.Event) bool
	Snapshot() carousel.Snapshot
}

type ipcServer struct {
	id       string
	carousel localCarousel
	store    *carousel.Store
	logger   *slog.Logger
}

// runIPCServer starts the Unix domain socket server.
// It runs until ctx is canceled, at which point it closes the listener and exits.
func runIPCServer(ctx context.Context, socketPath string, srv *ipcServer) error {
	if err := os.RemoveAll(socketPath); err != nil {
		return fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", socketPath, err)
	}
	defer listener.Close()
	defer os.Remove(socketPath)

	if err := os.Chmod(socketPath, 0o660); err != nil {
		return fmt.Errorf("chmod socket: %w", err)
	}

	srv.logger.Info("IPC listening", "socket", socketPath)

	// Close the listener on shutdown. This unblocks Accept().
	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				srv.logger.Debug("IPC listener closed (shutdown)")
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				srv.logger.Debug("IPC listener closed")
				return nil
			}

			srv.logger.Error("IPC accept error", "error", err)
			continue
		}

		go srv.handleConn(conn)
	}
}

// handleConn processes a single IPC client connection.
func (s *ipcServer) handleConn(conn net.Conn) {
	defer conn.Close()

	s.logger.Debug("IPC connection", "remote_addr", conn.RemoteAddr())

	scanner := bufio.NewScanner(conn)
	encoder := json.NewEncoder(conn)

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		s.logger.Debug("IPC received", "line", line)

		if err := encoder.Encode(s.handleLine([]byte(line))); err != nil {
			s.logger.Error("IPC failed to send response", "error", err)
			return
		}
	}

	s.logger.Debug("IPC connection closed")
}

func (s *ipcServer) handleLine(line []byte) IPCResponse {
	var env swipe.EventEnvelope
	if err := json.Unmarshal(line, &env); err != nil {
		return IPCResponse{Status: "error", Error: fmt.Sprintf("parse event: %v", err)}
	}

	switch env.Type {
	case "status":
		snap := s.carousel.Snapshot()
		return IPCResponse{Status: "ok", State: &snap}

	case "index_observed":
		var ev swipe.IndexObserved
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			return IPCResponse{Status: "error", Error: fmt.Sprintf("parse event: %v", err)}
		}
		if _, err := s.store.SetIndex(s.id, ev.Index); err != nil {
			return IPCResponse{Status: "error", Error: err.Error()}
		}
		return IPCResponse{Status: "ok"}
	}

	ev, err := swipe.UnmarshalEvent(line)
	if err != nil {
		return IPCResponse{Status: "error", Error: fmt.Sprintf("parse event: %v", err)}
	}
	if ev == nil {
		return IPCResponse{Status: "error", Error: "event has no pointer position"}
	}

	if ic, ok := ev.(swipe.ItemCountChanged); ok && ic.Count >= 0 {
		if _, err := s.store.SetCount(s.id, ic.Count); err != nil {
			return IPCResponse{Status: "error", Error: err.Error()}
		}
	}

	if !s.carousel.Send(ev) {
		return IPCResponse{Status: "error", Error: "event queue full"}
	}
	return IPCResponse{Status: "ok"}
}
