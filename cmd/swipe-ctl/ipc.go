package main

import (
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"time"

	"swipeable/internal/carousel"
	"swipeable/internal/swipe"
)

// IPCResponse mirrors the daemon's reply to one request line.
type IPCResponse struct {
	Status string             `json:"status"`
	Error  string             `json:"error,omitempty"`
	State  *carousel.Snapshot `json:"state,omitempty"`
}

const ipcTimeout = 5 * time.Second

// sendEvent delivers one event to the daemon's local carousel.
func sendEvent(socketPath string, ev swipe.Event) error {
	data, err := swipe.MarshalEvent(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	_, err = request(socketPath, data)
	return err
}

// queryStatus asks the daemon for the local carousel snapshot.
func queryStatus(socketPath string) (carousel.Snapshot, error) {
	resp, err := request(socketPath, []byte(`{"type":"status"}`))
	if err != nil {
		return carousel.Snapshot{}, err
	}
	if resp.State == nil {
		return carousel.Snapshot{}, fmt.Errorf("status response has no state")
	}
	return *resp.State, nil
}

// request writes one line-delimited JSON request and decodes the reply.
func request(socketPath string, line []byte) (IPCResponse, error) {
	conn, err := net.DialTimeout("unix", socketPath, ipcTimeout)
	if err != nil {
		return IPCResponse{}, fmt.Errorf("connect to %s: %w", socketPath, err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(ipcTimeout))

	if _, err := fmt.Fprintf(conn, "%s\n", strings.TrimSpace(string(line))); err != nil {
		return IPCResponse{}, fmt.Errorf("send request: %w", err)
	}

	var resp IPCResponse
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return IPCResponse{}, fmt.Errorf("decode response: %w", err)
	}
	if resp.Status != "ok" {
		return resp, fmt.Errorf("daemon error: %s", resp.Error)
	}
	return resp, nil
}
