// Package server defines shared transport types and utility helpers that
// are reused across client and hub logic.
package server

import "strings"

// inbound is one raw frame read from a client, queued for the hub loop.
type inbound struct {
	client  *Client
	payload []byte
}

// Dispatcher runs the chat protocol for frames the hub receives. The hub
// calls it from its single Run loop.
type Dispatcher interface {
	Connected(connID string)
	Dispatch(connID string, frame []byte) error
	Disconnect(connID string) error
}

type nopDispatcher struct{}

func (nopDispatcher) Connected(string) {}

func (nopDispatcher) Dispatch(string, []byte) error { return nil }

func (nopDispatcher) Disconnect(string) error { return nil }

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
