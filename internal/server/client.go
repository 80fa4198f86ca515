// Package server manages individual WebSocket clients, handling read/write
// pumps, rate limiting, and lifecycle control for each connection.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	sendBufferSize = 256
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	writeWait      = 10 * time.Second
)

// Client represents a WebSocket client connection in the chat system.
// It manages the connection state, message sending channel, hub reference,
// and client address information.
type Client struct {
	id             string
	conn           *websocket.Conn
	send           chan []byte
	hub            *Hub
	addr           string
	closed         bool
	evicting       atomic.Bool
	maxMessageSize int64
	rateLimiter    *rateLimiter
	rateLimit      RateLimitConfig
	logger         *slog.Logger
}

// NewClient creates a new Client instance with a fresh connection id. The
// client's send channel is buffered to handle message queuing.
func NewClient(conn *websocket.Conn, hub *Hub, addr string, cfg Config) *Client {
	if conn != nil {
		conn.SetReadLimit(cfg.MaxMessageSize)
	}
	id := uuid.NewString()

	return &Client{
		id:             id,
		conn:           conn,
		send:           make(chan []byte, sendBufferSize),
		hub:            hub,
		addr:           addr,
		maxMessageSize: cfg.MaxMessageSize,
		rateLimiter:    newRateLimiter(cfg.RateLimit.Burst, cfg.RateLimit.RefillInterval),
		rateLimit:      cfg.RateLimit,
		logger:         slog.Default().With("component", "client", "conn_id", id, "remote_addr", addr),
	}
}

// ID returns the connection id the chat engine knows this client by.
func (c *Client) ID() string {
	return c.id
}

// GetSendChan returns the client's send channel for reading outgoing frames.
func (c *Client) GetSendChan() <-chan []byte {
	return c.send
}

// setupReadConnection configures read deadlines and pong handler for the WebSocket connection
func (c *Client) setupReadConnection() {
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Warn("Error setting initial read deadline", "error", err)
	}
	c.conn.SetPongHandler(func(string) error {
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			c.logger.Warn("Error setting read deadline in pong handler", "error", err)
		}
		return nil
	})
}

// handleReadError logs appropriate error messages based on the error type
// and returns true if the read loop should break
func (c *Client) handleReadError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, websocket.ErrReadLimit) {
		c.logger.Warn("Message exceeded maximum size", "max_bytes", c.maxMessageSize)
		return true
	}

	if websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure) {
		c.logger.Info("Client disconnected", "reason", err)
		return true
	}

	if errors.Is(err, io.EOF) || isExpectedCloseError(err) {
		c.logger.Info("Client connection closed", "reason", err)
		return true
	}

	if websocket.IsUnexpectedCloseError(err,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure,
		websocket.CloseMessageTooBig) {
		c.logger.Warn("Unexpected WebSocket close", "error", err)
		return true
	}

	c.logger.Warn("WebSocket read error", "error", err)
	return true
}

// checkRateLimit verifies if the client has exceeded rate limits
// and returns true if the message should be processed
func (c *Client) checkRateLimit() bool {
	if c.rateLimiter != nil && !c.rateLimiter.allow() {
		c.logger.Warn("Rate limit exceeded; discarding frame",
			"burst", c.rateLimit.Burst,
			"interval", c.rateLimit.RefillInterval)
		return false
	}
	return true
}

// processMessage checks that a raw frame is JSON and hands it to the hub.
// It returns false when the frame was dropped or the hub is shutting down.
func (c *Client) processMessage(rawMessage []byte) bool {
	if !json.Valid(rawMessage) {
		c.logger.Debug("Discarding non-JSON frame", "bytes", len(rawMessage))
		return false
	}

	select {
	case c.hub.inbound <- inbound{client: c, payload: rawMessage}:
		return true
	case <-c.hub.ctx.Done():
		return false
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregisterClient(c)
		if err := c.conn.Close(); err != nil {
			if !isExpectedCloseError(err) {
				c.logger.Warn("Error closing connection in readPump", "error", err)
			}
		}
	}()

	c.setupReadConnection()

	for {
		_, rawMessage, err := c.conn.ReadMessage()
		if err != nil {
			if c.handleReadError(err) {
				break
			}
		}

		if !c.checkRateLimit() {
			continue
		}

		c.processMessage(rawMessage)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.closeConnection()
	}()

	for c.processWriteEvent(ticker) {
	}
}

// processWriteEvent waits for the next write event and returns false when the
// pump should stop processing.
func (c *Client) processWriteEvent(ticker *time.Ticker) bool {
	select {
	case message, ok := <-c.send:
		return c.handleMessage(message, ok)
	case <-ticker.C:
		return c.handlePing()
	}
}

// closeConnection safely closes the WebSocket connection with proper error handling
func (c *Client) closeConnection() {
	if err := c.conn.Close(); err != nil {
		if !isExpectedCloseError(err) {
			c.logger.Warn("Error closing connection in writePump", "error", err)
		}
	}
}

// handleMessage processes outgoing frames and returns false if the connection should be closed
func (c *Client) handleMessage(message []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Warn("Error setting write deadline", "error", err)
		return false
	}

	if !ok {
		return c.writeCloseMessage()
	}

	return c.writeTextMessage(message)
}

// writeCloseMessage sends a close message to the client
func (c *Client) writeCloseMessage() bool {
	if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
		if !isExpectedCloseError(err) {
			c.logger.Warn("Error writing close message", "error", err)
		}
	}
	return false
}

// writeTextMessage writes one JSON envelope as one text frame; queued
// envelopes are never batched into a single frame.
func (c *Client) writeTextMessage(message []byte) bool {
	if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		if !isExpectedCloseError(err) {
			c.logger.Warn("Error writing message", "error", err)
		}
		return false
	}
	return true
}

// handlePing sends a ping message to keep the connection alive
func (c *Client) handlePing() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Warn("Error setting write deadline for ping", "error", err)
		return false
	}
	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Warn("Error writing ping message", "error", err)
		return false
	}
	return true
}
