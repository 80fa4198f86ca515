// Package server coordinates client registration, inbound event dispatch,
// targeted delivery, and connection cleanup via the Hub type.
package server

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const inboundBufferSize = 256

// Hub manages all WebSocket client connections. Registration, removal and
// every inbound frame are serialized through Run; outbound delivery goes
// through Send from any goroutine.
type Hub struct {
	clients    map[string]*Client
	inbound    chan inbound
	register   chan *Client
	unregister chan *Client
	dispatcher Dispatcher
	mutex      sync.RWMutex
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
	running    atomic.Bool
	logger     *slog.Logger
}

// NewHub creates and initializes a new Hub instance with all necessary channels
// and client map. Frames are discarded until SetDispatcher is called.
func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:    make(map[string]*Client),
		inbound:    make(chan inbound, inboundBufferSize),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		dispatcher: nopDispatcher{},
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
		logger:     slog.Default().With("component", "hub"),
	}
}

// SetDispatcher installs the protocol handler. It must be called before Run.
func (h *Hub) SetDispatcher(d Dispatcher) {
	if d == nil {
		d = nopDispatcher{}
	}
	h.dispatcher = d
}

// Register hands a freshly upgraded client to the hub. It reports false, and
// closes the connection, when the hub is shutting down.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.ctx.Done():
		if client.conn != nil {
			_ = client.conn.Close()
		}
		return false
	}
}

func (h *Hub) unregisterClient(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

// ClientCount returns the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// Send queues frame for the client with connID. It reports false when the
// client is unknown or its buffer is full; a full buffer also schedules the
// client for removal.
func (h *Hub) Send(connID string, frame []byte) bool {
	h.mutex.RLock()
	client, exists := h.clients[connID]
	h.mutex.RUnlock()
	if !exists {
		return false
	}

	if h.safeSend(client, frame) {
		return true
	}
	h.evict(client)
	return false
}

func (h *Hub) safeSend(client *Client, message []byte) bool {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("Recovered from panic in safeSend", "panic", r)
		}
	}()

	// Hold the lock during the entire send operation so the channel cannot
	// be closed underneath us.
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	if _, exists := h.clients[client.id]; !exists || client.closed {
		return false
	}

	select {
	case client.send <- message:
		return true
	default:
		return false
	}
}

// evict removes a slow client through the Run loop. Send may be called while
// the dispatcher holds its own lock, so removal must not happen inline.
func (h *Hub) evict(client *Client) {
	if !client.evicting.CompareAndSwap(false, true) {
		return
	}
	h.logger.Warn("Client removed due to full send buffer", "conn_id", client.id, "remote_addr", client.addr)
	go h.unregisterClient(client)
}

// Run starts the hub's main event loop, handling client registration,
// unregistration, and inbound frames. This method should be called in a
// separate goroutine as it runs until Shutdown.
func (h *Hub) Run() {
	h.running.Store(true)
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return

		case client := <-h.register:
			h.handleRegister(client)

		case client := <-h.unregister:
			h.handleUnregister(client)

		case in := <-h.inbound:
			h.handleInbound(in)
		}
	}
}

func (h *Hub) handleRegister(client *Client) {
	if client == nil {
		h.logger.Warn("Received nil client registration; skipping")
		return
	}

	h.mutex.Lock()
	client.closed = false
	h.clients[client.id] = client
	clientCount := len(h.clients)
	h.mutex.Unlock()
	h.logger.Info("Client registered",
		"conn_id", client.id,
		"remote_addr", client.addr,
		"total_clients", clientCount)

	h.wg.Add(2)
	go func() {
		defer h.wg.Done()
		client.writePump()
	}()
	go func() {
		defer h.wg.Done()
		client.readPump()
	}()

	h.dispatcher.Connected(client.id)
}

func (h *Hub) handleUnregister(client *Client) {
	if !h.removeClient(client) {
		return
	}
	h.logger.Info("Client unregistered",
		"conn_id", client.id,
		"remote_addr", client.addr,
		"total_clients", h.ClientCount())

	h.call(client.id, "disconnect", func() error {
		return h.dispatcher.Disconnect(client.id)
	})
}

// removeClient deletes client from the map and closes its send channel. It
// reports false if the client was already gone.
func (h *Hub) removeClient(client *Client) bool {
	h.mutex.Lock()
	current, ok := h.clients[client.id]
	if !ok || current != client {
		h.mutex.Unlock()
		return false
	}
	delete(h.clients, client.id)
	client.closed = true
	h.mutex.Unlock()

	// Close the channel after releasing the lock
	close(client.send)
	return true
}

// handleInbound dispatches one frame. Frames from clients that have already
// been removed are dropped so a late frame cannot resurrect a session.
func (h *Hub) handleInbound(in inbound) {
	h.mutex.RLock()
	_, registered := h.clients[in.client.id]
	h.mutex.RUnlock()
	if !registered {
		return
	}

	h.call(in.client.id, "dispatch", func() error {
		return h.dispatcher.Dispatch(in.client.id, in.payload)
	})
}

// call runs a dispatcher operation, logging its error and isolating panics
// so one bad frame cannot stop the loop.
func (h *Hub) call(connID, op string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("Recovered from panic in dispatcher", "conn_id", connID, "op", op, "panic", r)
		}
	}()

	if err := fn(); err != nil {
		h.logger.Debug("Frame ignored", "conn_id", connID, "op", op, "error", err)
	}
}

// shutdownClients gracefully closes all active client connections
func (h *Hub) shutdownClients() {
	h.logger.Info("Shutting down all client connections...")

	h.mutex.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for id, client := range h.clients {
		clients = append(clients, client)
		delete(h.clients, id)
		client.closed = true
	}
	h.mutex.Unlock()

	for _, client := range clients {
		close(client.send)
		if client.conn != nil {
			if err := client.conn.Close(); err != nil {
				if !isExpectedCloseError(err) {
					h.logger.Warn("Error closing client connection", "remote_addr", client.addr, "error", err)
				}
			}
		}
		h.call(client.id, "disconnect", func() error {
			return h.dispatcher.Disconnect(client.id)
		})
	}

	h.logger.Info("Closed client connections", "count", len(clients))
}

// Shutdown initiates graceful shutdown of the hub and waits for all goroutines to complete.
// It returns after all client connections are closed and goroutines have finished,
// or when the timeout is reached.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.logger.Info("Initiating hub shutdown...")

	h.cancel()
	if !h.running.Load() {
		return nil
	}

	<-h.done

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.logger.Info("Hub shutdown completed successfully")
		return nil
	case <-time.After(timeout):
		h.logger.Warn("Hub shutdown timeout reached, some goroutines may still be running")
		return context.DeadlineExceeded
	}
}
