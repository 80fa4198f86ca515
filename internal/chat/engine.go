package chat

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/Tyrowin/roomchat/internal/pubsub"
	"github.com/google/uuid"
)

const (
	defaultHistoryLimit    = 500
	defaultInitialPageSize = 50
	defaultPageSize        = 20
	defaultRoomSoftLimit   = 1000
)

// Sender delivers an encoded outbound frame to one connection. It reports
// false when the connection is unknown or cannot take the frame; the engine
// treats that as a silent no-op.
type Sender interface {
	Send(connID string, frame []byte) bool
}

// Frame is the envelope written for every outbound event.
type Frame struct {
	Event string `json:"event"`
	Ack   string `json:"ack,omitempty"`
	Data  any    `json:"data"`
}

// Engine owns the registry, room store and unread counters and runs every
// session and message operation against them.
type Engine struct {
	mu       sync.RWMutex
	sender   Sender
	registry *registry
	rooms    *roomStore
	unread   unreadCounters
	outbox   []pubsub.Message

	publisher       pubsub.Publisher
	logger          *slog.Logger
	historyLimit    int
	initialPageSize int
	defaultPageSize int
	roomSoftLimit   int
	now             func() time.Time
	newID           func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithHistoryLimit caps each room's log. Non-positive values are ignored.
func WithHistoryLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.historyLimit = n
		}
	}
}

// WithInitialPageSize sets how many messages a joining connection receives.
func WithInitialPageSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.initialPageSize = n
		}
	}
}

// WithDefaultPageSize sets the page size used when a fetch omits it.
func WithDefaultPageSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.defaultPageSize = n
		}
	}
}

// WithRoomSoftLimit sets the room count above which a warning is logged.
// Zero disables the warning.
func WithRoomSoftLimit(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.roomSoftLimit = n
		}
	}
}

// WithPublisher publishes domain events to p after each state change.
func WithPublisher(p pubsub.Publisher) Option {
	return func(e *Engine) {
		if p != nil {
			e.publisher = p
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithIDGenerator overrides message id generation.
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) {
		if newID != nil {
			e.newID = newID
		}
	}
}

// NewEngine creates an engine that emits through sender.
func NewEngine(sender Sender, opts ...Option) *Engine {
	e := &Engine{
		sender:          sender,
		registry:        newRegistry(),
		unread:          make(unreadCounters),
		publisher:       pubsub.Nop{},
		logger:          slog.Default().With("component", "chat"),
		historyLimit:    defaultHistoryLimit,
		initialPageSize: defaultInitialPageSize,
		defaultPageSize: defaultPageSize,
		roomSoftLimit:   defaultRoomSoftLimit,
		now:             time.Now,
		newID:           uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.rooms = newRoomStore(e.historyLimit, e.roomSoftLimit, e.logger)
	return e
}

// lock takes the write lock; every mutating operation pairs it with unlock.
func (e *Engine) lock() {
	e.mu.Lock()
}

// unlock releases the write lock and publishes the domain events recorded
// while it was held.
func (e *Engine) unlock() {
	events := e.outbox
	e.outbox = nil
	e.mu.Unlock()

	for _, msg := range events {
		if err := e.publisher.Publish(context.Background(), msg); err != nil {
			e.logger.Warn("Failed to publish domain event", "topic", msg.Topic, "error", err)
		}
	}
}

// record queues a domain event for publication once the lock is released.
func (e *Engine) record(topic, connID string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		e.logger.Error("Failed to encode domain event", "topic", topic, "error", err)
		return
	}
	e.outbox = append(e.outbox, pubsub.Message{
		Topic:        topic,
		ConnectionID: connID,
		Payload:      payload,
	})
}

func (e *Engine) encode(event, ack string, data any) []byte {
	frame, err := json.Marshal(Frame{Event: event, Ack: ack, Data: data})
	if err != nil {
		e.logger.Error("Failed to encode outbound event", "event", event, "error", err)
		return nil
	}
	return frame
}

// emit sends one event to one connection.
func (e *Engine) emit(connID, event string, data any) bool {
	frame := e.encode(event, "", data)
	if frame == nil {
		return false
	}
	return e.sender.Send(connID, frame)
}

// emitRoom sends one event to every connection currently in room.
func (e *Engine) emitRoom(room, event string, data any) {
	members := e.registry.listByRoom(room)
	if len(members) == 0 {
		return
	}
	frame := e.encode(event, "", data)
	if frame == nil {
		return
	}
	for _, p := range members {
		if !e.sender.Send(p.ID, frame) {
			e.logger.Debug("Dropped room event for unreachable connection",
				"event", event,
				"room", room,
				"conn_id", p.ID)
		}
	}
}

// Ack writes an acknowledgment frame correlated by token.
func (e *Engine) Ack(connID, token string, data any) {
	if token == "" {
		return
	}
	if frame := e.encode(EventAck, token, data); frame != nil {
		e.sender.Send(connID, frame)
	}
}

// Connected greets a new transport connection with its id.
func (e *Engine) Connected(connID string) {
	e.emit(connID, EventConnected, connectedEvent{ID: connID})
}

// identity resolves the display name and room for connID, falling back to
// the anonymous defaults for connections that never joined.
func (e *Engine) identity(connID string) (string, string) {
	p, ok := e.registry.get(connID)
	if !ok {
		return AnonymousSender, DefaultRoom
	}
	return p.Username, p.Room
}

func (e *Engine) timestamp() string {
	return e.now().UTC().Format(isoLayout)
}

// Users returns every registered profile in registration order.
func (e *Engine) Users() []Profile {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.registry.all()
}

// UsersInRoom returns the presence snapshot for room.
func (e *Engine) UsersInRoom(room string) []Profile {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.registry.listByRoom(room)
}

// Profile returns the registered profile for connID.
func (e *Engine) Profile(connID string) (Profile, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.registry.get(connID)
}

// TypingUsers returns the usernames currently typing in room.
func (e *Engine) TypingUsers(room string) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.rooms.typingUsers(room)
}

// UnreadCount returns connID's private-message counter.
func (e *Engine) UnreadCount(connID string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.unread.get(connID)
}

// Stats reports the number of registered connections and known rooms.
func (e *Engine) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Stats{
		Connections: e.registry.count(),
		Rooms:       e.rooms.count(),
	}
}
