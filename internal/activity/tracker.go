// Package activity keeps running counters of chat domain events read from
// the event bus.
package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/Tyrowin/roomchat/internal/pubsub"
)

// roomTopic is the topic whose payloads are also counted per room.
const roomTopic = "chat.message.sent"

// Snapshot is a point-in-time copy of the tracker's counters.
type Snapshot struct {
	Events         map[string]int64 `json:"events"`
	MessagesByRoom map[string]int64 `json:"messagesByRoom"`
	LastEventAt    *time.Time       `json:"lastEventAt,omitempty"`
}

// Tracker counts events per topic and room messages per room.
type Tracker struct {
	mu       sync.RWMutex
	events   map[string]int64
	rooms    map[string]int64
	lastSeen time.Time
	now      func() time.Time
	logger   *slog.Logger
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		events: make(map[string]int64),
		rooms:  make(map[string]int64),
		now:    time.Now,
		logger: slog.Default().With("component", "activity"),
	}
}

// Start subscribes to every topic. Counting stops when ctx is canceled or the
// subscriber is closed.
func (t *Tracker) Start(ctx context.Context, sub pubsub.Subscriber, topics []string) error {
	for _, topic := range topics {
		if err := sub.Subscribe(ctx, topic, t.handle); err != nil {
			return fmt.Errorf("subscribe %s: %w", topic, err)
		}
	}
	t.logger.Debug("Activity tracker subscribed", "topics", len(topics))
	return nil
}

func (t *Tracker) handle(_ context.Context, msg pubsub.Message) error {
	var room string
	if msg.Topic == roomTopic {
		var payload struct {
			Room string `json:"room"`
		}
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return fmt.Errorf("decode %s payload: %w", msg.Topic, err)
		}
		room = payload.Room
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.events[msg.Topic]++
	if room != "" {
		t.rooms[room]++
	}
	t.lastSeen = t.now()
	return nil
}

// Snapshot returns a copy of the current counters.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s := Snapshot{
		Events:         maps.Clone(t.events),
		MessagesByRoom: maps.Clone(t.rooms),
	}
	if !t.lastSeen.IsZero() {
		last := t.lastSeen
		s.LastEventAt = &last
	}
	return s
}
