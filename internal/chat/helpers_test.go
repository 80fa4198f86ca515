package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Tyrowin/roomchat/internal/pubsub"
	"github.com/stretchr/testify/require"
)

// sentFrame is one decoded outbound frame captured by recordingSender.
type sentFrame struct {
	ConnID string
	Event  string          `json:"event"`
	Ack    string          `json:"ack"`
	Data   json.RawMessage `json:"data"`
}

// recordingSender captures every frame the engine emits. Only connections
// added with connect are reachable.
type recordingSender struct {
	mu     sync.Mutex
	known  map[string]bool
	frames []sentFrame
}

func newRecordingSender(ids ...string) *recordingSender {
	s := &recordingSender{known: make(map[string]bool)}
	for _, id := range ids {
		s.known[id] = true
	}
	return s
}

func (s *recordingSender) connect(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.known[id] = true
}

func (s *recordingSender) Send(connID string, frame []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.known[connID] {
		return false
	}
	var f sentFrame
	if err := json.Unmarshal(frame, &f); err != nil {
		panic(fmt.Sprintf("engine emitted invalid JSON: %v", err))
	}
	f.ConnID = connID
	s.frames = append(s.frames, f)
	return true
}

func (s *recordingSender) all() []sentFrame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sentFrame(nil), s.frames...)
}

func (s *recordingSender) framesFor(connID string) []sentFrame {
	var out []sentFrame
	for _, f := range s.all() {
		if f.ConnID == connID {
			out = append(out, f)
		}
	}
	return out
}

func (s *recordingSender) eventsFor(connID, event string) []sentFrame {
	var out []sentFrame
	for _, f := range s.framesFor(connID) {
		if f.Event == event {
			out = append(out, f)
		}
	}
	return out
}

func (s *recordingSender) eventNames(connID string) []string {
	var names []string
	for _, f := range s.framesFor(connID) {
		names = append(names, f.Event)
	}
	return names
}

func (s *recordingSender) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = nil
}

// lastData decodes the data of the newest event of the given kind sent to connID.
func lastData[T any](t *testing.T, s *recordingSender, connID, event string) T {
	t.Helper()
	frames := s.eventsFor(connID, event)
	require.NotEmpty(t, frames, "no %s event for %s", event, connID)
	var v T
	require.NoError(t, json.Unmarshal(frames[len(frames)-1].Data, &v))
	return v
}

// recordingPublisher captures published domain events.
type recordingPublisher struct {
	mu       sync.Mutex
	messages []pubsub.Message
}

func (p *recordingPublisher) Publish(_ context.Context, msg pubsub.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	topics := make([]string, len(p.messages))
	for i, m := range p.messages {
		topics[i] = m.Topic
	}
	return topics
}

// sequentialIDs returns an id generator yielding msg-1, msg-2, ...
func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("msg-%d", n)
	}
}

func fixedClock() func() time.Time {
	return func() time.Time {
		return time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	}
}

func newTestEngine(t *testing.T, sender *recordingSender, opts ...Option) *Engine {
	t.Helper()
	base := []Option{WithIDGenerator(sequentialIDs()), WithClock(fixedClock())}
	return NewEngine(sender, append(base, opts...)...)
}

func decodeInto(t *testing.T, data json.RawMessage, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(data, v))
}
