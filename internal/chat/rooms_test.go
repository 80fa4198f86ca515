package chat

import (
	"fmt"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fillRoom(s *roomStore, room string, n int) {
	for i := 0; i < n; i++ {
		s.append(room, &Message{ID: fmt.Sprintf("m%d", i), Room: room})
	}
}

func ids(messages []*Message) []string {
	out := make([]string, len(messages))
	for i, m := range messages {
		out[i] = m.ID
	}
	return out
}

// TestRoomStoreAppendEvictsOldest verifies that the log never exceeds its
// limit and keeps exactly the newest entries in arrival order.
func TestRoomStoreAppendEvictsOldest(t *testing.T) {
	s := newRoomStore(500, 0, slog.Default())

	for i := 0; i < 1200; i++ {
		s.append("global", &Message{ID: fmt.Sprintf("m%d", i)})
		require.LessOrEqual(t, len(s.rooms["global"].log), 500)
	}

	log := s.rooms["global"].log
	require.Len(t, log, 500)
	for i, m := range log {
		assert.Equal(t, fmt.Sprintf("m%d", 700+i), m.ID)
	}
}

func TestRoomStorePage(t *testing.T) {
	s := newRoomStore(500, 0, slog.Default())
	fillRoom(s, "global", 15)

	tests := []struct {
		name     string
		page     int
		pageSize int
		want     []string
	}{
		{name: "newest page", page: 1, pageSize: 5, want: []string{"m10", "m11", "m12", "m13", "m14"}},
		{name: "second page", page: 2, pageSize: 5, want: []string{"m5", "m6", "m7", "m8", "m9"}},
		{name: "partial oldest page", page: 2, pageSize: 10, want: []string{"m0", "m1", "m2", "m3", "m4"}},
		{name: "page larger than history", page: 1, pageSize: 20, want: ids(s.rooms["global"].log)},
		{name: "beyond history", page: 2, pageSize: 20, want: []string{}},
		{name: "far beyond history", page: 40, pageSize: 3, want: []string{}},
		{name: "invalid page", page: 0, pageSize: 5, want: []string{}},
		{name: "huge page", page: 1 << 62, pageSize: 500, want: []string{}},
		{name: "huge page size", page: 5, pageSize: 1 << 62, want: []string{}},
		{name: "huge page size first page", page: 1, pageSize: 1 << 62, want: ids(s.rooms["global"].log)},
		{name: "max page", page: math.MaxInt, pageSize: math.MaxInt, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.page("global", tt.page, tt.pageSize)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

// TestRoomStorePagesPartitionLog walks every page with a fixed size and
// checks the pages tile the log with no gaps or duplicates.
func TestRoomStorePagesPartitionLog(t *testing.T) {
	s := newRoomStore(500, 0, slog.Default())
	fillRoom(s, "tech", 47)

	var rebuilt []string
	for page := 1; ; page++ {
		got := s.page("tech", page, 10)
		if len(got) == 0 {
			break
		}
		rebuilt = append(ids(got), rebuilt...)
	}

	assert.Equal(t, ids(s.rooms["tech"].log), rebuilt)
}

func TestRoomStorePageUnknownRoom(t *testing.T) {
	s := newRoomStore(500, 0, slog.Default())

	got := s.page("nowhere", 1, 20)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Equal(t, 0, s.count(), "reads must not create rooms")
}

func TestRoomStoreFindByID(t *testing.T) {
	s := newRoomStore(500, 0, slog.Default())
	fillRoom(s, "global", 3)

	assert.Equal(t, "m1", s.findByID("global", "m1").ID)
	assert.Nil(t, s.findByID("global", "missing"))
	assert.Nil(t, s.findByID("other", "m1"))
}

func TestRoomStoreSetTyping(t *testing.T) {
	s := newRoomStore(500, 0, slog.Default())

	names, changed := s.setTyping("global", "c1", "alice", true)
	assert.True(t, changed)
	assert.Equal(t, []string{"alice"}, names)

	names, changed = s.setTyping("global", "c2", "bob", true)
	assert.True(t, changed)
	assert.Equal(t, []string{"alice", "bob"}, names)

	names, changed = s.setTyping("global", "c1", "alice", true)
	assert.False(t, changed)
	assert.Equal(t, []string{"alice", "bob"}, names)

	names, changed = s.setTyping("global", "c1", "", false)
	assert.True(t, changed)
	assert.Equal(t, []string{"bob"}, names)

	names, changed = s.setTyping("global", "c1", "", false)
	assert.False(t, changed)
	assert.Equal(t, []string{"bob"}, names)

	names, changed = s.setTyping("elsewhere", "c1", "", false)
	assert.False(t, changed)
	assert.Empty(t, names)
	assert.Equal(t, 1, s.count())
}

func TestRoomStoreSoftLimitKeepsAccepting(t *testing.T) {
	s := newRoomStore(10, 2, slog.Default())

	for i := 0; i < 10; i++ {
		s.append(fmt.Sprintf("room-%d", i), &Message{ID: "x"})
	}

	assert.Equal(t, 10, s.count())
	assert.Equal(t, 16, s.warnAt)
}
