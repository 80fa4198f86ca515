package chat

import "log/slog"

type typingEntry struct {
	connID   string
	username string
}

// room holds one room's bounded message log and typing table.
type room struct {
	log    []*Message
	typing []typingEntry
}

// roomStore lazily creates rooms on first write. Rooms are never removed;
// their number is monitored against a soft limit instead.
type roomStore struct {
	rooms     map[string]*room
	limit     int
	softLimit int
	warnAt    int
	logger    *slog.Logger
}

func newRoomStore(limit, softLimit int, logger *slog.Logger) *roomStore {
	return &roomStore{
		rooms:     make(map[string]*room),
		limit:     limit,
		softLimit: softLimit,
		warnAt:    softLimit,
		logger:    logger,
	}
}

func (s *roomStore) ensure(name string) *room {
	if r, ok := s.rooms[name]; ok {
		return r
	}
	r := &room{}
	s.rooms[name] = r

	if s.softLimit > 0 && len(s.rooms) > s.warnAt {
		s.logger.Warn("Room count exceeded soft limit",
			"rooms", len(s.rooms),
			"soft_limit", s.softLimit)
		s.warnAt *= 2
	}
	return r
}

// append pushes m onto the room's log, evicting the oldest entries so the
// log never exceeds the store's limit.
func (s *roomStore) append(name string, m *Message) {
	r := s.ensure(name)
	r.log = append(r.log, m)
	if over := len(r.log) - s.limit; over > 0 {
		clear(r.log[:over])
		r.log = r.log[over:]
	}
}

// page returns the page-th slice of pageSize messages counted back from the
// newest, oldest first within the slice. Pages past the start of history are
// empty.
func (s *roomStore) page(name string, page, pageSize int) []*Message {
	r, ok := s.rooms[name]
	if !ok || page < 1 || pageSize < 1 {
		return []*Message{}
	}

	total := len(r.log)
	pages := total / pageSize
	if total%pageSize != 0 {
		pages++
	}
	if page-1 >= pages {
		return []*Message{}
	}

	// page-1 < pages, so (page-1)*pageSize < total cannot overflow.
	end := total - (page-1)*pageSize
	start := max(0, end-pageSize)

	out := make([]*Message, end-start)
	copy(out, r.log[start:end])
	return out
}

func (s *roomStore) findByID(name, id string) *Message {
	r, ok := s.rooms[name]
	if !ok {
		return nil
	}
	for _, m := range r.log {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// setTyping adds or removes connID from the room's typing table and returns
// the full list of typing usernames along with whether the table changed.
func (s *roomStore) setTyping(name, connID, username string, typing bool) ([]string, bool) {
	r, ok := s.rooms[name]
	if !ok {
		if !typing {
			return []string{}, false
		}
		r = s.ensure(name)
	}

	idx := -1
	for i, e := range r.typing {
		if e.connID == connID {
			idx = i
			break
		}
	}

	changed := false
	switch {
	case typing && idx < 0:
		r.typing = append(r.typing, typingEntry{connID: connID, username: username})
		changed = true
	case typing && r.typing[idx].username != username:
		r.typing[idx].username = username
		changed = true
	case !typing && idx >= 0:
		r.typing = append(r.typing[:idx], r.typing[idx+1:]...)
		changed = true
	}

	return typingNames(r), changed
}

func (s *roomStore) typingUsers(name string) []string {
	r, ok := s.rooms[name]
	if !ok {
		return []string{}
	}
	return typingNames(r)
}

func typingNames(r *room) []string {
	names := make([]string, len(r.typing))
	for i, e := range r.typing {
		names[i] = e.username
	}
	return names
}

func (s *roomStore) count() int {
	return len(s.rooms)
}
