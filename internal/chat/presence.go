package chat

// broadcastPresence sends room's full member list to everyone in it.
func (e *Engine) broadcastPresence(room string) {
	e.emitRoom(room, EventUserList, e.registry.listByRoom(room))
}

func (e *Engine) broadcastTyping(room string, names []string) {
	e.emitRoom(room, EventTypingUsers, names)
}

// clearTyping drops connID from room's typing table and re-broadcasts the
// table if it changed.
func (e *Engine) clearTyping(room, connID string) {
	if names, changed := e.rooms.setTyping(room, connID, "", false); changed {
		e.broadcastTyping(room, names)
	}
}

// SetTyping records whether connID is typing in its current room and
// broadcasts the room's typing list. It returns that list. A connection
// that never joined has no room to type in and gets ErrUnknownConnection.
func (e *Engine) SetTyping(connID string, isTyping bool) ([]string, error) {
	e.lock()
	defer e.unlock()

	p, ok := e.registry.get(connID)
	if !ok {
		return nil, ErrUnknownConnection
	}

	names, _ := e.rooms.setTyping(p.Room, connID, p.Username, isTyping)
	e.broadcastTyping(p.Room, names)
	return names, nil
}
