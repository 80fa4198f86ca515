package chat

// Join registers connID under username in room (DefaultRoom when empty),
// broadcasts the room's presence and a user_joined notice, and sends the
// joining connection the newest page of the room's history.
//
// Joining again from a registered connection moves it: the room it was in
// gets the same departure treatment as a room change.
func (e *Engine) Join(connID, username, room string) {
	if room == "" {
		room = DefaultRoom
	}

	e.lock()
	defer e.unlock()

	prev, wasRegistered := e.registry.get(connID)
	e.registry.register(connID, username, room)
	e.rooms.ensure(room)

	if wasRegistered && prev.Room != room {
		e.depart(prev, prev.Room)
		e.record(TopicRoomChanged, connID, roomChangedEvent{
			ID: connID, Username: username, From: prev.Room, To: room,
		})
	}

	e.enter(connID, username, room)
	e.record(TopicUserJoined, connID, userJoinedEvent{Username: username, ID: connID, Room: room})
	e.logger.Info("User joined", "conn_id", connID, "username", username, "room", room)
}

// ChangeRoom moves a registered connection to newRoom. The old room loses
// the connection from its presence and typing lists and receives a
// user_left notice; the new room is entered as on Join.
func (e *Engine) ChangeRoom(connID, newRoom string) error {
	if newRoom == "" {
		return ErrMalformedPayload
	}

	e.lock()
	defer e.unlock()

	p, ok := e.registry.get(connID)
	if !ok {
		return ErrUnknownConnection
	}

	oldRoom := p.Room
	e.registry.setRoom(connID, newRoom)
	e.rooms.ensure(newRoom)

	if oldRoom != newRoom {
		e.depart(p, oldRoom)
	}
	e.enter(connID, p.Username, newRoom)

	e.record(TopicRoomChanged, connID, roomChangedEvent{
		ID: connID, Username: p.Username, From: oldRoom, To: newRoom,
	})
	e.logger.Info("User changed room", "conn_id", connID, "from", oldRoom, "to", newRoom)
	return nil
}

// Disconnect removes connID from the registry and tells its last room. A
// connection that never joined yields ErrUnknownConnection and no events.
func (e *Engine) Disconnect(connID string) error {
	e.lock()
	defer e.unlock()

	e.unread.reset(connID)

	p, ok := e.registry.unregister(connID)
	if !ok {
		return ErrUnknownConnection
	}

	e.depart(p, p.Room)
	e.record(TopicUserLeft, connID, userLeftEvent{Username: p.Username, ID: connID})
	e.logger.Info("User left", "conn_id", connID, "username", p.Username, "room", p.Room)
	return nil
}

// enter announces connID in room and sends it the initial history snapshot.
// The registry must already place connID in room.
func (e *Engine) enter(connID, username, room string) {
	e.broadcastPresence(room)
	e.emitRoom(room, EventUserJoined, userJoinedEvent{Username: username, ID: connID, Room: room})
	e.emit(connID, EventInitialMessages, initialMessagesEvent{
		Room:     room,
		Messages: e.rooms.page(room, 1, e.initialPageSize),
	})
}

// depart notifies room that p has left it. The registry must no longer place
// p in room.
func (e *Engine) depart(p Profile, room string) {
	e.clearTyping(room, p.ID)
	e.emitRoom(room, EventUserLeft, userLeftEvent{Username: p.Username, ID: p.ID})
	e.broadcastPresence(room)
}
