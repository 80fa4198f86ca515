package chat

import "slices"

func (e *Engine) newMessage(connID, username string, text string, file *FileAttachment) *Message {
	return &Message{
		ID:        e.newID(),
		Sender:    username,
		SenderID:  connID,
		Text:      text,
		File:      file,
		Timestamp: e.timestamp(),
		Reactions: map[string]int{},
		ReadBy:    []string{},
	}
}

// SendMessage stores a message in the sender's current room and broadcasts
// it to every connection in that room, the sender included. Empty messages
// are accepted.
func (e *Engine) SendMessage(connID string, in MessageInput) SendAck {
	e.lock()
	defer e.unlock()

	username, room := e.identity(connID)
	msg := e.newMessage(connID, username, in.Text, in.File)
	msg.Room = room

	e.rooms.append(room, msg)
	e.emitRoom(room, EventReceiveMessage, msg)
	e.record(TopicMessageSent, connID, msg)

	return SendAck{OK: true, ID: msg.ID, Timestamp: msg.Timestamp}
}

// SendPrivate delivers a message to the recipient and echoes it to the
// sender. It is never stored. The recipient's unread counter is incremented
// and pushed to it only when the message was delivered. When it was not, a
// valid ack is still returned alongside ErrUnknownConnection for a recipient
// that never joined, or ErrRecipientUnavailable for a registered recipient
// the transport refused.
func (e *Engine) SendPrivate(connID string, in PrivateInput) (PrivateAck, error) {
	e.lock()
	defer e.unlock()

	username, _ := e.identity(connID)
	msg := e.newMessage(connID, username, in.Text, in.File)
	msg.To = in.To
	msg.IsPrivate = true

	ack := PrivateAck{OK: true, ID: msg.ID}

	delivered := false
	if in.To != "" && in.To != connID {
		delivered = e.emit(in.To, EventPrivateMessage, msg)
	}
	echoed := e.emit(connID, EventPrivateMessage, msg)
	if in.To == connID {
		delivered = echoed
	}

	e.record(TopicPrivateSent, connID, msg)

	if !delivered {
		e.logger.Debug("Private message recipient unreachable", "conn_id", connID, "to", in.To)
		if _, ok := e.registry.get(in.To); ok {
			return ack, ErrRecipientUnavailable
		}
		return ack, ErrUnknownConnection
	}

	count := e.unread.increment(in.To)
	e.emit(in.To, EventUnreadCount, count)
	return ack, nil
}

// AcknowledgeUnread resets connID's unread counter and pushes the zero.
func (e *Engine) AcknowledgeUnread(connID string) {
	e.lock()
	defer e.unlock()

	e.unread.reset(connID)
	e.emit(connID, EventUnreadCount, 0)
}

// React increments the tally for kind on a stored message and broadcasts the
// full tally to the room.
func (e *Engine) React(messageID, room, kind string) (map[string]int, error) {
	e.lock()
	defer e.unlock()

	msg := e.rooms.findByID(room, messageID)
	if msg == nil {
		return nil, ErrMessageNotFound
	}

	msg.Reactions[kind]++
	e.emitRoom(room, EventReactionUpdate, reactionUpdateEvent{MessageID: messageID, Reactions: msg.Reactions})
	e.record(TopicMessageReaction, "", reactionEvent{MessageID: messageID, Room: room, Reaction: kind})

	return msg.clone().Reactions, nil
}

// MarkRead adds connID to a stored message's readBy set and broadcasts the
// set to the room. A repeat from the same connection changes nothing and
// returns ErrAlreadyRead.
func (e *Engine) MarkRead(connID, messageID, room string) ([]string, error) {
	e.lock()
	defer e.unlock()

	msg := e.rooms.findByID(room, messageID)
	if msg == nil {
		return nil, ErrMessageNotFound
	}
	if slices.Contains(msg.ReadBy, connID) {
		return slices.Clone(msg.ReadBy), ErrAlreadyRead
	}

	msg.ReadBy = append(msg.ReadBy, connID)
	e.emitRoom(room, EventMessageReadUpdate, readUpdateEvent{MessageID: messageID, ReadBy: msg.ReadBy})
	e.record(TopicMessageRead, connID, readEvent{MessageID: messageID, Room: room, ReaderID: connID})

	return slices.Clone(msg.ReadBy), nil
}

// AckDelivery tells room that connID has received a stored message.
func (e *Engine) AckDelivery(connID, messageID, room string) error {
	e.lock()
	defer e.unlock()

	if e.rooms.findByID(room, messageID) == nil {
		return ErrMessageNotFound
	}

	e.emitRoom(room, EventMessageDelivered, deliveredEvent{MessageID: messageID, To: connID})
	e.record(TopicMessageDelivered, connID, deliveredEvent{MessageID: messageID, To: connID})
	return nil
}

// FetchMessages returns one page of room's history. Non-positive page and
// pageSize fall back to 1 and the default page size; pageSize is capped at
// the history limit. Pages past the end of history are empty.
func (e *Engine) FetchMessages(room string, page, pageSize int) Page {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = e.defaultPageSize
	}
	pageSize = min(pageSize, e.historyLimit)

	e.mu.RLock()
	defer e.mu.RUnlock()

	stored := e.rooms.page(room, page, pageSize)
	messages := make([]Message, len(stored))
	for i, m := range stored {
		messages[i] = m.clone()
	}
	return Page{Room: room, Page: page, Messages: messages}
}
