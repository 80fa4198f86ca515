package chat

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Envelope is the inbound frame format.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
	Ack   string          `json:"ack,omitempty"`
}

// Dispatch decodes one inbound frame from connID and runs the matching
// operation. Errors describe what was ignored; none of them is reported to
// the client and none leaves engine state half-updated.
func (e *Engine) Dispatch(connID string, raw []byte) error {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	switch env.Event {
	case EventJoin, EventUserJoin:
		var p JoinPayload
		if err := decode(env.Data, &p); err != nil {
			return err
		}
		e.Join(connID, p.Username, p.Room)

	case EventChangeRoom:
		var p ChangeRoomPayload
		if err := decode(env.Data, &p); err != nil {
			return err
		}
		return e.ChangeRoom(connID, p.NewRoom)

	case EventSendMessage:
		var p MessageInput
		if err := decode(env.Data, &p); err != nil {
			return err
		}
		e.Ack(connID, env.Ack, e.SendMessage(connID, p))

	case EventPrivateMessage:
		var p PrivateInput
		if err := decode(env.Data, &p); err != nil {
			return err
		}
		ack, err := e.SendPrivate(connID, p)
		e.Ack(connID, env.Ack, ack)
		return err

	case EventTyping:
		var p TypingPayload
		if err := decode(env.Data, &p); err != nil {
			return err
		}
		_, err := e.SetTyping(connID, p.IsTyping)
		return err

	case EventFetchMessages:
		var p FetchPayload
		if err := decode(env.Data, &p); err != nil {
			return err
		}
		e.Ack(connID, env.Ack, e.FetchMessages(p.Room, p.Page, p.PageSize))

	case EventMessageRead:
		var p MessageRef
		if err := decode(env.Data, &p); err != nil {
			return err
		}
		_, err := e.MarkRead(connID, p.MessageID, p.Room)
		return err

	case EventMessageReaction:
		var p ReactionPayload
		if err := decode(env.Data, &p); err != nil {
			return err
		}
		_, err := e.React(p.MessageID, p.Room, p.Reaction)
		return err

	case EventAckMessage:
		var p MessageRef
		if err := decode(env.Data, &p); err != nil {
			return err
		}
		return e.AckDelivery(connID, p.MessageID, p.Room)

	case EventResetUnread:
		e.AcknowledgeUnread(connID)

	case EventPingServer:
		e.Ack(connID, env.Ack, PingAck{OK: true, Time: e.timestamp()})

	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
	}

	return nil
}

// decode unmarshals an event's data. Absent or null data leaves v at its
// zero value, matching how missing fields are treated.
func decode(data json.RawMessage, v any) error {
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return nil
}
