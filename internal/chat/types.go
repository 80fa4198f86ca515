package chat

import (
	"errors"
	"slices"
)

const (
	// DefaultRoom is used when a join omits the room and for connections that
	// send before joining.
	DefaultRoom = "global"

	// AnonymousSender is the display name stamped on messages from connections
	// that never joined.
	AnonymousSender = "Anonymous"

	// isoLayout matches the millisecond ISO-8601 timestamps clients expect.
	isoLayout = "2006-01-02T15:04:05.000Z07:00"
)

var (
	// ErrUnknownConnection reports an operation on a connection id that is
	// not registered. The wire protocol stays silent about it.
	ErrUnknownConnection = errors.New("chat: unknown connection")
	// ErrRecipientUnavailable reports a private message whose recipient is
	// registered but whose transport refused the frame, e.g. a connection
	// being evicted for a full send buffer.
	ErrRecipientUnavailable = errors.New("chat: recipient unavailable")
	// ErrMessageNotFound reports a reaction, read receipt or delivery ack for
	// a message id that is not in the given room's log.
	ErrMessageNotFound = errors.New("chat: message not found")
	// ErrAlreadyRead reports a repeated read receipt from the same connection.
	ErrAlreadyRead = errors.New("chat: message already read by connection")
	// ErrUnknownEvent reports an inbound event name the engine does not handle.
	ErrUnknownEvent = errors.New("chat: unknown event")
	// ErrMalformedPayload reports an inbound frame that could not be decoded.
	ErrMalformedPayload = errors.New("chat: malformed payload")
)

// FileAttachment is an inline file carried by a message.
type FileAttachment struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Data string `json:"data"`
}

// Message is a room or private chat message. Only Reactions and ReadBy change
// after creation.
type Message struct {
	ID        string          `json:"id"`
	Room      string          `json:"room,omitempty"`
	Sender    string          `json:"sender"`
	SenderID  string          `json:"senderId"`
	To        string          `json:"to,omitempty"`
	Text      string          `json:"message"`
	File      *FileAttachment `json:"file"`
	IsPrivate bool            `json:"isPrivate"`
	System    bool            `json:"system,omitempty"`
	Timestamp string          `json:"timestamp"`
	Reactions map[string]int  `json:"reactions"`
	ReadBy    []string        `json:"readBy"`
}

// clone returns a deep copy that can leave the engine lock safely.
func (m *Message) clone() Message {
	c := *m
	if m.File != nil {
		f := *m.File
		c.File = &f
	}
	c.Reactions = make(map[string]int, len(m.Reactions))
	for k, v := range m.Reactions {
		c.Reactions[k] = v
	}
	c.ReadBy = slices.Clone(m.ReadBy)
	if c.ReadBy == nil {
		c.ReadBy = []string{}
	}
	return c
}

// Profile is the presence record of one registered connection.
type Profile struct {
	Username string `json:"username"`
	ID       string `json:"id"`
	Room     string `json:"currentRoom"`
}

// Page is one slice of a room's history, newest page first.
type Page struct {
	Room     string    `json:"room"`
	Page     int       `json:"page"`
	Messages []Message `json:"messages"`
}

// Stats summarises the engine's live state.
type Stats struct {
	Connections int `json:"connections"`
	Rooms       int `json:"rooms"`
}
