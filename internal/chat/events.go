package chat

// Inbound event names.
const (
	EventJoin            = "join"
	EventUserJoin        = "user_join"
	EventChangeRoom      = "change_room"
	EventSendMessage     = "send_message"
	EventPrivateMessage  = "private_message"
	EventTyping          = "typing"
	EventFetchMessages   = "fetch_messages"
	EventMessageRead     = "message_read"
	EventMessageReaction = "message_reaction"
	EventAckMessage      = "ack_message"
	EventResetUnread     = "reset_unread"
	EventPingServer      = "ping_server"
)

// Outbound event names.
const (
	EventConnected         = "connected"
	EventAck               = "ack"
	EventInitialMessages   = "initial_messages"
	EventReceiveMessage    = "receive_message"
	EventUserList          = "user_list"
	EventUserJoined        = "user_joined"
	EventUserLeft          = "user_left"
	EventTypingUsers       = "typing_users"
	EventMessageReadUpdate = "message_read_update"
	EventReactionUpdate    = "message_reaction_update"
	EventMessageDelivered  = "message_delivered"
	EventUnreadCount       = "unread_count"
)

// Bus topics for domain events published after each state change.
const (
	TopicUserJoined       = "chat.user.joined"
	TopicUserLeft         = "chat.user.left"
	TopicRoomChanged      = "chat.user.room_changed"
	TopicMessageSent      = "chat.message.sent"
	TopicPrivateSent      = "chat.message.private"
	TopicMessageReaction  = "chat.message.reaction"
	TopicMessageRead      = "chat.message.read"
	TopicMessageDelivered = "chat.message.delivered"
)

// Topics lists every domain event topic the engine publishes.
var Topics = []string{
	TopicUserJoined,
	TopicUserLeft,
	TopicRoomChanged,
	TopicMessageSent,
	TopicPrivateSent,
	TopicMessageReaction,
	TopicMessageRead,
	TopicMessageDelivered,
}

// JoinPayload is the data of a join event.
type JoinPayload struct {
	Username string `json:"username"`
	Room     string `json:"room"`
}

// ChangeRoomPayload is the data of a change_room event.
type ChangeRoomPayload struct {
	NewRoom string `json:"newRoom"`
}

// MessageInput is the data of a send_message event.
type MessageInput struct {
	Text string          `json:"message"`
	File *FileAttachment `json:"file"`
}

// PrivateInput is the data of a private_message event.
type PrivateInput struct {
	To   string          `json:"toSocketId"`
	Text string          `json:"message"`
	File *FileAttachment `json:"file"`
}

// TypingPayload is the data of a typing event.
type TypingPayload struct {
	IsTyping bool `json:"isTyping"`
}

// FetchPayload is the data of a fetch_messages event.
type FetchPayload struct {
	Room     string `json:"room"`
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize"`
}

// MessageRef addresses a stored message; used by message_read and ack_message.
type MessageRef struct {
	MessageID string `json:"messageId"`
	Room      string `json:"room"`
}

// ReactionPayload is the data of a message_reaction event.
type ReactionPayload struct {
	MessageID string `json:"messageId"`
	Room      string `json:"room"`
	Reaction  string `json:"reaction"`
}

// SendAck acknowledges a room message.
type SendAck struct {
	OK        bool   `json:"ok"`
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
}

// PrivateAck acknowledges a private message.
type PrivateAck struct {
	OK bool   `json:"ok"`
	ID string `json:"id"`
}

// PingAck answers ping_server.
type PingAck struct {
	OK   bool   `json:"ok"`
	Time string `json:"time"`
}

type connectedEvent struct {
	ID string `json:"id"`
}

type userJoinedEvent struct {
	Username string `json:"username"`
	ID       string `json:"id"`
	Room     string `json:"room"`
}

type userLeftEvent struct {
	Username string `json:"username"`
	ID       string `json:"id"`
}

type initialMessagesEvent struct {
	Room     string     `json:"room"`
	Messages []*Message `json:"messages"`
}

type readUpdateEvent struct {
	MessageID string   `json:"messageId"`
	ReadBy    []string `json:"readBy"`
}

type reactionUpdateEvent struct {
	MessageID string         `json:"messageId"`
	Reactions map[string]int `json:"reactions"`
}

type deliveredEvent struct {
	MessageID string `json:"messageId"`
	To        string `json:"to"`
}

type roomChangedEvent struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	From     string `json:"from"`
	To       string `json:"to"`
}

type reactionEvent struct {
	MessageID string `json:"messageId"`
	Room      string `json:"room"`
	Reaction  string `json:"reaction"`
}

type readEvent struct {
	MessageID string `json:"messageId"`
	Room      string `json:"room"`
	ReaderID  string `json:"readerId"`
}
