// Package chat implements the room, session and message-broadcast engine of
// the chat service.
//
// The Engine owns every piece of shared state: the connection registry, the
// per-room bounded message logs and typing tables, and the unread counters
// for private messages. Callers reach that state only through the Engine's
// operations, each of which runs under a single lock so that a
// read-modify-broadcast sequence (a reaction, a read receipt, a typing
// change) is atomic with respect to every other operation.
//
// Outbound events are handed to a Sender keyed by connection id. The engine
// never blocks on the transport: a Sender is expected to enqueue frames and
// report whether the connection was known.
package chat
