// Package server implements the HTTP and WebSocket transport of roomchat.
//
// A Hub owns every live websocket Client and feeds their frames, one at a
// time, into the chat engine, which answers through Hub.Send. The
// implementation is organized into specialized files for configuration, hub
// management, clients, routing, and HTTP handlers.
package server
