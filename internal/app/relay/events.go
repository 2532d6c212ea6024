/*
Package relay contains the core logic for routing client connections into
rooms and fanning typed events out to the right set of connections.

This file defines the wire contract: the event envelope, the canonical event
names, and the typed payloads the relay actually reads. Everything else a
client puts in a payload is treated as opaque and forwarded verbatim.
*/
package relay

import (
	"encoding/json"
	"time"

	"partyrelay/internal/app/directory"
)

// Client-originated event names.
const (
	// EventUserJoin associates the connection with a user identity and a
	// first room. A second user_join on an associated connection is a no-op.
	EventUserJoin = "user_join"

	// EventRoomJoin runs the create-or-join admission state machine for an
	// additional room.
	EventRoomJoin = "room_join"

	// EventRoomLeave removes the sender from a room it belongs to.
	EventRoomLeave = "room_leave"

	// Room-scoped events, relayed verbatim to every other member.
	EventNewMessage    = "new_message"
	EventTyping        = "typing"
	EventStopTyping    = "stop_typing"
	EventSendCall      = "send_call"
	EventCallAnswer    = "call_answer"
	EventSendFile      = "send_file"
	EventAcceptFile    = "accept_file"
	EventPlayerReady   = "player_ready"
	EventPlayerCommand = "player_command"
	EventPlayerContent = "player_content"
	EventPlayerStatus  = "player_status"
	EventPing          = "ping"

	// Legacy global events, relayed verbatim to every other connection.
	EventPublicRooms = "public_rooms"
	EventPeerMessage = "peer-msg"
	EventPeerFile    = "peer-file"
	EventGoPrivate   = "go-private"
)

// Server-originated event names.
const (
	// EventLogin confirms a successful user_join to the sender only.
	EventLogin = "login"

	// EventUsersUpdate announces a room's updated member list to every
	// member, the sender included.
	EventUsersUpdate = "users_update"

	// EventError reports a recoverable error to the originating connection only.
	EventError = "error"
)

// Envelope is the wire framing for every relay event, inbound and outbound.
type Envelope struct {
	Event   string          `json:"event"`
	Room    string          `json:"room,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Profile carries the identity fields a client supplies on user_join.
type Profile struct {
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
	Status   string `json:"status,omitempty"`
	Tagline  string `json:"tagline,omitempty"`
}

// UserJoinPayload is the inbound payload of a user_join event.
type UserJoinPayload struct {
	User Profile `json:"user"`
	Room string  `json:"room"`
}

// RoomJoinPayload is the inbound payload of a room_join event.
type RoomJoinPayload struct {
	Room struct {
		ID   string `json:"id"`
		Type string `json:"type,omitempty"`
	} `json:"room"`
}

// RoomInfo describes a room in server-originated payloads.
type RoomInfo struct {
	ID    string           `json:"id"`
	Type  string           `json:"type"`
	Users []directory.User `json:"users,omitempty"`
}

// RoomJoinResult echoes the admission outcome back to the sender.
type RoomJoinResult struct {
	Room   RoomInfo `json:"room"`
	Result string   `json:"result"`
}

// LoginPayload confirms a user_join to the sender.
type LoginPayload struct {
	User     directory.User `json:"user"`
	Room     string         `json:"room"`
	NumUsers int            `json:"numUsers"`
}

// UsersUpdatePayload announces a room's current member list.
type UsersUpdatePayload struct {
	Room  string           `json:"room"`
	Users []directory.User `json:"users"`
}

// MessagePayload is the portion of a new_message payload the relay reads for
// retention; the message body itself stays opaque.
type MessagePayload struct {
	Message json.RawMessage `json:"message"`
	SentAt  time.Time       `json:"sentAt"`
	SentBy  string          `json:"sentBy"`
	SeenAt  *time.Time      `json:"seenAt,omitempty"`
}

// ErrorPayload reports a recoverable error to the originating connection.
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
