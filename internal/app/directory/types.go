/*
Package directory holds the in-memory registry of users and rooms.

This file defines the data types exchanged with the rest of the application:
user and room snapshots, presence status values, room types, and the result of
the room admission state machine.
*/
package directory

import "strings"

// Status describes the presence state of a user.
type Status string

const (
	StatusOnline  Status = "online"
	StatusAway    Status = "away"
	StatusOffline Status = "offline"
	StatusBusy    Status = "busy"
)

// RoomType distinguishes open rooms from capacity-limited private ones.
type RoomType string

const (
	// RoomPublic rooms accept any number of members.
	RoomPublic RoomType = "public"

	// RoomPrivate rooms accept at most PrivateMaxMembers members.
	RoomPrivate RoomType = "private"
)

// PrivateMaxMembers is the member capacity of a private room.
const PrivateMaxMembers = 2

// User is an immutable snapshot of a directory user record.
// Rooms lists the normalized ids of every room the user belongs to,
// sorted for stable iteration.
type User struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Avatar   string   `json:"avatar,omitempty"`
	Status   Status   `json:"status"`
	Tagline  string   `json:"tagline,omitempty"`
	Rooms    []string `json:"-"`
}

// Room is an immutable snapshot of a directory room record.
// Members lists the ids of every user in the room.
type Room struct {
	ID      string   `json:"id"`
	Type    RoomType `json:"type"`
	Title   string   `json:"title,omitempty"`
	Members []string `json:"-"`
}

// Candidate carries the fields a client supplies when joining for the first time.
type Candidate struct {
	Username string
	Room     string
	Avatar   string
	Status   Status
	Tagline  string
}

// JoinResult is the outcome of the room admission state machine.
type JoinResult int

const (
	// JoinInvalid means the room was in a structurally invalid state.
	JoinInvalid JoinResult = iota

	// JoinCreated means the room did not exist and was created for the caller.
	JoinCreated

	// JoinJoined means the caller was admitted to an existing room.
	JoinJoined

	// JoinFull means a private room was already at capacity.
	JoinFull
)

// String returns the wire name of the result, as echoed to the caller.
func (r JoinResult) String() string {
	switch r {
	case JoinCreated:
		return "created"
	case JoinJoined:
		return "joined"
	case JoinFull:
		return "full"
	default:
		return "invalid"
	}
}

// Normalize trims surrounding whitespace and lowercases s.
// Every username and room id comparison happens on normalized values.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ValidRoomType reports whether t is a known room type.
func ValidRoomType(t RoomType) bool {
	return t == RoomPublic || t == RoomPrivate
}
