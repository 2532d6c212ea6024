/*
Package history provides retention of relayed chat messages per room.

Retention is optional for the relay itself; the Store interface lets the
server run with a bounded in-memory buffer by default, or a Postgres-backed
store when a database is configured. Either way the relay path never blocks
on retention: writes are fire-and-forget from the hub's point of view.
*/
package history

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// DefaultPerRoomLimit bounds the in-memory buffer per room.
const DefaultPerRoomLimit = 200

// Message is one retained chat message.
// Body is the opaque message payload as relayed; the store never inspects it.
type Message struct {
	ID     string          `json:"id"`
	Room   string          `json:"room"`
	SentBy string          `json:"sentBy"`
	SentAt time.Time       `json:"sentAt"`
	SeenAt *time.Time      `json:"seenAt,omitempty"`
	Body   json.RawMessage `json:"message"`
}

// Store retains chat messages per room.
type Store interface {
	// Append records a message for its room.
	Append(ctx context.Context, msg Message) error

	// List returns up to limit retained messages for the room, oldest first.
	List(ctx context.Context, room string, limit int) ([]Message, error)
}

// MemoryStore is the default Store: a bounded per-room ring buffer.
// It retains nothing across restarts.
type MemoryStore struct {
	mu      sync.RWMutex
	perRoom int
	rooms   map[string][]Message
}

// NewMemoryStore creates a MemoryStore keeping at most perRoom messages per
// room. A non-positive perRoom falls back to DefaultPerRoomLimit.
func NewMemoryStore(perRoom int) *MemoryStore {
	if perRoom <= 0 {
		perRoom = DefaultPerRoomLimit
	}
	return &MemoryStore{
		perRoom: perRoom,
		rooms:   make(map[string][]Message),
	}
}

// Append records the message, evicting the oldest entry once the room buffer
// is full.
func (s *MemoryStore) Append(ctx context.Context, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := append(s.rooms[msg.Room], msg)
	if len(buf) > s.perRoom {
		buf = buf[len(buf)-s.perRoom:]
	}
	s.rooms[msg.Room] = buf

	return nil
}

// List returns up to limit messages for the room, oldest first.
func (s *MemoryStore) List(ctx context.Context, room string, limit int) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	buf := s.rooms[room]
	if limit > 0 && len(buf) > limit {
		buf = buf[len(buf)-limit:]
	}

	out := make([]Message, len(buf))
	copy(out, buf)

	return out, nil
}
