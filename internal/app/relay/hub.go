/*
Package relay contains the core logic for routing client connections into
rooms and fanning typed events out to the right set of connections.

This file defines the Hub, the single coordinator for all live connections.
It owns the connection set, the user-to-connection index, and the dispatch
table mapping event names to handlers. Each inbound event is handled to
completion on its connection's read goroutine; the hub only takes its own
lock to resolve fan-out targets, while all membership state lives in the
Directory behind the Directory's lock.
*/
package relay

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"partyrelay/internal/app/directory"
	"partyrelay/internal/app/history"
	"partyrelay/internal/pkg/errs"
	"partyrelay/internal/pkg/logx"
	"partyrelay/internal/pkg/randx"
)

// retentionTimeout bounds a single history write.
const retentionTimeout = 2 * time.Second

// eventHandler processes one inbound event for a connection.
type eventHandler func(c *Client, env Envelope)

// Hub coordinates all live connections and routes events between them.
type Hub struct {
	// mu protects clients and byUser.
	mu sync.RWMutex

	// clients is the set of every live connection, associated or not.
	clients map[*Client]struct{}

	// byUser indexes associated connections by their user id.
	byUser map[string]*Client

	// directory owns all user and room membership state.
	directory *directory.Directory

	// history retains relayed chat messages for the room history endpoint.
	history history.Store

	// handlers is the dispatch table from event name to handler.
	handlers map[string]eventHandler

	logger zerolog.Logger
}

// NewHub constructs a Hub bound to the given directory and history store.
func NewHub(dir *directory.Directory, hist history.Store) *Hub {
	h := &Hub{
		clients:   make(map[*Client]struct{}),
		byUser:    make(map[string]*Client),
		directory: dir,
		history:   hist,
		logger:    logx.Logger().With().Str("component", "Hub").Logger(),
	}

	h.handlers = map[string]eventHandler{
		EventUserJoin:  h.handleUserJoin,
		EventRoomJoin:  h.handleRoomJoin,
		EventRoomLeave: h.handleRoomLeave,

		EventNewMessage: h.handleNewMessage,

		EventTyping:        h.relayToRoom,
		EventStopTyping:    h.relayToRoom,
		EventSendCall:      h.relayToRoom,
		EventCallAnswer:    h.relayToRoom,
		EventSendFile:      h.relayToRoom,
		EventAcceptFile:    h.relayToRoom,
		EventPlayerReady:   h.relayToRoom,
		EventPlayerCommand: h.relayToRoom,
		EventPlayerContent: h.relayToRoom,
		EventPlayerStatus:  h.relayToRoom,
		EventPing:          h.relayToRoom,

		EventPublicRooms: h.relayGlobal,
		EventPeerMessage: h.relayGlobal,
		EventPeerFile:    h.relayGlobal,
		EventGoPrivate:   h.relayGlobal,
	}

	return h
}

// Register adds a live connection to the hub. The connection stays
// unassociated until its user_join event succeeds.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// Dispatch routes one raw inbound frame from the connection to its handler.
// Unknown event names are rejected with an error event to the sender.
func (h *Hub) Dispatch(c *Client, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.log().Warn().Err(err).Msg("Client sent invalid JSON frame.")
		c.SendError(errs.NewError(errs.ErrInvalidJSONFormat))
		return
	}

	handler, ok := h.handlers[env.Event]
	if !ok {
		c.log().Warn().Str("event", env.Event).Msg("Client sent unknown event.")
		c.SendError(errs.NewError(errs.ErrUnknownEvent))
		return
	}

	handler(c, env)
}

// Disconnect tears a connection down. It is idempotent: duplicate disconnect
// notifications from the transport are safe. If the connection was
// associated, the user is removed from the directory and a users_update is
// announced to every room it belonged to. An unassociated disconnect is a
// pure no-op beyond dropping the connection.
func (h *Hub) Disconnect(c *Client) {
	h.mu.Lock()
	if _, live := h.clients[c]; !live {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)

	userID := c.UserID()
	if userID != "" {
		delete(h.byUser, userID)
	}
	h.mu.Unlock()

	c.close()

	if userID == "" {
		return
	}

	removed, ok := h.directory.RemoveUser(userID)
	if !ok {
		return
	}

	for _, roomID := range removed.Rooms {
		h.announceMembers(roomID)
	}

	h.logger.Info().
		Str("user_id", userID).
		Str("username", removed.Username).
		Msg("Client disconnected and removed from directory.")
}

// Shutdown drops every live connection.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[*Client]struct{})
	h.byUser = make(map[string]*Client)
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
	}

	h.logger.Info().Int("connections", len(clients)).Msg("Hub shutdown complete.")
}

// BroadcastRoom delivers an event to every current member of the room,
// skipping exclude when non-nil. The membership snapshot is read at the
// moment of relay.
func (h *Hub) BroadcastRoom(roomID string, exclude *Client, event string, payload any) {
	data, err := marshalEnvelope(event, roomID, payload)
	if err != nil {
		h.logger.Error().Err(err).Str("event", event).Msg("Failed to marshal room broadcast.")
		return
	}

	members := h.directory.UsersInRoom(roomID)

	h.mu.RLock()
	for _, member := range members {
		if c := h.byUser[member.ID]; c != nil && c != exclude {
			c.enqueue(data)
		}
	}
	h.mu.RUnlock()
}

// BroadcastAll delivers an event to every live connection except exclude.
func (h *Hub) BroadcastAll(exclude *Client, event string, payload any) {
	data, err := marshalEnvelope(event, "", payload)
	if err != nil {
		h.logger.Error().Err(err).Str("event", event).Msg("Failed to marshal global broadcast.")
		return
	}

	h.mu.RLock()
	for c := range h.clients {
		if c != exclude {
			c.enqueue(data)
		}
	}
	h.mu.RUnlock()
}

// announceMembers broadcasts a users_update with the room's current member
// list, to every member including the one that triggered the change.
func (h *Hub) announceMembers(roomID string) {
	users := h.directory.UsersInRoom(roomID)
	if users == nil {
		users = []directory.User{}
	}

	h.BroadcastRoom(roomID, nil, EventUsersUpdate, UsersUpdatePayload{
		Room:  roomID,
		Users: users,
	})
}

// handleUserJoin associates the connection with a fresh user identity and its
// first room. The transition happens at most once per connection; a repeat
// user_join on an associated connection is ignored.
func (h *Hub) handleUserJoin(c *Client, env Envelope) {
	if c.UserID() != "" {
		c.log().Debug().Msg("Ignoring user_join on an already associated connection.")
		return
	}

	var payload UserJoinPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		c.log().Warn().Err(err).Msg("Client sent invalid user_join payload.")
		c.SendError(errs.NewError(errs.ErrInvalidParams))
		return
	}

	user, customErr := h.directory.AddUser(directory.Candidate{
		Username: payload.User.Username,
		Room:     payload.Room,
		Avatar:   payload.User.Avatar,
		Status:   directory.Status(payload.User.Status),
		Tagline:  payload.User.Tagline,
	})
	if customErr != nil {
		c.SendError(customErr)
		return
	}

	roomID := user.Rooms[0]

	c.setUser(user)

	h.mu.Lock()
	h.byUser[user.ID] = c
	h.mu.Unlock()

	members := h.directory.UsersInRoom(roomID)

	c.sendEvent(EventLogin, roomID, LoginPayload{
		User:     user,
		Room:     roomID,
		NumUsers: len(members),
	})

	h.announceMembers(roomID)
}

// handleRoomJoin runs the create-or-join admission state machine and echoes
// the outcome to the sender. Created and joined outcomes also announce the
// updated member list to the room.
func (h *Hub) handleRoomJoin(c *Client, env Envelope) {
	userID := c.UserID()
	if userID == "" {
		c.SendError(errs.NewError(errs.ErrNotJoined))
		return
	}

	var payload RoomJoinPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		c.log().Warn().Err(err).Msg("Client sent invalid room_join payload.")
		c.SendError(errs.NewError(errs.ErrInvalidParams))
		return
	}

	result, room, customErr := h.directory.JoinOrCreate(
		userID,
		payload.Room.ID,
		directory.RoomType(payload.Room.Type),
	)
	if customErr != nil {
		c.SendError(customErr)
		return
	}

	users := h.directory.UsersInRoom(room.ID)

	c.sendEvent(EventRoomJoin, room.ID, RoomJoinResult{
		Room: RoomInfo{
			ID:    room.ID,
			Type:  string(room.Type),
			Users: users,
		},
		Result: result.String(),
	})

	if result == directory.JoinCreated || result == directory.JoinJoined {
		h.announceMembers(room.ID)
	}
}

// handleRoomLeave removes the sender from the room and announces the
// remaining members.
func (h *Hub) handleRoomLeave(c *Client, env Envelope) {
	userID := c.UserID()
	if userID == "" {
		c.SendError(errs.NewError(errs.ErrNotJoined))
		return
	}

	roomID := directory.Normalize(env.Room)

	remaining, ok := h.directory.Leave(userID, roomID)
	if !ok {
		c.SendError(errs.NewError(errs.ErrInvalidRoom))
		return
	}

	if remaining == nil {
		remaining = []directory.User{}
	}

	h.BroadcastRoom(roomID, nil, EventUsersUpdate, UsersUpdatePayload{
		Room:  roomID,
		Users: remaining,
	})
}

// handleNewMessage relays a chat message to the rest of the room and hands a
// copy to the history store. Retention failures never affect the relay.
func (h *Hub) handleNewMessage(c *Client, env Envelope) {
	roomID, ok := h.roomScope(c, env)
	if !ok {
		return
	}

	var payload MessagePayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		c.log().Warn().Err(err).Msg("Client sent invalid new_message payload.")
		c.SendError(errs.NewError(errs.ErrInvalidParams))
		return
	}

	h.BroadcastRoom(roomID, c, EventNewMessage, env.Payload)

	if payload.SentBy == "" {
		payload.SentBy = c.Username()
	}
	if payload.SentAt.IsZero() {
		payload.SentAt = time.Now().UTC()
	}

	msg := history.Message{
		ID:     randx.MessageID(),
		Room:   roomID,
		SentBy: payload.SentBy,
		SentAt: payload.SentAt,
		SeenAt: payload.SeenAt,
		Body:   payload.Message,
	}

	// Retention runs off the read goroutine; a slow store must not stall
	// the sender's event stream.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), retentionTimeout)
		defer cancel()

		if err := h.history.Append(ctx, msg); err != nil {
			h.logger.Error().Err(err).Str("room", roomID).Msg("Failed to retain message.")
		}
	}()
}

// relayToRoom forwards the payload verbatim to every other member of the
// sender's room.
func (h *Hub) relayToRoom(c *Client, env Envelope) {
	roomID, ok := h.roomScope(c, env)
	if !ok {
		return
	}

	h.BroadcastRoom(roomID, c, env.Event, env.Payload)
}

// relayGlobal forwards the payload verbatim to every other live connection.
// This covers the legacy lobby-wide events carried over from the original
// protocol variants.
func (h *Hub) relayGlobal(c *Client, env Envelope) {
	h.BroadcastAll(c, env.Event, env.Payload)
}

// roomScope validates that a room-scoped event names a room the sender is a
// member of. A missing or foreign room is a caller error reported to the
// sender only.
func (h *Hub) roomScope(c *Client, env Envelope) (string, bool) {
	userID := c.UserID()
	if userID == "" {
		c.SendError(errs.NewError(errs.ErrNotJoined))
		return "", false
	}

	roomID := directory.Normalize(env.Room)
	if roomID == "" || !h.directory.IsMember(userID, roomID) {
		c.SendError(errs.NewError(errs.ErrInvalidRoom))
		return "", false
	}

	return roomID, true
}

// marshalEnvelope builds the wire frame for an outbound event.
func marshalEnvelope(event, room string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return json.Marshal(Envelope{
		Event:   event,
		Room:    room,
		Payload: raw,
	})
}
