/*
Package directory holds the in-memory registry of users and rooms.

This file defines the Directory struct, the single owner of all user and room
state. Every mutation runs under one mutex, so joins, leaves, and membership
reads never observe a half-applied change. The room admission state machine
(JoinOrCreate) also lives here, next to the membership sets it reads.
*/
package directory

import (
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"partyrelay/internal/pkg/errs"
	"partyrelay/internal/pkg/logx"
	"partyrelay/internal/pkg/randx"
)

// userRecord is the mutable server-side state of a user.
type userRecord struct {
	id       string
	username string
	avatar   string
	status   Status
	tagline  string
	rooms    map[string]struct{}
}

// roomRecord is the mutable server-side state of a room.
type roomRecord struct {
	id      string
	rtype   RoomType
	title   string
	members map[string]struct{}
}

// Directory is the in-memory registry of users and rooms.
// It is instantiated once per server process; there is no ambient state.
type Directory struct {
	mu     sync.RWMutex
	users  map[string]*userRecord
	rooms  map[string]*roomRecord
	logger zerolog.Logger
}

// New constructs an empty Directory.
func New() *Directory {
	return &Directory{
		users:  make(map[string]*userRecord),
		rooms:  make(map[string]*roomRecord),
		logger: logx.Logger().With().Str("component", "Directory").Logger(),
	}
}

// AddUser registers a new user joining its first room.
// The username and room id are normalized before any check. It fails with
// ErrFieldsEmpty when either is blank, ErrUsernameTaken when the username is
// already present in the target room, and ErrRoomFull when the room is a
// private room at capacity. On success the room is created if absent (public
// by default) and both sides of the membership are recorded atomically.
func (d *Directory) AddUser(c Candidate) (User, *errs.CustomError) {
	username := Normalize(c.Username)
	roomID := Normalize(c.Room)

	if username == "" || roomID == "" {
		return User{}, errs.NewError(errs.ErrFieldsEmpty)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	room := d.rooms[roomID]

	if room != nil {
		if room.rtype == RoomPrivate && len(room.members) >= PrivateMaxMembers {
			return User{}, errs.NewError(errs.ErrRoomFull)
		}

		for memberID := range room.members {
			if member := d.users[memberID]; member != nil && member.username == username {
				return User{}, errs.NewError(errs.ErrUsernameTaken)
			}
		}
	}

	status := c.Status
	if status == "" {
		status = StatusOnline
	}

	record := &userRecord{
		id:       randx.UserID(),
		username: username,
		avatar:   c.Avatar,
		status:   status,
		tagline:  c.Tagline,
		rooms:    map[string]struct{}{roomID: {}},
	}

	if room == nil {
		room = &roomRecord{
			id:      roomID,
			rtype:   RoomPublic,
			members: make(map[string]struct{}),
		}
		d.rooms[roomID] = room
	}

	d.users[record.id] = record
	room.members[record.id] = struct{}{}

	d.logger.Info().
		Str("user_id", record.id).
		Str("username", username).
		Str("room", roomID).
		Int("room_members", len(room.members)).
		Msg("User registered.")

	return record.snapshot(), nil
}

// RemoveUser deletes the user and every membership it held.
// The returned snapshot still lists the rooms the user belonged to, so callers
// can announce the membership change per room. A missing user is not an
// error; the second return value is false and there is nothing to do.
func (d *Directory) RemoveUser(userID string) (User, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	record, ok := d.users[userID]
	if !ok {
		return User{}, false
	}

	removed := record.snapshot()
	delete(d.users, userID)

	for roomID := range record.rooms {
		if room := d.rooms[roomID]; room != nil {
			delete(room.members, userID)
			if len(room.members) == 0 {
				delete(d.rooms, roomID)
			}
		}
	}

	d.logger.Info().
		Str("user_id", userID).
		Str("username", removed.Username).
		Int("rooms", len(removed.Rooms)).
		Msg("User removed.")

	return removed, true
}

// GetUser returns a snapshot of the user with the given id.
func (d *Directory) GetUser(userID string) (User, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	record, ok := d.users[userID]
	if !ok {
		return User{}, false
	}
	return record.snapshot(), true
}

// GetRoom returns a snapshot of the room with the given (normalized) id.
func (d *Directory) GetRoom(roomID string) (Room, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	room, ok := d.rooms[Normalize(roomID)]
	if !ok {
		return Room{}, false
	}
	return room.snapshot(), true
}

// UsersInRoom returns snapshots of every member of the room, sorted by
// username so a given membership state always lists in the same order.
func (d *Directory) UsersInRoom(roomID string) []User {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.usersInRoomLocked(Normalize(roomID))
}

func (d *Directory) usersInRoomLocked(roomID string) []User {
	room := d.rooms[roomID]
	if room == nil {
		return nil
	}

	users := make([]User, 0, len(room.members))
	for memberID := range room.members {
		if record := d.users[memberID]; record != nil {
			users = append(users, record.snapshot())
		}
	}

	sort.Slice(users, func(i, j int) bool {
		if users[i].Username != users[j].Username {
			return users[i].Username < users[j].Username
		}
		return users[i].ID < users[j].ID
	})

	return users
}

// UsernameTaken reports whether the normalized username is already used by a
// member of the room. Duplicate usernames across different rooms are allowed.
func (d *Directory) UsernameTaken(roomID, username string) bool {
	roomID = Normalize(roomID)
	username = Normalize(username)

	d.mu.RLock()
	defer d.mu.RUnlock()

	room := d.rooms[roomID]
	if room == nil {
		return false
	}

	for memberID := range room.members {
		if member := d.users[memberID]; member != nil && member.username == username {
			return true
		}
	}

	return false
}

// IsMember reports whether the user currently belongs to the room.
func (d *Directory) IsMember(userID, roomID string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	record, ok := d.users[userID]
	if !ok {
		return false
	}

	_, member := record.rooms[Normalize(roomID)]
	return member
}

// PublicRooms returns snapshots of every public room, sorted by id.
func (d *Directory) PublicRooms() []Room {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rooms := make([]Room, 0, len(d.rooms))
	for _, room := range d.rooms {
		if room.rtype == RoomPublic {
			rooms = append(rooms, room.snapshot())
		}
	}

	sort.Slice(rooms, func(i, j int) bool { return rooms[i].ID < rooms[j].ID })

	return rooms
}

// CreateRoom registers a room explicitly, ahead of any member joining.
// An empty id gets a generated room code. It fails with ErrRoomExists when
// the normalized id is already registered and ErrRoomTypeInvalid for an
// unknown type.
func (d *Directory) CreateRoom(roomID string, rtype RoomType, title string) (Room, *errs.CustomError) {
	if rtype == "" {
		rtype = RoomPublic
	}
	if !ValidRoomType(rtype) {
		return Room{}, errs.NewError(errs.ErrRoomTypeInvalid)
	}

	roomID = Normalize(roomID)
	if roomID == "" {
		code, err := randx.RoomCode()
		if err != nil {
			return Room{}, errs.NewError(errs.ErrUnknown, err)
		}
		roomID = Normalize(code)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.rooms[roomID]; ok {
		return Room{}, errs.NewError(errs.ErrRoomExists)
	}

	room := &roomRecord{
		id:      roomID,
		rtype:   rtype,
		title:   title,
		members: make(map[string]struct{}),
	}
	d.rooms[roomID] = room

	d.logger.Info().
		Str("room", roomID).
		Str("type", string(rtype)).
		Msg("Room created.")

	return room.snapshot(), nil
}

// JoinOrCreate runs the room admission state machine for an existing user.
//
// The admission branch keys on the current member count:
//   - count 0: the room is created (or revived) for the caller -> JoinCreated.
//   - public room: the caller is always admitted -> JoinJoined.
//   - private room at capacity: the caller is turned away -> JoinFull.
//   - private room below capacity: the caller is admitted -> JoinJoined.
//
// Joining a room the user is already a member of is a no-op reported as
// JoinJoined. A username clash with an existing member fails with
// ErrUsernameTaken and leaves all state unchanged.
func (d *Directory) JoinOrCreate(userID, roomID string, desired RoomType) (JoinResult, Room, *errs.CustomError) {
	roomID = Normalize(roomID)
	if roomID == "" {
		return JoinInvalid, Room{}, errs.NewError(errs.ErrFieldsEmpty)
	}

	if desired == "" {
		desired = RoomPublic
	}
	if !ValidRoomType(desired) {
		return JoinInvalid, Room{}, errs.NewError(errs.ErrRoomTypeInvalid)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	record, ok := d.users[userID]
	if !ok {
		return JoinInvalid, Room{}, errs.NewError(errs.ErrInvalidRoom)
	}

	room := d.rooms[roomID]

	if room == nil {
		room = &roomRecord{
			id:      roomID,
			rtype:   desired,
			members: make(map[string]struct{}),
		}
		d.rooms[roomID] = room
	}

	if _, member := room.members[record.id]; member {
		return JoinJoined, room.snapshot(), nil
	}

	if len(room.members) == 0 {
		room.members[record.id] = struct{}{}
		record.rooms[roomID] = struct{}{}

		d.logger.Info().
			Str("user_id", userID).
			Str("room", roomID).
			Str("type", string(room.rtype)).
			Msg("Room created by first member.")

		return JoinCreated, room.snapshot(), nil
	}

	if !ValidRoomType(room.rtype) {
		return JoinInvalid, room.snapshot(), errs.NewError(errs.ErrInvalidRoom)
	}

	if room.rtype == RoomPrivate && len(room.members) >= PrivateMaxMembers {
		return JoinFull, room.snapshot(), nil
	}

	for memberID := range room.members {
		if member := d.users[memberID]; member != nil && member.username == record.username {
			return JoinInvalid, room.snapshot(), errs.NewError(errs.ErrUsernameTaken)
		}
	}

	room.members[record.id] = struct{}{}
	record.rooms[roomID] = struct{}{}

	d.logger.Info().
		Str("user_id", userID).
		Str("room", roomID).
		Int("room_members", len(room.members)).
		Msg("User joined room.")

	return JoinJoined, room.snapshot(), nil
}

// Leave removes the membership between the user and the room and returns the
// remaining members, possibly an empty list. An empty room is deleted. The
// second return value is false when no such membership existed.
func (d *Directory) Leave(userID, roomID string) ([]User, bool) {
	roomID = Normalize(roomID)

	d.mu.Lock()
	defer d.mu.Unlock()

	record, ok := d.users[userID]
	if !ok {
		return nil, false
	}

	if _, member := record.rooms[roomID]; !member {
		return nil, false
	}

	delete(record.rooms, roomID)

	room := d.rooms[roomID]
	if room != nil {
		delete(room.members, userID)
		if len(room.members) == 0 {
			delete(d.rooms, roomID)
		}
	}

	d.logger.Info().
		Str("user_id", userID).
		Str("room", roomID).
		Msg("User left room.")

	return d.usersInRoomLocked(roomID), true
}

// snapshot copies the record into an immutable User value.
func (u *userRecord) snapshot() User {
	rooms := make([]string, 0, len(u.rooms))
	for roomID := range u.rooms {
		rooms = append(rooms, roomID)
	}
	sort.Strings(rooms)

	return User{
		ID:       u.id,
		Username: u.username,
		Avatar:   u.avatar,
		Status:   u.status,
		Tagline:  u.tagline,
		Rooms:    rooms,
	}
}

// snapshot copies the record into an immutable Room value.
func (r *roomRecord) snapshot() Room {
	members := make([]string, 0, len(r.members))
	for memberID := range r.members {
		members = append(members, memberID)
	}
	sort.Strings(members)

	return Room{
		ID:      r.id,
		Type:    r.rtype,
		Title:   r.title,
		Members: members,
	}
}
