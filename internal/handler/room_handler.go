/*
Package handler provides the HTTP handlers and routing setup for the relay
server.

This file contains the REST handlers for room listing, explicit room
creation, retained room history, and issuing room access tokens.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"partyrelay/internal/app/directory"
	"partyrelay/internal/pkg/auth/jwt"
	"partyrelay/internal/pkg/errs"
	"partyrelay/internal/pkg/req"
	"partyrelay/internal/pkg/resp"
)

// RoomSummary is the REST representation of a room.
type RoomSummary struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Title    string `json:"title,omitempty"`
	NumUsers int    `json:"numUsers"`
}

// HandleListRooms lists every public room.
func HandleListRooms(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rooms := deps.Directory.PublicRooms()

		summaries := make([]RoomSummary, 0, len(rooms))
		for _, room := range rooms {
			summaries = append(summaries, RoomSummary{
				ID:       room.ID,
				Type:     string(room.Type),
				Title:    room.Title,
				NumUsers: len(room.Members),
			})
		}

		resp.RespondSuccess(w, r, map[string]any{
			"rooms": summaries,
		})
	}
}

type CreateRoomInput struct {
	// ID is the requested room identifier; a room code is generated when omitted.
	ID string `json:"id,omitempty"`

	// Type is "public" or "private"; public when omitted.
	Type string `json:"type,omitempty"`

	// Title is an optional display title.
	Title string `json:"title,omitempty"`
}

// HandleCreateRoom registers a room explicitly, ahead of any member joining.
func HandleCreateRoom(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input CreateRoomInput

		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		room, customErr := deps.Directory.CreateRoom(input.ID, directory.RoomType(input.Type), input.Title)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"room": RoomSummary{
				ID:    room.ID,
				Type:  string(room.Type),
				Title: room.Title,
			},
		})
	}
}

// HandleRoomHistory returns the retained messages of a room, oldest first.
func HandleRoomHistory(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID := directory.Normalize(chi.URLParam(r, "id"))

		if _, ok := deps.Directory.GetRoom(roomID); !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrRoomNotFound))
			return
		}

		messages, err := deps.History.List(r.Context(), roomID, deps.Config.HistoryListLimit)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown, err))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"room":     roomID,
			"messages": messages,
		})
	}
}

type JoinRoomInput struct {
	Username string `json:"username"`
	Room     string `json:"room"`
	Avatar   string `json:"avatar,omitempty"`
}

// HandleJoinRoom validates a join request and issues a room access token.
// The actual membership change still happens over the WebSocket via
// user_join; this endpoint only front-runs the obvious rejections (blank
// fields, a taken username, a full private room) and signs the identity the
// relay should announce.
func HandleJoinRoom(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input JoinRoomInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		username := directory.Normalize(input.Username)
		roomID := directory.Normalize(input.Room)

		if username == "" || roomID == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrFieldsEmpty))
			return
		}

		if deps.Directory.UsernameTaken(roomID, username) {
			resp.RespondError(w, r, errs.NewError(errs.ErrUsernameTaken))
			return
		}

		if room, ok := deps.Directory.GetRoom(roomID); ok {
			if room.Type == directory.RoomPrivate && len(room.Members) >= directory.PrivateMaxMembers {
				resp.RespondError(w, r, errs.NewError(errs.ErrRoomFull))
				return
			}
		}

		payload := &jwt.Payload{
			Username: username,
			Room:     roomID,
			Avatar:   input.Avatar,
		}

		tokenString, err := jwt.GenerateToken(payload, deps.Config.JWTSecret, jwt.RoomAccessExpiration)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown, err))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"token": tokenString,
		})
	}
}
