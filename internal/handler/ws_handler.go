/*
Package handler provides the HTTP handlers and routing setup for the relay
server.

This file contains the WebSocket upgrade handler: rate limiting, optional
room access token validation, the protocol upgrade, and starting the client
read and write pumps.
*/
package handler

import (
	"net"
	"net/http"

	"github.com/gorilla/websocket"

	"partyrelay/internal/app/directory"
	"partyrelay/internal/app/relay"
	"partyrelay/internal/pkg/auth/jwt"
	"partyrelay/internal/pkg/errs"
	"partyrelay/internal/pkg/limiter"
	"partyrelay/internal/pkg/logx"
	"partyrelay/internal/pkg/resp"
)

// HandleWebSocket creates the HandlerFunc for WebSocket connection requests.
// A connection starts unassociated; identity is established by the client's
// user_join event. A room access token issued by the join endpoint may be
// presented as the "token" query parameter, in which case it is validated
// and the target room's capacity is pre-checked before upgrading.
func HandleWebSocket(upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}

		if ip == "" {
			ip = "unknown_ip"
		}

		if !rateLimiter.GetLimiter(ip).Allow() {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", ip)
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		if token := r.URL.Query().Get("token"); token != "" {
			payload, parseErr := jwt.ParseToken(token, deps.Config.JWTSecret)
			if parseErr != nil {
				logx.Warn("WebSocket connection rejected: Invalid room access token.", "ip", ip)
				resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
				return
			}

			if room, ok := deps.Directory.GetRoom(payload.Room); ok {
				if room.Type == directory.RoomPrivate && len(room.Members) >= directory.PrivateMaxMembers {
					resp.RespondError(w, r, errs.NewError(errs.ErrRoomFull))
					return
				}
			}
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		client := relay.NewClient(deps.Hub, conn)
		deps.Hub.Register(client)

		go client.WritePump()

		client.ReadPump()
	}
}
