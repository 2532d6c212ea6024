package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"partyrelay/internal/app/relay"
	"partyrelay/internal/pkg/auth/jwt"
)

const wsReadTimeout = 2 * time.Second

// dialWS connects a WebSocket client to the test server's /ws endpoint.
func dialWS(t *testing.T, server *httptest.Server, query string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })

	return conn
}

func sendEvent(t *testing.T, conn *websocket.Conn, event, room string, payload any) {
	t.Helper()

	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	frame, err := json.Marshal(relay.Envelope{Event: event, Room: room, Payload: raw})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		t.Fatalf("write frame: %v", err)
	}
}

func readEvent(t *testing.T, conn *websocket.Conn) relay.Envelope {
	t.Helper()

	if err := conn.SetReadDeadline(time.Now().Add(wsReadTimeout)); err != nil {
		t.Fatalf("set read deadline: %v", err)
	}

	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}

	var env relay.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("unmarshal frame %q: %v", raw, err)
	}
	return env
}

func TestWebSocketRelayRoundTrip(t *testing.T) {
	deps := newTestDeps()
	server := httptest.NewServer(Router(deps))
	defer server.Close()

	alice := dialWS(t, server, "")
	bob := dialWS(t, server, "")

	sendEvent(t, alice, relay.EventUserJoin, "", relay.UserJoinPayload{
		User: relay.Profile{Username: "Alice"},
		Room: "Watch-Party",
	})

	if env := readEvent(t, alice); env.Event != relay.EventLogin {
		t.Fatalf("alice first event = %q, want %q", env.Event, relay.EventLogin)
	}
	if env := readEvent(t, alice); env.Event != relay.EventUsersUpdate {
		t.Fatalf("alice second event = %q, want %q", env.Event, relay.EventUsersUpdate)
	}

	sendEvent(t, bob, relay.EventUserJoin, "", relay.UserJoinPayload{
		User: relay.Profile{Username: "Bob"},
		Room: "watch-party",
	})

	var bobLogin relay.LoginPayload
	env := readEvent(t, bob)
	if env.Event != relay.EventLogin {
		t.Fatalf("bob first event = %q, want %q", env.Event, relay.EventLogin)
	}
	if err := json.Unmarshal(env.Payload, &bobLogin); err != nil {
		t.Fatalf("unmarshal login: %v", err)
	}
	if bobLogin.NumUsers != 2 {
		t.Errorf("bob login numUsers = %d, want 2", bobLogin.NumUsers)
	}

	readEvent(t, bob)   // bob's users_update
	readEvent(t, alice) // alice sees bob arrive

	// A room-scoped relay reaches the other member but not the sender.
	sendEvent(t, alice, relay.EventNewMessage, "watch-party", relay.MessagePayload{
		Message: json.RawMessage(`"press play"`),
	})

	env = readEvent(t, bob)
	if env.Event != relay.EventNewMessage {
		t.Fatalf("bob event = %q, want %q", env.Event, relay.EventNewMessage)
	}
	if env.Room != "watch-party" {
		t.Errorf("relayed room = %q, want watch-party", env.Room)
	}

	var relayed relay.MessagePayload
	if err := json.Unmarshal(env.Payload, &relayed); err != nil {
		t.Fatalf("unmarshal relayed message: %v", err)
	}
	if string(relayed.Message) != `"press play"` {
		t.Errorf("relayed message = %s, want \"press play\"", relayed.Message)
	}

	// A disconnect announces the shrunken member list to the survivors.
	alice.Close()

	env = readEvent(t, bob)
	if env.Event != relay.EventUsersUpdate {
		t.Fatalf("bob event after disconnect = %q, want %q", env.Event, relay.EventUsersUpdate)
	}

	var update relay.UsersUpdatePayload
	if err := json.Unmarshal(env.Payload, &update); err != nil {
		t.Fatalf("unmarshal users_update: %v", err)
	}
	if len(update.Users) != 1 || update.Users[0].Username != "bob" {
		t.Errorf("users after disconnect = %v, want just bob", update.Users)
	}
}

func TestWebSocketRejectsInvalidToken(t *testing.T) {
	deps := newTestDeps()
	server := httptest.NewServer(Router(deps))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?token=not-a-jwt"
	_, response, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("dial with invalid token succeeded")
	}
	if response == nil || response.StatusCode != http.StatusUnauthorized {
		t.Errorf("handshake response = %v, want 401", response)
	}
}

func TestWebSocketAcceptsIssuedToken(t *testing.T) {
	deps := newTestDeps()
	server := httptest.NewServer(Router(deps))
	defer server.Close()

	token, err := jwt.GenerateToken(&jwt.Payload{
		Username: "alice",
		Room:     "lobby",
	}, deps.Config.JWTSecret, jwt.RoomAccessExpiration)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	conn := dialWS(t, server, "?token="+token)

	sendEvent(t, conn, relay.EventUserJoin, "", relay.UserJoinPayload{
		User: relay.Profile{Username: "alice"},
		Room: "lobby",
	})

	if env := readEvent(t, conn); env.Event != relay.EventLogin {
		t.Errorf("event = %q, want %q", env.Event, relay.EventLogin)
	}
}
