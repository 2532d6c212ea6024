/*
Package relay contains the core logic for routing client connections into
rooms and fanning typed events out to the right set of connections.

This file defines the Client struct, one per WebSocket connection. It runs
the read and write pumps, tracks the connection's association state
(unassociated until a successful user_join, then bound to one user id until
close), and queues outbound frames on a buffered send channel.
*/
package relay

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"partyrelay/internal/app/directory"
	"partyrelay/internal/pkg/errs"
	"partyrelay/internal/pkg/logx"
)

const (
	// timeout for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time to wait for a Pong from the client.
	pongWait = 60 * time.Second

	// frequency of server Ping messages.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size in bytes of an inbound frame.
	maxMessageSize = 8192

	// sendQueueSize bounds the per-connection outbound queue.
	sendQueueSize = 256
)

// Client represents one live connection and its association state.
type Client struct {
	// hub routes this connection's events.
	hub *Hub

	// conn is the underlying WebSocket connection.
	conn *websocket.Conn

	// send queues outbound frames for the write pump.
	send chan []byte

	// mu guards user, joined, and shutdown.
	mu sync.Mutex

	// user is the directory snapshot taken when the connection associated.
	user directory.User

	// joined is true once user_join has succeeded.
	joined bool

	// shutdown is true once close ran; the send channel is closed then.
	shutdown bool

	// logger is enriched with user fields on association, so every access
	// outside the read goroutine must go through mu.
	logger zerolog.Logger
}

// NewClient constructs a Client for an upgraded connection.
// The caller registers it with the hub and starts both pumps.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, sendQueueSize),
		logger: logx.Logger().With().Str("component", "Client").Logger(),
	}
}

// UserID returns the associated user id, or "" while unassociated.
func (c *Client) UserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.joined {
		return ""
	}
	return c.user.ID
}

// Username returns the associated username, or "" while unassociated.
func (c *Client) Username() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.joined {
		return ""
	}
	return c.user.Username
}

// setUser records the association. It happens at most once per connection.
// The logger update stays inside the critical section; the write pump and
// broadcasting goroutines read the logger concurrently.
func (c *Client) setUser(user directory.User) {
	c.mu.Lock()
	c.user = user
	c.joined = true
	c.logger = c.logger.With().
		Str("user_id", user.ID).
		Str("username", user.Username).
		Logger()
	c.mu.Unlock()
}

// log returns a copy of the connection logger, taken under the lock.
func (c *Client) log() *zerolog.Logger {
	c.mu.Lock()
	defer c.mu.Unlock()
	logger := c.logger
	return &logger
}

// ReadPump reads frames from the connection and dispatches them one at a
// time, so each event runs to completion before the next is handled. It
// tears the connection down when the read side fails.
func (c *Client) ReadPump() {
	defer c.hub.Disconnect(c)

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.log().Error().Err(err).Msg("Failed to set read deadline.")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log().Info().Err(err).Msg("Read failed, client likely gone.")
			}
			break
		}

		c.hub.Dispatch(c, raw)
	}
}

// WritePump drains the send queue onto the connection and keeps the
// heartbeat alive with periodic pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		if err := c.conn.Close(); err != nil && !errors.Is(err, websocket.ErrCloseSent) {
			c.log().Debug().Err(err).Msg("Connection close in WritePump.")
		}
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if !c.writeQueuedFrame(frame, ok) {
				return
			}

		case <-ticker.C:
			if !c.writePing() {
				return
			}
		}
	}
}

// writeQueuedFrame writes one frame pulled from the send queue.
// It returns false when the write pump should terminate.
func (c *Client) writeQueuedFrame(frame []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.log().Error().Err(err).Msg("Failed to set write deadline.")
		return false
	}

	if !ok {
		if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
			c.log().Debug().Err(err).Msg("Error writing close message.")
		}
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		c.log().Error().Err(err).Msg("Error writing frame.")
		return false
	}

	return true
}

// writePing sends a heartbeat ping.
// It returns false when the write pump should terminate.
func (c *Client) writePing() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.log().Error().Err(err).Msg("Failed to set write deadline on ping.")
		return false
	}

	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		return false
	}

	return true
}

// enqueue queues a marshaled frame without blocking. A full queue drops the
// frame; a slow consumer must not stall the relay.
func (c *Client) enqueue(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.shutdown {
		return fmt.Errorf("connection closed")
	}

	select {
	case c.send <- frame:
		return nil
	default:
		c.logger.Warn().Int("queue_len", len(c.send)).Msg("Client send queue full, dropping frame.")
		return fmt.Errorf("client send queue full")
	}
}

// sendEvent marshals and queues an event for this connection only.
func (c *Client) sendEvent(event, room string, payload any) error {
	data, err := marshalEnvelope(event, room, payload)
	if err != nil {
		c.log().Error().Err(err).Str("event", event).Msg("Failed to marshal event.")
		return err
	}

	return c.enqueue(data)
}

// SendError reports a recoverable error to this connection only.
func (c *Client) SendError(err error) {
	var code int
	var message string

	var customErr *errs.CustomError
	if errors.As(err, &customErr) {
		code = customErr.Code
		message = customErr.Message
	} else {
		code = errs.ErrUnknown
		message = fmt.Sprintf("Internal server error: %v", err)
	}

	if sendErr := c.sendEvent(EventError, "", ErrorPayload{Code: code, Message: message}); sendErr != nil {
		c.log().Debug().Err(sendErr).Msg("Failed to queue error event.")
	}
}

// close shuts the send queue and the connection down. Safe to call more than
// once; only the first call closes the channel.
func (c *Client) close() {
	c.mu.Lock()
	if !c.shutdown {
		c.shutdown = true
		close(c.send)
	}
	c.mu.Unlock()

	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			c.log().Debug().Err(err).Msg("Connection close error.")
		}
	}
}
