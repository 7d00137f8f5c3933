package realtime

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/shiva/ridefare/internal/model"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 64
)

// Client is one WebSocket connection. participant is guarded by the hub's
// lock.
type Client struct {
	hub         *Hub
	conn        *websocket.Conn
	send        chan []byte
	participant *model.Participant
}

func newClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
}

// readPump consumes inbound frames until the connection fails.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.WithError(err).Warn("websocket read failed")
			}
			return
		}
		c.handle(raw)
	}
}

// writePump drains the send buffer and keeps the connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handle(raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.reply(EventError, map[string]string{"message": "malformed frame"})
		return
	}

	switch env.Event {
	case EventJoin:
		var p model.Participant
		if err := json.Unmarshal(env.Data, &p); err != nil || !p.Role.Valid() || p.ID <= 0 {
			c.reply(EventError, map[string]string{"message": "join needs userType user|captain and a positive userId"})
			return
		}
		c.hub.join(c, p)
		c.reply(EventJoined, p)
	default:
		c.reply(EventError, map[string]string{"message": fmt.Sprintf("unknown event %q", env.Event)})
	}
}

// reply queues a frame for this client only.
func (c *Client) reply(event string, payload any) {
	frame, err := encode(event, payload)
	if err != nil {
		return
	}
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if _, ok := c.hub.clients[c]; !ok {
		return
	}
	select {
	case c.send <- frame:
	default:
	}
}

// describe is for logs; callers hold the hub lock.
func (c *Client) describe() string {
	if c.participant == nil {
		return "anonymous"
	}
	return fmt.Sprintf("%s:%d", c.participant.Role, c.participant.ID)
}
