// Package realtime is the push channel between the API and connected riders
// and captains. Clients connect over WebSocket, announce who they are with a
// join event, and then receive ride events addressed to them.
package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/shiva/ridefare/internal/model"
	"github.com/shiva/ridefare/pkg/logger"
)

// ErrNotConnected is returned by Notify when the participant has no live
// connection.
var ErrNotConnected = errors.New("participant is not connected")

// Event names the hub itself emits or consumes.
const (
	EventJoin   = "join"
	EventJoined = "joined"
	EventError  = "error"
)

// Envelope is the wire frame in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Hub tracks connected clients by participant and routes events to them.
// It is safe for concurrent use.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	joined  map[model.Participant]map[*Client]struct{}

	upgrader websocket.Upgrader
	log      logrus.FieldLogger
}

// NewHub creates a hub. checkOrigin decides which browser origins may
// upgrade; nil accepts every origin.
func NewHub(checkOrigin func(r *http.Request) bool, log logrus.FieldLogger) *Hub {
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &Hub{
		clients: make(map[*Client]struct{}),
		joined:  make(map[model.Participant]map[*Client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		log: logger.Component(log, "realtime"),
	}
}

// ServeWS handles GET /ws.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.log.WithError(err).Debug("websocket upgrade failed")
		return
	}

	c := newClient(h, conn)
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go c.writePump()
	go c.readPump()
}

// Notify sends an event to every connection of one participant.
func (h *Hub) Notify(to model.Participant, event string, payload any) error {
	frame, err := encode(event, payload)
	if err != nil {
		return err
	}

	h.mu.RLock()
	targets := h.joined[to]
	if len(targets) == 0 {
		h.mu.RUnlock()
		return fmt.Errorf("%w: %s %d", ErrNotConnected, to.Role, to.ID)
	}
	n := len(targets)
	slow := h.deliverLocked(targets, frame)
	h.mu.RUnlock()

	h.dropSlow(slow)
	if len(slow) == n {
		return fmt.Errorf("%w: %s %d send buffer full", ErrNotConnected, to.Role, to.ID)
	}
	return nil
}

// Broadcast sends an event to every joined participant with the given role
// and returns the number of connections it reached.
func (h *Hub) Broadcast(role model.UserRole, event string, payload any) int {
	frame, err := encode(event, payload)
	if err != nil {
		h.log.WithError(err).WithField("event", event).Error("broadcast encode failed")
		return 0
	}

	var slow []*Client
	sent := 0
	h.mu.RLock()
	for p, conns := range h.joined {
		if p.Role != role {
			continue
		}
		dropped := h.deliverLocked(conns, frame)
		sent += len(conns) - len(dropped)
		slow = append(slow, dropped...)
	}
	h.mu.RUnlock()

	h.dropSlow(slow)
	return sent
}

// Connected reports how many connections have joined as p.
func (h *Hub) Connected(p model.Participant) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.joined[p])
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.removeLocked(c)
	}
}

// deliverLocked queues frame on each client and returns the ones whose
// buffer was full. Callers hold at least the read lock.
func (h *Hub) deliverLocked(conns map[*Client]struct{}, frame []byte) []*Client {
	var slow []*Client
	for c := range conns {
		select {
		case c.send <- frame:
		default:
			slow = append(slow, c)
		}
	}
	return slow
}

func (h *Hub) dropSlow(slow []*Client) {
	if len(slow) == 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range slow {
		h.log.WithField("participant", c.describe()).Warn("dropping slow client")
		h.removeLocked(c)
	}
}

// join binds a client to a participant, replacing any earlier identity.
func (h *Hub) join(c *Client, p model.Participant) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	h.leaveLocked(c)
	if h.joined[p] == nil {
		h.joined[p] = make(map[*Client]struct{})
	}
	h.joined[p][c] = struct{}{}
	c.participant = &p
	h.log.WithFields(logrus.Fields{"role": p.Role, "id": p.ID}).Debug("participant joined")
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	h.leaveLocked(c)
	delete(h.clients, c)
	close(c.send)
}

func (h *Hub) leaveLocked(c *Client) {
	if c.participant == nil {
		return
	}
	p := *c.participant
	delete(h.joined[p], c)
	if len(h.joined[p]) == 0 {
		delete(h.joined, p)
	}
	c.participant = nil
}

func encode(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", event, err)
	}
	return json.Marshal(Envelope{Event: event, Data: data})
}
