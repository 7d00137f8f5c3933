package realtime

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/shiva/ridefare/internal/model"
)

func newTestHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	log, _ := test.NewNullLogger()
	hub := NewHub(nil, log)
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, frame string) {
	t.Helper()
	if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
		t.Fatalf("WriteMessage() error = %v", err)
	}
}

func read(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("frame %q is not an envelope: %v", raw, err)
	}
	return env
}

// join connects and joins as p, waiting for the acknowledgement.
func join(t *testing.T, srv *httptest.Server, p model.Participant) *websocket.Conn {
	t.Helper()
	conn := dial(t, srv)
	data, _ := json.Marshal(p)
	send(t, conn, `{"event":"join","data":`+string(data)+`}`)
	if env := read(t, conn); env.Event != EventJoined {
		t.Fatalf("join reply = %q, want %q", env.Event, EventJoined)
	}
	return conn
}

func TestHub_NotifyJoinedParticipant(t *testing.T) {
	hub, srv := newTestHub(t)
	rider := model.Participant{Role: model.RoleUser, ID: 7}
	conn := join(t, srv, rider)

	if err := hub.Notify(rider, model.EventRideConfirmed, map[string]int64{"id": 1}); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}

	env := read(t, conn)
	if env.Event != model.EventRideConfirmed {
		t.Errorf("event = %q, want %q", env.Event, model.EventRideConfirmed)
	}
	if string(env.Data) != `{"id":1}` {
		t.Errorf("data = %s, want {\"id\":1}", env.Data)
	}
}

func TestHub_NotifyNotConnected(t *testing.T) {
	hub, _ := newTestHub(t)

	err := hub.Notify(model.Participant{Role: model.RoleUser, ID: 99}, model.EventRideStarted, nil)
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("Notify() error = %v, want ErrNotConnected", err)
	}
}

func TestHub_BroadcastByRole(t *testing.T) {
	hub, srv := newTestHub(t)
	c1 := join(t, srv, model.Participant{Role: model.RoleCaptain, ID: 1})
	c2 := join(t, srv, model.Participant{Role: model.RoleCaptain, ID: 2})
	join(t, srv, model.Participant{Role: model.RoleUser, ID: 1})

	if n := hub.Broadcast(model.RoleCaptain, model.EventNewRide, map[string]int64{"id": 5}); n != 2 {
		t.Fatalf("Broadcast() reached %d, want 2", n)
	}
	for _, c := range []*websocket.Conn{c1, c2} {
		if env := read(t, c); env.Event != model.EventNewRide {
			t.Errorf("event = %q, want %q", env.Event, model.EventNewRide)
		}
	}
}

func TestHub_RejectsBadFrames(t *testing.T) {
	_, srv := newTestHub(t)
	conn := dial(t, srv)

	tests := []struct {
		name  string
		frame string
	}{
		{"not json", `hello`},
		{"unknown role", `{"event":"join","data":{"userType":"admin","userId":1}}`},
		{"missing id", `{"event":"join","data":{"userType":"user"}}`},
		{"unknown event", `{"event":"location","data":{}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			send(t, conn, tt.frame)
			if env := read(t, conn); env.Event != EventError {
				t.Errorf("reply = %q, want %q", env.Event, EventError)
			}
		})
	}
}

func TestHub_RejoinMovesIdentity(t *testing.T) {
	hub, srv := newTestHub(t)
	first := model.Participant{Role: model.RoleCaptain, ID: 1}
	second := model.Participant{Role: model.RoleCaptain, ID: 2}
	conn := join(t, srv, first)

	send(t, conn, `{"event":"join","data":{"userType":"captain","userId":2}}`)
	if env := read(t, conn); env.Event != EventJoined {
		t.Fatalf("rejoin reply = %q", env.Event)
	}

	if hub.Connected(first) != 0 || hub.Connected(second) != 1 {
		t.Errorf("Connected() = %d/%d, want 0/1", hub.Connected(first), hub.Connected(second))
	}
}

func TestHub_DisconnectUnregisters(t *testing.T) {
	hub, srv := newTestHub(t)
	rider := model.Participant{Role: model.RoleUser, ID: 3}
	conn := join(t, srv, rider)

	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Connected(rider) != 0 {
		if time.Now().After(deadline) {
			t.Fatal("client still registered after disconnect")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
