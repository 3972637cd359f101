package live

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func newTestHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	stop := make(chan struct{})
	go hub.Run(stop)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Subscribe(conn, ArenaRoom(1))
	}))
	t.Cleanup(func() {
		srv.Close()
		close(stop)
	})
	return hub, srv
}

func waitForRoom(t *testing.T, hub *Hub, room string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.RoomSize(room) != want {
		if time.Now().After(deadline) {
			t.Fatalf("room %s has %d clients; want %d", room, hub.RoomSize(room), want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHubBroadcastToArena(t *testing.T) {
	hub, srv := newTestHub(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	waitForRoom(t, hub, ArenaRoom(1), 1)

	hub.BroadcastToArena(2, MessageMatchUpdated, "other arena")
	hub.BroadcastToArena(1, MessageMatchUpdated, map[string]int{"match_id": 7})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]int `json:"payload"`
		RoomID  string         `json:"room_id"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	if msg.Type != MessageMatchUpdated || msg.RoomID != "arena_1" || msg.Payload["match_id"] != 7 {
		t.Fatalf("message = %+v", msg)
	}
}

func TestHubUnregistersOnDisconnect(t *testing.T) {
	hub, srv := newTestHub(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	waitForRoom(t, hub, ArenaRoom(1), 1)

	conn.Close()
	waitForRoom(t, hub, ArenaRoom(1), 0)
}
