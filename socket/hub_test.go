package socket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper to read one event from a WebSocket connection with a timeout.
func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	var ev Event
	conn.SetReadDeadline(time.Now().Add(1 * time.Second))
	_, p, err := conn.ReadMessage()
	require.NoError(t, err, "Failed to read event from WebSocket")
	require.NoError(t, json.Unmarshal(p, &ev), "Failed to unmarshal Event JSON")
	return ev
}

func TestHubRoutesEventsByOwner(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The auth middleware normally supplies the user id; tests pass
		// it straight through.
		ServeWs(hub, w, r, r.URL.Query().Get("user_id"))
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	// Two sessions of user-u, one of user-v.
	conn1, _, err := websocket.DefaultDialer.Dial(wsURL+"/ws?user_id=user-u", nil)
	require.NoError(t, err, "Session 1 failed to connect")
	defer conn1.Close()

	conn2, _, err := websocket.DefaultDialer.Dial(wsURL+"/ws?user_id=user-u", nil)
	require.NoError(t, err, "Session 2 failed to connect")
	defer conn2.Close()

	conn3, _, err := websocket.DefaultDialer.Dial(wsURL+"/ws?user_id=user-v", nil)
	require.NoError(t, err, "Session 3 failed to connect")
	defer conn3.Close()

	// Registration goes through the hub's channels; give it a moment.
	require.Eventually(t, func() bool {
		hub.mu.Lock()
		defer hub.mu.Unlock()
		return len(hub.Rooms["user-u"]) == 2 && len(hub.Rooms["user-v"]) == 1
	}, time.Second, 10*time.Millisecond)

	hub.Notify("user-u", ContactCreatedType, map[string]string{"name": "Ana"})

	ev1 := readEvent(t, conn1)
	assert.Equal(t, ContactCreatedType, ev1.Type)
	assert.JSONEq(t, `{"name":"Ana"}`, string(ev1.Payload))

	ev2 := readEvent(t, conn2)
	assert.Equal(t, ContactCreatedType, ev2.Type)

	// user-v must see nothing.
	conn3.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err = conn3.ReadMessage()
	assert.Error(t, err, "foreign user should not receive the event")
}

func TestHubUnregisterCleansUpRoom(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWs(hub, w, r, "user-u")
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"/ws", nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		hub.mu.Lock()
		defer hub.mu.Unlock()
		return len(hub.Rooms["user-u"]) == 1
	}, time.Second, 10*time.Millisecond)

	conn.Close()

	require.Eventually(t, func() bool {
		hub.mu.Lock()
		defer hub.mu.Unlock()
		_, ok := hub.Rooms["user-u"]
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestSlowClientIsDroppedNotBlockedOn(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	// A one-slot buffer that nobody reads models a stalled session.
	slow := &Client{Hub: hub, UserID: "user-u", Send: make(chan []byte, 1)}
	hub.Register <- slow
	require.Eventually(t, func() bool {
		hub.mu.Lock()
		defer hub.mu.Unlock()
		return len(hub.Rooms["user-u"]) == 1
	}, time.Second, 10*time.Millisecond)

	// First event fills the buffer, second one overflows it.
	hub.Notify("user-u", ContactCreatedType, map[string]string{"name": "Ana"})
	hub.Notify("user-u", ContactUpdatedType, map[string]string{"name": "Ana B."})

	// The stalled session is evicted instead of wedging the hub.
	require.Eventually(t, func() bool {
		hub.mu.Lock()
		defer hub.mu.Unlock()
		_, ok := hub.Rooms["user-u"]
		return !ok
	}, time.Second, 10*time.Millisecond)

	// The hub must still accept registrations and deliver events.
	fresh := &Client{Hub: hub, UserID: "user-u", Send: make(chan []byte, 16)}
	select {
	case hub.Register <- fresh:
	case <-time.After(time.Second):
		t.Fatal("hub stopped accepting registrations")
	}
	hub.Notify("user-u", ContactDeletedType, nil)
	select {
	case <-fresh.Send:
	case <-time.After(time.Second):
		t.Fatal("fresh client did not receive the event")
	}
}

func TestNotifyWithNilPayload(t *testing.T) {
	hub := NewHub()
	// Not running; Notify must not block.
	for i := 0; i < 70; i++ {
		hub.Notify("user-u", ContactsDeletedType, nil)
	}
}
