package socket

import (
	"encoding/json"
	"sync"

	"contactbook/pkg/logger"
)

const (
	ContactCreatedType   = "CONTACT_CREATED"
	ContactUpdatedType   = "CONTACT_UPDATED"
	ContactDeletedType   = "CONTACT_DELETED"
	ContactsDeletedType  = "CONTACTS_DELETED" // mass delete
	ContactsImportedType = "CONTACTS_IMPORTED"
)

// Event is one change notification. OwnerID routes the event to the
// owner's room and never goes over the wire.
type Event struct {
	Type    string          `json:"type"`
	OwnerID string          `json:"-"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Hub fans contact-change events out to every open session of the
// owning user. Rooms are keyed by user id; events never cross owners.
type Hub struct {
	Rooms      map[string]map[*Client]bool
	Broadcast  chan Event
	Register   chan *Client
	Unregister chan *Client
	mu         sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		Rooms:      make(map[string]map[*Client]bool),
		Broadcast:  make(chan Event, 64),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			if h.Rooms[client.UserID] == nil {
				h.Rooms[client.UserID] = make(map[*Client]bool)
			}
			h.Rooms[client.UserID][client] = true
			h.mu.Unlock()

		case client := <-h.Unregister:
			h.dropClient(client)

		case ev := <-h.Broadcast:
			payload, err := json.Marshal(ev)
			if err != nil {
				logger.Sugar.Errorf("Error marshalling event: %v", err)
				continue
			}

			// Snapshot recipients so no I/O happens under the lock.
			h.mu.Lock()
			clients := make([]*Client, 0, len(h.Rooms[ev.OwnerID]))
			for client := range h.Rooms[ev.OwnerID] {
				clients = append(clients, client)
			}
			h.mu.Unlock()

			for _, client := range clients {
				select {
				case client.Send <- payload:
				default:
					// A full buffer means the client stopped reading.
					// Drop it inline; sending to Unregister here would
					// deadlock Run against itself.
					logger.Sugar.Warnf("Client %s's send buffer is full. Dropping client.", client.UserID)
					h.dropClient(client)
				}
			}
		}
	}
}

// dropClient removes the client from its room and closes its send
// channel. Safe to call twice for the same client; only the first call
// closes the channel.
func (h *Hub) dropClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.Rooms[client.UserID][client]; ok {
		delete(h.Rooms[client.UserID], client)
		close(client.Send)
		if len(h.Rooms[client.UserID]) == 0 {
			delete(h.Rooms, client.UserID)
		}
	}
}

// Notify queues an event for the owner's sessions. The payload is
// marshalled here so callers stay free of wire concerns. Never blocks;
// if the hub is saturated the event is dropped with a warning.
func (h *Hub) Notify(ownerID, eventType string, payload interface{}) {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			logger.Sugar.Errorf("Error marshalling %s payload: %v", eventType, err)
			return
		}
		raw = b
	}

	select {
	case h.Broadcast <- Event{Type: eventType, OwnerID: ownerID, Payload: raw}:
	default:
		logger.Sugar.Warnf("Event hub saturated, dropping %s for %s", eventType, ownerID)
	}
}
