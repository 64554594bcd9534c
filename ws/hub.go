// ws/hub.go
package ws

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ViniZap4/lumi-entries/domain"
)

const (
	EntryCreated = "entry_created"
	EntryUpdated = "entry_updated"
	EntryDeleted = "entry_deleted"
)

type Message struct {
	Type  string       `json:"type"`
	Entry *domain.Note `json:"entry,omitempty"`
}

// Conn is the part of a websocket connection the hub uses.
type Conn interface {
	ReadJSON(v any) error
	WriteJSON(v any) error
	Close() error
}

type Hub struct {
	clients    map[Conn]string
	broadcast  chan Message
	register   chan Conn
	unregister chan Conn
	done       chan struct{}
	log        zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[Conn]string),
		broadcast:  make(chan Message, 256),
		register:   make(chan Conn),
		unregister: make(chan Conn),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run serves register, unregister and broadcast requests until ctx is
// done, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for conn := range h.clients {
				h.drop(conn)
			}
			return

		case conn := <-h.register:
			id := uuid.NewString()
			h.clients[conn] = id
			h.log.Debug().Str("client", id).Int("clients", len(h.clients)).Msg("client connected")

		case conn := <-h.unregister:
			h.drop(conn)

		case msg := <-h.broadcast:
			for conn, id := range h.clients {
				if err := conn.WriteJSON(msg); err != nil {
					h.log.Warn().Err(err).Str("client", id).Msg("websocket write failed")
					h.drop(conn)
				}
			}
		}
	}
}

func (h *Hub) drop(conn Conn) {
	id, ok := h.clients[conn]
	if !ok {
		return
	}
	delete(h.clients, conn)
	conn.Close()
	h.log.Debug().Str("client", id).Int("clients", len(h.clients)).Msg("client disconnected")
}

// Broadcast queues an entry event for every connected client. It drops the
// event when the queue is full rather than blocking a request handler.
func (h *Hub) Broadcast(msgType string, entry *domain.Note) {
	select {
	case h.broadcast <- Message{Type: msgType, Entry: entry}:
	default:
		h.log.Warn().Str("type", msgType).Msg("broadcast queue full, dropping event")
	}
}

func (h *Hub) Register(conn Conn) {
	select {
	case h.register <- conn:
	case <-h.done:
		conn.Close()
	}
}

func (h *Hub) Unregister(conn Conn) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// HandleConnection reads from conn until it fails, then unregisters it.
// Clients only send "subscribe" pings; anything else is ignored.
func (h *Hub) HandleConnection(conn Conn) {
	defer h.Unregister(conn)

	for {
		var msg map[string]any
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		if msgType, ok := msg["type"].(string); ok && msgType == "subscribe" {
			h.log.Debug().Msg("client subscribed")
		}
	}
}
