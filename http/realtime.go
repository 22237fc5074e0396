package http

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"aircast/logging"
	"aircast/pipeline"
)

// Event is one message pushed to websocket subscribers.
type Event struct {
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// Hub fans pipeline events out to connected websocket clients.
type Hub struct {
	clients    map[*websocket.Conn]chan []byte
	mu         sync.Mutex
	upgrader   websocket.Upgrader
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	broadcast  chan []byte
	done       chan struct{}
}

var defaultHub *Hub

// NewHub creates a hub; Start must be called before it serves clients.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]chan []byte),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		broadcast:  make(chan []byte, 64),
		done:       make(chan struct{}),
	}
}

// Start runs the hub loop until Stop is called.
func (h *Hub) Start() {
	for {
		select {
		case conn := <-h.register:
			send := make(chan []byte, 16)
			h.mu.Lock()
			h.clients[conn] = send
			h.mu.Unlock()
			go h.writeLoop(conn, send)

		case conn := <-h.unregister:
			h.mu.Lock()
			if send, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				close(send)
			}
			h.mu.Unlock()
			conn.Close()

		case message := <-h.broadcast:
			h.mu.Lock()
			for conn, send := range h.clients {
				select {
				case send <- message:
				default:
					delete(h.clients, conn)
					close(send)
					conn.Close()
				}
			}
			h.mu.Unlock()

		case <-h.done:
			h.mu.Lock()
			for conn, send := range h.clients {
				delete(h.clients, conn)
				close(send)
				conn.Close()
			}
			h.mu.Unlock()
			return
		}
	}
}

// Stop closes every client and ends the hub loop.
func (h *Hub) Stop() {
	close(h.done)
}

func (h *Hub) writeLoop(conn *websocket.Conn, send <-chan []byte) {
	for message := range send {
		if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// HandleWebSocket upgrades the request and subscribes the client to events.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.S().Warnw("websocket upgrade failed", "err", err)
		return
	}
	select {
	case h.register <- conn:
	case <-h.done:
		conn.Close()
		return
	}

	// Clients only listen; drain reads until the connection drops.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				select {
				case h.unregister <- conn:
				case <-h.done:
					conn.Close()
				}
				return
			}
		}
	}()
}

// Publish marshals and broadcasts an event.
func (h *Hub) Publish(eventType string, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	message, err := json.Marshal(Event{Type: eventType, Timestamp: time.Now(), Data: payload})
	if err != nil {
		return
	}
	select {
	case h.broadcast <- message:
	default:
	}
}

// SetHub installs the hub used by handler broadcasts.
func SetHub(h *Hub) {
	defaultHub = h
}

func broadcastPrediction(result pipeline.QueryResult) {
	if defaultHub != nil {
		defaultHub.Publish("prediction", result)
	}
}
