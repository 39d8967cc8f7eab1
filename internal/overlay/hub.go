// Package overlay pushes rendered alerts to connected overlay browser
// sources over websockets and acts as the queue's presentation sink.
package overlay

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"streamcast/internal/models"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// overlay sources run on localhost or inside the capture tool
		return true
	},
}

// Client is one connected overlay browser source
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub maintains the set of connected overlay clients
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mu         sync.Mutex
}

// NewHub creates an overlay hub; call Run in a goroutine
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan []byte),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// Run pumps registrations and broadcasts until the process exits
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			log.Println("OVERLAY: Client connected")
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			log.Println("OVERLAY: Client disconnected")
		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// ClientCount reports connected overlay sources
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

type overlayMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Present implements alertqueue.Sink: it broadcasts the rendered payload
// to every connected overlay and holds until the alert's display duration
// elapses, keeping the queue's single-flight guarantee meaningful on
// screen. Fails if no overlay is connected so the alert lands in history
// as failed rather than vanishing.
func (h *Hub) Present(ctx context.Context, alert *models.QueuedAlert) error {
	if h.ClientCount() == 0 {
		return fmt.Errorf("no overlay connected")
	}

	payload, err := json.Marshal(overlayMessage{Type: "alert", Data: alert})
	if err != nil {
		return fmt.Errorf("marshal alert %s: %w", alert.ID, err)
	}
	h.broadcast <- payload

	select {
	case <-time.After(time.Duration(alert.Payload.Duration) * time.Millisecond):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ServeWs upgrades an overlay connection
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("OVERLAY: Upgrade error: %v", err)
		return
	}
	client := &Client{hub: h, conn: conn, send: make(chan []byte, 256)}
	h.register <- client

	go client.writePump()
	go client.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	for {
		// overlays only listen; reads exist to detect disconnects
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
