// Package websocket provides a namespace-scoped hub for pushing real-time
// updates (module status, metrics, logs) to connected dashboard clients.
package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/vaiolabs/vaio-board/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024 * 1024
)

// Message is the envelope for every server-to-client event.
type Message struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
	Time  int64  `json:"time"`
}

// Client is one WebSocket connection scoped to a namespace
// (e.g. "/modules/ollama" or "/graph-cpu").
type Client struct {
	ID        string
	Namespace string
	Conn      *ws.Conn
	Send      chan []byte
}

// Hub tracks connected clients per namespace and fans events out to them.
type Hub struct {
	clients map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client, 64),
		unregister: make(chan *Client, 64),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Run processes register/unregister events until Stop is called.
func (h *Hub) Run() {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("WebSocket hub panic recovered:", r)
			go h.Run()
		}
	}()

	for {
		select {
		case <-h.ctx.Done():
			h.mu.Lock()
			for _, clients := range h.clients {
				for client := range clients {
					close(client.Send)
				}
			}
			h.clients = make(map[string]map[*Client]bool)
			h.mu.Unlock()
			logger.Info("WebSocket hub stopped")
			return

		case client := <-h.register:
			if client == nil {
				continue
			}
			h.mu.Lock()
			if h.clients[client.Namespace] == nil {
				h.clients[client.Namespace] = make(map[*Client]bool)
			}
			h.clients[client.Namespace][client] = true
			count := len(h.clients[client.Namespace])
			h.mu.Unlock()
			logger.Debugf("ws client %s joined %s (%d in namespace)", client.ID, client.Namespace, count)

		case client := <-h.unregister:
			if client == nil {
				continue
			}
			h.mu.Lock()
			if clients, ok := h.clients[client.Namespace]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					close(client.Send)
					if len(clients) == 0 {
						delete(h.clients, client.Namespace)
					}
				}
			}
			h.mu.Unlock()
			logger.Debugf("ws client %s left %s", client.ID, client.Namespace)
		}
	}
}

func (h *Hub) Register(client *Client) {
	if h == nil || client == nil {
		return
	}
	select {
	case h.register <- client:
	case <-h.ctx.Done():
	}
}

func (h *Hub) Unregister(client *Client) {
	if h == nil || client == nil {
		return
	}
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

func marshal(event string, data any) []byte {
	msg := Message{
		Event: event,
		Data:  data,
		Time:  time.Now().UnixMilli(),
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		logger.Error("failed to marshal ws message:", err)
		return nil
	}
	if len(payload) > maxMessageSize {
		logger.Warningf("ws message too large: %d bytes, dropping", len(payload))
		return nil
	}
	return payload
}

// Broadcast sends an event to every client in a namespace.
func (h *Hub) Broadcast(namespace, event string, data any) {
	if h == nil {
		return
	}
	payload := marshal(event, data)
	if payload == nil {
		return
	}

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients[namespace]))
	for client := range h.clients[namespace] {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		h.send(client, payload)
	}
}

// Emit sends an event to a single client.
func (h *Hub) Emit(client *Client, event string, data any) {
	if h == nil || client == nil {
		return
	}
	payload := marshal(event, data)
	if payload == nil {
		return
	}
	h.send(client, payload)
}

func (h *Hub) send(client *Client, payload []byte) {
	defer func() {
		// Send channel may close under us during unregister.
		if r := recover(); r != nil {
			logger.Debugf("ws send to closed client %s dropped", client.ID)
		}
	}()
	select {
	case client.Send <- payload:
	default:
		logger.Debugf("ws client %s send buffer full, disconnecting", client.ID)
		h.Unregister(client)
	}
}

// CountInNamespace returns the number of clients connected to a namespace.
func (h *Hub) CountInNamespace(namespace string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[namespace])
}

// Stop gracefully stops the hub and closes all connections.
func (h *Hub) Stop() {
	if h == nil {
		return
	}
	if h.cancel != nil {
		h.cancel()
	}
}

// WritePump drains the client's Send channel onto the wire and keeps the
// connection alive with pings. It must run in its own goroutine, one per client.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(ws.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(ws.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(ws.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
