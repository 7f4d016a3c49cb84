package sse

import (
	"fmt"
	"io"
	"sync"

	"estaleiro/internal/pkg/logger"
)

// Event é um evento Server-Sent Events.
type Event struct {
	EventType string `json:"event"`
	Data      string `json:"data"`
}

// ClientBuffer é a capacidade da fila de cada cliente; cheia, o evento é descartado para ele.
const ClientBuffer = 64

// Client é uma conexão SSE registrada.
type Client struct {
	ID     string
	UserID string
	Events chan Event
}

// NewClient cria um cliente com o buffer padrão.
func NewClient(id, userID string) *Client {
	return &Client{ID: id, UserID: userID, Events: make(chan Event, ClientBuffer)}
}

// Hub mantém as conexões SSE abertas e distribui os eventos.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	logger  logger.Logger
}

func NewHub(log logger.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		logger:  log,
	}
}

// Register adiciona o cliente e devolve o total de conexões.
func (h *Hub) Register(client *Client) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
	h.logger.Debug("Cliente SSE conectado.", map[string]interface{}{"client_id": client.ID, "user_id": client.UserID, "total": len(h.clients)})
	return len(h.clients)
}

// Unregister remove o cliente, fecha seu canal e devolve o total restante.
func (h *Hub) Unregister(clientID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[clientID]; ok {
		close(client.Events)
		delete(h.clients, clientID)
		h.logger.Debug("Cliente SSE desconectado.", map[string]interface{}{"client_id": clientID, "total": len(h.clients)})
	}
	return len(h.clients)
}

// Broadcast envia o evento a todos os clientes sem bloquear.
func (h *Hub) Broadcast(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		select {
		case client.Events <- event:
		default:
			h.logger.Warn("Buffer do cliente SSE cheio, evento descartado.", map[string]interface{}{"client_id": client.ID, "event": event.EventType})
		}
	}
}

// Count devolve o número de conexões abertas.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// WriteEvent serializa o evento no formato text/event-stream.
func WriteEvent(w io.Writer, event Event) error {
	_, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.EventType, event.Data)
	return err
}

// WriteKeepAlive escreve um comentário que mantém a conexão viva em proxies.
func WriteKeepAlive(w io.Writer) error {
	_, err := io.WriteString(w, ": keepalive\n\n")
	return err
}
