// Package events streams document change notifications to browsers over
// Server-Sent Events.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// KeepAlive is the interval between keep-alive comments.
var KeepAlive = 30 * time.Second

// SSEServer manages Server-Sent Events connections
type SSEServer struct {
	clients    map[string]*SSEClient
	register   chan *SSEClient
	unregister chan string
	broadcast  chan *Event
	mu         sync.RWMutex
	done       chan struct{}
}

// SSEClient represents a connected client
type SSEClient struct {
	ID      string
	Events  chan *Event
	Filters []EventType // Event types to receive (empty = all)
	Filiere string      // Only receive events for this filière (empty = all)
}

// NewSSEServer creates a new SSE server
func NewSSEServer() *SSEServer {
	return &SSEServer{
		clients:    make(map[string]*SSEClient),
		register:   make(chan *SSEClient),
		unregister: make(chan string),
		broadcast:  make(chan *Event, 100),
		done:       make(chan struct{}),
	}
}

// Run dispatches events until ctx is done. Connected streams are closed on
// return.
func (s *SSEServer) Run(ctx context.Context) {
	defer func() {
		s.mu.Lock()
		for id, client := range s.clients {
			close(client.Events)
			delete(s.clients, id)
		}
		s.mu.Unlock()
		close(s.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-s.register:
			s.mu.Lock()
			s.clients[client.ID] = client
			s.mu.Unlock()

		case clientID := <-s.unregister:
			s.mu.Lock()
			if client, ok := s.clients[clientID]; ok {
				close(client.Events)
				delete(s.clients, clientID)
			}
			s.mu.Unlock()

		case event := <-s.broadcast:
			s.mu.RLock()
			for _, client := range s.clients {
				if shouldSend(client, event) {
					select {
					case client.Events <- event:
					default:
						// Client buffer full, skip
					}
				}
			}
			s.mu.RUnlock()
		}
	}
}

// shouldSend checks if client should receive this event
func shouldSend(client *SSEClient, event *Event) bool {
	if client.Filiere != "" && event.Filiere != "" && client.Filiere != event.Filiere {
		return false
	}

	if len(client.Filters) > 0 {
		for _, f := range client.Filters {
			if f == event.Type {
				return true
			}
		}
		return false
	}

	return true
}

// Broadcast sends an event to all connected clients. It never blocks.
func (s *SSEServer) Broadcast(event *Event) {
	select {
	case <-s.done:
	case s.broadcast <- event:
	default:
		// Buffer full, drop event
	}
}

// ClientCount returns the number of connected clients
func (s *SSEServer) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// ServeHTTP handles SSE connections
func (s *SSEServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	var filters []EventType
	if filterParam := r.URL.Query().Get("filter"); filterParam != "" {
		for _, f := range strings.Split(filterParam, ",") {
			filters = append(filters, EventType(strings.TrimSpace(f)))
		}
	}

	client := &SSEClient{
		ID:      uuid.NewString(),
		Events:  make(chan *Event, 50),
		Filters: filters,
		Filiere: r.URL.Query().Get("filiere"),
	}

	select {
	case s.register <- client:
	case <-s.done:
		http.Error(w, "Stream closed", http.StatusServiceUnavailable)
		return
	case <-r.Context().Done():
		return
	}

	defer func() {
		select {
		case s.unregister <- client.ID:
		case <-s.done:
		}
	}()

	sendEvent(w, flusher, &Event{
		Type:      EventConnected,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"client_id": client.ID,
			"filters":   filters,
		},
	})

	ticker := time.NewTicker(KeepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return

		case event, ok := <-client.Events:
			if !ok {
				return
			}
			sendEvent(w, flusher, event)

		case <-ticker.C:
			fmt.Fprintf(w, ": keep-alive\n\n")
			flusher.Flush()
		}
	}
}

func sendEvent(w http.ResponseWriter, flusher http.Flusher, event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	fmt.Fprintf(w, "event: %s\n", event.Type)
	fmt.Fprintf(w, "data: %s\n\n", data)
	flusher.Flush()
}
