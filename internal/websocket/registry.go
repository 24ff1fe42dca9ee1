package websocket

import (
	"sort"
	"sync"
)

// Registry maps each online user to the connection that most recently
// registered for it. A new connection for an already mapped user replaces
// the old one.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[string]*Client),
	}
}

// Register maps client's user to client and returns the connection it
// displaced, if any
func (r *Registry) Register(client *Client) *Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	previous := r.clients[client.userID]
	r.clients[client.userID] = client
	if previous == client {
		return nil
	}
	return previous
}

// Unregister removes client's mapping if client is still the live connection
// for its user. It reports whether anything was removed.
func (r *Registry) Unregister(client *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.clients[client.userID]; !ok || current != client {
		return false
	}
	delete(r.clients, client.userID)
	return true
}

func (r *Registry) Lookup(userID string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	client, ok := r.clients[userID]
	return client, ok
}

func (r *Registry) IsOnline(userID string) bool {
	_, ok := r.Lookup(userID)
	return ok
}

// OnlineUserIDs returns a sorted snapshot of the connected users
func (r *Registry) OnlineUserIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.clients))
	for id := range r.clients {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clients returns a snapshot of the live connections
func (r *Registry) Clients() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	clients := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		clients = append(clients, c)
	}
	return clients
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}
