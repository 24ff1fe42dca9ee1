package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"chat-realtime/internal/game"

	"github.com/stretchr/testify/require"
)

const eventTimeout = time.Second

// fakePresence records mirror calls
type fakePresence struct {
	mu     sync.Mutex
	events []string
}

func (f *fakePresence) SetUserOnline(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, "online:"+userID)
	return nil
}

func (f *fakePresence) SetUserOffline(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, "offline:"+userID)
	return nil
}

func (f *fakePresence) Events() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.events...)
}

// sinkFunc adapts a function to game.ResultSink
type sinkFunc func(ctx context.Context, result game.Result) error

func (f sinkFunc) RecordResult(ctx context.Context, result game.Result) error {
	return f(ctx, result)
}

// countingRecorder counts metric calls
type countingRecorder struct {
	mu       sync.Mutex
	online   int
	sessions int
	routed   map[string]int
	dropped  map[string]int
	rejected map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{
		routed:   make(map[string]int),
		dropped:  make(map[string]int),
		rejected: make(map[string]int),
	}
}

func (r *countingRecorder) SetOnlineUsers(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.online = n
}

func (r *countingRecorder) SetActiveSessions(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = n
}

func (r *countingRecorder) EventRouted(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routed[event]++
}

func (r *countingRecorder) EventDropped(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dropped[event]++
}

func (r *countingRecorder) GameRejected(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejected[code]++
}

func (r *countingRecorder) Rejected(code string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rejected[code]
}

func (r *countingRecorder) Online() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.online
}

// newTestHub starts a hub and stops it when the test ends
func newTestHub(t *testing.T, cfg HubConfig) *Hub {
	t.Helper()
	hub := NewHub(game.NewStore(), cfg, nil)
	go hub.Run()
	t.Cleanup(hub.Stop)
	return hub
}

// connect registers a client without a network connection. Tests read the
// frames it would have written from its send channel.
func connect(t *testing.T, hub *Hub, userID string) *Client {
	t.Helper()
	client := newClient(hub, nil, userID)
	select {
	case hub.register <- client:
	case <-time.After(eventTimeout):
		t.Fatal("hub did not accept registration")
	}
	return client
}

func disconnect(t *testing.T, hub *Hub, client *Client) {
	t.Helper()
	select {
	case hub.unregister <- client:
	case <-time.After(eventTimeout):
		t.Fatal("hub did not accept unregistration")
	}
}

func send(t *testing.T, hub *Hub, client *Client, msgType MessageType, data interface{}) {
	t.Helper()
	msg, err := NewMessage("test", msgType, client.userID, data)
	require.NoError(t, err)
	select {
	case hub.inbound <- &ClientMessage{Client: client, Message: msg}:
	case <-time.After(eventTimeout):
		t.Fatal("hub did not accept message")
	}
}

// syncHub waits until the hub has finished everything queued before it
func syncHub(t *testing.T, hub *Hub) {
	t.Helper()
	marker := newClient(hub, nil, "")
	marker.close()
	disconnect(t, hub, marker)
}

func nextEvent(t *testing.T, client *Client) *Message {
	t.Helper()
	select {
	case data, ok := <-client.send:
		require.True(t, ok, "send channel closed for %s", client.userID)
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return &msg
	case <-time.After(eventTimeout):
		t.Fatalf("no event for %s", client.userID)
		return nil
	}
}

// expectEvent skips events of other types until one of msgType arrives
func expectEvent(t *testing.T, client *Client, msgType MessageType) *Message {
	t.Helper()
	for {
		msg := nextEvent(t, client)
		if msg.Type == msgType {
			return msg
		}
	}
}

func expectNoEvent(t *testing.T, client *Client) {
	t.Helper()
	select {
	case data, ok := <-client.send:
		if ok {
			t.Fatalf("unexpected event for %s: %s", client.userID, data)
		}
	default:
	}
}

// drain discards every queued event
func drain(client *Client) {
	for {
		select {
		case _, ok := <-client.send:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

func decodeData(t *testing.T, msg *Message, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(msg.Data, v))
}
