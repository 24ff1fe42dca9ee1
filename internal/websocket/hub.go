package websocket

import (
	"context"
	"errors"
	"sync"
	"time"

	"chat-realtime/internal/game"
	"chat-realtime/pkg/logger"
)

var ErrClientDisconnected = errors.New("client disconnected")

const (
	defaultSendBuffer     = 256
	defaultMaxMessageSize = 4096

	presenceTimeout = 2 * time.Second
	resultTimeout   = 5 * time.Second
)

// PresenceStore mirrors online/offline transitions for other services
type PresenceStore interface {
	SetUserOnline(ctx context.Context, userID string) error
	SetUserOffline(ctx context.Context, userID string) error
}

// Recorder receives hub metrics
type Recorder interface {
	SetOnlineUsers(n int)
	SetActiveSessions(n int)
	EventRouted(event string)
	EventDropped(event string)
	GameRejected(code string)
}

type nopRecorder struct{}

func (nopRecorder) SetOnlineUsers(int)    {}
func (nopRecorder) SetActiveSessions(int) {}
func (nopRecorder) EventRouted(string)    {}
func (nopRecorder) EventDropped(string)   {}
func (nopRecorder) GameRejected(string)   {}

// HubConfig carries the optional collaborators and limits of a Hub
type HubConfig struct {
	Presence       PresenceStore
	Results        []game.ResultSink
	Metrics        Recorder
	SendBuffer     int
	MaxMessageSize int64
}

type ClientMessage struct {
	Client  *Client
	Message *Message
}

// Hub owns the connection registry and serializes every connect, disconnect
// and inbound event on a single goroutine, so each game transition runs to
// completion before the next one starts.
type Hub struct {
	registry *Registry
	router   *Router
	typing   *TypingCoordinator
	sessions *game.Store

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Inbound events from clients
	inbound chan *ClientMessage

	cfg HubConfig

	// Context for graceful shutdown
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	// Result sinks running outside the hub goroutine
	results sync.WaitGroup

	log *logger.Logger
}

func NewHub(sessions *game.Store, cfg HubConfig, log *logger.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = defaultSendBuffer
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = defaultMaxMessageSize
	}
	if cfg.Metrics == nil {
		cfg.Metrics = nopRecorder{}
	}
	if log == nil {
		log = logger.NewNop()
	}
	log = log.Named("hub")

	registry := NewRegistry()
	router := NewRouter(registry, cfg.Metrics, log)

	return &Hub{
		registry:   registry,
		router:     router,
		typing:     NewTypingCoordinator(router),
		sessions:   sessions,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan *ClientMessage),
		cfg:        cfg,
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
		log:        log,
	}
}

func (h *Hub) Registry() *Registry { return h.registry }

func (h *Hub) Router() *Router { return h.router }

func (h *Hub) Sessions() *game.Store { return h.sessions }

// Run processes hub requests until Stop is called
func (h *Hub) Run() {
	defer close(h.done)

	h.log.Info("WebSocket hub started")
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case cm := <-h.inbound:
			h.handleClientMessage(cm)

		case <-h.ctx.Done():
			h.shutdown()
			return
		}
	}
}

// Stop shuts the hub down and waits for Run to return
func (h *Hub) Stop() {
	h.cancel()
	<-h.done
}

// Done is closed once Run has returned
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

func (h *Hub) shutdown() {
	clients := h.registry.Clients()
	for _, c := range clients {
		h.registry.Unregister(c)
		c.close()
	}
	h.cfg.Metrics.SetOnlineUsers(0)

	h.results.Wait()
	h.log.Info("WebSocket hub shutting down", "closedClients", len(clients))
}

func (h *Hub) registerClient(client *Client) {
	if displaced := h.registry.Register(client); displaced != nil {
		h.log.Info("Replacing existing connection", "userID", client.userID, "oldClientID", displaced.id, "clientID", client.id)
		displaced.close()
	}
	h.log.Info("Client registered", "clientID", client.id, "userID", client.userID)

	if h.cfg.Presence != nil {
		ctx, cancel := context.WithTimeout(h.ctx, presenceTimeout)
		if err := h.cfg.Presence.SetUserOnline(ctx, client.userID); err != nil {
			h.log.Error("Failed to set user online", "userID", client.userID, "error", err)
		}
		cancel()
	}

	h.router.BroadcastPresence()
}

func (h *Hub) unregisterClient(client *Client) {
	client.close()
	if !h.registry.Unregister(client) {
		return
	}
	h.log.Info("Client unregistered", "clientID", client.id, "userID", client.userID)

	if h.cfg.Presence != nil {
		ctx, cancel := context.WithTimeout(h.ctx, presenceTimeout)
		if err := h.cfg.Presence.SetUserOffline(ctx, client.userID); err != nil {
			h.log.Error("Failed to set user offline", "userID", client.userID, "error", err)
		}
		cancel()
	}

	h.router.BroadcastPresence()
}

// publishResult hands a finished session to the result sinks without
// blocking the hub loop
func (h *Hub) publishResult(session *game.Session) {
	result, ok := game.ResultOf(session)
	if !ok || len(h.cfg.Results) == 0 {
		return
	}

	h.results.Add(1)
	go func() {
		defer h.results.Done()
		for _, sink := range h.cfg.Results {
			ctx, cancel := context.WithTimeout(context.Background(), resultTimeout)
			if err := sink.RecordResult(ctx, result); err != nil {
				h.log.Error("Failed to record game result", "gameID", result.SessionID, "sink", sinkName(sink), "error", err)
			}
			cancel()
		}
	}()
}

func sinkName(sink game.ResultSink) string {
	if named, ok := sink.(interface{ Name() string }); ok {
		return named.Name()
	}
	return "unknown"
}
