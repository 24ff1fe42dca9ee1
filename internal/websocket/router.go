package websocket

import (
	"encoding/json"
	"time"

	"chat-realtime/pkg/logger"

	"github.com/google/uuid"
)

// Router delivers events to the live connection of a user. Delivery is best
// effort: events for offline users are dropped, nothing is queued or retried.
type Router struct {
	registry *Registry
	metrics  Recorder
	log      *logger.Logger
}

func NewRouter(registry *Registry, metrics Recorder, log *logger.Logger) *Router {
	if metrics == nil {
		metrics = nopRecorder{}
	}
	return &Router{registry: registry, metrics: metrics, log: log}
}

// RouteToUser sends event with payload to userID's connection. It reports
// whether the event was queued on a live connection.
func (r *Router) RouteToUser(userID string, event MessageType, payload interface{}) bool {
	client, ok := r.registry.Lookup(userID)
	if !ok {
		r.metrics.EventDropped(event.String())
		return false
	}

	msg, err := NewMessage(uuid.New().String(), event, userID, payload)
	if err != nil {
		r.log.Error("Failed to build event", "type", event, "userID", userID, "error", err)
		r.metrics.EventDropped(event.String())
		return false
	}

	if err := client.SendMessage(msg); err != nil {
		r.log.Debug("Dropped event for disconnected client", "type", event, "userID", userID, "clientID", client.id)
		r.metrics.EventDropped(event.String())
		return false
	}

	r.metrics.EventRouted(event.String())
	return true
}

// BroadcastPresence sends the current online user ids to every live
// connection and returns the number of connections reached
func (r *Router) BroadcastPresence() int {
	ids := r.registry.OnlineUserIDs()
	r.metrics.SetOnlineUsers(len(ids))

	payload, err := json.Marshal(ids)
	if err != nil {
		r.log.Error("Failed to encode presence snapshot", "error", err)
		return 0
	}
	data, err := json.Marshal(&Message{
		ID:        uuid.New().String(),
		Type:      MessageTypeOnlineUsers,
		Data:      payload,
		Timestamp: time.Now().Unix(),
	})
	if err != nil {
		r.log.Error("Failed to encode presence snapshot", "error", err)
		return 0
	}

	reached := 0
	for _, client := range r.registry.Clients() {
		if err := client.enqueue(data); err != nil {
			r.metrics.EventDropped(MessageTypeOnlineUsers.String())
			continue
		}
		reached++
	}
	r.metrics.EventRouted(MessageTypeOnlineUsers.String())
	return reached
}
