package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Time allowed to hand a request to the hub
	hubWait = 5 * time.Second
)

// Conn is the part of *websocket.Conn the pumps use
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

// Client is one live websocket connection. Its user id is fixed for the
// lifetime of the connection.
type Client struct {
	id     string
	hub    *Hub
	conn   Conn
	userID string

	send       chan []byte
	sendMu     sync.Mutex
	sendClosed bool

	// Connection state management
	ctx    context.Context
	cancel context.CancelFunc
	closed int32
}

func newClient(hub *Hub, conn Conn, userID string) *Client {
	ctx, cancel := context.WithCancel(hub.ctx)

	return &Client{
		id:     uuid.New().String(),
		hub:    hub,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, hub.cfg.SendBuffer),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (c *Client) GetID() string {
	return c.id
}

func (c *Client) GetUserID() string {
	return c.userID
}

func (c *Client) isClosed() bool {
	return atomic.LoadInt32(&c.closed) == 1
}

// close marks the client as closed, cancels its context and stops the write pump
func (c *Client) close() {
	if atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		c.cancel()
		c.hub.log.Debug("Client marked as closed", "clientID", c.id, "userID", c.userID)
	}
	c.closeSendChannel()
}

func (c *Client) closeSendChannel() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if !c.sendClosed {
		c.sendClosed = true
		close(c.send)
	}
}

// enqueue hands an encoded frame to the write pump. A full buffer means the
// peer is not keeping up, and the client is dropped.
func (c *Client) enqueue(data []byte) error {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.sendClosed || c.isClosed() {
		return ErrClientDisconnected
	}

	select {
	case c.send <- data:
		return nil
	default:
		c.hub.log.Warn("Send buffer full, closing client", "clientID", c.id, "userID", c.userID)
		c.sendClosed = true
		close(c.send)
		return ErrClientDisconnected
	}
}

// SendMessage queues message for delivery on this connection
func (c *Client) SendMessage(message *Message) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return c.enqueue(data)
}

func (c *Client) sendError(code, message string) {
	if err := c.SendMessage(NewErrorMessage(uuid.New().String(), c.userID, code, message)); err != nil {
		c.hub.log.Debug("Failed to send error", "clientID", c.id, "userID", c.userID, "error", err)
	}
}

func (c *Client) readPump() {
	defer func() {
		c.close()

		select {
		case c.hub.unregister <- c:
		case <-c.hub.ctx.Done():
		case <-time.After(hubWait):
			c.hub.log.Warn("Timeout sending unregister request", "clientID", c.id, "userID", c.userID)
		}

		if err := c.conn.Close(); err != nil {
			c.hub.log.Debug("Error closing connection", "clientID", c.id, "userID", c.userID, "error", err)
		}
	}()

	c.conn.SetReadLimit(c.hub.cfg.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		if c.isClosed() {
			return websocket.ErrCloseSent
		}
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Error("WebSocket error", "clientID", c.id, "userID", c.userID, "error", err)
			} else {
				c.hub.log.Debug("WebSocket connection closed", "clientID", c.id, "userID", c.userID, "error", err)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			c.hub.log.Debug("Failed to unmarshal message", "clientID", c.id, "userID", c.userID, "error", err)
			c.sendError(ErrCodeInvalidMessage, "Invalid message format")
			continue
		}
		if err := msg.Validate(); err != nil {
			c.sendError(ErrCodeUnknownEvent, err.Error())
			continue
		}

		msg.UserID = c.userID
		msg.Timestamp = time.Now().Unix()
		if msg.ID == "" {
			msg.ID = uuid.New().String()
		}

		select {
		case c.hub.inbound <- &ClientMessage{Client: c, Message: &msg}:
		case <-time.After(hubWait):
			c.hub.log.Warn("Timeout sending message to hub", "clientID", c.id, "userID", c.userID, "type", msg.Type)
		case <-c.ctx.Done():
			return
		}
	}
}

// writePump sends one websocket frame per queued message and keeps the
// connection alive with pings
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.hub.log.Debug("Error writing message", "clientID", c.id, "userID", c.userID, "error", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.hub.log.Debug("Error sending ping", "clientID", c.id, "userID", c.userID, "error", err)
				return
			}
		}
	}
}

// ServeWS upgrades the request and attaches the connection to the hub as userID
func ServeWS(hub *Hub, upgrader *websocket.Upgrader, w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.log.Error("Failed to upgrade WebSocket connection", "userID", userID, "error", err)
		return
	}

	client := newClient(hub, conn, userID)
	hub.log.Info("New WebSocket connection established", "clientID", client.id, "userID", client.userID)

	select {
	case hub.register <- client:
	case <-hub.ctx.Done():
		conn.Close()
		return
	case <-time.After(hubWait):
		hub.log.Error("Timeout sending registration request", "clientID", client.id, "userID", client.userID)
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
