package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"chat-realtime/internal/websocket"
	"chat-realtime/pkg/logger"

	"github.com/IBM/sarama"
)

// UserRouter delivers an event to a user's live connection
type UserRouter interface {
	RouteToUser(userID string, event websocket.MessageType, payload interface{}) bool
}

// DeliveredMessage is the record the message service publishes once a chat
// message is stored
type DeliveredMessage struct {
	ReceiverID string          `json:"receiverId"`
	Message    json.RawMessage `json:"message"`
}

func (m *DeliveredMessage) validate() error {
	if strings.TrimSpace(m.ReceiverID) == "" {
		return errors.New("receiverId is required")
	}
	if len(m.Message) == 0 || string(m.Message) == "null" {
		return errors.New("message is required")
	}
	return nil
}

// MessageHandler turns delivered message records into newMessage events
type MessageHandler struct {
	router UserRouter
	log    *logger.Logger
}

func NewMessageHandler(router UserRouter, log *logger.Logger) *MessageHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &MessageHandler{router: router, log: log}
}

func (h *MessageHandler) Setup(sarama.ConsumerGroupSession) error { return nil }
func (h *MessageHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

// ConsumeClaim marks every record consumed, including malformed ones and
// those for offline receivers
func (h *MessageHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			h.handle(msg)
			session.MarkMessage(msg, "")
		case <-session.Context().Done():
			return nil
		}
	}
}

func (h *MessageHandler) handle(msg *sarama.ConsumerMessage) {
	var delivered DeliveredMessage
	if err := json.Unmarshal(msg.Value, &delivered); err != nil {
		h.log.Warn("Skipping malformed message record", "topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset, "error", err)
		return
	}
	if err := delivered.validate(); err != nil {
		h.log.Warn("Skipping invalid message record", "topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset, "error", err)
		return
	}

	if !h.router.RouteToUser(delivered.ReceiverID, websocket.MessageTypeNewMessage, delivered.Message) {
		h.log.Debug("Receiver offline, message notification dropped", "receiver_id", delivered.ReceiverID)
	}
}

// MessageConsumer runs a consumer group over the delivered messages topic
type MessageConsumer struct {
	group   sarama.ConsumerGroup
	topic   string
	handler sarama.ConsumerGroupHandler
	log     *logger.Logger
}

func NewMessageConsumer(group sarama.ConsumerGroup, topic string, router UserRouter, log *logger.Logger) *MessageConsumer {
	if log == nil {
		log = logger.NewNop()
	}
	log = log.Named("kafka")
	return &MessageConsumer{
		group:   group,
		topic:   topic,
		handler: NewMessageHandler(router, log),
		log:     log,
	}
}

// Run consumes until ctx is cancelled or the group is closed
func (c *MessageConsumer) Run(ctx context.Context) error {
	go func() {
		for err := range c.group.Errors() {
			c.log.Error("Consumer group error", "topic", c.topic, "error", err)
		}
	}()

	c.log.Info("Message consumer started", "topic", c.topic)
	for {
		// Consume returns on every rebalance
		if err := c.group.Consume(ctx, []string{c.topic}, c.handler); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			c.log.Error("Consume failed", "topic", c.topic, "error", err)
			return err
		}
		if ctx.Err() != nil {
			c.log.Info("Message consumer stopped", "topic", c.topic)
			return nil
		}
	}
}

func (c *MessageConsumer) Close() error {
	return c.group.Close()
}
