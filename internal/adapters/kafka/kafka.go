package kafka

import (
	"time"

	"github.com/IBM/sarama"
)

const clientID = "chat-realtime"

// NewProducerConfig is the sarama config of the result publisher
func NewProducerConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Producer.Compression = sarama.CompressionSnappy  // Enable compression
	config.Producer.Partitioner = sarama.NewHashPartitioner // Consistent hashing on the session id
	config.Version = sarama.V2_0_0_0
	config.ClientID = clientID
	config.Producer.MaxMessageBytes = 1000000 // 1MB
	return config
}

// NewConsumerConfig is the sarama config of the message notification consumer
func NewConsumerConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.Version = sarama.V2_0_0_0
	config.ClientID = clientID
	config.Consumer.Return.Errors = true
	// notifications for users who are offline by now are worthless
	config.Consumer.Offsets.Initial = sarama.OffsetNewest
	config.Consumer.Offsets.AutoCommit.Interval = time.Second
	config.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	return config
}

func InitKafkaProducer(brokers []string) (sarama.SyncProducer, error) {
	producer, err := sarama.NewSyncProducer(brokers, NewProducerConfig())
	if err != nil {
		return nil, err
	}

	return producer, nil
}

func InitKafkaConsumerGroup(brokers []string, groupID string) (sarama.ConsumerGroup, error) {
	return sarama.NewConsumerGroup(brokers, groupID, NewConsumerConfig())
}
