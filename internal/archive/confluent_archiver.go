package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"github.com/liqtags/relaychat/internal/domain"
	applog "github.com/liqtags/relaychat/pkg/log"
)

// ConfluentArchiver writes chat messages to a Kafka topic.
type ConfluentArchiver struct {
	producer *kafka.Producer
	topic    string
	doneCh   chan struct{}
}

// NewConfluentArchiver creates a Kafka-backed archiver, ensuring the
// topic exists with the desired partition count.
func NewConfluentArchiver(brokers, topic string, partitions int) (*ConfluentArchiver, error) {
	if err := ensureTopic(brokers, topic, partitions); err != nil {
		applog.L().Warn().Err(err).Str("topic", topic).Msg("failed to ensure archive topic, it may already exist")
	}

	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": brokers,
		"acks":              "1",
		"linger.ms":         5,
		"compression.type":  "snappy",
	})
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	a := &ConfluentArchiver{
		producer: p,
		topic:    topic,
		doneCh:   make(chan struct{}),
	}

	go a.deliveryReportHandler()

	return a, nil
}

func ensureTopic(brokers, topic string, partitions int) error {
	admin, err := kafka.NewAdminClient(&kafka.ConfigMap{
		"bootstrap.servers": brokers,
	})
	if err != nil {
		return fmt.Errorf("create admin client: %w", err)
	}
	defer admin.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	results, err := admin.CreateTopics(ctx, []kafka.TopicSpecification{
		{
			Topic:             topic,
			NumPartitions:     partitions,
			ReplicationFactor: 1,
		},
	})
	if err != nil {
		return err
	}

	for _, result := range results {
		if result.Error.Code() != kafka.ErrNoError && result.Error.Code() != kafka.ErrTopicAlreadyExists {
			return fmt.Errorf("create topic %s: %v", result.Topic, result.Error)
		}
	}

	return nil
}

func (a *ConfluentArchiver) deliveryReportHandler() {
	for e := range a.producer.Events() {
		switch ev := e.(type) {
		case *kafka.Message:
			if ev.TopicPartition.Error != nil {
				applog.L().Error().Err(ev.TopicPartition.Error).Msg("archive delivery failed")
			}
		}
	}
	close(a.doneCh)
}

// Archive produces the message keyed by username so each author's
// messages land on one partition, preserving their order.
func (a *ConfluentArchiver) Archive(ctx context.Context, msg *domain.ChatMessage) error {
	value, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal chat message: %w", err)
	}

	err = a.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &a.topic,
			Partition: kafka.PartitionAny,
		},
		Key:   []byte(msg.Username),
		Value: value,
	}, nil)
	if err != nil {
		return fmt.Errorf("produce message: %w", err)
	}

	return nil
}

// Close flushes pending messages and waits for the delivery handler.
func (a *ConfluentArchiver) Close() error {
	a.producer.Flush(5000)
	a.producer.Close()
	<-a.doneCh
	return nil
}
