package producers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/residential-billing-ledger/internal/config"
	"github.com/segmentio/kafka-go"
)

// partition reads are retried this many times before the topic is treated as missing
var (
	topicReadAttempts = 5
	topicReadBackoff  = 2 * time.Second
)

// openTopicWriter provisions topic and returns a synchronous writer that waits for all
// in-sync replicas.
func openTopicWriter(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig, topic string, balancer kafka.Balancer) (*kafka.Writer, error) {
	conn, err := kafka.DialContext(ctx, "tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for topic %s: %w", topic, err)
	}
	defer conn.Close()

	if err := ensureTopic(ctx, conn, topic, cfg.NumPartitions, cfg.ReplicationFactor, logger); err != nil {
		return nil, fmt.Errorf("failed to ensure topic %s exists: %w", topic, err)
	}

	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        topic,
		Balancer:     balancer,
		RequiredAcks: kafka.RequireAll,
		WriteTimeout: cfg.MaxWait,
	}, nil
}

// ensureTopic creates the topic when its partitions cannot be read.
func ensureTopic(ctx context.Context, admin topicAdmin, topicName string, numPartitions, replicationFactor int, log *slog.Logger) error {
	var (
		partitions []kafka.Partition
		err        error
	)

	log.Info("Checking if Kafka topic exists", "topic", topicName)
	for i := 0; i < topicReadAttempts; i++ {
		partitions, err = admin.ReadPartitions(topicName)
		if err == nil && len(partitions) > 0 {
			log.Info("Kafka topic already exists", "topic", topicName, "partitions", len(partitions))
			return nil
		}
		log.Warn("Failed to read partitions, retrying", "topic", topicName, "attempt", i+1, "error", err)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(topicReadBackoff):
		}
	}

	log.Info("Kafka topic does not exist or is not accessible, attempting to create it", "topic", topicName, "last_error", err)
	topicConfig := kafka.TopicConfig{
		Topic:             topicName,
		NumPartitions:     numPartitions,
		ReplicationFactor: replicationFactor,
	}
	if topicConfig.NumPartitions <= 0 {
		topicConfig.NumPartitions = 1
	}
	if topicConfig.ReplicationFactor <= 0 {
		topicConfig.ReplicationFactor = 1
	}

	if err := admin.CreateTopics(topicConfig); err != nil {
		return fmt.Errorf("failed to create kafka topic %s: %w", topicName, err)
	}
	log.Info("Successfully created Kafka topic", "topic", topicName)
	return nil
}
