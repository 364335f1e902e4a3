// Package feed adapts the Kafka-carried change feed of the incident
// collection. Every message is a complete ordered snapshot of the
// collection, serialized as a JSON array of raw documents; the document
// store publishes one on every underlying change.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/safeguard-ops/dispatch-console/internal/config"
	"github.com/safeguard-ops/dispatch-console/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Reader consumes change-feed deliveries from the feed topic.
// It implements stream.FeedReader.
type Reader struct {
	reader *kafkago.Reader
	logger *slog.Logger
}

// NewReader creates a consumer for the configured feed topic. It starts at
// the newest offset: every message is a full snapshot, so history holds no
// information the latest delivery does not.
func NewReader(cfg *config.Config, logger *slog.Logger) *Reader {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     cfg.KafkaBrokers,
		Topic:       cfg.KafkaFeedTopic,
		GroupID:     cfg.KafkaGroupID,
		StartOffset: kafkago.LastOffset,
	})
	return &Reader{reader: r, logger: logger}
}

// Next blocks until the next feed delivery arrives or ctx is cancelled.
func (r *Reader) Next(ctx context.Context) (domain.FeedDelivery, error) {
	msg, err := r.reader.ReadMessage(ctx)
	if err != nil {
		return domain.FeedDelivery{}, fmt.Errorf("read feed delivery: %w", err)
	}
	return mapMessageToDelivery(msg)
}

// Close releases the underlying consumer.
func (r *Reader) Close() error {
	return r.reader.Close()
}

// mapMessageToDelivery decodes a snapshot message. A payload that is not a
// JSON array is a feed-level failure, unlike a malformed individual record,
// which the normalizer degrades field by field.
func mapMessageToDelivery(msg kafkago.Message) (domain.FeedDelivery, error) {
	var records []domain.RawRecord
	if err := json.Unmarshal(msg.Value, &records); err != nil {
		return domain.FeedDelivery{}, fmt.Errorf("decode feed snapshot: %w", err)
	}
	return domain.FeedDelivery{
		Records:    records,
		Topic:      msg.Topic,
		Partition:  msg.Partition,
		Offset:     msg.Offset,
		ReceivedAt: msg.Time,
	}, nil
}
