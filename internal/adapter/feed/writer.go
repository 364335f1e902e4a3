package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/safeguard-ops/dispatch-console/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer publishes full-collection snapshots to the feed topic. Used by the
// replay tool and integration tests to stand in for the document store's
// feed publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a snapshot producer for the given topic.
func NewWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishSnapshot serializes the record set (already ordered newest-first)
// as one feed delivery.
func (w *Writer) PublishSnapshot(ctx context.Context, records []domain.RawRecord) error {
	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("serialize feed snapshot: %w", err)
	}
	return w.writer.WriteMessages(ctx, kafkago.Message{
		Value: payload,
		Time:  time.Now().UTC(),
		Headers: []kafkago.Header{
			{Key: "record_count", Value: []byte(strconv.Itoa(len(records)))},
		},
	})
}

// Close releases the underlying producer.
func (w *Writer) Close() error {
	return w.writer.Close()
}
