//go:build integration

package integration_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/safeguard-ops/dispatch-console/internal/adapter/feed"
	"github.com/safeguard-ops/dispatch-console/internal/config"
	"github.com/safeguard-ops/dispatch-console/internal/domain"
	"github.com/safeguard-ops/dispatch-console/internal/identity"
	"github.com/safeguard-ops/dispatch-console/internal/observability"
	"github.com/safeguard-ops/dispatch-console/internal/stream"
)

const testFeedTopic = "test-incident-snapshots"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node Kafka container and returns its broker address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx,
		"confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("test-cluster"),
	)
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer controllerConn.Close()

	require.NoError(t, controllerConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// recordingSink captures alerts published by the session.
type recordingSink struct {
	mu        sync.Mutex
	published []domain.Incident
}

func (s *recordingSink) PublishAlert(_ context.Context, inc domain.Incident) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.published = append(s.published, inc)
	return nil
}

func (s *recordingSink) all() []domain.Incident {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Incident(nil), s.published...)
}

type noopStore struct{}

func (noopStore) UpdateStatus(context.Context, string, domain.Status) error { return nil }

// waitForSnapshot blocks until the subscriber sees a snapshot of the given
// size.
func waitForSnapshot(ctx context.Context, t *testing.T, ch <-chan domain.Snapshot, size int) domain.Snapshot {
	t.Helper()
	waitCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	for {
		select {
		case snap := <-ch:
			if len(snap.Incidents) == size {
				return snap
			}
		case <-waitCtx.Done():
			t.Fatalf("timed out waiting for a %d-incident snapshot", size)
		}
	}
}

// TestFeedSessionEndToEnd publishes full-collection snapshots through real
// Kafka and verifies the session normalizes, diffs, and alerts on them.
func TestFeedSessionEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testFeedTopic)

	cfg := &config.Config{
		KafkaBrokers:   []string{broker},
		KafkaFeedTopic: testFeedTopic,
		KafkaGroupID:   fmt.Sprintf("test-session-%d", time.Now().UnixNano()),
	}

	writer := feed.NewWriter(cfg.KafkaBrokers, cfg.KafkaFeedTopic, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	reader := feed.NewReader(cfg, discardLogger())
	sink := &recordingSink{}
	session := stream.New(reader, noopStore{}, sink, discardLogger(), observability.NewMetricsForTesting())
	t.Cleanup(session.Stop)

	ch, unsub := session.Subscribe()
	t.Cleanup(unsub)

	require.NoError(t, session.Start(&identity.Operator{UID: "op-integration"}))

	// The consumer group may need time to join before the first snapshot is
	// visible, so keep republishing the initial state until it lands.
	first := []domain.RawRecord{
		{"id": "inc-1", "status": "active", "userName": "Asha Patel", "riskScore": 6.0},
	}
	var snap domain.Snapshot
	require.Eventually(t, func() bool {
		require.NoError(t, writer.PublishSnapshot(ctx, first))
		select {
		case snap = <-ch:
			return len(snap.Incidents) == 1
		case <-time.After(2 * time.Second):
			return false
		}
	}, 90*time.Second, time.Second, "first snapshot never applied")

	assert.Equal(t, stream.Live, session.State())
	assert.Equal(t, "inc-1", snap.Incidents[0].ID)
	assert.Equal(t, domain.StatusActive, snap.Incidents[0].Status)
	assert.Equal(t, "Asha Patel", snap.Incidents[0].ReporterLabel)
	assert.Empty(t, sink.all(), "first observation must not alert")

	// A grown collection with a new active incident on top fires one alert.
	second := []domain.RawRecord{
		{"id": "inc-2", "status": "active", "userName": "Ravi", "riskScore": 9.0},
		{"id": "inc-1", "status": "active", "userName": "Asha Patel", "riskScore": 6.0},
	}
	require.NoError(t, writer.PublishSnapshot(ctx, second))

	snap = waitForSnapshot(ctx, t, ch, 2)
	assert.Equal(t, "inc-2", snap.Incidents[0].ID)
	assert.Equal(t, 2, snap.ActiveCount)

	require.Eventually(t, func() bool {
		return len(sink.all()) == 1
	}, 30*time.Second, 100*time.Millisecond)
	assert.Equal(t, "inc-2", sink.all()[0].ID)
	assert.Equal(t, 9, sink.all()[0].RiskScore)

	// Resolving an incident shrinks nothing and must not alert again.
	third := []domain.RawRecord{
		{"id": "inc-2", "status": "resolved", "userName": "Ravi"},
		{"id": "inc-1", "status": "active", "userName": "Asha Patel"},
	}
	require.NoError(t, writer.PublishSnapshot(ctx, third))

	waitForSnapshot(ctx, t, ch, 2)
	require.Eventually(t, func() bool {
		return session.Snapshot().ActiveCount == 1
	}, 30*time.Second, 100*time.Millisecond)
	assert.Len(t, sink.all(), 1)
}
