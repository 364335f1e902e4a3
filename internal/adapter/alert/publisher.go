// Package alert publishes fired critical-incident alerts onto a Redis queue
// for downstream notifiers (SMS, push, webhook workers).
package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/safeguard-ops/dispatch-console/internal/domain"
)

// DefaultQueueKey is the Redis list alerts are pushed onto when no key is
// configured.
const DefaultQueueKey = "dispatch:alerts"

// Event is the queued alert payload.
type Event struct {
	IncidentID    string      `json:"incident_id"`
	ReporterLabel string      `json:"reporter_label"`
	RiskScore     int         `json:"risk_score"`
	Location      *domain.Geo `json:"location,omitempty"`
	FiredAt       time.Time   `json:"fired_at"`
}

// Publisher pushes alert events onto a Redis list.
// It implements stream.AlertSink.
type Publisher struct {
	client   *redis.Client
	queueKey string
}

// NewPublisher creates a Publisher. An empty queueKey falls back to
// DefaultQueueKey.
func NewPublisher(client *redis.Client, queueKey string) *Publisher {
	if queueKey == "" {
		queueKey = DefaultQueueKey
	}
	return &Publisher{client: client, queueKey: queueKey}
}

// PublishAlert enqueues one alert event.
func (p *Publisher) PublishAlert(ctx context.Context, inc domain.Incident) error {
	payload, err := json.Marshal(newEvent(inc, time.Now().UTC()))
	if err != nil {
		return fmt.Errorf("serialize alert event: %w", err)
	}
	if err := p.client.LPush(ctx, p.queueKey, payload).Err(); err != nil {
		return fmt.Errorf("enqueue alert event: %w", err)
	}
	return nil
}

func newEvent(inc domain.Incident, firedAt time.Time) Event {
	return Event{
		IncidentID:    inc.ID,
		ReporterLabel: inc.ReporterLabel,
		RiskScore:     inc.RiskScore,
		Location:      inc.Location,
		FiredAt:       firedAt,
	}
}

// NewClient creates and pings a Redis client.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}
