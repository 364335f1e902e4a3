// Package stream owns the live subscription to the incident change feed. A
// Session consumes deliveries sequentially, normalizes and diffs them, and
// publishes immutable snapshots to any number of consumers.
package stream

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/safeguard-ops/dispatch-console/internal/domain"
	"github.com/safeguard-ops/dispatch-console/internal/identity"
	"github.com/safeguard-ops/dispatch-console/internal/observability"
)

// FeedReader supplies change-feed deliveries. Next blocks until a delivery
// arrives or the context is cancelled.
type FeedReader interface {
	Next(ctx context.Context) (domain.FeedDelivery, error)
	Close() error
}

// StatusWriter issues a single-field status update against the external
// document store.
type StatusWriter interface {
	UpdateStatus(ctx context.Context, incidentID string, status domain.Status) error
}

// AlertSink receives critical-incident alerts for downstream notification.
type AlertSink interface {
	PublishAlert(ctx context.Context, incident domain.Incident) error
}

// ConnectionState describes the feed session lifecycle.
type ConnectionState int

const (
	Disconnected ConnectionState = iota
	Subscribing
	Live
	Failed
)

func (s ConnectionState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Subscribing:
		return "subscribing"
	case Live:
		return "live"
	case Failed:
		return "failed"
	}
	return "unknown"
}

const alertPublishTimeout = 5 * time.Second

// Session is one operator's live view of the incident collection. It owns
// the feed subscription lifecycle: callers Start it with a verified identity
// and Stop it on teardown; Stop always runs the feed release exactly once.
type Session struct {
	feed    FeedReader
	store   StatusWriter
	alerts  AlertSink // nil disables alert publication
	logger  *slog.Logger
	metrics *observability.Metrics

	mu        sync.RWMutex
	snapshot  domain.Snapshot
	prevStats *domain.SnapshotStats
	state     ConnectionState
	subs      map[int]chan domain.Snapshot
	nextSub   int
	started   bool

	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

// New creates a Session. Pass a nil alerts sink to disable downstream alert
// publication.
func New(feed FeedReader, store StatusWriter, alerts AlertSink, logger *slog.Logger, metrics *observability.Metrics) *Session {
	return &Session{
		feed:    feed,
		store:   store,
		alerts:  alerts,
		logger:  logger,
		metrics: metrics,
		state:   Disconnected,
		subs:    make(map[int]chan domain.Snapshot),
	}
}

// Start begins consuming the change feed on behalf of the given operator.
// A nil operator leaves the session Disconnected with an empty set and
// performs no feed I/O. Starting an already-started session is an error.
func (s *Session) Start(op *identity.Operator) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return errors.New("session already started")
	}

	if op == nil {
		s.setStateLocked(Disconnected)
		s.snapshot = domain.Snapshot{}
		s.logger.Info("no operator identity, feed session disconnected")
		return nil
	}

	s.started = true
	s.setStateLocked(Subscribing)

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	s.logger.Info("feed session starting", "operator_uid", op.UID)
	go s.run(ctx)
	return nil
}

// Stop releases the feed subscription. Safe to call multiple times and on a
// session that never started; no delivery is processed after Stop returns.
func (s *Session) Stop() {
	s.stopOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
		if s.done != nil {
			<-s.done
		}
		if err := s.feed.Close(); err != nil {
			s.logger.Warn("feed close failed", "error", err)
		}
	})
}

// run consumes deliveries sequentially: a new delivery is only handled after
// the previous one's state replacement completed.
func (s *Session) run(ctx context.Context) {
	defer close(s.done)

	for {
		delivery, err := s.feed.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				s.logger.Info("feed session stopping", "reason", ctx.Err())
				return
			}
			s.failOver(err)
			return
		}
		s.apply(delivery)
	}
}

// apply runs one normalize-diff-replace cycle and fires the alert side
// effect when indicated.
func (s *Session) apply(delivery domain.FeedDelivery) {
	start := time.Now()

	incidents := make([]domain.Incident, 0, len(delivery.Records))
	for _, raw := range delivery.Records {
		incidents = append(incidents, domain.NormalizeRecord(raw))
	}
	snap := domain.NewSnapshot(incidents, time.Now().UTC())

	s.mu.Lock()
	alert, fire := domain.ShouldAlert(s.prevStats, snap)
	stats := snap.Stats()
	s.snapshot = snap
	s.prevStats = &stats
	s.setStateLocked(Live)
	s.mu.Unlock()

	s.metrics.FeedDeliveries.Inc()
	s.metrics.IncidentsCurrent.Set(float64(stats.Size))
	s.metrics.ActiveIncidents.Set(float64(stats.ActiveCount))
	s.metrics.DeliveryDuration.Observe(time.Since(start).Seconds())

	s.logger.Debug("feed delivery applied",
		"incidents", stats.Size,
		"active", stats.ActiveCount,
		"offset", delivery.Offset,
	)

	if fire {
		s.fireAlert(alert)
	}
	s.publish(snap)
}

func (s *Session) fireAlert(inc domain.Incident) {
	s.metrics.AlertsFired.Inc()
	s.logger.Warn("critical SOS alert",
		"incident_id", inc.ID,
		"reporter", inc.ReporterLabel,
		"risk_score", inc.RiskScore,
	)

	if s.alerts == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), alertPublishTimeout)
	defer cancel()
	if err := s.alerts.PublishAlert(ctx, inc); err != nil {
		s.logger.Error("alert publish failed", "incident_id", inc.ID, "error", err)
	}
}

// failOver substitutes a single synthetic Active placeholder incident so map
// and feed consumers keep a renderable, non-empty state. Degrade-to-visible,
// not silent failure: the session ends in Failed and stays there until a
// fresh session is started.
func (s *Session) failOver(err error) {
	s.metrics.FeedErrors.Inc()
	s.logger.Error("feed subscription failed, installing placeholder incident", "error", err)

	snap := domain.NewSnapshot(
		[]domain.Incident{domain.PlaceholderIncident(time.Now().UTC())},
		time.Now().UTC(),
	)

	s.mu.Lock()
	s.snapshot = snap
	s.setStateLocked(Failed)
	s.mu.Unlock()

	s.publish(snap)
}

// UpdateStatus issues a single-field status write to the external store.
// It never blocks on or mutates local state: the next feed delivery is the
// sole source of truth for the new status. Failures are logged and counted,
// not surfaced or retried.
func (s *Session) UpdateStatus(ctx context.Context, incidentID string, status domain.Status) {
	if err := s.store.UpdateStatus(ctx, incidentID, status); err != nil {
		s.metrics.StatusWrites.WithLabelValues("error").Inc()
		s.logger.Error("status write failed",
			"incident_id", incidentID,
			"status", status,
			"error", err,
		)
		return
	}
	s.metrics.StatusWrites.WithLabelValues("success").Inc()
	s.logger.Info("status write issued", "incident_id", incidentID, "status", status)
}

// Snapshot returns the latest applied snapshot. The returned value is
// immutable; its incident slice is never mutated after construction.
func (s *Session) Snapshot() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// State returns the current connection state.
func (s *Session) State() ConnectionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// CheckReadiness returns nil once the session has something renderable: a
// live snapshot or the failed-over placeholder.
func (s *Session) CheckReadiness(_ context.Context) error {
	switch s.State() {
	case Live, Failed:
		return nil
	default:
		return errors.New("feed session has not applied a delivery yet")
	}
}

// Subscribe registers a consumer for snapshot publications. Each processed
// delivery sends the new snapshot; a consumer that lags keeps only the most
// recent value. The returned func unsubscribes.
func (s *Session) Subscribe() (<-chan domain.Snapshot, func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	ch := make(chan domain.Snapshot, 1)
	s.subs[id] = ch
	s.mu.Unlock()

	return ch, func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Session) publish(snap domain.Snapshot) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.subs {
		// Replace a stale pending value rather than block the feed loop.
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

func (s *Session) setStateLocked(state ConnectionState) {
	s.state = state
	s.metrics.ConnectionState.Set(float64(state))
}
