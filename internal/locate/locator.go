// Package locate performs bounded, cancellable lookups of nearby emergency
// resources around the operator's focused incident.
package locate

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/safeguard-ops/dispatch-console/internal/domain"
	"github.com/safeguard-ops/dispatch-console/internal/observability"
)

// Index queries an external geospatial index for resources of the given
// categories within radiusMeters of center.
type Index interface {
	FindNearby(ctx context.Context, center domain.Geo, radiusMeters int, categories []domain.Category) ([]domain.PointOfInterest, error)
}

// Locator runs at most one nearby-resource query at a time. Changing focus
// cancels any outstanding query so its eventual result can never be applied
// to a now-stale focus: last focus wins, not first completion.
type Locator struct {
	index   Index
	radius  int
	timeout time.Duration
	logger  *slog.Logger
	metrics *observability.Metrics

	mu      sync.Mutex
	focusID string
	gen     uint64
	cancel  context.CancelFunc
	results []domain.PointOfInterest
}

// New creates a Locator. timeout bounds each query; a query past it counts
// as a failure and yields an empty result set.
func New(index Index, radiusMeters int, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Locator {
	return &Locator{
		index:   index,
		radius:  radiusMeters,
		timeout: timeout,
		logger:  logger,
		metrics: metrics,
	}
}

// Focus sets the focal incident and starts a fresh query for it. Incidents
// that are not Active or carry no usable location clear the result set
// instead. Re-focusing the same incident is a no-op so coordinate jitter
// never re-queries.
func (l *Locator) Focus(inc *domain.Incident) {
	if inc == nil || inc.Status != domain.StatusActive || !inc.HasLocation() {
		l.Clear()
		return
	}

	l.mu.Lock()
	if inc.ID == l.focusID {
		l.mu.Unlock()
		return
	}
	if l.cancel != nil {
		l.cancel()
	}
	l.gen++
	gen := l.gen
	l.focusID = inc.ID
	l.results = nil

	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	l.cancel = cancel
	center := *inc.Location
	l.mu.Unlock()

	go l.query(ctx, cancel, gen, inc.ID, center)
}

// Clear drops the focus, cancels any outstanding query, and discards the
// current result set.
func (l *Locator) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.gen++
	l.focusID = ""
	l.results = nil
}

// FocusID returns the id of the currently focused incident, or "".
func (l *Locator) FocusID() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.focusID
}

// Results returns the POI set for the current focus. Empty until the query
// for that focus completes; empty again after any failure. The returned
// slice is never mutated after being set.
func (l *Locator) Results() []domain.PointOfInterest {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.results
}

func (l *Locator) query(ctx context.Context, cancel context.CancelFunc, gen uint64, incidentID string, center domain.Geo) {
	defer cancel()

	start := time.Now()
	pois, err := l.index.FindNearby(ctx, center, l.radius, domain.ResourceCategories())
	l.metrics.POIQueryLatency.Observe(time.Since(start).Seconds())

	l.mu.Lock()
	defer l.mu.Unlock()

	if gen != l.gen {
		// Focus moved on while the query was in flight; the result belongs
		// to a stale focus and must not be applied.
		l.metrics.POIQueries.WithLabelValues("stale").Inc()
		return
	}

	if err != nil {
		// POIs are enrichment, not a safety-critical feed: fail to empty,
		// never to stale data or a user-facing error.
		l.metrics.POIQueries.WithLabelValues("error").Inc()
		l.logger.Warn("nearby-resource query failed",
			"incident_id", incidentID,
			"error", err,
		)
		l.results = []domain.PointOfInterest{}
		return
	}

	l.metrics.POIQueries.WithLabelValues("success").Inc()
	l.logger.Debug("nearby-resource query complete",
		"incident_id", incidentID,
		"results", len(pois),
	)
	l.results = pois
}
