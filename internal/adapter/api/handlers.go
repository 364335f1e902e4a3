package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/safeguard-ops/dispatch-console/internal/adapter/docstore"
	"github.com/safeguard-ops/dispatch-console/internal/domain"
	"github.com/safeguard-ops/dispatch-console/internal/identity"
	"github.com/safeguard-ops/dispatch-console/internal/stream"
)

// IncidentSession is the slice of stream.Session the API consumes.
type IncidentSession interface {
	Snapshot() domain.Snapshot
	State() stream.ConnectionState
	CheckReadiness(ctx context.Context) error
	UpdateStatus(ctx context.Context, incidentID string, status domain.Status)
}

// Focuser is the slice of locate.Locator the API consumes.
type Focuser interface {
	Focus(inc *domain.Incident)
	Clear()
	FocusID() string
	Results() []domain.PointOfInterest
}

// SubRecords fetches dependent record sets from the document store.
type SubRecords interface {
	Evidence(ctx context.Context, incidentID string) ([]docstore.Evidence, error)
	Contacts(ctx context.Context, reporterUID string) ([]docstore.Contact, error)
}

// TokenVerifier validates operator bearer tokens.
type TokenVerifier interface {
	Verify(tokenString string) (*identity.Operator, error)
}

// Deps carries the collaborators the API serves.
type Deps struct {
	Session  IncidentSession
	Locator  Focuser
	Records  SubRecords
	Verifier TokenVerifier
	Logger   *slog.Logger
}

type handler struct {
	deps Deps
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (h *handler) ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.deps.Session.CheckReadiness(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (h *handler) listIncidents(c *gin.Context) {
	snap := h.deps.Session.Snapshot()
	c.JSON(http.StatusOK, snapshotResponse{
		Incidents:       snap.Incidents,
		ActiveCount:     snap.ActiveCount,
		CapturedAt:      snap.CapturedAt,
		ConnectionState: h.deps.Session.State().String(),
	})
}

// updateStatus is fire-and-forget: the write goes to the external store and
// the next feed delivery carries the authoritative result, so the response is
// 202 regardless of the write outcome.
func (h *handler) updateStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.deps.Logger.Warn("invalid status request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	id := c.Param("id")
	h.deps.Session.UpdateStatus(c.Request.Context(), id, domain.CanonicalStatus(req.Status))
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

func (h *handler) focus(c *gin.Context) {
	id := c.Param("id")
	inc, ok := findIncident(h.deps.Session.Snapshot(), id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown incident"})
		return
	}
	h.deps.Locator.Focus(&inc)
	c.Status(http.StatusNoContent)
}

func (h *handler) clearFocus(c *gin.Context) {
	h.deps.Locator.Clear()
	c.Status(http.StatusNoContent)
}

func (h *handler) resources(c *gin.Context) {
	points := h.deps.Locator.Results()
	if points == nil {
		points = []domain.PointOfInterest{}
	}
	c.JSON(http.StatusOK, resourcesResponse{
		FocusID: h.deps.Locator.FocusID(),
		Points:  points,
	})
}

func (h *handler) evidence(c *gin.Context) {
	id := c.Param("id")
	if _, ok := findIncident(h.deps.Session.Snapshot(), id); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown incident"})
		return
	}

	items, err := h.deps.Records.Evidence(c.Request.Context(), id)
	if err != nil {
		h.deps.Logger.Error("evidence fetch failed", "incident_id", id, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "evidence unavailable"})
		return
	}
	if items == nil {
		items = []docstore.Evidence{}
	}
	c.JSON(http.StatusOK, items)
}

func (h *handler) contacts(c *gin.Context) {
	id := c.Param("id")
	inc, ok := findIncident(h.deps.Session.Snapshot(), id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown incident"})
		return
	}
	if inc.ReporterUID == "" {
		c.JSON(http.StatusOK, []docstore.Contact{})
		return
	}

	items, err := h.deps.Records.Contacts(c.Request.Context(), inc.ReporterUID)
	if err != nil {
		h.deps.Logger.Error("contacts fetch failed", "incident_id", id, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "contacts unavailable"})
		return
	}
	if items == nil {
		items = []docstore.Contact{}
	}
	c.JSON(http.StatusOK, items)
}

func findIncident(snap domain.Snapshot, id string) (domain.Incident, bool) {
	for _, inc := range snap.Incidents {
		if inc.ID == id {
			return inc, true
		}
	}
	return domain.Incident{}, false
}
