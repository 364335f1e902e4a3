package api

import (
	"time"

	"github.com/safeguard-ops/dispatch-console/internal/domain"
)

type snapshotResponse struct {
	Incidents       []domain.Incident `json:"incidents"`
	ActiveCount     int               `json:"active_count"`
	CapturedAt      time.Time         `json:"captured_at"`
	ConnectionState string            `json:"connection_state"`
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

type resourcesResponse struct {
	FocusID string                   `json:"focus_id"`
	Points  []domain.PointOfInterest `json:"points"`
}
