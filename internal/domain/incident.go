package domain

import (
	"time"

	"github.com/google/uuid"
)

// Status is the canonical incident lifecycle state. Raw feed records carry it
// in arbitrary case; CanonicalStatus is the only way a Status is produced.
type Status string

const (
	StatusActive   Status = "Active"
	StatusAssigned Status = "Assigned"
	StatusResolved Status = "Resolved"
)

// Sentinel values substituted for absent fields during normalization.
// Field devices run several client versions and omit fields freely, so the
// canonical model never carries empty strings for display fields.
const (
	UnknownReporter     = "Mobile App User"
	UnknownContact      = "N/A"
	UnresolvedAddress   = "Address not resolved"
	PendingJurisdiction = "Calculating Jurisdiction..."

	DefaultRiskScore = 5
)

// Fallback coordinates used for the synthetic placeholder incident installed
// when the change feed fails (Mumbai dispatch region center).
const (
	FallbackLatitude  = 19.1136
	FallbackLongitude = 72.8697
)

// Geo is a WGS-84 latitude/longitude coordinate pair.
type Geo struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Incident is the canonical, normalized representation of an SOS report.
// The external document store owns every field except Status, which the
// engine may transition through an explicit operator write.
type Incident struct {
	ID                   string    `json:"id"`
	ReporterLabel        string    `json:"reporter_label"`
	ReporterUID          string    `json:"reporter_uid,omitempty"`
	ContactEmail         string    `json:"contact_email"`
	ContactPhone         string    `json:"contact_phone"`
	Location             *Geo      `json:"location,omitempty"`
	Address              string    `json:"address"`
	AssignedJurisdiction string    `json:"assigned_jurisdiction"`
	CreatedAt            time.Time `json:"created_at"`
	Status               Status    `json:"status"`
	RiskScore            int       `json:"risk_score"`
	EvidencePrimaryURL   string    `json:"evidence_primary_url,omitempty"`
	EvidenceSecondaryURL string    `json:"evidence_secondary_url,omitempty"`
}

// HasLocation reports whether the incident can participate in map and
// geospatial operations.
func (i Incident) HasLocation() bool {
	return i.Location != nil
}

// Snapshot is an immutable, point-in-time view of the incident set, ordered
// newest CreatedAt first as delivered by the feed. The Incidents slice is
// never mutated after construction; consumers may hold it across replacements.
type Snapshot struct {
	Incidents   []Incident `json:"incidents"`
	ActiveCount int        `json:"active_count"`
	CapturedAt  time.Time  `json:"captured_at"`
}

// NewSnapshot builds a snapshot from an already-ordered incident list.
func NewSnapshot(incidents []Incident, capturedAt time.Time) Snapshot {
	active := 0
	for _, inc := range incidents {
		if inc.Status == StatusActive {
			active++
		}
	}
	return Snapshot{
		Incidents:   incidents,
		ActiveCount: active,
		CapturedAt:  capturedAt,
	}
}

// SnapshotStats is the scalar summary the alerting heuristic keeps between
// deliveries instead of the full prior snapshot.
type SnapshotStats struct {
	Size        int
	ActiveCount int
}

// Stats summarizes the snapshot for the differ.
func (s Snapshot) Stats() SnapshotStats {
	return SnapshotStats{Size: len(s.Incidents), ActiveCount: s.ActiveCount}
}

// PlaceholderIncident is the synthetic Active incident substituted when the
// change feed fails, so map and feed consumers always have a renderable,
// non-empty set.
func PlaceholderIncident(at time.Time) Incident {
	return Incident{
		ID:                   "fallback-" + uuid.NewString()[:8],
		ReporterLabel:        "Emergency Fallback",
		ContactEmail:         UnknownContact,
		ContactPhone:         UnknownContact,
		Location:             &Geo{Latitude: FallbackLatitude, Longitude: FallbackLongitude},
		Address:              UnresolvedAddress,
		AssignedJurisdiction: PendingJurisdiction,
		CreatedAt:            at,
		Status:               StatusActive,
		RiskScore:            DefaultRiskScore,
	}
}

// Category classifies a nearby emergency resource.
type Category string

const (
	CategoryPolice   Category = "police"
	CategoryHospital Category = "hospital"
	CategoryPharmacy Category = "pharmacy"
	CategoryOther    Category = "other"
)

// ResourceCategories are the fixed filters every nearby-resource query asks
// for.
func ResourceCategories() []Category {
	return []Category{CategoryPolice, CategoryHospital, CategoryPharmacy}
}

// CategoryFromAmenity maps a geospatial index amenity tag to a category.
func CategoryFromAmenity(tag string) Category {
	switch Category(tag) {
	case CategoryPolice, CategoryHospital, CategoryPharmacy:
		return Category(tag)
	default:
		return CategoryOther
	}
}

// PointOfInterest is a nearby emergency resource. Ephemeral: recomputed per
// focus change and never merged with prior results.
type PointOfInterest struct {
	ID        string   `json:"id"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Category  Category `json:"category"`
	Name      string   `json:"name"`
	Phone     string   `json:"phone"`
	Address   string   `json:"address"`
}

// RawRecord is a loosely-typed incident document as delivered by the change
// feed. Only NormalizeRecord consumes it; the rest of the engine is fully
// typed.
type RawRecord map[string]any

// FeedDelivery is one change-feed message: the complete ordered result set of
// the incident collection at some moment, plus transport metadata.
type FeedDelivery struct {
	Records    []RawRecord
	Topic      string
	Partition  int
	Offset     int64
	ReceivedAt time.Time
}
