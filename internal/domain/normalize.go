package domain

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// NormalizeRecord converts a raw change-feed document into a canonical
// incident. It never fails: absent or malformed fields degrade to the
// documented sentinels and defaults, because the upstream feed is untrusted
// and heterogeneous across client versions.
func NormalizeRecord(raw RawRecord) Incident {
	return Incident{
		ID:                   stringField(raw, "id"),
		ReporterLabel:        firstNonEmpty(stringField(raw, "userName"), stringField(raw, "userId"), UnknownReporter),
		ReporterUID:          stringField(raw, "userId"),
		ContactEmail:         firstNonEmpty(stringField(raw, "userEmail"), UnknownContact),
		ContactPhone:         firstNonEmpty(stringField(raw, "userPhone"), UnknownContact),
		Location:             normalizeLocation(raw),
		Address:              firstNonEmpty(stringField(raw, "address"), UnresolvedAddress),
		AssignedJurisdiction: firstNonEmpty(stringField(raw, "assignedStationName"), PendingJurisdiction),
		CreatedAt:            normalizeCreatedAt(raw["createdAt"]),
		Status:               CanonicalStatus(stringField(raw, "status")),
		RiskScore:            normalizeRiskScore(raw["riskScore"]),
		EvidencePrimaryURL:   stringField(raw, "evidenceUrl"),
		EvidenceSecondaryURL: stringField(raw, "evidenceUrlBack"),
	}
}

// CanonicalStatus coerces an arbitrary-case status string: lowercase, then
// capitalize the first letter only ("active" -> "Active", "RESOLVED" ->
// "Resolved"). An absent status fails open to Active so an emergency with an
// unknown state stays visible.
func CanonicalStatus(raw string) Status {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return StatusActive
	}
	lower := strings.ToLower(raw)
	return Status(strings.ToUpper(lower[:1]) + lower[1:])
}

// normalizeLocation extracts coordinates, checking the structured point
// object first, then the legacy scalar fields, then leaving location absent.
// Zero-valued legacy scalars count as absent: the clients that wrote that
// shape skipped the fields on a falsy check.
func normalizeLocation(raw RawRecord) *Geo {
	if point, ok := raw["location"].(map[string]any); ok {
		lat, okLat := numberValue(point["latitude"])
		lon, okLon := numberValue(point["longitude"])
		if okLat && okLon {
			return &Geo{Latitude: lat, Longitude: lon}
		}
	}

	lat, okLat := numberValue(raw["lat"])
	lon, okLon := numberValue(raw["lng"])
	if okLat && okLon && lat != 0 && lon != 0 {
		return &Geo{Latitude: lat, Longitude: lon}
	}
	return nil
}

// normalizeCreatedAt converts any timestamp shape the client SDKs produce.
// Unconvertible values default to the normalization wall-clock time.
func normalizeCreatedAt(v any) time.Time {
	switch t := v.(type) {
	case string:
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return parsed
		}
	case float64:
		// Epoch milliseconds vs seconds: anything past ~33658 AD in seconds
		// is assumed to be milliseconds.
		if t > 1e12 {
			return time.UnixMilli(int64(t)).UTC()
		}
		if t > 0 {
			return time.Unix(int64(t), 0).UTC()
		}
	case map[string]any:
		if secs, ok := numberValue(t["seconds"]); ok {
			nanos, _ := numberValue(t["nanos"])
			return time.Unix(int64(secs), int64(nanos)).UTC()
		}
	}
	return clock.Now()
}

// normalizeRiskScore clamps to [0,10]; absent or non-numeric defaults to 5.
func normalizeRiskScore(v any) int {
	n, ok := numberValue(v)
	if !ok {
		return DefaultRiskScore
	}
	score := int(math.Round(n))
	if score < 0 {
		return 0
	}
	if score > 10 {
		return 10
	}
	return score
}

func stringField(raw RawRecord, key string) string {
	switch v := raw[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		// Some legacy clients wrote numeric identifiers.
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

func numberValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return parsed, true
		}
	}
	return 0, false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
