// Package overpass implements the nearby-resource lookup against the
// Overpass geospatial index.
package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/safeguard-ops/dispatch-console/internal/domain"
)

// Fallbacks for free-form tag data; the index carries name, phone, and
// address only when mappers recorded them.
const (
	unnamedFacility = "Unnamed Facility"
	noPhone         = "Not Available"
	noAddress       = "Location Only"
)

// Client queries the Overpass API interpreter endpoint.
// It implements locate.Index.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates an Overpass client. timeout bounds the whole request and
// is also passed to the interpreter as the server-side query timeout.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// FindNearby issues one composite query for all requested categories within
// radiusMeters of center. Elements without resolvable coordinates are
// dropped individually rather than failing the whole batch.
func (c *Client) FindNearby(ctx context.Context, center domain.Geo, radiusMeters int, categories []domain.Category) ([]domain.PointOfInterest, error) {
	query := buildQuery(center, radiusMeters, categories, c.httpClient.Timeout)
	u := c.baseURL + "?data=" + url.QueryEscape(query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nearby-resource request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("overpass API error: status %d: %s", resp.StatusCode, body)
	}

	var overpassResp response
	if err := json.NewDecoder(resp.Body).Decode(&overpassResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	pois := make([]domain.PointOfInterest, 0, len(overpassResp.Elements))
	for _, el := range overpassResp.Elements {
		lat, lon, ok := el.coordinates()
		if !ok {
			continue
		}
		pois = append(pois, domain.PointOfInterest{
			ID:        strconv.FormatInt(el.ID, 10),
			Latitude:  lat,
			Longitude: lon,
			Category:  domain.CategoryFromAmenity(el.Tags["amenity"]),
			Name:      tagOr(el.Tags, unnamedFacility, "name"),
			Phone:     tagOr(el.Tags, noPhone, "phone", "contact:phone"),
			Address:   tagOr(el.Tags, noAddress, "addr:full", "addr:street"),
		})
	}
	return pois, nil
}

// buildQuery renders the Overpass QL composite query: one node filter per
// category, nodes only to keep the query cheap enough to avoid interpreter
// gateway timeouts.
func buildQuery(center domain.Geo, radiusMeters int, categories []domain.Category, timeout time.Duration) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[out:json][timeout:%d];\n(\n", int(timeout.Seconds()))
	for _, cat := range categories {
		fmt.Fprintf(&b, "  node[\"amenity\"=%q](around:%d,%.6f,%.6f);\n",
			string(cat), radiusMeters, center.Latitude, center.Longitude)
	}
	b.WriteString(");\nout center;")
	return b.String()
}

func tagOr(tags map[string]string, fallback string, keys ...string) string {
	for _, key := range keys {
		if v := tags[key]; v != "" {
			return v
		}
	}
	return fallback
}

// Overpass API response types.

type response struct {
	Elements []element `json:"elements"`
}

type element struct {
	ID     int64             `json:"id"`
	Lat    float64           `json:"lat"`
	Lon    float64           `json:"lon"`
	Center *geoCenter        `json:"center"`
	Tags   map[string]string `json:"tags"`
}

type geoCenter struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// coordinates resolves an element position: direct node coordinates first,
// then the nested center a way/relation carries.
func (e element) coordinates() (float64, float64, bool) {
	lat, lon := e.Lat, e.Lon
	if lat == 0 && lon == 0 && e.Center != nil {
		lat, lon = e.Center.Lat, e.Center.Lon
	}
	if lat == 0 && lon == 0 {
		return 0, 0, false
	}
	return lat, lon, true
}
