// Package docstore is the HTTP client for the external document store that
// owns the incident collection and its dependent record sets.
package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/safeguard-ops/dispatch-console/internal/domain"
)

// Client talks to the document store REST surface.
// It implements stream.StatusWriter.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a document store client.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// UpdateStatus issues a single-field partial update on one incident
// document. It never touches the local incident set; the next feed delivery
// is the sole source of truth for the new state.
func (c *Client) UpdateStatus(ctx context.Context, incidentID string, status domain.Status) error {
	body, err := json.Marshal(map[string]string{"status": string(status)})
	if err != nil {
		return fmt.Errorf("serialize status patch: %w", err)
	}

	u := fmt.Sprintf("%s/incidents/%s", c.baseURL, url.PathEscape(incidentID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, u, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("status patch request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("document store error: status %d: %s", resp.StatusCode, respBody)
	}
	return nil
}

// Evidence is an auto-captured media attachment linked to an incident.
type Evidence struct {
	ID         string    `json:"id"`
	IncidentID string    `json:"incidentId"`
	Type       string    `json:"type"` // "image", "photo", or "audio"
	URL        string    `json:"url"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// Evidence fetches the attachments recorded for one incident, newest first.
func (c *Client) Evidence(ctx context.Context, incidentID string) ([]Evidence, error) {
	u := fmt.Sprintf("%s/evidence?%s", c.baseURL, url.Values{"incidentId": {incidentID}}.Encode())

	var items []Evidence
	if err := c.getJSON(ctx, u, &items); err != nil {
		return nil, err
	}

	// Sort locally so the store needs no composite index on
	// incidentId + uploadedAt.
	sort.Slice(items, func(i, j int) bool {
		return items[i].UploadedAt.After(items[j].UploadedAt)
	})
	return items, nil
}

// Contact is a trusted emergency contact registered by a reporter.
type Contact struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Relation string `json:"relation,omitempty"`
}

// Contacts fetches the trusted contacts registered under a reporter's user
// record.
func (c *Client) Contacts(ctx context.Context, reporterUID string) ([]Contact, error) {
	u := fmt.Sprintf("%s/users/%s/contacts", c.baseURL, url.PathEscape(reporterUID))

	var items []Contact
	if err := c.getJSON(ctx, u, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) getJSON(ctx context.Context, fullURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("document store request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("document store error: status %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
