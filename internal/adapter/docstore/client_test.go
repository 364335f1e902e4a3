package docstore

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safeguard-ops/dispatch-console/internal/domain"
)

func testClient(baseURL string) *Client {
	return NewClient(baseURL, 5*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestUpdateStatus(t *testing.T) {
	t.Run("issues a single-field patch", func(t *testing.T) {
		var gotMethod, gotPath, gotContentType string
		var gotBody map[string]string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotMethod = r.Method
			gotPath = r.URL.Path
			gotContentType = r.Header.Get("Content-Type")
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			w.WriteHeader(http.StatusNoContent)
		}))
		defer srv.Close()

		err := testClient(srv.URL).UpdateStatus(context.Background(), "inc-1", domain.StatusResolved)

		require.NoError(t, err)
		assert.Equal(t, http.MethodPatch, gotMethod)
		assert.Equal(t, "/incidents/inc-1", gotPath)
		assert.Equal(t, "application/json", gotContentType)
		assert.Equal(t, map[string]string{"status": "Resolved"}, gotBody)
	})

	t.Run("store error status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "not found", http.StatusNotFound)
		}))
		defer srv.Close()

		err := testClient(srv.URL).UpdateStatus(context.Background(), "inc-1", domain.StatusResolved)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 404")
	})

	t.Run("escapes the incident id", func(t *testing.T) {
		var gotPath string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.EscapedPath()
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		err := testClient(srv.URL).UpdateStatus(context.Background(), "inc/1", domain.StatusActive)

		require.NoError(t, err)
		assert.Equal(t, "/incidents/inc%2F1", gotPath)
	})
}

func TestEvidence(t *testing.T) {
	t.Run("fetches and orders newest first", func(t *testing.T) {
		var gotQuery string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.RawQuery
			w.Write([]byte(`[
				{"id":"ev-1","incidentId":"inc-1","type":"photo","url":"https://cdn/a.jpg","uploadedAt":"2026-03-14T09:00:00Z"},
				{"id":"ev-2","incidentId":"inc-1","type":"audio","url":"https://cdn/b.ogg","uploadedAt":"2026-03-14T10:00:00Z"}
			]`))
		}))
		defer srv.Close()

		items, err := testClient(srv.URL).Evidence(context.Background(), "inc-1")

		require.NoError(t, err)
		assert.Equal(t, "incidentId=inc-1", gotQuery)
		require.Len(t, items, 2)
		assert.Equal(t, "ev-2", items[0].ID)
		assert.Equal(t, "ev-1", items[1].ID)
	})

	t.Run("store error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer srv.Close()

		_, err := testClient(srv.URL).Evidence(context.Background(), "inc-1")
		require.Error(t, err)
	})
}

func TestContacts(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`[{"id":"c-1","name":"Meera","phone":"+91 98100 00000","relation":"sister"}]`))
	}))
	defer srv.Close()

	items, err := testClient(srv.URL).Contacts(context.Background(), "uid-77")

	require.NoError(t, err)
	assert.Equal(t, "/users/uid-77/contacts", gotPath)
	require.Len(t, items, 1)
	assert.Equal(t, "Meera", items[0].Name)
	assert.Equal(t, "sister", items[0].Relation)
}
