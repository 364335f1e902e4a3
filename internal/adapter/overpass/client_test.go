package overpass

import (
	"context"
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

var testCenter = domain.Geo{Latitude: 19.076, Longitude: 72.8777}

func TestFindNearby(t *testing.T) {
	t.Run("maps elements with tag fallbacks", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"elements":[
				{"id":101,"lat":19.08,"lon":72.88,"tags":{"amenity":"hospital","name":"Lilavati Hospital","contact:phone":"+91 22 2640 0000","addr:street":"Bandra Reclamation"}},
				{"id":102,"lat":19.07,"lon":72.87,"tags":{"amenity":"police"}},
				{"id":103,"lat":19.06,"lon":72.86,"tags":{"amenity":"fountain"}}
			]}`))
		}))
		defer srv.Close()

		pois, err := testClient(srv.URL).FindNearby(context.Background(), testCenter, 5000, domain.ResourceCategories())

		require.NoError(t, err)
		require.Len(t, pois, 3)

		assert.Equal(t, "101", pois[0].ID)
		assert.Equal(t, domain.CategoryHospital, pois[0].Category)
		assert.Equal(t, "Lilavati Hospital", pois[0].Name)
		assert.Equal(t, "+91 22 2640 0000", pois[0].Phone)
		assert.Equal(t, "Bandra Reclamation", pois[0].Address)

		assert.Equal(t, unnamedFacility, pois[1].Name)
		assert.Equal(t, noPhone, pois[1].Phone)
		assert.Equal(t, noAddress, pois[1].Address)
		assert.Equal(t, domain.CategoryPolice, pois[1].Category)

		assert.Equal(t, domain.CategoryOther, pois[2].Category)
	})

	t.Run("direct phone tag beats contact phone", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"elements":[{"id":1,"lat":19.0,"lon":72.8,"tags":{"phone":"100","contact:phone":"101"}}]}`))
		}))
		defer srv.Close()

		pois, err := testClient(srv.URL).FindNearby(context.Background(), testCenter, 5000, domain.ResourceCategories())

		require.NoError(t, err)
		assert.Equal(t, "100", pois[0].Phone)
	})

	t.Run("falls back to center coordinates", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"elements":[{"id":7,"center":{"lat":19.05,"lon":72.85},"tags":{"amenity":"pharmacy"}}]}`))
		}))
		defer srv.Close()

		pois, err := testClient(srv.URL).FindNearby(context.Background(), testCenter, 5000, domain.ResourceCategories())

		require.NoError(t, err)
		require.Len(t, pois, 1)
		assert.Equal(t, 19.05, pois[0].Latitude)
		assert.Equal(t, 72.85, pois[0].Longitude)
	})

	t.Run("drops elements without coordinates", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"elements":[
				{"id":1,"tags":{"amenity":"police"}},
				{"id":2,"lat":19.0,"lon":72.8,"tags":{"amenity":"police"}}
			]}`))
		}))
		defer srv.Close()

		pois, err := testClient(srv.URL).FindNearby(context.Background(), testCenter, 5000, domain.ResourceCategories())

		require.NoError(t, err)
		require.Len(t, pois, 1)
		assert.Equal(t, "2", pois[0].ID)
	})

	t.Run("API error status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
		}))
		defer srv.Close()

		_, err := testClient(srv.URL).FindNearby(context.Background(), testCenter, 5000, domain.ResourceCategories())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 429")
	})

	t.Run("malformed response", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"elements": [`))
		}))
		defer srv.Close()

		_, err := testClient(srv.URL).FindNearby(context.Background(), testCenter, 5000, domain.ResourceCategories())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "decode response")
	})

	t.Run("context cancellation", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))
		defer srv.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := testClient(srv.URL).FindNearby(ctx, testCenter, 5000, domain.ResourceCategories())

		require.Error(t, err)
	})

	t.Run("sends the composite query", func(t *testing.T) {
		var got string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = r.URL.Query().Get("data")
			w.Write([]byte(`{"elements":[]}`))
		}))
		defer srv.Close()

		_, err := testClient(srv.URL).FindNearby(context.Background(), testCenter, 5000, domain.ResourceCategories())

		require.NoError(t, err)
		assert.Contains(t, got, "[out:json]")
		assert.Contains(t, got, `node["amenity"="police"](around:5000,19.076000,72.877700);`)
		assert.Contains(t, got, `node["amenity"="hospital"]`)
		assert.Contains(t, got, `node["amenity"="pharmacy"]`)
		assert.Contains(t, got, "out center;")
	})
}

func TestBuildQuery(t *testing.T) {
	q := buildQuery(domain.Geo{Latitude: 1, Longitude: 2}, 300, []domain.Category{domain.CategoryPolice}, 25*time.Second)

	assert.Contains(t, q, "[timeout:25]")
	assert.Contains(t, q, `node["amenity"="police"](around:300,1.000000,2.000000);`)
}
