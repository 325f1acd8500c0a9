package reconcile

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"hoikumap/internal/lookup"
)

func testStationClient(t *testing.T, handler http.HandlerFunc) *lookup.Places {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := lookup.NewPlaces(srv.URL, "test-key", 1, time.Millisecond)
	c.Limiter = rate.NewLimiter(rate.Inf, 1)
	return c
}

func TestPlacesFinderNearby_KeywordFallback(t *testing.T) {
	var nearbyCalls, textCalls int
	client := testStationClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/maps/api/place/nearbysearch/json":
			nearbyCalls++
			w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
		case "/maps/api/place/textsearch/json":
			textCalls++
			assert.Equal(t, "駅", r.URL.Query().Get("query"))
			assert.NotEmpty(t, r.URL.Query().Get("location"))
			w.Write([]byte(`{"status":"OK","results":[
				{"name":"日吉駅","geometry":{"location":{"lat":35.553,"lng":139.647}},
				 "types":["point_of_interest"]}]}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})
	f := &PlacesFinder{Client: client}

	st, err := f.Nearby(context.Background(), 35.55, 139.64, 2500)
	require.NoError(t, err)
	require.Len(t, st, 1)
	assert.Equal(t, "日吉駅", st[0].Name)
	assert.Equal(t, 1, nearbyCalls)
	assert.Equal(t, 1, textCalls, "the keyword search runs when the typed search is empty")
}

func TestPlacesFinderNearby_NoFallbackWhenTypedSearchHits(t *testing.T) {
	var textCalls int
	client := testStationClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/maps/api/place/nearbysearch/json":
			w.Write([]byte(`{"status":"OK","results":[
				{"name":"日吉駅","geometry":{"location":{"lat":35.553,"lng":139.647}},
				 "types":["train_station"]}]}`))
		case "/maps/api/place/textsearch/json":
			textCalls++
			w.Write([]byte(`{"status":"OK","results":[]}`))
		}
	})
	f := &PlacesFinder{Client: client}

	st, err := f.Nearby(context.Background(), 35.55, 139.64, 2500)
	require.NoError(t, err)
	require.Len(t, st, 1)
	assert.Equal(t, 0, textCalls)
}

func TestStationProviderNames(t *testing.T) {
	f := &PlacesFinder{}
	assert.Equal(t, "places", f.Name())
	assert.Equal(t, "places-nearby", f.Provider(), "nearby spend ledgers under its own provider")
}
