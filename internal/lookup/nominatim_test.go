package lookup

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func testNominatim(t *testing.T, handler http.HandlerFunc) *Nominatim {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewNominatim(srv.URL, "ops@example.com", 3, time.Millisecond)
	c.Limiter = rate.NewLimiter(rate.Inf, 1)
	return c
}

func TestNominatimSearch_ScoresAndSorts(t *testing.T) {
	c := testNominatim(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "jsonv2", r.URL.Query().Get("format"))
		w.Write([]byte(`[
			{"display_name":"どこかの保育園, 川崎市, 神奈川県", "lat":"35.53", "lon":"139.70",
			 "address":{"city":"川崎市","country_code":"jp"}},
			{"display_name":"日吉保育園, 港北区, 横浜市, 神奈川県", "lat":"35.55", "lon":"139.64",
			 "address":{"city":"横浜市","suburb":"港北区","country_code":"jp"}}
		]`))
	})

	cands, err := c.Search(context.Background(), "日吉保育園", "横浜市", "港北区")
	require.NoError(t, err)
	require.Len(t, cands, 2)
	// city(+50) + ward(+40) + structured city(+30) + suburb ward(+30) + jp(+10)
	assert.Equal(t, 160, cands[0].Score)
	assert.Equal(t, 35.55, cands[0].Lat)
	assert.Equal(t, 10, cands[1].Score)
}

func TestNominatimSearch_Forbidden(t *testing.T) {
	calls := 0
	c := testNominatim(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := c.Search(context.Background(), "x", "", "")
	assert.True(t, IsDenied(err))
	assert.Equal(t, 1, calls, "a 403 must not be retried")
}

func TestNominatimSearch_RetriesRateLimit(t *testing.T) {
	calls := 0
	c := testNominatim(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`[]`))
	})

	cands, err := c.Search(context.Background(), "x", "", "")
	require.NoError(t, err)
	assert.Empty(t, cands)
	assert.Equal(t, 3, calls)
}

func TestNominatimSearch_RetriesExhausted(t *testing.T) {
	c := testNominatim(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	_, err := c.Search(context.Background(), "x", "", "")
	assert.Equal(t, TagRateLimited, TagOf(err))
}
