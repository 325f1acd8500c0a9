package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const defaultPlacesBase = "https://maps.googleapis.com"

// Places is the client for the legacy Google Places web services,
// which are the ones that still answer Japanese facility names
// reliably. All calls share one limiter so the details and nearby
// passes cannot outrun the quota together.
type Places struct {
	BaseURL string
	APIKey  string
	Retries int
	Delay   time.Duration

	HTTP    *http.Client
	Limiter *rate.Limiter
}

// NewPlaces returns a client. An empty baseURL targets the real
// service; tests point it at a local server.
func NewPlaces(baseURL, apiKey string, retries int, delay time.Duration) *Places {
	if baseURL == "" {
		baseURL = defaultPlacesBase
	}
	return &Places{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Retries: retries,
		Delay:   delay,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
		Limiter: rate.NewLimiter(rate.Every(100*time.Millisecond), 1),
	}
}

type placesEnvelope struct {
	Status       string          `json:"status"`
	ErrorMessage string          `json:"error_message"`
	Results      json.RawMessage `json:"results"`
	Result       json.RawMessage `json:"result"`
}

type placeResult struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	FormattedAddress string   `json:"formatted_address"`
	Vicinity         string   `json:"vicinity"`
	Types            []string `json:"types"`
	Geometry         struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
	FormattedPhone string `json:"formatted_phone_number"`
	Website        string `json:"website"`
	URL            string `json:"url"`
}

func (p placeResult) details() *PlaceDetails {
	addr := p.FormattedAddress
	if addr == "" {
		addr = p.Vicinity
	}
	return &PlaceDetails{
		PlaceID: p.PlaceID,
		Name:    p.Name,
		Address: addr,
		Lat:     p.Geometry.Location.Lat,
		Lng:     p.Geometry.Location.Lng,
		Types:   p.Types,
		Phone:   p.FormattedPhone,
		Website: p.Website,
		MapURL:  p.URL,
	}
}

// TextSearch resolves a free-text query to place candidates.
func (c *Places) TextSearch(ctx context.Context, query string) ([]*PlaceDetails, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("language", "ja")
	q.Set("region", "jp")

	env, err := c.call(ctx, "/maps/api/place/textsearch/json", q)
	if err != nil {
		return nil, err
	}
	var results []placeResult
	if err := json.Unmarshal(env.Results, &results); err != nil {
		return nil, fmt.Errorf("failed to decode text search results: %w", err)
	}
	out := make([]*PlaceDetails, 0, len(results))
	for _, r := range results {
		out = append(out, r.details())
	}
	return out, nil
}

// Details fetches the enrichment fields for one place id.
func (c *Places) Details(ctx context.Context, placeID string) (*PlaceDetails, error) {
	q := url.Values{}
	q.Set("place_id", placeID)
	q.Set("language", "ja")
	q.Set("fields", "place_id,name,formatted_address,geometry,types,formatted_phone_number,website,url")

	env, err := c.call(ctx, "/maps/api/place/details/json", q)
	if err != nil {
		return nil, err
	}
	var result placeResult
	if err := json.Unmarshal(env.Result, &result); err != nil {
		return nil, fmt.Errorf("failed to decode place details: %w", err)
	}
	return result.details(), nil
}

// NearbyStations lists transit stations within radiusM meters.
func (c *Places) NearbyStations(ctx context.Context, lat, lng float64, radiusM int) ([]Station, error) {
	q := url.Values{}
	q.Set("location", fmt.Sprintf("%f,%f", lat, lng))
	q.Set("radius", strconv.Itoa(radiusM))
	q.Set("type", "transit_station")
	q.Set("language", "ja")

	env, err := c.call(ctx, "/maps/api/place/nearbysearch/json", q)
	if err != nil {
		return nil, err
	}
	var results []placeResult
	if err := json.Unmarshal(env.Results, &results); err != nil {
		return nil, fmt.Errorf("failed to decode nearby results: %w", err)
	}
	out := make([]Station, 0, len(results))
	for _, r := range results {
		out = append(out, Station{
			Name:  r.Name,
			Lat:   r.Geometry.Location.Lat,
			Lng:   r.Geometry.Location.Lng,
			Types: r.Types,
		})
	}
	return out, nil
}

// StationsByKeyword runs a free-text search biased to a point, the
// fallback when the typed nearby search returns nothing. The text
// index knows stations the transit_station type filter does not.
func (c *Places) StationsByKeyword(ctx context.Context, keyword string, lat, lng float64, radiusM int) ([]Station, error) {
	q := url.Values{}
	q.Set("query", keyword)
	q.Set("location", fmt.Sprintf("%f,%f", lat, lng))
	q.Set("radius", strconv.Itoa(radiusM))
	q.Set("language", "ja")

	env, err := c.call(ctx, "/maps/api/place/textsearch/json", q)
	if err != nil {
		return nil, err
	}
	var results []placeResult
	if err := json.Unmarshal(env.Results, &results); err != nil {
		return nil, fmt.Errorf("failed to decode station search results: %w", err)
	}
	out := make([]Station, 0, len(results))
	for _, r := range results {
		out = append(out, Station{
			Name:  r.Name,
			Lat:   r.Geometry.Location.Lat,
			Lng:   r.Geometry.Location.Lng,
			Types: r.Types,
		})
	}
	return out, nil
}

// call performs one API request with key injection, pacing, status
// mapping and bounded retry. OVER_QUERY_LIMIT retries with a growing
// delay; REQUEST_DENIED tags TagDenied so the caller stops the batch.
func (c *Places) call(ctx context.Context, path string, q url.Values) (*placesEnvelope, error) {
	q.Set("key", c.APIKey)
	reqURL := c.BaseURL + path + "?" + q.Encode()

	attempts := c.Retries
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := c.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
		env, err := c.fetch(ctx, reqURL)
		if err != nil {
			lastErr = err
		} else {
			switch env.Status {
			case "OK":
				return env, nil
			case "ZERO_RESULTS":
				return nil, tagErr(TagNoResults, "no results")
			case "REQUEST_DENIED":
				return nil, tagErr(TagDenied, "request denied: %s", env.ErrorMessage)
			case "OVER_QUERY_LIMIT":
				lastErr = tagErr(TagRateLimited, "over query limit")
			case "INVALID_REQUEST":
				return nil, tagErr(TagHTTP, "invalid request: %s", env.ErrorMessage)
			default:
				lastErr = tagErr(TagHTTP, "status %s: %s", env.Status, env.ErrorMessage)
			}
		}
		if attempt < attempts {
			select {
			case <-time.After(c.Delay * time.Duration(attempt)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, lastErr
}

func (c *Places) fetch(ctx context.Context, reqURL string) (*placesEnvelope, error) {
	body, err := c.fetchRaw(ctx, reqURL)
	if err != nil {
		return nil, err
	}
	var env placesEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to decode places response: %w", err)
	}
	return &env, nil
}

func (c *Places) fetchRaw(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, tagErr(TagHTTP, "places request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		return nil, tagErr(TagDenied, "places HTTP 403")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, tagErr(TagHTTP, "places HTTP %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, tagErr(TagHTTP, "failed to read places response: %v", err)
	}
	return body, nil
}
