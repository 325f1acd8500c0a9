package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultNominatimBase = "https://nominatim.openstreetmap.org"
	nominatimLimit       = 5
	userAgent            = "hoikumap/1.0"
)

// Nominatim is the OSM geocoding client. The public instance allows
// one request per second, so the limiter defaults accordingly; tests
// and self-hosted instances pass their own.
type Nominatim struct {
	BaseURL string
	Email   string
	Retries int
	Delay   time.Duration

	HTTP    *http.Client
	Limiter *rate.Limiter
}

// NewNominatim returns a client for the given instance. An empty
// baseURL targets the public instance.
func NewNominatim(baseURL, email string, retries int, delay time.Duration) *Nominatim {
	if baseURL == "" {
		baseURL = defaultNominatimBase
	}
	return &Nominatim{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Email:   email,
		Retries: retries,
		Delay:   delay,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
		Limiter: rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

type nominatimHit struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	Address     struct {
		City        string `json:"city"`
		County      string `json:"county"`
		Suburb      string `json:"suburb"`
		CountryCode string `json:"country_code"`
	} `json:"address"`
}

// scoreHit ranks a hit by how strongly it anchors to the configured
// city and ward. Display-name matches are worth more than structured
// fields because the structured address is often stale for Japan.
func scoreHit(h nominatimHit, city, ward string) int {
	score := 0
	if city != "" && strings.Contains(h.DisplayName, city) {
		score += 50
	}
	if ward != "" && strings.Contains(h.DisplayName, ward) {
		score += 40
	}
	if city != "" && strings.Contains(h.Address.City, city) {
		score += 30
	}
	if ward != "" && (strings.Contains(h.Address.County, ward) || strings.Contains(h.Address.Suburb, ward)) {
		score += 30
	}
	if h.Address.CountryCode == "jp" {
		score += 10
	}
	return score
}

// Search geocodes one query and returns candidates best first. HTTP
// 403 means the instance has blocked us and tags TagDenied; 429 and
// 5xx retry with a linearly growing delay.
func (c *Nominatim) Search(ctx context.Context, query, city, ward string) ([]Candidate, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "jsonv2")
	q.Set("addressdetails", "1")
	q.Set("limit", strconv.Itoa(nominatimLimit))
	q.Set("countrycodes", "jp")
	if c.Email != "" {
		q.Set("email", c.Email)
	}
	reqURL := c.BaseURL + "/search?" + q.Encode()

	body, err := c.get(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	var hits []nominatimHit
	if err := json.Unmarshal(body, &hits); err != nil {
		return nil, fmt.Errorf("failed to decode nominatim response: %w", err)
	}
	if len(hits) == 0 {
		return nil, nil
	}

	out := make([]Candidate, 0, len(hits))
	for _, h := range hits {
		lat, err1 := strconv.ParseFloat(h.Lat, 64)
		lng, err2 := strconv.ParseFloat(h.Lon, 64)
		if err1 != nil || err2 != nil {
			continue
		}
		out = append(out, Candidate{
			Name:    h.DisplayName,
			Address: h.DisplayName,
			Lat:     lat,
			Lng:     lng,
			Score:   scoreHit(h, city, ward),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}

func (c *Nominatim) get(ctx context.Context, reqURL string) ([]byte, error) {
	attempts := c.Retries
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := c.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build request: %w", err)
		}
		req.Header.Set("User-Agent", userAgent)

		resp, err := c.HTTP.Do(req)
		if err != nil {
			lastErr = tagErr(TagHTTP, "nominatim request failed: %v", err)
		} else {
			body, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			switch {
			case resp.StatusCode == http.StatusOK && readErr == nil:
				return body, nil
			case resp.StatusCode == http.StatusForbidden:
				return nil, tagErr(TagDenied, "nominatim blocked the client (HTTP 403)")
			case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
				lastErr = tagErr(TagRateLimited, "nominatim HTTP %d", resp.StatusCode)
			case readErr != nil:
				lastErr = tagErr(TagHTTP, "failed to read nominatim response: %v", readErr)
			default:
				return nil, tagErr(TagHTTP, "nominatim HTTP %d", resp.StatusCode)
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
