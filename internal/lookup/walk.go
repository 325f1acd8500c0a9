package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
)

type matrixResponse struct {
	Status string `json:"status"`
	Rows   []struct {
		Elements []struct {
			Status   string `json:"status"`
			Duration struct {
				Value int `json:"value"`
			} `json:"duration"`
		} `json:"elements"`
	} `json:"rows"`
}

// WalkSeconds asks the distance-matrix service for walking time
// between two points.
func (c *Places) WalkSeconds(ctx context.Context, fromLat, fromLng, toLat, toLng float64) (int, error) {
	q := url.Values{}
	q.Set("origins", fmt.Sprintf("%f,%f", fromLat, fromLng))
	q.Set("destinations", fmt.Sprintf("%f,%f", toLat, toLng))
	q.Set("mode", "walking")
	q.Set("language", "ja")
	q.Set("key", c.APIKey)
	reqURL := c.BaseURL + "/maps/api/distancematrix/json?" + q.Encode()

	if err := c.Limiter.Wait(ctx); err != nil {
		return 0, err
	}
	env, err := c.fetchRaw(ctx, reqURL)
	if err != nil {
		return 0, err
	}
	var m matrixResponse
	if err := json.Unmarshal(env, &m); err != nil {
		return 0, fmt.Errorf("failed to decode distance matrix: %w", err)
	}
	switch m.Status {
	case "OK":
	case "REQUEST_DENIED":
		return 0, tagErr(TagDenied, "distance matrix denied")
	case "OVER_QUERY_LIMIT":
		return 0, tagErr(TagRateLimited, "distance matrix over query limit")
	default:
		return 0, tagErr(TagHTTP, "distance matrix status %s", m.Status)
	}
	if len(m.Rows) == 0 || len(m.Rows[0].Elements) == 0 {
		return 0, tagErr(TagNoResults, "distance matrix returned no elements")
	}
	el := m.Rows[0].Elements[0]
	if el.Status != "OK" {
		return 0, tagErr(TagNoResults, "distance matrix element status %s", el.Status)
	}
	return el.Duration.Value, nil
}

// WalkMinutes converts a walking duration to the minute figure shown
// on the site: rounded up, never below one.
func WalkMinutes(seconds int) int {
	m := (seconds + 59) / 60
	if m < 1 {
		m = 1
	}
	return m
}

// EstimateWalkMinutes estimates walking time over the straight-line
// distance at the configured speed, used when the matrix call fails.
func EstimateWalkMinutes(distanceM, speedMPerMin float64) int {
	if speedMPerMin <= 0 {
		speedMPerMin = 80
	}
	m := int(math.Ceil(distanceM / speedMPerMin))
	if m < 1 {
		m = 1
	}
	return m
}
