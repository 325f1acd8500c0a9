package lookup

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"hoikumap/internal/jptext"
)

// CachedStation is one resolved station with its kana reading.
type CachedStation struct {
	Name string  `json:"name"`
	Kana string  `json:"kana,omitempty"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

// StationCache is the on-disk station directory, keyed by the station
// base name (no 駅 suffix). It saves eagerly after every upsert so an
// aborted run keeps everything already paid for.
type StationCache struct {
	path    string
	Entries map[string]CachedStation
}

// LoadStationCache reads the cache file, or starts empty when the
// file does not exist yet.
func LoadStationCache(path string) (*StationCache, error) {
	c := &StationCache{path: path, Entries: make(map[string]CachedStation)}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read station cache: %w", err)
	}
	if err := json.Unmarshal(data, &c.Entries); err != nil {
		return nil, fmt.Errorf("failed to decode station cache: %w", err)
	}
	return c, nil
}

// Save writes the cache with sorted keys for a stable diff.
func (c *StationCache) Save() error {
	data, err := json.MarshalIndent(c.Entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode station cache: %w", err)
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write station cache: %w", err)
	}
	return os.Rename(tmp, c.path)
}

// Upsert stores a station under its base name and saves immediately.
func (c *StationCache) Upsert(s CachedStation) error {
	key := jptext.StationBase(s.Name)
	if key == "" {
		return fmt.Errorf("station has no usable name: %q", s.Name)
	}
	if cur, ok := c.Entries[key]; ok && s.Kana == "" {
		s.Kana = cur.Kana
	}
	c.Entries[key] = s
	return c.Save()
}

// Get returns the entry for a station name, matching on the base name.
func (c *StationCache) Get(name string) (CachedStation, bool) {
	s, ok := c.Entries[jptext.StationBase(name)]
	return s, ok
}

// Len returns the number of cached stations.
func (c *StationCache) Len() int { return len(c.Entries) }

// Nearest returns the cached station closest to a point and its
// distance in meters. ok is false when the cache is empty. Keys are
// walked in sorted order so equal distances resolve the same way
// every run.
func (c *StationCache) Nearest(lat, lng float64) (CachedStation, float64, bool) {
	keys := make([]string, 0, len(c.Entries))
	for k := range c.Entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var best CachedStation
	bestDist := 0.0
	found := false
	for _, k := range keys {
		s := c.Entries[k]
		d := HaversineM(lat, lng, s.Lat, s.Lng)
		if !found || d < bestDist {
			best, bestDist, found = s, d, true
		}
	}
	return best, bestDist, found
}
