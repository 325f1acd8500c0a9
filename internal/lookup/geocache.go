package lookup

import (
	"encoding/json"
	"fmt"
	"os"
)

// GeocodeCache memoizes resolved queries so re-runs over a mostly
// clean registry cost almost nothing. Negative answers are cached too
// (a nil candidate) since unresolvable queries dominate repeat cost.
type GeocodeCache struct {
	path    string
	Entries map[string]*Candidate
}

// LoadGeocodeCache reads the cache file, or starts empty.
func LoadGeocodeCache(path string) (*GeocodeCache, error) {
	c := &GeocodeCache{path: path, Entries: make(map[string]*Candidate)}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read geocode cache: %w", err)
	}
	if err := json.Unmarshal(data, &c.Entries); err != nil {
		return nil, fmt.Errorf("failed to decode geocode cache: %w", err)
	}
	return c, nil
}

// Save writes the cache atomically.
func (c *GeocodeCache) Save() error {
	data, err := json.MarshalIndent(c.Entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode geocode cache: %w", err)
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write geocode cache: %w", err)
	}
	return os.Rename(tmp, c.path)
}

// Get returns the memoized answer for a query. hit distinguishes "not
// asked yet" from a cached miss.
func (c *GeocodeCache) Get(query string) (cand *Candidate, hit bool) {
	cand, hit = c.Entries[query]
	return cand, hit
}

// Put memoizes an answer and saves immediately.
func (c *GeocodeCache) Put(query string, cand *Candidate) error {
	c.Entries[query] = cand
	return c.Save()
}
