// Package lookup talks to the external geocoding and place services:
// building query cascades, scoring candidates, caching resolved
// stations and keeping the callers able to tell a transient failure
// from a configuration one.
package lookup

import (
	"errors"
	"fmt"
)

// Tag classifies a lookup outcome for control flow and the call
// ledger. Tags are data, not errors: callers branch on them without
// string matching.
type Tag string

const (
	TagOK          Tag = "ok"
	TagNoResults   Tag = "no_results"
	TagRateLimited Tag = "rate_limited"
	TagDenied      Tag = "denied"
	TagHTTP        Tag = "http_error"
)

// TagError carries the outcome tag alongside the underlying failure.
type TagError struct {
	Tag Tag
	Err error
}

func (e *TagError) Error() string {
	if e.Err == nil {
		return string(e.Tag)
	}
	return fmt.Sprintf("%s: %v", e.Tag, e.Err)
}

func (e *TagError) Unwrap() error { return e.Err }

func tagErr(tag Tag, format string, args ...any) error {
	return &TagError{Tag: tag, Err: fmt.Errorf(format, args...)}
}

// TagOf extracts the outcome tag from an error chain. Untagged errors
// report TagHTTP since they come from the transport layer.
func TagOf(err error) Tag {
	if err == nil {
		return TagOK
	}
	var te *TagError
	if errors.As(err, &te) {
		return te.Tag
	}
	return TagHTTP
}

// IsDenied reports whether the service rejected our credentials or
// usage outright. A denied call aborts the whole batch: every retry
// would burn quota on the same answer.
func IsDenied(err error) bool { return TagOf(err) == TagDenied }

// IsNoResults reports a clean empty answer.
func IsNoResults(err error) bool { return TagOf(err) == TagNoResults }

// Candidate is one scored geocoding hit.
type Candidate struct {
	Name    string
	Address string
	Lat     float64
	Lng     float64
	Score   int
}

// PlaceDetails is the enrichment payload for one resolved facility.
type PlaceDetails struct {
	PlaceID string
	Name    string
	Address string
	Lat     float64
	Lng     float64
	Types   []string
	Phone   string
	Website string
	MapURL  string
}

// Station is one transit stop near a facility.
type Station struct {
	Name  string
	Lat   float64
	Lng   float64
	Types []string
}
