// Package reconcile repairs registry rows against the external place
// services: one pass fills identity and contact fields, a second pass
// fills the nearest station and walk time as a couple.
package reconcile

import (
	"strings"

	"hoikumap/internal/config"
)

// Policy says which populated fields a run may overwrite. Blank fields
// are always fillable; hand-entered data is only replaced when the
// matching toggle is on.
type Policy struct {
	Phone       bool
	Website     bool
	MapURL      bool
	Station     bool
	WalkMinutes bool
}

// PolicyFrom reads the overwrite toggles out of the run config.
func PolicyFrom(cfg *config.Config) Policy {
	return Policy{
		Phone:       cfg.OverwritePhone,
		Website:     cfg.OverwriteWebsite,
		MapURL:      cfg.OverwriteMapURL,
		Station:     cfg.OverwriteStation,
		WalkMinutes: cfg.OverwriteWalkMinutes,
	}
}

// Apply decides the new value of one cell. A blank candidate never
// changes anything; a blank current value is always filled; a
// populated one only moves when overwrite is on.
func Apply(cur, candidate string, overwrite bool) (string, bool) {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return cur, false
	}
	if strings.TrimSpace(cur) == "" {
		return candidate, true
	}
	if overwrite && cur != candidate {
		return candidate, true
	}
	return cur, false
}
