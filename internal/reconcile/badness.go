package reconcile

import (
	"strings"

	"hoikumap/internal/config"
	"hoikumap/internal/jptext"
	"hoikumap/internal/registry"
)

// NeedsRepair reports whether a row is worth spending lookups on. Used
// when ONLY_BAD_ROWS narrows a run to the rows a previous run failed
// to finish.
func NeedsRepair(rec *registry.Record, cfg *config.Config) bool {
	addr := strings.TrimSpace(rec.Address)
	if addr == "" {
		return true
	}
	if cfg.StrictAddressCheck && !jptext.AddressInScope(addr, cfg.CityFilter, cfg.WardFilter) {
		return true
	}
	if _, _, ok := rec.LatLng(); !ok {
		return true
	}
	if cfg.FillNearestStation {
		st := strings.TrimSpace(rec.NearestStation)
		if st == "" || !jptext.LooksLikeStation(st) {
			return true
		}
		wm, ok := rec.WalkMinutesInt()
		if !ok || wm <= 0 || wm >= 200 {
			return true
		}
	}
	return false
}
