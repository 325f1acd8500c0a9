package reconcile

import (
	"encoding/csv"
	"fmt"
	"os"
)

// Miss reasons, written verbatim to the audit CSV.
const (
	ReasonFacilityNotFound  = "facility_not_found"
	ReasonDetailsFailed     = "details_failed"
	ReasonAddressOutOfScope = "address_out_of_scope"
	ReasonNoLatLng          = "no_latlng"
	ReasonStationNotFound   = "station_not_found"
	ReasonStationNoLatLng   = "station_no_latlng"
	ReasonWalkFailed        = "walk_failed"
)

// Miss is one row the run could not repair, with the query that
// produced the final answer (or the last one tried).
type Miss struct {
	FacilityID string
	Name       string
	Ward       string
	Reason     string
	Query      string
}

var missColumns = []string{"facility_id", "name", "ward", "reason", "query"}

// WriteMisses writes the audit CSV, overwriting the previous run's
// list. An empty run still writes the header so downstream tooling
// sees a fresh file.
func WriteMisses(path string, misses []Miss) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create miss list: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(missColumns); err != nil {
		return fmt.Errorf("failed to write miss header: %w", err)
	}
	for _, m := range misses {
		if err := w.Write([]string{m.FacilityID, m.Name, m.Ward, m.Reason, m.Query}); err != nil {
			return fmt.Errorf("failed to write miss row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}
