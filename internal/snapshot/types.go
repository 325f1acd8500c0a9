// Package snapshot builds and maintains the per-month JSON files the
// site serves: one availability snapshot per month plus the month
// index.
package snapshot

// AgeStats holds the three published measures for one age bracket and
// the two figures derived from them. Pointers distinguish "the sheet
// had no value" from zero, which the published workbooks genuinely
// mean differently.
type AgeStats struct {
	Accept             *int     `json:"accept"`
	Wait               *int     `json:"wait"`
	Enrolled           *int     `json:"enrolled"`
	CapacityEst        *int     `json:"capacity_est"`
	WaitPerCapacityEst *float64 `json:"wait_per_capacity_est"`
}

// Facility is one facility's month entry: identity fields from the
// registry plus the availability stats from the workbooks.
type Facility struct {
	FacilityID     string               `json:"facility_id"`
	Name           string               `json:"name"`
	NameKana       string               `json:"name_kana,omitempty"`
	Ward           string               `json:"ward"`
	Address        string               `json:"address,omitempty"`
	Lat            *float64             `json:"lat,omitempty"`
	Lng            *float64             `json:"lng,omitempty"`
	MapURL         string               `json:"map_url,omitempty"`
	FacilityType   string               `json:"facility_type,omitempty"`
	Phone          string               `json:"phone,omitempty"`
	Website        string               `json:"website,omitempty"`
	Notes          string               `json:"notes,omitempty"`
	NearestStation string               `json:"nearest_station,omitempty"`
	StationKana    string               `json:"station_kana,omitempty"`
	WalkMinutes    *int                 `json:"walk_minutes,omitempty"`
	Totals         *AgeStats            `json:"totals"`
	AgeGroups      map[string]*AgeStats `json:"age_groups"`
	Ages05         map[string]*AgeStats `json:"ages_0_5,omitempty"`
}

// Snapshot is one month's file.
type Snapshot struct {
	Month      string      `json:"month"`
	Ward       string      `json:"ward,omitempty"`
	Facilities []*Facility `json:"facilities"`
}

// ageGroupKeys are the published brackets: the youngest three ages
// individually, the older ones as one bracket.
var ageGroupKeys = []string{"0", "1", "2", "3-5"}
