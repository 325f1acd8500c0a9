package registry

import (
	"strconv"
	"strings"
)

// Columns is the canonical registry schema, in file order. Loading a
// registry that lacks any of these appends them at the end; columns the
// file has that we do not know are preserved via Record.Extra.
var Columns = []string{
	"facility_id",
	"name",
	"name_kana",
	"ward",
	"address",
	"lat",
	"lng",
	"map_url",
	"facility_type",
	"phone",
	"website",
	"notes",
	"nearest_station",
	"station_kana",
	"walk_minutes",
}

// Record is one registry row. All values are stored as text because the
// file is hand-edited; numeric interpretation happens at the boundary
// (LatLng, WalkMinutes).
type Record struct {
	FacilityID     string
	Name           string
	NameKana       string
	Ward           string
	Address        string
	Lat            string
	Lng            string
	MapURL         string
	FacilityType   string
	Phone          string
	Website        string
	Notes          string
	NearestStation string
	StationKana    string
	WalkMinutes    string

	// Extra carries columns the pipeline does not know about so a
	// hand-extended file round-trips unchanged.
	Extra map[string]string
}

// Get returns the value for a column name, consulting Extra for
// unknown columns.
func (r *Record) Get(col string) string {
	switch col {
	case "facility_id":
		return r.FacilityID
	case "name":
		return r.Name
	case "name_kana":
		return r.NameKana
	case "ward":
		return r.Ward
	case "address":
		return r.Address
	case "lat":
		return r.Lat
	case "lng":
		return r.Lng
	case "map_url":
		return r.MapURL
	case "facility_type":
		return r.FacilityType
	case "phone":
		return r.Phone
	case "website":
		return r.Website
	case "notes":
		return r.Notes
	case "nearest_station":
		return r.NearestStation
	case "station_kana":
		return r.StationKana
	case "walk_minutes":
		return r.WalkMinutes
	}
	return r.Extra[col]
}

// Set assigns the value for a column name, storing unknown columns
// in Extra.
func (r *Record) Set(col, val string) {
	switch col {
	case "facility_id":
		r.FacilityID = val
	case "name":
		r.Name = val
	case "name_kana":
		r.NameKana = val
	case "ward":
		r.Ward = val
	case "address":
		r.Address = val
	case "lat":
		r.Lat = val
	case "lng":
		r.Lng = val
	case "map_url":
		r.MapURL = val
	case "facility_type":
		r.FacilityType = val
	case "phone":
		r.Phone = val
	case "website":
		r.Website = val
	case "notes":
		r.Notes = val
	case "nearest_station":
		r.NearestStation = val
	case "station_kana":
		r.StationKana = val
	case "walk_minutes":
		r.WalkMinutes = val
	default:
		if r.Extra == nil {
			r.Extra = make(map[string]string)
		}
		r.Extra[col] = val
	}
}

// LatLng parses the stored coordinates. ok is false when either value
// is blank or unparseable.
func (r *Record) LatLng() (lat, lng float64, ok bool) {
	lat, err1 := strconv.ParseFloat(strings.TrimSpace(r.Lat), 64)
	lng, err2 := strconv.ParseFloat(strings.TrimSpace(r.Lng), 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return lat, lng, true
}

// WalkMinutesInt parses walk_minutes, tolerating decimal text the way
// spreadsheet pastes produce it ("5.0").
func (r *Record) WalkMinutesInt() (int, bool) {
	s := strings.TrimSpace(r.WalkMinutes)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return int(f), true
}
