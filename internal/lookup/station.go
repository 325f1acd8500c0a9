package lookup

import "hoikumap/internal/jptext"

// station place types we trust. bus_station is excluded on purpose:
// the walk-time promise on the site is about rail stations.
var stationTypes = map[string]bool{
	"train_station":      true,
	"subway_station":     true,
	"transit_station":    true,
	"light_rail_station": true,
}

func isRailStation(s Station) bool {
	rail := false
	for _, t := range s.Types {
		if t == "bus_station" {
			return false
		}
		if stationTypes[t] {
			rail = true
		}
	}
	return rail
}

// BestStation picks the nearest rail station whose name survives the
// validity check after normalization. Returns nil when nothing
// qualifies. The returned station carries the normalized name.
func BestStation(stations []Station, lat, lng float64) *Station {
	var best *Station
	bestDist := 0.0
	for i := range stations {
		s := stations[i]
		if len(s.Types) > 0 && !isRailStation(s) {
			continue
		}
		name := jptext.NormalizeStationName(s.Name)
		if !jptext.LooksLikeStation(name) {
			continue
		}
		d := HaversineM(lat, lng, s.Lat, s.Lng)
		if best == nil || d < bestDist {
			c := s
			c.Name = name
			best = &c
			bestDist = d
		}
	}
	return best
}
