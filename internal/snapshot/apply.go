package snapshot

import (
	"strings"

	"hoikumap/internal/registry"
)

// ApplyMaster injects the registry's curated fields into one snapshot
// facility and returns the number of fields changed. Only non-blank
// registry values are applied: the registry enriches a snapshot, it
// never erases what the workbooks provided. Derived stats are left
// alone.
func ApplyMaster(f *Facility, rec *registry.Record) int {
	changed := 0
	inject := func(dst *string, val string) {
		val = strings.TrimSpace(val)
		if val != "" && *dst != val {
			*dst = val
			changed++
		}
	}
	inject(&f.Name, rec.Name)
	inject(&f.NameKana, rec.NameKana)
	inject(&f.Ward, rec.Ward)
	inject(&f.Address, rec.Address)
	inject(&f.MapURL, rec.MapURL)
	inject(&f.FacilityType, rec.FacilityType)
	inject(&f.Phone, rec.Phone)
	inject(&f.Website, rec.Website)
	inject(&f.Notes, rec.Notes)
	inject(&f.NearestStation, rec.NearestStation)
	inject(&f.StationKana, rec.StationKana)

	if lat, lng, ok := rec.LatLng(); ok {
		if f.Lat == nil || *f.Lat != lat {
			f.Lat = &lat
			changed++
		}
		if f.Lng == nil || *f.Lng != lng {
			f.Lng = &lng
			changed++
		}
	}
	if wm, ok := rec.WalkMinutesInt(); ok && wm > 0 {
		if f.WalkMinutes == nil || *f.WalkMinutes != wm {
			v := wm
			f.WalkMinutes = &v
			changed++
		}
	}
	return changed
}

// ApplyMasterAll applies the registry to every facility in a snapshot
// and returns total changed fields and how many facilities had no
// registry row.
func ApplyMasterAll(snap *Snapshot, store *registry.Store) (changed, unmatched int) {
	for _, f := range snap.Facilities {
		rec := store.Get(f.FacilityID)
		if rec == nil {
			unmatched++
			continue
		}
		changed += ApplyMaster(f, rec)
	}
	return changed, unmatched
}
