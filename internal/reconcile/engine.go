package reconcile

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"hoikumap/internal/config"
	"hoikumap/internal/history"
	"hoikumap/internal/jptext"
	"hoikumap/internal/lookup"
	"hoikumap/internal/registry"
)

// Engine drives one reconciliation run over the registry. Finders are
// interfaces so the nominatim and places stacks plug into the same
// loop, and tests run it against fakes.
type Engine struct {
	Cfg      *config.Config
	Store    *registry.Store
	Finder   FacilityFinder
	Stations StationFinder
	Walker   WalkEstimator
	Cache    *lookup.StationCache
	Ledger   *history.Ledger
	Kana     *jptext.Reader
	RunID    string

	RegistryPath string
	MissPath     string
}

// Summary is what a run reports back.
type Summary struct {
	Sanitized int
	Scanned   int
	Updated   int
	Cells     int
	Misses    []Miss
	Aborted   bool
}

// Run repairs rows in file order until done, the update cap, or a
// denied credential. Work finished before an abort is persisted.
func (e *Engine) Run(ctx context.Context) (*Summary, error) {
	sum := &Summary{Sanitized: registry.SanitizeStations(e.Store)}
	pol := PolicyFrom(e.Cfg)

	for _, rec := range e.Store.Records() {
		if e.Cfg.WardFilter != "" && strings.TrimSpace(rec.Ward) != e.Cfg.WardFilter {
			continue
		}
		if e.Cfg.OnlyBadRows && !NeedsRepair(rec, e.Cfg) {
			continue
		}
		sum.Scanned++
		if sum.Updated >= e.Cfg.MaxUpdates {
			log.Printf("[Reconcile] update cap %d reached, stopping", e.Cfg.MaxUpdates)
			break
		}

		cells, misses, denied := e.repairRow(ctx, rec, pol)
		sum.Misses = append(sum.Misses, misses...)
		if cells > 0 {
			sum.Updated++
			sum.Cells += cells
		}
		if denied {
			log.Printf("[Reconcile] provider denied the request, aborting the batch")
			sum.Aborted = true
			break
		}
		if ctx.Err() != nil {
			sum.Aborted = true
			break
		}
	}

	if err := e.persist(sum); err != nil {
		return sum, err
	}
	log.Printf("[Reconcile] scanned=%d updated=%d cells=%d misses=%d sanitized=%d aborted=%v",
		sum.Scanned, sum.Updated, sum.Cells, len(sum.Misses), sum.Sanitized, sum.Aborted)
	return sum, nil
}

func (e *Engine) persist(sum *Summary) error {
	if e.MissPath != "" {
		if err := WriteMisses(e.MissPath, sum.Misses); err != nil {
			return fmt.Errorf("failed to write miss list: %w", err)
		}
	}
	if e.RegistryPath != "" {
		if err := e.Store.Save(e.RegistryPath); err != nil {
			return fmt.Errorf("failed to save registry: %w", err)
		}
	}
	return nil
}

func (e *Engine) record(provider, query string, err error) {
	if e.Ledger == nil {
		return
	}
	tag := lookup.TagOf(err)
	if lerr := e.Ledger.Record(e.RunID, provider, query, string(tag), err == nil); lerr != nil {
		log.Printf("[Reconcile] ledger write failed: %v", lerr)
	}
}

func (e *Engine) scopeWard(rec *registry.Record) string {
	if w := strings.TrimSpace(rec.Ward); w != "" {
		return w
	}
	return e.Cfg.WardFilter
}

func (e *Engine) detailsNeeded(rec *registry.Record, pol Policy) bool {
	if strings.TrimSpace(rec.Address) == "" {
		return true
	}
	if _, _, ok := rec.LatLng(); !ok {
		return true
	}
	if strings.TrimSpace(rec.Phone) == "" || pol.Phone {
		return true
	}
	if strings.TrimSpace(rec.Website) == "" || pol.Website {
		return true
	}
	if strings.TrimSpace(rec.MapURL) == "" || pol.MapURL {
		return true
	}
	return false
}

func miss(rec *registry.Record, reason, query string) Miss {
	return Miss{FacilityID: rec.FacilityID, Name: rec.Name, Ward: rec.Ward, Reason: reason, Query: query}
}

// repairRow runs the details pass and then the coupled station+walk
// pass on one row. It returns the number of cells changed, any misses,
// and whether the provider denied us.
func (e *Engine) repairRow(ctx context.Context, rec *registry.Record, pol Policy) (cells int, misses []Miss, denied bool) {
	if e.detailsNeeded(rec, pol) {
		c, m, d := e.detailsPass(ctx, rec, pol)
		cells += c
		misses = append(misses, m...)
		if d {
			return cells, misses, true
		}
		// an out-of-scope hit taints the whole row
		for _, mm := range m {
			if mm.Reason == ReasonAddressOutOfScope {
				return cells, misses, false
			}
		}
	}

	if e.Cfg.FillNearestStation && e.Stations != nil {
		c, m, d := e.stationPass(ctx, rec, pol)
		cells += c
		misses = append(misses, m...)
		if d {
			return cells, misses, true
		}
	}
	return cells, misses, false
}

func (e *Engine) detailsPass(ctx context.Context, rec *registry.Record, pol Policy) (cells int, misses []Miss, denied bool) {
	d, query, err := e.Finder.Find(ctx, rec.Name, rec.Address)
	e.record(e.Finder.Name(), query, err)
	if err != nil {
		if lookup.IsDenied(err) {
			return 0, []Miss{miss(rec, ReasonDetailsFailed, query)}, true
		}
		reason := ReasonDetailsFailed
		if lookup.IsNoResults(err) {
			reason = ReasonFacilityNotFound
		}
		return 0, []Miss{miss(rec, reason, query)}, false
	}

	// an empty formatted address cannot prove scope either
	if e.Cfg.StrictAddressCheck &&
		!jptext.AddressInScope(d.Address, e.Cfg.CityFilter, e.scopeWard(rec)) {
		return 0, []Miss{miss(rec, ReasonAddressOutOfScope, query)}, false
	}

	set := func(cur *string, candidate string, overwrite bool) {
		if next, changed := Apply(*cur, candidate, overwrite); changed {
			*cur = next
			cells++
		}
	}
	set(&rec.Address, d.Address, false)
	if _, _, ok := rec.LatLng(); !ok && d.Lat != 0 && d.Lng != 0 {
		rec.Lat = strconv.FormatFloat(d.Lat, 'f', 6, 64)
		rec.Lng = strconv.FormatFloat(d.Lng, 'f', 6, 64)
		cells += 2
	}
	set(&rec.Phone, d.Phone, pol.Phone)
	set(&rec.Website, d.Website, pol.Website)
	set(&rec.MapURL, d.MapURL, pol.MapURL)
	return cells, nil, false
}

func (e *Engine) stationPass(ctx context.Context, rec *registry.Record, pol Policy) (cells int, misses []Miss, denied bool) {
	curStation := strings.TrimSpace(rec.NearestStation)
	walkBlank := strings.TrimSpace(rec.WalkMinutes) == ""
	if curStation != "" && !walkBlank && !pol.Station {
		return 0, nil, false
	}

	lat, lng, ok := rec.LatLng()
	if !ok {
		return 0, []Miss{miss(rec, ReasonNoLatLng, "")}, false
	}

	query := "nearby:" + rec.FacilityID
	var best *lookup.Station

	// a kept station missing only its walk time resolves from the cache
	// without spending a lookup
	if curStation != "" && !pol.Station && e.Cache != nil {
		if cached, found := e.Cache.Get(curStation); found {
			best = &lookup.Station{Name: cached.Name, Lat: cached.Lat, Lng: cached.Lng}
		}
	}

	if best == nil {
		stations, err := e.Stations.Nearby(ctx, lat, lng, e.Cfg.NearbyRadiusM)
		e.record(e.Stations.Provider(), query, err)
		if err != nil {
			if lookup.IsDenied(err) {
				return 0, []Miss{miss(rec, ReasonStationNotFound, query)}, true
			}
			return 0, []Miss{miss(rec, ReasonStationNotFound, query)}, false
		}
		best = lookup.BestStation(stations, lat, lng)
	}
	if best == nil && e.Cache != nil {
		if cached, dist, found := e.Cache.Nearest(lat, lng); found && dist <= float64(e.Cfg.NearbyRadiusM) {
			best = &lookup.Station{Name: cached.Name, Lat: cached.Lat, Lng: cached.Lng}
		}
	}
	if best == nil {
		return 0, []Miss{miss(rec, ReasonStationNotFound, query)}, false
	}
	if best.Lat == 0 && best.Lng == 0 {
		return 0, []Miss{miss(rec, ReasonStationNoLatLng, query)}, false
	}

	minutes := 0
	if e.Walker != nil {
		m, err := e.Walker.Walk(ctx, lat, lng, best.Lat, best.Lng)
		if err != nil {
			if lookup.IsDenied(err) {
				return 0, []Miss{miss(rec, ReasonWalkFailed, query)}, true
			}
			m = 0
		}
		minutes = m
	}
	if minutes <= 0 {
		minutes = lookup.EstimateWalkMinutes(
			lookup.HaversineM(lat, lng, best.Lat, best.Lng), e.Cfg.WalkSpeedMPerMin)
	}
	if minutes >= 200 {
		return 0, []Miss{miss(rec, ReasonWalkFailed, query)}, false
	}

	kana := ""
	if e.Cache != nil {
		if cached, found := e.Cache.Get(best.Name); found {
			kana = cached.Kana
		}
	}
	if kana == "" {
		kana = jptext.BuildStationKana(best.Name, e.Kana)
	}

	// station name, walk minutes and kana always move together
	rec.NearestStation = best.Name
	rec.WalkMinutes = strconv.Itoa(minutes)
	rec.StationKana = kana
	cells += 3

	if e.Cache != nil {
		if err := e.Cache.Upsert(lookup.CachedStation{Name: best.Name, Kana: kana, Lat: best.Lat, Lng: best.Lng}); err != nil {
			log.Printf("[Reconcile] station cache write failed: %v", err)
		}
	}
	return cells, nil, false
}
