package reconcile

import (
	"context"
	"log"

	"hoikumap/internal/config"
	"hoikumap/internal/lookup"
)

// FacilityFinder resolves one facility to enrichment details and
// reports the query that did it.
type FacilityFinder interface {
	Name() string
	Find(ctx context.Context, name, address string) (*lookup.PlaceDetails, string, error)
}

// StationFinder lists candidate stations near a point. Provider names
// the source so the ledger separates nearby spend from facility spend.
type StationFinder interface {
	Provider() string
	Nearby(ctx context.Context, lat, lng float64, radiusM int) ([]lookup.Station, error)
}

// WalkEstimator measures walking minutes between two points.
type WalkEstimator interface {
	Walk(ctx context.Context, fromLat, fromLng, toLat, toLng float64) (int, error)
}

// PlacesFinder runs the query cascade against text search and pulls
// full details for the first hit.
type PlacesFinder struct {
	Client *lookup.Places
	City   string
	Ward   string
}

func NewPlacesFinder(client *lookup.Places, cfg *config.Config) *PlacesFinder {
	return &PlacesFinder{Client: client, City: cfg.CityFilter, Ward: cfg.WardFilter}
}

func (f *PlacesFinder) Name() string { return "places" }

func (f *PlacesFinder) Find(ctx context.Context, name, address string) (*lookup.PlaceDetails, string, error) {
	queries := lookup.QueryCascade(name, address, f.City, f.Ward)
	hits, query, err := lookup.FirstHit(queries, func(q string) ([]*lookup.PlaceDetails, error) {
		res, err := f.Client.TextSearch(ctx, q)
		if lookup.IsNoResults(err) {
			return nil, nil
		}
		return res, err
	})
	if err != nil {
		return nil, query, err
	}

	d, err := f.Client.Details(ctx, hits[0].PlaceID)
	if err != nil {
		log.Printf("[Reconcile] details failed for %s: %v", hits[0].PlaceID, err)
		// the text search hit still carries the geometry
		return hits[0], query, nil
	}
	return d, query, nil
}

// Provider implements StationFinder.
func (f *PlacesFinder) Provider() string { return "places-nearby" }

// Nearby implements StationFinder on the same client. When the typed
// nearby search comes back empty, a keyword text search biased to the
// same point catches stations the transit_station filter misses.
func (f *PlacesFinder) Nearby(ctx context.Context, lat, lng float64, radiusM int) ([]lookup.Station, error) {
	st, err := f.Client.NearbyStations(ctx, lat, lng, radiusM)
	if err != nil && !lookup.IsNoResults(err) {
		return nil, err
	}
	if len(st) > 0 {
		return st, nil
	}
	st, err = f.Client.StationsByKeyword(ctx, "駅", lat, lng, radiusM)
	if lookup.IsNoResults(err) {
		return nil, nil
	}
	return st, err
}

// Walk implements WalkEstimator via the distance matrix.
func (f *PlacesFinder) Walk(ctx context.Context, fromLat, fromLng, toLat, toLng float64) (int, error) {
	sec, err := f.Client.WalkSeconds(ctx, fromLat, fromLng, toLat, toLng)
	if err != nil {
		return 0, err
	}
	return lookup.WalkMinutes(sec), nil
}

// nominatim hits need this much anchoring to the configured area
// before we trust the geometry.
const nominatimMinScore = 40

// NominatimFinder geocodes through OSM with a memo cache. It yields
// coordinates and a display address only; contact fields stay blank.
type NominatimFinder struct {
	Client *lookup.Nominatim
	Cache  *lookup.GeocodeCache
	City   string
	Ward   string
}

func NewNominatimFinder(client *lookup.Nominatim, cache *lookup.GeocodeCache, cfg *config.Config) *NominatimFinder {
	return &NominatimFinder{Client: client, Cache: cache, City: cfg.CityFilter, Ward: cfg.WardFilter}
}

func (f *NominatimFinder) Name() string { return "nominatim" }

func (f *NominatimFinder) Find(ctx context.Context, name, address string) (*lookup.PlaceDetails, string, error) {
	queries := lookup.QueryCascade(name, address, f.City, f.Ward)
	hits, query, err := lookup.FirstHit(queries, func(q string) ([]lookup.Candidate, error) {
		if f.Cache != nil {
			if cand, hit := f.Cache.Get(q); hit {
				if cand == nil {
					return nil, nil
				}
				return []lookup.Candidate{*cand}, nil
			}
		}
		cands, err := f.Client.Search(ctx, q, f.City, f.Ward)
		if err != nil {
			return nil, err
		}
		if len(cands) == 0 || cands[0].Score < nominatimMinScore {
			if f.Cache != nil {
				if cacheErr := f.Cache.Put(q, nil); cacheErr != nil {
					log.Printf("[Reconcile] geocode cache write failed: %v", cacheErr)
				}
			}
			return nil, nil
		}
		best := cands[0]
		if f.Cache != nil {
			if cacheErr := f.Cache.Put(q, &best); cacheErr != nil {
				log.Printf("[Reconcile] geocode cache write failed: %v", cacheErr)
			}
		}
		return []lookup.Candidate{best}, nil
	})
	if err != nil {
		return nil, query, err
	}

	best := hits[0]
	return &lookup.PlaceDetails{
		Name:    name,
		Address: best.Address,
		Lat:     best.Lat,
		Lng:     best.Lng,
	}, query, nil
}
