package reconcile

import (
	"context"
	"log"

	"hoikumap/internal/config"
	"hoikumap/internal/jptext"
	"hoikumap/internal/lookup"
	"hoikumap/internal/registry"
)

// SeedStationCache warms the station cache from nearby searches around
// facilities that already have coordinates, so later runs and the
// nominatim provider (which has no nearby search of its own) can
// resolve stations offline. Stops at the configured entry limit or
// when the rows run out.
func SeedStationCache(ctx context.Context, cfg *config.Config, store *registry.Store,
	finder StationFinder, cache *lookup.StationCache, kana *jptext.Reader) (int, error) {

	added := 0
	for _, rec := range store.Records() {
		if cache.Len() >= cfg.StationSeedLimit {
			break
		}
		if ctx.Err() != nil {
			return added, ctx.Err()
		}
		lat, lng, ok := rec.LatLng()
		if !ok {
			continue
		}
		stations, err := finder.Nearby(ctx, lat, lng, cfg.NearbyRadiusM)
		if err != nil {
			if lookup.IsDenied(err) {
				return added, err
			}
			continue
		}
		for _, s := range stations {
			name := jptext.NormalizeStationName(s.Name)
			if !jptext.LooksLikeStation(name) {
				continue
			}
			if _, seen := cache.Get(name); seen {
				continue
			}
			entry := lookup.CachedStation{
				Name: name,
				Kana: jptext.BuildStationKana(name, kana),
				Lat:  s.Lat,
				Lng:  s.Lng,
			}
			if err := cache.Upsert(entry); err != nil {
				log.Printf("[StationSeed] cache write failed: %v", err)
				continue
			}
			added++
			if cache.Len() >= cfg.StationSeedLimit {
				break
			}
		}
	}
	log.Printf("[StationSeed] %d stations added, %d cached total", added, cache.Len())
	return added, nil
}
