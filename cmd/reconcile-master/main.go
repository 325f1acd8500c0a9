// reconcile-master runs the enrichment pass over the registry:
// resolving facilities against a place provider, filling contact and
// location fields per the overwrite policy, and pairing each row with
// its nearest station and walk time.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"hoikumap/internal/config"
	"hoikumap/internal/history"
	"hoikumap/internal/jptext"
	"hoikumap/internal/lookup"
	"hoikumap/internal/reconcile"
	"hoikumap/internal/registry"
)

func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	provider := flag.String("provider", "places", "place provider: places or nominatim")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[ReconcileMaster] %v", err)
	}

	store, err := registry.Load(cfg.RegistryPath())
	if err != nil {
		log.Fatalf("[ReconcileMaster] %v", err)
	}
	if store.Len() == 0 {
		log.Fatalf("[ReconcileMaster] registry %s has no rows, seed it first", cfg.RegistryPath())
	}

	stationCache, err := lookup.LoadStationCache(cfg.StationCachePath())
	if err != nil {
		log.Fatalf("[ReconcileMaster] %v", err)
	}
	ledger, err := history.Open(cfg.LedgerPath())
	if err != nil {
		log.Fatalf("[ReconcileMaster] %v", err)
	}
	defer ledger.Close()

	kana, err := jptext.NewReader()
	if err != nil {
		log.Fatalf("[ReconcileMaster] %v", err)
	}

	engine := &reconcile.Engine{
		Cfg:          cfg,
		Store:        store,
		Cache:        stationCache,
		Ledger:       ledger,
		Kana:         kana,
		RunID:        uuid.NewString(),
		RegistryPath: cfg.RegistryPath(),
		MissPath:     cfg.MissPath(*provider),
	}

	switch *provider {
	case "places":
		if cfg.GoogleAPIKey == "" {
			log.Fatalf("[ReconcileMaster] GOOGLE_MAPS_API_KEY is required for the places provider")
		}
		client := lookup.NewPlaces(cfg.PlacesBaseURL, cfg.GoogleAPIKey, cfg.RetryAttempts, cfg.APISleep)
		finder := reconcile.NewPlacesFinder(client, cfg)
		engine.Finder = finder
		engine.Stations = finder
		engine.Walker = finder
	case "nominatim":
		geoCache, err := lookup.LoadGeocodeCache(cfg.GeocodeCachePath())
		if err != nil {
			log.Fatalf("[ReconcileMaster] %v", err)
		}
		client := lookup.NewNominatim(cfg.NominatimBaseURL, cfg.NominatimEmail, cfg.RetryAttempts, cfg.APISleep)
		engine.Finder = reconcile.NewNominatimFinder(client, geoCache, cfg)
		// nominatim has no nearby search, stations come from the cache
		engine.Stations = cachedStations{cache: stationCache}
	default:
		log.Fatalf("[ReconcileMaster] unknown provider %q", *provider)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *provider == "places" && (stationCache.Len() == 0 || cfg.ForceRebuildStations) {
		if _, err := reconcile.SeedStationCache(ctx, cfg, store, engine.Stations, stationCache, kana); err != nil {
			log.Fatalf("[ReconcileMaster] station seeding failed: %v", err)
		}
	}

	sum, err := engine.Run(ctx)
	if err != nil {
		log.Fatalf("[ReconcileMaster] %v", err)
	}

	total, failed, err := ledger.CountForRun(engine.RunID)
	if err == nil {
		fmt.Printf("run %s: %d lookups, %d failed\n", engine.RunID, total, failed)
	}
	fmt.Printf("scanned=%d updated=%d cells=%d misses=%d sanitized=%d aborted=%v\n",
		sum.Scanned, sum.Updated, sum.Cells, len(sum.Misses), sum.Sanitized, sum.Aborted)
}

// cachedStations answers nearby queries from the station cache alone.
type cachedStations struct {
	cache *lookup.StationCache
}

func (c cachedStations) Provider() string { return "station-cache" }

func (c cachedStations) Nearby(ctx context.Context, lat, lng float64, radiusM int) ([]lookup.Station, error) {
	s, dist, ok := c.cache.Nearest(lat, lng)
	if !ok || dist > float64(radiusM) {
		return nil, nil
	}
	return []lookup.Station{{Name: s.Name, Lat: s.Lat, Lng: s.Lng}}, nil
}
