// seed-master creates or extends the facility registry with the bare
// identity rows (id, name, ward) from one month's snapshot. Everything
// else is filled by the later enrichment passes.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"hoikumap/internal/config"
	"hoikumap/internal/registry"
	"hoikumap/internal/snapshot"
)

func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	month := flag.String("month", "", "month to seed from (default: SEED_MONTH or the latest)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[SeedMaster] %v", err)
	}

	m := *month
	if m == "" {
		m = cfg.SeedMonth
	}
	if m == "" {
		months, err := snapshot.LoadMonths(cfg.DataDir)
		if err != nil || len(months) == 0 {
			log.Fatalf("[SeedMaster] no month snapshots in %s: %v", cfg.DataDir, err)
		}
		m = months[len(months)-1]
	}

	snap, err := snapshot.Load(filepath.Join(cfg.DataDir, snapshot.FileName(m)))
	if err != nil {
		log.Fatalf("[SeedMaster] %v", err)
	}

	store, err := registry.Load(cfg.RegistryPath())
	if errors.Is(err, os.ErrNotExist) {
		store = registry.NewStore()
		err = nil
	}
	if err != nil {
		log.Fatalf("[SeedMaster] %v", err)
	}

	added := 0
	for _, f := range snap.Facilities {
		if store.Get(f.FacilityID) != nil {
			continue
		}
		rec := &registry.Record{FacilityID: f.FacilityID, Name: f.Name, Ward: f.Ward}
		if err := store.Add(rec); err != nil {
			log.Printf("[SeedMaster] skipping %s: %v", f.FacilityID, err)
			continue
		}
		added++
	}

	if err := store.Save(cfg.RegistryPath()); err != nil {
		log.Fatalf("[SeedMaster] %v", err)
	}
	fmt.Printf("seeded from %s: %d added, %d total\n", m, added, store.Len())
}
