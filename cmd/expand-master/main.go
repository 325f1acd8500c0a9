// expand-master walks every month snapshot oldest to newest, adds
// registry rows for facility ids the registry has never seen, and
// backfills blank names and wards on rows it already has. Later months
// win for the backfill since facilities get renamed.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"hoikumap/internal/config"
	"hoikumap/internal/registry"
	"hoikumap/internal/snapshot"
)

func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[ExpandMaster] %v", err)
	}

	months, err := snapshot.LoadMonths(cfg.DataDir)
	if err != nil {
		log.Fatalf("[ExpandMaster] %v", err)
	}
	if len(months) == 0 {
		log.Fatalf("[ExpandMaster] no month snapshots in %s", cfg.DataDir)
	}

	store, err := registry.Load(cfg.RegistryPath())
	if errors.Is(err, os.ErrNotExist) {
		store = registry.NewStore()
		err = nil
	}
	if err != nil {
		log.Fatalf("[ExpandMaster] %v", err)
	}

	added, backfilled := 0, 0
	for _, m := range months {
		snap, err := snapshot.Load(filepath.Join(cfg.DataDir, snapshot.FileName(m)))
		if err != nil {
			log.Printf("[ExpandMaster] skipping %s: %v", m, err)
			continue
		}
		for _, f := range snap.Facilities {
			rec := store.Get(f.FacilityID)
			if rec == nil {
				rec = &registry.Record{FacilityID: f.FacilityID, Name: f.Name, Ward: f.Ward}
				if err := store.Add(rec); err != nil {
					log.Printf("[ExpandMaster] skipping %s: %v", f.FacilityID, err)
					continue
				}
				added++
				continue
			}
			if strings.TrimSpace(rec.Name) == "" && f.Name != "" {
				rec.Name = f.Name
				backfilled++
			}
			if strings.TrimSpace(rec.Ward) == "" && f.Ward != "" {
				rec.Ward = f.Ward
				backfilled++
			}
		}
	}

	if err := store.Save(cfg.RegistryPath()); err != nil {
		log.Fatalf("[ExpandMaster] %v", err)
	}
	fmt.Printf("expanded over %d months: %d added, %d cells backfilled, %d total\n",
		len(months), added, backfilled, store.Len())
}
