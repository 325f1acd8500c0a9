// apply-master injects the curated registry fields into every month
// snapshot. Snapshots keep whatever the workbooks said; the registry
// only adds or corrects, it never blanks.
package main

import (
	"flag"
	"fmt"
	"log"
	"path/filepath"

	"hoikumap/internal/config"
	"hoikumap/internal/registry"
	"hoikumap/internal/snapshot"
)

func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[ApplyMaster] %v", err)
	}

	store, err := registry.Load(cfg.RegistryPath())
	if err != nil {
		log.Fatalf("[ApplyMaster] %v", err)
	}

	months, err := snapshot.LoadMonths(cfg.DataDir)
	if err != nil {
		log.Fatalf("[ApplyMaster] %v", err)
	}
	if len(months) == 0 {
		log.Fatalf("[ApplyMaster] no month snapshots in %s", cfg.DataDir)
	}

	totalChanged, totalUnmatched := 0, 0
	for _, m := range months {
		path := filepath.Join(cfg.DataDir, snapshot.FileName(m))
		snap, err := snapshot.Load(path)
		if err != nil {
			log.Printf("[ApplyMaster] skipping %s: %v", m, err)
			continue
		}
		changed, unmatched := snapshot.ApplyMasterAll(snap, store)
		if changed > 0 {
			if err := snapshot.Save(path, snap); err != nil {
				log.Fatalf("[ApplyMaster] %v", err)
			}
		}
		log.Printf("[ApplyMaster] %s: %d fields, %d unmatched", m, changed, unmatched)
		totalChanged += changed
		totalUnmatched += unmatched
	}
	fmt.Printf("applied over %d months: %d fields changed, %d facilities unmatched\n",
		len(months), totalChanged, totalUnmatched)
}
