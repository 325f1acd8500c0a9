// audit-months prints per-month facility and ward counts so a broken
// ingest (half-empty month, ward column misread) is visible at a
// glance.
package main

import (
	"flag"
	"fmt"
	"log"
	"path/filepath"
	"sort"

	"hoikumap/internal/config"
	"hoikumap/internal/snapshot"
)

func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[AuditMonths] %v", err)
	}

	months, err := snapshot.LoadMonths(cfg.DataDir)
	if err != nil {
		log.Fatalf("[AuditMonths] %v", err)
	}
	if len(months) == 0 {
		log.Fatalf("[AuditMonths] no month snapshots in %s", cfg.DataDir)
	}

	for _, m := range months {
		snap, err := snapshot.Load(filepath.Join(cfg.DataDir, snapshot.FileName(m)))
		if err != nil {
			fmt.Printf("%s  LOAD ERROR: %v\n", m, err)
			continue
		}
		wards := make(map[string]int)
		noWard, noTotals := 0, 0
		for _, f := range snap.Facilities {
			if f.Ward == "" {
				noWard++
			} else {
				wards[f.Ward]++
			}
			if f.Totals == nil || (f.Totals.Accept == nil && f.Totals.Wait == nil) {
				noTotals++
			}
		}
		fmt.Printf("%s  facilities=%d wards=%d no_ward=%d no_totals=%d\n",
			m, len(snap.Facilities), len(wards), noWard, noTotals)

		names := make([]string, 0, len(wards))
		for w := range wards {
			names = append(names, w)
		}
		sort.Strings(names)
		for _, w := range names {
			fmt.Printf("    %s %d\n", w, wards[w])
		}
	}
}
