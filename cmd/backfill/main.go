// backfill scrapes the city's release page, downloads the published
// workbooks, and builds the month snapshots that do not exist yet.
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"hoikumap/internal/config"
	"hoikumap/internal/fetch"
	"hoikumap/internal/ingest"
	"hoikumap/internal/registry"
	"hoikumap/internal/snapshot"
)

const defaultReleaseURL = "https://www.city.yokohama.lg.jp/kurashi/kosodate-kyoiku/hoiku-yoji/shisetsu/hoikujo/akistatus.html"

// tables collects the parsed measure tables per month.
type tables struct {
	accept   []ingest.Row
	wait     []ingest.Row
	enrolled []ingest.Row
}

func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	pageURL := flag.String("url", defaultReleaseURL, "release page URL")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[Backfill] %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	page, err := fetch.Fetch(ctx, *pageURL)
	if err != nil {
		log.Fatalf("[Backfill] %v", err)
	}
	links, err := fetch.ScrapeReleasePage(*pageURL, page)
	if err != nil {
		log.Fatalf("[Backfill] %v", err)
	}
	log.Printf("[Backfill] %d workbook links on the release page", len(links))

	byMonth := collect(ctx, cfg, links)
	if len(byMonth) == 0 {
		log.Fatalf("[Backfill] no parseable months among the workbooks")
	}

	var store *registry.Store
	if cfg.ApplyMaster {
		store, err = registry.Load(cfg.RegistryPath())
		if errors.Is(err, os.ErrNotExist) {
			log.Printf("[Backfill] no registry yet, snapshots stay unenriched")
			store, err = nil, nil
		}
		if err != nil {
			log.Fatalf("[Backfill] %v", err)
		}
	}

	months, err := snapshot.LoadMonths(cfg.DataDir)
	if err != nil {
		log.Fatalf("[Backfill] %v", err)
	}

	built := 0
	for _, m := range sortedMonths(byMonth) {
		t := byMonth[m]
		path := filepath.Join(cfg.DataDir, snapshot.FileName(m))
		if _, err := os.Stat(path); err == nil && !cfg.ForceBackfill {
			continue
		}
		if t.accept == nil || t.wait == nil {
			log.Printf("[Backfill] %s: missing a measure table, skipping", m)
			continue
		}
		snap, err := snapshot.BuildSnapshot(m, cfg.WardFilter, t.accept, t.wait, t.enrolled)
		if err != nil {
			log.Printf("[Backfill] %s: %v", m, err)
			continue
		}
		if store != nil {
			changed, unmatched := snapshot.ApplyMasterAll(snap, store)
			log.Printf("[Backfill] %s: applied registry, %d fields, %d unmatched", m, changed, unmatched)
		}
		if err := snapshot.Save(path, snap); err != nil {
			log.Fatalf("[Backfill] %v", err)
		}
		months = append(months, m)
		built++
		log.Printf("[Backfill] %s: %d facilities", m, len(snap.Facilities))
	}

	if err := snapshot.SaveMonths(cfg.DataDir, months); err != nil {
		log.Fatalf("[Backfill] %v", err)
	}
	fmt.Printf("backfill done: %d months built\n", built)
}

// collect downloads each workbook and files its sheets under the month
// they describe. The first table seen for a month and measure wins.
func collect(ctx context.Context, cfg *config.Config, links []fetch.Link) map[string]*tables {
	cutoff := time.Now().AddDate(0, -cfg.MonthsBack, 0).Format("2006-01-02")
	byMonth := make(map[string]*tables)

	for _, link := range links {
		if ctx.Err() != nil {
			break
		}
		data, err := fetch.Fetch(ctx, link.URL)
		if err != nil {
			log.Printf("[Backfill] %s: %v", link.URL, err)
			continue
		}
		sheets, err := readSheets(link, data)
		if err != nil {
			log.Printf("[Backfill] %s: %v", link.URL, err)
			continue
		}
		for _, sheet := range sheets {
			month, rows := ingest.ParseSheet(sheet.Rows, sheet.Name+" "+link.Label, link.FiscalYear)
			if month == "" || len(rows) == 0 {
				continue
			}
			if month < cutoff {
				continue
			}
			t := byMonth[month]
			if t == nil {
				t = &tables{}
				byMonth[month] = t
			}
			switch link.Kind {
			case fetch.KindAccept:
				if t.accept == nil {
					t.accept = rows
				}
			case fetch.KindWait:
				if t.wait == nil {
					t.wait = rows
				}
			case fetch.KindEnrolled:
				if t.enrolled == nil {
					t.enrolled = rows
				}
			}
		}
	}
	return byMonth
}

// readSheets turns one downloaded release into sheet grids. CSV
// releases carry a single unnamed table; workbooks may hold several.
func readSheets(link fetch.Link, data []byte) ([]ingest.Sheet, error) {
	if link.IsCSV() {
		rows, err := ingest.ReadCSVRows(data)
		if err != nil {
			return nil, err
		}
		return []ingest.Sheet{{Name: link.Label, Rows: rows}}, nil
	}
	wb, err := ingest.ReadWorkbook(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return wb.Sheets, nil
}

func sortedMonths(byMonth map[string]*tables) []string {
	out := make([]string, 0, len(byMonth))
	for m := range byMonth {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}
