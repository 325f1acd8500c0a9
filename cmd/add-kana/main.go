// add-kana fills the name_kana and station_kana registry columns so
// the site can offer kana search. Dictionary overrides win, then kana
// already present in the name, then the morphological tokenizer.
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"hoikumap/internal/config"
	"hoikumap/internal/jptext"
	"hoikumap/internal/registry"
)

func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[AddKana] %v", err)
	}

	store, err := registry.Load(cfg.RegistryPath())
	if err != nil {
		log.Fatalf("[AddKana] %v", err)
	}

	reader, err := jptext.NewReader()
	if err != nil {
		log.Fatalf("[AddKana] %v", err)
	}

	names, stations, unresolved := 0, 0, 0
	for _, rec := range store.Records() {
		if cfg.KanaOverwrite || strings.TrimSpace(rec.NameKana) == "" {
			if kana := jptext.BuildNameKana(rec.Name, reader); kana != "" {
				if kana != rec.NameKana {
					rec.NameKana = kana
					names++
				}
			} else if rec.Name != "" {
				unresolved++
			}
		}
		if rec.NearestStation != "" && (cfg.KanaOverwrite || strings.TrimSpace(rec.StationKana) == "") {
			if kana := jptext.BuildStationKana(rec.NearestStation, reader); kana != "" && kana != rec.StationKana {
				rec.StationKana = kana
				stations++
			}
		}
	}

	if err := store.Save(cfg.RegistryPath()); err != nil {
		log.Fatalf("[AddKana] %v", err)
	}
	fmt.Printf("kana filled: %d names, %d stations, %d unresolved\n", names, stations, unresolved)
}
