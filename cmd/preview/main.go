// preview serves the data directory the way the site consumes it, for
// checking a backfill or apply-master result locally.
package main

import (
	"flag"
	"log"
	"net/http"
	"path/filepath"
	"regexp"

	"github.com/gin-gonic/gin"

	"hoikumap/internal/config"
	"hoikumap/internal/snapshot"
)

// served file names: month snapshots, the index, and the caches
var safeFileRe = regexp.MustCompile(`^[0-9A-Za-z_-]+\.(json|csv)$`)

func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	addr := flag.String("addr", ":8780", "listen address")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[Preview] %v", err)
	}

	r := gin.Default()

	r.GET("/months", func(c *gin.Context) {
		months, err := snapshot.LoadMonths(cfg.DataDir)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"months": months})
	})

	r.GET("/data/:file", func(c *gin.Context) {
		name := c.Param("file")
		if !safeFileRe.MatchString(name) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bad file name"})
			return
		}
		c.File(filepath.Join(cfg.DataDir, name))
	})

	log.Printf("[Preview] serving %s on %s", cfg.DataDir, *addr)
	if err := r.Run(*addr); err != nil {
		log.Fatalf("[Preview] %v", err)
	}
}
