package main

import (
	"log"
	"net/http"
	"os"
	"time"
)

func main() {
	cfg := LoadConfig()

	store, closeStore, err := OpenBlobStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer closeStore()
	log.Printf("Storage ready (%s backend at %s)", cfg.StorageBackend, cfg.StoragePath)

	analytics := NewAnalytics(store, nil)
	analytics.retention = time.Duration(cfg.RetentionDays) * 24 * time.Hour

	os.MkdirAll(cfg.ReportOutputDir, 0755)

	api := NewSlackClient(cfg)
	StartPruneScheduler(cfg, analytics)
	StartReportScheduler(cfg, analytics, api)

	log.Printf("Starting Bex Sites analytics service on %s...", cfg.ListenAddr)
	if err := http.ListenAndServe(cfg.ListenAddr, NewRouter(cfg, analytics)); err != nil {
		log.Fatalf("HTTP server error: %v", err)
	}
}
