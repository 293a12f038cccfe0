package handler

import (
	"encoding/json"
	"net/http"

	"github.com/web3-frozen/llama-sentinel/internal/monitor"
)

// ScanStatus is the view of the scan loop the stats endpoint needs.
type ScanStatus interface {
	Config() monitor.ScanConfig
	LastResult() *monitor.CycleResult
	Scanning() bool
	Skipped() int64
}

type statsResponse struct {
	Scanning      bool                 `json:"scanning"`
	SkippedTicks  int64                `json:"skipped_ticks"`
	MinTVL        float64              `json:"min_tvl"`
	MaxTVL        float64              `json:"max_tvl"`
	MaxListingAge string               `json:"max_listing_age"`
	Interval      string               `json:"scan_interval"`
	LastScan      *monitor.CycleResult `json:"last_scan"`
}

// Stats reports the scan thresholds and the outcome of the last cycle.
func Stats(s ScanStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		last := s.LastResult()
		if last == nil {
			writeJSON(w, http.StatusServiceUnavailable, `{"error":"no scan completed yet"}`)
			return
		}
		cfg := s.Config()

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(statsResponse{
			Scanning:      s.Scanning(),
			SkippedTicks:  s.Skipped(),
			MinTVL:        cfg.MinTVL,
			MaxTVL:        cfg.MaxTVL,
			MaxListingAge: cfg.MaxListingAge.String(),
			Interval:      cfg.Interval.String(),
			LastScan:      last,
		})
	}
}
