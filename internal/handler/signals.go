package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/web3-frozen/llama-sentinel/internal/monitor"
)

const (
	defaultSignalLimit = 50
	maxSignalLimit     = 100
)

// SignalLister returns stored signals, newest first.
type SignalLister interface {
	Recent(ctx context.Context, limit int) ([]monitor.Signal, error)
}

// ListSignals serves the most recent signals. ?limit= caps the count.
func ListSignals(s SignalLister, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultSignalLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				writeJSON(w, http.StatusBadRequest, `{"error":"limit must be a positive integer"}`)
				return
			}
			limit = min(n, maxSignalLimit)
		}

		signals, err := s.Recent(r.Context(), limit)
		if err != nil {
			logger.Error("list signals failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, `{"error":"failed to list signals"}`)
			return
		}
		if signals == nil {
			signals = []monitor.Signal{}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(signals)
	}
}
