package monitor

import (
	"fmt"
	"strings"
	"time"
)

const (
	SignalTag    = "PROTO"
	SignalSource = "DEFILLAMA"
)

// Signal is a detected, alert-worthy listing. It is persisted once under ID
// and never modified afterwards.
type Signal struct {
	ID          string `json:"id"`
	Tag         string `json:"tag"`
	Source      string `json:"source"`
	Title       string `json:"title"`
	Description string `json:"desc"`
	Link        string `json:"link"`
	Timestamp   int64  `json:"timestamp"` // unix millis
	Query       string `json:"query"`
}

// NewSignal builds the signal for a record that passed the filter.
func NewSignal(r RawRecord, now time.Time) Signal {
	return Signal{
		ID:          SignalID(r.Name),
		Tag:         SignalTag,
		Source:      SignalSource,
		Title:       r.Name,
		Description: fmt.Sprintf("Chain: %s • TVL: $%s", r.Chain, FormatTVL(r.TVL)),
		Link:        r.URL,
		Timestamp:   now.UnixMilli(),
		Query:       r.Name,
	}
}

// SignalID derives the store key from a protocol name. Slashes would read as
// path separators in document stores, so they become dashes.
func SignalID(name string) string {
	return strings.ReplaceAll(name, "/", "-")
}

// FormatTVL renders v as 12.3M, 45.6K or a whole number.
func FormatTVL(v float64) string {
	if v > 1_000_000 {
		return fmt.Sprintf("%.1fM", v/1_000_000)
	}
	if v > 1_000 {
		return fmt.Sprintf("%.1fK", v/1_000)
	}
	return fmt.Sprintf("%.0f", v)
}
