package monitor

import "time"

// ScanConfig holds the static thresholds of a scan.
type ScanConfig struct {
	MinTVL        float64       `yaml:"min_tvl" validate:"gte=0"`
	MaxTVL        float64       `yaml:"max_tvl" validate:"gtefield=MinTVL"`
	MaxListingAge time.Duration `yaml:"max_listing_age" validate:"gte=1s"`
	Interval      time.Duration `yaml:"scan_interval" validate:"gte=1s"`
}

// DefaultScanConfig returns the stock thresholds: $5K–$1.5M TVL, listed within
// the last 30 days, scanned every 5 minutes.
func DefaultScanConfig() ScanConfig {
	return ScanConfig{
		MinTVL:        5_000,
		MaxTVL:        1_500_000,
		MaxListingAge: 30 * 24 * time.Hour,
		Interval:      5 * time.Minute,
	}
}

// Filter returns, in input order, the records whose TVL lies in
// [MinTVL, MaxTVL] and whose listing age is below MaxListingAge.
//
// Age is now minus listedAt in whole seconds, so a listing dated in the future
// has a negative age and always passes.
func Filter(records []RawRecord, cfg ScanConfig, now time.Time) []RawRecord {
	maxAge := int64(cfg.MaxListingAge / time.Second)
	nowSec := now.Unix()

	var out []RawRecord
	for _, r := range records {
		if r.TVL < cfg.MinTVL || r.TVL > cfg.MaxTVL {
			continue
		}
		if nowSec-r.ListedAt >= maxAge {
			continue
		}
		out = append(out, r)
	}
	return out
}
