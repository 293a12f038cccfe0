package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/web3-frozen/llama-sentinel/internal/monitor"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoadScanConfig builds the scan thresholds: defaults, then the YAML file at
// path (if any), then MIN_TVL, MAX_TVL, MAX_LISTING_AGE and SCAN_INTERVAL.
func LoadScanConfig(path string) (monitor.ScanConfig, error) {
	cfg := monitor.DefaultScanConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read scan config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse scan config %s: %w", path, err)
		}
	}

	if err := floatFromEnv("MIN_TVL", &cfg.MinTVL); err != nil {
		return cfg, err
	}
	if err := floatFromEnv("MAX_TVL", &cfg.MaxTVL); err != nil {
		return cfg, err
	}
	if err := durationFromEnv("MAX_LISTING_AGE", &cfg.MaxListingAge); err != nil {
		return cfg, err
	}
	if err := durationFromEnv("SCAN_INTERVAL", &cfg.Interval); err != nil {
		return cfg, err
	}

	if err := validate.Struct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid scan config: %w", err)
	}
	return cfg, nil
}

func floatFromEnv(key string, dst *float64) error {
	s := os.Getenv(key)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("parse %s=%q: %w", key, s, err)
	}
	*dst = v
	return nil
}

func durationFromEnv(key string, dst *time.Duration) error {
	s := os.Getenv(key)
	if s == "" {
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse %s=%q: %w", key, s, err)
	}
	*dst = d
	return nil
}
