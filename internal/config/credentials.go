package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrCredentials marks a STORE_CREDENTIALS bundle that cannot be used.
var ErrCredentials = errors.New("malformed store credentials")

// StoreCredentials is the JSON bundle in STORE_CREDENTIALS, e.g.
//
//	{"backend":"postgres","database_url":"postgres://..."}
//	{"backend":"redis","redis_url":"redis://...","redis_password":"..."}
//
// Backend may be omitted when exactly one URL is given.
type StoreCredentials struct {
	Backend       string `json:"backend" validate:"oneof=postgres redis memory"`
	DatabaseURL   string `json:"database_url" validate:"required_if=Backend postgres"`
	RedisURL      string `json:"redis_url" validate:"required_if=Backend redis"`
	RedisPassword string `json:"redis_password"`
}

// ParseStoreCredentials decodes and checks the bundle. Every failure wraps ErrCredentials.
func ParseStoreCredentials(raw string) (StoreCredentials, error) {
	var c StoreCredentials
	if strings.TrimSpace(raw) == "" {
		return c, fmt.Errorf("%w: STORE_CREDENTIALS is empty", ErrCredentials)
	}
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return c, fmt.Errorf("%w: %w", ErrCredentials, err)
	}

	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	if c.Backend == "" {
		switch {
		case c.DatabaseURL != "" && c.RedisURL == "":
			c.Backend = "postgres"
		case c.RedisURL != "" && c.DatabaseURL == "":
			c.Backend = "redis"
		}
	}

	if err := validate.Struct(c); err != nil {
		return c, fmt.Errorf("%w: %w", ErrCredentials, err)
	}
	return c, nil
}
