// Package store persists signals as documents in the "signals" collection,
// keyed by signal id.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/web3-frozen/llama-sentinel/internal/config"
	"github.com/web3-frozen/llama-sentinel/internal/monitor"
)

// Collection is the document collection signals are written to.
const Collection = "signals"

// ErrUnavailable wraps every failure of a store backend.
var ErrUnavailable = errors.New("signal store unavailable")

// Store is a signal store backend.
type Store interface {
	monitor.SignalStore

	// Recent returns up to limit signals, newest timestamp first.
	Recent(ctx context.Context, limit int) ([]monitor.Signal, error)
	Ping(ctx context.Context) error
	Close()
}

// Open connects the backend named by creds.
func Open(ctx context.Context, creds config.StoreCredentials) (Store, error) {
	switch creds.Backend {
	case "postgres":
		return NewPostgres(ctx, creds.DatabaseURL)
	case "redis":
		return NewRedis(creds.RedisURL, creds.RedisPassword)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", creds.Backend)
	}
}

// Unavailable is the store used when the real backend could not be set up.
// Every call fails with ErrUnavailable so scans keep running and report the
// cause per candidate.
type Unavailable struct {
	cause error
}

func NewUnavailable(cause error) *Unavailable {
	return &Unavailable{cause: cause}
}

func (u *Unavailable) err(op string) error {
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, op, u.cause)
}

func (u *Unavailable) Exists(context.Context, string) (bool, error) { return false, u.err("exists") }
func (u *Unavailable) Put(context.Context, monitor.Signal) error    { return u.err("put") }
func (u *Unavailable) Ping(context.Context) error                   { return u.err("ping") }
func (u *Unavailable) Close()                                       {}

func (u *Unavailable) Recent(context.Context, int) ([]monitor.Signal, error) {
	return nil, u.err("recent")
}
