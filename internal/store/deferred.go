package store

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/web3-frozen/llama-sentinel/internal/monitor"
)

// ErrConnecting is the cause reported while the backend is still being set up.
var ErrConnecting = errors.New("still connecting")

// Deferred forwards every call to its current backend. It starts out
// unavailable and is swapped to the real store once startup has connected it,
// so the HTTP server can be listening before the store is reachable.
type Deferred struct {
	cur atomic.Pointer[backend]
}

type backend struct{ Store }

func NewDeferred() *Deferred {
	d := &Deferred{}
	d.Set(NewUnavailable(ErrConnecting))
	return d
}

// Set replaces the backend. The previous one is not closed.
func (d *Deferred) Set(s Store) { d.cur.Store(&backend{s}) }

func (d *Deferred) get() Store { return d.cur.Load().Store }

func (d *Deferred) Exists(ctx context.Context, id string) (bool, error) {
	return d.get().Exists(ctx, id)
}

func (d *Deferred) Put(ctx context.Context, sig monitor.Signal) error {
	return d.get().Put(ctx, sig)
}

func (d *Deferred) Recent(ctx context.Context, limit int) ([]monitor.Signal, error) {
	return d.get().Recent(ctx, limit)
}

func (d *Deferred) Ping(ctx context.Context) error { return d.get().Ping(ctx) }
func (d *Deferred) Close()                         { d.get().Close() }
