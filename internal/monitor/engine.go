package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/web3-frozen/llama-sentinel/internal/metrics"
)

// SignalStore is the durable seen-set. Exists and Put are not transactional;
// two overlapping writers for one id both succeed and the last write wins.
type SignalStore interface {
	Exists(ctx context.Context, id string) (bool, error)
	Put(ctx context.Context, sig Signal) error
}

// Notifier delivers the alert for a new signal.
type Notifier interface {
	Notify(ctx context.Context, sig Signal) error
}

// Ticker is the part of time.Ticker the engine uses.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFunc creates a Ticker firing every d.
type TickerFunc func(d time.Duration) Ticker

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// NewTimeTicker wraps time.NewTicker.
func NewTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

// Options wires an Engine. Feed, Store and Notifier are required.
type Options struct {
	Feed     Feed
	Store    SignalStore
	Notifier Notifier
	Config   ScanConfig
	Logger   *slog.Logger

	// Now defaults to time.Now.
	Now func() time.Time
	// NewTicker defaults to NewTimeTicker.
	NewTicker TickerFunc
}

// Engine runs scan cycles: fetch, filter, check-seen, persist, notify.
type Engine struct {
	feed      Feed
	store     SignalStore
	notifier  Notifier
	cfg       ScanConfig
	logger    *slog.Logger
	now       func() time.Time
	newTicker TickerFunc

	scanning atomic.Bool
	skipped  atomic.Int64
	wg       sync.WaitGroup

	mu   sync.RWMutex
	last *CycleResult
}

func NewEngine(opts Options) *Engine {
	e := &Engine{
		feed:      opts.Feed,
		store:     opts.Store,
		notifier:  opts.Notifier,
		cfg:       opts.Config,
		logger:    opts.Logger,
		now:       opts.Now,
		newTicker: opts.NewTicker,
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.newTicker == nil {
		e.newTicker = NewTimeTicker
	}
	return e
}

// Config returns the thresholds the engine scans with.
func (e *Engine) Config() ScanConfig { return e.cfg }

// Scanning reports whether a cycle is in flight.
func (e *Engine) Scanning() bool { return e.scanning.Load() }

// Skipped returns how many ticks were dropped because a cycle was still running.
func (e *Engine) Skipped() int64 { return e.skipped.Load() }

// LastResult returns the most recently completed cycle, or nil before the first one finishes.
func (e *Engine) LastResult() *CycleResult {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.last == nil {
		return nil
	}
	r := *e.last
	return &r
}

// Run starts one cycle immediately and then one per interval until ctx is
// cancelled. A tick that arrives while a cycle is still running is skipped.
// Run waits for the in-flight cycle before returning.
func (e *Engine) Run(ctx context.Context) {
	defer e.wg.Wait()

	e.logger.Info("scan loop started",
		"feed", e.feed.Name(),
		"interval", e.cfg.Interval.String(),
		"min_tvl", e.cfg.MinTVL,
		"max_tvl", e.cfg.MaxTVL,
		"max_listing_age", e.cfg.MaxListingAge.String(),
	)

	// Initial scan
	e.trigger(ctx)

	ticker := e.newTicker(e.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("scan loop stopped")
			return
		case <-ticker.C():
			e.trigger(ctx)
		}
	}
}

func (e *Engine) trigger(ctx context.Context) bool {
	if !e.scanning.CompareAndSwap(false, true) {
		e.skipped.Add(1)
		metrics.ScanSkippedTotal.Inc()
		e.logger.Warn("previous scan still running, skipping tick")
		return false
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer e.scanning.Store(false)
		e.RunCycle(ctx)
	}()
	return true
}

// Failure is one per-candidate operation that did not complete.
type Failure struct {
	SignalID string `json:"signal_id"`
	Op       string `json:"op"`
	Err      error  `json:"-"`
	Message  string `json:"error"`
}

// CycleResult summarizes one scan cycle.
type CycleResult struct {
	ScanID     string    `json:"scan_id"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
	Fetched    int       `json:"fetched"`
	Candidates int       `json:"candidates"`
	Known      int       `json:"known"`
	New        int       `json:"new"`
	Notified   int       `json:"notified"`
	FetchError string    `json:"fetch_error,omitempty"`
	Failures   []Failure `json:"failures,omitempty"`
	// Interrupted is set when cancellation stopped the cycle before every
	// candidate was processed.
	Interrupted bool `json:"interrupted,omitempty"`

	fetchErr error
}

// Err joins the fetch error and every per-candidate failure. It is nil for a clean cycle.
func (r *CycleResult) Err() error {
	errs := make([]error, 0, len(r.Failures)+1)
	if r.fetchErr != nil {
		errs = append(errs, r.fetchErr)
	}
	for _, f := range r.Failures {
		errs = append(errs, fmt.Errorf("%s %s: %w", f.Op, f.SignalID, f.Err))
	}
	return errors.Join(errs...)
}

func (r *CycleResult) fail(id, op string, err error) {
	r.Failures = append(r.Failures, Failure{SignalID: id, Op: op, Err: err, Message: err.Error()})
}

func (r *CycleResult) status() string {
	switch {
	case r.fetchErr != nil:
		return "fetch_failed"
	case len(r.Failures) > 0:
		return "partial"
	default:
		return "ok"
	}
}

// RunCycle performs a single scan. Fetch failures end the cycle early; store
// and notify failures are confined to their candidate. Nothing is returned as
// an error: the outcome is carried in the result and logged.
//
// Cancelling ctx stops the cycle between candidates. A candidate already
// started is finished on a context detached from ctx, so a stored signal is
// never left without its alert attempt.
func (e *Engine) RunCycle(ctx context.Context) CycleResult {
	res := CycleResult{
		ScanID:    uuid.NewString(),
		StartedAt: e.now(),
	}
	start := time.Now()
	log := e.logger.With("scan_id", res.ScanID)
	log.Info("scanning", "feed", e.feed.Name())

	records, err := e.feed.FetchRecords(ctx)
	metrics.FeedFetchDuration.WithLabelValues(e.feed.Name()).Observe(time.Since(start).Seconds())
	if err != nil {
		res.fetchErr = err
		res.FetchError = err.Error()
		log.Error("scan error", "feed", e.feed.Name(), "error", err)
		e.finish(log, &res, start)
		return res
	}
	metrics.FeedLastSuccess.WithLabelValues(e.feed.Name()).SetToCurrentTime()
	res.Fetched = len(records)

	candidates := Filter(records, e.cfg, res.StartedAt)
	res.Candidates = len(candidates)
	metrics.FeedRecords.Set(float64(res.Fetched))
	metrics.Candidates.Set(float64(res.Candidates))
	log.Info("found candidates in range", "records", res.Fetched, "candidates", res.Candidates)

	work := context.WithoutCancel(ctx)
	for i, r := range candidates {
		if ctx.Err() != nil {
			res.Interrupted = true
			log.Warn("scan interrupted", "processed", i, "remaining", len(candidates)-i)
			break
		}
		e.process(work, log, &res, NewSignal(r, e.now()))
	}

	e.finish(log, &res, start)
	return res
}

func (e *Engine) process(ctx context.Context, log *slog.Logger, res *CycleResult, sig Signal) {
	exists, err := e.store.Exists(ctx, sig.ID)
	if err != nil {
		res.fail(sig.ID, "exists", err)
		metrics.StoreErrorsTotal.WithLabelValues("exists").Inc()
		log.Error("signal lookup failed", "id", sig.ID, "error", err)
		return
	}
	if exists {
		res.Known++
		metrics.SignalsKnownTotal.Inc()
		return
	}

	log.Info("new signal", "id", sig.ID, "title", sig.Title, "desc", sig.Description)

	if err := e.store.Put(ctx, sig); err != nil {
		res.fail(sig.ID, "put", err)
		metrics.StoreErrorsTotal.WithLabelValues("put").Inc()
		log.Error("save signal failed", "id", sig.ID, "error", err)
		return
	}
	res.New++
	metrics.SignalsNewTotal.Inc()

	if err := e.notifier.Notify(ctx, sig); err != nil {
		res.fail(sig.ID, "notify", err)
		metrics.AlertsFailedTotal.Inc()
		log.Error("send alert failed", "id", sig.ID, "error", err)
		return
	}
	res.Notified++
	metrics.AlertsSentTotal.Inc()
}

func (e *Engine) finish(log *slog.Logger, res *CycleResult, start time.Time) {
	elapsed := time.Since(start)
	res.DurationMS = elapsed.Milliseconds()
	status := res.status()

	metrics.ScanCyclesTotal.WithLabelValues(status).Inc()
	metrics.ScanDuration.Observe(elapsed.Seconds())

	log.Info("scan complete",
		"status", status,
		"candidates", res.Candidates,
		"known", res.Known,
		"new", res.New,
		"notified", res.Notified,
		"failures", len(res.Failures),
		"interrupted", res.Interrupted,
		"duration", elapsed.String(),
	)

	e.mu.Lock()
	r := *res
	e.last = &r
	e.mu.Unlock()
}
