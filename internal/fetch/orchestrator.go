// Package fetch retrieves the analytics feed with a per-attempt deadline,
// bounded retries, latest-wins supersession and a stale-cache fallback.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/blackwell-systems/mcpstats/internal/analytics"
)

const (
	// AttemptTimeout bounds a single request.
	AttemptTimeout = 10 * time.Second
	// MaxAttempts is the total number of requests per fetch.
	MaxAttempts = 3
	// DefaultMaxBodySize caps the feed body; larger responses are invalid.
	DefaultMaxBodySize = 32 << 20
)

// DefaultRetryDelays returns the backoff before attempt n+2. With
// MaxAttempts = 3 only the first two entries are used.
func DefaultRetryDelays() []time.Duration {
	return []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
}

// Cache is the subset of the cache store the orchestrator uses.
type Cache interface {
	Write(snapshots []analytics.Snapshot) error
	ReadStale() ([]analytics.Snapshot, bool)
	ReadTimestamp() (time.Time, bool)
}

// Config configures an Orchestrator. Only FeedURL is required.
type Config struct {
	FeedURL string
	Client  HTTPClient
	Cache   Cache
	Clock   Clock
	Logger  *slog.Logger
	// RetryDelays overrides DefaultRetryDelays. The last entry repeats
	// when the table is shorter than MaxAttempts-1.
	RetryDelays []time.Duration
	// MaxBodySize overrides DefaultMaxBodySize.
	MaxBodySize int64
}

// Result is the outcome of Load. Stale is set when Snapshots came from
// the cache because the feed could not be fetched.
type Result struct {
	Snapshots []analytics.Snapshot
	Stale     bool
	CachedAt  time.Time
	Err       error // last attempt error when Stale
}

// Orchestrator fetches the feed. The zero value is not usable; call New.
type Orchestrator struct {
	feedURL string
	client  HTTPClient
	cache   Cache
	clock   Clock
	logger  *slog.Logger
	delays  []time.Duration
	maxBody int64

	// mu guards the in-flight slot and orders cache writes against
	// supersession.
	mu      sync.Mutex
	current context.CancelCauseFunc
	gen     uint64
	closed  bool
}

// New returns an Orchestrator for cfg.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.FeedURL == "" {
		return nil, errors.New("feed URL is required")
	}
	o := &Orchestrator{
		feedURL: cfg.FeedURL,
		client:  cfg.Client,
		cache:   cfg.Cache,
		clock:   cfg.Clock,
		logger:  cfg.Logger,
		delays:  append([]time.Duration(nil), cfg.RetryDelays...),
		maxBody: cfg.MaxBodySize,
	}
	if o.maxBody <= 0 {
		o.maxBody = DefaultMaxBodySize
	}
	if len(o.delays) == 0 {
		o.delays = DefaultRetryDelays()
	}
	if o.client == nil {
		o.client = DefaultClient()
	}
	if o.clock == nil {
		o.clock = SystemClock{}
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o, nil
}

// Fetch retrieves the feed on the default path. Starting a fetch cancels
// any default fetch still in flight; the overtaken call returns an error
// matching ErrCancelled.
func (o *Orchestrator) Fetch(ctx context.Context) ([]analytics.Snapshot, error) {
	ctx, done, err := o.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer done()
	return o.run(ctx)
}

// FetchOwned retrieves the feed under ctx alone. It neither cancels nor is
// cancelled by other fetches.
func (o *Orchestrator) FetchOwned(ctx context.Context) ([]analytics.Snapshot, error) {
	return o.run(ctx)
}

// Load is Fetch with the stale fallback folded into the result: a
// StaleDataError becomes a Result with Stale set and a nil error.
func (o *Orchestrator) Load(ctx context.Context) (Result, error) {
	snapshots, err := o.Fetch(ctx)
	if err == nil {
		return Result{Snapshots: snapshots}, nil
	}

	var stale *StaleDataError
	if errors.As(err, &stale) {
		return Result{
			Snapshots: stale.Snapshots,
			Stale:     true,
			CachedAt:  stale.CachedAt,
			Err:       stale.Cause,
		}, nil
	}
	return Result{}, err
}

// Cancel aborts the in-flight default fetch, if any.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cancelLocked(ErrCancelled)
}

// Close cancels the in-flight default fetch and rejects later ones.
func (o *Orchestrator) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
	o.cancelLocked(ErrCancelled)
	return nil
}

func (o *Orchestrator) cancelLocked(cause error) {
	if o.current != nil {
		o.current(cause)
		o.current = nil
	}
}

// begin claims the in-flight slot for a new default fetch. The returned
// done func releases it unless a newer fetch has already taken it.
func (o *Orchestrator) begin(parent context.Context) (context.Context, func(), error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return nil, nil, fmt.Errorf("%w: orchestrator closed", ErrCancelled)
	}
	o.cancelLocked(errSuperseded)

	ctx, cancel := context.WithCancelCause(parent)
	o.gen++
	gen := o.gen
	o.current = cancel

	done := func() {
		o.mu.Lock()
		if o.gen == gen {
			o.current = nil
		}
		o.mu.Unlock()
		cancel(nil)
	}
	return ctx, done, nil
}

// run is the attempt loop shared by both entry points.
func (o *Orchestrator) run(ctx context.Context) ([]analytics.Snapshot, error) {
	log := o.logger.With("request_id", uuid.NewString(), "url", o.feedURL)

	var lastErr error
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			log.Debug("fetch cancelled", "attempt", attempt)
			return nil, cancelled(ctx)
		}

		log.Debug("fetching analytics", "attempt", attempt)
		snapshots, err := o.attempt(ctx)
		if err == nil {
			if err := o.store(ctx, log, snapshots); err != nil {
				log.Debug("fetch overtaken before caching", "attempt", attempt)
				return nil, err
			}
			log.Debug("fetched analytics", "attempt", attempt, "snapshots", len(snapshots))
			return snapshots, nil
		}
		if errors.Is(err, ErrCancelled) {
			log.Debug("fetch cancelled", "attempt", attempt)
			return nil, err
		}
		lastErr = err

		if attempt == MaxAttempts {
			log.Warn("fetch attempt failed", "attempt", attempt, "error", err)
			break
		}

		delay := o.retryDelay(attempt)
		log.Warn("fetch attempt failed, retrying", "attempt", attempt, "delay", delay, "error", err)
		select {
		case <-ctx.Done():
		case <-o.clock.After(delay):
		}
	}

	return nil, o.exhausted(log, lastErr)
}

// attempt performs one request under its own deadline.
func (o *Orchestrator) attempt(parent context.Context) ([]analytics.Snapshot, error) {
	ctx, cancel := context.WithCancelCause(parent)
	defer cancel(nil)

	timer := o.clock.AfterFunc(AttemptTimeout, func() { cancel(ErrTimeout) })
	defer timer.Stop()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to build request: %v", ErrInvalidResponse, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, classify(parent, ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: unexpected status %s", ErrInvalidResponse, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, o.maxBody+1))
	if err != nil {
		return nil, classify(parent, ctx, err)
	}
	// Some bodies, such as file transport ones, ignore cancellation.
	if parent.Err() != nil {
		return nil, cancelled(parent)
	}
	if int64(len(body)) > o.maxBody {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", ErrInvalidResponse, o.maxBody)
	}
	return Decode(body)
}

// retryDelay returns the backoff after a failed attempt.
func (o *Orchestrator) retryDelay(attempt int) time.Duration {
	if attempt-1 < len(o.delays) {
		return o.delays[attempt-1]
	}
	return o.delays[len(o.delays)-1]
}

// classify maps a transport error onto an error kind. An aborted parent
// means cancellation; a fired attempt timer means timeout.
func classify(parent, attempt context.Context, err error) error {
	if parent.Err() != nil {
		return cancelled(parent)
	}
	if errors.Is(context.Cause(attempt), ErrTimeout) {
		return fmt.Errorf("%w after %s", ErrTimeout, AttemptTimeout)
	}
	return fmt.Errorf("failed to fetch analytics: %w", err)
}

// cancelled builds an ErrCancelled error carrying the context's cause.
func cancelled(ctx context.Context) error {
	cause := context.Cause(ctx)
	if errors.Is(cause, ErrCancelled) {
		return cause
	}
	return fmt.Errorf("%w: %w", ErrCancelled, cause)
}

// store writes through to the cache unless ctx was cancelled first. The
// check and the write happen under mu, so a newer fetch that supersedes
// this one either rejects it here or writes after it.
func (o *Orchestrator) store(ctx context.Context, log *slog.Logger, snapshots []analytics.Snapshot) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if ctx.Err() != nil {
		return cancelled(ctx)
	}
	if o.cache == nil {
		return nil
	}
	if err := o.cache.Write(snapshots); err != nil {
		log.Warn("failed to cache analytics", "error", err)
	}
	return nil
}

func (o *Orchestrator) exhausted(log *slog.Logger, lastErr error) error {
	if o.cache != nil {
		if snapshots, ok := o.cache.ReadStale(); ok {
			cachedAt, _ := o.cache.ReadTimestamp()
			log.Warn("all fetch attempts failed, using cached analytics", "cached_at", cachedAt, "snapshots", len(snapshots))
			return &StaleDataError{Snapshots: snapshots, CachedAt: cachedAt, Cause: lastErr}
		}
	}
	log.Error("all fetch attempts failed", "error", lastErr)
	return fmt.Errorf("%w: %w", ErrUnreachable, lastErr)
}
