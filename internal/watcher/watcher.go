package watcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/blackwell-systems/mcpstats/internal/fetch"
)

// Loader fetches analytics with stale tolerance.
type Loader interface {
	Load(ctx context.Context) (fetch.Result, error)
}

// Handler receives each completed, non-cancelled load.
type Handler func(res fetch.Result, err error)

// Watcher runs Loader.Load on a ticker.
type Watcher struct {
	loader   Loader
	handle   Handler
	interval time.Duration
	logger   *slog.Logger

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	// mu guards interval, ticker and cancel; SetInterval may run on
	// another goroutine at any time.
	mu     sync.Mutex
	ticker *time.Ticker
	cancel context.CancelFunc

	handleMu sync.Mutex
}

// New creates a Watcher. The handler is called serially.
func New(loader Loader, interval time.Duration, handle Handler) (*Watcher, error) {
	if loader == nil {
		return nil, fmt.Errorf("loader cannot be nil")
	}
	if handle == nil {
		return nil, fmt.Errorf("handler cannot be nil")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("invalid interval %s (must be positive)", interval)
	}
	return &Watcher{
		loader:   loader,
		handle:   handle,
		interval: interval,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		stopCh:   make(chan struct{}),
	}, nil
}

// SetLogger replaces the discard logger.
func (w *Watcher) SetLogger(l *slog.Logger) {
	if l != nil {
		w.logger = l
	}
}

// Start loads immediately, then again on every tick until Stop or until
// ctx is done.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.ticker != nil {
		w.mu.Unlock()
		return fmt.Errorf("watcher already started")
	}
	ctx, w.cancel = context.WithCancel(ctx)
	w.ticker = time.NewTicker(w.interval)
	ticker := w.ticker
	w.mu.Unlock()

	w.refresh(ctx)

	w.wg.Add(1)
	go w.run(ctx, ticker)
	return nil
}

func (w *Watcher) run(ctx context.Context, ticker *time.Ticker) {
	defer w.wg.Done()

	for {
		select {
		case <-ticker.C:
			w.logger.Debug("refresh tick")
			w.refresh(ctx)
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// refresh starts one load in the background.
func (w *Watcher) refresh(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		res, err := w.loader.Load(ctx)
		if errors.Is(err, fetch.ErrCancelled) {
			w.logger.Debug("refresh superseded or cancelled")
			return
		}

		w.handleMu.Lock()
		defer w.handleMu.Unlock()
		w.handle(res, err)
	}()
}

// SetInterval changes the refresh period of a running watcher.
func (w *Watcher) SetInterval(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("invalid interval %s (must be positive)", d)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.interval = d
	if w.ticker != nil {
		w.ticker.Reset(d)
	}
	return nil
}

// Interval returns the current refresh period.
func (w *Watcher) Interval() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.interval
}

// Stop halts the ticker, cancels any in-flight load and waits for it.
func (w *Watcher) Stop() error {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.mu.Lock()
		defer w.mu.Unlock()
		if w.ticker != nil {
			w.ticker.Stop()
		}
		if w.cancel != nil {
			w.cancel()
		}
	})
	w.wg.Wait()
	return nil
}
