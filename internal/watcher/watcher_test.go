package watcher

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/blackwell-systems/mcpstats/internal/analytics"
	"github.com/blackwell-systems/mcpstats/internal/fetch"
)

type fakeLoader struct {
	calls atomic.Int32
	load  func(ctx context.Context, call int) (fetch.Result, error)
}

func (f *fakeLoader) Load(ctx context.Context) (fetch.Result, error) {
	n := int(f.calls.Add(1))
	return f.load(ctx, n)
}

func instant(ctx context.Context, call int) (fetch.Result, error) {
	return fetch.Result{Snapshots: make([]analytics.Snapshot, call)}, nil
}

type recorder struct {
	mu      sync.Mutex
	results []fetch.Result
	errs    []error
	got     chan struct{}
}

func newRecorder() *recorder {
	return &recorder{got: make(chan struct{}, 100)}
}

func (r *recorder) handle(res fetch.Result, err error) {
	r.mu.Lock()
	r.results = append(r.results, res)
	r.errs = append(r.errs, err)
	r.mu.Unlock()
	r.got <- struct{}{}
}

func (r *recorder) wait(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-r.got:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for handler call %d", i+1)
		}
	}
}

func TestNew_Validation(t *testing.T) {
	loader := &fakeLoader{load: instant}
	noop := func(fetch.Result, error) {}

	if _, err := New(nil, time.Second, noop); err == nil {
		t.Error("New() should reject a nil loader")
	}
	if _, err := New(loader, time.Second, nil); err == nil {
		t.Error("New() should reject a nil handler")
	}
	if _, err := New(loader, 0, noop); err == nil {
		t.Error("New() should reject a zero interval")
	}
}

func TestStart_LoadsImmediately(t *testing.T) {
	loader := &fakeLoader{load: instant}
	rec := newRecorder()

	w, err := New(loader, time.Hour, rec.handle)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	defer w.Stop()

	rec.wait(t, 1)
	if err := w.Start(context.Background()); err == nil {
		t.Error("second Start() should fail")
	}
}

func TestStart_RefreshesOnTick(t *testing.T) {
	loader := &fakeLoader{load: instant}
	rec := newRecorder()

	w, err := New(loader, 10*time.Millisecond, rec.handle)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	rec.wait(t, 3)
	w.Stop()

	if n := loader.calls.Load(); n < 3 {
		t.Errorf("expected at least 3 loads, got %d", n)
	}
}

func TestStop_CancelsInFlightLoad(t *testing.T) {
	started := make(chan struct{})
	var sawCancel atomic.Bool
	loader := &fakeLoader{load: func(ctx context.Context, call int) (fetch.Result, error) {
		close(started)
		<-ctx.Done()
		sawCancel.Store(true)
		return fetch.Result{}, fetch.ErrCancelled
	}}
	rec := newRecorder()

	w, err := New(loader, time.Hour, rec.handle)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	<-started

	w.Stop()
	w.Stop() // idempotent

	if !sawCancel.Load() {
		t.Error("Stop() should cancel and wait for the in-flight load")
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.results) != 0 {
		t.Errorf("cancelled loads must not reach the handler, got %d", len(rec.results))
	}
}

func TestRefresh_ReportsFailures(t *testing.T) {
	loader := &fakeLoader{load: func(ctx context.Context, call int) (fetch.Result, error) {
		return fetch.Result{}, fetch.ErrUnreachable
	}}
	rec := newRecorder()

	w, err := New(loader, time.Hour, rec.handle)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	defer w.Stop()

	rec.wait(t, 1)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if !errors.Is(rec.errs[0], fetch.ErrUnreachable) {
		t.Errorf("handler error = %v, want ErrUnreachable", rec.errs[0])
	}
}

func TestSetInterval(t *testing.T) {
	loader := &fakeLoader{load: instant}
	rec := newRecorder()

	w, err := New(loader, time.Hour, rec.handle)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if err := w.SetInterval(-time.Second); err == nil {
		t.Error("SetInterval() should reject a negative interval")
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	defer w.Stop()
	rec.wait(t, 1)

	if err := w.SetInterval(10 * time.Millisecond); err != nil {
		t.Fatalf("SetInterval() failed: %v", err)
	}
	rec.wait(t, 2)
}

func TestSetInterval_Concurrent(t *testing.T) {
	loader := &fakeLoader{load: instant}
	rec := newRecorder()

	w, err := New(loader, time.Hour, rec.handle)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	// Interval changes may arrive from another goroutine before and
	// after Start.
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 1; i <= 50; i++ {
			w.SetInterval(time.Duration(i) * time.Minute)
		}
	}()
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	wg.Wait()
	defer w.Stop()

	rec.wait(t, 1)
	if got := w.Interval(); got != 50*time.Minute {
		t.Errorf("Interval() = %s, want 50m", got)
	}
}
