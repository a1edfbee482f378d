package fetch

import (
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/blackwell-systems/mcpstats/internal/cache"
)

// fakeClock advances only when told to. After advances immediately by the
// requested delay and records it.
type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	delays  []time.Duration
	timers  []*fakeTimer
	onAfter func(d time.Duration)
}

type fakeTimer struct {
	clock    *fakeClock
	deadline time.Time
	f        func()
	done     bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 11, 7, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.delays = append(c.delays, d)
	hook := c.onAfter
	c.mu.Unlock()

	if hook != nil {
		hook(d)
	}
	c.Advance(d)

	ch := make(chan time.Time, 1)
	ch <- c.Now()
	return ch
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, deadline: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves the clock forward and runs every timer that came due.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []func()
	for _, t := range c.timers {
		if !t.done && !t.deadline.After(c.now) {
			t.done = true
			due = append(due, t.f)
		}
	}
	c.mu.Unlock()

	for _, f := range due {
		f()
	}
}

func (c *fakeClock) Delays() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.delays...)
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	wasPending := !t.done
	t.done = true
	return wasPending
}

// fakeTransport hands each request to handler along with its 1-based call
// number.
type fakeTransport struct {
	mu      sync.Mutex
	calls   int
	handler func(call int, req *http.Request) (*http.Response, error)
}

func (f *fakeTransport) Do(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	f.mu.Unlock()
	return f.handler(n, req)
}

func (f *fakeTransport) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func response(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

const validFeed = `[
  {"timestamp":"2025-11-07T10:00:00Z","localCount":5,"remoteCount":3,"totalCount":7,"bothCount":1,"unknownCount":0},
  {"timestamp":"2025-11-07T11:00:00.000Z","localCount":6,"remoteCount":3,"totalCount":8,"bothCount":1,"unknownCount":2}
]`

// countingKV counts SetAll calls on top of a MemoryKV.
type countingKV struct {
	*cache.MemoryKV
	mu     sync.Mutex
	writes int
}

func (c *countingKV) SetAll(values map[string]string) error {
	c.mu.Lock()
	c.writes++
	c.mu.Unlock()
	return c.MemoryKV.SetAll(values)
}

func (c *countingKV) Writes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writes
}

// gatedBody blocks every Read until gate is closed, ignoring the request
// context the way file transport bodies do.
type gatedBody struct {
	gate <-chan struct{}
	r    io.Reader
}

func (b *gatedBody) Read(p []byte) (int, error) {
	<-b.gate
	return b.r.Read(p)
}

func (b *gatedBody) Close() error { return nil }
