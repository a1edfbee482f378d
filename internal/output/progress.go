package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

// writerIsTTY returns true if the given writer exposes an Fd() method
// (e.g. *os.File) and that fd is a terminal. Falls back to false for
// plain io.Writer values such as *bytes.Buffer.
func writerIsTTY(w io.Writer) bool {
	type fder interface {
		Fd() uintptr
	}
	if f, ok := w.(fder); ok {
		return isatty.IsTerminal(f.Fd())
	}
	return false
}

// SlowFetchDelay is how long a spinner waits before switching to its slow
// message.
const SlowFetchDelay = 3 * time.Second

// Spinner displays an animated spinner with a message while a fetch runs.
// Example: |  Loading analytics data...
type Spinner struct {
	message     string
	slowMessage string
	slowAfter   time.Duration
	running     bool
	chars       []string
	mu          sync.Mutex
	writer      io.Writer
	ticker      *time.Ticker
	done        chan struct{}
	startTime   time.Time
	interval    time.Duration
}

// NewSpinner creates a spinner writing to stderr. Call Start to show it.
func NewSpinner(message string) *Spinner {
	return &Spinner{
		message:  message,
		chars:    []string{"|", "/", "-", "\\"},
		writer:   os.Stderr,
		done:     make(chan struct{}),
		interval: 100 * time.Millisecond,
	}
}

// WithSlowMessage appends msg once the spinner has run for longer than
// after. Must be called before Start.
func (s *Spinner) WithSlowMessage(after time.Duration, msg string) *Spinner {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slowAfter = after
	s.slowMessage = msg
	return s
}

// SetWriter sets the output writer (useful for testing).
func (s *Spinner) SetWriter(w io.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writer = w
}

// Start begins the spinner animation.
// On a non-TTY writer the animation goroutine is not started; the message
// is printed once instead so that non-interactive output stays clean.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.running = true
	s.startTime = time.Now()

	if !writerIsTTY(s.writer) {
		fmt.Fprintf(s.writer, "%s\n", s.message)
		return
	}

	s.ticker = time.NewTicker(s.interval)
	go s.loop(s.ticker, s.done)
}

func (s *Spinner) loop(ticker *time.Ticker, done <-chan struct{}) {
	idx := 0
	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			if !s.running {
				s.mu.Unlock()
				return
			}
			fmt.Fprintf(s.writer, "\r%s  %s", s.chars[idx], s.formatMessage())
			idx = (idx + 1) % len(s.chars)
			s.mu.Unlock()
		case <-done:
			return
		}
	}
}

// formatMessage must be called with the lock held.
func (s *Spinner) formatMessage() string {
	if s.slowMessage != "" && time.Since(s.startTime) > s.slowAfter {
		return s.message + " " + s.slowMessage
	}
	return s.message
}

// Stop stops the spinner animation and clears the line.
func (s *Spinner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.running = false
	if s.ticker != nil {
		s.ticker.Stop()
	}
	close(s.done)

	// \r does not overwrite on a non-TTY
	if writerIsTTY(s.writer) {
		width := len(s.message) + len(s.slowMessage) + 4
		fmt.Fprintf(s.writer, "\r%s\r", strings.Repeat(" ", width))
	}
}

// UpdateMessage updates the spinner message while it's running.
func (s *Spinner) UpdateMessage(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = message
}

// Running reports whether Start has been called without a matching Stop.
func (s *Spinner) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
