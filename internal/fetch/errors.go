package fetch

import (
	"errors"
	"fmt"
	"time"

	"github.com/blackwell-systems/mcpstats/internal/analytics"
)

// Error kinds. Every error returned by the orchestrator matches exactly one
// of these with errors.Is, except Unreachable, which also matches the kind
// of the last failed attempt.
var (
	ErrCancelled       = errors.New("request was cancelled")
	ErrTimeout         = errors.New("request timed out")
	ErrInvalidResponse = errors.New("invalid analytics data")
	ErrUnreachable     = errors.New("unable to connect to analytics service")
	ErrStaleData       = errors.New("showing stale cached data")
)

// errSuperseded is the cancellation cause given to a default fetch
// overtaken by a newer one.
var errSuperseded = fmt.Errorf("%w: superseded by a newer fetch", ErrCancelled)

// StaleDataError is returned when every attempt failed but the cache still
// holds data. The cached snapshots travel with the error.
type StaleDataError struct {
	Snapshots []analytics.Snapshot
	CachedAt  time.Time // zero when the capture time is unknown
	Cause     error
}

func (e *StaleDataError) Error() string {
	when := "unknown time"
	if !e.CachedAt.IsZero() {
		when = e.CachedAt.Local().Format(time.DateTime)
	}
	return fmt.Sprintf("unable to fetch latest analytics, showing cached data from %s: %v", when, e.Cause)
}

// Is matches ErrStaleData.
func (e *StaleDataError) Is(target error) bool {
	return target == ErrStaleData
}

func (e *StaleDataError) Unwrap() error {
	return e.Cause
}
