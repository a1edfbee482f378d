package store

import (
	"errors"
	"time"
)

// ErrNotInitialized is returned when the database exists but its schema has
// not been created yet.
var ErrNotInitialized = errors.New("database not initialized: run 'mcpstats show' to fetch analytics first")

// Entry is one stored key/value pair.
type Entry struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}
