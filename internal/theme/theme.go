// Package theme stores the light/dark display preference.
package theme

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Key is the storage key of the preference.
const Key = "mcp-analytics-theme"

// Theme is a display preference.
type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

// KV is the key/value surface the preference persists through.
type KV interface {
	Get(key string) (string, bool, error)
	SetAll(values map[string]string) error
}

// Parse validates a theme name.
func Parse(s string) (Theme, error) {
	switch t := Theme(strings.ToLower(strings.TrimSpace(s))); t {
	case Light, Dark:
		return t, nil
	}
	return "", fmt.Errorf("invalid theme %q (must be light or dark)", s)
}

// Stored returns the saved preference. Anything other than a valid theme
// reports false.
func Stored(kv KV) (Theme, bool) {
	raw, ok, err := kv.Get(Key)
	if err != nil || !ok {
		return "", false
	}
	switch t := Theme(raw); t {
	case Light, Dark:
		return t, true
	}
	return "", false
}

// Set saves the preference.
func Set(kv KV, t Theme) error {
	if _, err := Parse(string(t)); err != nil {
		return err
	}
	if err := kv.SetAll(map[string]string{Key: string(t)}); err != nil {
		return fmt.Errorf("failed to save theme: %w", err)
	}
	return nil
}

// System guesses the terminal background from COLORFGBG ("fg;bg"). Unknown
// terminals default to light.
func System(getenv func(string) string) Theme {
	if getenv == nil {
		getenv = os.Getenv
	}
	v := getenv("COLORFGBG")
	if v == "" {
		return Light
	}
	parts := strings.Split(v, ";")
	bg, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return Light
	}
	// ANSI 0-6 and 8 are dark backgrounds
	if (bg >= 0 && bg <= 6) || bg == 8 {
		return Dark
	}
	return Light
}

// Initial returns the stored preference, falling back to the system theme.
func Initial(kv KV, getenv func(string) string) Theme {
	if t, ok := Stored(kv); ok {
		return t
	}
	return System(getenv)
}
