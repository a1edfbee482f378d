package theme

import (
	"testing"

	"github.com/blackwell-systems/mcpstats/internal/cache"
)

func env(values map[string]string) func(string) string {
	return func(k string) string { return values[k] }
}

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Theme
		wantErr bool
	}{
		{"light", Light, false},
		{" DARK ", Dark, false},
		{"solarized", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("Parse(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStoredAndSet(t *testing.T) {
	kv := cache.NewMemoryKV()

	if _, ok := Stored(kv); ok {
		t.Error("Stored() on empty storage should report false")
	}

	if err := Set(kv, Dark); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	if got, ok := Stored(kv); !ok || got != Dark {
		t.Errorf("Stored() = %q, %v; want dark", got, ok)
	}

	if err := Set(kv, Theme("neon")); err == nil {
		t.Error("Set() should reject an invalid theme")
	}

	kv.Put(Key, "neon")
	if _, ok := Stored(kv); ok {
		t.Error("Stored() should ignore an invalid stored value")
	}
}

func TestSystem(t *testing.T) {
	tests := []struct {
		colorfgbg string
		want      Theme
	}{
		{"", Light},
		{"15;0", Dark},
		{"0;15", Light},
		{"12;8", Dark},
		{"0;default;7", Light},
		{"garbage", Light},
	}
	for _, tt := range tests {
		got := System(env(map[string]string{"COLORFGBG": tt.colorfgbg}))
		if got != tt.want {
			t.Errorf("System(COLORFGBG=%q) = %q, want %q", tt.colorfgbg, got, tt.want)
		}
	}
}

func TestInitial(t *testing.T) {
	kv := cache.NewMemoryKV()
	dark := env(map[string]string{"COLORFGBG": "15;0"})

	if got := Initial(kv, dark); got != Dark {
		t.Errorf("Initial() without preference = %q, want system dark", got)
	}

	if err := Set(kv, Light); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	if got := Initial(kv, dark); got != Light {
		t.Errorf("Initial() = %q, want stored light", got)
	}

	kv.Disable()
	if got := Initial(kv, dark); got != Dark {
		t.Errorf("Initial() with unavailable storage = %q, want system dark", got)
	}
}
