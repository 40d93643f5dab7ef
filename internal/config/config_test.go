package config

import (
	"strings"
	"testing"
	"time"
)

func TestParseKeyEqualsValueForm(t *testing.T) {
	src := `
# a comment
numSearchThreads = 4
maxVisits = 20000
maxTime = 5000
widerootnoise = true
rootPolicyTemperature = 1.25
`
	cfg, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if cfg.NumSearchThreads != 4 {
		t.Fatalf("NumSearchThreads = %d, want 4", cfg.NumSearchThreads)
	}
	if cfg.MaxVisits != 20000 {
		t.Fatalf("MaxVisits = %d, want 20000", cfg.MaxVisits)
	}
	if cfg.MaxTime != 5*time.Second {
		t.Fatalf("MaxTime = %v, want 5s", cfg.MaxTime)
	}
	if !cfg.WideRootNoise {
		t.Fatal("expected WideRootNoise = true")
	}
	if cfg.RootPolicyTemperature != 1.25 {
		t.Fatalf("RootPolicyTemperature = %v, want 1.25", cfg.RootPolicyTemperature)
	}
}

func TestParseKeySpaceValueForm(t *testing.T) {
	cfg, err := Parse(strings.NewReader("maxPlayouts 5000\nsearchRandSeed 42\n"))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if cfg.MaxPlayouts != 5000 {
		t.Fatalf("MaxPlayouts = %d, want 5000", cfg.MaxPlayouts)
	}
	if cfg.SearchRandSeed != 42 {
		t.Fatalf("SearchRandSeed = %d, want 42", cfg.SearchRandSeed)
	}
}

func TestUnknownKeysPreservedInRawButIgnored(t *testing.T) {
	cfg, err := Parse(strings.NewReader("someFutureKey = banana\n"))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if cfg.Raw["someFutureKey"] != "banana" {
		t.Fatalf("expected raw key to be preserved, got %q", cfg.Raw["someFutureKey"])
	}
}

func TestDefaultsAppliedWhenFileIsEmpty(t *testing.T) {
	cfg, err := Parse(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if cfg.NumSearchThreads != 1 {
		t.Fatalf("expected default NumSearchThreads=1, got %d", cfg.NumSearchThreads)
	}
	if cfg.NNCacheSizePowerOfTwo != 18 {
		t.Fatalf("expected default NNCacheSizePowerOfTwo=18, got %d", cfg.NNCacheSizePowerOfTwo)
	}
}
