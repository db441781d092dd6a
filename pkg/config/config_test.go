package config

import (
	"errors"
	"testing"
)

func TestParseI2CAddress(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"77", 0x77, true},
		{"0x48", 0x48, true},
		{" 0X1d ", 0x1d, true},
		{"80", 0, false},
		{"bad", 0, false},
	}
	for _, tt := range tests {
		got, err := parseI2CAddress(tt.in)
		if (err == nil) != tt.ok {
			t.Fatalf("parseI2CAddress(%q) ok=%v err=%v", tt.in, tt.ok, err)
		}
		if tt.ok && got != tt.want {
			t.Fatalf("parseI2CAddress(%q) = %#x; want %#x", tt.in, got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	base := DefaultConfig()
	base.Sensor = "analog"
	base.Outputs = []OutputConfig{{Type: "csv"}}
	if err := base.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
		option string
	}{
		{"no samples", func(c *Config) { c.NumSamplesPerResult = 0 }, "num_samples_per_result"},
		{"negative trim", func(c *Config) { c.RemoveNSamplesFromEnds = -1 }, "remove_n_samples_from_ends"},
		{"trim empties list", func(c *Config) { c.NumSamplesPerResult = 4; c.RemoveNSamplesFromEnds = 2 }, "remove_n_samples_from_ends"},
		{"no retries", func(c *Config) { c.MaxRetries = 0 }, "max_retries"},
		{"daemon debug without logfile", func(c *Config) { c.Daemon = true; c.Debug = true }, "logfile"},
		{"no sensor", func(c *Config) { c.Sensor = "" }, "sensor"},
		{"no output", func(c *Config) { c.Outputs = nil }, "output"},
		{"daemon to stdout", func(c *Config) { c.Daemon = true }, "outfile"},
		{"two outputs one file", func(c *Config) {
			c.Outputs = []OutputConfig{{Type: "csv", File: "a.csv"}, {Type: "json"}}
		}, "outfile"},
	}
	for _, tt := range tests {
		cfg := base
		cfg.Outputs = append([]OutputConfig(nil), base.Outputs...)
		tt.mutate(&cfg)
		err := cfg.Validate()
		var cerr *Error
		if !errors.As(err, &cerr) {
			t.Fatalf("%s: expected *Error, got %v", tt.name, err)
		}
		if cerr.Option != tt.option {
			t.Fatalf("%s: option = %q; want %q", tt.name, cerr.Option, tt.option)
		}
	}
}

func TestValidateTrimBoundary(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sensor = "analog"
	cfg.Outputs = []OutputConfig{{Type: "json"}}
	cfg.NumSamplesPerResult = 5
	cfg.RemoveNSamplesFromEnds = 2
	if err := cfg.Validate(); err != nil {
		t.Fatalf("5 samples with trim 2 should be valid: %v", err)
	}
}

func TestPairOutputs(t *testing.T) {
	outs, err := pairOutputs([]string{"json"}, nil)
	if err != nil || len(outs) != 1 || outs[0].File != "" {
		t.Fatalf("single output to stdout: %+v %v", outs, err)
	}
	outs, err = pairOutputs([]string{"json", "csv"}, []string{"a.json", "b.csv"})
	if err != nil || outs[1].Type != "csv" || outs[1].File != "b.csv" {
		t.Fatalf("paired outputs: %+v %v", outs, err)
	}
	if _, err := pairOutputs([]string{"json", "csv"}, []string{"a.json"}); err == nil {
		t.Fatalf("expected mismatch error")
	}
}
