package goLogin

import (
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/goLogin/probe"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := defaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name     string
		mutate   func(*Config)
		fragment string
	}{
		{
			name:     "digits too small",
			mutate:   func(c *Config) { c.TOTP.Digits = 5 },
			fragment: "TOTP.Digits",
		},
		{
			name:     "digits too large",
			mutate:   func(c *Config) { c.TOTP.Digits = 9 },
			fragment: "TOTP.Digits",
		},
		{
			name:     "zero period",
			mutate:   func(c *Config) { c.TOTP.Period = 0 },
			fragment: "TOTP.Period",
		},
		{
			name:     "skew out of range",
			mutate:   func(c *Config) { c.TOTP.SkewSteps = 2 },
			fragment: "TOTP.SkewSteps",
		},
		{
			name:     "unknown algorithm",
			mutate:   func(c *Config) { c.TOTP.Algorithm = "MD5" },
			fragment: "TOTP.Algorithm",
		},
		{
			name:     "zero deadline",
			mutate:   func(c *Config) { c.Detector.Deadline = 0 },
			fragment: "Detector.Deadline",
		},
		{
			name:     "zero poll interval",
			mutate:   func(c *Config) { c.Detector.PollInterval = 0 },
			fragment: "Detector.PollInterval",
		},
		{
			name: "poll interval at deadline",
			mutate: func(c *Config) {
				c.Detector.Deadline = time.Second
				c.Detector.PollInterval = time.Second
			},
			fragment: "Detector.PollInterval",
		},
		{
			name:     "zero attempts",
			mutate:   func(c *Config) { c.Orchestrator.MaxAttempts = 0 },
			fragment: "Orchestrator.MaxAttempts",
		},
		{
			name:     "negative stabilization delay",
			mutate:   func(c *Config) { c.Orchestrator.StabilizationDelay = -time.Second },
			fragment: "Orchestrator.StabilizationDelay",
		},
		{
			name:     "negative backoff entry",
			mutate:   func(c *Config) { c.Orchestrator.RetryBackoff = []time.Duration{time.Second, -time.Second} },
			fragment: "Orchestrator.RetryBackoff",
		},
		{
			name:     "missing dashboard url",
			mutate:   func(c *Config) { c.Locators.DashboardURL = "" },
			fragment: "Locators.DashboardURL",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig()
			tc.mutate(&cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate accepted an invalid config")
			}
			if !strings.Contains(err.Error(), tc.fragment) {
				t.Fatalf("error %q does not mention %q", err.Error(), tc.fragment)
			}
		})
	}
}

func TestConfigValidateAcceptsAllAlgorithms(t *testing.T) {
	for _, alg := range []string{"", "SHA1", "sha256", "SHA512"} {
		cfg := defaultConfig()
		cfg.TOTP.Algorithm = alg
		if err := cfg.Validate(); err != nil {
			t.Fatalf("Validate(%q) = %v", alg, err)
		}
	}
}

func TestCloneConfigIsolatesSlices(t *testing.T) {
	original := defaultConfig()
	original.Orchestrator.RetryBackoff = []time.Duration{time.Second, 2 * time.Second}
	original.Locators.ErrorMessages = []probe.Locator{probe.Text("Invalid code")}

	cloned := cloneConfig(original)
	original.Orchestrator.RetryBackoff[0] = time.Hour
	original.Locators.ErrorMessages[0] = probe.CSS(".changed")

	if cloned.Orchestrator.RetryBackoff[0] != time.Second {
		t.Fatalf("backoff slice shared with original: %v", cloned.Orchestrator.RetryBackoff)
	}
	if cloned.Locators.ErrorMessages[0] != probe.Text("Invalid code") {
		t.Fatalf("error locator slice shared with original: %v", cloned.Locators.ErrorMessages)
	}
}
