package goLogin

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/goLogin/internal/secrets"
	"github.com/MrEthical07/goLogin/probe"
	"github.com/MrEthical07/goLogin/probe/script"
)

const testLoginURL = "https://portal.example.com/login"
const testDashboardURL = "https://portal.example.com/dashboard"

func newTestEngine(t *testing.T, p *script.Probe, mutate func(*Config)) *Engine {
	t.Helper()

	cfg := defaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	store := secrets.NewMemory()
	if err := store.SetSecret(context.Background(), "JBSWY3DPEHPK3PXP"); err != nil {
		t.Fatalf("seed secret: %v", err)
	}

	builder := New().
		WithConfig(cfg).
		WithSecretStore(store).
		WithTokenStore(store)
	if p != nil {
		builder = builder.WithClock(p.Now)
	}

	engine, err := builder.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

func TestBuildRequiresSecretStore(t *testing.T) {
	if _, err := New().Build(); err == nil {
		t.Fatal("Build accepted a builder without a secret store")
	}
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	cfg := defaultConfig()
	cfg.TOTP.Digits = 3

	_, err := New().
		WithConfig(cfg).
		WithSecretStore(secrets.NewMemory()).
		Build()
	if err == nil {
		t.Fatal("Build accepted an invalid config")
	}
}

func TestBuilderSingleUse(t *testing.T) {
	b := New().WithSecretStore(secrets.NewMemory())
	if _, err := b.Build(); err != nil {
		t.Fatalf("first Build failed: %v", err)
	}
	if _, err := b.Build(); err == nil {
		t.Fatal("second Build on the same builder succeeded")
	}
}

func TestEngineProvisionAndCurrentCode(t *testing.T) {
	store := secrets.NewMemory()
	engine, err := New().
		WithSecretStore(store).
		WithClock(func() time.Time { return time.Unix(59, 0).UTC() }).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer engine.Close()

	ctx := context.Background()
	payload := "otpauth://totp/Example:alice@example.com?secret=JBSWY3DPEHPK3PXP&issuer=Example"

	secret, err := engine.ProvisionSecret(ctx, payload)
	if err != nil {
		t.Fatalf("ProvisionSecret failed: %v", err)
	}
	if secret != "JBSWY3DPEHPK3PXP" {
		t.Fatalf("ProvisionSecret = %q", secret)
	}

	stored, err := store.GetSecret(ctx)
	if err != nil || stored != "JBSWY3DPEHPK3PXP" {
		t.Fatalf("store state = %q, %v", stored, err)
	}

	code, err := engine.CurrentCode(ctx)
	if err != nil {
		t.Fatalf("CurrentCode failed: %v", err)
	}
	if code != "996554" {
		t.Fatalf("CurrentCode = %q, want 996554", code)
	}
}

func TestEngineSecretNotConfigured(t *testing.T) {
	engine, err := New().WithSecretStore(secrets.NewMemory()).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer engine.Close()

	if _, err := engine.Secret(context.Background()); !errors.Is(err, ErrSecretNotConfigured) {
		t.Fatalf("Secret = %v, want ErrSecretNotConfigured", err)
	}
	if _, err := engine.CurrentCode(context.Background()); !errors.Is(err, ErrSecretNotConfigured) {
		t.Fatalf("CurrentCode = %v, want ErrSecretNotConfigured", err)
	}
}

type staticDecoder struct {
	payload string
	err     error
}

func (d staticDecoder) Decode(context.Context, io.Reader) (string, error) {
	return d.payload, d.err
}

func TestEngineProvisionFromArtifact(t *testing.T) {
	store := secrets.NewMemory()
	engine, err := New().
		WithSecretStore(store).
		WithArtifactDecoder(staticDecoder{payload: "otpauth://totp/x?secret=JBSWY3DPEHPK3PXP"}).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer engine.Close()

	secret, err := engine.ProvisionFromArtifact(context.Background(), strings.NewReader("png bytes"))
	if err != nil {
		t.Fatalf("ProvisionFromArtifact failed: %v", err)
	}
	if secret != "JBSWY3DPEHPK3PXP" {
		t.Fatalf("ProvisionFromArtifact = %q", secret)
	}
}

func TestEngineProvisionFromArtifactWithoutDecoder(t *testing.T) {
	engine, err := New().WithSecretStore(secrets.NewMemory()).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer engine.Close()

	_, err = engine.ProvisionFromArtifact(context.Background(), strings.NewReader("png bytes"))
	if !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("got %v, want ErrEngineNotReady", err)
	}
}

// tokenProbe augments the scripted probe with a bearer token, the way the
// rod adapter exposes one from local storage.
type tokenProbe struct {
	*script.Probe
	token string
}

func (p *tokenProbe) BearerToken(context.Context) (string, error) {
	return p.token, nil
}

func TestEngineAttemptLoginSuccess(t *testing.T) {
	cfg := defaultConfig()

	// Tick 0: login page with the code field already shown. Tick 1: the
	// dashboard. Detection resolves on the first poll after submission.
	p := script.New(time.Unix(59, 0).UTC(),
		script.Step{
			URL:     testLoginURL,
			Visible: []probe.Locator{cfg.Locators.CodeField},
		},
		script.Step{URL: testDashboardURL},
	)

	bearer := buildJWT(t, map[string]any{"sub": "alice", "exp": 2000000000})

	engine := newTestEngine(t, p, func(c *Config) {
		c.Orchestrator.CaptureToken = true
	})

	result, err := engine.AttemptLogin(context.Background(), &tokenProbe{Probe: p, token: bearer}, Credentials{
		Email:    "alice@example.com",
		Password: "hunter2hunter2",
	})
	if err != nil {
		t.Fatalf("AttemptLogin failed: %v", err)
	}

	if result.Outcome.State != StateSuccess || result.Outcome.Signal != SignalDashboardURL {
		t.Fatalf("outcome = %+v", result.Outcome)
	}
	if result.Attempts != 1 || result.AlreadyAuthenticated {
		t.Fatalf("attempts = %d, already = %v", result.Attempts, result.AlreadyAuthenticated)
	}
	if result.AttemptID == "" {
		t.Fatal("missing attempt id")
	}

	fills := p.Fills()
	if len(fills) != 3 {
		t.Fatalf("recorded %d fills, want 3: %+v", len(fills), fills)
	}
	if fills[2].Loc != cfg.Locators.CodeField || fills[2].Value != "996554" {
		t.Fatalf("code fill = %+v, want 996554 into the code field", fills[2])
	}

	if result.Token == nil || result.Token.AccessToken != bearer {
		t.Fatalf("token = %+v", result.Token)
	}

	// The captured token must be persisted and retrievable while valid.
	cached, err := engine.CachedToken(context.Background())
	if err != nil {
		t.Fatalf("CachedToken failed: %v", err)
	}
	if cached == nil || cached.AccessToken != bearer {
		t.Fatalf("cached token = %+v", cached)
	}

	snap := engine.MetricsSnapshot()
	if snap.Counters[MetricAttemptSuccess] != 1 {
		t.Fatalf("attempt success counter = %d", snap.Counters[MetricAttemptSuccess])
	}
	if snap.Counters[MetricCodeGenerated] != 1 {
		t.Fatalf("code generated counter = %d", snap.Counters[MetricCodeGenerated])
	}
	if snap.Counters[MetricTokenCaptured] != 1 {
		t.Fatalf("token captured counter = %d", snap.Counters[MetricTokenCaptured])
	}
}

func TestEngineAttemptLoginAlreadyAuthenticated(t *testing.T) {
	p := script.New(time.Unix(59, 0).UTC(), script.Step{URL: testDashboardURL})
	engine := newTestEngine(t, p, nil)

	result, err := engine.AttemptLogin(context.Background(), p, Credentials{Email: "alice@example.com"})
	if err != nil {
		t.Fatalf("AttemptLogin failed: %v", err)
	}
	if !result.AlreadyAuthenticated || result.Attempts != 0 {
		t.Fatalf("result = %+v", result)
	}
	if len(p.Fills()) != 0 {
		t.Fatalf("fills recorded on a persisted session: %+v", p.Fills())
	}
}

func TestEngineDetectTimesOut(t *testing.T) {
	p := script.New(time.Unix(59, 0).UTC(), script.Step{URL: testLoginURL})
	engine := newTestEngine(t, p, func(c *Config) {
		c.Detector.Deadline = 3 * time.Second
		c.Detector.PollInterval = time.Second
	})

	outcome := engine.Detect(context.Background(), p)
	if outcome.State != StateTimedOut {
		t.Fatalf("outcome = %+v", outcome)
	}
	if outcome.Ticks != 3 || outcome.Elapsed != 3*time.Second {
		t.Fatalf("ticks = %d, elapsed = %v", outcome.Ticks, outcome.Elapsed)
	}
}

func TestEngineCachedTokenMissing(t *testing.T) {
	engine := newTestEngine(t, nil, nil)

	token, err := engine.CachedToken(context.Background())
	if err != nil {
		t.Fatalf("CachedToken failed: %v", err)
	}
	if token != nil {
		t.Fatalf("token = %+v, want nil", token)
	}
}

func TestEngineCachedTokenExpired(t *testing.T) {
	store := secrets.NewMemory()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	engine, err := New().
		WithSecretStore(store).
		WithTokenStore(store).
		WithClock(func() time.Time { return now }).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer engine.Close()

	err = store.SetToken(context.Background(), &secrets.TokenRecord{
		AccessToken: "stale",
		ExpiresAt:   now.Add(time.Minute), // inside the default expiry slack
		CapturedAt:  now.Add(-time.Hour),
	})
	if err != nil {
		t.Fatalf("seed token: %v", err)
	}

	token, err := engine.CachedToken(context.Background())
	if err != nil {
		t.Fatalf("CachedToken failed: %v", err)
	}
	if token != nil {
		t.Fatalf("token = %+v, want nil for a token inside the slack window", token)
	}
}
