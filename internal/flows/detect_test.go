package flows

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrEthical07/goLogin/probe"
	"github.com/MrEthical07/goLogin/probe/script"
)

var (
	testErrBanner   = probe.CSS(".error-message")
	testStayPrompt  = probe.Text("Stay signed in")
	testStayConfirm = probe.CSS("input[type=\"submit\"]")
)

func testDetectDeps(p *script.Probe) DetectDeps {
	return DetectDeps{
		Deadline:            5 * time.Second,
		PollInterval:        time.Second,
		DashboardURL:        "/dashboard",
		ErrorLocators:       []probe.Locator{testErrBanner},
		StaySignedIn:        testStayPrompt,
		StaySignedInConfirm: testStayConfirm,
		Now:                 p.Now,
		Metrics: DetectMetrics{
			Tick:        1,
			StayClicked: 2,
			ProbeFault:  3,
		},
	}
}

func TestDetectImmediateDashboard(t *testing.T) {
	p := script.New(time.Unix(0, 0), script.Step{URL: "https://idp.example.com/dashboard"})

	result := RunDetect(context.Background(), p, testDetectDeps(p))

	if result.State != DetectSuccess || result.Signal != SignalDashboardURL {
		t.Fatalf("got state=%v signal=%v, want success via dashboard", result.State, result.Signal)
	}
	if result.Ticks != 0 {
		t.Fatalf("immediate dashboard took %d ticks, want 0", result.Ticks)
	}
	if result.Elapsed != 0 {
		t.Fatalf("immediate dashboard elapsed %v, want 0", result.Elapsed)
	}
}

func TestDetectDashboardAfterPolling(t *testing.T) {
	login := script.Step{URL: "https://idp.example.com/login"}
	p := script.New(time.Unix(0, 0),
		login, login, login,
		script.Step{URL: "https://idp.example.com/dashboard?tab=home"},
	)

	result := RunDetect(context.Background(), p, testDetectDeps(p))

	if result.State != DetectSuccess || result.Signal != SignalDashboardURL {
		t.Fatalf("got state=%v signal=%v, want success via dashboard", result.State, result.Signal)
	}
	if result.Ticks != 3 {
		t.Fatalf("resolved after %d ticks, want 3", result.Ticks)
	}
	if result.Elapsed != 3*time.Second {
		t.Fatalf("elapsed %v, want 3s", result.Elapsed)
	}
}

func TestDetectTimesOutAtDeadline(t *testing.T) {
	p := script.New(time.Unix(0, 0), script.Step{URL: "https://idp.example.com/login"})

	result := RunDetect(context.Background(), p, testDetectDeps(p))

	if result.State != DetectTimedOut || result.Signal != SignalNone {
		t.Fatalf("got state=%v signal=%v, want timed out with no signal", result.State, result.Signal)
	}
	if result.Reason != ReasonDeadlineElapsed {
		t.Fatalf("reason = %q, want %q", result.Reason, ReasonDeadlineElapsed)
	}
	// Deadline 5s with 1s polling: evaluations at t=0..4, timeout observed at t=5.
	if result.Ticks != 5 {
		t.Fatalf("timed out after %d ticks, want 5", result.Ticks)
	}
	if result.Elapsed != 5*time.Second {
		t.Fatalf("elapsed %v, want 5s", result.Elapsed)
	}
}

func TestDetectDashboardWinsOverErrorOnSameTick(t *testing.T) {
	p := script.New(time.Unix(0, 0), script.Step{
		URL:     "https://idp.example.com/dashboard",
		Visible: []probe.Locator{testErrBanner},
		Texts:   map[probe.Locator]string{testErrBanner: "stale banner"},
	})

	result := RunDetect(context.Background(), p, testDetectDeps(p))

	if result.State != DetectSuccess || result.Signal != SignalDashboardURL {
		t.Fatalf("got state=%v signal=%v, want dashboard to win the race", result.State, result.Signal)
	}
}

func TestDetectErrorBannerWithText(t *testing.T) {
	p := script.New(time.Unix(0, 0), script.Step{
		URL:     "https://idp.example.com/login",
		Visible: []probe.Locator{testErrBanner},
		Texts:   map[probe.Locator]string{testErrBanner: "Invalid verification code"},
	})

	result := RunDetect(context.Background(), p, testDetectDeps(p))

	if result.State != DetectFailure || result.Signal != SignalErrorMessage {
		t.Fatalf("got state=%v signal=%v, want failure via error banner", result.State, result.Signal)
	}
	if result.Reason != "Invalid verification code" {
		t.Fatalf("reason = %q, want extracted banner text", result.Reason)
	}
}

func TestDetectErrorBannerWithoutText(t *testing.T) {
	p := script.New(time.Unix(0, 0), script.Step{
		URL:     "https://idp.example.com/login",
		Visible: []probe.Locator{testErrBanner},
	})

	result := RunDetect(context.Background(), p, testDetectDeps(p))

	if result.State != DetectFailure {
		t.Fatalf("got state=%v, want failure", result.State)
	}
	if result.Reason != "authentication rejected" {
		t.Fatalf("reason = %q, want fallback reason", result.Reason)
	}
}

func TestDetectStaySignedInClickThenSuccess(t *testing.T) {
	prompt := script.Step{
		URL:     "https://idp.example.com/login/keep",
		Visible: []probe.Locator{testStayPrompt},
	}
	p := script.New(time.Unix(0, 0), prompt, prompt)

	result := RunDetect(context.Background(), p, testDetectDeps(p))

	if result.State != DetectSuccess || result.Signal != SignalStaySignedIn {
		t.Fatalf("got state=%v signal=%v, want success via interstitial", result.State, result.Signal)
	}
	clicks := p.Clicks()
	if len(clicks) != 1 || clicks[0] != testStayConfirm {
		t.Fatalf("clicks = %v, want exactly one confirm click", clicks)
	}
}

func TestDetectStayThenDashboard(t *testing.T) {
	p := script.New(time.Unix(0, 0),
		script.Step{
			URL:     "https://idp.example.com/login/keep",
			Visible: []probe.Locator{testStayPrompt},
		},
		script.Step{URL: "https://idp.example.com/dashboard"},
	)

	result := RunDetect(context.Background(), p, testDetectDeps(p))

	if result.State != DetectSuccess || result.Signal != SignalDashboardURL {
		t.Fatalf("got state=%v signal=%v, want dashboard after dismissal", result.State, result.Signal)
	}
	if result.Ticks != 1 {
		t.Fatalf("resolved after %d ticks, want 1", result.Ticks)
	}
}

func TestDetectProbeFaultIsFailure(t *testing.T) {
	p := script.New(time.Unix(0, 0), script.Step{
		URLErr: errors.New("websocket closed"),
	})

	var faults int
	deps := testDetectDeps(p)
	deps.MetricInc = func(id int) {
		if id == deps.Metrics.ProbeFault {
			faults++
		}
	}

	result := RunDetect(context.Background(), p, deps)

	if result.State != DetectFailure || result.Signal != SignalNone {
		t.Fatalf("got state=%v signal=%v, want failure with no signal", result.State, result.Signal)
	}
	if result.Reason != ReasonProbeFault {
		t.Fatalf("reason = %q, want %q", result.Reason, ReasonProbeFault)
	}
	if faults != 1 {
		t.Fatalf("probe fault counted %d times, want 1", faults)
	}
}

func TestDetectCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := script.New(time.Unix(0, 0), script.Step{URL: "https://idp.example.com/login"})

	result := RunDetect(ctx, p, testDetectDeps(p))

	if result.State != DetectTimedOut {
		t.Fatalf("got state=%v, want timed out on canceled context", result.State)
	}
}
