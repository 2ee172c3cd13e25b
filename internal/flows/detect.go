package flows

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/MrEthical07/goLogin/probe"
)

// DetectState is the flow-local attempt state.
type DetectState uint8

const (
	DetectPending DetectState = iota
	DetectSuccess
	DetectFailure
	DetectTimedOut
)

// DetectSignal identifies which watched condition resolved an attempt.
type DetectSignal uint8

const (
	SignalNone DetectSignal = iota
	SignalDashboardURL
	SignalErrorMessage
	SignalStaySignedIn
)

// ReasonProbeFault marks a failure caused by an unexpected probe error
// rather than a negative authentication signal.
const ReasonProbeFault = "probe fault"

// ReasonDeadlineElapsed marks a timeout with no terminal signal observed.
const ReasonDeadlineElapsed = "detection deadline elapsed"

// DetectResult is the flow-local detection outcome.
type DetectResult struct {
	State   DetectState
	Signal  DetectSignal
	Reason  string
	Elapsed time.Duration
	Ticks   int
}

// DetectMetrics carries metric IDs needed by the detect flow.
type DetectMetrics struct {
	Tick        int
	StayClicked int
	ProbeFault  int
}

// DetectDeps captures detection dependencies.
type DetectDeps struct {
	Deadline     time.Duration
	PollInterval time.Duration

	DashboardURL        string
	ErrorLocators       []probe.Locator
	StaySignedIn        probe.Locator
	StaySignedInConfirm probe.Locator

	Now func() time.Time

	MetricInc  func(int)
	EmitSignal func(context.Context, DetectSignal, bool, string)
	Warn       func(string, ...any)

	Metrics DetectMetrics
}

// RunDetect polls the probe until a terminal signal resolves the attempt or
// the deadline elapses. Signals are evaluated in fixed priority order on
// every tick: dashboard URL, then error banners, then the stay-signed-in
// interstitial. The returned result is terminal and never revised.
func RunDetect(ctx context.Context, p probe.Probe, deps DetectDeps) DetectResult {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.MetricInc == nil {
		deps.MetricInc = func(int) {}
	}
	if deps.EmitSignal == nil {
		deps.EmitSignal = func(context.Context, DetectSignal, bool, string) {}
	}
	if deps.Warn == nil {
		deps.Warn = func(string, ...any) {}
	}
	if deps.Deadline <= 0 {
		deps.Deadline = 30 * time.Second
	}
	if deps.PollInterval <= 0 {
		deps.PollInterval = time.Second
	}

	start := deps.Now()
	ticks := 0
	clickedStay := false

	terminal := func(state DetectState, signal DetectSignal, reason string) DetectResult {
		return DetectResult{
			State:   state,
			Signal:  signal,
			Reason:  reason,
			Elapsed: deps.Now().Sub(start),
			Ticks:   ticks,
		}
	}
	fault := func(op string, err error) DetectResult {
		deps.MetricInc(deps.Metrics.ProbeFault)
		deps.Warn("goLogin: probe fault during detection", "op", op, "error", err)
		return terminal(DetectFailure, SignalNone, ReasonProbeFault)
	}

	for {
		if ctx.Err() != nil {
			return terminal(DetectTimedOut, SignalNone, "context canceled")
		}
		if deps.Now().Sub(start) >= deps.Deadline {
			return terminal(DetectTimedOut, SignalNone, ReasonDeadlineElapsed)
		}

		url, err := p.CurrentURL(ctx)
		if err != nil {
			return fault("current_url", err)
		}
		if deps.DashboardURL != "" && strings.Contains(url, deps.DashboardURL) {
			deps.EmitSignal(ctx, SignalDashboardURL, true, "")
			return terminal(DetectSuccess, SignalDashboardURL, "")
		}

		for _, loc := range deps.ErrorLocators {
			visible, err := p.IsVisible(ctx, loc)
			if err != nil {
				return fault("error_visible", err)
			}
			if !visible {
				continue
			}
			reason := "authentication rejected"
			if text, terr := p.Text(ctx, loc); terr == nil && strings.TrimSpace(text) != "" {
				reason = strings.TrimSpace(text)
			}
			deps.EmitSignal(ctx, SignalErrorMessage, false, reason)
			return terminal(DetectFailure, SignalErrorMessage, reason)
		}

		if !deps.StaySignedIn.Zero() {
			visible, err := p.IsVisible(ctx, deps.StaySignedIn)
			if err != nil {
				return fault("stay_visible", err)
			}
			if visible {
				if clickedStay {
					// The interstitial only renders once the MFA step has been
					// accepted, so surviving a dismissal attempt still means
					// the code went through.
					deps.EmitSignal(ctx, SignalStaySignedIn, true, "")
					return terminal(DetectSuccess, SignalStaySignedIn, "")
				}
				confirm := deps.StaySignedInConfirm
				if confirm.Zero() {
					confirm = deps.StaySignedIn
				}
				if err := p.Click(ctx, confirm); err != nil && !errors.Is(err, probe.ErrElementNotFound) {
					return fault("stay_click", err)
				}
				clickedStay = true
				deps.MetricInc(deps.Metrics.StayClicked)
			}
		}

		if err := p.WaitTick(ctx, deps.PollInterval); err != nil {
			return terminal(DetectTimedOut, SignalNone, "context canceled")
		}
		ticks++
		deps.MetricInc(deps.Metrics.Tick)
	}
}
