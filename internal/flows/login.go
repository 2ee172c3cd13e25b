package flows

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/MrEthical07/goLogin/probe"
)

// LoginCredentials is the flow-local credential pair.
type LoginCredentials struct {
	Email    string
	Password string
}

// LoginOutcome is the flow-local result of a full login run.
type LoginOutcome struct {
	AttemptID            string
	Attempts             int
	Result               DetectResult
	AlreadyAuthenticated bool
	BearerToken          string
	TokenCapturedAt      time.Time
}

// LoginMetrics carries metric IDs needed by the login flow.
type LoginMetrics struct {
	AttemptStarted       int
	AttemptSuccess       int
	AttemptFailure       int
	AttemptTimedOut      int
	AttemptsExhausted    int
	AlreadyAuthenticated int
	CodeGenerated        int
	TokenCaptured        int
}

// LoginEvents carries audit event names used by the login flow.
type LoginEvents struct {
	AttemptStarted       string
	AttemptSuccess       string
	AttemptFailure       string
	AttemptTimedOut      string
	AttemptsExhausted    string
	AlreadyAuthenticated string
	CodeGenerated        string
	TokenCaptured        string
}

// LoginErrors carries host-level sentinel errors used by the login flow.
type LoginErrors struct {
	EngineNotReady     error
	ExhaustedRetries   error
	CodeNotRefreshable error
}

// LoginDeps captures login orchestration dependencies.
type LoginDeps struct {
	MaxAttempts        int
	StabilizationDelay time.Duration
	RetryBackoff       []time.Duration
	CodeFieldTimeout   time.Duration
	PollInterval       time.Duration
	CaptureToken       bool
	SkewSteps          int

	DashboardURL  string
	EmailField    probe.Locator
	PasswordField probe.Locator
	CodeField     probe.Locator
	SubmitButton  probe.Locator
	LoginForm     probe.Locator

	Now           func() time.Time
	NewAttemptID  func() string
	CurrentCode   func(time.Time) (string, error)
	CodeStep      func(time.Time) int64
	Detect        func(context.Context, probe.Probe) DetectResult
	CaptureBearer func(context.Context, probe.Probe) (string, error)

	MetricInc func(int)
	EmitAudit func(context.Context, string, bool, string, DetectSignal, error, func() map[string]string)
	Warn      func(string, ...any)

	Metrics LoginMetrics
	Events  LoginEvents
	Errors  LoginErrors
}

// RunLogin drives the full attempt sequence against one exclusively owned
// probe: submit credentials, submit a fresh one-time code, await detection,
// then either finish or back off and retry until MaxAttempts is spent.
func RunLogin(ctx context.Context, p probe.Probe, creds LoginCredentials, deps LoginDeps) (*LoginOutcome, error) {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.MetricInc == nil {
		deps.MetricInc = func(int) {}
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = func(context.Context, string, bool, string, DetectSignal, error, func() map[string]string) {}
	}
	if deps.Warn == nil {
		deps.Warn = func(string, ...any) {}
	}
	if deps.MaxAttempts < 1 {
		deps.MaxAttempts = 1
	}
	if deps.PollInterval <= 0 {
		deps.PollInterval = time.Second
	}
	if deps.NewAttemptID == nil ||
		deps.CurrentCode == nil ||
		deps.CodeStep == nil ||
		deps.Detect == nil {
		return nil, deps.Errors.EngineNotReady
	}

	// A persisted session may land on the dashboard without any form being
	// shown. URL faults here are not terminal; the attempt loop will surface
	// them properly.
	if url, err := p.CurrentURL(ctx); err == nil && deps.DashboardURL != "" && strings.Contains(url, deps.DashboardURL) {
		deps.MetricInc(deps.Metrics.AlreadyAuthenticated)
		deps.EmitAudit(ctx, deps.Events.AlreadyAuthenticated, true, "", SignalDashboardURL, nil, nil)
		return &LoginOutcome{
			Result: DetectResult{
				State:  DetectSuccess,
				Signal: SignalDashboardURL,
			},
			AlreadyAuthenticated: true,
		}, nil
	}

	var (
		lastResult       DetectResult
		lastAttemptID    string
		lastRejectedStep int64 = -1
	)

	for attempt := 1; attempt <= deps.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		attemptID := deps.NewAttemptID()
		lastAttemptID = attemptID
		attemptIndex := attempt

		deps.MetricInc(deps.Metrics.AttemptStarted)
		deps.EmitAudit(ctx, deps.Events.AttemptStarted, true, attemptID, SignalNone, nil, func() map[string]string {
			return map[string]string{
				"attempt": strconv.Itoa(attemptIndex),
			}
		})

		result, err := runSingleAttempt(ctx, p, creds, attemptID, &lastRejectedStep, deps)
		if err != nil {
			return nil, err
		}
		lastResult = result

		switch result.State {
		case DetectSuccess:
			if regressed := loginFormRegressed(ctx, p, deps); regressed {
				result = DetectResult{
					State:   DetectFailure,
					Signal:  result.Signal,
					Reason:  "login page regression",
					Elapsed: result.Elapsed,
					Ticks:   result.Ticks,
				}
				lastResult = result
				deps.MetricInc(deps.Metrics.AttemptFailure)
				deps.EmitAudit(ctx, deps.Events.AttemptFailure, false, attemptID, result.Signal, nil, func() map[string]string {
					return map[string]string{"reason": result.Reason}
				})
				break
			}

			if deps.StabilizationDelay > 0 {
				if err := p.WaitTick(ctx, deps.StabilizationDelay); err != nil {
					return nil, err
				}
			}

			outcome := &LoginOutcome{
				AttemptID: attemptID,
				Attempts:  attempt,
				Result:    result,
			}
			if deps.CaptureToken && deps.CaptureBearer != nil {
				if raw, cerr := deps.CaptureBearer(ctx, p); cerr != nil {
					deps.Warn("goLogin: bearer token capture failed", "error", cerr)
				} else if raw != "" {
					outcome.BearerToken = raw
					outcome.TokenCapturedAt = deps.Now()
					deps.MetricInc(deps.Metrics.TokenCaptured)
					deps.EmitAudit(ctx, deps.Events.TokenCaptured, true, attemptID, SignalNone, nil, nil)
				}
			}

			deps.MetricInc(deps.Metrics.AttemptSuccess)
			deps.EmitAudit(ctx, deps.Events.AttemptSuccess, true, attemptID, result.Signal, nil, func() map[string]string {
				return map[string]string{
					"attempt": strconv.Itoa(attemptIndex),
					"ticks":   strconv.Itoa(result.Ticks),
				}
			})
			return outcome, nil

		case DetectFailure:
			deps.MetricInc(deps.Metrics.AttemptFailure)
			deps.EmitAudit(ctx, deps.Events.AttemptFailure, false, attemptID, result.Signal, nil, func() map[string]string {
				return map[string]string{"reason": result.Reason}
			})

		case DetectTimedOut:
			deps.MetricInc(deps.Metrics.AttemptTimedOut)
			deps.EmitAudit(ctx, deps.Events.AttemptTimedOut, false, attemptID, SignalNone, nil, func() map[string]string {
				return map[string]string{"reason": result.Reason}
			})
		}

		if attempt < deps.MaxAttempts {
			if err := p.WaitTick(ctx, backoffFor(deps.RetryBackoff, attempt)); err != nil {
				return nil, err
			}
		}
	}

	deps.MetricInc(deps.Metrics.AttemptsExhausted)
	deps.EmitAudit(ctx, deps.Events.AttemptsExhausted, false, lastAttemptID, lastResult.Signal, deps.Errors.ExhaustedRetries, func() map[string]string {
		return map[string]string{"last_reason": lastResult.Reason}
	})

	reason := lastResult.Reason
	if reason == "" {
		reason = lastResult.stateText()
	}
	return nil, fmt.Errorf("%w: %s", deps.Errors.ExhaustedRetries, reason)
}

// runSingleAttempt performs one credentials+code submission and detection.
// Probe faults during submission resolve the attempt as a retryable failure;
// only an unusable secret or an unrefreshable code aborts the whole run.
func runSingleAttempt(
	ctx context.Context,
	p probe.Probe,
	creds LoginCredentials,
	attemptID string,
	lastRejectedStep *int64,
	deps LoginDeps,
) (DetectResult, error) {
	submitFailure := func(reason string) DetectResult {
		return DetectResult{
			State:  DetectFailure,
			Signal: SignalNone,
			Reason: reason,
		}
	}

	if err := p.Fill(ctx, deps.EmailField, creds.Email); err != nil {
		return submitFailure("email field unavailable"), nil
	}
	if err := p.Fill(ctx, deps.PasswordField, creds.Password); err != nil {
		return submitFailure("password field unavailable"), nil
	}
	if err := p.Click(ctx, deps.SubmitButton); err != nil {
		return submitFailure("credential submit unavailable"), nil
	}

	if err := awaitVisible(ctx, p, deps.CodeField, deps.CodeFieldTimeout, deps.PollInterval, deps.Now); err != nil {
		if ctx.Err() != nil {
			return DetectResult{}, ctx.Err()
		}
		return submitFailure("one-time code field not visible"), nil
	}

	now := deps.Now()
	step := deps.CodeStep(now)
	if *lastRejectedStep >= 0 && step == *lastRejectedStep && deps.SkewSteps == 0 {
		return DetectResult{}, deps.Errors.CodeNotRefreshable
	}

	code, err := deps.CurrentCode(now)
	if err != nil {
		return DetectResult{}, err
	}
	deps.MetricInc(deps.Metrics.CodeGenerated)
	deps.EmitAudit(ctx, deps.Events.CodeGenerated, true, attemptID, SignalNone, nil, func() map[string]string {
		return map[string]string{
			"step": strconv.FormatInt(step, 10),
		}
	})

	if err := p.Fill(ctx, deps.CodeField, code); err != nil {
		return submitFailure("one-time code field unavailable"), nil
	}
	if err := p.Click(ctx, deps.SubmitButton); err != nil {
		return submitFailure("code submit unavailable"), nil
	}

	result := deps.Detect(ctx, p)
	if result.State == DetectFailure && result.Signal == SignalErrorMessage {
		*lastRejectedStep = step
	}
	return result, nil
}

// loginFormRegressed reports whether the credential form is visible again
// after a success signal, which means the session bounced back to login.
func loginFormRegressed(ctx context.Context, p probe.Probe, deps LoginDeps) bool {
	if deps.LoginForm.Zero() {
		return false
	}
	visible, err := p.IsVisible(ctx, deps.LoginForm)
	if err != nil {
		deps.Warn("goLogin: login form regression check failed", "error", err)
		return false
	}
	return visible
}

func awaitVisible(
	ctx context.Context,
	p probe.Probe,
	loc probe.Locator,
	timeout time.Duration,
	interval time.Duration,
	now func() time.Time,
) error {
	start := now()
	for {
		visible, err := p.IsVisible(ctx, loc)
		if err != nil {
			return err
		}
		if visible {
			return nil
		}
		if now().Sub(start) >= timeout {
			return probe.ErrElementNotFound
		}
		if err := p.WaitTick(ctx, interval); err != nil {
			return err
		}
	}
}

func backoffFor(schedule []time.Duration, attempt int) time.Duration {
	if len(schedule) == 0 {
		return 0
	}
	idx := attempt - 1
	if idx >= len(schedule) {
		idx = len(schedule) - 1
	}
	return schedule[idx]
}

func (r DetectResult) stateText() string {
	switch r.State {
	case DetectSuccess:
		return "success"
	case DetectFailure:
		return "failure"
	case DetectTimedOut:
		return "timed out"
	default:
		return "pending"
	}
}
