package goLogin

import (
	"context"

	"github.com/MrEthical07/goLogin/internal/flows"
	"github.com/MrEthical07/goLogin/probe"
)

// Detect polls the probe for MFA completion: dashboard URL, error banner,
// or the stay-signed-in interstitial, in that priority order, once per
// tick until the deadline. The returned Outcome is terminal and immutable.
//
// Detect does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Detect(ctx context.Context, p probe.Probe) Outcome {
	if e == nil {
		return Outcome{State: StateFailure, Reason: "engine not initialized"}
	}

	result := flows.RunDetect(ctx, p, e.detectDeps())
	outcome := outcomeFromFlow(result)

	if e.metrics != nil {
		e.metrics.Observe(MetricDetectLatency, outcome.Elapsed)
	}

	return outcome
}

func (e *Engine) detectDeps() flows.DetectDeps {
	return flows.DetectDeps{
		Deadline:     e.config.Detector.Deadline,
		PollInterval: e.config.Detector.PollInterval,

		DashboardURL:        e.config.Locators.DashboardURL,
		ErrorLocators:       e.config.Locators.ErrorMessages,
		StaySignedIn:        e.config.Locators.StaySignedIn,
		StaySignedInConfirm: e.config.Locators.StaySignedInConfirm,

		Now: e.now,

		MetricInc: e.flowMetricInc,
		EmitSignal: func(ctx context.Context, sig flows.DetectSignal, success bool, reason string) {
			e.emitAudit(ctx, auditEventSignalObserved, success, "", signalFromFlow(sig), nil, func() map[string]string {
				if reason == "" {
					return nil
				}
				return map[string]string{"reason": reason}
			})
		},
		Warn: e.warn,

		Metrics: flows.DetectMetrics{
			Tick:        int(MetricDetectTick),
			StayClicked: int(MetricStaySignedInClicked),
			ProbeFault:  int(MetricProbeFault),
		},
	}
}

func (e *Engine) flowMetricInc(id int) {
	e.metricInc(MetricID(id))
}

func outcomeFromFlow(r flows.DetectResult) Outcome {
	return Outcome{
		State:   stateFromFlow(r.State),
		Signal:  signalFromFlow(r.Signal),
		Reason:  r.Reason,
		Elapsed: r.Elapsed,
		Ticks:   r.Ticks,
	}
}

func stateFromFlow(s flows.DetectState) OutcomeState {
	switch s {
	case flows.DetectSuccess:
		return StateSuccess
	case flows.DetectFailure:
		return StateFailure
	case flows.DetectTimedOut:
		return StateTimedOut
	default:
		return StatePending
	}
}

func signalFromFlow(s flows.DetectSignal) Signal {
	switch s {
	case flows.SignalDashboardURL:
		return SignalDashboardURL
	case flows.SignalErrorMessage:
		return SignalErrorMessage
	case flows.SignalStaySignedIn:
		return SignalStaySignedIn
	default:
		return SignalNone
	}
}
