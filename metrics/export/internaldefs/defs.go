package internaldefs

import (
	goLogin "github.com/MrEthical07/goLogin"
)

// CounterDef defines a public type used by goLogin APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   goLogin.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by goLogin APIs.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   goLogin.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the login engine.
var CounterDefs = []CounterDef{
	{ID: goLogin.MetricAttemptStarted, Name: "gologin_attempt_started_total", Help: "Started login attempts."},
	{ID: goLogin.MetricAttemptSuccess, Name: "gologin_attempt_success_total", Help: "Login attempts resolved as success."},
	{ID: goLogin.MetricAttemptFailure, Name: "gologin_attempt_failure_total", Help: "Login attempts resolved as failure."},
	{ID: goLogin.MetricAttemptTimedOut, Name: "gologin_attempt_timed_out_total", Help: "Login attempts resolved as timed out."},
	{ID: goLogin.MetricAttemptsExhausted, Name: "gologin_attempts_exhausted_total", Help: "Logins abandoned after the retry budget."},
	{ID: goLogin.MetricAlreadyAuthenticated, Name: "gologin_already_authenticated_total", Help: "Logins short-circuited by a persisted session."},
	{ID: goLogin.MetricDetectTick, Name: "gologin_detect_tick_total", Help: "Detector polling ticks."},
	{ID: goLogin.MetricStaySignedInClicked, Name: "gologin_stay_signed_in_clicked_total", Help: "Dismissals of the stay-signed-in interstitial."},
	{ID: goLogin.MetricProbeFault, Name: "gologin_probe_fault_total", Help: "Attempts aborted by unexpected probe errors."},
	{ID: goLogin.MetricCodeGenerated, Name: "gologin_code_generated_total", Help: "Generated one-time codes."},
	{ID: goLogin.MetricProvisionSuccess, Name: "gologin_provision_success_total", Help: "Successful secret provisionings."},
	{ID: goLogin.MetricProvisionFailure, Name: "gologin_provision_failure_total", Help: "Failed secret provisionings."},
	{ID: goLogin.MetricTokenCaptured, Name: "gologin_token_captured_total", Help: "Captured post-login session tokens."},
}

// HistogramDefs is an exported constant or variable used by the login engine.
var HistogramDefs = []HistogramDef{
	{ID: goLogin.MetricDetectLatency, Name: "gologin_detect_latency_seconds", Help: "MFA completion detection latency histogram."},
}

// HistogramBounds is an exported constant or variable used by the login engine.
var HistogramBounds = []string{
	"1",
	"2",
	"5",
	"10",
	"15",
	"20",
	"30",
	"+Inf",
}

// HistogramBoundSuffix is an exported constant or variable used by the login engine.
var HistogramBoundSuffix = []string{
	"1",
	"2",
	"5",
	"10",
	"15",
	"20",
	"30",
	"inf",
}

// NormalizeBuckets describes the normalizebuckets operation and its observable behavior.
//
// NormalizeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets describes the cumulativebuckets operation and its observable behavior.
//
// CumulativeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
