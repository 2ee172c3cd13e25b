// Package prometheus provides Prometheus collectors for goLogin metrics.
//
// [NewPrometheusExporter] accepts an [goLogin.Engine] and exposes an [http.Handler]
// that renders all goLogin counters and histograms in Prometheus text exposition format.
// Counter names are prefixed gologin_*_total; the single histogram is
// gologin_detect_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry — callers mount the Handler.
//   - Mutate engine state.
package prometheus
