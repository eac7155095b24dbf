// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/holomush/rainmux/internal/registry"
)

// Lifecycle operation labels.
const (
	OpInitialize  = "initialize"
	OpReload      = "reload"
	OpUpdate      = "update"
	OpGetString   = "get_string"
	OpExecuteBang = "execute_bang"
	OpFinalize    = "finalize"
)

// Status labels for lifecycle call metrics.
const (
	StatusOK                 = "ok"
	StatusSentinel           = "sentinel"
	StatusConfigError        = "config_error"
	StatusResolutionError    = "resolution_error"
	StatusInvariantViolation = "invariant_violation"
	StatusPanic              = "panic"
)

// LifecycleCalls counts lifecycle entry point calls.
// Use RegisterMetrics to register this with a Prometheus registry.
var LifecycleCalls = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "rainmux_lifecycle_calls_total",
		Help: "Total number of lifecycle calls by operation and outcome",
	},
	[]string{"op", "status"},
)

// ResolutionFailures counts failed initializations by error code.
// Use RegisterMetrics to register this with a Prometheus registry.
var ResolutionFailures = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "rainmux_resolution_failures_total",
		Help: "Total number of failed initializations by error code",
	},
	[]string{"code"},
)

// Live entry gauges, refreshed after every initialize and finalize.
var (
	LiveGroups = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "rainmux_live_groups",
		Help: "Number of skins with at least one live measure",
	})
	LiveTypes = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "rainmux_live_types",
		Help: "Number of live type contexts",
	})
	LiveInstances = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "rainmux_live_instances",
		Help: "Number of live measure instances",
	})
)

// RegisterMetrics registers dispatch metrics with the given Prometheus registry.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(LifecycleCalls)
	reg.MustRegister(ResolutionFailures)
	reg.MustRegister(LiveGroups)
	reg.MustRegister(LiveTypes)
	reg.MustRegister(LiveInstances)
}

// RecordCall increments the lifecycle call counter.
func RecordCall(op, status string) {
	LifecycleCalls.WithLabelValues(op, status).Inc()
}

// RecordResolutionFailure increments the resolution failure counter.
func RecordResolutionFailure(code string) {
	if code == "" {
		code = "unknown"
	}
	ResolutionFailures.WithLabelValues(code).Inc()
}

// RecordStats publishes registry counts to the live gauges.
func RecordStats(s registry.Stats) {
	LiveGroups.Set(float64(s.Groups))
	LiveTypes.Set(float64(s.Types))
	LiveInstances.Set(float64(s.Instances))
}
