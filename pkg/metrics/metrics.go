// Package metrics records capture and replay outcomes as Prometheus metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Outcome labels.
const (
	ResultOK       = "ok"
	ResultEmpty    = "empty"
	ResultNoSignal = "no_signal"
	ResultError    = "error"
)

// Recorder owns a private registry so several recorders can coexist in one
// process and tests.
type Recorder struct {
	registry *prometheus.Registry

	captures      *prometheus.CounterVec
	capturePulses prometheus.Histogram
	duration      prometheus.Histogram
	replays       *prometheus.CounterVec
	replayDrift   prometheus.Histogram
	pulsesPlayed  prometheus.Counter
}

func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		captures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ookclone_captures_total",
			Help: "Captures attempted, by result.",
		}, []string{"result"}),
		capturePulses: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ookclone_capture_pulses",
			Help:    "Pulses recorded per successful capture.",
			Buckets: prometheus.ExponentialBuckets(4, 2, 10),
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ookclone_capture_duration_seconds",
			Help:    "Time spent in a capture, arming included.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
		}),
		replays: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ookclone_replays_total",
			Help: "Replays attempted, by result.",
		}, []string{"result"}),
		replayDrift: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ookclone_replay_drift_seconds",
			Help:    "Measured replay duration minus the sequence total.",
			Buckets: prometheus.ExponentialBuckets(0.000_01, 2, 12),
		}),
		pulsesPlayed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ookclone_replay_pulses_total",
			Help: "Pulses driven on the transmit line.",
		}),
	}

	r.registry.MustRegister(r.captures, r.capturePulses, r.duration, r.replays, r.replayDrift, r.pulsesPlayed)
	return r
}

// Registry exposes the recorder's metrics for scraping or pushing.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveCapture records one capture. pulses is only observed for results
// that produced a sequence.
func (r *Recorder) ObserveCapture(result string, pulses int, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.captures.WithLabelValues(result).Inc()
	r.duration.Observe(elapsed.Seconds())
	if result == ResultOK || result == ResultEmpty {
		r.capturePulses.Observe(float64(pulses))
	}
}

// ObserveReplay records one replay.
func (r *Recorder) ObserveReplay(result string, pulses int, drift time.Duration) {
	if r == nil {
		return
	}
	r.replays.WithLabelValues(result).Inc()
	r.pulsesPlayed.Add(float64(pulses))
	if result == ResultOK {
		if drift < 0 {
			drift = -drift
		}
		r.replayDrift.Observe(drift.Seconds())
	}
}

// Push sends every metric to a Prometheus Pushgateway under job.
func (r *Recorder) Push(url, job string) error {
	return push.New(url, job).Gatherer(r.registry).Push()
}
