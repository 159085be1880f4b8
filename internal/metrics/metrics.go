// Package metrics exports timeline run statistics in the Prometheus text format,
// suitable for the node_exporter textfile collector.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Intrinsec/mactime/internal/presentation/formatter"
)

const namespace = "mactime"

// Recorder accumulates the statistics of every run of one process.
type Recorder struct {
	registry *prometheus.Registry

	runsTotal        prometheus.Counter
	recordsTotal     *prometheus.CounterVec
	malformedTotal   *prometheus.CounterVec
	eventsTotal      *prometheus.CounterVec
	rowsTotal        *prometheus.CounterVec
	phaseDuration    *prometheus.GaugeVec
	lastRunTimestamp prometheus.Gauge
	lastRunEvents    prometheus.Gauge
}

func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		runsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Number of completed timeline runs",
		}),
		recordsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Bodyfile lines read, by parse status",
		}, []string{"status"}),
		malformedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "malformed_records_total",
			Help:      "Bodyfile lines skipped, by failure kind",
		}, []string{"kind"}),
		eventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Timeline events built, by MACB pattern",
		}, []string{"macb"}),
		rowsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_total",
			Help:      "CSV rows emitted, by write status",
		}, []string{"status"}),
		phaseDuration: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "phase_duration_seconds",
			Help:      "Duration of each phase of the last run",
		}, []string{"phase"}),
		lastRunTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run completed",
		}),
		lastRunEvents: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_events",
			Help:      "Timeline events built by the last run",
		}),
	}
}

// Observe adds the statistics of one run.
func (r *Recorder) Observe(report *formatter.Report) {
	r.runsTotal.Inc()

	r.recordsTotal.WithLabelValues("parsed").Add(float64(report.Entries))
	r.recordsTotal.WithLabelValues("malformed").Add(float64(report.MalformedTotal()))
	for kind, n := range report.Malformed {
		r.malformedTotal.WithLabelValues(kind).Add(float64(n))
	}

	for pattern, n := range report.Categories {
		r.eventsTotal.WithLabelValues(pattern).Add(float64(n))
	}

	r.rowsTotal.WithLabelValues("written").Add(float64(report.Rows))
	r.rowsTotal.WithLabelValues("failed").Add(float64(report.FailedRows))

	for _, p := range report.Phases {
		r.phaseDuration.WithLabelValues(p.Phase).Set(p.Duration.Seconds())
	}
	r.phaseDuration.WithLabelValues("total").Set(report.Total.Seconds())

	r.lastRunEvents.Set(float64(report.Events))
	r.lastRunTimestamp.SetToCurrentTime()
}

// WriteTextfile atomically writes every metric to path.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
