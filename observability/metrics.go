package observability

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"offer-harvester/models"
)

// Metrics counts harvest activity. The harvester is a batch job, so the
// registry is written to a node-exporter textfile at the end of a run
// rather than served over HTTP.
type Metrics struct {
	registry *prometheus.Registry

	OffersHarvested *prometheus.CounterVec
	AdapterFailures *prometheus.CounterVec
	Runs            *prometheus.CounterVec
	RunDuration     prometheus.Gauge
	LastRun         prometheus.Gauge
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		OffersHarvested: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "offer_harvester_offers_total",
				Help: "Offers collected per source",
			},
			[]string{"source"},
		),
		AdapterFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "offer_harvester_adapter_failures_total",
				Help: "Adapter runs that ended in an error",
			},
			[]string{"source"},
		),
		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "offer_harvester_runs_total",
				Help: "Harvest runs by outcome",
			},
			[]string{"outcome"},
		),
		RunDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "offer_harvester_run_duration_seconds",
			Help: "Wall time of the last harvest run",
		}),
		LastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "offer_harvester_last_run_timestamp_seconds",
			Help: "Unix time the last harvest run finished",
		}),
	}
	m.registry.MustRegister(m.OffersHarvested, m.AdapterFailures, m.Runs, m.RunDuration, m.LastRun)
	return m
}

// ObserveRun records the outcome of one finished run.
func (m *Metrics) ObserveRun(run *models.HarvestRun, success bool, took time.Duration) {
	if run != nil {
		for src, n := range run.CountBySource() {
			m.OffersHarvested.WithLabelValues(string(src)).Add(float64(n))
		}
		for _, err := range run.Failures() {
			var ae *models.AdapterError
			src := "unknown"
			if errors.As(err, &ae) {
				src = string(ae.Source)
			}
			m.AdapterFailures.WithLabelValues(src).Inc()
		}
	}

	outcome := "success"
	if !success {
		outcome = "failure"
	}
	m.Runs.WithLabelValues(outcome).Inc()
	m.RunDuration.Set(took.Seconds())
	m.LastRun.SetToCurrentTime()
}

// WriteTextfile writes every metric to path in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
