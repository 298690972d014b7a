package ingest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts what a run did. Each Metrics has its own registry so the
// counters only cover the runs it was passed to.
type Metrics struct {
	registry *prometheus.Registry

	BagsBuilt    prometheus.Counter
	BagsUploaded *prometheus.CounterVec // by environment
	UploadBytes  prometheus.Counter
	Failures     *prometheus.CounterVec // by stage
	Submissions  *prometheus.CounterVec // by outcome
}

// NewMetrics returns a set of zeroed counters.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		BagsBuilt: factory.NewCounter(prometheus.CounterOpts{
			Name: "aptbag_bags_built_total",
			Help: "Number of bags staged and tarred",
		}),
		BagsUploaded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "aptbag_bags_uploaded_total",
			Help: "Number of bags uploaded and verified",
		}, []string{"environment"}),
		UploadBytes: factory.NewCounter(prometheus.CounterOpts{
			Name: "aptbag_upload_bytes_total",
			Help: "Bytes of tar files uploaded",
		}),
		Failures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "aptbag_failures_total",
			Help: "Number of bags which failed, by the stage they failed in",
		}, []string{"stage"}),
		Submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "aptbag_submissions_total",
			Help: "Number of DAEV submissions, by outcome",
		}, []string{"outcome"}),
	}
}

// Registry returns the registry holding the counters.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// WriteTextfile saves the counters in the text format read by the
// node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
