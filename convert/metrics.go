package convert

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts the work of one run. The counters have their own
// registry so a run can be written out as a node exporter textfile.
type Metrics struct {
	registry *prometheus.Registry

	ReadsProcessed prometheus.Counter
	ReadsExtracted prometheus.Counter
	ReadsFailed    prometheus.Counter
	FilesWritten   prometheus.Counter
	FilesFailed    prometheus.Counter
}

// NewMetrics returns zeroed counters labelled with the tool name.
func NewMetrics(tool string) *Metrics {
	labels := prometheus.Labels{"tool": tool}
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "fast5",
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		})
	}
	m := &Metrics{
		registry:       prometheus.NewRegistry(),
		ReadsProcessed: counter("reads_processed_total", "Reads read from input files."),
		ReadsExtracted: counter("reads_extracted_total", "Reads written to output files."),
		ReadsFailed:    counter("reads_failed_total", "Reads that could not be converted."),
		FilesWritten:   counter("files_written_total", "Output files completed."),
		FilesFailed:    counter("files_failed_total", "Input or output files that failed."),
	}
	m.registry.MustRegister(m.ReadsProcessed, m.ReadsExtracted, m.ReadsFailed, m.FilesWritten, m.FilesFailed)
	return m
}

// Registry returns the registry holding the counters.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the counters to path in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
