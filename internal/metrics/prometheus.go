package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/getsentry/blockprof/internal/profiler"
)

const namespace = "blockprof"

// ReportCollector exposes a finished report as Prometheus metrics.
type ReportCollector struct {
	report profiler.Report

	total     *prometheus.Desc
	hits      *prometheus.Desc
	exclusive *prometheus.Desc
	inclusive *prometheus.Desc
}

func NewReportCollector(r profiler.Report) *ReportCollector {
	labels := []string{"slot"}
	return &ReportCollector{
		report: r,
		total: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "session", "seconds"),
			"Duration of the profiling session.",
			nil, nil,
		),
		hits: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "slot", "hits"),
			"Number of times a block was entered.",
			labels, nil,
		),
		exclusive: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "slot", "exclusive_seconds"),
			"Time spent in a block's own code.",
			labels, nil,
		),
		inclusive: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "slot", "inclusive_seconds"),
			"Time spent in a block, nested blocks included.",
			labels, nil,
		),
	}
}

func (c *ReportCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.total
	ch <- c.hits
	ch <- c.exclusive
	ch <- c.inclusive
}

func (c *ReportCollector) Collect(ch chan<- prometheus.Metric) {
	r := c.report
	ch <- prometheus.MustNewConstMetric(c.total, prometheus.GaugeValue, c.seconds(r.TotalTicks))
	for _, s := range r.Slots {
		ch <- prometheus.MustNewConstMetric(c.hits, prometheus.CounterValue, float64(s.HitCount), s.Name)
		ch <- prometheus.MustNewConstMetric(c.exclusive, prometheus.GaugeValue, c.seconds(s.ExclusiveTicks), s.Name)
		ch <- prometheus.MustNewConstMetric(c.inclusive, prometheus.GaugeValue, c.seconds(s.InclusiveTicks), s.Name)
	}
}

func (c *ReportCollector) seconds(ticks uint64) float64 {
	if c.report.Frequency == 0 {
		return 0
	}
	return float64(ticks) / float64(c.report.Frequency)
}

// WriteTextfile writes r in the Prometheus text format, for the node
// exporter's textfile collector.
func WriteTextfile(path string, r profiler.Report) error {
	reg := prometheus.NewRegistry()
	if err := reg.Register(NewReportCollector(r)); err != nil {
		return err
	}
	return prometheus.WriteToTextfile(path, reg)
}
