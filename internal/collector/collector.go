package collector

import (
	"github.com/prometheus/client_golang/prometheus"

	"flowtagger/internal/aggregate"
	"flowtagger/internal/apperr"
	"flowtagger/internal/flowlog"
)

// RunCollector holds Prometheus gauges describing one tagging run.
//
// - Per-tag and per-port/protocol counts are GaugeVecs reset on every Apply,
//   so a reused collector never carries label pairs from a previous run.
// - Totals are single Gauges without labels.
//
// The registry is written out once, as a node_exporter textfile.
type RunCollector struct {
	tagRecords          *prometheus.GaugeVec
	portProtocolRecords *prometheus.GaugeVec

	flowRecords      prometheus.Gauge
	untaggedRecords  prometheus.Gauge
	malformedLines   prometheus.Gauge
	flowLogFiles     prometheus.Gauge
	lookupRules      prometheus.Gauge
	protocols        prometheus.Gauge
	lastRunTimestamp prometheus.Gauge
}

// Summary is what a finished run reports.
type Summary struct {
	Counts    *aggregate.Counts
	Parse     flowlog.Stats
	Rules     int
	Protocols int
	// FinishedAt is a Unix timestamp in seconds.
	FinishedAt float64
}

func NewRunCollector() *RunCollector {
	c := &RunCollector{}

	c.tagRecords = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "flowtagger_tag_records",
		Help: "Number of flow records assigned to the tag in the last run.",
	}, []string{"tag"})
	c.portProtocolRecords = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "flowtagger_port_protocol_records",
		Help: "Number of flow records seen for the destination port and protocol in the last run.",
	}, []string{"port", "protocol"})

	c.flowRecords = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "flowtagger_flow_records",
		Help: "Total flow records parsed in the last run.",
	})
	c.untaggedRecords = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "flowtagger_untagged_records",
		Help: "Flow records that matched no lookup rule in the last run.",
	})
	c.malformedLines = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "flowtagger_malformed_lines",
		Help: "Flow log lines skipped as malformed in the last run.",
	})
	c.flowLogFiles = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "flowtagger_flow_log_files",
		Help: "Flow log files read in the last run.",
	})
	c.lookupRules = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "flowtagger_lookup_rules",
		Help: "Lookup rules loaded in the last run.",
	})
	c.protocols = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "flowtagger_protocols",
		Help: "Protocol table entries loaded in the last run.",
	})
	c.lastRunTimestamp = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "flowtagger_last_run_timestamp_seconds",
		Help: "Unix time the last successful run finished.",
	})

	return c
}

// MustRegister registers all metrics into the provided registry.
func (c *RunCollector) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(
		c.tagRecords,
		c.portProtocolRecords,
		c.flowRecords,
		c.untaggedRecords,
		c.malformedLines,
		c.flowLogFiles,
		c.lookupRules,
		c.protocols,
		c.lastRunTimestamp,
	)
}

// Apply replaces all gauge values with s.
func (c *RunCollector) Apply(s Summary) {
	c.tagRecords.Reset()
	c.portProtocolRecords.Reset()

	if s.Counts != nil {
		s.Counts.EachTag(func(tag string, n uint64) {
			c.tagRecords.WithLabelValues(tag).Set(float64(n))
		})
		s.Counts.EachPortProtocol(func(k aggregate.PortProtocol, n uint64) {
			c.portProtocolRecords.WithLabelValues(k.Port, k.Protocol).Set(float64(n))
		})
		c.flowRecords.Set(float64(s.Counts.Records()))
		c.untaggedRecords.Set(float64(s.Counts.Tag(aggregate.Untagged)))
	} else {
		c.flowRecords.Set(0)
		c.untaggedRecords.Set(0)
	}

	c.malformedLines.Set(float64(s.Parse.Malformed))
	c.flowLogFiles.Set(float64(s.Parse.Files))
	c.lookupRules.Set(float64(s.Rules))
	c.protocols.Set(float64(s.Protocols))
	c.lastRunTimestamp.Set(s.FinishedAt)
}

// WriteTextfile writes everything g gathers to path in the text exposition
// format. The file is replaced atomically.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return &apperr.FileAccessError{Op: "write", Path: path, Err: err}
	}
	return nil
}
