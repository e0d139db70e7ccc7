package collector

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowtagger/internal/aggregate"
	"flowtagger/internal/apperr"
	"flowtagger/internal/flowlog"
	"flowtagger/internal/lookup"
)

func testSummary() Summary {
	rules := lookup.Table{lookup.NewKey("443", "tcp"): "web"}
	counts := aggregate.Aggregate([]flowlog.Record{
		{DstPort: "443", Protocol: "tcp"},
		{DstPort: "443", Protocol: "tcp"},
		{DstPort: "53", Protocol: "udp"},
	}, rules)

	return Summary{
		Counts:     counts,
		Parse:      flowlog.Stats{Files: 2, Malformed: 1, Records: 3},
		Rules:      len(rules),
		Protocols:  3,
		FinishedAt: 1700000000,
	}
}

func TestRunCollector_Apply(t *testing.T) {
	c := NewRunCollector()
	c.Apply(testSummary())

	assert.Equal(t, 2.0, testutil.ToFloat64(c.tagRecords.WithLabelValues("web")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.tagRecords.WithLabelValues(aggregate.Untagged)))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.portProtocolRecords.WithLabelValues("443", "tcp")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.flowRecords))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.untaggedRecords))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.malformedLines))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.flowLogFiles))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.lookupRules))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.protocols))
}

func TestRunCollector_ApplyResetsLabels(t *testing.T) {
	c := NewRunCollector()
	c.Apply(testSummary())
	c.Apply(Summary{Counts: aggregate.New()})

	assert.Equal(t, 0, testutil.CollectAndCount(c.tagRecords))
	assert.Equal(t, 0, testutil.CollectAndCount(c.portProtocolRecords))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.flowRecords))
}

func TestWriteTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewRunCollector()
	c.MustRegister(reg)
	c.Apply(testSummary())

	path := filepath.Join(t.TempDir(), "flowtagger.prom")
	require.NoError(t, WriteTextfile(path, reg))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(b)

	assert.Contains(t, out, `flowtagger_tag_records{tag="web"} 2`)
	assert.Contains(t, out, `flowtagger_port_protocol_records{port="53",protocol="udp"} 1`)
	assert.Contains(t, out, "flowtagger_flow_records 3")
	assert.True(t, strings.HasPrefix(out, "# HELP"))
}

func TestWriteTextfile_BadPath(t *testing.T) {
	reg := prometheus.NewRegistry()

	err := WriteTextfile(filepath.Join(t.TempDir(), "missing", "x.prom"), reg)
	require.Error(t, err)
	assert.ErrorAs(t, err, new(*apperr.FileAccessError))
}
