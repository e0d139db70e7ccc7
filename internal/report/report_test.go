package report

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowtagger/internal/aggregate"
	"flowtagger/internal/apperr"
	"flowtagger/internal/datadir"
	"flowtagger/internal/flowlog"
	"flowtagger/internal/lookup"
)

func TestWrite(t *testing.T) {
	rules := lookup.Table{
		lookup.NewKey("443", "tcp"): "web",
		lookup.NewKey("25", "tcp"):  "email",
	}
	counts := aggregate.Aggregate([]flowlog.Record{
		{DstPort: "443", Protocol: "tcp"},
		{DstPort: "25", Protocol: "tcp"},
		{DstPort: "443", Protocol: "tcp"},
		{DstPort: "53", Protocol: "udp"},
	}, rules)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, counts))

	want := "Tag Counts:\n" +
		"Tag,Count\n" +
		"web,2\n" +
		"email,1\n" +
		"Untagged,1\n" +
		"\n" +
		"Port/Protocol Combination Counts:\n" +
		"Port,Protocol,Count\n" +
		"443,tcp,2\n" +
		"25,tcp,1\n" +
		"53,udp,1\n"
	assert.Equal(t, want, buf.String())
}

func TestWrite_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, aggregate.New()))

	assert.Equal(t,
		"Tag Counts:\nTag,Count\n\nPort/Protocol Combination Counts:\nPort,Protocol,Count\n",
		buf.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWrite_Error(t *testing.T) {
	err := Write(failingWriter{}, aggregate.New())
	assert.EqualError(t, err, "disk full")
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	d := datadir.Dir{Root: dir}
	counts := aggregate.Aggregate([]flowlog.Record{{DstPort: "99", Protocol: "unknown"}}, lookup.Table{})

	require.NoError(t, WriteFile(d, "output.csv", counts))

	got, err := os.ReadFile(filepath.Join(dir, "output.csv"))
	require.NoError(t, err)
	assert.Equal(t,
		"Tag Counts:\nTag,Count\nUntagged,1\n\nPort/Protocol Combination Counts:\nPort,Protocol,Count\n99,unknown,1\n",
		string(got))

	// Idempotent: a second run over the same counts gives identical bytes.
	require.NoError(t, WriteFile(d, "output.csv", counts))
	again, err := os.ReadFile(filepath.Join(dir, "output.csv"))
	require.NoError(t, err)
	assert.Equal(t, got, again)
}

func TestWriteFile_Unwritable(t *testing.T) {
	d := datadir.Dir{Root: t.TempDir()}

	err := WriteFile(d, filepath.Join("missing", "output.csv"), aggregate.New())
	require.Error(t, err)
	assert.ErrorAs(t, err, new(*apperr.FileAccessError))
}
