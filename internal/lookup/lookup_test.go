package lookup

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowtagger/internal/apperr"
	"flowtagger/internal/datadir"
)

const sample = `dstport,protocol,tag
25,tcp,sv_P1
68,udp,sv_P2
23,tcp,sv_P1
31,udp,SV_P3
443,tcp,sv_P2
22,tcp,sv_P4
3389,tcp,sv_P5
0,icmp,sv_P5
110,tcp,email
993,tcp,email
143,tcp,email
`

func TestParse(t *testing.T) {
	tbl, err := Parse(strings.NewReader(sample), "lookup.csv")
	require.NoError(t, err)

	assert.Len(t, tbl, 11)

	tag, ok := tbl.Tag("31", "udp")
	assert.True(t, ok)
	assert.Equal(t, "SV_P3", tag, "tags keep their case")

	tag, ok = tbl.Tag("443", "TCP")
	assert.True(t, ok)
	assert.Equal(t, "sv_P2", tag)
}

func TestTable_Tag(t *testing.T) {
	tbl, err := Parse(strings.NewReader("dstport,protocol,tag\n80,TCP,web\n"), "lookup.csv")
	require.NoError(t, err)

	tests := []struct {
		name     string
		port     string
		protocol string
		wantTag  string
		wantOK   bool
	}{
		{name: "exact", port: "80", protocol: "tcp", wantTag: "web", wantOK: true},
		{name: "protocol case insensitive", port: "80", protocol: "Tcp", wantTag: "web", wantOK: true},
		{name: "port not normalized", port: "080", protocol: "tcp"},
		{name: "other protocol", port: "80", protocol: "udp"},
		{name: "unknown protocol", port: "80", protocol: "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tag, ok := tbl.Tag(tt.port, tt.protocol)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantTag, tag)
		})
	}
}

func TestParse_LastRowWins(t *testing.T) {
	in := "dstport,protocol,tag\n443,tcp,web\n443,TCP,https\n"

	tbl, err := Parse(strings.NewReader(in), "lookup.csv")
	require.NoError(t, err)

	assert.Equal(t, Table{{Port: "443", Protocol: "tcp"}: "https"}, tbl)
}

func TestParse_ColumnOrderFree(t *testing.T) {
	in := "tag,comment,dstport,protocol\nweb,edge,443,tcp\n"

	tbl, err := Parse(strings.NewReader(in), "lookup.csv")
	require.NoError(t, err)

	assert.Equal(t, Table{{Port: "443", Protocol: "tcp"}: "web"}, tbl)
}

func TestParse_SchemaError(t *testing.T) {
	_, err := Parse(strings.NewReader("port,protocol,tag\n443,tcp,web\n"), "lookup.csv")
	require.Error(t, err)
	assert.ErrorAs(t, err, new(*apperr.SchemaError))
	assert.Contains(t, err.Error(), "dstport")
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lookup.csv"), []byte(sample), 0o644))

	tbl, err := Load(datadir.Dir{Root: dir}, "lookup.csv")
	require.NoError(t, err)
	assert.Len(t, tbl, 11)

	_, err = Load(datadir.Dir{Root: dir}, "nope.csv")
	assert.ErrorAs(t, err, new(*apperr.FileAccessError))
}

func TestParse_StrayQuoteInTag(t *testing.T) {
	in := "dstport,protocol,tag\n80,tcp,web\"8\n443, \"tcp\",x\n"

	tbl, err := Parse(strings.NewReader(in), "lookup.csv")
	require.NoError(t, err)

	tag, ok := tbl.Tag("80", "tcp")
	assert.True(t, ok)
	assert.Equal(t, `web"8`, tag)

	tag, ok = tbl.Tag("443", ` "tcp"`)
	assert.True(t, ok)
	assert.Equal(t, "x", tag)
}

func TestParse_DuplicateHeaderLastColumnWins(t *testing.T) {
	tbl, err := Parse(strings.NewReader("dstport,protocol,tag,tag\n80,tcp,old,new\n"), "lookup.csv")
	require.NoError(t, err)

	assert.Equal(t, Table{{Port: "80", Protocol: "tcp"}: "new"}, tbl)
}
