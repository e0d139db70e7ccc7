package lookup

import (
	"io"
	"strings"

	"flowtagger/internal/csvtable"
	"flowtagger/internal/datadir"
)

var columns = []string{"dstport", "protocol", "tag"}

// Key identifies a lookup rule. Port is compared as a raw string, so "80"
// and "080" are different keys; Protocol is always lowercase.
type Key struct {
	Port     string
	Protocol string
}

func NewKey(port, protocol string) Key {
	return Key{Port: port, Protocol: strings.ToLower(protocol)}
}

// Table maps (port, protocol) to a tag.
type Table map[Key]string

// Tag returns the tag for port and protocol. Protocol matching is case
// insensitive.
func (t Table) Tag(port, protocol string) (string, bool) {
	tag, ok := t[NewKey(port, protocol)]
	return tag, ok
}

// Load reads a lookup CSV with header columns dstport, protocol and tag.
// Tags are kept as written. The last row for a key wins.
func Load(d datadir.Dir, path string) (Table, error) {
	f, err := d.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Parse(f, d.Path(path))
}

// Parse is Load for an already opened stream.
func Parse(in io.Reader, path string) (Table, error) {
	tr, err := csvtable.NewReader(in, path, columns...)
	if err != nil {
		return nil, err
	}
	t := Table{}
	if err := tr.Each(t.add); err != nil {
		return nil, err
	}
	return t, nil
}

func (t Table) add(row []string) {
	t[NewKey(row[0], row[1])] = row[2]
}
