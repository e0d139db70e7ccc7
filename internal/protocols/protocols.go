package protocols

import (
	"io"
	"strings"

	"flowtagger/internal/csvtable"
	"flowtagger/internal/datadir"
)

// Unknown is the protocol name used for codes missing from the table.
const Unknown = "unknown"

var columns = []string{"Decimal", "Keyword"}

// Table maps an IANA decimal protocol number, as written in the flow log
// (e.g. "6"), to its keyword as written in the table (e.g. "TCP").
type Table map[string]string

// Name returns the lowercased keyword for code.
func (t Table) Name(code string) (string, bool) {
	kw, ok := t[code]
	if !ok {
		return "", false
	}
	return strings.ToLower(kw), true
}

// Resolve is Name with Unknown for codes the table does not know.
func (t Table) Resolve(code string) string {
	if name, ok := t.Name(code); ok {
		return name
	}
	return Unknown
}

// Load reads a protocol number CSV (header "Decimal,Keyword", extra columns
// allowed). A later row with the same Decimal value replaces an earlier one.
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
	t[row[0]] = row[1]
}
