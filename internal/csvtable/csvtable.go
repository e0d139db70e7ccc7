package csvtable

import (
	"encoding/csv"
	"errors"
	"io"

	"flowtagger/internal/apperr"
)

// Reader reads a CSV stream whose first row names the columns and returns
// only the requested columns, in the requested order.
//
// Column names are matched case-sensitively; when a name repeats, the last
// column with that name is used. Extra columns are ignored. Short rows yield
// "" for the missing cells. Quotes are only special at the start of a field,
// a stray quote elsewhere is kept as a literal character. An empty stream (no
// header row) is a valid table with zero rows.
type Reader struct {
	path  string
	r     *csv.Reader
	index []int
	eof   bool
}

// NewReader reads the header row and checks that every column in columns is
// present. path is only used in error messages.
func NewReader(in io.Reader, path string, columns ...string) (*Reader, error) {
	r := csv.NewReader(in)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	tr := &Reader{path: path, r: r}

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		tr.eof = true
		return tr, nil
	}
	if err != nil {
		return nil, tr.readError(err)
	}

	pos := make(map[string]int, len(header))
	for i, name := range header {
		pos[name] = i
	}

	var missing []string
	for _, name := range columns {
		i, ok := pos[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		tr.index = append(tr.index, i)
	}
	if len(missing) > 0 {
		return nil, &apperr.SchemaError{Path: path, Missing: missing}
	}

	return tr, nil
}

// Read returns the next row's requested cells, or io.EOF.
func (tr *Reader) Read() ([]string, error) {
	if tr.eof {
		return nil, io.EOF
	}

	rec, err := tr.r.Read()
	if errors.Is(err, io.EOF) {
		tr.eof = true
		return nil, io.EOF
	}
	if err != nil {
		return nil, tr.readError(err)
	}

	row := make([]string, len(tr.index))
	for i, idx := range tr.index {
		if idx < len(rec) {
			row[i] = rec[idx]
		}
	}
	return row, nil
}

// Each calls fn for every remaining row.
func (tr *Reader) Each(fn func(row []string)) error {
	for {
		row, err := tr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		fn(row)
	}
}

func (tr *Reader) readError(err error) error {
	return &apperr.FileAccessError{Op: "read", Path: tr.path, Err: err}
}
