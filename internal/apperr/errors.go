package apperr

import (
	"fmt"
	"strings"
)

// FileAccessError is returned when an input cannot be opened or read, or when
// an output cannot be created or written.
type FileAccessError struct {
	Op   string // open, read, create, write, glob
	Path string
	Err  error
}

func (e *FileAccessError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileAccessError) Unwrap() error { return e.Err }

// SchemaError is returned when a tabular input lacks required header columns.
type SchemaError struct {
	Path    string
	Missing []string
	Err     error
}

func (e *SchemaError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("%s: missing required column(s) %s", e.Path, strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// MalformedRecordError is returned for a flow log line with too few
// whitespace-separated fields.
type MalformedRecordError struct {
	Path   string
	Line   int
	Fields int
	Want   int
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("%s:%d: malformed record: got %d field(s), want at least %d", e.Path, e.Line, e.Fields, e.Want)
}
