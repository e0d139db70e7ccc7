package report

import (
	"bufio"
	"fmt"
	"io"

	"flowtagger/internal/aggregate"
	"flowtagger/internal/apperr"
	"flowtagger/internal/datadir"
)

// Write renders counts as:
//
//	Tag Counts:
//	Tag,Count
//	<tag>,<count>
//
//	Port/Protocol Combination Counts:
//	Port,Protocol,Count
//	<port>,<protocol>,<count>
//
// Rows follow the first-seen order kept by counts.
func Write(w io.Writer, counts *aggregate.Counts) error {
	bw := bufio.NewWriter(w)

	bw.WriteString("Tag Counts:\nTag,Count\n")
	counts.EachTag(func(tag string, n uint64) {
		fmt.Fprintf(bw, "%s,%d\n", tag, n)
	})

	bw.WriteString("\nPort/Protocol Combination Counts:\nPort,Protocol,Count\n")
	counts.EachPortProtocol(func(k aggregate.PortProtocol, n uint64) {
		fmt.Fprintf(bw, "%s,%s,%d\n", k.Port, k.Protocol, n)
	})

	// bufio.Writer keeps the first write error and returns it from Flush.
	return bw.Flush()
}

// WriteFile creates (or truncates) path under d and writes the report to it.
// On failure the file may be left partially written.
func WriteFile(d datadir.Dir, path string, counts *aggregate.Counts) (err error) {
	f, err := d.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = &apperr.FileAccessError{Op: "close", Path: d.Path(path), Err: cerr}
		}
	}()

	if err := Write(f, counts); err != nil {
		return &apperr.FileAccessError{Op: "write", Path: d.Path(path), Err: err}
	}
	return nil
}
