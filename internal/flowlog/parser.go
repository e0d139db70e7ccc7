package flowlog

import (
	"bufio"
	"errors"
	"io"
	"strings"

	"flowtagger/internal/apperr"
	"flowtagger/internal/datadir"
	"flowtagger/internal/logging"
	"flowtagger/internal/protocols"
)

// errShortLine is returned by ParseLine; Parser turns it into an
// *apperr.MalformedRecordError with file and line context.
var errShortLine = errors.New("too few fields")

// ParseLine parses a single flow log line.
//
// It returns ok=false without an error for lines that carry no record: blank
// lines and header rows (token 6 is literally "dstport"). A line is only
// checked for being a header once it has at least 7 tokens, so a 7-token
// header row is accepted while a 7-token data row is short.
func ParseLine(line string, protos protocols.Table) (rec Record, ok bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Record{}, false, nil
	}

	if len(fields) <= dstPortField {
		return Record{}, false, errShortLine
	}
	if fields[dstPortField] == headerToken {
		return Record{}, false, nil
	}
	if len(fields) <= protocolField {
		return Record{}, false, errShortLine
	}

	rec = Record{
		DstPort:  fields[dstPortField],
		Protocol: protos.Resolve(fields[protocolField]),
	}
	return rec, true, nil
}

// Parser reads flow log files into records, in file order.
type Parser struct {
	Protocols protocols.Table
	// SkipMalformed logs and skips short lines instead of failing the run.
	SkipMalformed bool
	Logger        *logging.Logger
}

// Parse reads every line of in. path is only used for error context.
func (p *Parser) Parse(in io.Reader, path string) ([]Record, Stats, error) {
	var (
		out   []Record
		stats = Stats{Files: 1}
	)

	br := bufio.NewReader(in)
	for {
		line, rerr := br.ReadString('\n')
		if rerr != nil && !errors.Is(rerr, io.EOF) {
			return nil, stats, &apperr.FileAccessError{Op: "read", Path: path, Err: rerr}
		}
		if line == "" && rerr != nil {
			break
		}
		stats.Lines++

		rec, ok, err := ParseLine(line, p.Protocols)
		if err != nil {
			merr := &apperr.MalformedRecordError{
				Path:   path,
				Line:   stats.Lines,
				Fields: len(strings.Fields(line)),
				Want:   protocolField + 1,
			}
			if !p.SkipMalformed {
				return nil, stats, merr
			}
			stats.Malformed++
			p.logger().Warn("skipping malformed flow log line", "err", merr)
		} else if !ok {
			if strings.TrimSpace(line) == "" {
				stats.Blank++
			} else {
				stats.Headers++
			}
		} else {
			stats.Records++
			out = append(out, rec)
		}

		if rerr != nil {
			break
		}
	}

	return out, stats, nil
}

// ParseFiles expands every pattern under d and parses the matching files one
// after another. Records keep file order, then line order.
func (p *Parser) ParseFiles(d datadir.Dir, patterns []string) ([]Record, Stats, error) {
	var (
		out   []Record
		total Stats
	)

	for _, pattern := range patterns {
		paths, err := d.Glob(pattern)
		if err != nil {
			return nil, total, err
		}

		for _, path := range paths {
			recs, stats, err := p.parseFile(path)
			total.add(stats)
			if err != nil {
				return nil, total, err
			}

			p.logger().With("path", path).Debug("parsed flow log file", "lines", stats.Lines, "records", stats.Records)
			out = append(out, recs...)
		}
	}

	return out, total, nil
}

// parseFile takes a path already resolved by Glob.
func (p *Parser) parseFile(path string) ([]Record, Stats, error) {
	f, err := datadir.Dir{}.Open(path)
	if err != nil {
		return nil, Stats{}, err
	}
	defer f.Close()

	return p.Parse(f, path)
}

func (p *Parser) logger() *logging.Logger {
	if p.Logger == nil {
		return logging.Discard()
	}
	return p.Logger
}
