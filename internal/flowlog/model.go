package flowlog

// This package parses flow log lines into records the aggregator can count.
// It only looks at two positional fields; the rest of the flow log schema
// (version, account, interface, addresses, times, action, status) is read
// past and ignored.

const (
	// dstPortField and protocolField are 0-based token positions.
	dstPortField  = 6
	protocolField = 7

	// headerToken in the port position marks a header row.
	headerToken = "dstport"
)

// Record is a parsed flow log line.
type Record struct {
	DstPort string
	// Protocol is the lowercased protocol keyword, or "unknown" when the
	// protocol number is not in the protocol table.
	Protocol string
}

// Stats counts what the parser saw.
type Stats struct {
	Files     int
	Lines     int
	Blank     int
	Headers   int
	Malformed int
	Records   int
}

func (s *Stats) add(o Stats) {
	s.Files += o.Files
	s.Lines += o.Lines
	s.Blank += o.Blank
	s.Headers += o.Headers
	s.Malformed += o.Malformed
	s.Records += o.Records
}
