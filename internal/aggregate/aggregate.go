package aggregate

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"flowtagger/internal/flowlog"
	"flowtagger/internal/lookup"
)

// Untagged is the tag counted for records that match no lookup rule.
const Untagged = "Untagged"

// PortProtocol is a (destination port, protocol name) combination.
type PortProtocol struct {
	Port     string
	Protocol string
}

// Counts holds the two count mappings. Both iterate in first-seen order, so
// the same input always produces the same report.
type Counts struct {
	tags          *orderedmap.OrderedMap[string, uint64]
	portProtocols *orderedmap.OrderedMap[PortProtocol, uint64]
	records       uint64
}

func New() *Counts {
	return &Counts{
		tags:          orderedmap.New[string, uint64](),
		portProtocols: orderedmap.New[PortProtocol, uint64](),
	}
}

// Aggregate folds records into fresh Counts using rules.
func Aggregate(records []flowlog.Record, rules lookup.Table) *Counts {
	c := New()
	for _, rec := range records {
		c.Add(rec, rules)
	}
	return c
}

// Add counts one record: once under its tag (or Untagged) and once under its
// port/protocol combination.
func (c *Counts) Add(rec flowlog.Record, rules lookup.Table) {
	tag, ok := rules.Tag(rec.DstPort, rec.Protocol)
	if !ok {
		tag = Untagged
	}

	n, _ := c.tags.Get(tag)
	c.tags.Set(tag, n+1)

	k := PortProtocol{Port: rec.DstPort, Protocol: rec.Protocol}
	n, _ = c.portProtocols.Get(k)
	c.portProtocols.Set(k, n+1)

	c.records++
}

// Records is the number of records added.
func (c *Counts) Records() uint64 { return c.records }

// Tag returns the count for tag.
func (c *Counts) Tag(tag string) uint64 {
	n, _ := c.tags.Get(tag)
	return n
}

func (c *Counts) NumTags() int          { return c.tags.Len() }
func (c *Counts) NumPortProtocols() int { return c.portProtocols.Len() }

// EachTag calls fn for every tag in first-seen order.
func (c *Counts) EachTag(fn func(tag string, n uint64)) {
	for p := c.tags.Oldest(); p != nil; p = p.Next() {
		fn(p.Key, p.Value)
	}
}

// EachPortProtocol calls fn for every combination in first-seen order.
func (c *Counts) EachPortProtocol(fn func(k PortProtocol, n uint64)) {
	for p := c.portProtocols.Oldest(); p != nil; p = p.Next() {
		fn(p.Key, p.Value)
	}
}
