// Package timeline reads temporal network documents and builds the interval
// trees a snapshot engine runs on.
//
// A document lists nodes and edges, each with the spans during which it
// exists and any number of time-varying attributes. Documents are JSON or
// YAML, optionally LZ4-framed, and are validated against an embedded JSON
// schema before they are decoded.
package timeline

import (
	"errors"
	"math"
)

// Sentinel errors.
var (
	// ErrSchemaViolation is returned when a document does not match the schema.
	ErrSchemaViolation = errors.New("document violates schema")
	// ErrDuplicateID is returned when a node or edge id is declared twice.
	ErrDuplicateID = errors.New("duplicate id")
	// ErrUnknownNode is returned when an edge references an undeclared node.
	ErrUnknownNode = errors.New("unknown node")
	// ErrUnsupportedFormat is returned for file types the loader cannot read.
	ErrUnsupportedFormat = errors.New("unsupported document format")
)

// Document is the decoded form of a network file.
type Document struct {
	Name     string `json:"name,omitempty"     yaml:"name,omitempty"`
	Directed *bool  `json:"directed,omitempty" yaml:"directed,omitempty"`
	Nodes    []Node `json:"nodes"              yaml:"nodes"`
	Edges    []Edge `json:"edges,omitempty"    yaml:"edges,omitempty"`
}

// IsDirected reports the document's orientation; documents are directed
// unless they say otherwise.
func (d *Document) IsDirected() bool {
	return d.Directed == nil || *d.Directed
}

// Node declares one node.
type Node struct {
	ID         string            `json:"id"                   yaml:"id"`
	Label      string            `json:"label,omitempty"      yaml:"label,omitempty"`
	Intervals  []Span            `json:"intervals,omitempty"  yaml:"intervals,omitempty"`
	Attributes map[string][]Fact `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// Edge declares one edge between two declared nodes.
type Edge struct {
	ID         string            `json:"id"                   yaml:"id"`
	Source     string            `json:"source"               yaml:"source"`
	Target     string            `json:"target"               yaml:"target"`
	Label      string            `json:"label,omitempty"      yaml:"label,omitempty"`
	Intervals  []Span            `json:"intervals,omitempty"  yaml:"intervals,omitempty"`
	Attributes map[string][]Fact `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// Span is a half-open range. A missing Start or End is unbounded on that side.
type Span struct {
	Start *float64 `json:"start,omitempty" yaml:"start,omitempty"`
	End   *float64 `json:"end,omitempty"   yaml:"end,omitempty"`
}

// Bounds returns the span's range with missing sides made infinite.
func (s Span) Bounds() (start, end float64) {
	start, end = math.Inf(-1), math.Inf(1)

	if s.Start != nil {
		start = *s.Start
	}

	if s.End != nil {
		end = *s.End
	}

	return start, end
}

// Fact is one attribute value over a span, with an optional value for the
// times outside it.
type Fact struct {
	Start *float64 `json:"start,omitempty" yaml:"start,omitempty"`
	End   *float64 `json:"end,omitempty"   yaml:"end,omitempty"`
	Value any      `json:"value"           yaml:"value"`
	Off   any      `json:"off,omitempty"   yaml:"off,omitempty"`
}

// Span returns the fact's range.
func (f Fact) Span() Span {
	return Span{Start: f.Start, End: f.End}
}
