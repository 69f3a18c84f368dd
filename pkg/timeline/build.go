package timeline

import (
	"fmt"
	"math"
	"slices"

	"github.com/Sumatoshi-tech/timegraph/pkg/alg/interval"
	"github.com/Sumatoshi-tech/timegraph/pkg/snapshot"
)

// ExistsAttribute names the existence attribute of every node and edge.
const ExistsAttribute = "exists"

// Network is a document turned into interval trees.
type Network struct {
	Name     string
	Directed bool

	Nodes          *interval.Tree[bool]
	Edges          *interval.Tree[bool]
	NodeAttributes *interval.Tree[any]
	EdgeAttributes *interval.Tree[any]

	Endpoints map[string]snapshot.Endpoints
	Labels    map[string]string

	nodeAttrs map[attrKey]*interval.Attribute[any]
	edgeAttrs map[attrKey]*interval.Attribute[any]
}

type attrKey struct {
	entity string
	name   string
}

// Build validates doc and loads it into fresh trees. Spans of one node or
// edge that touch or overlap are merged; so are attribute facts with equal
// values. A node or edge without spans exists at all times.
func Build(doc *Document) (*Network, error) {
	n := &Network{
		Name:           doc.Name,
		Directed:       doc.IsDirected(),
		Nodes:          interval.NewTree[bool](),
		Edges:          interval.NewTree[bool](),
		NodeAttributes: interval.NewTree[any](),
		EdgeAttributes: interval.NewTree[any](),
		Endpoints:      make(map[string]snapshot.Endpoints, len(doc.Edges)),
		Labels:         make(map[string]string),
		nodeAttrs:      make(map[attrKey]*interval.Attribute[any]),
		edgeAttrs:      make(map[attrKey]*interval.Attribute[any]),
	}

	declared := make(map[string]struct{}, len(doc.Nodes))

	for i := range doc.Nodes {
		node := &doc.Nodes[i]

		if node.ID == "" {
			return nil, fmt.Errorf("%w: node %d has no id", ErrSchemaViolation, i)
		}

		if _, dup := declared[node.ID]; dup {
			return nil, fmt.Errorf("%w: node %q", ErrDuplicateID, node.ID)
		}

		declared[node.ID] = struct{}{}

		err := addExistence(n.Nodes, node.ID, node.Intervals)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", node.ID, err)
		}

		err = addFacts(n.NodeAttributes, n.nodeAttrs, node.ID, node.Attributes)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", node.ID, err)
		}

		if node.Label != "" {
			n.Labels[node.ID] = node.Label
		}
	}

	for i := range doc.Edges {
		edge := &doc.Edges[i]

		if edge.ID == "" {
			return nil, fmt.Errorf("%w: edge %d has no id", ErrSchemaViolation, i)
		}

		if _, dup := n.Endpoints[edge.ID]; dup {
			return nil, fmt.Errorf("%w: edge %q", ErrDuplicateID, edge.ID)
		}

		for _, end := range []string{edge.Source, edge.Target} {
			if _, ok := declared[end]; !ok {
				return nil, fmt.Errorf("edge %q: %w %q", edge.ID, ErrUnknownNode, end)
			}
		}

		n.Endpoints[edge.ID] = snapshot.Endpoints{Source: edge.Source, Target: edge.Target}

		err := addExistence(n.Edges, edge.ID, edge.Intervals)
		if err != nil {
			return nil, fmt.Errorf("edge %q: %w", edge.ID, err)
		}

		err = addFacts(n.EdgeAttributes, n.edgeAttrs, edge.ID, edge.Attributes)
		if err != nil {
			return nil, fmt.Errorf("edge %q: %w", edge.ID, err)
		}

		if edge.Label != "" {
			n.Labels[edge.ID] = edge.Label
		}
	}

	return n, nil
}

func addExistence(tree *interval.Tree[bool], entity string, spans []Span) error {
	exists := interval.NewAttribute(tree, entity, ExistsAttribute)

	if len(spans) == 0 {
		_, err := exists.Add(math.Inf(-1), math.Inf(1), true)

		return err
	}

	for _, span := range spans {
		start, end := span.Bounds()

		_, err := exists.Add(start, end, true)
		if err != nil {
			return err
		}
	}

	return nil
}

func addFacts(tree *interval.Tree[any], attrs map[attrKey]*interval.Attribute[any], entity string, facts map[string][]Fact) error {
	names := make([]string, 0, len(facts))
	for name := range facts {
		names = append(names, name)
	}

	slices.Sort(names)

	for _, name := range names {
		attr := interval.NewAttribute(tree, entity, name)
		attrs[attrKey{entity: entity, name: name}] = attr

		for _, fact := range facts[name] {
			start, end := fact.Span().Bounds()

			var err error
			if fact.Off != nil {
				_, err = attr.AddWithOff(start, end, fact.Value, fact.Off)
			} else {
				_, err = attr.Add(start, end, fact.Value)
			}

			if err != nil {
				return fmt.Errorf("attribute %q: %w", name, err)
			}
		}
	}

	return nil
}

// NodeAttribute returns the named attribute of a node.
func (n *Network) NodeAttribute(node, name string) (*interval.Attribute[any], bool) {
	attr, ok := n.nodeAttrs[attrKey{entity: node, name: name}]

	return attr, ok
}

// EdgeAttribute returns the named attribute of an edge.
func (n *Network) EdgeAttribute(edge, name string) (*interval.Attribute[any], bool) {
	attr, ok := n.edgeAttrs[attrKey{entity: edge, name: name}]

	return attr, ok
}

// EventTimes returns every finite time at which a node or edge appears or
// disappears, ascending.
func (n *Network) EventTimes() []float64 {
	times := append(n.Nodes.EventTimes(""), n.Edges.EventTimes("")...)
	slices.Sort(times)

	return slices.Compact(times)
}

// Bounds returns the first and last finite event time. ok is false when
// every span is unbounded.
func (n *Network) Bounds() (start, end float64, ok bool) {
	times := n.EventTimes()
	if len(times) == 0 {
		return 0, 0, false
	}

	return times[0], times[len(times)-1], true
}

// Sources returns the trees a snapshot engine reads. Weights are taken from
// the edge attribute named weightAttribute; an empty name means every edge
// weighs snapshot.DefaultWeight.
func (n *Network) Sources(weightAttribute string) snapshot.Sources {
	src := snapshot.Sources{Nodes: n.Nodes, Edges: n.Edges}
	if weightAttribute != "" {
		src.Weights = n.EdgeAttributes
	}

	return src
}

// NewEngine returns a snapshot engine over the network, undirected when the
// document says so.
func (n *Network) NewEngine(weightAttribute string, opts ...snapshot.Option) *snapshot.Engine {
	all := make([]snapshot.Option, 0, len(opts)+2)

	if weightAttribute != "" {
		all = append(all, snapshot.WithWeightAttribute(weightAttribute))
	}

	if !n.Directed {
		all = append(all, snapshot.WithUndirected())
	}

	all = append(all, opts...)

	return snapshot.NewEngine(n.Sources(weightAttribute), n.Endpoints, all...)
}
