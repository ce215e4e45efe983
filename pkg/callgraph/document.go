package callgraph

import "github.com/danpilch/cgraph/pkg/gprof"

// Node is a function in the diagram.
type Node struct {
	ID     string `json:"id"`    // stable diagram identifier, e.g. "N3"
	Name   string `json:"name"`  // merge identity after name rules
	Label  string `json:"label"` // display text
	Weight int    `json:"weight"`
	Color  string `json:"color"`
	// Stat is the merged profiler summary of the raw names behind the node, if any.
	Stat *gprof.FunctionStat `json:"stat,omitempty"`
}

// Edge is a directed call relation between two node IDs.
type Edge struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Weight int    `json:"weight"`
	Color  string `json:"color"`
}

// Document is a built call graph ready for serialization.
type Document struct {
	Title string  `json:"title"`
	Nodes []*Node `json:"nodes"`
	Edges []*Edge `json:"edges"`

	byID map[string]*Node
}

func newDocument(title string) *Document {
	return &Document{
		Title: title,
		byID:  make(map[string]*Node),
	}
}

func (d *Document) addNode(n *Node) {
	d.Nodes = append(d.Nodes, n)
	d.byID[n.ID] = n
}

// Node returns the node with the given ID, or nil if not found.
func (d *Document) Node(id string) *Node {
	if d.byID == nil {
		for _, n := range d.Nodes {
			if n.ID == id {
				return n
			}
		}
		return nil
	}
	return d.byID[id]
}

// Empty reports whether the document has no nodes.
func (d *Document) Empty() bool {
	return len(d.Nodes) == 0
}

// MaxEdgeWeight returns the largest edge weight, or 0 for an edgeless document.
func (d *Document) MaxEdgeWeight() int {
	max := 0
	for _, e := range d.Edges {
		if e.Weight > max {
			max = e.Weight
		}
	}
	return max
}
