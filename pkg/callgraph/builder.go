package callgraph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/danpilch/cgraph/pkg/gprof"
)

// Builder turns call records into a Document.
type Builder struct {
	logger *logrus.Logger
}

// NewBuilder creates a builder. A nil logger logs warnings only.
func NewBuilder(logger *logrus.Logger) *Builder {
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.WarnLevel)
	}
	return &Builder{logger: logger}
}

// Build builds a document with a default builder.
func Build(records []gprof.CallRecord, stats map[string]gprof.FunctionStat, cfg StyleConfig) *Document {
	return NewBuilder(nil).Build(records, stats, cfg)
}

// vertex is a node under construction.
type vertex struct {
	id       string
	name     Name
	incident int
	stat     *gprof.FunctionStat
}

type arcKey struct {
	from, to *vertex
}

type arc struct {
	from, to *vertex
	weight   int
}

// graph holds the merged, unfiltered call graph in first-seen order.
type graph struct {
	vertices   []*vertex
	byIdentity map[string]*vertex
	arcs       []*arc
	byKey      map[arcKey]*arc
}

func newGraph() *graph {
	return &graph{
		byIdentity: make(map[string]*vertex),
		byKey:      make(map[arcKey]*arc),
	}
}

func (g *graph) vertex(name Name) *vertex {
	if v, ok := g.byIdentity[name.Identity]; ok {
		return v
	}
	v := &vertex{
		id:   fmt.Sprintf("N%d", len(g.vertices)+1),
		name: name,
	}
	g.vertices = append(g.vertices, v)
	g.byIdentity[name.Identity] = v
	return v
}

func (g *graph) connect(from, to *vertex, weight int) {
	key := arcKey{from, to}
	a, ok := g.byKey[key]
	if !ok {
		a = &arc{from: from, to: to}
		g.arcs = append(g.arcs, a)
		g.byKey[key] = a
	}
	a.weight += weight
}

// Build merges records by transformed name, filters by the configured
// thresholds and assigns colors. stats may be nil. cfg is used as a snapshot.
func (b *Builder) Build(records []gprof.CallRecord, stats map[string]gprof.FunctionStat, cfg StyleConfig) *Document {
	cfg = cfg.normalized()
	namer := NewNamer(cfg)
	g := newGraph()

	for _, r := range records {
		calls := r.Calls
		if calls < 0 {
			calls = 0
		}
		from := g.vertex(namer.Resolve(r.Caller))
		to := g.vertex(namer.Resolve(r.Callee))
		g.connect(from, to, calls)
	}

	for _, a := range g.arcs {
		a.from.incident += a.weight
		if a.to != a.from {
			a.to.incident += a.weight
		}
	}
	mergeStats(g, namer, stats)

	weights := make(map[*vertex]int, len(g.vertices))
	for _, v := range g.vertices {
		weights[v] = v.incident
		if v.stat != nil {
			weights[v] = v.stat.Weight()
		}
	}

	doc := newDocument(cfg.Title)

	keep := make(map[*vertex]bool)
	var edges []*Edge
	for _, a := range g.arcs {
		if a.weight < cfg.EdgeThreshold {
			continue
		}
		if weights[a.from] < cfg.NodeThreshold || weights[a.to] < cfg.NodeThreshold {
			continue
		}
		keep[a.from] = true
		keep[a.to] = true
		edges = append(edges, &Edge{
			From:   a.from.id,
			To:     a.to.id,
			Weight: a.weight,
			Color:  pickColor(cfg.EdgeColors, a.weight, DefaultEdgeColor),
		})
	}

	// Nodes without a surviving edge are left out.
	for _, v := range g.vertices {
		if !keep[v] {
			continue
		}
		w := weights[v]
		doc.addNode(&Node{
			ID:     v.id,
			Name:   v.name.Identity,
			Label:  nodeLabel(v),
			Weight: w,
			Color:  pickColor(cfg.NodeColors, w, DefaultNodeColor),
			Stat:   v.stat,
		})
	}
	doc.Edges = edges

	b.logger.WithFields(logrus.Fields{
		"records":        len(records),
		"nodes":          len(g.vertices),
		"edges":          len(g.arcs),
		"kept_nodes":     len(doc.Nodes),
		"kept_edges":     len(doc.Edges),
		"node_threshold": cfg.NodeThreshold,
		"edge_threshold": cfg.EdgeThreshold,
	}).Debug("Built call graph document")

	return doc
}

// mergeStats attaches profiler stats to vertices, summing the stats of raw
// names that collapse into the same identity. Names are visited in sorted
// order so float sums do not depend on map iteration.
func mergeStats(g *graph, namer *Namer, stats map[string]gprof.FunctionStat) {
	if len(stats) == 0 {
		return
	}
	raw := make([]string, 0, len(stats))
	for name := range stats {
		raw = append(raw, name)
	}
	sort.Strings(raw)

	for _, name := range raw {
		v, ok := g.byIdentity[namer.Resolve(name).Identity]
		if !ok {
			continue
		}
		s := stats[name]
		if v.stat == nil {
			merged := s
			merged.Name = v.name.Identity
			v.stat = &merged
			continue
		}
		v.stat.PercentTime += s.PercentTime
		v.stat.SelfSeconds += s.SelfSeconds
		v.stat.ChildrenSeconds += s.ChildrenSeconds
		v.stat.Calls += s.Calls
		v.stat.RecursiveCalls += s.RecursiveCalls
		v.stat.CalleeCalls += s.CalleeCalls
		if s.Index < v.stat.Index {
			v.stat.Index = s.Index
		}
	}
}

func nodeLabel(v *vertex) string {
	if v.stat == nil {
		return v.name.Label
	}
	var b strings.Builder
	b.WriteString(v.name.Label)
	fmt.Fprintf(&b, "\n%.2fs self, %.2fs total", v.stat.SelfSeconds, v.stat.TotalSeconds())
	fmt.Fprintf(&b, "\n%.1f%% time, %d calls", v.stat.PercentTime, v.stat.Calls+v.stat.RecursiveCalls)
	return b.String()
}
