// Package analysis computes structural metrics over the section dependency
// graph: evaluation order, fan-out, cycles, and influence. The status screen
// uses these to explain why editing one section recomputes others.
package analysis

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/ampdesk/ampdesk/pkg/section"
)

// GraphStats holds the results of analyzing a section graph.
type GraphStats struct {
	NodeCount int
	EdgeCount int
	// Order is a topological order of the recalc dependencies: editing a
	// section recomputes everything after it that it reaches. Empty when the
	// graph has cycles.
	Order []section.Section
	// Cycles lists strongly connected components with more than one section.
	Cycles [][]section.Section
	// FanOut counts how many recalc targets each trigger section has.
	FanOut map[section.Section]int
	// Influence is PageRank over the recalc edges: sections many triggers
	// feed into score high and are the expensive ones to keep reactive.
	Influence map[section.Section]float64
}

// Analyze builds a directed graph from the recalc edges of g and computes
// the full stat set. The graph is tiny, so everything runs synchronously.
func Analyze(g section.Graph) GraphStats {
	dg := simple.NewDirectedGraph()

	nodes := make(map[section.Section]int64)
	ensure := func(sec section.Section) int64 {
		id, ok := nodes[sec]
		if !ok {
			id = int64(sec)
			dg.AddNode(simple.Node(id))
			nodes[sec] = id
		}
		return id
	}

	stats := GraphStats{
		FanOut:    make(map[section.Section]int),
		Influence: make(map[section.Section]float64),
	}

	for trigger, spec := range g {
		from := ensure(trigger)
		for _, target := range spec.Recalc {
			if target == trigger {
				continue // self-recalc is not a dependency edge
			}
			to := ensure(target)
			if dg.HasEdgeFromTo(from, to) {
				continue
			}
			dg.SetEdge(simple.Edge{F: simple.Node(from), T: simple.Node(to)})
			stats.FanOut[trigger]++
			stats.EdgeCount++
		}
	}
	stats.NodeCount = len(nodes)
	if stats.NodeCount == 0 {
		return stats
	}

	if sorted, err := topo.Sort(dg); err == nil {
		stats.Order = make([]section.Section, len(sorted))
		for i, n := range sorted {
			stats.Order[i] = section.Section(n.ID())
		}
	} else {
		for _, scc := range topo.TarjanSCC(dg) {
			if len(scc) < 2 {
				continue
			}
			cycle := make([]section.Section, len(scc))
			for i, n := range scc {
				cycle[i] = section.Section(n.ID())
			}
			sort.Slice(cycle, func(i, j int) bool { return cycle[i] < cycle[j] })
			stats.Cycles = append(stats.Cycles, cycle)
		}
	}

	for id, rank := range network.PageRank(dg, 0.85, 1e-6) {
		stats.Influence[section.Section(id)] = rank
	}

	return stats
}

// MostInfluential returns the section with the highest influence score, or
// SectionNone when the graph is empty. Ties break toward the lower section
// value for determinism.
func (s GraphStats) MostInfluential() section.Section {
	best := section.SectionNone
	bestRank := -1.0
	secs := make([]section.Section, 0, len(s.Influence))
	for sec := range s.Influence {
		secs = append(secs, sec)
	}
	sort.Slice(secs, func(i, j int) bool { return secs[i] < secs[j] })
	for _, sec := range secs {
		if r := s.Influence[sec]; r > bestRank {
			best = sec
			bestRank = r
		}
	}
	return best
}

// Summary renders a one-line description for status displays.
func (s GraphStats) Summary() string {
	if len(s.Cycles) > 0 {
		return fmt.Sprintf("%d sections, %d recalc edges, %d cycle(s)",
			s.NodeCount, s.EdgeCount, len(s.Cycles))
	}
	return fmt.Sprintf("%d sections, %d recalc edges, acyclic",
		s.NodeCount, s.EdgeCount)
}
