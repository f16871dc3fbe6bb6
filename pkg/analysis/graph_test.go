package analysis

import (
	"strings"
	"testing"

	"github.com/ampdesk/ampdesk/pkg/section"
)

func TestAnalyze_DefaultGraphIsAcyclic(t *testing.T) {
	stats := Analyze(section.DefaultGraph())

	if len(stats.Cycles) != 0 {
		t.Fatalf("default graph has cycles: %v", stats.Cycles)
	}
	if len(stats.Order) != stats.NodeCount {
		t.Errorf("topo order covers %d of %d nodes", len(stats.Order), stats.NodeCount)
	}
	if !strings.Contains(stats.Summary(), "acyclic") {
		t.Errorf("summary = %q", stats.Summary())
	}
}

func TestAnalyze_TopoOrderRespectsEdges(t *testing.T) {
	g := section.Graph{
		section.SectionSite: {
			Recalc: []section.Section{section.SectionDCLoad},
		},
		section.SectionDCLoad: {
			Recalc: []section.Section{section.SectionBankCharger},
		},
	}
	stats := Analyze(g)

	pos := make(map[section.Section]int)
	for i, sec := range stats.Order {
		pos[sec] = i
	}
	if pos[section.SectionSite] > pos[section.SectionDCLoad] {
		t.Errorf("site must precede dc_load in %v", stats.Order)
	}
	if pos[section.SectionDCLoad] > pos[section.SectionBankCharger] {
		t.Errorf("dc_load must precede bank_charger in %v", stats.Order)
	}
	if stats.FanOut[section.SectionSite] != 1 {
		t.Errorf("fan-out for site = %d, want 1", stats.FanOut[section.SectionSite])
	}
}

func TestAnalyze_DetectsCycle(t *testing.T) {
	g := section.Graph{
		section.SectionSite: {
			Recalc: []section.Section{section.SectionCabinet},
		},
		section.SectionCabinet: {
			Recalc: []section.Section{section.SectionSite},
		},
	}
	stats := Analyze(g)

	if len(stats.Order) != 0 {
		t.Error("cyclic graph must not report a topo order")
	}
	if len(stats.Cycles) != 1 {
		t.Fatalf("cycles = %v, want one", stats.Cycles)
	}
	cycle := stats.Cycles[0]
	if len(cycle) != 2 || cycle[0] != section.SectionSite || cycle[1] != section.SectionCabinet {
		t.Errorf("cycle = %v", cycle)
	}
}

func TestAnalyze_SelfRecalcIsNotAnEdge(t *testing.T) {
	g := section.Graph{
		section.SectionDCLoad: {
			Recalc: []section.Section{section.SectionDCLoad},
		},
	}
	stats := Analyze(g)
	if stats.EdgeCount != 0 {
		t.Errorf("self-recalc produced %d edges", stats.EdgeCount)
	}
	if len(stats.Cycles) != 0 {
		t.Errorf("self-recalc reported as cycle: %v", stats.Cycles)
	}
}

func TestMostInfluential(t *testing.T) {
	g := section.Graph{
		section.SectionSite: {
			Recalc: []section.Section{section.SectionDCLoad},
		},
		section.SectionCabinet: {
			Recalc: []section.Section{section.SectionDCLoad},
		},
		section.SectionBoardFeed: {
			Recalc: []section.Section{section.SectionDCLoad},
		},
	}
	stats := Analyze(g)
	if got := stats.MostInfluential(); got != section.SectionDCLoad {
		t.Errorf("MostInfluential = %v, want dc_load", got)
	}
}

func TestAnalyze_EmptyGraph(t *testing.T) {
	stats := Analyze(section.Graph{})
	if stats.NodeCount != 0 || stats.EdgeCount != 0 {
		t.Errorf("stats = %+v, want empty", stats)
	}
	if stats.MostInfluential() != section.SectionNone {
		t.Error("empty graph must have no influential section")
	}
}
