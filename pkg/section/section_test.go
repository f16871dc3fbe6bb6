package section

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSection_RoundTrip(t *testing.T) {
	for _, s := range Sections() {
		got, ok := ParseSection(s.String())
		if !ok {
			t.Errorf("ParseSection(%q) not found", s.String())
			continue
		}
		if got != s {
			t.Errorf("ParseSection(%q) = %v, want %v", s.String(), got, s)
		}
	}
}

func TestSection_Invalid(t *testing.T) {
	if SectionNone.Valid() {
		t.Error("SectionNone should not be valid")
	}
	if Section(99).Valid() {
		t.Error("Section(99) should not be valid")
	}
	if _, ok := ParseSection("dc load"); ok {
		t.Error("ParseSection should reject unknown names")
	}
}

func TestRefreshTarget_RoundTrip(t *testing.T) {
	targets := []RefreshTarget{
		RefreshMain, RefreshSite, RefreshCabinet, RefreshBoardFeed,
		RefreshDCLoad, RefreshBankCharger, RefreshLoadTables, RefreshDesigner,
	}
	for _, r := range targets {
		got, ok := ParseRefreshTarget(r.String())
		if !ok || got != r {
			t.Errorf("ParseRefreshTarget(%q) = %v, %v", r.String(), got, ok)
		}
	}
}

func TestDefaultGraph_Valid(t *testing.T) {
	g := DefaultGraph()
	if err := g.Validate(); err != nil {
		t.Fatalf("default graph invalid: %v", err)
	}

	// Every non-synthetic section has an entry; the synthetic union spec
	// must cover recalc for both compute domains.
	loaded, ok := g[SectionProjectLoaded]
	if !ok {
		t.Fatal("graph missing project_loaded spec")
	}
	if len(loaded.Recalc) != 2 {
		t.Errorf("project_loaded recalc = %v, want dc_load and bank_charger", loaded.Recalc)
	}
}

func TestGraphFromYAML_Strict(t *testing.T) {
	data := []byte("dc_load:\n  recalc: [dc_load]\n  refresh: [dc_load, load_tables]\n")
	g, err := GraphFromYAML(data, true)
	if err != nil {
		t.Fatalf("GraphFromYAML: %v", err)
	}
	spec := g[SectionDCLoad]
	if len(spec.Recalc) != 1 || spec.Recalc[0] != SectionDCLoad {
		t.Errorf("recalc = %v", spec.Recalc)
	}
	if len(spec.Refresh) != 2 || spec.Refresh[1] != RefreshLoadTables {
		t.Errorf("refresh = %v", spec.Refresh)
	}

	if _, err := GraphFromYAML([]byte("nope:\n  recalc: [dc_load]\n"), true); err == nil {
		t.Error("strict mode should reject unknown section names")
	}
	if _, err := GraphFromYAML([]byte("dc_load:\n  refresh: [nope]\n"), true); err == nil {
		t.Error("strict mode should reject unknown refresh names")
	}
}

func TestGraphFromYAML_LenientDropsUnknown(t *testing.T) {
	data := []byte("dc_load:\n  recalc: [dc_load, bogus]\n  refresh: [bogus]\nbogus:\n  recalc: [dc_load]\n")
	g, err := GraphFromYAML(data, false)
	if err != nil {
		t.Fatalf("GraphFromYAML: %v", err)
	}
	if len(g) != 1 {
		t.Errorf("expected only dc_load in graph, got %d entries", len(g))
	}
	spec := g[SectionDCLoad]
	if len(spec.Recalc) != 1 {
		t.Errorf("recalc = %v, want bogus entry dropped", spec.Recalc)
	}
	if len(spec.Refresh) != 0 {
		t.Errorf("refresh = %v, want empty", spec.Refresh)
	}
}

func TestLoadGraph_MergesOverDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.yaml")
	if err := os.WriteFile(path, []byte("board_feed:\n  refresh: [board_feed]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	g, err := LoadGraph(path, true)
	if err != nil {
		t.Fatalf("LoadGraph: %v", err)
	}
	// Overridden section replaced wholesale.
	if got := g[SectionBoardFeed].Refresh; len(got) != 1 || got[0] != RefreshBoardFeed {
		t.Errorf("board_feed refresh = %v", got)
	}
	// Untouched sections keep the default.
	if got := g[SectionDCLoad].Refresh; len(got) != 3 {
		t.Errorf("dc_load refresh = %v, want default", got)
	}
}

func TestLoadGraph_MissingFileUsesDefault(t *testing.T) {
	g, err := LoadGraph(filepath.Join(t.TempDir(), "absent.yaml"), true)
	if err != nil {
		t.Fatalf("LoadGraph: %v", err)
	}
	if len(g) != len(DefaultGraph()) {
		t.Errorf("graph has %d entries, want default %d", len(g), len(DefaultGraph()))
	}
}
