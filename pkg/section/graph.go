package section

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Spec declares what happens when a section changes. The three lists are
// ordered and the order is semantic: recalc strictly precedes validate, which
// strictly precedes refresh. Reordering is a correctness bug, not style.
type Spec struct {
	Recalc   []Section
	Validate []Section
	Refresh  []RefreshTarget
}

// Graph maps a triggering section to its Spec. It is configuration data, not
// behavior: the orchestrator owns the mapping from sections and targets to
// callables.
type Graph map[Section]Spec

// DefaultGraph returns the built-in dependency graph.
//
// Base metadata changes can ripple into everything (voltages, utilization),
// while board feed edits only touch their own screens. ProjectLoaded is the
// union spec run after a whole-model replacement.
func DefaultGraph() Graph {
	return Graph{
		SectionProject: {
			Recalc:   []Section{SectionDCLoad},
			Validate: []Section{SectionProject},
			Refresh:  []RefreshTarget{RefreshMain, RefreshDCLoad, RefreshBankCharger, RefreshLoadTables, RefreshDesigner},
		},
		SectionSite: {
			Validate: []Section{SectionSite},
			Refresh:  []RefreshTarget{RefreshSite, RefreshCabinet, RefreshBoardFeed, RefreshDCLoad, RefreshDesigner},
		},
		SectionCabinet: {
			Recalc:   []Section{SectionDCLoad},
			Validate: []Section{SectionCabinet},
			Refresh:  []RefreshTarget{RefreshCabinet, RefreshBoardFeed, RefreshDCLoad, RefreshDesigner},
		},
		SectionBoardFeed: {
			Validate: []Section{SectionBoardFeed},
			Refresh:  []RefreshTarget{RefreshBoardFeed, RefreshDesigner},
		},
		SectionDCLoad: {
			Recalc:   []Section{SectionDCLoad},
			Validate: []Section{SectionDCLoad},
			Refresh:  []RefreshTarget{RefreshDCLoad, RefreshLoadTables, RefreshDesigner},
		},
		SectionBankCharger: {
			Recalc:   []Section{SectionBankCharger},
			Validate: []Section{SectionBankCharger},
			Refresh:  []RefreshTarget{RefreshBankCharger, RefreshLoadTables},
		},
		SectionProjectLoaded: {
			Recalc:   []Section{SectionDCLoad, SectionBankCharger},
			Validate: []Section{SectionProject, SectionSite, SectionCabinet, SectionDCLoad, SectionBankCharger},
			Refresh:  []RefreshTarget{RefreshMain, RefreshSite, RefreshCabinet, RefreshBoardFeed, RefreshDCLoad, RefreshDesigner, RefreshLoadTables},
		},
	}
}

// Validate checks that every key and every referenced section/target is a
// member of its enumeration.
func (g Graph) Validate() error {
	for sec, spec := range g {
		if !sec.Valid() {
			return fmt.Errorf("graph key %v is not a valid section", sec)
		}
		for _, s := range spec.Recalc {
			if !s.Valid() {
				return fmt.Errorf("graph[%s].recalc references invalid section %v", sec, s)
			}
		}
		for _, s := range spec.Validate {
			if !s.Valid() {
				return fmt.Errorf("graph[%s].validate references invalid section %v", sec, s)
			}
		}
		for _, r := range spec.Refresh {
			if !r.Valid() {
				return fmt.Errorf("graph[%s].refresh references invalid target %v", sec, r)
			}
		}
	}
	return nil
}

// specYAML is the on-disk shape of a Spec.
type specYAML struct {
	Recalc   []string `yaml:"recalc,omitempty"`
	Validate []string `yaml:"validate,omitempty"`
	Refresh  []string `yaml:"refresh,omitempty"`
}

// GraphFromYAML parses a graph override from YAML. In strict mode an unknown
// section or refresh name is an error; otherwise unknown names are dropped so
// a stale config file cannot crash the application.
func GraphFromYAML(data []byte, strict bool) (Graph, error) {
	var raw map[string]specYAML
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse graph: %w", err)
	}

	g := make(Graph, len(raw))
	for name, sy := range raw {
		sec, ok := ParseSection(name)
		if !ok {
			if strict {
				return nil, fmt.Errorf("unknown section %q", name)
			}
			continue
		}

		spec := Spec{}
		for _, n := range sy.Recalc {
			s, ok := ParseSection(n)
			if !ok {
				if strict {
					return nil, fmt.Errorf("graph[%s].recalc: unknown section %q", name, n)
				}
				continue
			}
			spec.Recalc = append(spec.Recalc, s)
		}
		for _, n := range sy.Validate {
			s, ok := ParseSection(n)
			if !ok {
				if strict {
					return nil, fmt.Errorf("graph[%s].validate: unknown section %q", name, n)
				}
				continue
			}
			spec.Validate = append(spec.Validate, s)
		}
		for _, n := range sy.Refresh {
			r, ok := ParseRefreshTarget(n)
			if !ok {
				if strict {
					return nil, fmt.Errorf("graph[%s].refresh: unknown target %q", name, n)
				}
				continue
			}
			spec.Refresh = append(spec.Refresh, r)
		}
		g[sec] = spec
	}
	return g, nil
}

// LoadGraph reads a YAML graph override from path and merges it over the
// default graph. Sections present in the file replace their default spec
// wholesale; sections absent from the file keep the default.
func LoadGraph(path string, strict bool) (Graph, error) {
	g := DefaultGraph()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return g, nil
		}
		return nil, err
	}

	override, err := GraphFromYAML(data, strict)
	if err != nil {
		return nil, err
	}
	for sec, spec := range override {
		g[sec] = spec
	}
	return g, nil
}
