// Package section defines the logical data domains of an ampdesk project and
// the declarative dependency graph that routes changes between them.
//
// A Section is a closed enumeration, never a free-form string: the graph and
// the scheduler's dirty keys are indexed by it, and typo-driven regressions
// are exactly the class of bug the enumeration exists to prevent.
package section

import "fmt"

// Section identifies a logical data domain that can become dirty and trigger
// downstream work.
type Section int

const (
	// SectionNone is the zero value and is never a valid graph key.
	SectionNone Section = iota
	// SectionProject is base project metadata (voltages, temperatures, names).
	SectionProject
	// SectionSite is the site/installation layout.
	SectionSite
	// SectionCabinet is cabinet configuration.
	SectionCabinet
	// SectionBoardFeed is the board feed wiring.
	SectionBoardFeed
	// SectionDCLoad is the DC load table (the expensive compute domain).
	SectionDCLoad
	// SectionBankCharger is battery bank / charger sizing.
	SectionBankCharger
	// SectionProjectLoaded is the synthetic "whole model replaced" section.
	SectionProjectLoaded
)

var sectionNames = map[Section]string{
	SectionProject:       "project",
	SectionSite:          "site",
	SectionCabinet:       "cabinet",
	SectionBoardFeed:     "board_feed",
	SectionDCLoad:        "dc_load",
	SectionBankCharger:   "bank_charger",
	SectionProjectLoaded: "project_loaded",
}

func (s Section) String() string {
	if name, ok := sectionNames[s]; ok {
		return name
	}
	return fmt.Sprintf("section(%d)", int(s))
}

// Valid reports whether s is a member of the enumeration.
func (s Section) Valid() bool {
	_, ok := sectionNames[s]
	return ok
}

// ParseSection coerces a string name back into a Section.
// Used by lenient normalization and by YAML graph overrides.
func ParseSection(name string) (Section, bool) {
	for s, n := range sectionNames {
		if n == name {
			return s, true
		}
	}
	return SectionNone, false
}

// Sections returns every valid section in a stable order.
func Sections() []Section {
	return []Section{
		SectionProject,
		SectionSite,
		SectionCabinet,
		SectionBoardFeed,
		SectionDCLoad,
		SectionBankCharger,
		SectionProjectLoaded,
	}
}

// RefreshTarget identifies a UI (or external) consumer that must be told to
// re-render from current model state. Disjoint from Section; several sections
// may request the same target.
type RefreshTarget int

const (
	RefreshNone RefreshTarget = iota
	RefreshMain
	RefreshSite
	RefreshCabinet
	RefreshBoardFeed
	RefreshDCLoad
	RefreshBankCharger
	RefreshLoadTables
	RefreshDesigner
)

var refreshNames = map[RefreshTarget]string{
	RefreshMain:        "main",
	RefreshSite:        "site",
	RefreshCabinet:     "cabinet",
	RefreshBoardFeed:   "board_feed",
	RefreshDCLoad:      "dc_load",
	RefreshBankCharger: "bank_charger",
	RefreshLoadTables:  "load_tables",
	RefreshDesigner:    "designer",
}

func (r RefreshTarget) String() string {
	if name, ok := refreshNames[r]; ok {
		return name
	}
	return fmt.Sprintf("refresh(%d)", int(r))
}

// Valid reports whether r is a member of the enumeration.
func (r RefreshTarget) Valid() bool {
	_, ok := refreshNames[r]
	return ok
}

// ParseRefreshTarget coerces a string name back into a RefreshTarget.
func ParseRefreshTarget(name string) (RefreshTarget, bool) {
	for r, n := range refreshNames {
		if n == name {
			return r, true
		}
	}
	return RefreshNone, false
}
