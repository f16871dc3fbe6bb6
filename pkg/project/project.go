// Package project holds the DC-plant sizing model: a site, its cabinets, and
// the loads they feed. Files are plain JSON so they diff cleanly and other
// tools can generate them.
package project

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
)

// LoadKind classifies how a consumer draws from the DC bus.
type LoadKind string

const (
	// LoadPermanent draws continuously for the whole autonomy period.
	LoadPermanent LoadKind = "permanent"
	// LoadMomentary draws briefly during one fault scenario.
	LoadMomentary LoadKind = "momentary"
	// LoadRandom may draw at any time; sizing reserves the worst single one.
	LoadRandom LoadKind = "random"
)

// Valid reports whether k is a known load kind.
func (k LoadKind) Valid() bool {
	switch k {
	case LoadPermanent, LoadMomentary, LoadRandom:
		return true
	}
	return false
}

// Load is one DC consumer.
type Load struct {
	Name   string   `json:"name"`
	PowerW float64  `json:"power_w"`
	Kind   LoadKind `json:"kind"`
	// Scenario groups momentary loads that fire together. Ignored for other
	// kinds. Scenario numbering starts at 1.
	Scenario int `json:"scenario,omitempty"`
}

// Cabinet is one equipment cabinet with its loads.
type Cabinet struct {
	Name  string `json:"name"`
	Loads []Load `json:"loads,omitempty"`
}

// Site describes the electrical environment the bank must serve.
type Site struct {
	Name string `json:"name"`
	// VNominal is the nominal bus voltage.
	VNominal float64 `json:"v_nominal"`
	// VMin is the minimum voltage at which consumers still operate. Currents
	// are computed at VMin, the worst case.
	VMin float64 `json:"v_min"`
	// Scenarios is how many momentary fault scenarios the site defines.
	Scenarios int `json:"scenarios,omitempty"`
	// AutonomyHours is the required battery autonomy.
	AutonomyHours float64 `json:"autonomy_hours,omitempty"`
}

// Project is the root of a sizing model.
type Project struct {
	Name     string    `json:"name"`
	Site     Site      `json:"site"`
	Cabinets []Cabinet `json:"cabinets,omitempty"`
}

// VMinForCurrents returns the voltage used to convert power to current,
// falling back to nominal and then a conventional 110 V bus.
func (p *Project) VMinForCurrents() float64 {
	if p.Site.VMin > 0 {
		return p.Site.VMin
	}
	if p.Site.VNominal > 0 {
		return p.Site.VNominal
	}
	return 110
}

// ScenarioCount returns the number of momentary scenarios, at least 1.
func (p *Project) ScenarioCount() int {
	if p.Site.Scenarios < 1 {
		return 1
	}
	return p.Site.Scenarios
}

// Clone returns a deep copy. Compute snapshots use this so workers never
// share memory with the live model.
func (p *Project) Clone() *Project {
	out := *p
	out.Cabinets = make([]Cabinet, len(p.Cabinets))
	for i, cab := range p.Cabinets {
		out.Cabinets[i] = cab
		out.Cabinets[i].Loads = append([]Load(nil), cab.Loads...)
	}
	return &out
}

// LoadFile reads a project from a JSON file.
func LoadFile(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading project: %w", err)
	}
	var p Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing project %s: %w", filepath.Base(path), err)
	}
	return &p, nil
}

// SaveFile writes the project as indented JSON.
func (p *Project) SaveFile(path string) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling project: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing project: %w", err)
	}
	return nil
}
