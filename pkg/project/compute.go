package project

import (
	"fmt"
	"strconv"
)

// GroupTotals is an aggregated power/current pair.
type GroupTotals struct {
	PowerW float64 `json:"p_total"`
	Amps   float64 `json:"i_total"`
}

// Totals is the full consumption breakdown of one compute run.
type Totals struct {
	// Overall totals: permanent plus every momentary scenario.
	PowerW float64 `json:"p_total"`
	Amps   float64 `json:"i_total"`

	Permanent GroupTotals `json:"permanent"`
	Momentary GroupTotals `json:"momentary"`
	// Selected is the single worst random load, the conventional reserve.
	Selected GroupTotals `json:"selected"`
}

// Results is what a compute run hands back to the UI.
type Results struct {
	VMin       float64                `json:"vmin"`
	Totals     Totals                 `json:"totals"`
	ByScenario map[string]GroupTotals `json:"by_scenario"`
	// BankAh is the required battery capacity at the configured autonomy.
	BankAh float64 `json:"bank_ah"`
	// ChargerAmps is the required charger rating: carry the permanent load
	// while recharging the bank within a conventional 10 hours.
	ChargerAmps float64 `json:"charger_amps"`
}

// Summary renders a short human-readable result line.
func (r Results) Summary() string {
	return fmt.Sprintf("%.0f W / %.1f A at %.0f V, bank %.0f Ah, charger %.1f A",
		r.Totals.PowerW, r.Totals.Amps, r.VMin, r.BankAh, r.ChargerAmps)
}

// Compute sizes the plant from a snapshot. Pure: no UI, no shared state, so
// it can run on a worker goroutine against a cloned project.
func Compute(p *Project) Results {
	vmin := p.VMinForCurrents()
	nScenarios := p.ScenarioCount()

	var perm GroupTotals
	scenario := make(map[int]*GroupTotals, nScenarios)
	for k := 1; k <= nScenarios; k++ {
		scenario[k] = &GroupTotals{}
	}
	var worstRandom GroupTotals

	for _, cab := range p.Cabinets {
		for _, load := range cab.Loads {
			amps := load.PowerW / vmin
			switch load.Kind {
			case LoadPermanent:
				perm.PowerW += load.PowerW
				perm.Amps += amps
			case LoadMomentary:
				k := load.Scenario
				if k < 1 || k > nScenarios {
					k = 1
				}
				scenario[k].PowerW += load.PowerW
				scenario[k].Amps += amps
			case LoadRandom:
				if load.PowerW > worstRandom.PowerW {
					worstRandom = GroupTotals{PowerW: load.PowerW, Amps: amps}
				}
			}
		}
	}

	var mom GroupTotals
	byScenario := make(map[string]GroupTotals, nScenarios)
	for k := 1; k <= nScenarios; k++ {
		g := *scenario[k]
		byScenario[strconv.Itoa(k)] = g
		mom.PowerW += g.PowerW
		mom.Amps += g.Amps
	}

	res := Results{
		VMin: vmin,
		Totals: Totals{
			PowerW:    perm.PowerW + mom.PowerW,
			Amps:      perm.Amps + mom.Amps,
			Permanent: perm,
			Momentary: mom,
			Selected:  worstRandom,
		},
		ByScenario: byScenario,
	}

	if p.Site.AutonomyHours > 0 {
		res.BankAh = perm.Amps * p.Site.AutonomyHours
	}
	// Recharge a discharged bank in 10 h while carrying the permanent load.
	res.ChargerAmps = perm.Amps + res.BankAh/10

	return res
}
