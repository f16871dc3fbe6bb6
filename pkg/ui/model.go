// Package ui is the terminal front end: one tab per section, a live status
// line for the background compute, and a run history pane.
package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ampdesk/ampdesk/pkg/analysis"
	"github.com/ampdesk/ampdesk/pkg/bus"
	"github.com/ampdesk/ampdesk/pkg/orchestrator"
	"github.com/ampdesk/ampdesk/pkg/project"
	"github.com/ampdesk/ampdesk/pkg/scheduler"
	"github.com/ampdesk/ampdesk/pkg/section"
	"github.com/ampdesk/ampdesk/pkg/tracker"
	"github.com/ampdesk/ampdesk/pkg/validation"
)

// Config wires the model to the reactive core.
type Config struct {
	Project     *project.Project
	ProjectPath string
	Bus         *bus.Bus
	Tracker     *tracker.DirtyTracker
	Scheduler   *scheduler.Scheduler
	Orch        *orchestrator.Orchestrator
	Validation  *validation.Service
	Graph       section.Graph
	// LastResults returns the most recently committed compute results, or
	// nil before the first commit.
	LastResults func() *project.Results
}

// Messages delivered from the bus goroutines into the tea loop.
type (
	computeStartedMsg struct{ ev bus.ComputeStarted }
	computedMsg       struct{ ev bus.Computed }
	flashClearMsg     struct{}
)

// tabs shown in order. ProjectLoaded is synthetic and has no screen.
var tabSections = []section.Section{
	section.SectionProject,
	section.SectionSite,
	section.SectionCabinet,
	section.SectionBoardFeed,
	section.SectionDCLoad,
	section.SectionBankCharger,
}

// Model is the bubbletea model for the main screen.
type Model struct {
	cfg Config

	active    int
	width     int
	height    int
	computing bool
	lastRunAt time.Time
	flash     string

	editing bool
	input   textinput.Model

	history   []string
	historyVP viewport.Model

	graphStats analysis.GraphStats

	events chan tea.Msg
}

// NewModel builds the model and bridges bus events into the tea loop.
func NewModel(cfg Config) *Model {
	in := textinput.New()
	in.Placeholder = "power in watts"
	in.CharLimit = 12
	in.Width = 16

	m := &Model{
		cfg:        cfg,
		input:      in,
		historyVP:  viewport.New(60, 8),
		graphStats: analysis.Analyze(cfg.Graph),
		events:     make(chan tea.Msg, 32),
	}

	if cfg.Bus != nil {
		bus.Subscribe(cfg.Bus, func(ev bus.ComputeStarted) {
			m.post(computeStartedMsg{ev})
		})
		bus.Subscribe(cfg.Bus, func(ev bus.Computed) {
			m.post(computedMsg{ev})
		})
	}
	return m
}

// post hands a bus event to the tea loop. The send never blocks: after the
// program exits nothing drains the channel, and a publisher (the scheduler
// actor) must not park on a dead UI. Overflow drops the event; the status
// line resyncs from Stats on the next one.
func (m *Model) post(msg tea.Msg) {
	select {
	case m.events <- msg:
	default:
	}
}

func (m *Model) waitEvent() tea.Msg {
	return <-m.events
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.waitEvent
}

// ActiveSection returns the section of the selected tab.
func (m *Model) ActiveSection() section.Section {
	return tabSections[m.active]
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.historyVP.Width = msg.Width - 4
		m.historyVP.Height = max(3, msg.Height-14)
		return m, nil

	case computeStartedMsg:
		m.computing = true
		m.appendHistory(fmt.Sprintf("run %d started (%s)", msg.ev.RunID, msg.ev.Reason))
		return m, m.waitEvent

	case computedMsg:
		m.computing = false
		m.lastRunAt = msg.ev.At
		line := fmt.Sprintf("run %d committed", msg.ev.RunID)
		if res := m.lastResults(); res != nil {
			line += ": " + res.Summary()
		}
		m.appendHistory(line)
		return m, m.waitEvent

	case flashClearMsg:
		m.flash = ""
		return m, nil

	case tea.KeyMsg:
		if m.editing {
			return m.updateEditing(msg)
		}
		return m.updateBrowsing(msg)
	}

	var cmd tea.Cmd
	m.historyVP, cmd = m.historyVP.Update(msg)
	return m, cmd
}

func (m *Model) updateBrowsing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "tab", "right", "l":
		m.setActive((m.active + 1) % len(tabSections))
		return m, nil

	case "shift+tab", "left", "h":
		m.setActive((m.active + len(tabSections) - 1) % len(tabSections))
		return m, nil

	case "e":
		if load := m.firstLoad(); load != nil {
			m.editing = true
			m.input.SetValue(strconv.FormatFloat(load.PowerW, 'f', -1, 64))
			m.input.Focus()
			return m, textinput.Blink
		}
		return m, nil

	case "r":
		if m.cfg.Scheduler != nil {
			m.cfg.Scheduler.ForceCompute(m.ActiveSection(), "manual recompute")
		}
		return m, nil

	case "y":
		return m, m.yankSummary()

	case "up", "k", "down", "j", "pgup", "pgdown":
		var cmd tea.Cmd
		m.historyVP, cmd = m.historyVP.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.editing = false
		m.input.Blur()
		return m, nil

	case "enter":
		m.editing = false
		m.input.Blur()
		m.applyPowerEdit(m.input.Value())
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// setActive switches tabs and runs the view-only refresh pass.
func (m *Model) setActive(i int) {
	m.active = i
	if m.cfg.Orch != nil {
		m.cfg.Orch.OnSectionViewed(m.ActiveSection())
	}
}

// firstLoad returns the load the edit key targets, nil when the project has
// none.
func (m *Model) firstLoad() *project.Load {
	p := m.cfg.Project
	if p == nil {
		return nil
	}
	for ci := range p.Cabinets {
		if len(p.Cabinets[ci].Loads) > 0 {
			return &p.Cabinets[ci].Loads[0]
		}
	}
	return nil
}

// applyPowerEdit writes the edited value into the model and feeds the change
// through the reactive path: tracker mark, input event, scheduler mark.
func (m *Model) applyPowerEdit(raw string) {
	watts, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || watts < 0 {
		m.flash = "invalid power value"
		return
	}
	load := m.firstLoad()
	if load == nil {
		return
	}
	load.PowerW = watts

	sec := m.ActiveSection()
	if m.cfg.Tracker != nil {
		m.cfg.Tracker.MarkDirty("edit", load.Name)
	}
	if m.cfg.Bus != nil {
		m.cfg.Bus.Publish(bus.InputChanged{Section: sec, Fields: []string{load.Name}})
	}
	if m.cfg.Orch != nil {
		m.cfg.Orch.OnSectionChanged(sec)
	}
	if m.cfg.Scheduler != nil {
		m.cfg.Scheduler.MarkDirty(section.SectionDCLoad)
	}
}

func (m *Model) yankSummary() tea.Cmd {
	res := m.lastResults()
	if res == nil {
		m.flash = "nothing computed yet"
		return clearFlashLater()
	}
	if err := clipboard.WriteAll(res.Summary()); err != nil {
		m.flash = "clipboard unavailable"
	} else {
		m.flash = "copied result to clipboard"
	}
	return clearFlashLater()
}

func clearFlashLater() tea.Cmd {
	return tea.Tick(2*time.Second, func(time.Time) tea.Msg {
		return flashClearMsg{}
	})
}

func (m *Model) lastResults() *project.Results {
	if m.cfg.LastResults == nil {
		return nil
	}
	return m.cfg.LastResults()
}

func (m *Model) appendHistory(line string) {
	stamp := time.Now().Format("15:04:05")
	m.history = append(m.history, stamp+"  "+line)
	if len(m.history) > 200 {
		m.history = m.history[len(m.history)-200:]
	}
	m.historyVP.SetContent(strings.Join(m.history, "\n"))
	m.historyVP.GotoBottom()
}

// View implements tea.Model.
func (m *Model) View() string {
	width := m.width
	if width <= 0 {
		width = 80
	}

	var b strings.Builder

	name := "unsaved project"
	if m.cfg.Project != nil && m.cfg.Project.Name != "" {
		name = m.cfg.Project.Name
	}
	title := "ampdesk · " + name
	if m.cfg.Tracker != nil && m.cfg.Tracker.IsDirty() {
		title += dirtyStyle.Render(" ●")
	}
	b.WriteString(titleStyle.Render(truncate(title, width)) + "\n")

	b.WriteString(m.renderTabs(width) + "\n\n")
	b.WriteString(m.renderBody(width) + "\n")
	b.WriteString(m.renderStatus(width) + "\n")
	b.WriteString(helpStyle.Render(truncate(
		"tab: switch · e: edit · r: recompute · y: copy result · q: quit", width)))
	return b.String()
}

func (m *Model) renderTabs(width int) string {
	parts := make([]string, len(tabSections))
	for i, sec := range tabSections {
		label := sec.String()
		if i == m.active {
			parts[i] = tabActiveStyle.Render(label)
		} else {
			parts[i] = tabStyle.Render(label)
		}
	}
	return truncate(lipgloss.JoinHorizontal(lipgloss.Top, parts...), width)
}

func (m *Model) renderBody(width int) string {
	switch m.ActiveSection() {
	case section.SectionProject:
		return m.renderProject(width)
	case section.SectionSite:
		return m.renderSite(width)
	case section.SectionCabinet, section.SectionBoardFeed:
		return m.renderLoads(width)
	case section.SectionDCLoad, section.SectionBankCharger:
		return m.renderResults(width)
	}
	return ""
}

func (m *Model) renderProject(width int) string {
	var b strings.Builder
	b.WriteString("Path: " + truncate(m.cfg.ProjectPath, width-8) + "\n")
	b.WriteString("Graph: " + m.graphStats.Summary() + "\n")
	if hub := m.graphStats.MostInfluential(); hub != section.SectionNone {
		b.WriteString("Most recomputed section: " + hub.String() + "\n")
	}
	b.WriteString("\nRecent runs:\n" + m.historyVP.View())
	return b.String()
}

func (m *Model) renderSite(width int) string {
	p := m.cfg.Project
	if p == nil {
		return statusStyle.Render("no project loaded")
	}
	return fmt.Sprintf("Site: %s\nNominal: %.0f V   Minimum: %.0f V\nScenarios: %d   Autonomy: %.1f h",
		p.Site.Name, p.Site.VNominal, p.Site.VMin, p.ScenarioCount(), p.Site.AutonomyHours)
}

func (m *Model) renderLoads(width int) string {
	p := m.cfg.Project
	if p == nil {
		return statusStyle.Render("no project loaded")
	}
	var b strings.Builder
	for _, cab := range p.Cabinets {
		b.WriteString(titleStyle.Render(cab.Name) + "\n")
		for _, load := range cab.Loads {
			line := fmt.Sprintf("  %-24s %8.0f W  %s", load.Name, load.PowerW, load.Kind)
			b.WriteString(truncate(line, width) + "\n")
		}
	}
	if m.editing {
		b.WriteString("\nEdit first load power: " + m.input.View())
	}
	return b.String()
}

func (m *Model) renderResults(width int) string {
	res := m.lastResults()
	if res == nil {
		return statusStyle.Render("no results yet, edit a load or press r")
	}
	var b strings.Builder
	b.WriteString(resultStyle.Render(res.Summary()) + "\n\n")
	b.WriteString(fmt.Sprintf("Permanent: %8.0f W  %6.1f A\n", res.Totals.Permanent.PowerW, res.Totals.Permanent.Amps))
	b.WriteString(fmt.Sprintf("Momentary: %8.0f W  %6.1f A\n", res.Totals.Momentary.PowerW, res.Totals.Momentary.Amps))
	b.WriteString(fmt.Sprintf("Selected:  %8.0f W  %6.1f A\n", res.Totals.Selected.PowerW, res.Totals.Selected.Amps))
	b.WriteString(m.renderIssues(width))
	return b.String()
}

func (m *Model) renderIssues(width int) string {
	if m.cfg.Validation == nil {
		return ""
	}
	all := m.cfg.Validation.AllIssues()
	if len(all) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\nFindings:\n")
	for _, sec := range section.Sections() {
		for _, is := range all[sec] {
			line := fmt.Sprintf("  [%s] %s: %s", sec, is.Code, is.Message)
			switch is.Severity {
			case section.SeverityError:
				line = issueErrorStyle.Render(line)
			case section.SeverityWarning:
				line = issueWarnStyle.Render(line)
			}
			b.WriteString(truncate(line, width) + "\n")
		}
	}
	return b.String()
}

func (m *Model) renderStatus(width int) string {
	var parts []string
	if m.computing {
		parts = append(parts, computingStyle.Render("computing…"))
	} else {
		parts = append(parts, statusStyle.Render("idle"))
	}
	parts = append(parts, statusStyle.Render("last run "+formatTimeRel(m.lastRunAt)))
	if m.cfg.Scheduler != nil {
		st := m.cfg.Scheduler.Stats()
		parts = append(parts, statusStyle.Render(
			fmt.Sprintf("runs %d/%d committed, %d stale", st.Committed, st.Dispatched, st.Discarded)))
	}
	if m.flash != "" {
		parts = append(parts, computingStyle.Render(m.flash))
	}
	return truncate(strings.Join(parts, "  ·  "), width)
}
