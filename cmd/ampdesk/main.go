// Command ampdesk is a terminal front end for DC plant sizing projects. Edits
// mark sections dirty, a debounced background scheduler recomputes totals,
// and the section graph decides what to revalidate and refresh.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/pprof"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/ampdesk/ampdesk/internal/runlog"
	"github.com/ampdesk/ampdesk/pkg/bus"
	"github.com/ampdesk/ampdesk/pkg/config"
	"github.com/ampdesk/ampdesk/pkg/debug"
	"github.com/ampdesk/ampdesk/pkg/metrics"
	"github.com/ampdesk/ampdesk/pkg/orchestrator"
	"github.com/ampdesk/ampdesk/pkg/project"
	"github.com/ampdesk/ampdesk/pkg/scheduler"
	"github.com/ampdesk/ampdesk/pkg/section"
	"github.com/ampdesk/ampdesk/pkg/tracker"
	"github.com/ampdesk/ampdesk/pkg/ui"
	"github.com/ampdesk/ampdesk/pkg/validation"
	"github.com/ampdesk/ampdesk/pkg/version"
	"github.com/ampdesk/ampdesk/pkg/watcher"
)

func main() {
	cpuProfile := flag.String("cpu-profile", "", "Write CPU profile to file")
	help := flag.Bool("help", false, "Show help")
	versionFlag := flag.Bool("version", false, "Show version")
	strictFlag := flag.Bool("strict", false, "Fail fast on invalid section values")
	noWatch := flag.Bool("no-watch", false, "Disable reloading on external project edits")
	flag.Parse()

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not create CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Could not start CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	if *help {
		fmt.Println("Usage: ampdesk [options] <project.json>")
		fmt.Println("\nA reactive sizing workbench for DC battery and charger plants.")
		flag.PrintDefaults()
		os.Exit(0)
	}
	if *versionFlag {
		fmt.Printf("ampdesk %s\n", version.Version)
		os.Exit(0)
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "ampdesk needs an interactive terminal")
		os.Exit(1)
	}

	appCfg, cfgErr := config.Load()
	if cfgErr != nil {
		// Non-fatal: continue with defaults.
		appCfg = config.DefaultConfig()
	}

	projectPath := flag.Arg(0)
	if projectPath == "" && len(appCfg.Recent) > 0 {
		projectPath = appCfg.Recent[0].ResolvedPath()
	}
	if projectPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: ampdesk <project.json>")
		os.Exit(2)
	}

	proj, err := project.LoadFile(projectPath)
	if err != nil {
		if os.IsNotExist(err) {
			proj = &project.Project{Name: filepath.Base(projectPath)}
		} else {
			fmt.Fprintf(os.Stderr, "Error loading project: %v\n", err)
			os.Exit(1)
		}
	}

	appCfg.RememberProject(proj.Name, projectPath)
	_ = config.Save(appCfg)

	graph := section.DefaultGraph()
	if appCfg.GraphPath != "" {
		g, err := section.LoadGraph(appCfg.GraphPath, *strictFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading section graph: %v\n", err)
			os.Exit(1)
		}
		graph = g
	}

	b := bus.New()
	tr := tracker.New(false)
	strict := appCfg.StrictValidation(*strictFlag || debug.Enabled())

	if ms := appCfg.Compute.SlowWarnMs; ms > 0 {
		metrics.SetSlowThreshold(time.Duration(ms) * time.Millisecond)
	}

	vsvc := validation.NewService()
	registerValidators(vsvc, proj)

	orch, err := orchestrator.New(orchestrator.Config{
		Graph:     graph,
		Validator: vsvc,
		Tracker:   tr,
		Bus:       b,
		Strict:    strict,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building orchestrator: %v\n", err)
		os.Exit(1)
	}

	var lastResults atomic.Pointer[project.Results]
	sched, err := scheduler.New(scheduler.Config{
		Domain:     section.SectionDCLoad,
		Window:     appCfg.DebounceWindow(),
		Bus:        b,
		Tracker:    tr,
		Dispatcher: scheduler.NewPoolDispatcher(appCfg.Compute.WorkerLimit),
		Snapshot: func([]section.Section) any {
			return proj.Clone()
		},
		Workload: func(run scheduler.Run) (any, error) {
			snap, ok := run.Snapshot.(*project.Project)
			if !ok {
				return nil, fmt.Errorf("unexpected snapshot type %T", run.Snapshot)
			}
			res := project.Compute(snap)
			return &res, nil
		},
		Commit: func(run scheduler.Run, result any) {
			if res, ok := result.(*project.Results); ok {
				lastResults.Store(res)
			}
		},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building scheduler: %v\n", err)
		os.Exit(1)
	}
	sched.Start()
	defer sched.Stop()

	if journal, err := runlog.Open(filepath.Join(config.StateDir(), "runs.db")); err == nil {
		journal.Attach(b)
		defer journal.Close()
	} else {
		debug.Log("run journal unavailable: %v", err)
	}

	// External edits reload the model and replay the project-loaded pass.
	if appCfg.Compute.WatchProject && !*noWatch {
		opts := []watcher.Option{
			watcher.WithOnChange(func() {
				loaded, err := project.LoadFile(projectPath)
				if err != nil {
					debug.Log("reload failed: %v", err)
					return
				}
				tr.SuspendTracking(func() { *proj = *loaded })
			}),
			watcher.WithBus(b),
		}
		if ms := appCfg.Compute.PollWatchMs; ms > 0 {
			opts = append(opts, watcher.WithPollInterval(time.Duration(ms)*time.Millisecond))
		}
		w, err := watcher.New(projectPath, opts...)
		if err == nil && w.Start() == nil {
			defer w.Stop()
		}
	}

	m := ui.NewModel(ui.Config{
		Project:     proj,
		ProjectPath: projectPath,
		Bus:         b,
		Tracker:     tr,
		Scheduler:   sched,
		Orch:        orch,
		Validation:  vsvc,
		Graph:       graph,
		LastResults: lastResults.Load,
	})

	if err := runTUIProgram(m); err != nil {
		fmt.Fprintf(os.Stderr, "Error running ampdesk: %v\n", err)
		os.Exit(1)
	}
}

// registerValidators wires the built-in per-section checks.
func registerValidators(vsvc *validation.Service, proj *project.Project) {
	vsvc.Register(section.SectionSite, "voltage_window", func() []section.Issue {
		var issues []section.Issue
		if proj.Site.VMin > 0 && proj.Site.VNominal > 0 && proj.Site.VMin > proj.Site.VNominal {
			issues = append(issues, section.Issue{
				Code:     "VMIN_ABOVE_NOMINAL",
				Message:  "minimum voltage exceeds nominal voltage",
				Severity: section.SeverityError,
			})
		}
		return issues
	})

	vsvc.Register(section.SectionDCLoad, "load_values", func() []section.Issue {
		var issues []section.Issue
		for _, cab := range proj.Cabinets {
			for _, load := range cab.Loads {
				if load.PowerW < 0 {
					issues = append(issues, section.Issue{
						Code:     "NEGATIVE_POWER",
						Message:  fmt.Sprintf("load %q has negative power", load.Name),
						Severity: section.SeverityError,
						Context:  cab.Name,
					})
				}
				if !load.Kind.Valid() {
					issues = append(issues, section.Issue{
						Code:     "UNKNOWN_LOAD_KIND",
						Message:  fmt.Sprintf("load %q has unknown kind %q", load.Name, load.Kind),
						Severity: section.SeverityWarning,
						Context:  cab.Name,
					})
				}
			}
		}
		return issues
	})

	vsvc.Register(section.SectionBankCharger, "autonomy", func() []section.Issue {
		if proj.Site.AutonomyHours <= 0 {
			return []section.Issue{{
				Code:     "NO_AUTONOMY",
				Message:  "autonomy hours not set, bank capacity will be zero",
				Severity: section.SeverityWarning,
			}}
		}
		return nil
	})
}

func runTUIProgram(m tea.Model) error {
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithoutSignalHandler(),
	)

	runDone := make(chan struct{})
	defer close(runDone)

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-runDone:
			return
		case <-sigCh:
		}

		p.Quit()

		select {
		case <-runDone:
			return
		case <-sigCh:
		case <-time.After(5 * time.Second):
		}

		p.Kill()
	}()

	// Optional auto-quit for automated tests: set AMPDESK_TUI_AUTOCLOSE_MS.
	if v := os.Getenv("AMPDESK_TUI_AUTOCLOSE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			go func() {
				timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
				defer timer.Stop()

				select {
				case <-runDone:
					return
				case <-timer.C:
				}

				p.Quit()
			}()
		}
	}

	_, err := p.Run()
	return err
}
