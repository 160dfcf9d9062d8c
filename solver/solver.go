// Package solver aggregates the per-instance state every other package
// needs (spec.md §3's graphState/tourState/lpState/supportState split) and
// drives the top-level algorithm: build an initial tour, run the pure-cut
// loop, fall back to the ABC branch controller on a fractional result.
//
// Grounded on original_source/includes/datagroups.hpp (SPEC_FULL.md §D.1):
// SolverContext owns exactly the ownership split datagroups.hpp documents,
// collapsed into one struct per the teacher's single-struct-per-concern
// style rather than four separate datagroup objects, since nothing in this
// repo needs to swap one datagroup independently of the others.
package solver

import (
	"context"
	"errors"
	"time"

	"github.com/abctsp/abctsp/branch"
	"github.com/abctsp/abctsp/core"
	"github.com/abctsp/abctsp/cutandpiv"
	"github.com/abctsp/abctsp/cutpool"
	"github.com/abctsp/abctsp/instance"
	"github.com/abctsp/abctsp/lprelax"
	"github.com/abctsp/abctsp/pricer"
	"github.com/abctsp/abctsp/purecut"
	"github.com/abctsp/abctsp/tour"
)

// Sentinel errors.
var (
	ErrNoInitialTour = errors.New("solver: no initial tour supplied and none could be constructed")
	ErrTimedOut      = errors.New("solver: cooperative budget exhausted before the tree closed")
)

// CutPreset names the three bundled separator-selection presets (spec.md
// §6 CLI: "cut-selection preset (vanilla|aggressive|sparse)").
type CutPreset string

const (
	Vanilla   CutPreset = "vanilla"
	Aggressive CutPreset = "aggressive"
	Sparse    CutPreset = "sparse"
)

// Config configures a full solve.
type Config struct {
	Preset      CutPreset
	PricingOn   bool
	BranchOn    bool
	TimeBudget  time.Duration
	NodeBudget  int
	TargetLB    float64
	Branch      branch.Config
	CutAndPiv   cutandpiv.Config
}

// DefaultConfig returns the vanilla preset with branching and pricing both
// on and no time/node budget.
func DefaultConfig() Config {
	return Config{
		Preset:    Vanilla,
		PricingOn: true,
		BranchOn:  true,
		Branch:    branch.DefaultConfig(),
		CutAndPiv: cutandpiv.DefaultConfig(),
	}
}

// applyPreset narrows the separator Config's Enabled map per spec.md §6's
// three bundled presets: aggressive keeps every separator (plus
// metamorphosis — which, as separator.metamorphosisSeparator documents,
// has no wired comb source yet and so is enabled but inert), sparse
// restricts to the cheap early-class separators, vanilla is
// cutandpiv.DefaultConfig() unchanged.
func applyPreset(cfg Config) Config {
	narrow := func(sc *cutandpiv.Config) {
		switch cfg.Preset {
		case Aggressive:
			for k := range sc.SeparatorCfg.Enabled {
				sc.SeparatorCfg.Enabled[k] = true
			}
		case Sparse:
			for k := range sc.SeparatorCfg.Enabled {
				sc.SeparatorCfg.Enabled[k] = k.Early()
			}
		}
	}
	narrow(&cfg.CutAndPiv)
	narrow(&cfg.Branch.CutAndPiv)
	return cfg
}

// SolverContext owns the full mutable state of one TSP solve: the
// CoreGraph (graphState), BestTour (tourState), CoreLP (lpState), and
// CutPool (the long-lived half of supportState — the SupportGraph itself
// is rebuilt on demand and never stored).
type SolverContext struct {
	Instance *instance.Instance
	Graph    *core.CoreGraph
	Best     *tour.BestTour
	LP       *lprelax.CoreLP
	Pool     *cutpool.CutPool
	Cfg      Config
}

// New builds a SolverContext: constructs a complete CoreGraph over inst (an
// edge for every node pair, matching the implicit-edge pricing model of
// spec.md §4.6 before any elimination has run), installs initialTour as
// both BestTour and the LP's starting basis, and applies cfg's preset.
//
// Errors: ErrNoInitialTour if initialTour is empty and nil was passed for
// autogeneration is not yet supported by this constructor (callers build
// one via purecut.GreedyTour or a trivial identity permutation first).
func New(inst *instance.Instance, initialTour []int, cfg Config) (*SolverContext, error) {
	if len(initialTour) == 0 {
		return nil, ErrNoInitialTour
	}
	cfg = applyPreset(cfg)

	g := core.NewCoreGraph(inst.N)
	for u := 0; u < inst.N; u++ {
		for v := u + 1; v < inst.N; v++ {
			if _, err := g.AddEdge(u, v, inst.At(u, v)); err != nil {
				return nil, err
			}
		}
	}

	lp, err := lprelax.New(g, initialTour, lprelax.DefaultConfig())
	if err != nil {
		return nil, err
	}
	// Copy the LP's starting BestTour out rather than aliasing
	// lp.ActiveTour()'s struct: SetActiveTour (mutate.go) later reassigns
	// lp.activeTour to a brand-new *tour.ActiveTour, which would silently
	// detach a pointer into the old one from the LP's actual state.
	best := lp.ActiveTour().BestTour

	return &SolverContext{
		Instance: inst, Graph: g, Best: &best, LP: lp, Pool: cutpool.New(), Cfg: cfg,
	}, nil
}

// Outcome reports how Solve concluded.
type Outcome struct {
	Best        tour.BestTour
	Proved      bool // true iff best is certified optimal (FathomedTour at the root or a closed ABC tree)
	NodesVisited int
}

// Solve runs the pure-cut loop, then (if enabled and the root is
// fractional) hands off to the ABC branch controller. ctx's deadline is
// checked once, after the pure-cut loop and before branching (ErrTimedOut);
// the loops themselves are bounded only by cfg.NodeBudget and
// cfg.Branch.MaxNodes.
func (sc *SolverContext) Solve(ctx context.Context) (Outcome, error) {
	driver := cutandpiv.New(sc.Graph, sc.LP, sc.Pool, sc.Cfg.CutAndPiv)

	pcfg := purecut.DefaultConfig()
	pcfg.CutAndPiv = sc.Cfg.CutAndPiv
	pcfg.DoPrice = sc.Cfg.PricingOn
	pcfg.TargetLB = sc.Cfg.TargetLB
	pcfg.Pricer = pricer.DefaultConfig()
	if sc.Cfg.NodeBudget > 0 {
		pcfg.MaxRounds = sc.Cfg.NodeBudget
	}

	res, err := purecut.Run(driver, sc.Instance, sc.Best, pcfg)
	if err != nil {
		return Outcome{Best: *sc.Best}, err
	}

	if err := checkDeadline(ctx); err != nil {
		return Outcome{Best: *sc.Best}, err
	}

	if res.Piv == lprelax.FathomedTourPiv {
		return Outcome{Best: *sc.Best, Proved: true}, nil
	}
	if !sc.Cfg.BranchOn {
		return Outcome{Best: *sc.Best}, nil
	}

	visited, closed, err := branch.Run(driver, sc.Best, sc.Cfg.Branch)
	if err != nil {
		return Outcome{Best: *sc.Best, NodesVisited: visited}, err
	}
	// closed=false means cfg.Branch.MaxNodes cut the search short with open
	// nodes still on the frontier — best-known, not proved (spec.md §5/§7).
	return Outcome{Best: *sc.Best, Proved: closed, NodesVisited: visited}, nil
}

func checkDeadline(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ErrTimedOut
	default:
		return nil
	}
}
