// Package cutandpiv drives the cut-and-piv loop (spec.md §4.4): the
// repeated pivot/separate/add-cuts cycle that is the inner engine of both
// the pure-cut loop and every ABC branch-node visit.
//
// Grounded on spec.md §4.4's pseudocode and
// original_source/includes/cutcontrol.hpp.
package cutandpiv

import (
	"errors"
	"math"

	"github.com/abctsp/abctsp/core"
	"github.com/abctsp/abctsp/cutpool"
	"github.com/abctsp/abctsp/cutrepr"
	"github.com/abctsp/abctsp/lprelax"
	"github.com/abctsp/abctsp/separator"
	"github.com/abctsp/abctsp/support"
	"github.com/abctsp/abctsp/tour"
)

// Sentinel errors.
var ErrPruneSlackDisconnected = errors.New("cutandpiv: support graph remained disconnected after the component-SEC budget")

// RestartThreshold and connectSecBudget are the "fixed design constants"
// spec.md §4.4 calls out by name.
const (
	RestartThreshold = 0.001
	connectSecBudget = 64
)

// Config configures one driver run.
type Config struct {
	SeparatorCfg separator.Config
	PricingOn    bool
	// ConnectEnabled runs the connected-component SEC separator to
	// quiescence before the main separator order when the support graph is
	// disconnected (spec.md §4.4: "if disconnected and connect_enabled").
	ConnectEnabled bool
}

// DefaultConfig returns conventional settings: every separator on except
// metamorphosis, pricing off, connect-on-disconnect enabled.
func DefaultConfig() Config {
	return Config{SeparatorCfg: separator.DefaultConfig(), PricingOn: false, ConnectEnabled: true}
}

// PivotPlan is the cutandpiv.pivplan supplement (SPEC_FULL.md §D.5): the
// per-round bookkeeping the driver accumulates so a caller (purecut,
// branch) can inspect why a run stopped without re-deriving it from the LP.
type PivotPlan struct {
	Rounds      int
	CutsAdded   int
	TotalDelta  float64
	LastKind    separator.Kind
	Restarted   bool
}

// Driver owns the LP, CutPool, and separator pipeline for one problem
// instance and runs cut-and-piv rounds against them.
type Driver struct {
	G    *core.CoreGraph
	LP   *lprelax.CoreLP
	Pool *cutpool.CutPool
	Cfg  Config
}

// New builds a Driver over an already-constructed CoreLP and CutPool.
func New(g *core.CoreGraph, lp *lprelax.CoreLP, pool *cutpool.CutPool, cfg Config) *Driver {
	return &Driver{G: g, LP: lp, Pool: pool, Cfg: cfg}
}

// Run executes the cut-and-piv loop of spec.md §4.4 to a terminal PivType
// (Tour, FathomedTour, or Frac), returning the accumulated PivotPlan
// alongside the final pivot classification.
func (d *Driver) Run() (lprelax.PivType, PivotPlan, error) {
	var plan PivotPlan
	pipeline := separator.NewPipeline(d.Cfg.SeparatorCfg, d.Cfg.PricingOn)

restart:
	for {
		piv, err := d.LP.PrimalPivot()
		if err != nil {
			return piv, plan, err
		}
		if piv == lprelax.TourPiv || piv == lprelax.FathomedTourPiv {
			return piv, plan, nil
		}

		if d.Cfg.ConnectEnabled {
			piv, err = d.resolveDisconnection()
			if err != nil {
				return piv, plan, err
			}
			if piv == lprelax.TourPiv || piv == lprelax.FathomedTourPiv {
				return piv, plan, nil
			}
		}

		prevObj := d.LP.Objective()
		found := false

		for _, stage := range pipeline.Stages() {
			plan.Rounds++
			in, err := d.buildInput(stage.Kind())
			if err != nil {
				return lprelax.Frac, plan, err
			}
			q, err := stage.FindCuts(in)
			if err != nil {
				return lprelax.Frac, plan, err
			}
			if q.Len() == 0 {
				continue
			}

			rows := q.Drain()
			if err := d.LP.PivotBack(1e-7); err != nil {
				return lprelax.Frac, plan, err
			}
			if _, err := d.LP.AddCuts(rows, cutTypeFor(stage.Kind()), nil); err != nil {
				return lprelax.Frac, plan, err
			}
			plan.CutsAdded += len(rows)
			plan.LastKind = stage.Kind()

			piv, err = d.LP.PrimalPivot()
			if err != nil {
				return piv, plan, err
			}
			newObj := d.LP.Objective()
			tourLen := d.LP.ActiveTour().Length
			delta := 0.0
			if tourLen > tour.LengthEpsilon {
				delta = math.Abs(newObj-prevObj) / tourLen
			}
			plan.TotalDelta += delta
			prevObj = newObj

			if piv == lprelax.TourPiv || piv == lprelax.FathomedTourPiv {
				return piv, plan, nil
			}
			if delta >= RestartThreshold || stage.Kind().Early() {
				plan.Restarted = true
				continue restart
			}
			found = true
		}

		if !found || plan.TotalDelta < tour.LengthEpsilon {
			return lprelax.Frac, plan, nil
		}
	}
}

// resolveDisconnection repeatedly applies the component-SEC separator
// alone until the support graph reconnects or a pivot reaches a terminal
// state, bounded by connectSecBudget rounds (spec.md §4.3 step 7: "the only
// bounded loop in the pipeline").
func (d *Driver) resolveDisconnection() (lprelax.PivType, error) {
	for i := 0; i < connectSecBudget; i++ {
		sg := support.Build(d.G, d.LP.X(), d.Cfg.SeparatorCfg.Eps)
		if sg.Connected {
			return lprelax.Frac, nil
		}
		in := separator.Input{
			Graph: d.G, Tour: &d.LP.ActiveTour().BestTour, X: d.LP.X(), Support: sg,
			Cfg: d.Cfg.SeparatorCfg,
		}
		sep := &componentOnlySeparator{}
		q, err := sep.FindCuts(in)
		if err != nil {
			return lprelax.Frac, err
		}
		if q.Len() == 0 {
			return lprelax.Frac, ErrPruneSlackDisconnected
		}
		if _, err := d.LP.AddCuts(q.Drain(), cutrepr.Subtour, nil); err != nil {
			return lprelax.Frac, err
		}
		piv, err := d.LP.PrimalPivot()
		if err != nil {
			return piv, err
		}
		if piv == lprelax.TourPiv || piv == lprelax.FathomedTourPiv {
			return piv, nil
		}
	}
	return lprelax.Frac, ErrPruneSlackDisconnected
}

// buildInput assembles a fresh separator.Input against the driver's
// current LP state for one pipeline stage.
func (d *Driver) buildInput(k separator.Kind) (separator.Input, error) {
	x := d.LP.X()
	sg := support.Build(d.G, x, d.Cfg.SeparatorCfg.Eps)
	return separator.Input{
		Graph: d.G, Tour: &d.LP.ActiveTour().BestTour, X: x, Support: sg,
		Pool: d.Pool, GMI: d.gmiSource(k), Cfg: d.Cfg.SeparatorCfg,
	}, nil
}

// gmiSource returns the LP as a GMISource only for the SafeGMI stage and
// only when pricing is off, per spec.md §4.3 step 9.
func (d *Driver) gmiSource(k separator.Kind) separator.GMISource {
	if k != separator.SafeGMI || d.Cfg.PricingOn {
		return nil
	}
	return d.LP
}

func cutTypeFor(k separator.Kind) cutrepr.CutType {
	switch k {
	case separator.SimpleDominoParity:
		return cutrepr.Domino
	case separator.FastBlossom, separator.ExactBlossom, separator.BlockComb:
		return cutrepr.Comb
	case separator.SafeGMI:
		return cutrepr.GMI
	default:
		return cutrepr.Subtour
	}
}

// componentOnlySeparator is a local single-stage wrapper used by
// resolveDisconnection so the bounded reconnection loop doesn't depend on
// the full ordered pipeline.
type componentOnlySeparator struct{}

func (componentOnlySeparator) Kind() separator.Kind { return separator.ComponentSEC }
func (componentOnlySeparator) FindCuts(in separator.Input) (*separator.CutQueue, error) {
	return separator.NewPipeline(separator.Config{
		Enabled: map[separator.Kind]bool{separator.ComponentSEC: true},
		Eps:     in.Cfg.Eps,
	}, false).Stages()[0].FindCuts(in)
}
