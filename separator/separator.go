// Package separator implements the primal separator pipeline (spec.md
// §4.3): a sequence of specialized cut finders that consume the active
// tour, the current LP x-vector, and the support graph, and produce
// SparseRow cuts guaranteed to be violated by x and tight at the tour (the
// "primal guarantee").
//
// Grounded on spec.md §4.3 and original_source/{segments2,blossom,
// fastblossoms,gencuts,simpleDP,safegmi}.cpp/h.
package separator

import (
	"errors"

	"github.com/abctsp/abctsp/core"
	"github.com/abctsp/abctsp/cutrepr"
	"github.com/abctsp/abctsp/support"
	"github.com/abctsp/abctsp/tour"
)

// Sentinel errors.
var (
	ErrNotTightAtTour = errors.New("separator: candidate row is not tight at the active tour")
	ErrQueueFull      = errors.New("separator: CutQueue is at capacity")
)

// ViolationEps is the default LP-violation threshold used throughout the
// pipeline (spec.md §4.3's "lp_viol >= eps").
const ViolationEps = 1e-6

// Kind names each pipeline stage, used for Config's enable flags and for
// diagnostics (spec.md §4.3's numbered steps).
type Kind int

const (
	PoolReprice Kind = iota
	SegmentSubtour
	FastBlossom
	ExactBlossom
	BlockComb
	SimpleDominoParity
	ComponentSEC
	Metamorphosis
	SafeGMI
)

// early reports whether Kind belongs to spec.md §4.3's "early" class
// (pool, segment, fast2m, blk_comb) — the delta-ratio restart rule in
// cutandpiv consults this.
func (k Kind) Early() bool {
	switch k {
	case PoolReprice, SegmentSubtour, FastBlossom, BlockComb:
		return true
	default:
		return false
	}
}

func (k Kind) String() string {
	switch k {
	case PoolReprice:
		return "pool_reprice"
	case SegmentSubtour:
		return "segment_subtour"
	case FastBlossom:
		return "fast_blossom"
	case ExactBlossom:
		return "exact_blossom"
	case BlockComb:
		return "block_comb"
	case SimpleDominoParity:
		return "simple_dp"
	case ComponentSEC:
		return "component_sec"
	case Metamorphosis:
		return "metamorphosis"
	case SafeGMI:
		return "safe_gmi"
	default:
		return "unknown"
	}
}

// Config enables/disables individual separators and sets shared
// tolerances — spec.md §B's per-component functional-options pattern,
// mirrored on the teacher's Options/DefaultOptions style.
type Config struct {
	Enabled map[Kind]bool
	Eps     float64
	// KarpBucketSize bounds Karp-partition bucket size for simple-DP
	// separation (spec.md §4.3 step 6: "buckets of size <= 4*sqrt(n)").
	KarpBucketSize int
	// PoolScanCap bounds how many pool rows are repriced per call
	// (spec.md §4.5).
	PoolScanCap int
}

// DefaultConfig enables every separator except metamorphosis (spec.md §4.3
// step 8: "off unless enabled").
func DefaultConfig() Config {
	return Config{
		Enabled: map[Kind]bool{
			PoolReprice:        true,
			SegmentSubtour:     true,
			FastBlossom:        true,
			ExactBlossom:       true,
			BlockComb:          true,
			SimpleDominoParity: true,
			ComponentSEC:       true,
			Metamorphosis:      false,
			SafeGMI:            true,
		},
		Eps:            ViolationEps,
		KarpBucketSize: 0, // 0 means "derive 4*sqrt(n) at call time"
		PoolScanCap:    500,
	}
}

// CutQueue is a capacity-bounded FIFO of candidate SparseRow cuts — the
// CutQueue supplement (SPEC_FULL.md §D.3), grounded on
// original_source/includes/cuts.hpp's CutQueue<cut_rep>. Capacity 0 means
// unbounded.
type CutQueue struct {
	items    []*cutrepr.SparseRow
	capacity int
}

// NewCutQueue creates an empty queue with the given capacity (0 = unbounded).
func NewCutQueue(capacity int) *CutQueue {
	return &CutQueue{capacity: capacity}
}

// PushBack appends row to the queue.
//
// Errors: ErrQueueFull if the queue is at capacity.
func (q *CutQueue) PushBack(row *cutrepr.SparseRow) error {
	if q.capacity > 0 && len(q.items) >= q.capacity {
		return ErrQueueFull
	}
	q.items = append(q.items, row)
	return nil
}

// PopFront removes and returns the oldest row, or nil if empty.
func (q *CutQueue) PopFront() *cutrepr.SparseRow {
	if len(q.items) == 0 {
		return nil
	}
	r := q.items[0]
	q.items = q.items[1:]
	return r
}

// PeekFront returns the oldest row without removing it, or nil if empty.
func (q *CutQueue) PeekFront() *cutrepr.SparseRow {
	if len(q.items) == 0 {
		return nil
	}
	return q.items[0]
}

// Len reports the number of queued rows.
func (q *CutQueue) Len() int { return len(q.items) }

// Drain returns and clears every queued row, in FIFO order.
func (q *CutQueue) Drain() []*cutrepr.SparseRow {
	out := q.items
	q.items = nil
	return out
}

// Input bundles everything a separator needs to read (spec.md §4.3: "each
// separator consumes (ActiveTour, x-vector, SupportGraph, CoreGraph,
// optional CutPool)"). PoolRepricer is an interface satisfied by
// cutpool.CutPool, kept here as an interface to avoid an import cycle.
type Input struct {
	Graph   *core.CoreGraph
	Tour    *tour.BestTour
	X       []float64
	Support *support.Graph
	Pool    PoolRepricer
	GMI     GMISource
	Cfg     Config
}

// PoolRepricer is the narrow view of cutpool.CutPool the PoolReprice
// separator needs.
type PoolRepricer interface {
	// Reprice returns, in pool order up to scanCap entries, the stored
	// HyperGraphs whose regenerated SparseRow is now violated by x.
	Reprice(g *core.CoreGraph, t *tour.BestTour, x []float64, eps float64, scanCap int) ([]*cutrepr.SparseRow, []*cutrepr.HyperGraph, error)
}

// GMISource is the narrow view of the external safe-MIR backend (spec.md
// §6: "get the optimal simplex tableau row for a fractional basic
// variable; return a list of safe GMI rows"), satisfied by lprelax.CoreLP.
// Kept as an interface here so separator never imports lprelax.
type GMISource interface {
	// FractionalBasicRows returns one SparseRow per currently fractional
	// basic column, already in terms of CoreGraph edge-column indices.
	FractionalBasicRows() ([]*cutrepr.SparseRow, error)
}

// primalGuard filters candidates to the primal guarantee (spec.md §4.3):
// violated at x and tight at the tour (or, for GE/EQ senses, satisfied
// appropriately). Equality (GMI) rows are accepted if tight; <=/>= rows
// must hold with equality at the tour.
func primalGuard(rows []*cutrepr.SparseRow, xt []float64, x []float64, eps float64) []*cutrepr.SparseRow {
	var out []*cutrepr.SparseRow
	for _, r := range rows {
		if !r.IsTightAtTour(xt, eps) {
			continue
		}
		if !r.IsViolated(x, eps) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// reconnectionGuard filters candidates for the connected-component SEC
// stage only: violation at x is required, but tour-tightness is not.
// Unlike the cut families primalGuard serves (segment/blossom/domino,
// whose primal separation algorithms specifically hunt for violated rows
// tight at the incumbent tour), a component SEC sum_{e in E(S)} x_e <=
// |S|-1 is a valid inequality for every Hamiltonian tour regardless of
// whether S happens to be a contiguous arc of the current best tour — it
// is the one separator spec.md §4.3 step 7 runs purely to restore support
// connectivity, not to find a tour-tight facet. Applying primalGuard's
// tightness filter here routinely discards every candidate on a
// disconnected pivot (the components are generally not tour arcs),
// turning a routine reconnection round into cutandpiv's fatal
// ErrPruneSlackDisconnected.
func reconnectionGuard(rows []*cutrepr.SparseRow, x []float64, eps float64) []*cutrepr.SparseRow {
	var out []*cutrepr.SparseRow
	for _, r := range rows {
		if !r.IsViolated(x, eps) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// tourVector builds the 0/1 tour-edge indicator over every CoreGraph edge,
// used by every separator's primalGuard call.
func tourVector(g *core.CoreGraph, t *tour.BestTour) []float64 {
	xt := make([]float64, g.EdgeCount())
	for _, idx := range t.EdgeIdx {
		xt[idx] = 1
	}
	return xt
}

// Separator is the common shape of every pipeline stage (spec.md §9:
// "a trait with one method per separator"). FindCuts never mutates its
// input; it returns a FIFO queue of candidate cuts already passed through
// the primal guarantee.
type Separator interface {
	Kind() Kind
	FindCuts(in Input) (*CutQueue, error)
}

// Pipeline is the ordered sequence of enabled separators (spec.md §4.3's
// invocation order). Pricing-aware stages (SafeGMI) are skipped when
// pricing is active per spec.md §4.3 step 9.
type Pipeline struct {
	stages      []Separator
	PricingOn   bool
}

// NewPipeline builds the default ordered pipeline, filtered to cfg's
// enabled Kinds.
func NewPipeline(cfg Config, pricingOn bool) *Pipeline {
	all := []Separator{
		&poolSeparator{},
		&segmentSeparator{},
		&fastBlossomSeparator{},
		&exactBlossomSeparator{},
		&blockCombSeparator{},
		&dominoParitySeparator{},
		&componentSECSeparator{},
		&metamorphosisSeparator{},
		&safeGMISeparator{},
	}
	p := &Pipeline{PricingOn: pricingOn}
	for _, s := range all {
		if cfg.Enabled[s.Kind()] {
			p.stages = append(p.stages, s)
		}
	}
	return p
}

// Stages returns the pipeline's enabled separators in invocation order.
func (p *Pipeline) Stages() []Separator { return p.stages }
