// Package cutpool provides CutPool and CutMonitor (spec.md §4.5): the
// long-lived storage for HyperGraph cuts evicted from the LP for
// staleness, available for later re-separation, plus the aging policy
// that decides which LP rows become eviction candidates.
//
// Grounded on original_source/includes/pool_sep.hpp and setbank.hpp.
package cutpool

import (
	"errors"

	"github.com/abctsp/abctsp/core"
	"github.com/abctsp/abctsp/cutrepr"
	"github.com/abctsp/abctsp/tour"
)

// Sentinel errors.
var ErrUnknownEntry = errors.New("cutpool: unknown pool entry")

// DefaultCutAgeMax is the aggressive-prune threshold carried from spec.md
// §9 ("hard-coded at 100 pivots; no source comment explains the choice")
// and mirrored by lprelax.DefaultCutAgeMax.
const DefaultCutAgeMax = 100

// entry is one pool-resident cut plus its own independent age counter
// (spec.md §4.5: "ages tracked").
type entry struct {
	hg      *cutrepr.HyperGraph
	cutType cutrepr.CutType
	age     int
	live    bool
}

// CutPool is the long-lived collection of HyperGraph cuts not currently in
// the LP. Indexed for membership by a content key so the same cut is never
// stored twice; capacity is unbounded (spec.md §4.5) but Reprice only
// scans the first scanCap entries per call.
type CutPool struct {
	entries []entry
	index   map[string]int
}

// New creates an empty pool.
func New() *CutPool {
	return &CutPool{index: make(map[string]int)}
}

// poolKey is a cheap, approximate content key for dedup: cut type plus its
// clique handles, tooth handles and handle clique. ToothEdges and raw rows
// are not part of the key, so distinct cuts can share one (any two GMI
// rows do); Add then treats the later cut as a duplicate, refreshing the
// stored entry's age and not storing the new cut.
func poolKey(hg *cutrepr.HyperGraph) string {
	key := make([]byte, 0, 32)
	key = append(key, byte(hg.CutType))
	for _, h := range hg.CliqueHandles {
		key = appendInt(key, h)
	}
	for _, h := range hg.ToothHandles {
		key = appendInt(key, h)
	}
	key = appendInt(key, hg.HandleClique)
	return string(key)
}

func appendInt(b []byte, v int) []byte {
	return append(b, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

// Add inserts a HyperGraph evicted from the LP (spec.md §4.5: "On
// deletion, the HyperGraph descriptor is moved into the CutPool"). A
// duplicate (by poolKey) refreshes age to zero instead of inserting again.
func (p *CutPool) Add(hg *cutrepr.HyperGraph, cutType cutrepr.CutType) {
	k := poolKey(hg)
	if i, ok := p.index[k]; ok {
		p.entries[i].age = 0
		p.entries[i].live = true
		return
	}
	p.index[k] = len(p.entries)
	p.entries = append(p.entries, entry{hg: hg, cutType: cutType, live: true})
}

// Size reports the number of live pool entries.
func (p *CutPool) Size() int {
	n := 0
	for _, e := range p.entries {
		if e.live {
			n++
		}
	}
	return n
}

// Reprice scans up to scanCap live pool entries (in insertion order),
// regenerates each against the active tour, and returns the SparseRows
// (and their source HyperGraphs) now violated at x by at least eps —
// satisfying separator.PoolRepricer (spec.md §4.3 step 1, §4.5).
func (p *CutPool) Reprice(g *core.CoreGraph, t *tour.BestTour, x []float64, eps float64, scanCap int) ([]*cutrepr.SparseRow, []*cutrepr.HyperGraph, error) {
	cb := cutrepr.NewCliqueBank(t)
	tb := cutrepr.NewToothBank()

	var rows []*cutrepr.SparseRow
	var hgs []*cutrepr.HyperGraph
	scanned := 0
	for i := range p.entries {
		if !p.entries[i].live {
			continue
		}
		if scanCap > 0 && scanned >= scanCap {
			break
		}
		scanned++
		hg := p.entries[i].hg
		row, err := hg.Expand(g, t, cb, tb)
		if err != nil {
			continue
		}
		if row.IsViolated(x, eps) {
			rows = append(rows, row)
			hgs = append(hgs, hg)
		}
	}
	return rows, hgs, nil
}

// Remove marks the pool entry matching hg dead (e.g. after it has been
// promoted back into the LP by the caller).
func (p *CutPool) Remove(hg *cutrepr.HyperGraph) {
	k := poolKey(hg)
	if i, ok := p.index[k]; ok {
		p.entries[i].live = false
		delete(p.index, k)
	}
}

// Monitor is the CutMonitor of spec.md §4.5: it decides, from an LP row's
// age, whether that row is a pruning candidate. Subtour and branch rows
// are exempt regardless of age (the exemption itself lives in lprelax's
// rowMeta; Monitor only applies the threshold policy other callers need to
// reason about pool growth against).
type Monitor struct {
	AgeMax int
}

// NewMonitor builds a Monitor with the default threshold.
func NewMonitor() *Monitor { return &Monitor{AgeMax: DefaultCutAgeMax} }

// IsStale reports whether age has reached the eviction threshold.
func (m *Monitor) IsStale(age int) bool {
	ageMax := m.AgeMax
	if ageMax <= 0 {
		ageMax = DefaultCutAgeMax
	}
	return age >= ageMax
}
