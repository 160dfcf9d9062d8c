// Package branch implements the ABC (augment-branch-cut) tree controller
// (spec.md §4.8): candidate selection by strong branching, node splitting,
// branch-tour construction, and best-first node visitation.
//
// Grounded on original_source/{ABC,BBconstraints,BButils,BBvisit}.cpp/h.
// Open Question decision (DESIGN.md): NodeType is {Root,Left,Right}, taking
// BBvisit.hpp as authoritative over an alternative Up/Down-only scheme.
package branch

import (
	"container/heap"
	"errors"
	"sort"

	"github.com/abctsp/abctsp/cutandpiv"
	"github.com/abctsp/abctsp/cutrepr"
	"github.com/abctsp/abctsp/lprelax"
	"github.com/abctsp/abctsp/purecut"
	"github.com/abctsp/abctsp/tour"
)

// Sentinel errors.
var ErrInfeasibleNode = errors.New("branch: node's accumulated branch constraints admit no Hamiltonian cycle")

// NodeType tags a BranchNode's position in the tree.
type NodeType int

const (
	Root NodeType = iota
	Left
	Right
)

// Dir is the direction an edge is clamped: Down fixes x_e=0, Up fixes
// x_e=1.
type Dir int

const (
	Down Dir = iota
	Up
)

// Config configures one ABC run.
type Config struct {
	// CandidateCount bounds how many fractional columns receive a full
	// strong-branch trial (spec.md §4.8: "keep top k").
	CandidateCount int
	// StrongBranchIters bounds the primal-pivot count per clamp direction
	// during strong branching.
	StrongBranchIters int
	// ScoreAlpha weights the strong-branching combination
	// alpha*min(down,up) + (1-alpha)*max(down,up), the conventional
	// Driebeek-style blend favoring the worse-case child.
	ScoreAlpha float64
	// MaxNodes bounds total tree visits (spec.md §5 cooperative budget).
	MaxNodes int
	CutAndPiv cutandpiv.Config
}

// DefaultConfig returns conventional ABC settings.
func DefaultConfig() Config {
	return Config{CandidateCount: 5, StrongBranchIters: 20, ScoreAlpha: 0.85, MaxNodes: 100000, CutAndPiv: cutandpiv.DefaultConfig()}
}

// BranchNode is one node of the ABC tree.
type BranchNode struct {
	ID       int
	Parent   *BranchNode
	Type     NodeType
	Depth    int
	EdgeIdx  int
	Dir      Dir
	Estimate float64
	RowIdx   int // set once Visit installs this node's LP row; -1 until then

	// UpEdges/DownEdges are the accumulated root-to-node clamp set, used to
	// feasibility-check and to seed branch-tour construction.
	UpEdges   []int
	DownEdges []int

	// Tour is this node's precomputed branch tour — a plain node
	// permutation rather than a CliqueBank-compressed diff against best:
	// CliqueBank (cutrepr.Clique) represents unordered node sets for cut
	// handles, not ordered permutations, so reusing it here would require a
	// second, order-preserving segment structure this repo does not build
	// (documented in DESIGN.md as a deliberate scope cut).
	Tour []int
}

// candidate is a pre-scored fractional column.
type candidate struct {
	col     int
	penalty float64
}

// selectCandidates ranks fractional basic columns by a cheap Driebeek-style
// penalty (distance-to-bound scaled by reduced cost) and returns the top k
// column indices — the pre-filter before the expensive strong-branch pass
// (spec.md §4.8).
func selectCandidates(lp *lprelax.CoreLP, k int) []int {
	fracs := lp.FractionalColumns()
	cands := make([]candidate, 0, len(fracs))
	for _, f := range fracs {
		downratio := f.Value
		upratio := 1 - f.Value
		rc := lp.ReducedCost(f.Col)
		if rc < 0 {
			rc = -rc
		}
		penalty := rc * minF(downratio, upratio)
		cands = append(cands, candidate{col: f.Col, penalty: penalty})
	}
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].penalty != cands[j].penalty {
			return cands[i].penalty > cands[j].penalty
		}
		return cands[i].col < cands[j].col
	})
	if len(cands) > k {
		cands = cands[:k]
	}
	out := make([]int, len(cands))
	for i, c := range cands {
		out[i] = c.col
	}
	return out
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// strongBranch clamps col to Up (1,1) and Down (0,0) in turn, pivots a
// bounded number of iterations in each direction, and restores the
// original bounds and basis — spec.md §4.8's "strong-branch each candidate
// with a bounded iteration limit... clamp Up: lower=upper=1; clamp Down:
// lower=upper=0".
func strongBranch(lp *lprelax.CoreLP, col int, iters int) (downObj, upObj float64, err error) {
	origLower, origUpper := lp.ColumnBounds(col)
	snap := lp.CopyBase()

	lp.SetColumnBounds(col, 0, 0)
	if _, err = lp.PivotLimited(iters); err != nil {
		return 0, 0, err
	}
	downObj = lp.Objective()
	if err = restoreBasis(lp, snap, col, origLower, origUpper); err != nil {
		return 0, 0, err
	}

	lp.SetColumnBounds(col, 1, 1)
	if _, err = lp.PivotLimited(iters); err != nil {
		return 0, 0, err
	}
	upObj = lp.Objective()
	if err = restoreBasis(lp, snap, col, origLower, origUpper); err != nil {
		return 0, 0, err
	}
	return downObj, upObj, nil
}

func restoreBasis(lp *lprelax.CoreLP, snap any, col int, lower, upper float64) error {
	bs, ok := snap.(*lprelax.BasisSnapshot)
	if !ok {
		return nil
	}
	if err := lp.CopyStart(bs); err != nil {
		return err
	}
	lp.SetColumnBounds(col, lower, upper)
	return nil
}

// branchScore combines a candidate's clamped-child objective estimates
// into a single figure of merit, favoring candidates where the worse child
// degrades the objective the most (spec.md §4.8 "branch_score(itlim,
// down_obj, up_obj)").
func branchScore(alpha, parentObj, downObj, upObj float64) float64 {
	dDown, dUp := downObj-parentObj, upObj-parentObj
	if dDown < 0 {
		dDown = 0
	}
	if dUp < 0 {
		dUp = 0
	}
	lo, hi := dDown, dUp
	if lo > hi {
		lo, hi = hi, lo
	}
	return alpha*lo + (1-alpha)*hi
}

// SelectAndSplit runs candidate pre-selection, strong branching, and
// produces the Up/Down children off parent for the winning edge.
func SelectAndSplit(driver *cutandpiv.Driver, parent *BranchNode, parentBest *tour.BestTour, cfg Config, nextID func() int) (up, down *BranchNode, err error) {
	lp := driver.LP
	parentObj := lp.Objective()
	shortlist := selectCandidates(lp, cfg.CandidateCount)
	if len(shortlist) == 0 {
		return nil, nil, nil
	}

	bestCol := shortlist[0]
	bestScore := -1.0
	var bestDown, bestUp float64
	for _, col := range shortlist {
		d, u, serr := strongBranch(lp, col, cfg.StrongBranchIters)
		if serr != nil {
			continue
		}
		score := branchScore(cfg.ScoreAlpha, parentObj, d, u)
		if score > bestScore {
			bestScore, bestCol, bestDown, bestUp = score, col, d, u
		}
	}

	upEdges := append(append([]int(nil), parent.UpEdges...), bestCol)
	downEdges := append([]int(nil), parent.DownEdges...)
	up, uerr := buildChild(driver, parent, bestCol, Up, Right, bestUp, upEdges, downEdges, parentBest, nextID())
	down, derr := buildChild(driver, parent, bestCol, Down, Left, bestDown, append([]int(nil), parent.UpEdges...), append(append([]int(nil), parent.DownEdges...), bestCol), parentBest, nextID())
	if uerr != nil && derr != nil {
		return nil, nil, ErrInfeasibleNode
	}
	if uerr != nil {
		up = nil
	}
	if derr != nil {
		down = nil
	}
	return up, down, nil
}

// buildChild constructs one child node, computing its branch tour.
// Infeasibility (too many Up edges at a node, or Down clamps leaving a
// node with fewer than two incident edges) aborts with ErrInfeasibleNode — the node is
// pruned rather than queued (spec.md §4.8).
func buildChild(driver *cutandpiv.Driver, parent *BranchNode, edgeIdx int, dir Dir, typ NodeType, estimate float64, upEdges, downEdges []int, best *tour.BestTour, id int) (*BranchNode, error) {
	n := driver.G.N()
	degreeCap := make([]int, n)
	for _, eIdx := range upEdges {
		e, err := driver.G.Edge(eIdx)
		if err != nil {
			return nil, err
		}
		degreeCap[e.U]++
		degreeCap[e.V]++
		if degreeCap[e.U] > 2 || degreeCap[e.V] > 2 {
			return nil, ErrInfeasibleNode
		}
	}
	remaining := make([]int, n)
	for v := 0; v < n; v++ {
		nbrs, _ := driver.G.Neighbors(v)
		remaining[v] = len(nbrs)
	}
	for _, eIdx := range downEdges {
		e, err := driver.G.Edge(eIdx)
		if err != nil {
			return nil, err
		}
		remaining[e.U]--
		remaining[e.V]--
		if remaining[e.U] < 2 || remaining[e.V] < 2 {
			return nil, ErrInfeasibleNode
		}
	}

	nodeTour, err := compliantTour(driver, best, upEdges, downEdges)
	if err != nil {
		return nil, err
	}

	return &BranchNode{
		ID: id, Parent: parent, Type: typ, Depth: parent.Depth + 1,
		EdgeIdx: edgeIdx, Dir: dir, Estimate: estimate, RowIdx: -1,
		UpEdges: upEdges, DownEdges: downEdges, Tour: nodeTour,
	}, nil
}

// compliantTour returns best unchanged if it already honors every Up/Down
// clamp, otherwise invokes purecut.GreedyTour seeded with the clamp sets
// (spec.md §4.8's chained-LK callout, substituted per purecut.GreedyTour's
// doc comment).
func compliantTour(driver *cutandpiv.Driver, best *tour.BestTour, upEdges, downEdges []int) ([]int, error) {
	if tourCompliant(driver, best, upEdges, downEdges) {
		return append([]int(nil), best.Nodes...), nil
	}
	must := make(map[[2]int]bool, len(upEdges))
	for _, idx := range upEdges {
		e, err := driver.G.Edge(idx)
		if err != nil {
			return nil, err
		}
		must[edgeKey(e.U, e.V)] = true
	}
	mustNot := make(map[[2]int]bool, len(downEdges))
	for _, idx := range downEdges {
		e, err := driver.G.Edge(idx)
		if err != nil {
			return nil, err
		}
		mustNot[edgeKey(e.U, e.V)] = true
	}
	x := make([]float64, driver.G.EdgeCount())
	for _, idx := range best.EdgeIdx {
		x[idx] = 1
	}
	nodes, ok := purecut.GreedyTour(driver.G, x, driver.G.N(), must, mustNot)
	if !ok {
		return nil, ErrInfeasibleNode
	}
	return nodes, nil
}

func tourCompliant(driver *cutandpiv.Driver, best *tour.BestTour, upEdges, downEdges []int) bool {
	for _, idx := range upEdges {
		e, err := driver.G.Edge(idx)
		if err != nil || !best.HasEdge(e.U, e.V) {
			return false
		}
	}
	for _, idx := range downEdges {
		e, err := driver.G.Edge(idx)
		if err != nil || best.HasEdge(e.U, e.V) {
			return false
		}
	}
	return true
}

func edgeKey(u, v int) [2]int {
	if u > v {
		u, v = v, u
	}
	return [2]int{u, v}
}

// branchRow builds the single-variable bound-fixing constraint a Branch
// node installs on visit (spec.md §4.8: "appear as single-variable
// bound-fixing constraints with a Branch cut_type").
func branchRow(edgeIdx int, dir Dir) (*cutrepr.SparseRow, error) {
	if dir == Up {
		return cutrepr.NewSparseRow([]int{edgeIdx}, []float64{1}, cutrepr.GE, 1)
	}
	return cutrepr.NewSparseRow([]int{edgeIdx}, []float64{1}, cutrepr.LE, 0)
}

// Visit installs node's branch constraint, sets its precomputed tour
// active, and re-runs the cut-and-piv loop — spec.md §4.8's node-visit
// sequence. The constraint is removed again before Visit returns,
// regardless of outcome ("unclamp on the way back").
func Visit(driver *cutandpiv.Driver, node *BranchNode, cfg Config) (lprelax.PivType, error) {
	row, err := branchRow(node.EdgeIdx, node.Dir)
	if err != nil {
		return lprelax.Frac, err
	}
	idxs, err := driver.LP.AddCuts([]*cutrepr.SparseRow{row}, cutrepr.Branch, nil)
	if err != nil {
		return lprelax.Frac, err
	}
	node.RowIdx = idxs[0]
	defer func() {
		_ = driver.LP.RemoveRow(node.RowIdx)
	}()

	if err := driver.LP.SetActiveTour(node.Tour); err != nil {
		return lprelax.Frac, err
	}

	saved := driver.Cfg
	driver.Cfg = cfg.CutAndPiv
	piv, _, err := driver.Run()
	driver.Cfg = saved
	return piv, err
}

// pqItem is one entry in the best-first priority queue: lower Estimate
// pops first, ties broken toward greater Depth (spec.md §4.8: "best-first
// on estimate with tie-break by depth").
type pqItem struct {
	node *BranchNode
}

type priorityQueue []pqItem

func (pq priorityQueue) Len() int { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].node.Estimate != pq[j].node.Estimate {
		return pq[i].node.Estimate < pq[j].node.Estimate
	}
	return pq[i].node.Depth > pq[j].node.Depth
}
func (pq priorityQueue) Swap(i, j int)      { pq[i], pq[j] = pq[j], pq[i] }
func (pq *priorityQueue) Push(x any)        { *pq = append(*pq, x.(pqItem)) }
func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}

// Tree is the ABC search tree's open-node frontier.
type Tree struct {
	pq     priorityQueue
	nextID int
}

// NewTree creates an empty frontier.
func NewTree() *Tree { return &Tree{} }

// NewID allocates the next BranchNode ID, for SelectAndSplit's nextID
// callback.
func (t *Tree) NewID() int { t.nextID++; return t.nextID }

// Push adds a node to the frontier.
func (t *Tree) Push(n *BranchNode) { heap.Push(&t.pq, pqItem{node: n}) }

// Pop removes and returns the best (lowest-estimate) open node, or nil if
// the frontier is empty.
func (t *Tree) Pop() *BranchNode {
	if t.pq.Len() == 0 {
		return nil
	}
	return heap.Pop(&t.pq).(pqItem).node
}

// Len reports the number of open nodes.
func (t *Tree) Len() int { return t.pq.Len() }

// Run drives the ABC tree to exhaustion or cfg.MaxNodes, starting from the
// root LP's current Frac state, returning the best tour found (best is
// updated in place) and the number of nodes visited.
//
// Errors: propagated LP failures (spec.md §7 LPFailure, fatal).
// Run drives the ABC tree to completion or until cfg.MaxNodes is spent,
// whichever comes first. The returned closed flag distinguishes the two:
// true means the frontier emptied (best is a proved optimum, spec.md §8 —
// "when the tree is exhausted, best = optimum"), false means the node
// budget cut the search short (spec.md §5/§7 — budget exhaustion is
// informational and returns best-known, not a proof).
func Run(driver *cutandpiv.Driver, best *tour.BestTour, cfg Config) (visited int, closed bool, err error) {
	tree := NewTree()
	root := &BranchNode{ID: tree.NewID(), Type: Root, Tour: append([]int(nil), best.Nodes...)}

	up, down, err := SelectAndSplit(driver, root, best, cfg, tree.NewID)
	if err != nil {
		return 0, false, err
	}
	if up != nil {
		tree.Push(up)
	}
	if down != nil {
		tree.Push(down)
	}

	for tree.Len() > 0 && visited < cfg.MaxNodes {
		node := tree.Pop()
		if node.Estimate >= best.Length-1+tour.LengthEpsilon {
			continue // pruned by bound (spec.md §4.8)
		}
		visited++

		piv, err := Visit(driver, node, cfg)
		if err != nil {
			return visited, false, err
		}
		switch piv {
		case lprelax.FathomedTourPiv, lprelax.TourPiv:
			// As in purecut.Run: the improving tour lives only in the LP's
			// x-vector here, not in the stale driver.LP.ActiveTour().
			nodes, ok := purecut.TourFromIntegralSupport(driver.G, driver.LP.X(), len(best.Nodes))
			if !ok {
				return visited, false, purecut.ErrIntegralNotHamiltonian
			}
			bt, err := tour.Build(driver.G, nodes)
			if err != nil {
				return visited, false, err
			}
			if bt.Length < best.Length-tour.LengthEpsilon {
				*best = *bt
			}
		case lprelax.Frac:
			cup, cdown, err := SelectAndSplit(driver, node, best, cfg, tree.NewID)
			if err != nil {
				return visited, false, err
			}
			if cup != nil {
				tree.Push(cup)
			}
			if cdown != nil {
				tree.Push(cdown)
			}
		}
	}
	return visited, tree.Len() == 0, nil
}
