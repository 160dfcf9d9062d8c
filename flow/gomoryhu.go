package flow

import (
	"context"

	"github.com/abctsp/abctsp/core"
)

// GomoryHuTree is a Gomory-Hu tree over n nodes: Parent[i] is i's tree
// parent (Parent[0] is unused — node 0 is the tree root) and Weight[i] is
// the min s-t cut value between i and Parent[i], which equals the min cut
// between i and any vertex reachable from it through a heavier path.
//
// Used by simple-domino-parity separation (spec.md §4.3 step 6): every odd
// cut of the witness graph's Gomory-Hu tree with weight < 1-ε corresponds to
// a violated simple domino parity inequality.
type GomoryHuTree struct {
	Parent []int
	Weight []float64
}

// MinCut returns the value of the minimum cut separating u and v in the
// tree, which (by the Gomory-Hu tree property) equals the minimum edge
// weight on the tree path between u and v.
func (t *GomoryHuTree) MinCut(u, v int) float64 {
	// Walk v up to the root, tracking the minimum weight seen, then
	// symmetrize by doing the same from u and taking the lighter path
	// segment — equivalent since the tree path between u and v passes
	// through their shared ancestor along parent pointers only when one is
	// an ancestor of the other; for the general case we compute via LCA by
	// walking both paths to the root and combining.
	pu := pathToRoot(t, u)
	pv := pathToRoot(t, v)
	return minOnPaths(t, pu, pv)
}

func pathToRoot(t *GomoryHuTree, x int) []int {
	path := []int{x}
	for x != 0 {
		x = t.Parent[x]
		path = append(path, x)
	}
	return path
}

func minOnPaths(t *GomoryHuTree, pu, pv []int) float64 {
	depthOf := make(map[int]int, len(pu))
	for i, node := range pu {
		depthOf[node] = i
	}
	lca := -1
	lcaDepthV := -1
	for i, node := range pv {
		if _, ok := depthOf[node]; ok {
			lca = node
			lcaDepthV = i
			break
		}
	}
	minU := walkMin(t, pu, depthOf[lca])
	minV := walkMin(t, pv, lcaDepthV)
	if minU < minV {
		return minU
	}
	return minV
}

func walkMin(t *GomoryHuTree, path []int, stopDepth int) float64 {
	min := posInf
	for i := 0; i < stopDepth; i++ {
		w := t.Weight[path[i]]
		if w < min {
			min = w
		}
	}
	return min
}

const posInf = 1e300

// BuildGomoryHuTree runs Gusfield's algorithm: n-1 max-flow computations on
// the original capacitated graph, no graph contraction required.
//
// Errors: propagates any error from the underlying MaxFlow calls.
func BuildGomoryHuTree(ctx context.Context, g *core.CoreGraph, opts Options) (*GomoryHuTree, error) {
	n := g.N()
	parent := make([]int, n)
	weight := make([]float64, n)

	for s := 1; s < n; s++ {
		t := parent[s]
		res, err := MaxFlow(ctx, g, s, t, opts)
		if err != nil {
			return nil, err
		}
		weight[s] = res.Value
		for v := 0; v < n; v++ {
			if v == s {
				continue
			}
			if res.SourceSide[v] && v != t && parent[v] == t {
				parent[v] = s
			}
		}
		if res.SourceSide[parent[t]] {
			parent[s] = parent[t]
			parent[t] = s
			weight[s] = weight[t]
			weight[t] = res.Value
		}
	}
	return &GomoryHuTree{Parent: parent, Weight: weight}, nil
}
