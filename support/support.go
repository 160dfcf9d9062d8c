// Package support builds the SupportGraph (spec.md §3, §4.2): the subgraph
// induced by the current LP x-vector, restricted to edges with x_e > eps.
package support

import "github.com/abctsp/abctsp/core"

// ViolationEps is the default threshold below which an x-value is treated
// as zero when building the support graph.
const ViolationEps = 1e-9

// Edge is one support-graph edge: the originating CoreGraph edge index and
// its current LP value.
type Edge struct {
	CoreEdgeIdx int
	X           float64
}

// Graph is the x-value-induced support subgraph (spec.md §4.2). Built fresh
// on every pivot: NodeCount, the support edge list in CoreGraph order,
// adjacency lists carrying (neighbor, index into Edges), a Connected flag
// (DFS over support edges), and an Integral flag.
type Graph struct {
	NodeCount int
	Edges     []Edge
	// Adj[u] lists, in CoreGraph order, the support edges incident to u as
	// (neighbor, index into Edges).
	Adj       [][]AdjEntry
	Connected bool
	Integral  bool
}

// AdjEntry is one adjacency-list entry: the neighbor node and the index
// into Graph.Edges describing the connecting edge.
type AdjEntry struct {
	Neighbor int
	EdgeIdx  int
}

// Build constructs the support graph from x (indexed by CoreGraph edge
// index, len(x) == g.EdgeCount()) at the given violation threshold.
// Deterministic: edges are listed in CoreGraph order and adjacency entries
// are inserted in that same order, matching spec.md §4.2's determinism
// requirement.
func Build(g *core.CoreGraph, x []float64, eps float64) *Graph {
	if eps <= 0 {
		eps = ViolationEps
	}
	n := g.N()
	sg := &Graph{NodeCount: n, Adj: make([][]AdjEntry, n)}
	integral := true
	for idx, e := range g.Edges() {
		xv := x[idx]
		if xv <= eps {
			continue
		}
		if absDiff(xv, 1.0) > eps && xv > eps {
			integral = false
		}
		seIdx := len(sg.Edges)
		sg.Edges = append(sg.Edges, Edge{CoreEdgeIdx: idx, X: xv})
		sg.Adj[e.U] = append(sg.Adj[e.U], AdjEntry{Neighbor: e.V, EdgeIdx: seIdx})
		sg.Adj[e.V] = append(sg.Adj[e.V], AdjEntry{Neighbor: e.U, EdgeIdx: seIdx})
	}
	sg.Integral = integral
	sg.Connected = isConnected(sg)
	return sg
}

func absDiff(a, b float64) float64 {
	d := a - b
	if d < 0 {
		return -d
	}
	return d
}

// isConnected runs an iterative DFS over the support edges starting from
// node 0 (or reports trivially connected if there are no nodes).
func isConnected(sg *Graph) bool {
	if sg.NodeCount == 0 {
		return true
	}
	visited := make([]bool, sg.NodeCount)
	stack := []int{0}
	visited[0] = true
	count := 1
	for len(stack) > 0 {
		u := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, a := range sg.Adj[u] {
			if !visited[a.Neighbor] {
				visited[a.Neighbor] = true
				count++
				stack = append(stack, a.Neighbor)
			}
		}
	}
	return count == sg.NodeCount
}

// Components returns the connected components of the support graph as
// slices of node ids, used by the connected-component SEC separator
// (spec.md §4.3 step 7).
func Components(sg *Graph) [][]int {
	visited := make([]bool, sg.NodeCount)
	var comps [][]int
	for s := 0; s < sg.NodeCount; s++ {
		if visited[s] {
			continue
		}
		var comp []int
		stack := []int{s}
		visited[s] = true
		for len(stack) > 0 {
			u := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			comp = append(comp, u)
			for _, a := range sg.Adj[u] {
				if !visited[a.Neighbor] {
					visited[a.Neighbor] = true
					stack = append(stack, a.Neighbor)
				}
			}
		}
		comps = append(comps, comp)
	}
	return comps
}
