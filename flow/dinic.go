// Package flow provides max-flow / min s-t cut (Dinic's algorithm) and
// Gomory-Hu tree construction (Gusfield's algorithm) over core.CoreGraph,
// used by the separator pipeline for exact primal blossom separation and
// simple domino parity's witness-graph cut search.
package flow

import (
	"context"
	"errors"
	"math"

	"github.com/abctsp/abctsp/core"
)

// Sentinel errors.
var (
	ErrSourceNotFound  = errors.New("flow: source vertex not found")
	ErrSinkNotFound    = errors.New("flow: sink vertex not found")
	ErrSameSourceSink  = errors.New("flow: source and sink must differ")
	ErrNegativeCapacity = errors.New("flow: edge capacity must be nonnegative")
)

// Options configures a Dinic run. Epsilon governs zero-capacity comparisons.
type Options struct {
	Epsilon float64
}

// DefaultOptions returns the conventional epsilon used throughout the
// solver (matches tour.LengthEpsilon's order of magnitude).
func DefaultOptions() Options { return Options{Epsilon: 1e-9} }

// arc is one directed residual arc.
type arc struct {
	to       int
	cap      float64
	reverse  int // index of the reverse arc in adj[to]
	edgeIdx  int // originating CoreGraph edge index, or -1 for a reverse-only helper
}

type residual struct {
	adj [][]arc
}

func buildResidual(g *core.CoreGraph) *residual {
	n := g.N()
	r := &residual{adj: make([][]arc, n)}
	for idx, e := range g.Edges() {
		addArcPair(r, e.U, e.V, e.Length, idx)
	}
	return r
}

func addArcPair(r *residual, u, v int, cap float64, edgeIdx int) {
	r.adj[u] = append(r.adj[u], arc{to: v, cap: cap, reverse: len(r.adj[v]), edgeIdx: edgeIdx})
	r.adj[v] = append(r.adj[v], arc{to: u, cap: cap, reverse: len(r.adj[u]) - 1, edgeIdx: edgeIdx})
}

// Result is the outcome of a max-flow computation.
type Result struct {
	Value float64
	// SourceSide holds the vertices reachable from the source in the final
	// residual graph — the minimum s-t cut's source-side partition.
	SourceSide map[int]bool
}

// MaxFlow computes the maximum flow (and induced minimum s-t cut) between
// source and sink in g, treating every edge's Length as an undirected
// capacity. Context cancellation is checked between BFS phases, mirroring
// the teacher's context-cancellable Dinic in flow/dinic.go.
//
// Errors: ErrSourceNotFound/ErrSinkNotFound if out of range,
// ErrSameSourceSink if source == sink.
func MaxFlow(ctx context.Context, g *core.CoreGraph, source, sink int, opts Options) (Result, error) {
	n := g.N()
	if source < 0 || source >= n {
		return Result{}, ErrSourceNotFound
	}
	if sink < 0 || sink >= n {
		return Result{}, ErrSinkNotFound
	}
	if source == sink {
		return Result{}, ErrSameSourceSink
	}
	r := buildResidual(g)
	eps := opts.Epsilon
	if eps <= 0 {
		eps = DefaultOptions().Epsilon
	}

	total := 0.0
	level := make([]int, n)
	iter := make([]int, n)

	for {
		select {
		case <-ctx.Done():
			return Result{Value: total}, ctx.Err()
		default:
		}
		if !bfsLevels(r, source, sink, level, eps) {
			break
		}
		for i := range iter {
			iter[i] = 0
		}
		for {
			f := dfsBlocking(r, source, sink, math.Inf(1), level, iter, eps)
			if f <= eps {
				break
			}
			total += f
		}
	}

	reachable := make(map[int]bool)
	bfsReachable(r, source, reachable, eps)
	return Result{Value: total, SourceSide: reachable}, nil
}

func bfsLevels(r *residual, source, sink int, level []int, eps float64) bool {
	for i := range level {
		level[i] = -1
	}
	level[source] = 0
	queue := []int{source}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, a := range r.adj[u] {
			if a.cap > eps && level[a.to] < 0 {
				level[a.to] = level[u] + 1
				queue = append(queue, a.to)
			}
		}
	}
	return level[sink] >= 0
}

func dfsBlocking(r *residual, u, sink int, f float64, level []int, iter []int, eps float64) float64 {
	if u == sink {
		return f
	}
	for ; iter[u] < len(r.adj[u]); iter[u]++ {
		a := &r.adj[u][iter[u]]
		if a.cap > eps && level[u] < level[a.to] {
			d := dfsBlocking(r, a.to, sink, math.Min(f, a.cap), level, iter, eps)
			if d > eps {
				a.cap -= d
				r.adj[a.to][a.reverse].cap += d
				return d
			}
		}
	}
	return 0
}

func bfsReachable(r *residual, source int, out map[int]bool, eps float64) {
	out[source] = true
	queue := []int{source}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, a := range r.adj[u] {
			if a.cap > eps && !out[a.to] {
				out[a.to] = true
				queue = append(queue, a.to)
			}
		}
	}
}
