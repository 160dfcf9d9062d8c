// Package abctsp is a primal cutting-plane and augment-branch-cut solver for
// the symmetric Traveling Salesman Problem.
//
// Given a symmetric TSP instance, the solver proves optimality by
// maintaining a linear-programming relaxation over the subtour polytope,
// iteratively pivoting from the incumbent best tour, separating violated
// inequalities that are tight at the incumbent (primal separation), and
// branching when cutting alone stalls.
//
// The module is organized as a set of cooperating packages under the module
// root, in the spirit of a small standard library rather than one monolithic
// package:
//
//	core/       — CoreGraph: the active edge set and adjacency
//	matrix/     — dense matrix type backing instance distances
//	matrix/ops/ — LU factorization (LP basis warm start)
//	flow/       — max-flow / min-cut and Gomory-Hu tree construction
//	instance/   — TSPLIB I/O, .sol I/O, random geometric instances
//	tour/       — BestTour/ActiveTour and tour utilities
//	support/    — SupportGraph construction from an LP x-vector
//	cutrepr/    — Clique, CliqueBank, SimpleTooth, ToothBank, HyperGraph
//	lprelax/    — CoreLP: the bounded-variable primal simplex wrapper
//	separator/  — the primal separator pipeline
//	cutpool/    — long-lived cut storage, aging, pruning
//	pricer/     — reduced-cost edge pricing and elimination
//	cutandpiv/  — the cut-and-piv driver
//	purecut/    — the pure-cut loop and x-tour recovery heuristic
//	branch/     — the augment-branch-cut (ABC) tree controller
//	solver/     — SolverContext, the top-level entry point
//	cmd/abctsp/ — the command-line interface
//
// See SPEC_FULL.md and DESIGN.md in the repository root for the full design
// rationale.
package abctsp
