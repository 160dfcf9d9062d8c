// Command abctsp drives a primal cutting-plane and augment-branch-cut
// solve of a symmetric TSP instance end to end (spec.md §6's CLI surface),
// grounded on zengxiaofei-ALLHiC/cmd/allhic.go's single-binary,
// urfave/cli command-table shape.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/abctsp/abctsp/core"
	"github.com/abctsp/abctsp/instance"
	"github.com/abctsp/abctsp/purecut"
	"github.com/abctsp/abctsp/solver"
	"github.com/abctsp/abctsp/tour"
	logging "github.com/op/go-logging"
	"github.com/urfave/cli/v2"
)

var log = logging.MustGetLogger("abctsp")

func init() {
	backend := logging.NewLogBackend(os.Stderr, "", 0)
	formatted := logging.NewBackendFormatter(backend, logging.MustStringFormatter(
		`%{time:15:04:05.000} %{level:.4s} %{message}`,
	))
	logging.SetBackend(formatted)
}

func main() {
	app := &cli.App{
		Name:  "abctsp",
		Usage: "primal cutting-plane / branch-and-cut solver for symmetric TSP",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "problem", Aliases: []string{"f"}, Usage: "TSPLIB problem file"},
			&cli.Int64Flag{Name: "seed", Aliases: []string{"s"}, Usage: "random instance seed"},
			&cli.IntFlag{Name: "ncount", Aliases: []string{"R"}, Usage: "random instance node count"},
			&cli.IntFlag{Name: "grid", Aliases: []string{"g"}, Value: 1000, Usage: "random instance grid size"},
			&cli.StringFlag{Name: "tour", Aliases: []string{"t"}, Usage: "starting tour .sol file"},
			&cli.StringFlag{Name: "preset", Aliases: []string{"c"}, Value: "vanilla", Usage: "cut-selection preset: vanilla|aggressive|sparse"},
			&cli.BoolFlag{Name: "price", Value: true, Usage: "enable edge pricing between pure-cut rounds"},
			&cli.BoolFlag{Name: "branch", Value: true, Usage: "enable the ABC tree fallback when pure-cut stalls fractional"},
			&cli.DurationFlag{Name: "time-budget", Usage: "cooperative wall-clock budget, 0 for unlimited"},
			&cli.IntFlag{Name: "node-budget", Usage: "bound on purecut rounds / branch nodes, 0 for unlimited"},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output file prefix (defaults to the problem name)"},
			&cli.BoolFlag{Name: "write-xy", Usage: "also write a probname.xy coordinate dump"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		if ec, ok := err.(cli.ExitCoder); ok {
			log.Errorf("%v", err)
			os.Exit(ec.ExitCode())
		}
		log.Errorf("%v", err)
		os.Exit(2)
	}
}

func run(c *cli.Context) error {
	inst, err := loadInstance(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("bad input: %v", err), 1)
	}

	startTour, err := loadStartingTour(c, inst)
	if err != nil {
		return cli.Exit(fmt.Sprintf("bad input: %v", err), 1)
	}

	preset := solver.CutPreset(c.String("preset"))
	switch preset {
	case solver.Vanilla, solver.Aggressive, solver.Sparse:
	default:
		return cli.Exit(fmt.Sprintf("bad input: unknown preset %q", preset), 1)
	}

	cfg := solver.DefaultConfig()
	cfg.Preset = preset
	cfg.PricingOn = c.Bool("price")
	cfg.BranchOn = c.Bool("branch")
	cfg.NodeBudget = c.Int("node-budget")
	if cfg.NodeBudget > 0 {
		cfg.Branch.MaxNodes = cfg.NodeBudget
	}

	sc, err := solver.New(inst, startTour, cfg)
	if err != nil {
		return cli.Exit(fmt.Sprintf("bad input: %v", err), 1)
	}

	ctx := context.Background()
	var cancel context.CancelFunc
	if budget := c.Duration("time-budget"); budget > 0 {
		ctx, cancel = context.WithTimeout(ctx, budget)
		defer cancel()
	}

	log.Infof("solving %s (%d nodes), preset=%s price=%v branch=%v", inst.Name, inst.N, preset, cfg.PricingOn, cfg.BranchOn)
	start := time.Now()
	out, err := sc.Solve(ctx)
	if err != nil && err != solver.ErrTimedOut {
		return cli.Exit(fmt.Sprintf("runtime error: %v", err), 2)
	}
	elapsed := time.Since(start)

	status := "best known"
	if out.Proved {
		status = "proved optimal"
	}
	log.Infof("done in %s: length=%g nodes_visited=%d (%s)", elapsed, out.Best.Length, out.NodesVisited, status)

	if err := writeOutputs(c, inst, &out.Best); err != nil {
		return cli.Exit(fmt.Sprintf("runtime error: %v", err), 2)
	}
	return nil
}

// loadInstance resolves either a TSPLIB problem file or a random geometric
// instance from -s/-R/-g (spec.md §6), mutually exclusive.
func loadInstance(c *cli.Context) (*instance.Instance, error) {
	problem := c.String("problem")
	ncount := c.Int("ncount")
	switch {
	case problem != "" && ncount > 0:
		return nil, fmt.Errorf("specify either --problem or --ncount, not both")
	case problem != "":
		f, err := os.Open(problem)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		in, err := instance.ParseTSPLIB(f)
		if err != nil {
			return nil, err
		}
		if c.String("out") == "" {
			c.Set("out", strings.TrimSuffix(filepath.Base(problem), filepath.Ext(problem)))
		}
		return in, nil
	case ncount > 0:
		return instance.RandomGeometric(c.Int64("seed"), ncount, c.Int("grid"))
	default:
		return nil, fmt.Errorf("must specify --problem or --ncount")
	}
}

// loadStartingTour reads an optional .sol file, falling back to a greedy
// tour built from an all-zero x by identityBootstrap (spec.md §4.7's recovery
// heuristic, reused here as the "no starting tour given" bootstrap).
func loadStartingTour(c *cli.Context, inst *instance.Instance) ([]int, error) {
	path := c.String("tour")
	if path == "" {
		return identityBootstrap(inst), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	nodes, err := instance.ParseSol(f)
	if err != nil {
		return nil, err
	}
	if len(nodes) != inst.N {
		return nil, fmt.Errorf("starting tour has %d nodes, instance has %d", len(nodes), inst.N)
	}
	return nodes, nil
}

// identityBootstrap builds a greedy tour over the complete graph with an
// all-zero x, so GreedyTour takes edges shortest first, and falls back to
// the identity permutation 0..n-1 only if that construction fails, giving
// purecut a non-pathological starting point without requiring a -t flag.
func identityBootstrap(inst *instance.Instance) []int {
	n := inst.N
	g := core.NewCoreGraph(n)
	var x []float64
	for u := 0; u < n; u++ {
		for v := u + 1; v < n; v++ {
			if _, err := g.AddEdge(u, v, inst.At(u, v)); err != nil {
				break
			}
			x = append(x, 0)
		}
	}
	if nodes, ok := purecut.GreedyTour(g, x, n, nil, nil); ok {
		return nodes
	}
	ids := make([]int, n)
	for i := range ids {
		ids[i] = i
	}
	return ids
}

// writeOutputs emits probname.sol, probname_tour.x, and (if requested)
// probname.xy (spec.md §6 output section).
func writeOutputs(c *cli.Context, inst *instance.Instance, best *tour.BestTour) error {
	prefix := c.String("out")
	if prefix == "" {
		prefix = inst.Name
	}

	sol, err := os.Create(prefix + ".sol")
	if err != nil {
		return err
	}
	defer sol.Close()
	if err := instance.WriteSol(sol, best.Nodes); err != nil {
		return err
	}

	edges, err := os.Create(prefix + "_tour.x")
	if err != nil {
		return err
	}
	defer edges.Close()
	if err := instance.WriteTourEdges(edges, best.Nodes); err != nil {
		return err
	}

	if c.Bool("write-xy") && inst.Coords != nil {
		xy, err := os.Create(prefix + ".xy")
		if err != nil {
			return err
		}
		defer xy.Close()
		if err := instance.WriteXY(xy, inst.Coords); err != nil {
			return err
		}
	}
	return nil
}
