// Command synth is the CLI driver (spec.md C11): it loads a target
// expression, assumptions, and seed roots from a YAML scenario file,
// wires the C1-C10 graph together, and streams each accepted rewrite to
// stdout as the CEGIS loop (internal/cegis) finds it.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"

	"github.com/exprsynth/synth/internal/builder"
	"github.com/exprsynth/synth/internal/cegis"
	"github.com/exprsynth/synth/internal/config"
	"github.com/exprsynth/synth/internal/cost"
	"github.com/exprsynth/synth/internal/expr"
	"github.com/exprsynth/synth/internal/scenario"
	"github.com/exprsynth/synth/internal/solver"
	"github.com/exprsynth/synth/internal/store"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [-config path] [-store path] [-verbose] <scenario.yaml>\n", os.Args[0])
}

func main() {
	var (
		configPath string
		storePath  string
		verbose    bool
	)

	args := os.Args[1:]
	var scenarioPath string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-config":
			i++
			if i >= len(args) {
				usage()
				os.Exit(1)
			}
			configPath = args[i]
		case "-store":
			i++
			if i >= len(args) {
				usage()
				os.Exit(1)
			}
			storePath = args[i]
		case "-verbose":
			verbose = true
		case "-help", "--help", "-h":
			usage()
			return
		default:
			if scenarioPath != "" {
				usage()
				os.Exit(1)
			}
			scenarioPath = args[i]
		}
	}
	if scenarioPath == "" {
		usage()
		os.Exit(1)
	}
	if storePath == "" {
		storePath = "synth-session.db"
	}

	if err := run(scenarioPath, configPath, storePath, verbose); err != nil {
		fmt.Fprintf(os.Stderr, "synth: %v\n", err)
		os.Exit(1)
	}
}

func run(scenarioPath, configPath, storePath string, verbose bool) error {
	weights := config.Default()
	if configPath != "" {
		var err error
		weights, err = config.Load(configPath)
		if err != nil {
			return err
		}
	}

	scen, err := scenario.Load(scenarioPath)
	if err != nil {
		return err
	}

	backend, err := buildSolverBackend(weights)
	if err != nil {
		return err
	}
	cachingSolver := solver.NewModelCachingSolver(backend)
	costModel := cost.NewModel(cachingSolver, weights)

	sess, err := store.Open(storePath)
	if err != nil {
		return err
	}
	defer sess.Close()

	runID := uuid.NewString()
	driver := &cegis.Driver{
		Solver:    cachingSolver,
		CostModel: costModel,
		Builder:   builder.NewEnumerator().WithRoots(scen.Roots),
		Binders:   scen.Binders,
		Verbose:   verbose,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	interactive := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())

	current := scen.Target
	seq := 0
	for improved, stepErr := range driver.Improve(ctx, scen.Target, scen.Assumptions) {
		if stepErr != nil {
			return handleStepError(ctx, stepErr, sess, driver, runID)
		}
		seq++
		printRewrite(os.Stdout, seq, improved, interactive)
		if err := sess.RecordRewrite(context.Background(), runID, seq, current, improved, ""); err != nil {
			fmt.Fprintf(os.Stderr, "synth: recording rewrite: %v\n", err)
		}
		current = improved
	}
	return nil
}

func buildSolverBackend(w config.Weights) (solver.Solver, error) {
	switch w.SolverBackend {
	case "", "local":
		return solver.NewLocalSolver(), nil
	case "remote":
		if w.RemoteSolverAddr == "" {
			return nil, errors.New("config: solver_backend \"remote\" requires remote_solver_addr")
		}
		return solver.NewRemoteSolver(w.RemoteSolverAddr)
	default:
		return nil, fmt.Errorf("config: unknown solver_backend %q", w.SolverBackend)
	}
}

// printRewrite writes one accepted rewrite. When stdout is a terminal, a
// sequence counter prefixes the line (cheap progress feedback); piped
// output gets the bare expression text, one per line, matching the
// teacher's own NO_COLOR/TTY-conditional formatting in builtins_term.go.
func printRewrite(w *os.File, seq int, e expr.Expr, interactive bool) {
	if interactive {
		fmt.Fprintf(w, "[%d] %s\n", seq, e.String())
		return
	}
	fmt.Fprintln(w, e.String())
}

func handleStepError(ctx context.Context, stepErr error, sess *store.Store, driver *cegis.Driver, runID string) error {
	if errors.Is(stepErr, cegis.ErrNoProgress) {
		fmt.Fprintln(os.Stderr, "synth: no further improvement found")
		return nil
	}
	if errors.Is(stepErr, context.Canceled) {
		sample := driver.CacheSample(64)
		if len(sample) > 0 {
			if err := sess.DumpCacheSample(context.Background(), runID, len(sample), sample); err != nil {
				fmt.Fprintf(os.Stderr, "synth: dumping cache sample: %v\n", err)
			}
		}
		fmt.Fprintln(os.Stderr, "synth: interrupted")
		return nil
	}
	var regression *cegis.CostRegressionError
	if errors.As(stepErr, &regression) {
		return fmt.Errorf("cost model regression: %w", regression)
	}
	return stepErr
}
