// Command tapermiss is a thin CLI driver over the permissiveness engine: it
// reads a TA description from a JSON file, runs the backtracking search from
// a starting configuration toward a goal location, and prints the resulting
// trace's permissiveness. It is a caller of the core packages, not part of
// them, in the same spirit as the teacher's examples/ directory.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ta-lab/permissiveness/automaton"
	"github.com/ta-lab/permissiveness/delay"
	"github.com/ta-lab/permissiveness/engine"
	"github.com/ta-lab/permissiveness/opponent"
	"github.com/ta-lab/permissiveness/tabuilder"
	"github.com/ta-lab/permissiveness/talog"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("tapermiss", flag.ContinueOnError)
	taPath := fs.String("ta", "", "path to a TA JSON document")
	start := fs.String("start", "", "start configuration as location:v0,v1,...")
	goal := fs.String("goal", "", "goal location name")
	opponentName := fs.String("opponent", "worst-case", "opponent strategy: worst-case, worst-case-approx, brute-force, low, up")
	verbose := fs.Bool("verbose", false, "log search progress to stderr")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *taPath == "" || *start == "" || *goal == "" {
		return fmt.Errorf("tapermiss: -ta, -start, and -goal are required")
	}

	spec, err := loadSpec(*taPath)
	if err != nil {
		return err
	}
	ta, err := tabuilder.Build(spec)
	if err != nil {
		return fmt.Errorf("tapermiss: %w", err)
	}

	config, err := parseStart(*start)
	if err != nil {
		return fmt.Errorf("tapermiss: %w", err)
	}

	strategy, err := pickOpponent(*opponentName)
	if err != nil {
		return fmt.Errorf("tapermiss: %w", err)
	}

	var opts []engine.Option
	opts = append(opts, engine.WithOpponentStrategy(strategy))
	if *verbose {
		opts = append(opts, engine.WithLogger(talog.NewConsoleSink(stderr)))
	}
	bt := engine.NewBacktracker(opts...)

	trace, perm, err := bt.Run(context.Background(), ta, config, *goal)
	if err != nil {
		fmt.Fprintf(stdout, "search ended with: %v\n", err)
	}
	fmt.Fprintf(stdout, "trace length: %d\n", trace.Len())
	fmt.Fprintf(stdout, "permissiveness: %s\n", perm)
	return nil
}

func loadSpec(path string) (tabuilder.TASpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return tabuilder.TASpec{}, fmt.Errorf("tapermiss: reading %s: %w", path, err)
	}
	var spec tabuilder.TASpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return tabuilder.TASpec{}, fmt.Errorf("tapermiss: decoding %s: %w", path, err)
	}
	return spec, nil
}

// parseStart accepts "location:v0,v1,..." and builds a Configuration.
func parseStart(s string) (automaton.Configuration, error) {
	location, rest, found := strings.Cut(s, ":")
	if !found {
		return automaton.Configuration{}, fmt.Errorf("start %q: want location:v0,v1,...", s)
	}
	var valuation []delay.Delay
	if rest != "" {
		for _, field := range strings.Split(rest, ",") {
			n, err := strconv.ParseInt(field, 10, 64)
			if err != nil {
				return automaton.Configuration{}, fmt.Errorf("start %q: %w", s, err)
			}
			v, err := delay.FromInt(n)
			if err != nil {
				return automaton.Configuration{}, fmt.Errorf("start %q: %w", s, err)
			}
			valuation = append(valuation, v)
		}
	}
	return automaton.Configuration{Location: location, Valuation: valuation}, nil
}

func pickOpponent(name string) (opponent.Strategy, error) {
	switch name {
	case "worst-case":
		return opponent.WorstCaseBranchFree(), nil
	case "worst-case-approx":
		eps, err := delay.FromFraction(1, 100)
		if err != nil {
			return nil, err
		}
		return opponent.WorstCaseBranchFreeApproximate(eps), nil
	case "brute-force":
		step, err := delay.FromFraction(1, 10)
		if err != nil {
			return nil, err
		}
		return opponent.BruteForce(step), nil
	case "low":
		return opponent.LowCase(), nil
	case "up":
		return opponent.UpCase(), nil
	default:
		return nil, fmt.Errorf("unknown opponent strategy %q", name)
	}
}
