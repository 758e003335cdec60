package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/brucejunlee/data-driven-discretization-1d/dataset"
)

func generate(args []string) error {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	equationName := fs.String("equation", "burgers", "Equation name (burgers, kdv, ks)")
	conservative := fs.Bool("conservative", true, "Use the flux-form discretization")
	width := fs.Int("width", 256, "Number of grid points")
	trajectories := fs.Int("trajectories", 10, "Number of independent trajectories")
	samples := fs.Int("samples", 100, "Snapshots kept per trajectory")
	warmup := fs.Float64("warmup", 1.0, "Integration time discarded before sampling")
	duration := fs.Float64("duration", 10.0, "Integration time covered by the samples")
	seed := fs.Int64("seed", 1, "Random seed for initial conditions")
	output := fs.String("output", "", "Output CSV file (required)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: dddisc generate [options]

Generate training snapshots by integrating the classical discretization of
an equation from random initial conditions.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *output == "" {
		fs.Usage()
		return fmt.Errorf("output file required")
	}

	cfg := dataset.DefaultGenerateConfig(*equationName)
	cfg.Conservative = *conservative
	cfg.Width = *width
	cfg.NumTrajectories = *trajectories
	cfg.SamplesPerTrajectory = *samples
	cfg.WarmupTime = *warmup
	cfg.SampleTime = *duration
	cfg.Seed = *seed

	snapshots, err := dataset.Generate(cfg)
	if err != nil {
		return err
	}
	if err := dataset.SaveCSV(*output, snapshots); err != nil {
		return err
	}

	fmt.Printf("Wrote %d snapshots of width %d to %s\n", len(snapshots), *width, *output)
	return nil
}
