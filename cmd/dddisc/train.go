package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/brucejunlee/data-driven-discretization-1d/dataset"
	"github.com/brucejunlee/data-driven-discretization-1d/model"
	"github.com/brucejunlee/data-driven-discretization-1d/training"
)

func train(args []string) error {
	fs := flag.NewFlagSet("train", flag.ExitOnError)
	equationName := fs.String("equation", "burgers", "Equation name (burgers, kdv, ks)")
	conservative := fs.Bool("conservative", true, "Use the flux-form discretization")
	factor := fs.Int("factor", 4, "Resample factor between fine and coarse grids")
	layers := fs.Int("layers", 3, "Convolution layers (0 selects fixed coefficients)")
	filters := fs.Int("filters", 32, "Hidden channels per convolution layer")
	accuracy := fs.Int("accuracy", 2, "Polynomial accuracy order (0 for unconstrained)")
	method := fs.String("method", "nelder-mead", "Optimization method (nelder-mead, coordinate-descent)")
	maxIters := fs.Int("iters", 1000, "Maximum optimization iterations")
	dbPath := fs.String("db", "", "SQLite file for recording metrics (optional)")
	verbose := fs.Bool("verbose", false, "Log optimization progress")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: dddisc train <snapshots.csv> [options]

Fit a coefficient-prediction model on stored high-resolution snapshots.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return fmt.Errorf("snapshots file required")
	}

	snapshots, err := dataset.LoadCSV(fs.Arg(0))
	if err != nil {
		return err
	}

	cfg := training.DefaultConfig(*equationName)
	cfg.Conservative = *conservative
	cfg.ResampleFactor = *factor
	cfg.NumLayers = *layers
	cfg.FilterSize = *filters
	cfg.PolynomialAccuracyOrder = *accuracy

	trainingSnapshots, validationSnapshots := cfg.SplitSnapshots(snapshots)
	if len(validationSnapshots) == 0 {
		validationSnapshots = trainingSnapshots
	}

	scales, err := training.DetermineLossScales(trainingSnapshots, cfg)
	if err != nil {
		return err
	}
	samples, err := model.PrepareSamples(trainingSnapshots, cfg.Config)
	if err != nil {
		return err
	}

	m, err := model.New(cfg.Config, samples.Inputs.Width())
	if err != nil {
		return err
	}
	fmt.Printf("Training %s scheme with %d parameters on %d snapshots\n",
		m.Scheme(), m.NumParams(), len(trainingSnapshots))

	opts := training.DefaultFitOptions()
	opts.Method = *method
	opts.MaxIters = *maxIters
	opts.Verbose = *verbose

	result, err := training.Fit(m, samples, scales, cfg, opts)
	if err != nil {
		return err
	}
	fmt.Printf("Loss: %g -> %g after %d iterations\n",
		result.InitialLoss, result.FinalLoss, result.Iterations)

	validation, err := model.PrepareSamples(validationSnapshots, cfg.Config)
	if err != nil {
		return err
	}
	predictions, err := m.PredictAllDerivatives(validation.Inputs, false)
	if err != nil {
		return err
	}
	loss := training.Loss(predictions, validation.Labels, validation.Baseline, scales, cfg)
	metrics := training.CalculateMetrics(
		predictions, validation.Labels, validation.Baseline, loss,
		m.Equation().DerivativeOrders())
	fmt.Println(training.OneLine(metrics))

	if *dbPath != "" {
		rec, err := training.NewRecorder(*dbPath, *equationName)
		if err != nil {
			return err
		}
		defer rec.Close()
		if err := rec.Record(result.Iterations, metrics); err != nil {
			return err
		}
		fmt.Printf("Recorded run %s to %s\n", rec.RunID(), *dbPath)
	}
	return nil
}
