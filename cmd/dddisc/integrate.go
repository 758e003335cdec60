package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/brucejunlee/data-driven-discretization-1d/dataset"
	"github.com/brucejunlee/data-driven-discretization-1d/equation"
	"github.com/brucejunlee/data-driven-discretization-1d/integrate"
)

func runIntegrate(args []string) error {
	fs := flag.NewFlagSet("integrate", flag.ExitOnError)
	equationName := fs.String("equation", "burgers", "Equation name (burgers, kdv, ks)")
	conservative := fs.Bool("conservative", true, "Use the flux-form discretization")
	timeEnd := fs.Float64("time", 1.0, "End time for integration")
	methodName := fs.String("method", "tsit5", "Integration method (tsit5, rk45, rk4, euler)")
	downsample := fs.Int("downsample", 100, "Target number of snapshots in the output")
	output := fs.String("output", "", "Output CSV file for the trajectory (required)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: dddisc integrate <initial.csv> [options]

Integrate the classical discretization of an equation from the first
snapshot stored in the input file, and write the sampled trajectory.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return fmt.Errorf("initial state file required")
	}
	if *output == "" {
		fs.Usage()
		return fmt.Errorf("output file required")
	}

	snapshots, err := dataset.LoadCSV(fs.Arg(0))
	if err != nil {
		return err
	}
	u0 := snapshots[0]

	eq, err := equation.New(*equationName, *conservative, len(u0))
	if err != nil {
		return err
	}

	var method *integrate.Method
	opts := integrate.DefaultOptions()
	switch *methodName {
	case "tsit5":
		method = integrate.Tsit5()
	case "rk45":
		method = integrate.RK45()
	case "rk4":
		method = integrate.RK4()
		opts = integrate.FixedStepOptions(1e-4, 10000000)
	case "euler":
		method = integrate.Euler()
		opts = integrate.FixedStepOptions(1e-5, 100000000)
	default:
		return fmt.Errorf("unknown integration method: %s", *methodName)
	}

	prob := integrate.BaselineProblem(eq, u0, [2]float64{0, *timeEnd})
	sol := integrate.Solve(prob, method, opts)

	finalTime := sol.T[len(sol.T)-1]
	if finalTime < *timeEnd {
		fmt.Fprintf(os.Stderr, "Warning: integration stopped early at t=%g\n", finalTime)
	}

	sampled := sol.Sample(*downsample)
	if err := dataset.SaveCSV(*output, sampled.U); err != nil {
		return err
	}
	fmt.Printf("Wrote %d snapshots up to t=%g to %s\n", len(sampled.U), finalTime, *output)
	return nil
}
