package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "generate":
		if err := generate(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "train":
		if err := train(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "integrate":
		if err := runIntegrate(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "help", "-h", "--help":
		printUsage()
	case "version", "-v", "--version":
		fmt.Println("dddisc version 1.0.0")
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`dddisc - data-driven discretization for 1-D evolution equations

Usage:
  dddisc <command> [options]

Commands:
  generate   Generate training snapshots by integrating an equation
  train      Fit a coefficient model on stored snapshots
  integrate  Integrate the classical discretization from an initial state
  help       Show this help message
  version    Show version information

Examples:
  # Generate Burgers snapshots at high resolution
  dddisc generate --equation burgers --width 256 --output snapshots.csv

  # Train a model at 4x coarsening
  dddisc train snapshots.csv --equation burgers --factor 4 --db runs.db

  # Integrate from the first stored snapshot
  dddisc integrate snapshots.csv --equation burgers --time 1.0 --output trajectory.csv

For command-specific help, run:
  dddisc <command> --help`)
}
