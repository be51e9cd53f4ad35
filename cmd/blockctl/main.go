package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"

	"github.com/fatih/color"
)

func main() {
	if err := run(); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		color.New(color.FgRed).Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return buildCLI(os.Stdout).ParseAndRun(ctx, os.Args[1:])
}
