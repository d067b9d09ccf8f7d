package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/johnqtcg/guescus/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := runWithRunner(ctx, os.Args[1:], cli.NewApp(cli.AppDeps{}))
	stop()
	os.Exit(code)
}

func runWithRunner(ctx context.Context, args []string, runner cli.Runner) int {
	return runner.Run(ctx, args)
}
