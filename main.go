package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ca-srg/saferestart/infrastructure/di"
	"github.com/ca-srg/saferestart/interface/cli"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	// SIGINT and SIGTERM cancel a pending confirmation wait
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := cli.NewRootCommand(version, newApp)
	cmd.SetArgs(args)

	return cli.HandleExitError(os.Stderr, cmd.ExecuteContext(ctx))
}

// newApp builds the dependency container for one invocation
func newApp(opts cli.Options) (cli.App, error) {
	containerOpts := []di.ContainerOption{}
	if opts.Debug {
		containerOpts = append(containerOpts, di.WithDebugMode(true))
	}
	if opts.ConfigPath != "" {
		containerOpts = append(containerOpts, di.WithConfigPath(opts.ConfigPath))
	}

	container, err := di.NewContainer(containerOpts...)
	if err != nil {
		return nil, err
	}
	return container, nil
}
