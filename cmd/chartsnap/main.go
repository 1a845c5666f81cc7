package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/matzehuels/chartsnap/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx)
	stop()
	os.Exit(code)
}

// run executes the command line and returns the process exit status.
// Interrupting a batch cancels ctx; the orchestrator restores the renderer
// before run returns.
func run(ctx context.Context) int {
	c := cli.New(os.Stderr, cli.LogInfo)
	root := c.RootCommand()

	var verbose, quiet bool
	flags := root.PersistentFlags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "log every artifact, cache hit and retry")
	flags.BoolVarP(&quiet, "quiet", "q", false, "log warnings and errors only")
	root.MarkFlagsMutuallyExclusive("verbose", "quiet")

	attachLogger := root.PersistentPreRunE
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		switch {
		case verbose:
			c.SetLogLevel(cli.LogDebug)
		case quiet:
			c.SetLogLevel(cli.LogWarn)
		}
		return attachLogger(cmd, args)
	}

	return cli.ExitCode(os.Stderr, root.ExecuteContext(ctx))
}
