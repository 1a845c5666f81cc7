package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/chartsnap/pkg/buildinfo"
)

// RootCommand creates the root cobra command with all subcommands registered.
//
// The logger is attached to each command's context before it runs, so
// helpers reach it through loggerFromContext.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "chartsnap exports chart snapshots as PNG, JPEG and SVG",
		Long: `chartsnap exports rendered charts and their edge overlays as standalone
image files, restyled for outline or filled presentation, and drives batch
exports across every combination of chart settings.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "config file (default $XDG_CONFIG_HOME/chartsnap/config.toml)")

	root.AddCommand(c.exportCommand())
	root.AddCommand(c.batchCommand())
	root.AddCommand(c.planCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}
