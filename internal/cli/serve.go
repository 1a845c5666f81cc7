package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/chartsnap/internal/server"
	"github.com/matzehuels/chartsnap/pkg/cache"
)

// serveCommand creates the serve command for the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		flags     exportFlags
		addr      string
		withBatch bool
		maxStored int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the export API over HTTP",
		Long: `Serve POST /api/export for uploaded chart files and, with --batch,
POST /api/batch for plan runs against the reference chart renderer.
Batch artifacts are written to the output directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			defaults, err := flags.options(cmd, cfg)
			if err != nil {
				return err
			}
			cfg.Options = defaults

			opts := []server.Option{
				server.WithDefaults(defaults),
				server.WithLogger(logger),
				server.WithMaxExports(maxStored),
			}

			var cc cache.Cache
			if withBatch {
				setup, err := c.newBatchSetup(ctx, cfg, flags.dir(cfg), flags, "")
				if err != nil {
					return err
				}
				defer setup.Close()
				cc = setup.cache
				opts = append(opts, server.WithBatch(setup.orch))
			} else {
				if cc, err = newCache(ctx, cfg.Cache, flags.noCache); err != nil {
					return err
				}
				defer cc.Close()
			}
			opts = append(opts, server.WithCache(cc, cfg.Cache.Keyer()))

			printInfo("Listening on %s", StyleLink.Render("http://"+addr))
			if withBatch {
				printDetail("Batch exports enabled, writing to %s", flags.dir(cfg))
			}
			return server.New(opts...).ListenAndServe(ctx, addr)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", server.DefaultAddr, "listen address")
	cmd.Flags().BoolVar(&withBatch, "batch", false, "enable POST /api/batch")
	cmd.Flags().IntVar(&maxStored, "max-exports", server.DefaultMaxExports, "exports kept in memory for download")

	return cmd
}
