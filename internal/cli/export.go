package cli

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	chartio "github.com/matzehuels/chartsnap/pkg/io"
	"github.com/matzehuels/chartsnap/pkg/pipeline"
)

// exportOpts holds the command-line flags for the export command.
type exportOpts struct {
	exportFlags
	overlay string // overlay (edge) scene file
	stem    string // output file stem; defaults to the input name
	json    bool   // print the result as JSON instead of styled output
}

// exportCommand creates the export command for single chart files.
func (c *CLI) exportCommand() *cobra.Command {
	var opts exportOpts

	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Export an SVG or bitmap chart as PNG, JPEG or SVG",
		Long: `Export a chart file. SVG input is restyled for the chosen mode and either
serialized as a standalone SVG or rasterized; bitmap input is passed through.

The primary layer is written as {stem}.{ext} and the overlay layer, read
from --overlay, as {stem}-canny.{ext}.`,
		Example: `  chartsnap export chart.svg
  chartsnap export chart.svg --mode filled --format svg
  chartsnap export chart.svg --overlay edges.svg --layers both -o out/`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExport(cmd, args[0], &opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVar(&opts.overlay, "overlay", "", "overlay scene file (SVG) for the overlay layer")
	cmd.Flags().StringVar(&opts.stem, "stem", "", "output file stem (default: input file name)")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print the result as JSON")

	return cmd
}

func (c *CLI) runExport(cmd *cobra.Command, input string, opts *exportOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	pipeOpts, err := opts.options(cmd, cfg)
	if err != nil {
		return err
	}

	snap, err := chartio.ImportSnapshot(input, opts.overlay)
	if err != nil {
		return err
	}

	stem := opts.stem
	if stem == "" {
		stem = inputStem(input)
	}
	job, err := pipeOpts.Job(stem, snap)
	if err != nil {
		return err
	}

	cc, err := newCache(ctx, cfg.Cache, opts.noCache)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(cc, cfg.Cache.Keyer(), opts.dir(cfg), pipeOpts)
	if err != nil {
		cc.Close()
		return err
	}
	defer runner.Close()

	logger.Debug("exporting", "input", input, "stem", stem, "format", job.Format, "variant", job.Variant)
	var status io.Writer
	if !opts.json {
		status = cmd.ErrOrStderr()
	}
	var res *pipeline.Result
	err = withSpinner(ctx, status, "Exporting "+stem+"...", func() error {
		var err error
		res, err = runner.Run(ctx, job)
		return err
	})
	if err != nil {
		return err
	}

	if opts.json {
		return chartio.WriteResultJSON(cmd.OutOrStdout(), stem, res)
	}
	printSuccess("Exported %s", StyleHighlight.Render(stem))
	for _, a := range res.Artifacts {
		printArtifact(a)
	}
	if opts.overlay == "" {
		printNextStep("Export a whole corpus", appName+" batch")
	}
	return nil
}

// inputStem is the input's base name without extension.
func inputStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
