package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/chartsnap/pkg/batch"
	"github.com/matzehuels/chartsnap/pkg/errors"
)

// planCommand creates the plan command, which lists what batch would export.
func (c *CLI) planCommand() *cobra.Command {
	var (
		opts   batchOpts
		asJSON bool
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "List the items a batch run would export",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if err := opts.applyPlanFlags(&cfg); err != nil {
				return err
			}
			if len(cfg.Dimensions) == 0 {
				return errors.New(errors.ErrCodeInvalidPlan, "no dimensions: add [[dimension]] tables to the config or pass --dim")
			}
			plan, err := cfg.Plan()
			if err != nil {
				return err
			}
			if asJSON {
				return writePlanJSON(cmd.OutOrStdout(), plan)
			}
			printPlan(plan, limit)
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&opts.dims, "dim", nil, "plan dimension as name=value,value (repeatable)")
	cmd.Flags().StringVar(&opts.prefix, "prefix", "", "stem prefix (default from config)")
	cmd.Flags().StringVar(&opts.assetDim, "asset-dim", "", "dimension selecting overlay assets")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print items as JSON lines")
	cmd.Flags().IntVar(&limit, "limit", 50, "show at most this many items (0 for all)")

	return cmd
}

type planItem struct {
	Index  int               `json:"index"`
	Stem   string            `json:"stem"`
	Coords map[string]string `json:"coords"`
}

func writePlanJSON(w io.Writer, plan *batch.Plan) error {
	enc := json.NewEncoder(w)
	for _, it := range plan.Items() {
		if err := enc.Encode(planItem{Index: it.Index, Stem: it.Stem, Coords: it.Coordinates()}); err != nil {
			return err
		}
	}
	return nil
}

func printPlan(plan *batch.Plan, limit int) {
	n := plan.Len()
	printInfo("%s items across %d dimensions", StyleNumber.Render(fmt.Sprint(n)), len(plan.Dimensions))
	for _, d := range plan.Dimensions {
		labels := make([]string, len(d.Values))
		for i, v := range d.Values {
			labels[i] = v.Label
		}
		name := d.Name
		if name == plan.AssetDimension {
			name += " (asset)"
		}
		printKeyValue(name, fmt.Sprint(labels))
	}

	shown := n
	if limit > 0 && limit < n {
		shown = limit
	}
	headers := append([]string{"#", "Stem"}, dimensionNames(plan)...)
	rows := make([][]string, 0, shown)
	for i := 0; i < shown; i++ {
		it := plan.Item(i)
		row := []string{fmt.Sprint(i + 1), it.Stem}
		for _, d := range plan.Dimensions {
			label, _ := it.Label(d.Name)
			row = append(row, label)
		}
		rows = append(rows, row)
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 1 {
				return StyleValue
			}
			return StyleDim
		})
	fmt.Println(t.Render())
	if shown < n {
		printDetail("... %d more (use --limit 0 to show all)", n-shown)
	}
}

func dimensionNames(plan *batch.Plan) []string {
	names := make([]string, len(plan.Dimensions))
	for i, d := range plan.Dimensions {
		names[i] = d.Name
	}
	return names
}
