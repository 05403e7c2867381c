package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/swatches/internal/palette"
)

func newCategoriesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the colour categories reported by the page",
		Long: `List every category (the style property a colour was read from) reported by
the page, with the number of elements and distinct colours in each. Selected
categories are the ones --filter keeps.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.setup(cmd)
			if err != nil {
				return err
			}

			ctrl, closePage, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer closePage()

			ctx, cancel := a.withTimeout(cmd.Context())
			defer cancel()

			if _, err := ctrl.Refresh(ctx); err != nil {
				return err
			}

			fmt.Fprint(a.out, categoryTable(ctrl.LastScan(), ctrl.Filter()).Render())
			return nil
		},
	}
}

// categoryTable summarises scan per category. A nil filter selects all.
func categoryTable(scan *palette.Scan, filter palette.Filter) *Table {
	table := NewTable([]string{"CATEGORY", "ELEMENTS", "COLOURS", "SELECTED"})
	if scan == nil {
		return table
	}

	for _, category := range scan.Categories() {
		p := palette.Aggregate(scan, palette.NewFilter(category))

		selected := "no"
		if filter == nil || filter.Has(category) {
			selected = "yes"
		}

		table.AddRow([]string{
			category,
			fmt.Sprintf("%d", len(p.Elements)),
			fmt.Sprintf("%d", p.Len()),
			selected,
		})
	}
	return table
}
