package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jmylchreest/swatches/internal/export"
	"github.com/jmylchreest/swatches/internal/palette"
)

var (
	_ pflag.Value = (*export.Dialect)(nil)
	_ pflag.Value = (*dialectList)(nil)
	_ pflag.Value = (*palette.Filter)(nil)
)

// dialectList is a flag value accepting "all" or comma separated dialects.
type dialectList []export.Dialect

func (l *dialectList) String() string {
	names := make([]string, len(*l))
	for i, d := range *l {
		names[i] = strings.ToLower(string(d))
	}
	return strings.Join(names, ",")
}

func (l *dialectList) Set(s string) error {
	if strings.EqualFold(strings.TrimSpace(s), "all") {
		*l = export.ValidDialects()
		return nil
	}

	var out dialectList
	for _, part := range strings.Split(s, ",") {
		var d export.Dialect
		if err := d.Set(strings.TrimSpace(part)); err != nil {
			return err
		}
		out = append(out, d)
	}
	*l = out
	return nil
}

func (l *dialectList) Type() string {
	return "dialects"
}

func newExportCmd(opts *rootOptions) *cobra.Command {
	dialects := dialectList(export.ValidDialects())

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print the palette as Sass or Less variables",
		Long: `Print the palette as stylesheet precompiler variables, one per unique colour
in palette order.

Examples:
  swatches export -p snapshot.json --dialect sass
  swatches export -p snapshot.json --dialect all`,
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

			p, err := ctrl.Refresh(ctx)
			if err != nil {
				return err
			}

			for i, d := range dialects {
				listing, err := export.Render(p, d)
				if err != nil {
					return err
				}
				if i > 0 {
					fmt.Fprintln(a.out)
				}
				fmt.Fprint(a.out, listing)
			}
			return nil
		},
	}

	cmd.Flags().Var(&dialects, "dialect", "variable syntax: sass, less or all")
	return cmd
}
