package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

const (
	formatText = "text"
	formatJSON = "json"
)

func newInspectCmd(opts *rootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Scan the page and show its palette",
		Long: `Scan the page and show one swatch per unique colour, most used first.

The number in front of each swatch can be passed to replace.

Examples:
  # Palette of a captured snapshot
  swatches inspect -p snapshot.json

  # Only background-color declarations, as JSON
  swatches inspect -p snapshot.json -f background-color --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format != formatText && format != formatJSON {
				return fmt.Errorf("unknown format: %s (valid formats: %s, %s)", format, formatText, formatJSON)
			}

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

			if format == formatJSON {
				data, err := p.ToJSON()
				if err != nil {
					return fmt.Errorf("failed to encode palette: %w", err)
				}
				fmt.Fprintln(a.out, string(data))
				return nil
			}

			fmt.Fprint(a.out, a.renderer().Render(p))
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", formatText, "output format (text, json)")
	return cmd
}
