package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/swatches/internal/palette"
	"github.com/jmylchreest/swatches/internal/substitute"
)

// invalidColourMessage is shown when a replacement colour is rejected.
const invalidColourMessage = "Invalid color"

func newReplaceCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "replace <swatch|colour> <new-colour>",
		Short: "Replace a colour on every element of the page",
		Long: `Replace a colour on every element of the page that uses it, then show the
refreshed palette.

The colour to replace is either a swatch number from inspect or the raw colour
string reported by the page. The new colour must be a hex colour (#rgb or
#rrggbb, optionally followed by !important) or a CSS colour name.

Every element is considered, including those hidden by --filter.

Examples:
  swatches replace -p snapshot.json 1 '#336699'
  swatches replace -p snapshot.json 'rgb(255, 0, 0)' rebeccapurple`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			oldColour := resolveColour(p, args[0])
			result, err := ctrl.Substitute(ctx, oldColour, args[1])
			if err != nil {
				if errors.Is(err, substitute.ErrInvalidColour) {
					fmt.Fprintln(a.out, invalidColourMessage)
				}
				return err
			}

			fmt.Fprintf(a.out, "Replaced %s with %s on %s.\n\n",
				oldColour, result.Request.NewColourValue, pluralise(len(result.Edits), "element"))
			fmt.Fprint(a.out, a.renderer().Render(ctrl.Palette()))
			return nil
		},
	}
}

// resolveColour maps a 1-based swatch position to its raw colour. Anything
// that is not a valid position is taken as a raw colour string.
func resolveColour(p *palette.Palette, arg string) string {
	arg = strings.TrimSpace(arg)
	if n, err := strconv.Atoi(arg); err == nil {
		if c, err := p.Get(n); err == nil {
			return c.Colour
		}
	}
	return arg
}

func pluralise(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
