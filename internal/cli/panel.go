package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/swatches/internal/export"
	"github.com/jmylchreest/swatches/internal/palette"
	"github.com/jmylchreest/swatches/internal/session"
	"github.com/jmylchreest/swatches/internal/substitute"
)

const panelHelp = `Commands:
  filter <a,b,...|all|none>     select categories and rescan
  categories                    list categories of the last scan
  apply <swatch|colour> <new>   replace a colour and rescan
  sass                          print Sass variables
  less                          print Less variables
  refresh                       rescan the page
  help                          show this help
  quit                          leave the panel
`

func newPanelCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "panel",
		Short: "Interactive palette panel",
		Long: `Open an interactive panel over the page. The palette is shown on start and
after every change; commands are read one per line from standard input.

` + panelHelp,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.setup(cmd)
			if err != nil {
				return err
			}

			interactive := isTerminal(a.out)
			ctrl, closePage, err := a.openSession(cmd.Context(), session.WithOnLoading(func(on bool) {
				if interactive && on {
					fmt.Fprintln(a.out, "scanning page...")
				}
			}))
			if err != nil {
				return err
			}
			defer closePage()

			pn := &panel{app: a, ctrl: ctrl, prompt: interactive}
			return pn.run(cmd.Context(), cmd.InOrStdin())
		},
	}
}

// panel is the line-mode interactive loop.
type panel struct {
	*app
	ctrl   *session.Controller
	prompt bool
}

func (pn *panel) run(ctx context.Context, in io.Reader) error {
	pn.refresh(ctx)

	scanner := bufio.NewScanner(in)
	for {
		if pn.prompt {
			fmt.Fprint(pn.out, "> ")
		}
		if !scanner.Scan() {
			return scanner.Err()
		}

		if quit := pn.handle(ctx, scanner.Text()); quit {
			return nil
		}
	}
}

// handle runs one command line and reports whether the panel should exit.
func (pn *panel) handle(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	switch strings.ToLower(fields[0]) {
	case "quit", "exit", "q":
		return true

	case "help", "?":
		fmt.Fprint(pn.out, panelHelp)

	case "refresh", "r":
		pn.refresh(ctx)

	case "filter":
		filter, _ := selection(palette.ParseFilter(strings.Join(fields[1:], "")).List())
		pn.show(pn.do(ctx, func(ctx context.Context) (*palette.Palette, error) {
			return pn.ctrl.SetFilter(ctx, filter)
		}))

	case "categories":
		fmt.Fprint(pn.out, categoryTable(pn.ctrl.LastScan(), pn.ctrl.Filter()).Render())

	case "apply":
		if len(fields) < 3 {
			fmt.Fprintln(pn.out, "usage: apply <swatch|colour> <new-colour>")
			return false
		}
		pn.apply(ctx, strings.Join(fields[1:len(fields)-1], " "), fields[len(fields)-1])

	case "sass":
		pn.printVariables(export.DialectSass)

	case "less":
		pn.printVariables(export.DialectLess)

	default:
		fmt.Fprintf(pn.out, "unknown command: %s (type help for a list)\n", fields[0])
	}

	return false
}

func (pn *panel) refresh(ctx context.Context) {
	pn.show(pn.do(ctx, pn.ctrl.Refresh))
}

// do runs op with the configured timeout. Failures are reported and the
// previous palette stays on screen.
func (pn *panel) do(ctx context.Context, op func(context.Context) (*palette.Palette, error)) *palette.Palette {
	ctx, cancel := pn.withTimeout(ctx)
	defer cancel()

	p, err := op(ctx)
	if err != nil {
		pn.report(err)
		return nil
	}
	return p
}

func (pn *panel) show(p *palette.Palette) {
	if p == nil {
		return
	}
	fmt.Fprint(pn.out, pn.renderer().Render(p))
}

func (pn *panel) apply(ctx context.Context, target, newColour string) {
	ctx, cancel := pn.withTimeout(ctx)
	defer cancel()

	oldColour := resolveColour(pn.ctrl.Palette(), target)
	result, err := pn.ctrl.Substitute(ctx, oldColour, newColour)
	if err != nil {
		pn.report(err)
		if result == nil {
			return
		}
	}

	fmt.Fprintf(pn.out, "Replaced %s with %s on %s.\n",
		oldColour, newColour, pluralise(len(result.Edits), "element"))
	if err == nil {
		pn.show(pn.ctrl.Palette())
	}
}

func (pn *panel) printVariables(d export.Dialect) {
	listing, err := export.Render(pn.ctrl.Palette(), d)
	if err != nil {
		pn.report(err)
		return
	}
	fmt.Fprint(pn.out, listing)
}

func (pn *panel) report(err error) {
	var scanErr *session.ScanError
	switch {
	case errors.Is(err, substitute.ErrInvalidColour):
		fmt.Fprintln(pn.out, invalidColourMessage)
	case errors.Is(err, session.ErrBusy):
		fmt.Fprintln(pn.out, "busy: another operation is running")
	case errors.As(err, &scanErr):
		fmt.Fprintf(pn.out, "scan failed, showing the previous palette: %v\n", scanErr.Err)
	default:
		fmt.Fprintf(pn.out, "error: %v\n", err)
	}
}
