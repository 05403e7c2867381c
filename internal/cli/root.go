// Package cli provides the command-line interface for swatches.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jmylchreest/swatches/internal/config"
	"github.com/jmylchreest/swatches/internal/page"
	"github.com/jmylchreest/swatches/internal/palette"
	"github.com/jmylchreest/swatches/internal/session"
	"github.com/jmylchreest/swatches/internal/swatch"
	"github.com/jmylchreest/swatches/internal/version"
)

// rootOptions holds the global flags.
type rootOptions struct {
	verbose    bool
	quiet      bool
	page       string
	filter     palette.Filter
	configPath string
	noColour   bool
	timeout    time.Duration
}

// NewRootCmd builds the swatches command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "swatches",
		Short: "Inspect and rewrite the colours of a web page",
		Long: `Swatches scans the elements of a page for their background colours, groups
them into a palette ranked by how many elements use each colour, exports the
palette as Sass or Less variables and replaces a colour across the page.

The page is reached through its location:
  snapshot.json            a captured scan on disk (edits are written back)
  http(s)://host/path      an endpoint answering GET with a scan and POST with edits
  plugin:/path/to/plugin   an external page plugin
  css:<path|URL>, *.css    a stylesheet (local files are rewritten in place)
  listen:127.0.0.1:7777    a websocket bridge a page-side script connects to`,
		Version:      version.Short(),
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose output")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "suppress non-error output")
	flags.StringVarP(&opts.page, "page", "p", "", "page location (snapshot file, stylesheet, URL, plugin:path or listen:addr)")
	flags.VarP(&opts.filter, "filter", "f", `categories to include, comma separated ("all" or "none"; default all)`)
	flags.StringVar(&opts.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/swatches/config.yaml)")
	flags.BoolVar(&opts.noColour, "no-colour", false, "disable coloured output")
	flags.DurationVar(&opts.timeout, "timeout", 0, "timeout for each page operation (default 30s)")

	rootCmd.SetVersionTemplate(version.String() + "\n")

	rootCmd.AddCommand(
		newInspectCmd(opts),
		newExportCmd(opts),
		newReplaceCmd(opts),
		newCategoriesCmd(opts),
		newPanelCmd(opts),
		newVersionCmd(),
	)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print detailed version information including build date, commit hash, and Go version.`,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}

// app is the per-invocation state shared by commands.
type app struct {
	cfg    *config.Config
	logger hclog.Logger
	out    io.Writer
}

// setup resolves configuration and logging for cmd.
func (o *rootOptions) setup(cmd *cobra.Command) (*app, error) {
	builder := config.NewBuilder()
	if o.configPath != "" {
		builder.WithFile(o.configPath)
	} else {
		builder.WithDefaultFile()
	}

	flags := cmd.Flags()
	cfg, err := builder.
		WithEnvConfig().
		WithOverride(func(c *config.Config) {
			if flags.Changed("page") {
				c.Page = o.page
			}
			if flags.Changed("filter") {
				c.Filter = o.filter.List()
			}
			if flags.Changed("no-colour") {
				c.NoColour = o.noColour
			}
			if flags.Changed("timeout") {
				c.Timeout = o.timeout
			}
			switch {
			case o.verbose:
				c.LogLevel = "debug"
			case o.quiet:
				c.LogLevel = "error"
			}
		}).
		Build()
	if err != nil {
		return nil, err
	}

	logger := hclog.New(&hclog.LoggerOptions{
		Name:   "swatches",
		Level:  hclog.LevelFromString(cfg.LogLevel),
		Output: cmd.ErrOrStderr(),
		Color:  colourOption(cfg.NoColour),
	})

	return &app{cfg: cfg, logger: logger, out: cmd.OutOrStdout()}, nil
}

func colourOption(disabled bool) hclog.ColorOption {
	if disabled {
		return hclog.ColorOff
	}
	return hclog.AutoColor
}

// openSession opens the configured page and wraps it in a controller.
// The returned function closes the page.
func (a *app) openSession(ctx context.Context, opts ...session.Option) (*session.Controller, func(), error) {
	if a.cfg.Page == "" {
		return nil, nil, fmt.Errorf("no page given: use --page or set %s", config.EnvPage)
	}

	p, err := page.Open(ctx, a.cfg.Page, a.logger)
	if err != nil {
		return nil, nil, err
	}
	if remote, ok := p.(*page.Remote); ok {
		for k, v := range a.cfg.Headers {
			remote.WithHeader(k, v)
		}
	}

	opts = append([]session.Option{session.WithLogger(a.logger)}, opts...)
	if filter, ok := selection(a.cfg.Filter); ok {
		opts = append(opts, session.WithFilter(filter))
	}

	closer := func() {
		if err := p.Close(); err != nil {
			a.logger.Warn("failed to close page", "error", err)
		}
	}
	return session.New(p, opts...), closer, nil
}

// withTimeout bounds a single page operation.
func (a *app) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.cfg.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.cfg.Timeout)
}

// renderer returns a swatch renderer, plain unless writing to a colour terminal.
func (a *app) renderer() *swatch.Renderer {
	return swatch.New(a.out, swatch.Options{Plain: a.cfg.NoColour || !isTerminal(a.out)})
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd())) // #nosec G115 - file descriptors fit in int
}

// selection turns a configured category list into a session filter. A nil
// list or "all" selects every category and yields ok == false; an empty list
// or "none" selects nothing.
func selection(categories []string) (palette.Filter, bool) {
	if categories == nil {
		return nil, false
	}
	if len(categories) == 1 {
		switch strings.ToLower(categories[0]) {
		case "all":
			return nil, false
		case "none":
			return palette.NewFilter(), true
		}
	}
	return palette.NewFilter(categories...), true
}
