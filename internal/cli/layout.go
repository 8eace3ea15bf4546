package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/axonote/pkg/document"
	"github.com/matzehuels/axonote/pkg/editor"
	"github.com/matzehuels/axonote/pkg/layout"
)

// layoutFlags holds the flags that override the [layout] config section.
type layoutFlags struct {
	direction    string
	layerSpacing float64
	nodeSpacing  float64
}

func (f *layoutFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.direction, "direction", "d", "", "layer direction: RIGHT, LEFT, DOWN, UP")
	cmd.Flags().Float64Var(&f.layerSpacing, "layer-spacing", 0, "pixels between layers")
	cmd.Flags().Float64Var(&f.nodeSpacing, "node-spacing", 0, "pixels between nodes of a layer")
}

// layoutOptions merges the flags over the configured options.
func (c *CLI) layoutOptions(f layoutFlags) (layout.Options, error) {
	opts, err := c.cfg.LayoutOptions()
	if err != nil {
		return opts, err
	}
	if f.direction != "" {
		if opts.Direction, err = layout.ParseDirection(f.direction); err != nil {
			return opts, err
		}
	}
	if f.layerSpacing > 0 {
		opts.LayerSpacing = f.layerSpacing
	}
	if f.nodeSpacing > 0 {
		opts.NodeSpacing = f.nodeSpacing
	}
	return opts, opts.Validate()
}

// layoutCommand creates the layout command.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		flags  layoutFlags
		output string
		dot    bool
	)

	cmd := &cobra.Command{
		Use:   "layout [document.json]",
		Short: "Arrange a mind map with the layered layout",
		Long: `Arrange a mind map with the layered layout.

Every node, folded ones included, is placed by Graphviz: layers run in the
configured direction (left to right by default) and each node keeps its
declared size or the default size of its type. The positioned document is
written next to the input unless -o is given.

Results are cached; use --no-cache to force a fresh run. With --dot the
Graphviz input is printed instead of running the layout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.layoutOptions(flags)
			if err != nil {
				return err
			}
			if dot {
				return printDOT(args[0], opts)
			}
			return c.runLayout(cmd.Context(), args[0], output, opts)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().BoolVar(&dot, "dot", false, "print the Graphviz DOT input and exit")

	return cmd
}

func (c *CLI) runLayout(ctx context.Context, input, output string, opts layout.Options) error {
	engine, lc, err := c.newEngine(ctx)
	if err != nil {
		return fmt.Errorf("initialize layout: %w", err)
	}
	defer lc.Close()

	ed, err := loadEditor(input,
		editor.WithLogger(loggerFromContext(ctx)),
		editor.WithEngine(engine),
		editor.WithLayoutOptions(opts),
	)
	if err != nil {
		return err
	}
	defer ed.Close()

	hitsBefore := c.hooks.cacheHits()
	spinner := newSpinnerWithContext(ctx, "Computing layout...")
	spinner.Start()
	if err := ed.ApplyLayout(ctx); err != nil {
		spinner.StopWithError("Layout failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	doc, err := ed.Export()
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if output == "" {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + ".layout.json"
	}
	if err := document.WriteFile(output, doc); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}

	printSuccess("Layout complete")
	printFile(output)
	printStats(len(doc.Nodes), len(doc.Edges), c.hooks.cacheHits() > hitsBefore)
	printNewline()
	printNextStep("Browse", appName+" view "+output)
	return nil
}

func printDOT(input string, opts layout.Options) error {
	ed, err := loadEditor(input)
	if err != nil {
		return err
	}
	defer ed.Close()
	snap := ed.Snapshot()
	_, err = fmt.Fprint(os.Stdout, layout.ToDOT(layout.NewRequest(snap.Nodes, snap.Edges, opts), opts))
	return err
}
