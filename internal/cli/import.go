package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/axonote/pkg/analysis"
	"github.com/matzehuels/axonote/pkg/document"
	"github.com/matzehuels/axonote/pkg/editor"
)

// importCommand creates the import command, which validates a document and
// prints its structure.
func (c *CLI) importCommand() *cobra.Command {
	var (
		asJSON bool
		output string
	)

	cmd := &cobra.Command{
		Use:   "import [document.json]",
		Short: "Validate a mind-map document and summarize its structure",
		Long: `Validate a mind-map document and summarize its structure.

The document is mapped to the editor's node types exactly as the editor would
load it: unknown node types become text nodes that show the original data.
The summary lists roots, depth, node types and any cycles.

With -o the normalized document (all nodes in editor form) is written out.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runImport(cmd.Context(), args[0], output, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print statistics as JSON")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the normalized document to this file")

	return cmd
}

func (c *CLI) runImport(ctx context.Context, input, output string, asJSON bool) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	ed, err := loadEditor(input, editor.WithLogger(logger))
	if err != nil {
		return err
	}
	defer ed.Close()

	stats := ed.Stats()
	prog.done(fmt.Sprintf("Imported %d nodes", stats.Nodes))

	if output != "" {
		doc, err := ed.Export()
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}
		if err := document.WriteFile(output, doc); err != nil {
			return fmt.Errorf("write output %s: %w", output, err)
		}
	}

	if asJSON {
		return printStatsJSON(stats)
	}

	printSuccess("Document is valid")
	printFile(input)
	printNewline()
	printAnalysis(stats)
	if output != "" {
		printNewline()
		printInfo("Normalized document written")
		printFile(output)
	}
	printNewline()
	printNextStep("Lay out", appName+" layout "+input)
	return nil
}

// loadEditor reads path into a new editor.
func loadEditor(path string, opts ...editor.Option) (*editor.Editor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	ed := editor.New(opts...)
	if err := ed.LoadFromJSON(data); err != nil {
		ed.Close()
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return ed, nil
}

func printStatsJSON(s analysis.Stats) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}
