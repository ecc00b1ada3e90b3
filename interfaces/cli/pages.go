package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	api "github.com/felixgeelhaar/arrange-go/interfaces/api"
)

type pagesOptions struct {
	configPath string
	doc        documentFlags
	jsonOutput bool
}

func (a *App) newPagesCmd() *cobra.Command {
	opts := &pagesOptions{}

	cmd := &cobra.Command{
		Use:   "pages",
		Short: "List the pages or sheets of a document",
		Long: `Load a document's structure from the processing service and list its
elements in their original order.

Examples:
  arrange pages -c studio.yaml --doc 42
  arrange pages -c studio.yaml --doc 7 --kind xlsx --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.listPages(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file (required)")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output as JSON")
	opts.doc.register(cmd)

	_ = cmd.MarkFlagRequired("config")
	_ = cmd.MarkFlagRequired("doc")

	return cmd
}

func (a *App) listPages(ctx context.Context, opts *pagesOptions) error {
	doc, err := opts.doc.document()
	if err != nil {
		return err
	}

	result, err := a.openWorkspace(ctx, opts.configPath)
	if err != nil {
		return err
	}
	defer func() { _ = result.Close(ctx) }()

	s, err := result.Workspace.Open(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", doc, err)
	}

	infos := make([]api.ElementInfo, 0, s.Count())
	for _, idx := range s.VisibleIndexes() {
		info, _ := s.Info(idx)
		infos = append(infos, info)
	}

	if opts.jsonOutput {
		return a.writeJSON(struct {
			Document api.Document      `json:"document"`
			Elements []api.ElementInfo `json:"elements"`
		}{doc, infos})
	}

	fmt.Fprintf(a.stdout, "%s: %d %ss\n", doc, len(infos), doc.Kind.Noun())
	for _, info := range infos {
		line := fmt.Sprintf("  %3d  %s", info.Index, info.Label(doc.Kind))
		switch {
		case info.Rows > 0 || info.Columns > 0:
			line += fmt.Sprintf("  (%d×%d)", info.Rows, info.Columns)
		case info.Width > 0:
			line += fmt.Sprintf("  (%.0f×%.0f pt)", info.Width, info.Height)
		}
		if info.Rotation != 0 {
			line += fmt.Sprintf("  rotated %d°", info.Rotation)
		}
		fmt.Fprintln(a.stdout, line)
	}
	return nil
}
