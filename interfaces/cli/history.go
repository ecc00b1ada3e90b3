package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	api "github.com/felixgeelhaar/arrange-go/interfaces/api"
)

type historyOptions struct {
	configPath string
	docRef     string
	since      time.Duration
	limit      int
	jsonOutput bool
}

func (a *App) newHistoryCmd() *cobra.Command {
	opts := &historyOptions{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List committed arrangements",
		Long: `List commits recorded by the configured history backend, newest first.

Examples:
  arrange history -c studio.yaml
  arrange history -c studio.yaml --doc 42 --since 24h --limit 5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.listHistory(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file (required)")
	cmd.Flags().StringVar(&opts.docRef, "doc", "", "Only commits of this document")
	cmd.Flags().DurationVar(&opts.since, "since", 0, "Only commits newer than this")
	cmd.Flags().IntVar(&opts.limit, "limit", 20, "Maximum number of records")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output as JSON")

	_ = cmd.MarkFlagRequired("config")

	return cmd
}

func (a *App) listHistory(ctx context.Context, opts *historyOptions) error {
	result, err := a.openWorkspace(ctx, opts.configPath)
	if err != nil {
		return err
	}
	defer func() { _ = result.Close(ctx) }()

	filter := api.HistoryFilter{DocumentRef: opts.docRef, Limit: opts.limit}
	if opts.since > 0 {
		filter.Since = time.Now().Add(-opts.since)
	}

	records, err := result.Workspace.History(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	if opts.jsonOutput {
		if records == nil {
			records = []api.CommitRecord{}
		}
		return a.writeJSON(records)
	}

	if len(records) == 0 {
		fmt.Fprintln(a.stdout, "No commits recorded.")
		return nil
	}
	for _, rec := range records {
		fmt.Fprintf(a.stdout, "%s  %s  %s -> %s  %v\n",
			rec.CommittedAt.Format(time.RFC3339), rec.ID, rec.Document, rec.Output.ID, rec.Indexes())
	}
	return nil
}
