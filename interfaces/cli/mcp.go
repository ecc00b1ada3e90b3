package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/arrange-go/infrastructure/mcp"
)

type mcpOptions struct {
	configPath string
}

func (a *App) newMCPCmd() *cobra.Command {
	opts := &mcpOptions{}

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the workspace as MCP tools over stdio",
		Long: `Start a Model Context Protocol server on stdin/stdout. A host UI or an
agent opens a document with open_document and edits it with the verb tools
until it calls commit.

Example:
  arrange mcp -c studio.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serveMCP(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file (required)")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

func (a *App) serveMCP(ctx context.Context, opts *mcpOptions) error {
	result, err := a.openWorkspace(ctx, opts.configPath)
	if err != nil {
		return err
	}
	defer func() { _ = result.Close(context.WithoutCancel(ctx)) }()

	srv, err := mcp.NewWorkspaceServer(mcp.ServerConfig{
		Name:         "arrange",
		Version:      Version,
		Description:  "Rearrange pages and sheets of paged documents",
		Instructions: "Call open_document first. Edit with the verb tools, inspect with visible_order and finish with commit.",
		Workspace:    result.Workspace,
	})
	if err != nil {
		return err
	}
	srv.Use(mcp.Recover(), mcp.RequestID())

	return srv.ServeStdio(ctx)
}
