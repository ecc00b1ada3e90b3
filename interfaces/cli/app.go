// Package cli provides a command-line interface for arrange-go.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	arrange "github.com/felixgeelhaar/arrange-go"
	api "github.com/felixgeelhaar/arrange-go/interfaces/api"
)

// Version information set at build time.
var (
	Version   = arrange.Version
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// App represents the CLI application.
type App struct {
	root   *cobra.Command
	stdout io.Writer
	stderr io.Writer
	stdin  io.Reader
}

// New creates a new CLI application.
func New() *App {
	app := &App{
		stdout: os.Stdout,
		stderr: os.Stderr,
		stdin:  os.Stdin,
	}

	app.root = &cobra.Command{
		Use:   "arrange",
		Short: "Rearrange pages and sheets of paged documents",
		Long: `arrange reorders, rotates and removes the pages of PDF and DOCX documents
and reorders the sheets of XLSX workbooks, then commits the result to a
document processing service.

Edits are recorded against each element's original position, so the service
always receives an explicit mapping from the new order to the source.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	app.root.AddCommand(
		app.newVersionCmd(),
		app.newValidateCmd(),
		app.newPagesCmd(),
		app.newOrganizeCmd(),
		app.newHistoryCmd(),
		app.newMCPCmd(),
	)

	return app
}

// WithOutput sets custom output writers.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	a.root.SetOut(stdout)
	a.root.SetErr(stderr)
	return a
}

// WithInput sets a custom input reader.
func (a *App) WithInput(stdin io.Reader) *App {
	a.stdin = stdin
	a.root.SetIn(stdin)
	return a
}

// Execute runs the CLI application.
func (a *App) Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return a.root.ExecuteContext(ctx)
}

// ExecuteWithArgs runs the CLI with specific arguments (useful for testing).
func (a *App) ExecuteWithArgs(ctx context.Context, args []string) error {
	a.root.SetArgs(args)
	return a.Execute(ctx)
}

func (a *App) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "arrange version %s\n", Version)
			fmt.Fprintf(a.stdout, "  Git commit: %s\n", GitCommit)
			fmt.Fprintf(a.stdout, "  Build date: %s\n", BuildDate)
		},
	}
}

// openWorkspace loads the configuration, initializes logging and builds
// the workspace. The caller closes the result.
func (a *App) openWorkspace(ctx context.Context, configPath string) (*api.ConfigBuildResult, error) {
	config, err := api.NewConfigLoader().LoadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	api.InitLogging(config.Logging)

	result, err := api.NewConfigBuilder(config).Build(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build workspace: %w", err)
	}
	return result, nil
}

func (a *App) writeJSON(v any) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// documentFlags holds the flags that identify a document.
type documentFlags struct {
	ref  string
	kind string
}

func (f *documentFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.ref, "doc", "", "Document reference (file ID at the processing service)")
	cmd.Flags().StringVar(&f.kind, "kind", "pdf", "Document kind (pdf, docx, xlsx)")
}

func (f *documentFlags) document() (api.Document, error) {
	kind, err := api.ParseKind(f.kind)
	if err != nil {
		return api.Document{}, err
	}
	doc := api.Document{Ref: f.ref, Kind: kind}
	if err := doc.Validate(); err != nil {
		return api.Document{}, err
	}
	return doc, nil
}
