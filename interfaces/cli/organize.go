package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	api "github.com/felixgeelhaar/arrange-go/interfaces/api"
)

// Script is a list of commands applied to one document.
type Script struct {
	// Document is used when --doc is not given.
	Document api.Document `yaml:"document"`

	// Commands are dispatched in order.
	Commands []api.Command `yaml:"commands"`
}

// ParseScript decodes a YAML script and checks every verb.
func ParseScript(r io.Reader) (*Script, error) {
	var s Script
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && err != io.EOF {
		return nil, fmt.Errorf("invalid script: %w", err)
	}
	for i, cmd := range s.Commands {
		if err := cmd.Validate(); err != nil {
			return nil, fmt.Errorf("command %d: %w", i+1, err)
		}
	}
	return &s, nil
}

type organizeOptions struct {
	configPath string
	scriptPath string
	doc        documentFlags
	dryRun     bool
	jsonOutput bool
}

func (a *App) newOrganizeCmd() *cobra.Command {
	opts := &organizeOptions{}

	cmd := &cobra.Command{
		Use:   "organize",
		Short: "Apply a script of edits to a document and commit it",
		Long: `Load a document, apply a script of rearrangement commands and commit the
resulting order to the processing service.

A script is a YAML file:

  document:
    ref: "42"
    kind: pdf
  commands:
    - verb: drag_reorder
      from: 0
      to: 3
    - verb: toggle
      index: 2
    - verb: rotate
      degrees: 90
    - verb: delete
      confirm: true

Positions for drag_reorder are 0-based visual positions; toggle takes the
original 1-based index; move_to_position takes a 1-based target.

Examples:
  arrange organize -c studio.yaml --script edits.yaml
  arrange organize -c studio.yaml --doc 42 --script edits.yaml --dry-run
  cat edits.yaml | arrange organize -c studio.yaml --script - --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.organize(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file (required)")
	cmd.Flags().StringVar(&opts.scriptPath, "script", "", "Path to the command script, - for stdin (required)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Apply the script without committing")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output as JSON")
	opts.doc.register(cmd)

	_ = cmd.MarkFlagRequired("config")
	_ = cmd.MarkFlagRequired("script")

	return cmd
}

func (a *App) readScript(path string) (*Script, error) {
	if path == "-" {
		return ParseScript(a.stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open script: %w", err)
	}
	defer f.Close()
	return ParseScript(f)
}

type organizeOutput struct {
	Document api.Document `json:"document"`
	Order    []int        `json:"order"`
	Rotation map[int]int  `json:"rotation,omitempty"`
	DryRun   bool         `json:"dry_run,omitempty"`
	OutputID string       `json:"output_id,omitempty"`
	URL      string       `json:"url,omitempty"`
	RecordID string       `json:"record_id,omitempty"`
}

func (a *App) organize(ctx context.Context, opts *organizeOptions) error {
	script, err := a.readScript(opts.scriptPath)
	if err != nil {
		return err
	}

	if opts.doc.ref == "" {
		opts.doc.ref = script.Document.Ref
		if script.Document.Kind != "" {
			opts.doc.kind = string(script.Document.Kind)
		}
	}
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

	for i, cmd := range script.Commands {
		if err := s.Dispatch(ctx, cmd); err != nil {
			return fmt.Errorf("command %d (%s): %w", i+1, cmd, err)
		}
	}

	out := organizeOutput{
		Document: doc,
		Order:    s.VisibleIndexes(),
		DryRun:   opts.dryRun,
	}
	for _, e := range s.VisibleOrder() {
		if e.Rotated() {
			if out.Rotation == nil {
				out.Rotation = make(map[int]int)
			}
			out.Rotation[e.OriginalIndex] = e.Rotation
		}
	}

	if !opts.dryRun {
		res, err := result.Workspace.Commit(ctx)
		if err != nil {
			return fmt.Errorf("commit failed: %w", err)
		}
		out.OutputID = res.Output.ID
		out.URL = res.Output.URL
		out.RecordID = res.Record.ID
	}

	if opts.jsonOutput {
		return a.writeJSON(out)
	}
	a.printOrganize(out)
	return nil
}

func (a *App) printOrganize(out organizeOutput) {
	parts := make([]string, len(out.Order))
	for i, idx := range out.Order {
		parts[i] = fmt.Sprint(idx)
		if r, ok := out.Rotation[idx]; ok {
			parts[i] += fmt.Sprintf("↻%d", r)
		}
	}
	fmt.Fprintf(a.stdout, "%s: [%s]\n", out.Document, strings.Join(parts, " "))

	if out.DryRun {
		fmt.Fprintf(a.stdout, "Dry run, nothing committed.\n")
		return
	}
	fmt.Fprintf(a.stdout, "✓ Committed as %s\n", out.OutputID)
	if out.URL != "" {
		fmt.Fprintf(a.stdout, "  URL: %s\n", out.URL)
	}
	if out.RecordID != "" {
		fmt.Fprintf(a.stdout, "  Record: %s\n", out.RecordID)
	}
}
