package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/arrange-go/application"
	"github.com/felixgeelhaar/arrange-go/domain/session"
	"github.com/felixgeelhaar/arrange-go/infrastructure/logging"
	mcpgo "github.com/felixgeelhaar/mcp-go"
	mcpserver "github.com/felixgeelhaar/mcp-go/server"
)

// Workspace is the part of application.Workspace the server drives.
type Workspace interface {
	Open(ctx context.Context, doc session.Document) (*application.Session, error)
	Session() (*application.Session, error)
	Dispatch(ctx context.Context, cmd session.Command) error
	Commit(ctx context.Context) (application.CommitResult, error)
}

// ServerConfig configures a workspace MCP server.
type ServerConfig struct {
	// Name is the server name.
	Name string

	// Version is the server version.
	Version string

	// Description is an optional server description.
	Description string

	// Instructions provides usage instructions for clients.
	Instructions string

	// Workspace is the workspace the tools operate on.
	Workspace Workspace
}

type toolHandler func(ctx context.Context, input json.RawMessage) (any, error)

type toolDef struct {
	name        string
	description string
	handler     toolHandler
}

// WorkspaceServer wraps an MCP server exposing the arrangement verbs.
type WorkspaceServer struct {
	srv   *mcpgo.Server
	ws    Workspace
	tools map[string]toolDef
}

// NewWorkspaceServer creates an MCP server with one tool per verb.
func NewWorkspaceServer(cfg ServerConfig) (*WorkspaceServer, error) {
	if cfg.Workspace == nil {
		return nil, errors.New("workspace is required")
	}

	info := mcpgo.ServerInfo{
		Name:        cfg.Name,
		Version:     cfg.Version,
		Description: cfg.Description,
		Capabilities: mcpgo.Capabilities{
			Tools: true,
		},
	}

	var opts []mcpgo.Option
	if cfg.Instructions != "" {
		opts = append(opts, mcpgo.WithInstructions(cfg.Instructions))
	}

	s := &WorkspaceServer{
		srv:   mcpgo.NewServer(info, opts...),
		ws:    cfg.Workspace,
		tools: make(map[string]toolDef),
	}
	for _, t := range s.definitions() {
		s.register(t)
	}
	return s, nil
}

func (s *WorkspaceServer) definitions() []toolDef {
	return []toolDef{
		{"open_document", "Load a document's structure and start a new arrangement session. Input: {\"ref\": string, \"kind\": \"pdf\"|\"docx\"|\"xlsx\"}.", s.openDocument},
		{"visible_order", "Return the current visible order, selection and state.", s.visibleOrder},
		{"toggle_selection", "Select or deselect an element by its original 1-based index. Input: {\"index\": int}.", s.command(session.VerbToggle)},
		{"clear_selection", "Deselect every element.", s.command(session.VerbClearSelection)},
		{"drag_reorder", "Move the element at 0-based visual position from to position to. Input: {\"from\": int, \"to\": int}.", s.command(session.VerbDragReorder)},
		{"move_to_position", "Move the single selected element to a 1-based position. Input: {\"position\": int}.", s.command(session.VerbMoveToPosition)},
		{"rotate_selected", "Rotate every selected page clockwise by degrees. Input: {\"degrees\": int}.", s.command(session.VerbRotate)},
		{"delete_selected", "Remove the selected pages. Input: {\"confirm\": true}.", s.command(session.VerbDelete)},
		{"reset", "Discard every pending change and return to the loaded order.", s.command(session.VerbReset)},
		{"commit", "Submit the visible order to the processing service.", s.commit},
	}
}

// register wires a tool into mcp-go and the local dispatch table.
func (s *WorkspaceServer) register(t toolDef) {
	s.tools[t.name] = t
	s.srv.Tool(t.name).
		Description(t.description).
		Handler(func(ctx context.Context, input json.RawMessage) (string, error) {
			return s.call(ctx, t.name, input)
		})
}

// call runs a tool and renders its result as JSON.
func (s *WorkspaceServer) call(ctx context.Context, name string, input json.RawMessage) (string, error) {
	t, ok := s.tools[name]
	if !ok {
		return "", fmt.Errorf("unknown tool %q", name)
	}

	out, err := t.handler(ctx, input)
	if err != nil {
		logging.Debug().
			Add(logging.Component("mcp")).
			Add(logging.Operation(name)).
			Add(logging.ErrorField(err)).
			Msg("tool call failed")
		return "", err
	}
	data, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("encode %s result: %w", name, err)
	}
	return string(data), nil
}

// Tools returns the registered tool names in registration order.
func (s *WorkspaceServer) Tools() []string {
	defs := s.definitions()
	names := make([]string, len(defs))
	for i, d := range defs {
		names[i] = d.name
	}
	return names
}

// Server returns the underlying mcp-go server.
func (s *WorkspaceServer) Server() *mcpgo.Server {
	return s.srv
}

// Use adds middleware to the server.
func (s *WorkspaceServer) Use(middlewares ...mcpserver.Middleware) {
	s.srv.Use(middlewares...)
}

// ServeStdio runs the server over stdin/stdout.
func (s *WorkspaceServer) ServeStdio(ctx context.Context, opts ...ServeOption) error {
	return mcpgo.ServeStdio(ctx, s.srv, opts...)
}

func decode(input json.RawMessage, v any) error {
	if len(input) == 0 {
		return nil
	}
	if err := json.Unmarshal(input, v); err != nil {
		return fmt.Errorf("invalid input: %w", err)
	}
	return nil
}

func (s *WorkspaceServer) openDocument(ctx context.Context, input json.RawMessage) (any, error) {
	var doc session.Document
	if err := decode(input, &doc); err != nil {
		return nil, err
	}
	sess, err := s.ws.Open(ctx, doc)
	if err != nil {
		return nil, err
	}
	return viewOf(sess), nil
}

func (s *WorkspaceServer) visibleOrder(_ context.Context, _ json.RawMessage) (any, error) {
	sess, err := s.ws.Session()
	if err != nil {
		return nil, err
	}
	return viewOf(sess), nil
}

// command returns a handler that decodes the verb's arguments and
// dispatches them to the current session.
func (s *WorkspaceServer) command(verb session.VerbKind) toolHandler {
	return func(ctx context.Context, input json.RawMessage) (any, error) {
		var cmd session.Command
		if err := decode(input, &cmd); err != nil {
			return nil, err
		}
		cmd.Verb = verb
		if err := s.ws.Dispatch(ctx, cmd); err != nil {
			return nil, err
		}
		sess, err := s.ws.Session()
		if err != nil {
			return nil, err
		}
		return viewOf(sess), nil
	}
}

func (s *WorkspaceServer) commit(ctx context.Context, _ json.RawMessage) (any, error) {
	res, err := s.ws.Commit(ctx)
	if err != nil {
		return nil, err
	}
	return commitView{
		OutputID:  res.Output.ID,
		OutputURL: res.Output.URL,
		RecordID:  res.Record.ID,
		Order:     res.Record.Indexes(),
	}, nil
}
