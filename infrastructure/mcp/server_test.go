package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/felixgeelhaar/arrange-go/application"
	"github.com/felixgeelhaar/arrange-go/domain/session"
	"github.com/felixgeelhaar/arrange-go/domain/structure"
)

func newTestServer(t *testing.T) *WorkspaceServer {
	t.Helper()

	loader := structure.LoaderFunc(func(_ context.Context, doc session.Document) (structure.Structure, error) {
		if doc.Ref == "missing" {
			return structure.Structure{}, &structure.ServiceError{Status: 404, Message: "not found"}
		}
		return structure.Structure{Document: doc, TotalElements: 4}, nil
	})
	organizer := structure.OrganizerFunc(func(_ context.Context, req structure.OrganizeRequest) (structure.Output, error) {
		return structure.Output{ID: req.Document.Ref + "-organized"}, nil
	})

	ws, err := application.NewWorkspace(loader, organizer)
	if err != nil {
		t.Fatalf("NewWorkspace() error = %v", err)
	}
	srv, err := NewWorkspaceServer(ServerConfig{Name: "arrange", Version: "test", Workspace: ws})
	if err != nil {
		t.Fatalf("NewWorkspaceServer() error = %v", err)
	}
	return srv
}

func callView(t *testing.T, srv *WorkspaceServer, name, input string) sessionView {
	t.Helper()
	out, err := srv.call(context.Background(), name, json.RawMessage(input))
	if err != nil {
		t.Fatalf("%s error = %v", name, err)
	}
	var v sessionView
	if err := json.Unmarshal([]byte(out), &v); err != nil {
		t.Fatalf("%s output %q: %v", name, out, err)
	}
	return v
}

func orderOf(v sessionView) []int {
	out := make([]int, len(v.Order))
	for i, e := range v.Order {
		out[i] = e.OriginalIndex
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestNewWorkspaceServer(t *testing.T) {
	t.Parallel()

	if _, err := NewWorkspaceServer(ServerConfig{Name: "arrange"}); err == nil {
		t.Error("NewWorkspaceServer() without workspace error = nil")
	}

	srv := newTestServer(t)
	if srv.Server() == nil {
		t.Fatal("Server() returned nil")
	}
	want := []string{
		"open_document", "visible_order", "toggle_selection", "clear_selection",
		"drag_reorder", "move_to_position", "rotate_selected", "delete_selected",
		"reset", "commit",
	}
	got := srv.Tools()
	if len(got) != len(want) {
		t.Fatalf("Tools() = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Tools()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestWorkspaceServer_Session(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	v := callView(t, srv, "open_document", `{"ref":"report","kind":"pdf"}`)
	if v.State != session.StateReady || !equalInts(orderOf(v), []int{1, 2, 3, 4}) {
		t.Fatalf("open_document = %+v", v)
	}

	v = callView(t, srv, "drag_reorder", `{"from":0,"to":2}`)
	if !equalInts(orderOf(v), []int{2, 3, 1, 4}) || !v.Dirty {
		t.Errorf("drag_reorder order = %v dirty=%v", orderOf(v), v.Dirty)
	}

	v = callView(t, srv, "toggle_selection", `{"index":4}`)
	if !equalInts(v.Selected, []int{4}) || !v.Order[3].Selected {
		t.Errorf("toggle_selection = %+v", v)
	}

	v = callView(t, srv, "move_to_position", `{"position":1}`)
	if !equalInts(orderOf(v), []int{4, 2, 3, 1}) {
		t.Errorf("move_to_position order = %v", orderOf(v))
	}

	v = callView(t, srv, "rotate_selected", `{"degrees":-90}`)
	if v.Order[0].Rotation != 270 {
		t.Errorf("rotation = %d, want 270", v.Order[0].Rotation)
	}

	v = callView(t, srv, "delete_selected", `{"confirm":true}`)
	if !equalInts(orderOf(v), []int{2, 3, 1}) || len(v.Selected) != 0 {
		t.Errorf("delete_selected = %+v", v)
	}

	if got := callView(t, srv, "visible_order", ``); !equalInts(orderOf(got), orderOf(v)) {
		t.Errorf("visible_order = %v", orderOf(got))
	}

	out, err := srv.call(context.Background(), "commit", nil)
	if err != nil {
		t.Fatalf("commit error = %v", err)
	}
	var cv commitView
	if err := json.Unmarshal([]byte(out), &cv); err != nil {
		t.Fatalf("commit output %q: %v", out, err)
	}
	if cv.OutputID != "report-organized" || !equalInts(cv.Order, []int{2, 3, 1}) {
		t.Errorf("commit = %+v", cv)
	}
}

func TestWorkspaceServer_Reset(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	callView(t, srv, "open_document", `{"ref":"a","kind":"pdf"}`)
	callView(t, srv, "drag_reorder", `{"from":3,"to":0}`)
	callView(t, srv, "toggle_selection", `{"index":2}`)

	v := callView(t, srv, "reset", ``)
	if !equalInts(orderOf(v), []int{1, 2, 3, 4}) || v.Dirty || len(v.Selected) != 0 {
		t.Errorf("reset = %+v", v)
	}
}

func TestWorkspaceServer_Errors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	srv := newTestServer(t)

	if _, err := srv.call(ctx, "visible_order", nil); !errors.Is(err, session.ErrNoSession) {
		t.Errorf("visible_order before open error = %v", err)
	}
	if _, err := srv.call(ctx, "open_document", json.RawMessage(`{"ref":"missing","kind":"pdf"}`)); !errors.Is(err, structure.ErrDocumentNotFound) {
		t.Errorf("open missing error = %v", err)
	}
	if _, err := srv.call(ctx, "open_document", json.RawMessage(`{"ref":`)); err == nil {
		t.Error("open with malformed input error = nil")
	}
	if _, err := srv.call(ctx, "shuffle", nil); err == nil {
		t.Error("unknown tool error = nil")
	}

	callView(t, srv, "open_document", `{"ref":"a","kind":"pdf"}`)

	tests := []struct {
		name  string
		tool  string
		input string
		code  session.ErrorCode
	}{
		{name: "move without selection", tool: "move_to_position", input: `{"position":2}`, code: session.CodeSelectionCardinality},
		{name: "rotate without selection", tool: "rotate_selected", input: `{"degrees":90}`, code: session.CodeEmptySelection},
		{name: "toggle unknown", tool: "toggle_selection", input: `{"index":9}`, code: session.CodeUnknownElement},
	}
	for _, tt := range tests {
		if _, err := srv.call(ctx, tt.tool, json.RawMessage(tt.input)); !session.HasCode(err, tt.code) {
			t.Errorf("%s error = %v, want %s", tt.name, err, tt.code)
		}
	}
}
