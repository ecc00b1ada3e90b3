package processing

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/felixgeelhaar/arrange-go/domain/session"
	"github.com/felixgeelhaar/arrange-go/domain/structure"
)

func testConfig(baseURL string) Config {
	cfg := DefaultConfig()
	cfg.BaseURL = baseURL
	cfg.Resilience.RetryInitialDelay = time.Millisecond
	cfg.Resilience.Timeout = 5 * time.Second
	return cfg
}

func intPtr(v int) *int { return &v }

func TestClient_LoadPDF(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		if r.URL.Path != "/api/v1/tools/pdf/pages/doc-1/" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("X-Client-ID"); got != "studio" {
			t.Errorf("X-Client-ID = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"total_pages":3,"pages":[
			{"index":0,"page_number":1,"width":612,"height":792,"rotation":0},
			{"index":1,"page_number":2,"width":612,"height":792,"rotation":90},
			{"index":2,"page_number":3,"width":792,"height":612,"rotation":0}]}`)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.Token = "secret"
	cfg.ClientID = "studio"
	client := New(cfg)

	got, err := client.Load(context.Background(), session.Document{Ref: "doc-1", Kind: session.KindPDF})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.TotalElements != 3 || len(got.Elements) != 3 {
		t.Fatalf("Load() = %+v", got)
	}
	if got.Elements[0].Index != 1 || got.Elements[2].Index != 3 {
		t.Errorf("indexes not converted to 1-based: %+v", got.Elements)
	}
	if got.Elements[1].Rotation != 90 || got.Elements[2].Width != 792 {
		t.Errorf("metadata not decoded: %+v", got.Elements)
	}
}

func TestClient_LoadXLSX(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/tools/xlsx/book-9/sheets/" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_, _ = io.WriteString(w, `{"total_sheets":2,"sheets":[
			{"index":0,"sheet_number":1,"name":"Summary","rows":10,"columns":4},
			{"index":1,"sheet_number":2,"name":"Data","rows":500,"columns":12}]}`)
	}))
	defer server.Close()

	client := New(testConfig(server.URL))
	got, err := client.Load(context.Background(), session.Document{Ref: "book-9", Kind: session.KindXLSX})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Elements[0].Name != "Summary" || got.Elements[1].Rows != 500 {
		t.Errorf("Load() elements = %+v", got.Elements)
	}
}

func TestClient_LoadRetriesServerErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = io.WriteString(w, `{"total_pages":1,"pages":[{"index":0,"page_number":1}]}`)
	}))
	defer server.Close()

	client := New(testConfig(server.URL))
	got, err := client.Load(context.Background(), session.Document{Ref: "doc", Kind: session.KindDOCX})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.TotalElements != 1 {
		t.Errorf("TotalElements = %d, want 1", got.TotalElements)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestClient_LoadNotFoundIsNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":"No Document matches the given query."}`)
	}))
	defer server.Close()

	client := New(testConfig(server.URL))
	_, err := client.Load(context.Background(), session.Document{Ref: "missing", Kind: session.KindPDF})
	if !errors.Is(err, structure.ErrDocumentNotFound) {
		t.Fatalf("Load() error = %v, want ErrDocumentNotFound", err)
	}
	var svcErr *structure.ServiceError
	if !errors.As(err, &svcErr) || svcErr.Message != "No Document matches the given query." {
		t.Errorf("ServiceError = %+v", svcErr)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestClient_LoadRejectsInconsistentStructure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"total_pages":3,"pages":[{"index":0}]}`)
	}))
	defer server.Close()

	client := New(testConfig(server.URL))
	_, err := client.Load(context.Background(), session.Document{Ref: "doc", Kind: session.KindPDF})
	if !errors.Is(err, structure.ErrInvalidStructure) {
		t.Errorf("Load() error = %v, want ErrInvalidStructure", err)
	}
}

func TestClient_LoadValidatesDocument(t *testing.T) {
	t.Parallel()

	client := New(testConfig("http://127.0.0.1:1"))
	_, err := client.Load(context.Background(), session.Document{Kind: session.KindPDF})
	if !errors.Is(err, session.ErrMissingDocumentRef) {
		t.Errorf("Load() error = %v, want ErrMissingDocumentRef", err)
	}
}

func TestClient_OrganizePDF(t *testing.T) {
	t.Parallel()

	var got pdfOrganizeRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/tools/pdf/organize/" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":"out-7","url":"/media/documents/organized.pdf"}`)
	}))
	defer server.Close()

	client := New(testConfig(server.URL))
	out, err := client.Organize(context.Background(), structure.OrganizeRequest{
		Document: session.Document{Ref: "doc-1", Kind: session.KindPDF},
		Entries: []structure.Entry{
			{OriginalIndexReference: 3, RotationDegrees: intPtr(90)},
			{OriginalIndexReference: 1, RotationDegrees: intPtr(0)},
		},
	})
	if err != nil {
		t.Fatalf("Organize() error = %v", err)
	}
	if out.ID != "out-7" || out.URL != "/media/documents/organized.pdf" {
		t.Errorf("Organize() = %+v", out)
	}
	want := []pdfPageConfig{{OriginalPageNumber: 3, Rotate: 90}, {OriginalPageNumber: 1, Rotate: 0}}
	if got.FileID != "doc-1" || len(got.PageConfig) != 2 || got.PageConfig[0] != want[0] || got.PageConfig[1] != want[1] {
		t.Errorf("request body = %+v", got)
	}
}

func TestClient_OrganizeSheetsUsesIndexBase(t *testing.T) {
	t.Parallel()

	var got xlsxReorderRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/tools/xlsx/reorder/" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":42,"url":"/media/reordered.xlsx"}`)
	}))
	defer server.Close()

	client := New(testConfig(server.URL))
	out, err := client.Organize(context.Background(), structure.OrganizeRequest{
		Document: session.Document{Ref: "book", Kind: session.KindXLSX},
		Entries: []structure.Entry{
			{OriginalIndexReference: 2},
			{OriginalIndexReference: 3},
			{OriginalIndexReference: 1},
		},
	})
	if err != nil {
		t.Fatalf("Organize() error = %v", err)
	}
	if out.ID != "42" {
		t.Errorf("numeric id decoded as %q", out.ID)
	}
	if len(got.SheetOrder) != 3 || got.SheetOrder[0] != 1 || got.SheetOrder[1] != 2 || got.SheetOrder[2] != 0 {
		t.Errorf("sheet_order = %v, want [1 2 0]", got.SheetOrder)
	}
}

func TestClient_OrganizeIsNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":"disk full"}`)
	}))
	defer server.Close()

	client := New(testConfig(server.URL))
	_, err := client.Organize(context.Background(), structure.OrganizeRequest{
		Document: session.Document{Ref: "doc", Kind: session.KindDOCX},
		Entries:  []structure.Entry{{OriginalIndexReference: 1}},
	})
	var svcErr *structure.ServiceError
	if !errors.As(err, &svcErr) || svcErr.Status != http.StatusInternalServerError || svcErr.Message != "disk full" {
		t.Fatalf("Organize() error = %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestClient_OrganizeEmptyMakesNoRequest(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	client := New(testConfig(server.URL))
	_, err := client.Organize(context.Background(), structure.OrganizeRequest{
		Document: session.Document{Ref: "doc", Kind: session.KindPDF},
	})
	if !errors.Is(err, session.ErrEmptyDocument) {
		t.Errorf("Organize() error = %v, want ErrEmptyDocument", err)
	}
	if calls.Load() != 0 {
		t.Errorf("calls = %d, want 0", calls.Load())
	}
}

func TestClient_CustomEndpoints(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/docs/doc-1/pages" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_, _ = io.WriteString(w, `{"total_pages":2,"pages":[{"index":1},{"index":2}]}`)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.Endpoints = map[session.Kind]Endpoints{
		session.KindDOCX: {Structure: "/v2/docs/{id}/pages", Organize: "/v2/reorder", IndexBase: 1},
	}
	client := New(cfg)

	got, err := client.Load(context.Background(), session.Document{Ref: "doc-1", Kind: session.KindDOCX})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Elements[0].Index != 1 || got.Elements[1].Index != 2 {
		t.Errorf("indexes = %+v", got.Elements)
	}
}
