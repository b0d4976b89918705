package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/solarlist/solarlist/internal/catalog"
	"github.com/solarlist/solarlist/internal/config"
	"github.com/solarlist/solarlist/internal/models"
	"github.com/solarlist/solarlist/internal/render"
	"github.com/solarlist/solarlist/internal/storage"
	"github.com/solarlist/solarlist/internal/workflow"
)

func newTestServer(t *testing.T) (*Server, *storage.SQLiteStorage) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewSQLiteStorage(filepath.Join(dir, "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })

	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Storage.DatabasePath = filepath.Join(dir, "history.db")
	cfg.Storage.DocumentsDir = filepath.Join(dir, "documents")

	controller := workflow.NewController(store,
		render.NewRenderer(cfg.Branding.CompanyName, ""),
		catalog.Default(),
		cfg.Storage.DocumentsDir, zap.NewNop())
	return NewServer(controller, store, catalog.Default(), cfg, zap.NewNop()), store
}

func submitBody(t *testing.T) *bytes.Reader {
	t.Helper()
	body, err := json.Marshal(models.SubmitInput{
		ClientName:     "Ana",
		TechnicianName: "Bruno",
		Lines: []models.RawLine{
			{Description: "Painel solar 450W", Quantity: 10},
			{Description: "painel solar 450w", Quantity: 2},
			{Description: "Cabo", Quantity: 100, Unit: "m"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return bytes.NewReader(body)
}

// withID attaches a chi route context carrying the id URL param.
func withID(r *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestHandleSubmit(t *testing.T) {
	srv, _ := newTestServer(t)

	r := httptest.NewRequest(http.MethodPost, "/api/v1/records", submitBody(t))
	w := httptest.NewRecorder()
	srv.handleSubmit(w, r)

	if w.Code != http.StatusCreated {
		t.Fatalf("status: got %d, body %s", w.Code, w.Body.String())
	}
	var resp struct {
		Record       *models.ListRecord `json:"record"`
		Document     []byte             `json:"document"`
		WhatsAppLink string             `json:"whatsapp_link"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Record.ID == 0 {
		t.Error("record id missing")
	}
	if len(resp.Record.Materials) != 2 {
		t.Errorf("materials: %+v", resp.Record.Materials)
	}
	if !bytes.HasPrefix(resp.Document, []byte("%PDF-")) {
		t.Error("document is not a PDF")
	}
	if !strings.HasPrefix(resp.WhatsAppLink, "https://wa.me/?text=") {
		t.Errorf("whatsapp link: %s", resp.WhatsAppLink)
	}
}

func TestHandleSubmit_ValidationErrors(t *testing.T) {
	srv, store := newTestServer(t)

	body, _ := json.Marshal(models.SubmitInput{
		ClientName:     "Ana",
		TechnicianName: "Bruno",
		Lines:          []models.RawLine{},
	})
	r := httptest.NewRequest(http.MethodPost, "/api/v1/records", bytes.NewReader(body))
	w := httptest.NewRecorder()
	srv.handleSubmit(w, r)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d", w.Code)
	}
	var resp struct {
		Errors workflow.ValidationError `json:"errors"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Errors.Lines) == 0 {
		t.Error("expected line errors in response")
	}
	if resp.Errors.State != workflow.StateRejected {
		t.Errorf("expected state %q, got %q", workflow.StateRejected, resp.Errors.State)
	}
	n, _ := store.CountRecords(context.Background())
	if n != 0 {
		t.Errorf("rejected submission created %d records", n)
	}
}

func TestHandleSubmit_BadBody(t *testing.T) {
	srv, _ := newTestServer(t)
	r := httptest.NewRequest(http.MethodPost, "/api/v1/records", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	srv.handleSubmit(w, r)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status: got %d", w.Code)
	}
}

func TestHandleGetDocument(t *testing.T) {
	srv, _ := newTestServer(t)

	w := httptest.NewRecorder()
	srv.handleSubmit(w, httptest.NewRequest(http.MethodPost, "/api/v1/records", submitBody(t)))
	var created struct {
		Record *models.ListRecord `json:"record"`
	}
	_ = json.NewDecoder(w.Body).Decode(&created)

	r := withID(httptest.NewRequest(http.MethodGet, "/api/v1/records/1/document", nil), "1")
	w = httptest.NewRecorder()
	srv.handleGetDocument(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("content type: %s", ct)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")) {
		t.Error("body is not a PDF")
	}
}

func TestHandleGetDocument_NotFound(t *testing.T) {
	srv, _ := newTestServer(t)
	r := withID(httptest.NewRequest(http.MethodGet, "/api/v1/records/99/document", nil), "99")
	w := httptest.NewRecorder()
	srv.handleGetDocument(w, r)
	if w.Code != http.StatusNotFound {
		t.Errorf("status: got %d", w.Code)
	}
}

func TestHandleHistoryAndFilters(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, client := range []string{"Ana", "Bruno"} {
		in := models.SubmitInput{
			ClientName:     client,
			TechnicianName: "Carla",
			Lines:          []models.RawLine{{Description: "Painel", Quantity: 1}},
		}
		body, _ := json.Marshal(in)
		w := httptest.NewRecorder()
		srv.handleSubmit(w, httptest.NewRequest(http.MethodPost, "/api/v1/records", bytes.NewReader(body)))
		if w.Code != http.StatusCreated {
			t.Fatalf("seed submit failed: %d", w.Code)
		}
	}

	w := httptest.NewRecorder()
	srv.handleHistory(w, httptest.NewRequest(http.MethodGet, "/api/v1/records", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var resp struct {
		Records []*models.RecordSummary `json:"records"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Records) != 2 || resp.Records[0].ClientName != "Bruno" {
		t.Errorf("history not most-recent-first: %+v", resp.Records)
	}

	w = httptest.NewRecorder()
	srv.handleHistory(w, httptest.NewRequest(http.MethodGet, "/api/v1/records?client=ana", nil))
	resp.Records = nil
	_ = json.NewDecoder(w.Body).Decode(&resp)
	if len(resp.Records) != 1 || resp.Records[0].ClientName != "Ana" {
		t.Errorf("client filter: %+v", resp.Records)
	}

	w = httptest.NewRecorder()
	srv.handleHistory(w, httptest.NewRequest(http.MethodGet, "/api/v1/records?from=bogus", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad date should 400, got %d", w.Code)
	}
}

func TestHandleExport(t *testing.T) {
	srv, _ := newTestServer(t)

	w := httptest.NewRecorder()
	srv.handleSubmit(w, httptest.NewRequest(http.MethodPost, "/api/v1/records", submitBody(t)))

	w = httptest.NewRecorder()
	srv.handleExport(w, httptest.NewRequest(http.MethodGet, "/api/v1/records/export", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheet") {
		t.Errorf("content type: %s", ct)
	}
	// XLSX files are zip archives.
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("PK")) {
		t.Error("body is not an xlsx archive")
	}
}

func TestHandleWhatsAppRedirect(t *testing.T) {
	srv, _ := newTestServer(t)

	w := httptest.NewRecorder()
	srv.handleSubmit(w, httptest.NewRequest(http.MethodPost, "/api/v1/records", submitBody(t)))

	r := withID(httptest.NewRequest(http.MethodGet, "/api/v1/records/1/whatsapp", nil), "1")
	w = httptest.NewRecorder()
	srv.handleWhatsApp(w, r)
	if w.Code != http.StatusFound {
		t.Fatalf("status: got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); !strings.HasPrefix(loc, "https://wa.me/?text=") {
		t.Errorf("location: %s", loc)
	}
}

func TestHandleDelete(t *testing.T) {
	srv, store := newTestServer(t)

	w := httptest.NewRecorder()
	srv.handleSubmit(w, httptest.NewRequest(http.MethodPost, "/api/v1/records", submitBody(t)))

	r := withID(httptest.NewRequest(http.MethodDelete, "/api/v1/records/1", nil), "1")
	w = httptest.NewRecorder()
	srv.handleDelete(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	n, _ := store.CountRecords(context.Background())
	if n != 0 {
		t.Errorf("record not deleted: %d left", n)
	}

	w = httptest.NewRecorder()
	srv.handleDelete(w, r)
	if w.Code != http.StatusNotFound {
		t.Errorf("double delete should 404, got %d", w.Code)
	}
}

func TestHandleCatalog(t *testing.T) {
	srv, _ := newTestServer(t)
	w := httptest.NewRecorder()
	srv.handleCatalog(w, httptest.NewRequest(http.MethodGet, "/api/v1/catalog", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var resp struct {
		Categories []catalog.Category `json:"categories"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Categories) == 0 {
		t.Error("catalog empty")
	}
}

func TestHandleStatusAndHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	w := httptest.NewRecorder()
	srv.handleStatus(w, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var resp map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if _, ok := resp["records"]; !ok {
		t.Error("status missing record count")
	}

	w = httptest.NewRecorder()
	srv.handleHealth(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("health: got %d", w.Code)
	}
}
