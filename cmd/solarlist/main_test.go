package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/solarlist/solarlist/internal/models"
)

func TestHistoryFilter(t *testing.T) {
	f, err := historyFilter("ana", "2026-01-10", "2026-01-20")
	if err != nil {
		t.Fatalf("historyFilter failed: %v", err)
	}
	if f.Client != "ana" {
		t.Errorf("Expected client 'ana', got %q", f.Client)
	}
	wantFrom := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	if !f.From.Equal(wantFrom) {
		t.Errorf("Expected from %v, got %v", wantFrom, f.From)
	}
	// to-date is extended to the end of the day
	wantTo := time.Date(2026, 1, 20, 23, 59, 59, 0, time.UTC)
	if !f.To.Equal(wantTo) {
		t.Errorf("Expected to %v, got %v", wantTo, f.To)
	}
}

func TestHistoryFilterEmpty(t *testing.T) {
	f, err := historyFilter("", "", "")
	if err != nil {
		t.Fatalf("historyFilter failed: %v", err)
	}
	if f.Client != "" || !f.From.IsZero() || !f.To.IsZero() {
		t.Errorf("Expected zero filter, got %+v", f)
	}
}

func TestHistoryFilterBadDate(t *testing.T) {
	if _, err := historyFilter("", "10/01/2026", ""); err == nil {
		t.Error("Expected error for malformed from date")
	}
	if _, err := historyFilter("", "", "not-a-date"); err == nil {
		t.Error("Expected error for malformed to date")
	}
}

func TestSubmitViaHTTP(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/records" || r.Method != http.MethodPost {
			t.Errorf("Unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var input models.SubmitInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			t.Errorf("Failed to decode body: %v", err)
		}
		if input.ClientName != "Ana" {
			t.Errorf("Expected client 'Ana', got %q", input.ClientName)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(submitHTTPResponse{
			Record:       &models.ListRecord{ID: 7, ClientName: "Ana"},
			Document:     []byte("%PDF-fake"),
			WhatsAppLink: "https://wa.me/?text=x",
		})
	}))
	defer ts.Close()

	resp, err := submitViaHTTP(ts.URL, &models.SubmitInput{
		ClientName:     "Ana",
		TechnicianName: "Bruno",
		Lines:          []models.RawLine{{Description: "Painel", Quantity: 2, Unit: "un"}},
	})
	if err != nil {
		t.Fatalf("submitViaHTTP failed: %v", err)
	}
	if resp.Record.ID != 7 {
		t.Errorf("Expected record ID 7, got %d", resp.Record.ID)
	}
	if string(resp.Document) != "%PDF-fake" {
		t.Errorf("Unexpected document bytes: %q", resp.Document)
	}
}

func TestSubmitViaHTTPValidationFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"errors":{}}`))
	}))
	defer ts.Close()

	if _, err := submitViaHTTP(ts.URL, &models.SubmitInput{}); err == nil {
		t.Error("Expected error for non-201 response")
	}
}
