package sheets_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"quill/internal/services"
	"quill/internal/services/sheets"
)

func TestReadAllConvertsValues(t *testing.T) {
	var gotRender string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRender = r.URL.Query().Get("valueRenderOption")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"values": []any{
				[]any{"entry", "Audio 1", "Answer 1"},
				[]any{"2026-01-12", "link", ""},
				[]any{"2026-01-13", "link", 42},
			},
		})
	}))
	defer server.Close()

	client := sheets.New(server.Client(), "sheet-1", "Sheet1", sheets.WithBaseURL(server.URL))
	rows, err := client.ReadAll(context.Background())
	if err != nil {
		t.Fatalf("ReadAll returned error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[2][2] != "42" {
		t.Fatalf("numeric cell not stringified: %q", rows[2][2])
	}
	// Formula rendering keeps HYPERLINK audio cells intact in the snapshot.
	if gotRender != "FORMULA" {
		t.Fatalf("valueRenderOption = %q, want FORMULA", gotRender)
	}
}

func TestReadAllFailureIsSourceUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := sheets.New(server.Client(), "sheet-1", "Sheet1", sheets.WithBaseURL(server.URL))
	_, err := client.ReadAll(context.Background())
	if !errors.Is(err, services.ErrSourceUnavailable) {
		t.Fatalf("expected source-unavailable classification, got %v", err)
	}
}

func TestReadCellMissingIsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"range": "Sheet1!D2"})
	}))
	defer server.Close()

	client := sheets.New(server.Client(), "sheet-1", "Sheet1", sheets.WithBaseURL(server.URL))
	value, err := client.ReadCell(context.Background(), "D", 2)
	if err != nil {
		t.Fatalf("ReadCell returned error: %v", err)
	}
	if value != "" {
		t.Fatalf("expected empty cell, got %q", value)
	}
}

func TestWriteCellSendsSingleCellRange(t *testing.T) {
	var gotPath, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("expected PUT, got %s", r.Method)
		}
		gotPath = r.URL.Path
		if r.URL.Query().Get("valueInputOption") != "RAW" {
			t.Errorf("expected RAW input option, got %q", r.URL.RawQuery)
		}
		var payload struct {
			Values [][]any `json:"values"`
		}
		json.NewDecoder(r.Body).Decode(&payload)
		if len(payload.Values) == 1 && len(payload.Values[0]) == 1 {
			gotBody, _ = payload.Values[0][0].(string)
		}
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := sheets.New(server.Client(), "sheet-1", "Sheet1", sheets.WithBaseURL(server.URL))
	if err := client.WriteCell(context.Background(), "D", 2, "hello"); err != nil {
		t.Fatalf("WriteCell returned error: %v", err)
	}
	if gotBody != "hello" {
		t.Fatalf("unexpected body value: %q", gotBody)
	}
	if gotPath != "/spreadsheets/sheet-1/values/Sheet1!D2" {
		t.Fatalf("unexpected path: %q", gotPath)
	}
}
