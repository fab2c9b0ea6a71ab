package app

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"grounds/internal/config"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	cfg := config.Default()
	cfg.Providers = []config.Provider{
		{ID: "alpha", Kind: "canned", Priority: 1, Enabled: true},
		{ID: "beta", Kind: "canned", Priority: 2, Enabled: true},
	}
	a, err := New(cfg, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func postJSON(t *testing.T, mux *http.ServeMux, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHandleCompare(t *testing.T) {
	mux := newTestApp(t).Routes()
	rec := postJSON(t, mux, "/v1/compare", `{"prompt":"choose a queueing system"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Results []json.RawMessage `json:"results"`
		Winner  string            `json:"winner"`
		Meta    struct {
			RequestID        string            `json:"request_id"`
			EnabledProviders []string          `json:"enabled_providers"`
			RequestedModels  map[string]string `json:"requested_models"`
		} `json:"meta"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("results = %d", len(resp.Results))
	}
	if resp.Winner == "" || resp.Meta.RequestID == "" {
		t.Fatalf("resp = %+v", resp)
	}
	if len(resp.Meta.EnabledProviders) != 2 || resp.Meta.RequestedModels["alpha"] == "" {
		t.Fatalf("meta = %+v", resp.Meta)
	}
}

func TestHandleCompareNarrowsEnabledSet(t *testing.T) {
	mux := newTestApp(t).Routes()
	rec := postJSON(t, mux, "/v1/compare", `{"prompt":"pick one","enabled":["beta"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Winner string `json:"winner"`
		Meta   struct {
			EnabledProviders []string `json:"enabled_providers"`
		} `json:"meta"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Meta.EnabledProviders) != 1 || resp.Meta.EnabledProviders[0] != "beta" {
		t.Fatalf("enabled = %v", resp.Meta.EnabledProviders)
	}
	if resp.Winner != "beta" {
		t.Fatalf("winner = %q", resp.Winner)
	}
}

func TestHandleCompareRejectsBadRequests(t *testing.T) {
	mux := newTestApp(t).Routes()

	if rec := postJSON(t, mux, "/v1/compare", `{"prompt":"  "}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("blank prompt status = %d", rec.Code)
	}
	if rec := postJSON(t, mux, "/v1/compare", `{not json`); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad json status = %d", rec.Code)
	}
	if rec := postJSON(t, mux, "/v1/compare", `{"prompt":"x","enabled":["missing"]}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("empty enabled set status = %d", rec.Code)
	}
	if rec := postJSON(t, mux, "/v1/compare", `{"prompt":"x","temperature":2.5}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("hot temperature status = %d", rec.Code)
	}
	if rec := postJSON(t, mux, "/v1/compare", `{"prompt":"x","temperature":-0.1}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("negative temperature status = %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/compare", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET status = %d", rec.Code)
	}
}

func TestHandleScore(t *testing.T) {
	mux := newTestApp(t).Routes()
	body, err := json.Marshal(map[string]any{"text": "BEST OPTION:\nOption A.", "min_next_actions": 2})
	if err != nil {
		t.Fatal(err)
	}
	rec := postJSON(t, mux, "/v1/score", string(body))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Score          int      `json:"score"`
		MustRepair     bool     `json:"must_repair"`
		MissingHeaders []string `json:"missing_headers"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.MustRepair || len(resp.MissingHeaders) == 0 {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestHandleSalvage(t *testing.T) {
	mux := newTestApp(t).Routes()

	payload, err := json.Marshal(map[string]any{
		"text": "Here you go:\n```json\n{\"plan\": \"B\",}\n```",
	})
	if err != nil {
		t.Fatal(err)
	}
	rec := postJSON(t, mux, "/v1/salvage", string(payload))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		OK    bool           `json:"ok"`
		Value map[string]any `json:"value"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.OK || resp.Value["plan"] != "B" {
		t.Fatalf("resp = %+v", resp)
	}

	rec = postJSON(t, mux, "/v1/salvage", `{"text":"no structure here at all"}`)
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.OK {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestHandleProviders(t *testing.T) {
	mux := newTestApp(t).Routes()
	req := httptest.NewRequest(http.MethodGet, "/v1/providers", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Providers []struct {
			ID      string `json:"id"`
			Enabled bool   `json:"enabled"`
		} `json:"providers"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Providers) != 2 || !resp.Providers[0].Enabled {
		t.Fatalf("providers = %+v", resp.Providers)
	}
}

func TestNewFallsBackToDevProvider(t *testing.T) {
	cfg := config.Default()
	a, err := New(cfg, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatal(err)
	}
	if len(a.Providers) != 1 || a.Providers[0].ID != "dev" {
		t.Fatalf("providers = %+v", a.Providers)
	}
}

func TestNewRejectsEmptyProviderSet(t *testing.T) {
	cfg := config.Default()
	cfg.Dev.Mode = false
	cfg.Providers = []config.Provider{{ID: "openai", Kind: "openai", Enabled: true}} // no key
	if _, err := New(cfg, log.New(io.Discard, "", 0)); err == nil {
		t.Fatal("expected error when every provider is unusable")
	}
}
