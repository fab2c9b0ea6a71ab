package app

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"grounds/internal/compare"
	"grounds/internal/llm"
	"grounds/internal/readiness"
	"grounds/internal/salvage"
)

func (a *App) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/v1/compare", a.handleCompare)
	mux.HandleFunc("/v1/score", a.handleScore)
	mux.HandleFunc("/v1/salvage", a.handleSalvage)
	mux.HandleFunc("/v1/providers", a.handleProviders)
	return mux
}

func (a *App) handleCompare(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Prompt      string            `json:"prompt"`
		System      string            `json:"system,omitempty"`
		Temperature float32           `json:"temperature,omitempty"`
		MaxTokens   int               `json:"max_tokens,omitempty"`
		Enabled     []string          `json:"enabled,omitempty"`
		Models      map[string]string `json:"models,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	req.Prompt = strings.TrimSpace(req.Prompt)
	if req.Prompt == "" {
		http.Error(w, "missing prompt", http.StatusBadRequest)
		return
	}
	if req.Temperature < 0 || req.Temperature > 2 {
		http.Error(w, "temperature must be between 0 and 2", http.StatusBadRequest)
		return
	}

	base := llm.Request{
		System:      req.System,
		Prompt:      req.Prompt,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	run, err := a.Compare(r.Context(), base, req.Enabled, req.Models)
	if err != nil {
		if errors.Is(err, compare.ErrNoProviders) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	enabled := make([]string, 0, len(run.Results))
	models := make(map[string]string, len(run.Results))
	for _, res := range run.Results {
		enabled = append(enabled, res.Provider)
		models[res.Provider] = res.ModelRequested
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"results": run.Results,
		"winner":  run.Winner,
		"meta": map[string]any{
			"request_id":        run.RequestID,
			"elapsed_ms":        run.ElapsedMS,
			"enabled_providers": enabled,
			"requested_models":  models,
		},
	})
}

func (a *App) handleScore(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Text           string `json:"text"`
		MinNextActions int    `json:"min_next_actions,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	cfg := readiness.DefaultConfig()
	if req.MinNextActions > 0 {
		cfg.MinNextActions = req.MinNextActions
	}
	writeJSON(w, http.StatusOK, readiness.ScoreReportText(req.Text, cfg))
}

func (a *App) handleSalvage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Text   string         `json:"text"`
		Schema map[string]any `json:"schema,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	value, ok := salvage.Recover(req.Text)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"ok": false})
		return
	}
	payload := map[string]any{"ok": true, "value": value}
	if req.Schema != nil {
		valid, problems := salvage.Validate(value, req.Schema)
		payload["valid"] = valid
		if len(problems) > 0 {
			payload["problems"] = problems
		}
	}
	writeJSON(w, http.StatusOK, payload)
}

func (a *App) handleProviders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	type providerView struct {
		ID        string   `json:"id"`
		Model     string   `json:"model,omitempty"`
		Fallbacks []string `json:"fallbacks,omitempty"`
		Priority  int      `json:"priority"`
		Enabled   bool     `json:"enabled"`
	}
	views := make([]providerView, 0, len(a.Providers))
	for _, spec := range a.Providers {
		model := spec.Model
		if model == "" {
			model = spec.Adapter.DefaultModel()
		}
		views = append(views, providerView{
			ID:        spec.ID,
			Model:     model,
			Fallbacks: spec.Fallbacks,
			Priority:  spec.Priority,
			Enabled:   spec.Enabled,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"providers": views, "pinned": a.Config.Compare.Pinned})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
