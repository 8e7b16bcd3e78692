package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/example/flakeorder/detector/domain"
)

const defaultListLimit = 50

// RunReader reads recorded runs. *runner.Runner implements it.
type RunReader interface {
	History(ctx context.Context, limit int) ([]*domain.Run, error)
	GetRun(ctx context.Context, id string) (*domain.Run, error)
}

// Handlers contains HTTP handlers for the web API
type Handlers struct {
	runs RunReader
}

// NewHandlers creates new API handlers
func NewHandlers(runs RunReader) *Handlers {
	return &Handlers{runs: runs}
}

// ListRuns handles GET /api/runs
func (h *Handlers) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	runs, err := h.runs.History(r.Context(), limit)
	if err != nil {
		http.Error(w, "Failed to list runs: "+err.Error(), http.StatusInternalServerError)
		return
	}

	response := ListRunsResponse{Runs: make([]RunSummary, 0, len(runs))}
	for _, run := range runs {
		response.Runs = append(response.Runs, runToSummary(run))
	}
	writeJSON(w, response)
}

// GetRun handles GET /api/runs/:id
func (h *Handlers) GetRun(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/runs"), "/")
	if id == "" {
		http.Error(w, "Run ID required", http.StatusBadRequest)
		return
	}

	run, err := h.runs.GetRun(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrRunNotFound) || errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "Run not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to get run: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, runToSummary(run))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
