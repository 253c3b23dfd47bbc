package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hushh/deepsearch/internal/model"
	"github.com/hushh/deepsearch/internal/orchestrator"
	"github.com/hushh/deepsearch/internal/pivot"
	"github.com/hushh/deepsearch/internal/store"
	"github.com/hushh/deepsearch/internal/telemetry"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("server: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) deepSearch(w http.ResponseWriter, r *http.Request) {
	start := h.now()
	id := h.mintSearchID(r.Context())

	var req model.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, model.FailureResponse{
			SearchID: id,
			Status:   model.SessionStatusFailed,
			Error:    "invalid request body",
		})
		return
	}

	sess, err := h.deps.Searcher.Search(model.ContextWithSearchID(r.Context(), id), req)
	if sess != nil && sess.SearchID != "" {
		id = sess.SearchID
	}
	switch {
	case errors.Is(err, orchestrator.ErrValidation):
		writeJSON(w, http.StatusBadRequest, model.FailureResponse{
			SearchID: id,
			Status:   model.SessionStatusFailed,
			Error:    err.Error(),
		})
	case err != nil:
		telemetry.CaptureError(r.Context(), err)
		zap.L().Error("server: deep search", zap.Error(err))
		elapsed := h.now().Sub(start).Milliseconds()
		writeJSON(w, http.StatusInternalServerError, model.FailureResponse{
			SearchID:        id,
			Status:          model.SessionStatusFailed,
			Error:           err.Error(),
			ExecutionTimeMs: &elapsed,
		})
	default:
		writeJSON(w, http.StatusOK, sess)
	}
}

func (h *handlers) getSearch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "searchID")
	sess, err := h.deps.Searches.GetSearch(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "search not found")
		return
	}
	if err != nil {
		zap.L().Error("server: get search", zap.String("search_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load search")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *handlers) listSearches(w http.ResponseWriter, r *http.Request) {
	filter := store.SearchFilter{Status: model.SessionStatus(r.URL.Query().Get("status"))}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		filter.Limit = n
	}

	list, err := h.deps.Searches.ListSearches(r.Context(), filter)
	if err != nil {
		zap.L().Error("server: list searches", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list searches")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"searches": list})
}

// pivotFailure mirrors the extractor's failure body.
type pivotFailure struct {
	Status             model.PivotStatus         `json:"status"`
	Confidence         float64                   `json:"confidence"`
	Seed               *model.PivotSeed          `json:"seed"`
	ExtractedData      *model.ExtractedData      `json:"extractedData"`
	DiscoveredProfiles []model.DiscoveredProfile `json:"discoveredProfiles"`
	SearchQueries      *model.SearchQueries      `json:"searchQueries"`
	Error              string                    `json:"error"`
}

func (h *handlers) pivotExtract(w http.ResponseWriter, r *http.Request) {
	fail := func(status int, msg string) {
		writeJSON(w, status, pivotFailure{
			Status:             model.PivotStatusFailed,
			DiscoveredProfiles: []model.DiscoveredProfile{},
			Error:              msg,
		})
	}

	var req model.PivotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(http.StatusBadRequest, "invalid request body")
		return
	}

	out, err := h.deps.Extractor.Extract(r.Context(), req)
	switch {
	case errors.Is(err, pivot.ErrInvalidRequest):
		fail(http.StatusBadRequest, err.Error())
	case err != nil:
		telemetry.CaptureError(r.Context(), err)
		zap.L().Error("server: pivot extract", zap.String("platform", req.Platform), zap.Error(err))
		fail(http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, http.StatusOK, out)
	}
}
