package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/mwantia/gocard/internal/remote"
	"github.com/mwantia/gocard/internal/router"
	"github.com/mwantia/gocard/pkg/card"
)

type errorResponse struct {
	Error string `json:"error"`
}

type preloadResponse struct {
	Skipped bool   `json:"skipped"`
	Pages   int    `json:"pages"`
	Records int    `json:"records"`
	Error   string `json:"error,omitempty"`
}

// GET /v1/content/{hash}
func (s *Server) handleContent(w http.ResponseWriter, r *http.Request) {
	hash := chi.URLParam(r, "hash")

	fetched, err := s.deps.Router.FetchContent(r.Context(), hash)
	if err != nil {
		s.writeError(w, err)
		return
	}

	contentType := fetched.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Gocard-Source", fetched.Source)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(card.Bytes(fetched.Content))
}

// GET /v1/metadata/{hash}
func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	record, err := s.deps.Router.FetchMetadata(r.Context(), chi.URLParam(r, "hash"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// GET /v1/search?query=
// Waits for the first preload pass, but never longer than the wait timeout.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "query is required"})
		return
	}

	if s.deps.Gate != nil && !s.deps.Gate.Wait(r.Context(), s.deps.WaitTimeout) {
		s.log.Debug("Searching before preload finished")
	}

	results, err := s.deps.Router.Search(r.Context(), query)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": results})
}

// GET /v1/stats
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Cache.Stats(r.Context()))
}

// GET /v1/ready
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.Gate == nil || !s.deps.Gate.Ready() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]bool{"ready": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ready": true})
}

// POST /v1/preload?force=true
func (s *Server) handlePreload(w http.ResponseWriter, r *http.Request) {
	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))

	result := s.deps.Preload.PreloadAll(r.Context(), force)
	resp := preloadResponse{
		Skipped: result.Skipped,
		Pages:   result.Pages,
		Records: result.Records,
	}
	if result.Err != nil {
		resp.Error = result.Err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// DELETE /v1/cache
func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.deps.Cache.Clear(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// DELETE /v1/cache/{hash}
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if !s.deps.Cache.Delete(r.Context(), chi.URLParam(r, "hash")) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not cached"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	online := s.deps.Signal != nil && s.deps.Signal.Online()

	if s.deps.Health != nil {
		if err := s.deps.Health(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"status": "unhealthy",
				"error":  err.Error(),
				"online": online,
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "online": online})
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, router.ErrContentUnavailableOffline):
		status = http.StatusServiceUnavailable
	case remote.IsNotFound(err):
		status = http.StatusNotFound
	case errors.Is(err, router.ErrRemote):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		s.log.Error("Request failed: %v", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
