package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"importador/internal/ingest"
	"importador/internal/layout"
	"importador/internal/transform"
)

// respondJSON writes a JSON response body with the given status.
func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleCatalog returns the static target field catalog.
func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"fields":     s.catalog.Fields(),
		"categories": s.catalog.Categories(),
	})
}

func (s *Server) handleListTransformations(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"transformations": transform.Known(),
	})
}

// handleApplyTransformation runs one transformation over one value,
// for previewing mapped data in the editor.
func (s *Server) handleApplyTransformation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type   string         `json:"type"`
		Params map[string]any `json:"params"`
		Value  string         `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondBadRequest(w, r, fmt.Errorf("decode request: %w", err))
		return
	}

	out, err := transform.Apply(req.Type, req.Params, req.Value)
	if err != nil {
		s.respondError(w, r, err, http.StatusUnprocessableEntity)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"value": out})
}

// handleListLayouts returns all persisted layouts, newest first.
func (s *Server) handleListLayouts(w http.ResponseWriter, r *http.Request) {
	layouts, err := s.store.List()
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	if layouts == nil {
		layouts = []layout.Configuration{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"layouts": layouts})
}

func (s *Server) handleGetLayout(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.store.Load(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	respondJSON(w, http.StatusOK, cfg)
}

// handleSaveLayout validates and persists a layout document. A layout
// without an identifier is created; one with an identifier is updated.
// Structural errors block the save; warnings are returned alongside
// the saved document.
func (s *Server) handleSaveLayout(w http.ResponseWriter, r *http.Request) {
	var cfg layout.Configuration
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		s.respondBadRequest(w, r, fmt.Errorf("decode layout: %w", err))
		return
	}

	result := layout.Validate(cfg, s.catalog)
	if !result.Valid {
		respondJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:      "layout validation failed",
			Code:       "LAY002",
			Validation: &result,
		})
		return
	}

	if err := s.store.Save(&cfg); err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"layout":   cfg,
		"warnings": result.Warnings,
	})
}

// handleValidateLayout runs validation without persisting anything.
func (s *Server) handleValidateLayout(w http.ResponseWriter, r *http.Request) {
	var cfg layout.Configuration
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		s.respondBadRequest(w, r, fmt.Errorf("decode layout: %w", err))
		return
	}
	respondJSON(w, http.StatusOK, layout.Validate(cfg, s.catalog))
}

func (s *Server) handleDeleteLayout(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(chi.URLParam(r, "id")); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// fileRequest locates a source file for the inspection endpoints.
type fileRequest struct {
	Path           string `json:"path"`
	HeaderRowIndex int    `json:"headerRowIndex"`
	MaxRows        int    `json:"maxRows"`
}

// handleFileInfo returns size, encoding, and shape information about a
// source file.
func (s *Server) handleFileInfo(w http.ResponseWriter, r *http.Request) {
	var req fileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondBadRequest(w, r, fmt.Errorf("decode request: %w", err))
		return
	}

	details, err := s.ingestor.FileInfo(req.Path)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	if details.Size > s.cfg.Ingest.MaxFileSize {
		s.respondError(w, r,
			fmt.Errorf("file exceeds maximum size of %d bytes", s.cfg.Ingest.MaxFileSize),
			http.StatusRequestEntityTooLarge)
		return
	}
	respondJSON(w, http.StatusOK, details)
}

// handleFilePreview returns the header and a bounded batch of data
// rows from a source file.
func (s *Server) handleFilePreview(w http.ResponseWriter, r *http.Request) {
	var req fileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondBadRequest(w, r, fmt.Errorf("decode request: %w", err))
		return
	}
	if req.HeaderRowIndex < 1 {
		req.HeaderRowIndex = 1
	}
	if req.MaxRows < 1 || req.MaxRows > s.cfg.Ingest.MaxPreviewRows {
		req.MaxRows = s.cfg.Ingest.MaxPreviewRows
	}

	header, err := s.ingestor.ReadHeader(req.Path, req.HeaderRowIndex)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	if len(header) == 0 {
		err := fmt.Errorf("no header at row %d: %w", req.HeaderRowIndex, ingest.ErrEmptyFile)
		s.respondError(w, r, err, statusFor(err))
		return
	}
	rows, err := s.ingestor.ReadRows(req.Path, req.HeaderRowIndex, req.MaxRows)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"header": header,
		"rows":   rows,
	})
}

var errPreferenceNotFound = errors.New("preference not found")

// handleGetPreference returns a stored preference blob verbatim.
func (s *Server) handleGetPreference(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var value json.RawMessage
	found, err := s.prefs.Get(key, &value)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	if !found {
		s.respondError(w, r, fmt.Errorf("%w: %s", errPreferenceNotFound, key),
			http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"key": key, "value": value})
}

func (s *Server) handleSetPreference(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		s.respondBadRequest(w, r, fmt.Errorf("read body: %w", err))
		return
	}
	var value json.RawMessage
	if err := json.Unmarshal(body, &value); err != nil {
		s.respondBadRequest(w, r, fmt.Errorf("preference value must be JSON: %w", err))
		return
	}

	if err := s.prefs.Set(key, value); err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"stored": true})
}

func (s *Server) handleDeletePreference(w http.ResponseWriter, r *http.Request) {
	if err := s.prefs.Remove(chi.URLParam(r, "key")); err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
