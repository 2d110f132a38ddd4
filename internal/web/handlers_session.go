package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"importador/internal/layout"
	"importador/internal/session"
)

var errSessionNotFound = errors.New("session not found")

// sessionView is the JSON shape of an editing session.
type sessionView struct {
	ID             string                  `json:"id"`
	State          session.State           `json:"state"`
	Status         string                  `json:"status"`
	Name           string                  `json:"name"`
	Description    string                  `json:"description"`
	FilePath       string                  `json:"filePath,omitempty"`
	HeaderRowIndex int                     `json:"headerRowIndex"`
	Ready          bool                    `json:"ready"`
	Columns        []session.Column        `json:"columns"`
	Mappings       []layout.FieldMapping   `json:"mappings"`
	BusinessRules  layout.BusinessRules    `json:"businessRules"`
	Validation     layout.ValidationResult `json:"validation"`
}

func newSessionView(id string, sess *session.Session) sessionView {
	return sessionView{
		ID:             id,
		State:          sess.State(),
		Status:         sess.Status(),
		Name:           sess.Name(),
		Description:    sess.Description(),
		FilePath:       sess.FilePath(),
		HeaderRowIndex: sess.HeaderRowIndex(),
		Ready:          sess.Ready(),
		Columns:        sess.Columns(),
		Mappings:       sess.Mappings(),
		BusinessRules:  sess.BusinessRules(),
		Validation:     sess.CurrentErrors(),
	}
}

// lookupSession resolves the {id} route parameter. A nil session means
// the 404 response has already been written.
func (s *Server) lookupSession(w http.ResponseWriter, r *http.Request) (string, *session.Session) {
	id := chi.URLParam(r, "id")
	sess, ok := s.sessions.Get(id)
	if !ok {
		s.respondError(w, r, fmt.Errorf("%w: %s", errSessionNotFound, id),
			http.StatusNotFound)
		return id, nil
	}
	return id, sess
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	id, sess := s.sessions.Create()
	respondJSON(w, http.StatusCreated, newSessionView(id, sess))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, sess := s.lookupSession(w, r)
	if sess == nil {
		return
	}
	respondJSON(w, http.StatusOK, newSessionView(id, sess))
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.sessions.Close(id) {
		s.respondError(w, r, fmt.Errorf("%w: %s", errSessionNotFound, id),
			http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"closed": true})
}

// handleSessionSelectFile records the source file and optionally the
// header row. Reading happens on the next process call.
func (s *Server) handleSessionSelectFile(w http.ResponseWriter, r *http.Request) {
	id, sess := s.lookupSession(w, r)
	if sess == nil {
		return
	}

	var req struct {
		Path           string `json:"path"`
		HeaderRowIndex int    `json:"headerRowIndex"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondBadRequest(w, r, fmt.Errorf("decode request: %w", err))
		return
	}
	if req.Path == "" {
		s.respondBadRequest(w, r, errors.New("path is required"))
		return
	}

	sess.SelectFile(req.Path)
	if req.HeaderRowIndex > 0 {
		sess.SetHeaderRowIndex(req.HeaderRowIndex)
	}
	respondJSON(w, http.StatusOK, newSessionView(id, sess))
}

// handleSessionProcess reads the header row and identifies columns.
func (s *Server) handleSessionProcess(w http.ResponseWriter, r *http.Request) {
	id, sess := s.lookupSession(w, r)
	if sess == nil {
		return
	}

	if err := sess.ProcessFile(); err != nil {
		respondJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":   err.Error(),
			"code":    "ING003",
			"session": newSessionView(id, sess),
		})
		return
	}
	respondJSON(w, http.StatusOK, newSessionView(id, sess))
}

// handleSessionBind binds or unbinds one target field. A null column
// unbinds the field.
func (s *Server) handleSessionBind(w http.ResponseWriter, r *http.Request) {
	id, sess := s.lookupSession(w, r)
	if sess == nil {
		return
	}

	var req struct {
		TargetField  string          `json:"targetField"`
		Column       *session.Column `json:"column"`
		DefaultValue string          `json:"defaultValue"`
		Required     *bool           `json:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondBadRequest(w, r, fmt.Errorf("decode request: %w", err))
		return
	}

	if err := sess.BindField(req.TargetField, req.Column, req.DefaultValue, req.Required); err != nil {
		s.respondError(w, r, err, http.StatusUnprocessableEntity)
		return
	}
	respondJSON(w, http.StatusOK, newSessionView(id, sess))
}

// handleSessionTransformation attaches or clears a transformation on
// one target field.
func (s *Server) handleSessionTransformation(w http.ResponseWriter, r *http.Request) {
	id, sess := s.lookupSession(w, r)
	if sess == nil {
		return
	}

	var req struct {
		TargetField    string                 `json:"targetField"`
		Transformation *layout.Transformation `json:"transformation"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondBadRequest(w, r, fmt.Errorf("decode request: %w", err))
		return
	}

	if err := sess.SetTransformation(req.TargetField, req.Transformation); err != nil {
		s.respondError(w, r, err, http.StatusUnprocessableEntity)
		return
	}
	respondJSON(w, http.StatusOK, newSessionView(id, sess))
}

// handleSessionDetails updates name, description, header row, and
// business rules. Absent fields keep their current values.
func (s *Server) handleSessionDetails(w http.ResponseWriter, r *http.Request) {
	id, sess := s.lookupSession(w, r)
	if sess == nil {
		return
	}

	var req struct {
		Name           *string               `json:"name"`
		Description    *string               `json:"description"`
		HeaderRowIndex *int                  `json:"headerRowIndex"`
		BusinessRules  *layout.BusinessRules `json:"businessRules"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondBadRequest(w, r, fmt.Errorf("decode request: %w", err))
		return
	}

	if req.Name != nil {
		sess.SetName(*req.Name)
	}
	if req.Description != nil {
		sess.SetDescription(*req.Description)
	}
	if req.HeaderRowIndex != nil {
		sess.SetHeaderRowIndex(*req.HeaderRowIndex)
	}
	if req.BusinessRules != nil {
		sess.SetBusinessRules(*req.BusinessRules)
	}
	respondJSON(w, http.StatusOK, newSessionView(id, sess))
}

// handleSessionSave validates the session's layout and persists it.
func (s *Server) handleSessionSave(w http.ResponseWriter, r *http.Request) {
	id, sess := s.lookupSession(w, r)
	if sess == nil {
		return
	}

	cfg, err := sess.Save()
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"layout":  cfg,
		"session": newSessionView(id, sess),
	})
}

func (s *Server) handleSessionReset(w http.ResponseWriter, r *http.Request) {
	id, sess := s.lookupSession(w, r)
	if sess == nil {
		return
	}
	sess.Reset()
	respondJSON(w, http.StatusOK, newSessionView(id, sess))
}
