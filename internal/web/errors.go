package web

// errors.go provides unified error response handling for the web layer.
//
// Every handler error funnels through respondError: the technical
// error is logged server-side with the request ID, and the client
// receives a JSON body with a stable code it can quote to support.
//
// Error codes:
//
//	ING001 - unsupported file format
//	ING002 - no header found / empty file
//	ING003 - file could not be parsed
//	LAY001 - layout not found
//	LAY002 - layout validation failed (body carries the full result)
//	LAY003 - layout could not be persisted
//	REQ001 - malformed request
//	GEN001 - unexpected internal error

import (
	"encoding/json"
	"errors"
	"net/http"

	"importador/internal/ingest"
	"importador/internal/layout"
	"importador/internal/logging"
	"importador/internal/session"
)

// ErrorResponse is the JSON body for failed requests.
type ErrorResponse struct {
	Error      string                   `json:"error"`
	Code       string                   `json:"code"`
	Validation *layout.ValidationResult `json:"validation,omitempty"`
}

// respondError logs the technical error and writes the coded JSON
// response appropriate for it.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, status int) {
	code := errorCode(err)

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"code", code,
		"error", err.Error(),
	)

	resp := ErrorResponse{Error: err.Error(), Code: code}
	var vErr *session.ValidationFailedError
	if errors.As(err, &vErr) {
		resp.Validation = &vErr.Result
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

// respondBadRequest is the shorthand for malformed request bodies.
func (s *Server) respondBadRequest(w http.ResponseWriter, r *http.Request, err error) {
	s.respondError(w, r, err, http.StatusBadRequest)
}

// errorCode assigns a stable support code to an error.
func errorCode(err error) string {
	var parseErr *ingest.ParseError
	var vErr *session.ValidationFailedError

	switch {
	case errors.Is(err, ingest.ErrUnsupportedFormat):
		return "ING001"
	case errors.Is(err, ingest.ErrEmptyFile):
		return "ING002"
	case errors.As(err, &parseErr):
		return "ING003"
	case errors.Is(err, layout.ErrNotFound):
		return "LAY001"
	case errors.As(err, &vErr):
		return "LAY002"
	default:
		return "GEN001"
	}
}

// statusFor picks an HTTP status for a service-layer error.
func statusFor(err error) int {
	var vErr *session.ValidationFailedError

	switch {
	case errors.Is(err, layout.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ingest.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, ingest.ErrEmptyFile):
		return http.StatusUnprocessableEntity
	case errors.As(err, &vErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, session.ErrNotReady):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
