package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorBody is the {"error": ...} shape used by recipe routes.
func errorBody(msg string) map[string]any { return map[string]any{"error": msg} }

// messageBody is the {"message": ...} shape used by photo routes.
func messageBody(msg string) map[string]any { return map[string]any{"message": msg} }

// validationFailed writes a 400 for a failed Parse, or a 500 when err is not a validation failure.
func (s *Server) validationFailed(w http.ResponseWriter, r *http.Request, err error, photoShape bool) {
	ve, ok := err.(*ValidationError)
	if !ok {
		s.internalError(w, r, err, "Failed to read request", photoShape)
		return
	}
	if photoShape {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Invalid input", "errors": ve.Details})
		return
	}
	writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Validation error", "details": ve.Details})
}

// internalError logs err and writes a generic 500.
func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error, msg string, photoShape bool) {
	s.log.Error(msg,
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err))
	if photoShape {
		writeJSON(w, http.StatusInternalServerError, messageBody(msg))
		return
	}
	writeJSON(w, http.StatusInternalServerError, errorBody(msg))
}
