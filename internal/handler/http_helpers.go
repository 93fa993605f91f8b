package handler

import (
	"encoding/json"
	"net/http"

	apperrors "pdf-toolkit/pkg/errors"
)

type errorResponse struct {
	Error   string `json:"error"`
	Type    string `json:"type,omitempty"`
	Details string `json:"details,omitempty"`
}

// writeError writes an error response (helper function)
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, errorResponse{Error: message})
}

// writeAppError writes a classified error with its status code.
func writeAppError(w http.ResponseWriter, err *apperrors.AppError) {
	writeJSON(w, err.StatusCode, errorResponse{
		Error:   err.Message,
		Type:    string(err.Type),
		Details: err.Details,
	})
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}
