package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"newsdesk-sections/internal/services"

	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

type ErrorResponse struct {
	Message string `json:"message"`
}

type ListResponse[T any] struct {
	Items []T `json:"items"`
}

func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse{Message: message})
}

// decodeJSON reads a single JSON document into dst. An empty body is an error.
func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := decoder.Decode(dst); err != nil {
		return err
	}
	return nil
}

func mapServiceError(w http.ResponseWriter, err error) bool {
	if err == nil {
		return false
	}
	var serr services.ServiceError
	if errors.As(err, &serr) {
		WriteError(w, serr.Status, serr.Message)
		return true
	}
	return false
}

// writeFailure maps service errors and logs everything else as a 500.
func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	if mapServiceError(w, err) {
		return
	}
	s.Log.Error("request failed", zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
	WriteError(w, http.StatusInternalServerError, "Internal server error")
}

func parseInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	if value < 1 {
		return fallback
	}
	return value
}
