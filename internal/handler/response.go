package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"skillswap/internal/apperr"
	"skillswap/internal/logger"
	"skillswap/internal/middleware"
)

const maxBodyBytes = 64 << 10

type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeData(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, Response{Success: true, Data: data})
}

// writeError answers with the status matching err's kind. Operational
// failures are logged and reported as a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error("Request failed",
			"request_id", middleware.RequestID(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
	}
	writeJSON(w, status, Response{Error: apperr.Message(err)})
}

func statusFor(err error) int {
	switch apperr.Kind(err) {
	case apperr.ErrValidation:
		return http.StatusBadRequest
	case apperr.ErrPermission:
		return http.StatusForbidden
	case apperr.ErrNotFound:
		return http.StatusNotFound
	case apperr.ErrDuplicatePending,
		apperr.ErrAlreadyRated,
		apperr.ErrInvalidTransition,
		apperr.ErrInvalidState,
		apperr.ErrInsufficientPoints,
		apperr.ErrSelfBooking,
		apperr.ErrConflict:
		return http.StatusConflict
	case apperr.ErrInvalidCredentials, apperr.ErrUnauthenticated:
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

// decodeJSON reads a single JSON object from the body into v.
func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Wrap(apperr.ErrValidation, "request body is empty")
		}
		return apperr.Wrap(apperr.ErrValidation, "invalid request body")
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Wrap(apperr.ErrValidation, "invalid %s", name)
	}
	return id, nil
}

// currentUser is only called behind middleware.RequireUser.
func currentUser(r *http.Request) int64 {
	id, _ := middleware.UserID(r.Context())
	return id
}
