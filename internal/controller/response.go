package controller

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	appErrors "github.com/unclebandit/bidtracker-backend/internal/errors"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps service errors to a status code. Unexpected errors are
// logged and reported without detail.
func writeError(w http.ResponseWriter, log *zap.Logger, r *http.Request, err error) {
	status := appErrors.HTTPStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		if log != nil {
			log.Error("Request failed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Error(err),
			)
		}
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeBody(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return appErrors.NewValidation("", "invalid body")
	}
	return nil
}

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}
