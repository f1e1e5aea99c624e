package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"filesmanager/internal/auth"
	"filesmanager/internal/files"
)

// writeError maps a handler error to its status and client message.
// Unexpected errors are logged and hidden behind "server error".
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var fe *files.FieldError
	switch {
	case errors.As(err, &fe):
		writeErr(w, http.StatusBadRequest, fe.Msg)
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrUnauthorized),
		errors.Is(err, auth.ErrSessionNotFound):
		writeErr(w, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, files.ErrNotFound):
		writeErr(w, http.StatusNotFound, "Not found")
	case errors.Is(err, files.ErrInvalidOperation):
		writeErr(w, http.StatusBadRequest, "A folder doesn't have content")
	case errors.Is(err, files.ErrStorageWrite):
		s.Logger.Error("blob write failed", "path", r.URL.Path, "err", err)
		writeErr(w, http.StatusInternalServerError, "Cannot write the file")
	case isRetryableDBErr(err):
		s.Logger.Warn("database busy", "path", r.URL.Path, "err", err)
		w.Header().Set("retry-after", "1")
		writeErr(w, http.StatusServiceUnavailable, "database busy")
	default:
		s.Logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		writeErr(w, http.StatusInternalServerError, "server error")
	}
}

// isRetryableDBErr identifies transient SQLite lock errors.
func isRetryableDBErr(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	// modernc/sqlite reports these as message text rather than typed errors.
	return strings.Contains(s, "database is locked") ||
		strings.Contains(s, "sqlite_busy") ||
		strings.Contains(s, "database table is locked")
}
