// Package httpapi exposes the files API over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"filesmanager/internal/files"
	"filesmanager/internal/logging"
)

// Authenticator checks login credentials.
type Authenticator interface {
	Verify(ctx context.Context, email, password string) (int64, error)
}

// SessionStore issues and resolves login tokens.
type SessionStore interface {
	Create(ctx context.Context, userID int64) (string, error)
	Resolve(ctx context.Context, token string) (int64, bool, error)
	Revoke(ctx context.Context, token string) error
}

// StatsSource reports catalog totals.
type StatsSource interface {
	CountUsers(ctx context.Context) (int64, error)
	CountFiles(ctx context.Context) (int64, error)
}

// PingFunc reports whether a backend is reachable.
type PingFunc func(ctx context.Context) error

// Server holds the handlers' collaborators. Build the handler once with
// Handler and release it with Close.
type Server struct {
	Users     Authenticator
	Sessions  SessionStore
	Files     *files.Service
	Stats     StatsSource
	DBPing    PingFunc
	RedisPing PingFunc
	Logger    *slog.Logger

	// MaxUploadBytes caps the JSON upload body. Zero means 64 MiB.
	MaxUploadBytes int64
	// LoginPerMinute limits /connect attempts per client IP. Zero disables it.
	LoginPerMinute int

	throttle *loginThrottle
}

// Handler returns the routed, wrapped API handler.
func (s *Server) Handler() (http.Handler, error) {
	if s.Users == nil || s.Sessions == nil || s.Files == nil {
		return nil, errors.New("users, sessions and files are required")
	}
	if s.Logger == nil {
		s.Logger = logging.Discard()
	}
	if s.MaxUploadBytes <= 0 {
		s.MaxUploadBytes = 64 << 20
	}
	if s.LoginPerMinute > 0 && s.throttle == nil {
		s.throttle = newLoginThrottle(s.LoginPerMinute, time.Minute)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /stats", s.handleStats)

	mux.HandleFunc("GET /connect", s.withLoginLimit(s.handleConnect))
	mux.HandleFunc("GET /disconnect", s.handleDisconnect)

	mux.HandleFunc("POST /files", s.withUser(s.handleUpload))
	mux.HandleFunc("GET /files", s.withUser(s.handleList))
	mux.HandleFunc("GET /files/{id}", s.withUser(s.handleShow))
	mux.HandleFunc("PUT /files/{id}/publish", s.withUser(s.handlePublish))
	mux.HandleFunc("PUT /files/{id}/unpublish", s.withUser(s.handleUnpublish))
	mux.HandleFunc("GET /files/{id}/data", s.handleData)

	return s.withRequestLog(s.withRecover(withSecurityHeaders(mux))), nil
}

// Close stops background helpers started by Handler.
func (s *Server) Close() {
	if s.throttle != nil {
		s.throttle.Stop()
		s.throttle = nil
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func withSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("x-content-type-options", "nosniff")
		w.Header().Set("x-frame-options", "DENY")
		w.Header().Set("referrer-policy", "no-referrer")
		w.Header().Set("content-security-policy", "default-src 'none'; frame-ancestors 'none'")
		if r.TLS != nil {
			w.Header().Set("strict-transport-security", "max-age=31536000")
		}
		next.ServeHTTP(w, r)
	})
}
