package httpapi

import (
	"context"
	"net/http"
	"time"
)

const pingTimeout = 2 * time.Second

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{
		"redis": alive(r.Context(), s.RedisPing),
		"db":    alive(r.Context(), s.DBPing),
	})
}

func alive(ctx context.Context, ping PingFunc) bool {
	if ping == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return ping(ctx) == nil
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.Stats == nil {
		writeErr(w, http.StatusServiceUnavailable, "stats unavailable")
		return
	}
	users, err := s.Stats.CountUsers(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	n, err := s.Stats.CountFiles(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"users": users, "files": n})
}
