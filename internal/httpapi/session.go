package httpapi

import (
	"context"
	"net/http"
)

type ctxKey int

const ctxUserID ctxKey = iota

const tokenHeader = "X-Token"

// userFrom returns the id stored by withUser.
func userFrom(ctx context.Context) int64 {
	id, _ := ctx.Value(ctxUserID).(int64)
	return id
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	email, password, ok := r.BasicAuth()
	if !ok {
		writeErr(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	uid, err := s.Users.Verify(r.Context(), email, password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	tok, err := s.Sessions.Create(r.Context(), uid)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.Logger.Info("user connected", "user_id", uid, "remote_ip", clientIP(r))
	writeJSON(w, http.StatusOK, map[string]string{"token": tok})
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.Revoke(r.Context(), r.Header.Get(tokenHeader)); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// withUser requires a token that resolves to a user.
func (s *Server) withUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok, err := s.Sessions.Resolve(r.Context(), r.Header.Get(tokenHeader))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if !ok {
			writeErr(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), ctxUserID, uid)))
	}
}

// optionalUser resolves a token when one is sent. A missing or stale token
// yields 0, the anonymous requester.
func (s *Server) optionalUser(r *http.Request) (int64, error) {
	tok := r.Header.Get(tokenHeader)
	if tok == "" {
		return 0, nil
	}
	uid, ok, err := s.Sessions.Resolve(r.Context(), tok)
	if err != nil || !ok {
		return 0, err
	}
	return uid, nil
}

// withLoginLimit applies the per-IP login throttle when configured.
func (s *Server) withLoginLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.throttle != nil {
			if ok, wait := s.throttle.Allow(clientIP(r)); !ok {
				w.Header().Set("retry-after", retryAfterSeconds(wait))
				writeErr(w, http.StatusTooManyRequests, "Too many requests")
				return
			}
		}
		next(w, r)
	}
}
