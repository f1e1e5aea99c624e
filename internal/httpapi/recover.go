package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
)

// withRecover converts a handler panic into a 500 and logs it with the
// request id. http.ErrAbortHandler is passed through to net/http.
func (s *Server) withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if err, ok := v.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(v)
			}
			s.Logger.Error("handler panic",
				"request_id", w.Header().Get(requestIDHeader),
				"route", r.Method+" "+r.URL.Path,
				"err", fmt.Sprint(v),
				"stack", string(debug.Stack()),
			)
			writeErr(w, http.StatusInternalServerError, "server error")
		}()
		next.ServeHTTP(w, r)
	})
}
