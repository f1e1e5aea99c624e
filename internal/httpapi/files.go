package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"filesmanager/internal/files"
)

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.MaxUploadBytes)
	var req files.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeErr(w, http.StatusRequestEntityTooLarge, "Payload too large")
			return
		}
		// An unreadable body carries no name, and name is checked first.
		writeErr(w, http.StatusBadRequest, "Missing name")
		return
	}
	e, err := s.Files.Create(r.Context(), userFrom(r.Context()), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleShow(w http.ResponseWriter, r *http.Request) {
	id, err := files.ParseID(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, files.ErrNotFound)
		return
	}
	e, err := s.Files.Get(r.Context(), id, userFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f files.ListFilter
	if v := q.Get("parentId"); v != "" {
		pid, err := files.ParseID(v)
		if err != nil {
			// No entry can live under an id that does not parse.
			writeJSON(w, http.StatusOK, []files.Entry{})
			return
		}
		f.ParentID = &pid
	}
	if p, err := strconv.Atoi(q.Get("page")); err == nil && p > 0 {
		f.Page = p
	}
	out, err := s.Files.List(r.Context(), userFrom(r.Context()), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	s.setVisibility(w, r, true)
}

func (s *Server) handleUnpublish(w http.ResponseWriter, r *http.Request) {
	s.setVisibility(w, r, false)
}

func (s *Server) setVisibility(w http.ResponseWriter, r *http.Request, public bool) {
	id, err := files.ParseID(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, files.ErrNotFound)
		return
	}
	e, err := s.Files.SetVisibility(r.Context(), id, userFrom(r.Context()), public)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	id, err := files.ParseID(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, files.ErrNotFound)
		return
	}
	uid, err := s.optionalUser(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	c, err := s.Files.ReadContent(r.Context(), id, uid, r.URL.Query().Get("size"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("content-type", c.ContentType)
	w.Header().Set("content-length", strconv.Itoa(len(c.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(c.Data)
}
