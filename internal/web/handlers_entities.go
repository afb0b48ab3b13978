package web

import (
	"fmt"
	"net/http"

	"github.com/JonMunkholm/transitdir/internal/core"
	"github.com/JonMunkholm/transitdir/internal/web/templates"
)

// handleList returns every record of a kind.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	recs, err := s.service.List(r.Context(), kind)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, recs, core.Describe(recs), templates.RecordList(recs))
}

// handleGet returns one record.
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	id, err := idParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	rec, err := s.service.Get(r.Context(), kind, id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	recs := []core.Record{rec}
	respond(w, r, http.StatusOK, rec, core.Describe(recs), templates.RecordList(recs))
}

// handleCreate creates a record from form fields.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	cred, err := s.parseForm(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	kind, err := kindParam(r)
	if err != nil {
		s.respondError(w, r, s.authorizeFirst(cred, err))
		return
	}

	rec, err := s.service.Create(r.Context(), cred, kind, r.PostForm)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	recs := []core.Record{rec}
	respond(w, r, http.StatusCreated, rec, core.Describe(recs), templates.RecordList(recs))
}

// handleUpdate merges the supplied form fields into a stored record.
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	cred, err := s.parseForm(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	kind, err := kindParam(r)
	if err != nil {
		s.respondError(w, r, s.authorizeFirst(cred, err))
		return
	}
	id, err := idParam(r)
	if err != nil {
		s.respondError(w, r, s.authorizeFirst(cred, err))
		return
	}

	rec, err := s.service.Update(r.Context(), cred, kind, id, r.PostForm)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	recs := []core.Record{rec}
	respond(w, r, http.StatusOK, rec, core.Describe(recs), templates.RecordList(recs))
}

// handleDelete removes a record and its cascade.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	cred, err := s.parseForm(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	kind, err := kindParam(r)
	if err != nil {
		s.respondError(w, r, s.authorizeFirst(cred, err))
		return
	}
	id, err := idParam(r)
	if err != nil {
		s.respondError(w, r, s.authorizeFirst(cred, err))
		return
	}

	if err := s.service.Delete(r.Context(), cred, kind, id); err != nil {
		s.respondError(w, r, err)
		return
	}
	body := map[string]any{"status": "deleted", "kind": kind, "id": id}
	respond(w, r, http.StatusOK, body, fmt.Sprintf("Deleted %s %d\n", kind.Singular(), id), nil)
}
