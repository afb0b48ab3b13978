package web

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/JonMunkholm/transitdir/internal/core"
	"github.com/JonMunkholm/transitdir/internal/web/templates"
)

// handleNearby ranks stops around ?lat=&long=. No token is needed.
func (s *Server) handleNearby(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, err := core.ParseCoordinate("lat", q.Get("lat"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	lon, err := core.ParseCoordinate("long", q.Get("long"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	results, err := s.service.Nearby(r.Context(), lat, lon)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, results, core.RenderNearby(results), templates.NearbyList(results))
}

// handleLinesForStop lists the lines that serve a stop.
func (s *Server) handleLinesForStop(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	lines, err := s.service.LinesForStop(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	recs := make([]core.Record, len(lines))
	for i, l := range lines {
		recs[i] = l
	}
	respond(w, r, http.StatusOK, lines, core.Describe(recs), templates.RecordList(recs))
}

// handleVehiclesForLine lists the vehicles assigned to a line.
func (s *Server) handleVehiclesForLine(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	vehicles, err := s.service.VehiclesForLine(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	recs := make([]core.Record, len(vehicles))
	for i, v := range vehicles {
		recs[i] = v
	}
	respond(w, r, http.StatusOK, vehicles, core.Describe(recs), templates.RecordList(recs))
}

// handleRemoveStops unlinks the stops listed in the "stops" form field
// (repeated or comma-separated) from a line.
func (s *Server) handleRemoveStops(w http.ResponseWriter, r *http.Request) {
	cred, err := s.parseForm(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	id, err := idParam(r)
	if err != nil {
		s.respondError(w, r, s.authorizeFirst(cred, err))
		return
	}

	var raw []string
	for key, vals := range r.PostForm {
		if !strings.EqualFold(key, core.FieldStops) {
			continue
		}
		for _, v := range vals {
			raw = append(raw, strings.Split(v, ",")...)
		}
	}
	stopIDs, err := core.ParseIDs(core.FieldStops, raw)
	if err != nil {
		s.respondError(w, r, s.authorizeFirst(cred, err))
		return
	}

	n, err := s.service.RemoveStopsFromLine(r.Context(), cred, id, stopIDs)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	body := map[string]any{"line": id, "removed": n}
	respond(w, r, http.StatusOK, body, fmt.Sprintf("Removed %d stops from line %d\n", n, id), nil)
}
