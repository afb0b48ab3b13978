package web

import (
	"fmt"
	"io"
	"net/http"

	"github.com/JonMunkholm/transitdir/internal/core"
	"github.com/JonMunkholm/transitdir/internal/feed"
	"github.com/JonMunkholm/transitdir/internal/logging"
	mw "github.com/JonMunkholm/transitdir/internal/web/middleware"
	"github.com/JonMunkholm/transitdir/internal/web/templates"
)

// handleImport applies an uploaded CSV file (multipart field "file") in mode.
// Row problems are reported in the result; only a batch that cannot be
// opened fails the request.
func (s *Server) handleImport(mode core.ImportMode) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
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

		var body io.Reader
		if file, _, ferr := r.FormFile("file"); ferr == nil {
			defer file.Close()
			body = file
		}

		res, err := s.service.Import(r.Context(), cred, kind, mode, body)
		s.respondImport(w, r, res, err)
	}
}

// handlePositionFeed upserts positions from a GTFS-Realtime
// VehiclePositions message sent as the raw request body. The token must
// come in the X-Auth-Token header.
func (s *Server) handlePositionFeed(w http.ResponseWriter, r *http.Request) {
	cred := mw.CredentialFromRequest(r)
	if err := s.service.Authorize(cred); err != nil {
		s.respondError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Import.MaxFileSize)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		s.respondError(w, r, fmt.Errorf("%w: read feed: %w", core.ErrBatchOpen, err))
		return
	}
	rows, err := feed.DecodeVehiclePositions(data)
	if err != nil {
		s.respondError(w, r, fmt.Errorf("%w: %w", core.ErrMalformedInput, err))
		return
	}

	res, err := s.service.ImportRows(r.Context(), cred, core.KindPosition, core.ModeUpsert, feed.NewRows(rows))
	s.respondImport(w, r, res, err)
}

// respondImport writes the batch result. A batch that stopped early
// because its input became unreadable still reports the rows it handled,
// with the reason in Interrupted.
func (s *Server) respondImport(w http.ResponseWriter, r *http.Request, res *core.ImportResult, err error) {
	if res == nil {
		s.respondError(w, r, err)
		return
	}

	text := res.Render()
	if err != nil {
		logging.WithFields(r.Context(), "import_id", res.ImportID).Warn("import interrupted",
			"accepted", len(res.Valid),
			"rejected", len(res.Invalid),
			"error", err,
		)
		text += "\nInterrupted: " + res.Interrupted
	}
	respond(w, r, http.StatusOK, res, text, templates.ImportSummary(res))
}
