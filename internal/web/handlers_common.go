package web

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/transitdir/internal/core"
	"github.com/JonMunkholm/transitdir/internal/logging"
	mw "github.com/JonMunkholm/transitdir/internal/web/middleware"
)

type format int

const (
	formatJSON format = iota
	formatText
	formatHTML
)

// responseFormat picks the representation: HTMX requests get fragments,
// clients preferring text/plain get the text renderings, everyone else JSON.
func responseFormat(r *http.Request) format {
	if isHTMX(r) {
		return formatHTML
	}
	accept := r.Header.Get("Accept")
	if strings.Contains(accept, "text/plain") && !strings.Contains(accept, "application/json") {
		return formatText
	}
	return formatJSON
}

// isHTMX checks if the request is an HTMX request.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// respond writes v as JSON, text, or an HTML fragment according to the
// request. A nil fragment falls back to the text wrapped in <pre>.
func respond(w http.ResponseWriter, r *http.Request, status int, v any, text string, fragment templ.Component) {
	switch responseFormat(r) {
	case formatHTML:
		if fragment == nil {
			fragment = templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
				_, err := io.WriteString(w, "<pre>"+templ.EscapeString(text)+"</pre>")
				return err
			})
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		if err := fragment.Render(r.Context(), w); err != nil {
			logging.FromContext(r.Context()).Error("fragment render error", "error", err)
		}
	case formatText:
		writeText(w, status, text)
	default:
		writeJSON(w, status, v)
	}
}

// kindParam resolves the {kind} path segment.
func kindParam(r *http.Request) (core.Kind, error) {
	def, err := core.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		return "", err
	}
	return def.Kind, nil
}

// idParam parses the {id} path segment.
func idParam(r *http.Request) (int64, error) {
	return core.ParseID("id", chi.URLParam(r, "id"))
}

// parseForm parses url-encoded or multipart bodies and returns the
// credential. A body that cannot be parsed is malformed input, unless the
// credential is already unacceptable, which is reported instead.
func (s *Server) parseForm(w http.ResponseWriter, r *http.Request) (core.Credential, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Import.MaxFileSize)
	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		err = r.ParseMultipartForm(multipartMemory)
	} else {
		err = r.ParseForm()
	}
	cred := mw.CredentialFromRequest(r)
	if err != nil {
		return cred, s.authorizeFirst(cred, core.Malformed("form", err.Error()))
	}
	return cred, nil
}

// authorizeFirst returns the credential error if cred is unacceptable,
// otherwise err. Mutating endpoints report credential problems before
// problems with the request itself.
func (s *Server) authorizeFirst(cred core.Credential, err error) error {
	if authErr := s.service.Authorize(cred); authErr != nil {
		return authErr
	}
	return err
}

// multipartMemory is how much of a multipart body is held in memory; the
// rest spills to temporary files.
const multipartMemory = 8 << 20
