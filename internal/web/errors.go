package web

// errors.go maps service errors to HTTP responses.
//
// The technical error is logged with the request id; the client receives
// the core.MapError message in the format it asked for (HTMX fragment,
// plain text, or JSON).

import (
	"errors"
	"net/http"

	"github.com/JonMunkholm/transitdir/internal/core"
	"github.com/JonMunkholm/transitdir/internal/logging"
	mw "github.com/JonMunkholm/transitdir/internal/web/middleware"
	"github.com/JonMunkholm/transitdir/internal/web/templates"
)

var errRateLimited = errors.New("rate limit exceeded")

// ErrorResponse is the JSON body of an error response. Code is the stable
// machine-readable part.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusFor returns the HTTP status for err.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrTooManyImports):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrMissingCredential):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrInvalidCredential):
		return http.StatusForbidden
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrConstraint):
		return http.StatusConflict
	case errors.Is(err, core.ErrMalformedInput), errors.Is(err, core.ErrBatchOpen):
		return http.StatusBadRequest
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes the user-facing message.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	userMsg := core.MapError(err)

	mw.LogAuthFailure(r, err)
	log := logging.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error("request error", "path", r.URL.Path, "method", r.Method,
			"status", status, "error", err, "code", userMsg.Code)
	} else {
		log.Debug("request rejected", "path", r.URL.Path, "method", r.Method,
			"status", status, "error", err, "code", userMsg.Code)
	}

	switch responseFormat(r) {
	case formatHTML:
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		if err := templates.ErrorAlert(userMsg.Message, userMsg.Action, userMsg.Code).Render(r.Context(), w); err != nil {
			log.Error("fragment render error", "error", err)
		}
	case formatText:
		writeText(w, status, userMsg.Message+" ("+userMsg.Code+")\n")
	default:
		writeJSON(w, status, ErrorResponse{
			Error:   userMsg.Message,
			Message: userMsg.Message,
			Action:  userMsg.Action,
			Code:    userMsg.Code,
		})
	}
}
