package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/transitdir/internal/core"
)

// Credential sources. The header wins when both are present.
const (
	TokenHeader = "X-Auth-Token"
	TokenField  = "auth"
)

// CredentialFromRequest returns the token carried by r. The form must
// already be parsed for the auth field to be seen. A header or field that
// is present but empty still counts as supplied.
func CredentialFromRequest(r *http.Request) core.Credential {
	if vals := r.Header.Values(TokenHeader); len(vals) > 0 {
		return core.TokenCredential(vals[0])
	}
	if vals, ok := r.Form[TokenField]; ok && len(vals) > 0 {
		return core.TokenCredential(vals[0])
	}
	return core.NoCredential()
}

// LogAuthFailure records a rejected credential at warn level. Other errors
// are ignored.
func LogAuthFailure(r *http.Request, err error) {
	var reason string
	switch {
	case errors.Is(err, core.ErrMissingCredential):
		reason = "missing token"
	case errors.Is(err, core.ErrInvalidCredential):
		reason = "invalid token"
	default:
		return
	}
	slog.Warn("auth: "+reason,
		"path", r.URL.Path,
		"method", r.Method,
		"remote_addr", r.RemoteAddr,
	)
}
