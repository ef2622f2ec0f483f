// Package actor puts the acting user into the request context for the
// audit trail. Identity is established by the gateway in front of the
// service, which forwards it in headers.
package actor

import (
	"net"
	"net/http"
	"strings"

	"smartmes/internal/service/audit"
)

const (
	HeaderUserID   = "X-User-ID"
	HeaderUsername = "X-Username"
)

// New must run after middleware.RealIP so RemoteAddr holds the client.
func New(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a := audit.Actor{
			UserID:    strings.TrimSpace(r.Header.Get(HeaderUserID)),
			Username:  strings.TrimSpace(r.Header.Get(HeaderUsername)),
			IPAddress: clientIP(r.RemoteAddr),
		}
		next.ServeHTTP(w, r.WithContext(audit.WithActor(r.Context(), a)))
	})
}

func clientIP(remote string) string {
	if host, _, err := net.SplitHostPort(remote); err == nil {
		return host
	}
	return remote
}
