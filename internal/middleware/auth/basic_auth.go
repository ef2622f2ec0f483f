package auth

import (
	"crypto/subtle"
	"net/http"

	"smartmes/internal/service/audit"
)

const realm = `Basic realm="SmartMES Admin"`

// BasicAuth guards admin routes. An empty password locks the area entirely
// instead of accepting empty credentials. The admin login becomes the acting
// user unless an upstream header already named one.
func BasicAuth(username, password string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if !ok || password == "" {
				requireAuth(w)
				return
			}

			userOK := subtle.ConstantTimeCompare([]byte(user), []byte(username)) == 1
			passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(password)) == 1
			if !userOK || !passOK {
				requireAuth(w)
				return
			}

			ctx := r.Context()
			if a := audit.ActorFrom(ctx); a.Username == "" {
				a.Username = user
				ctx = audit.WithActor(ctx, a)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func requireAuth(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", realm)
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}
