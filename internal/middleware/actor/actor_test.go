package actor

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"

	"smartmes/internal/service/audit"
)

func TestActorFromHeaders(t *testing.T) {
	var got audit.Actor
	h := middleware.RealIP(New(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = audit.ActorFrom(r.Context())
	})))

	req := httptest.NewRequest(http.MethodPost, "/api/work-orders/WO-1/start", nil)
	req.Header.Set(HeaderUserID, " 42 ")
	req.Header.Set(HeaderUsername, "alice")
	req.Header.Set("X-Real-IP", "10.1.2.3")

	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, audit.Actor{UserID: "42", Username: "alice", IPAddress: "10.1.2.3"}, got)
}

func TestActorWithoutHeaders(t *testing.T) {
	var got audit.Actor
	h := New(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = audit.ActorFrom(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.0.9:51234"
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "", got.Username)
	assert.Equal(t, "192.168.0.9", got.IPAddress)
}
