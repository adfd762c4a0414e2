package goSession

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MrEthical07/goSession/provider"
	"github.com/MrEthical07/goSession/session"
)

func newTestManager(t *testing.T, handler http.Handler, opts ...func(*Builder)) (*Manager, func()) {
	t.Helper()

	srv := httptest.NewServer(handler)

	b := New().
		WithProviderBaseURL(srv.URL).
		WithHTTPClient(srv.Client()).
		WithMetricsEnabled(true)
	for _, opt := range opts {
		opt(b)
	}

	m, err := b.Build()
	if err != nil {
		srv.Close()
		t.Fatalf("Build failed: %v", err)
	}

	return m, func() {
		m.Close()
		srv.Close()
	}
}

func writeGrant(w http.ResponseWriter, g provider.Grant) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(g)
}

func writeAPIError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"code": code, "message": message})
}

func validSession(id string) session.Session {
	return session.Session{
		ID:              id,
		SubjectID:       "u1",
		Role:            session.RoleUser,
		AccessToken:     "a1",
		RefreshToken:    "r1",
		AccessExpiresAt: time.Now().Add(15 * time.Minute).Unix(),
		CreatedAt:       time.Now().Unix(),
	}
}

func expiredSession(id string) session.Session {
	s := validSession(id)
	s.AccessExpiresAt = time.Now().Add(-time.Minute).Unix()
	return s
}
