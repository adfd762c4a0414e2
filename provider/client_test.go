package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, func()) {
	t.Helper()

	srv := httptest.NewServer(handler)
	client, err := NewClient(srv.URL, srv.Client())
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return client, srv.Close
}

func grantResponse(w http.ResponseWriter, g Grant) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(g)
}

func TestLoginReturnsGrant(t *testing.T) {
	client, done := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/auth/login" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var creds Credentials
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			t.Errorf("decode credentials: %v", err)
		}
		if creds.Email != "a@b.c" {
			t.Errorf("unexpected email: %q", creds.Email)
		}
		grantResponse(w, Grant{
			User:         User{ID: "u1", Email: "a@b.c", Role: "user"},
			AccessToken:  "a1",
			RefreshToken: "r1",
			ExpiresIn:    900,
		})
	}))
	defer done()

	grant, err := client.Login(context.Background(), Credentials{Email: "a@b.c", Password: "pw"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if grant.AccessToken != "a1" || grant.RefreshToken != "r1" {
		t.Fatalf("unexpected grant: %+v", grant)
	}
	if grant.User.ID != "u1" || grant.ExpiresIn != 900 {
		t.Fatalf("unexpected grant fields: %+v", grant)
	}
}

func TestLoginMFARequired(t *testing.T) {
	client, done := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		grantResponse(w, Grant{
			MFARequired: &MFAChallenge{ChallengeID: "ch-1", Method: "totp"},
		})
	}))
	defer done()

	grant, err := client.Login(context.Background(), Credentials{Email: "a@b.c", Password: "pw"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if grant.MFARequired == nil || grant.MFARequired.ChallengeID != "ch-1" {
		t.Fatalf("expected MFA challenge, got %+v", grant)
	}
	if grant.AccessToken != "" {
		t.Fatal("MFA grant must not carry tokens")
	}
}

func TestLoginAPIError(t *testing.T) {
	client, done := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"code":    "invalid_credentials",
			"message": "email or password incorrect",
		})
	}))
	defer done()

	_, err := client.Login(context.Background(), Credentials{Email: "a@b.c", Password: "bad"})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Status != http.StatusUnauthorized || apiErr.Code != "invalid_credentials" {
		t.Fatalf("unexpected APIError: %+v", apiErr)
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	client, done := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/refresh" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["refresh_token"] != "r1" {
			t.Errorf("unexpected refresh token: %q", body["refresh_token"])
		}
		grantResponse(w, Grant{AccessToken: "a2", RefreshToken: "r2", ExpiresIn: 900})
	}))
	defer done()

	grant, err := client.Refresh(context.Background(), "r1")
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if grant.AccessToken != "a2" || grant.RefreshToken != "r2" {
		t.Fatalf("unexpected grant: %+v", grant)
	}
}

func TestLogoutSwallows401(t *testing.T) {
	client, done := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer done()

	if err := client.Logout(context.Background(), "dead-token"); err != nil {
		t.Fatalf("expected 401 swallowed, got %v", err)
	}
}

func TestMeSendsBearer(t *testing.T) {
	client, done := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer a1" {
			t.Errorf("unexpected authorization header: %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(User{ID: "u1", Email: "a@b.c", Role: "admin"})
	}))
	defer done()

	user, err := client.Me(context.Background(), "a1")
	if err != nil {
		t.Fatalf("Me failed: %v", err)
	}
	if user.ID != "u1" || user.Role != "admin" {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestDoReturnsRawResponse(t *testing.T) {
	client, done := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"ok": "yes"})
	}))
	defer done()

	resp, err := client.Do(context.Background(), http.MethodGet, "/v1/widgets", "a1", nil)
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if resp.Status != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.Status)
	}

	var body map[string]string
	if err := resp.DecodeJSON(&body); err != nil {
		t.Fatalf("DecodeJSON failed: %v", err)
	}
	if body["ok"] != "yes" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestTransportErrorOnDeadServer(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client, err := NewClient(url, nil)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	_, err = client.Login(context.Background(), Credentials{Email: "a@b.c", Password: "pw"})

	var tErr *TransportError
	if !errors.As(err, &tErr) {
		t.Fatalf("expected *TransportError, got %v", err)
	}
}

func TestAPIErrorPlainTextBody(t *testing.T) {
	client, done := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "service melting", http.StatusBadGateway)
	}))
	defer done()

	_, err := client.Login(context.Background(), Credentials{Email: "a@b.c", Password: "pw"})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Status != http.StatusBadGateway || apiErr.Message != "service melting" {
		t.Fatalf("unexpected APIError: %+v", apiErr)
	}
}

func TestConcurrentLoginsIndependent(t *testing.T) {
	var calls atomic.Int64
	client, done := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		grantResponse(w, Grant{AccessToken: "a", RefreshToken: "r", ExpiresIn: 60})
	}))
	defer done()

	const n = 8
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			_, err := client.Login(context.Background(), Credentials{Email: "a@b.c", Password: "pw"})
			errs <- err
		}()
	}
	for i := 0; i < n; i++ {
		if err := <-errs; err != nil {
			t.Fatalf("Login failed: %v", err)
		}
	}
	if got := calls.Load(); got != n {
		t.Fatalf("expected %d provider calls, got %d", n, got)
	}
}
