package goSession

import (
	"testing"
	"time"

	"github.com/MrEthical07/goSession/session"
)

func testPolicy() PolicyConfig {
	return PolicyConfig{
		Rules: []PolicyRule{
			{Prefix: "/admin", Level: LevelAdmin},
			{Prefix: "/pricing", Level: LevelPublic},
			{Prefix: "/", Level: LevelUser},
		},
		DefaultLevel: LevelUser,
		LoginPath:    "/login",
		LandingPath:  "/dashboard",
		AuthPaths:    []string{"/login", "/signup"},
	}
}

func guestSession() session.Session {
	return session.Session{}
}

func userSession() session.Session {
	return session.Session{
		ID:              "sid-1",
		SubjectID:       "u1",
		Role:            session.RoleUser,
		AccessToken:     "a1",
		RefreshToken:    "r1",
		AccessExpiresAt: time.Now().Add(time.Hour).Unix(),
	}
}

func adminSession() session.Session {
	s := userSession()
	s.Role = session.RoleAdmin
	return s
}

func TestGatePublicPathAllowsGuests(t *testing.T) {
	g := newGate(testPolicy())

	d := g.Authorize("/pricing", guestSession())
	if d.Kind != DecisionAllow {
		t.Fatalf("expected allow, got %+v", d)
	}
}

func TestGateGuestRedirectedToLoginWithCallback(t *testing.T) {
	g := newGate(testPolicy())

	d := g.Authorize("/settings/profile", guestSession())
	if d.Kind != DecisionRedirect {
		t.Fatalf("expected redirect, got %+v", d)
	}
	if d.Target != "/login?callbackUrl=%2Fsettings%2Fprofile" {
		t.Fatalf("unexpected redirect target: %q", d.Target)
	}
}

func TestGateAuthedUserOnAuthPageGoesToLanding(t *testing.T) {
	g := newGate(testPolicy())

	for _, path := range []string{"/login", "/signup", "/login/otp"} {
		d := g.Authorize(path, userSession())
		if d.Kind != DecisionRedirect || d.Target != "/dashboard" {
			t.Fatalf("path %s: expected redirect to landing, got %+v", path, d)
		}
	}
}

func TestGateGuestCanReachAuthPages(t *testing.T) {
	g := newGate(testPolicy())

	d := g.Authorize("/login", guestSession())
	if d.Kind != DecisionAllow {
		t.Fatalf("expected allow, got %+v", d)
	}
}

func TestGateUserOnAdminPathRedirectsToLanding(t *testing.T) {
	g := newGate(testPolicy())

	d := g.Authorize("/admin/users", userSession())
	if d.Kind != DecisionRedirect || d.Target != "/dashboard" {
		t.Fatalf("expected redirect to landing, got %+v", d)
	}
}

func TestGateAdminOnAdminPathAllowed(t *testing.T) {
	g := newGate(testPolicy())

	d := g.Authorize("/admin/users", adminSession())
	if d.Kind != DecisionAllow {
		t.Fatalf("expected allow, got %+v", d)
	}
}

func TestGateDenyWhenNoLandingConfigured(t *testing.T) {
	cfg := testPolicy()
	cfg.LandingPath = ""
	g := newGate(cfg)

	d := g.Authorize("/admin/users", userSession())
	if d.Kind != DecisionDeny {
		t.Fatalf("expected deny, got %+v", d)
	}
}

func TestGateFirstMatchWins(t *testing.T) {
	g := newGate(PolicyConfig{
		Rules: []PolicyRule{
			{Prefix: "/admin/health", Level: LevelPublic},
			{Prefix: "/admin", Level: LevelAdmin},
		},
		DefaultLevel: LevelUser,
		LoginPath:    "/login",
		LandingPath:  "/dashboard",
	})

	if d := g.Authorize("/admin/health", guestSession()); d.Kind != DecisionAllow {
		t.Fatalf("expected earlier public rule to win, got %+v", d)
	}
	if d := g.Authorize("/admin/users", userSession()); d.Kind != DecisionRedirect {
		t.Fatalf("expected admin rule to apply, got %+v", d)
	}
}

func TestGateDefaultLevelForUnmatchedPath(t *testing.T) {
	g := newGate(PolicyConfig{
		Rules:        []PolicyRule{{Prefix: "/public", Level: LevelPublic}},
		DefaultLevel: LevelUser,
		LoginPath:    "/login",
	})

	d := g.Authorize("/anything-else", guestSession())
	if d.Kind != DecisionRedirect {
		t.Fatalf("expected redirect for unmatched path, got %+v", d)
	}
}

func TestGateSessionWithOnlyRefreshTokenCountsAsAuthed(t *testing.T) {
	g := newGate(testPolicy())

	// Access token lapsed but the session can still heal; the gate must
	// not bounce it to login.
	s := userSession()
	s.AccessToken = ""
	s.AccessExpiresAt = 0

	d := g.Authorize("/settings", s)
	if d.Kind != DecisionAllow {
		t.Fatalf("expected allow for refreshable session, got %+v", d)
	}
}

func TestGateIsPure(t *testing.T) {
	g := newGate(testPolicy())
	sess := userSession()

	first := g.Authorize("/admin/users", sess)
	for i := 0; i < 100; i++ {
		if got := g.Authorize("/admin/users", sess); got != first {
			t.Fatalf("decision changed across identical calls: %+v vs %+v", got, first)
		}
	}
}
