package goSession

import (
	"net/url"
	"strings"

	"github.com/MrEthical07/goSession/session"
)

// DecisionKind classifies the outcome of a gate check.
type DecisionKind uint8

const (
	// DecisionAllow lets the request through.
	DecisionAllow DecisionKind = iota
	// DecisionRedirect sends the client to Decision.Target.
	DecisionRedirect
	// DecisionDeny rejects the request outright.
	DecisionDeny
)

// Decision is the gate's verdict for a single path.
type Decision struct {
	Kind   DecisionKind
	Target string
}

// gate evaluates the route policy. It holds only configuration and is a
// pure function of (path, session); it never touches the network.
type gate struct {
	rules        []PolicyRule
	defaultLevel AccessLevel
	loginPath    string
	landingPath  string
	authPaths    []string
}

func newGate(cfg PolicyConfig) *gate {
	return &gate{
		rules:        cfg.Rules,
		defaultLevel: cfg.DefaultLevel,
		loginPath:    cfg.LoginPath,
		landingPath:  cfg.LandingPath,
		authPaths:    cfg.AuthPaths,
	}
}

// Authorize decides what to do with a request for path given the current
// session snapshot. A session counts as authenticated while it still holds
// any credential it could present or refresh; terminal sessions are guests.
func (g *gate) Authorize(path string, sess session.Session) Decision {
	authed := sess.AccessToken != "" || sess.RefreshToken != ""

	if g.isAuthPath(path) {
		if authed && g.landingPath != "" {
			return Decision{Kind: DecisionRedirect, Target: g.landingPath}
		}
		return Decision{Kind: DecisionAllow}
	}

	level := g.requiredLevel(path)
	if level == LevelPublic {
		return Decision{Kind: DecisionAllow}
	}

	if !authed {
		return Decision{Kind: DecisionRedirect, Target: g.loginRedirect(path)}
	}

	if level == LevelAdmin && !sess.Role.AtLeast(session.RoleAdmin) {
		// Privilege misses for authenticated users bounce to the landing
		// page rather than exposing which paths exist.
		if g.landingPath != "" {
			return Decision{Kind: DecisionRedirect, Target: g.landingPath}
		}
		return Decision{Kind: DecisionDeny}
	}

	return Decision{Kind: DecisionAllow}
}

// requiredLevel resolves the first rule whose prefix matches path.
func (g *gate) requiredLevel(path string) AccessLevel {
	for _, rule := range g.rules {
		if strings.HasPrefix(path, rule.Prefix) {
			return rule.Level
		}
	}
	return g.defaultLevel
}

func (g *gate) isAuthPath(path string) bool {
	for _, p := range g.authPaths {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

func (g *gate) loginRedirect(path string) string {
	return g.loginPath + "?callbackUrl=" + url.QueryEscape(path)
}
