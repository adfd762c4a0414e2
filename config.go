package goSession

import (
	"errors"
	"strings"
	"time"

	"github.com/MrEthical07/goSession/jwt"
)

// Config collects all tunables for a session [Manager].
type Config struct {
	Provider ProviderConfig
	Session  SessionConfig
	Policy   PolicyConfig
	JWT      JWTConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
PROVIDER CONFIG
====================================
*/

// ProviderConfig points the manager at the upstream identity provider.
type ProviderConfig struct {
	BaseURL string
	// Timeout bounds each provider HTTP request when no custom client is
	// supplied via the builder.
	Timeout time.Duration
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls token validity and refresh behavior.
type SessionConfig struct {
	// ExpirySkew shrinks the validity window so tokens are refreshed
	// slightly before their real expiry instead of failing mid-request.
	ExpirySkew time.Duration
	// RefreshTimeout bounds a refresh exchange. The refresh runs detached
	// from the triggering caller's context so a canceled caller cannot
	// strand the waiters sharing the flight.
	RefreshTimeout time.Duration
	// SnapshotPrefix namespaces session snapshots in redis.
	SnapshotPrefix string
	// SnapshotTTL bounds how long a snapshot survives without renewal.
	SnapshotTTL time.Duration
}

/*
====================================
POLICY CONFIG
====================================
*/

// AccessLevel is the minimum privilege a route requires.
type AccessLevel uint8

const (
	// LevelPublic routes are reachable with or without a session.
	LevelPublic AccessLevel = iota
	// LevelUser routes require any authenticated session.
	LevelUser
	// LevelAdmin routes require an admin session.
	LevelAdmin
)

// PolicyRule binds a path prefix to a minimum access level. Rules are
// evaluated in order; the first matching prefix wins.
type PolicyRule struct {
	Prefix string
	Level  AccessLevel
}

// PolicyConfig describes the route policy the request gate enforces.
type PolicyConfig struct {
	Rules []PolicyRule
	// DefaultLevel applies to paths no rule matches.
	DefaultLevel AccessLevel
	// LoginPath is where unauthenticated requests get redirected, with
	// the original path attached as a callbackUrl query parameter.
	LoginPath string
	// LandingPath is where authenticated users get sent when they hit an
	// auth page or a path above their privilege. Empty means privilege
	// misses are denied outright instead of redirected.
	LandingPath string
	// AuthPaths are the login and signup pages themselves; authenticated
	// users visiting them are bounced to LandingPath.
	AuthPaths []string
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig enables local verification of provider access tokens.
type JWTConfig struct {
	// VerifyLocally turns on claim extraction without provider round-trips.
	// Required for bearer-token middleware sources.
	VerifyLocally bool
	SigningMethod string // "hs256" (default) or "ed25519"
	Key           []byte
	SignKey       []byte
	Issuer        string
	Leeway        time.Duration
	MaxFutureIAT  time.Duration
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig controls the async audit pipeline.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull sheds events instead of blocking callers when the buffer
	// is full. Dropped counts are observable via Manager.AuditDropped.
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig controls the in-process metric store.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

func defaultConfig() Config {
	return Config{
		Provider: ProviderConfig{
			Timeout: 10 * time.Second,
		},
		Session: SessionConfig{
			ExpirySkew:     30 * time.Second,
			RefreshTimeout: 10 * time.Second,
			SnapshotPrefix: "gsess",
			SnapshotTTL:    30 * 24 * time.Hour,
		},
		Policy: PolicyConfig{
			DefaultLevel: LevelUser,
			LoginPath:    "/login",
			LandingPath:  "/dashboard",
			AuthPaths:    []string{"/login", "/signup"},
		},
		JWT: JWTConfig{
			SigningMethod: string(jwt.MethodHS256),
			Leeway:        30 * time.Second,
		},
		Audit: AuditConfig{
			BufferSize: 256,
			DropIfFull: true,
		},
	}
}

// Validate checks the configuration for values the manager cannot run with.
func (c *Config) Validate() error {
	if c.Provider.BaseURL == "" {
		return errors.New("Provider BaseURL required")
	}
	if c.Provider.Timeout < 0 {
		return errors.New("Provider Timeout must not be negative")
	}

	if c.Session.ExpirySkew < 0 || c.Session.ExpirySkew > 5*time.Minute {
		return errors.New("Session ExpirySkew out of range")
	}
	if c.Session.RefreshTimeout <= 0 {
		return errors.New("Session RefreshTimeout must be positive")
	}
	if c.Session.SnapshotTTL < 0 {
		return errors.New("Session SnapshotTTL must not be negative")
	}

	if c.Policy.DefaultLevel > LevelAdmin {
		return errors.New("Policy DefaultLevel invalid")
	}
	if c.Policy.LoginPath == "" || !strings.HasPrefix(c.Policy.LoginPath, "/") {
		return errors.New("Policy LoginPath must be an absolute path")
	}
	if c.Policy.LandingPath != "" && !strings.HasPrefix(c.Policy.LandingPath, "/") {
		return errors.New("Policy LandingPath must be an absolute path")
	}
	for _, rule := range c.Policy.Rules {
		if rule.Prefix == "" || !strings.HasPrefix(rule.Prefix, "/") {
			return errors.New("Policy rule prefixes must be absolute paths")
		}
		if rule.Level > LevelAdmin {
			return errors.New("Policy rule level invalid")
		}
	}
	for _, p := range c.Policy.AuthPaths {
		if p == "" || !strings.HasPrefix(p, "/") {
			return errors.New("Policy AuthPaths must be absolute paths")
		}
	}

	if c.JWT.VerifyLocally {
		switch jwt.SigningMethod(c.JWT.SigningMethod) {
		case jwt.MethodHS256, jwt.MethodEd25519:
		default:
			return errors.New("JWT SigningMethod must be hs256 or ed25519")
		}
		if len(c.JWT.Key) == 0 {
			return errors.New("JWT Key required when VerifyLocally is set")
		}
	}

	if c.Audit.Enabled && c.Audit.BufferSize < 0 {
		return errors.New("Audit BufferSize must not be negative")
	}

	return nil
}

func cloneConfig(cfg Config) Config {
	out := cfg

	if cfg.Policy.Rules != nil {
		out.Policy.Rules = make([]PolicyRule, len(cfg.Policy.Rules))
		copy(out.Policy.Rules, cfg.Policy.Rules)
	}
	if cfg.Policy.AuthPaths != nil {
		out.Policy.AuthPaths = make([]string, len(cfg.Policy.AuthPaths))
		copy(out.Policy.AuthPaths, cfg.Policy.AuthPaths)
	}
	if cfg.JWT.Key != nil {
		out.JWT.Key = append([]byte(nil), cfg.JWT.Key...)
	}
	if cfg.JWT.SignKey != nil {
		out.JWT.SignKey = append([]byte(nil), cfg.JWT.SignKey...)
	}

	return out
}
