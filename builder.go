package goSession

import (
	"errors"
	"net/http"

	jwtpkg "github.com/MrEthical07/goSession/jwt"
	"github.com/MrEthical07/goSession/provider"
	"github.com/MrEthical07/goSession/session"
	"github.com/redis/go-redis/v9"
)

// Builder assembles a [Manager]. Configure it with the With* methods and
// call Build exactly once.
type Builder struct {
	config Config
	redis  redis.UniversalClient
	http   *http.Client

	auditSink AuditSink

	built bool
}

// New returns a builder loaded with defaults.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the entire configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithProviderBaseURL points the manager at the identity provider.
func (b *Builder) WithProviderBaseURL(baseURL string) *Builder {
	b.config.Provider.BaseURL = baseURL
	return b
}

// WithHTTPClient overrides the HTTP client used for provider calls.
func (b *Builder) WithHTTPClient(client *http.Client) *Builder {
	b.http = client
	return b
}

// WithRedis enables session snapshots on the given redis client.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithPolicyRules replaces the route policy rules.
func (b *Builder) WithPolicyRules(rules []PolicyRule) *Builder {
	b.config.Policy.Rules = rules
	return b
}

// WithAuditSink sets the sink receiving audit events.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	b.config.Audit.Enabled = true
	return b
}

// WithMetricsEnabled toggles the metric store.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles latency histogram recording.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and constructs the manager.
func (b *Builder) Build() (*Manager, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	httpClient := b.http
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Provider.Timeout}
	}

	providerClient, err := provider.NewClient(cfg.Provider.BaseURL, httpClient)
	if err != nil {
		return nil, err
	}

	var tokens *jwtpkg.Manager
	if cfg.JWT.VerifyLocally {
		tokens, err = jwtpkg.NewManager(jwtpkg.Config{
			SigningMethod: jwtpkg.SigningMethod(cfg.JWT.SigningMethod),
			Key:           cfg.JWT.Key,
			SignKey:       cfg.JWT.SignKey,
			Issuer:        cfg.JWT.Issuer,
			Leeway:        cfg.JWT.Leeway,
			MaxFutureIAT:  cfg.JWT.MaxFutureIAT,
		})
		if err != nil {
			return nil, err
		}
	}

	var store *session.Store
	if b.redis != nil {
		store = session.NewStore(b.redis, cfg.Session.SnapshotPrefix)
	}

	m := &Manager{
		config:   cfg,
		provider: providerClient,
		tokens:   tokens,
		store:    store,
		gate:     newGate(cfg.Policy),
		metrics:  NewMetrics(cfg.Metrics),
		audit:    newAuditDispatcher(cfg.Audit, b.auditSink),
	}

	b.built = true

	return m, nil
}
