// Package intercept enforces network permission manifests at the shared
// process-wide HTTP entry point.
//
// The wrapper attributes every request to the plugin whose guard rides on
// the request context. Requests with no active guard - host traffic - pass
// through to the original transport untouched. Guarded requests are checked
// fail-closed against the manifest before the underlying transport is
// invoked: a denied call is logged and rejected with zero side effects.
package intercept

import (
	"log/slog"
	"net/http"

	"github.com/warden-dev/warden-sdk/domain/entities"
	"github.com/warden-dev/warden-sdk/domain/errors"
	"github.com/warden-dev/warden-sdk/domain/policy"
	"github.com/warden-dev/warden-sdk/domain/ports"
	"github.com/warden-dev/warden-sdk/guard"
	wlog "github.com/warden-dev/warden-sdk/log"
)

// Option configures the guard transport.
type Option func(*config)

type config struct {
	logger *slog.Logger
	policy ports.Policy
	denial ports.DenialHandler
}

func defaultConfig() config {
	return config{
		// The transport logs denials itself through an identity-scoped
		// logger, so the inner policy stays quiet by default.
		denial: &policy.NopDenialHandler{},
	}
}

// WithLogger sets the base logger for denial diagnostics.
// Defaults to slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithPolicy replaces the policy evaluator.
func WithPolicy(p ports.Policy) Option {
	return func(c *config) {
		c.policy = p
	}
}

// WithDenialHandler sets the denial handler wired into the default policy.
// Ignored when WithPolicy is also given.
func WithDenialHandler(h ports.DenialHandler) Option {
	return func(c *config) {
		c.denial = h
	}
}

// GuardTransport is an http.RoundTripper that applies the active guard's
// network grant before delegating to the base transport.
type GuardTransport struct {
	base   http.RoundTripper
	policy ports.Policy
	logger *slog.Logger
}

var _ http.RoundTripper = (*GuardTransport)(nil)

// Transport wraps base with guard enforcement. A nil base means
// http.DefaultTransport. Wrapping an already wrapped transport returns it
// unchanged, so layers never compound.
func Transport(base http.RoundTripper, opts ...Option) *GuardTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	if gt, ok := base.(*GuardTransport); ok {
		return gt
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.policy == nil {
		cfg.policy = policy.NewPolicy(policy.WithDenialHandler(cfg.denial))
	}
	return &GuardTransport{
		base:   base,
		policy: cfg.policy,
		logger: cfg.logger,
	}
}

// Client returns a copy of c whose transport enforces the active guard.
// A nil c means a client around http.DefaultTransport. This is the
// injection path for hosts that hand each plugin its own client.
func Client(c *http.Client, opts ...Option) *http.Client {
	if c == nil {
		c = &http.Client{}
	}
	wrapped := *c
	wrapped.Transport = Transport(c.Transport, opts...)
	return &wrapped
}

// RoundTrip implements the decision procedure for one intercepted call.
// Side effects are strictly ordered: a denial logs before failing and never
// reaches the base transport; a granted call performs exactly one base
// round trip.
func (t *GuardTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	g, ok := guard.FromContext(req.Context())
	if !ok {
		// Host traffic: full pass-through.
		return t.base.RoundTrip(req)
	}

	if req.URL == nil {
		return nil, &errors.MalformedRequestError{Reason: "request has no URL"}
	}

	m := g.Manifest()
	if !m.NetworkEnabled() {
		t.pluginLogger(g).Error("network access denied",
			slog.String("reason", "network access not granted"),
			slog.String("target", req.URL.Redacted()),
			slog.String("invocation_id", g.InvocationID()),
		)
		return nil, &errors.PermissionDeniedError{
			Identity: g.Identity(),
			Resource: entities.ResourceNetwork,
			Message:  "network access not granted",
		}
	}

	if domains := m.Network.AllowedDomains; len(domains) > 0 {
		host := req.URL.Hostname()
		if host == "" {
			return nil, &errors.MalformedRequestError{
				Target: req.URL.String(),
				Reason: "missing hostname",
			}
		}
		if !t.policy.CheckNetwork(entities.NetworkRequest{Host: host}, m) {
			t.pluginLogger(g).Error("network access denied",
				slog.String("reason", "host not in allowed domains"),
				slog.String("host", host),
				slog.Any("allowed_domains", domains),
				slog.String("invocation_id", g.InvocationID()),
			)
			return nil, &errors.PermissionDeniedError{
				Identity: g.Identity(),
				Resource: entities.ResourceNetwork,
				Message:  "host not in allowed domains",
				Details: map[string]any{
					"host":            host,
					"allowed_domains": domains,
				},
			}
		}
	}

	return t.base.RoundTrip(req)
}

// CloseIdleConnections forwards to the base transport when it supports the
// call, preserving the auxiliary surface of the wrapped entry point.
func (t *GuardTransport) CloseIdleConnections() {
	if ci, ok := t.base.(interface{ CloseIdleConnections() }); ok {
		ci.CloseIdleConnections()
	}
}

func (t *GuardTransport) pluginLogger(g *guard.Guard) *slog.Logger {
	return wlog.ForPlugin(t.logger, g.Identity())
}
