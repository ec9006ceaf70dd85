// Package policy implements the permission policy evaluator: pure decisions
// over a manifest, with no knowledge of guards or interceptors.
package policy

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/warden-dev/warden-sdk/domain/entities"
	"github.com/warden-dev/warden-sdk/domain/ports"
)

// DomainAllowed reports whether hostname is covered by allowedDomains.
// A hostname is allowed iff it equals an entry or ends with "." + entry,
// so a grant for "example.com" covers "api.example.com" but not
// "notexample.com".
func DomainAllowed(hostname string, allowedDomains []string) bool {
	if hostname == "" {
		return false
	}
	for _, d := range allowedDomains {
		if d == "" {
			continue
		}
		if hostname == d || strings.HasSuffix(hostname, "."+d) {
			return true
		}
	}
	return false
}

// policyConfig holds configuration for the Policy engine.
type policyConfig struct {
	cwd             string              // Working directory for relative path resolution
	resolveSymlinks bool                // Whether to resolve symlinks before matching
	denialHandler   ports.DenialHandler // Handler invoked on policy denials
}

func defaultPolicyConfig() policyConfig {
	return policyConfig{
		cwd:             "",
		resolveSymlinks: true,
		denialHandler:   &SlogDenialHandler{},
	}
}

// PolicyOption configures the Policy.
type PolicyOption func(*policyConfig)

// WithWorkingDirectory sets the working directory for relative path resolution.
func WithWorkingDirectory(cwd string) PolicyOption {
	return func(c *policyConfig) {
		c.cwd = cwd
	}
}

// WithSymlinkResolution enables/disables symlink resolution.
// Default is true (secure). Disable only for testing.
func WithSymlinkResolution(enabled bool) PolicyOption {
	return func(c *policyConfig) {
		c.resolveSymlinks = enabled
	}
}

// WithDenialHandler sets the denial handler.
func WithDenialHandler(h ports.DenialHandler) PolicyOption {
	return func(c *policyConfig) {
		c.denialHandler = h
	}
}

// Policy implements ports.Policy with stateless, fail-closed enforcement.
type Policy struct {
	config policyConfig
}

// NewPolicy creates a new Policy.
func NewPolicy(opts ...PolicyOption) ports.Policy {
	cfg := defaultPolicyConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Policy{config: cfg}
}

// CheckNetwork decides whether an outbound call to req.Host is allowed.
func (p *Policy) CheckNetwork(req entities.NetworkRequest, manifest *entities.Manifest) bool {
	if !manifest.NetworkEnabled() {
		p.config.denialHandler.OnDenial(entities.ResourceNetwork, req, "network access not granted")
		return false
	}
	domains := manifest.Network.AllowedDomains
	if len(domains) > 0 && !DomainAllowed(req.Host, domains) {
		p.config.denialHandler.OnDenial(entities.ResourceNetwork, req, "host not in allowed domains")
		return false
	}
	return true
}

// CheckFileSystem decides whether a read or write of req.Path is allowed.
func (p *Policy) CheckFileSystem(req entities.FileSystemRequest, manifest *entities.Manifest) bool {
	if manifest == nil || manifest.FileSystem == nil {
		p.config.denialHandler.OnDenial(entities.ResourceFileSystem, req, "filesystem access not granted")
		return false
	}
	fs := manifest.FileSystem

	switch req.Operation {
	case "read":
		if !fs.Read {
			p.config.denialHandler.OnDenial(entities.ResourceFileSystem, req, "read access not granted")
			return false
		}
	case "write":
		if !fs.Write {
			p.config.denialHandler.OnDenial(entities.ResourceFileSystem, req, "write access not granted")
			return false
		}
	default:
		p.config.denialHandler.OnDenial(entities.ResourceFileSystem, req, "unknown filesystem operation")
		return false
	}

	if len(fs.Paths) == 0 {
		return true
	}

	path := filepath.Clean(req.Path)
	if !filepath.IsAbs(path) {
		if p.config.cwd == "" {
			p.config.denialHandler.OnDenial(entities.ResourceFileSystem, req, "relative path without working directory")
			return false
		}
		path = filepath.Join(p.config.cwd, path)
	}

	// Resolve symlinks to prevent traversal attacks
	if p.config.resolveSymlinks {
		if resolved, err := filepath.EvalSymlinks(path); err == nil {
			path = resolved
		}
	}

	for _, pattern := range fs.Paths {
		if matched, _ := doublestar.Match(pattern, path); matched {
			return true
		}
	}

	p.config.denialHandler.OnDenial(entities.ResourceFileSystem, req, "path not allowed")
	return false
}

// CheckEnv decides whether reading req.Variable is allowed.
func (p *Policy) CheckEnv(req entities.EnvRequest, manifest *entities.Manifest) bool {
	if manifest == nil || manifest.Env == nil || !manifest.Env.Read {
		p.config.denialHandler.OnDenial(entities.ResourceEnv, req, "environment access not granted")
		return false
	}
	if len(manifest.Env.Vars) == 0 {
		return true
	}
	for _, pattern := range manifest.Env.Vars {
		if matched, _ := doublestar.Match(pattern, req.Variable); matched {
			return true
		}
	}
	p.config.denialHandler.OnDenial(entities.ResourceEnv, req, "variable not allowed")
	return false
}

// CheckSystem decides whether the requested host feature is allowed.
func (p *Policy) CheckSystem(req entities.SystemRequest, manifest *entities.Manifest) bool {
	if manifest == nil || manifest.System == nil {
		p.config.denialHandler.OnDenial(entities.ResourceSystem, req, "system access not granted")
		return false
	}
	switch req.Feature {
	case "notifications":
		if manifest.System.Notifications {
			return true
		}
	case "clipboard":
		if manifest.System.Clipboard {
			return true
		}
	}
	p.config.denialHandler.OnDenial(entities.ResourceSystem, req, "feature not granted")
	return false
}
