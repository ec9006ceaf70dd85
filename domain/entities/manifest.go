package entities

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Resource names used in permission denials.
const (
	ResourceNetwork    = "network"
	ResourceFileSystem = "filesystem"
	ResourceEnv        = "env"
	ResourceSystem     = "system"
)

// Manifest declares the capabilities granted to one plugin.
// Every section is optional; an absent section or field grants nothing
// (fail-closed default).
type Manifest struct {
	Network    *NetworkGrant    `json:"network,omitempty" yaml:"network,omitempty"`
	FileSystem *FileSystemGrant `json:"filesystem,omitempty" yaml:"filesystem,omitempty"`
	Env        *EnvGrant        `json:"env,omitempty" yaml:"env,omitempty"`
	System     *SystemGrant     `json:"system,omitempty" yaml:"system,omitempty"`
}

// NetworkGrant defines permitted outbound network access.
type NetworkGrant struct {
	Enabled bool `json:"enabled" yaml:"enabled"`

	// AllowedDomains restricts outbound calls to the listed domains and
	// their subdomains. Empty means any domain, provided Enabled is true.
	AllowedDomains []string `json:"allowedDomains,omitempty" yaml:"allowedDomains,omitempty" validate:"omitempty,dive,hostname_rfc1123"`
}

// FileSystemGrant defines permitted filesystem access.
type FileSystemGrant struct {
	Read  bool `json:"read,omitempty" yaml:"read,omitempty"`
	Write bool `json:"write,omitempty" yaml:"write,omitempty"`

	// Paths restricts access to the listed path patterns. Empty means any
	// path, provided the matching operation flag is set.
	Paths []string `json:"paths,omitempty" yaml:"paths,omitempty"`
}

// EnvGrant defines permitted environment variable access.
type EnvGrant struct {
	Read bool `json:"read,omitempty" yaml:"read,omitempty"`

	// Vars restricts access to the listed variable name patterns.
	Vars []string `json:"vars,omitempty" yaml:"vars,omitempty"`
}

// SystemGrant defines permitted host system features.
type SystemGrant struct {
	Notifications bool `json:"notifications,omitempty" yaml:"notifications,omitempty"`
	Clipboard     bool `json:"clipboard,omitempty" yaml:"clipboard,omitempty"`
}

// PluginManifest represents the root configuration of a plugin as shipped
// by the plugin loader.
type PluginManifest struct {
	Permissions *Manifest `json:"permissions,omitempty" yaml:"permissions,omitempty"`
	Name        string    `json:"name" yaml:"name" validate:"required"`
	Version     string    `json:"version" yaml:"version"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
}

// NetworkEnabled reports whether outbound network access is granted at all.
func (m *Manifest) NetworkEnabled() bool {
	return m != nil && m.Network != nil && m.Network.Enabled
}

// IsEmpty returns true if no capabilities are present.
func (m *Manifest) IsEmpty() bool {
	if m == nil {
		return true
	}
	if m.Network != nil && m.Network.Enabled {
		return false
	}
	if m.FileSystem != nil && (m.FileSystem.Read || m.FileSystem.Write) {
		return false
	}
	if m.Env != nil && m.Env.Read {
		return false
	}
	if m.System != nil && (m.System.Notifications || m.System.Clipboard) {
		return false
	}
	return true
}

// Clone returns a deep copy of the Manifest.
func (m *Manifest) Clone() *Manifest {
	if m == nil {
		return nil
	}
	clone := &Manifest{}
	if m.Network != nil {
		clone.Network = &NetworkGrant{
			Enabled:        m.Network.Enabled,
			AllowedDomains: append([]string(nil), m.Network.AllowedDomains...),
		}
	}
	if m.FileSystem != nil {
		clone.FileSystem = &FileSystemGrant{
			Read:  m.FileSystem.Read,
			Write: m.FileSystem.Write,
			Paths: append([]string(nil), m.FileSystem.Paths...),
		}
	}
	if m.Env != nil {
		clone.Env = &EnvGrant{
			Read: m.Env.Read,
			Vars: append([]string(nil), m.Env.Vars...),
		}
	}
	if m.System != nil {
		clone.System = &SystemGrant{
			Notifications: m.System.Notifications,
			Clipboard:     m.System.Clipboard,
		}
	}
	return clone
}

// ParseManifest decodes a plugin manifest from YAML or JSON bytes and
// validates the result. YAML is a superset of JSON, so both wire forms
// go through the same decoder.
func ParseManifest(data []byte) (*PluginManifest, error) {
	var pm PluginManifest
	if err := yaml.Unmarshal(data, &pm); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}
	if err := pm.Validate(); err != nil {
		return nil, err
	}
	return &pm, nil
}
