package entities

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the manifest against its declared constraints.
func (m *Manifest) Validate() error {
	if m == nil {
		return nil
	}
	if err := validate.Struct(m); err != nil {
		return fmt.Errorf("invalid permission manifest: %w", err)
	}
	return nil
}

// Validate checks the plugin manifest, including its permission section.
func (pm *PluginManifest) Validate() error {
	if err := validate.Struct(pm); err != nil {
		return fmt.Errorf("invalid plugin manifest: %w", err)
	}
	return nil
}
