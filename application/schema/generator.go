// Package schema provides JSON schema generation utilities for the SDK.
package schema

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/warden-dev/warden-sdk/domain/entities"
)

// GenerateSchema creates a JSON schema from a Go struct.
// It uses the `invopop/jsonschema` library to reflect on the struct
// and generate a standard JSON Schema (Draft 2020-12).
func GenerateSchema(v interface{}) ([]byte, error) {
	reflector := jsonschema.Reflector{
		ExpandedStruct: true, // Expand struct definitions inline
	}
	schema := reflector.Reflect(v)

	jsonBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}

	return jsonBytes, nil
}

// ManifestSchema returns the JSON schema for the permission manifest,
// for publication to plugin authors.
func ManifestSchema() ([]byte, error) {
	return GenerateSchema(&entities.Manifest{})
}

// PluginManifestSchema returns the JSON schema for the full plugin manifest.
func PluginManifestSchema() ([]byte, error) {
	return GenerateSchema(&entities.PluginManifest{})
}
