// Package entities provides core domain entities for the SDK.
// These are general-purpose types used across all SDK operations.
// Host-specific types like plugin descriptors belong in consuming applications.
package entities
