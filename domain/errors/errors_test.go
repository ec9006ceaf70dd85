package errors_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warden-dev/warden-sdk/domain/errors"
)

func TestPermissionDeniedError(t *testing.T) {
	err := &errors.PermissionDeniedError{
		Identity: "weather",
		Resource: "network",
		Message:  "host not in allowed domains",
		Details:  map[string]any{"host": "evil.example"},
	}

	assert.Contains(t, err.Error(), "weather")
	assert.Contains(t, err.Error(), "network")

	detail := err.ToErrorDetail()
	require.NotNil(t, detail)
	assert.Equal(t, "permission", detail.Type)
	assert.Equal(t, "network", detail.Code)
	assert.Equal(t, "evil.example", detail.Details["host"])
}

func TestIsPermissionDenied(t *testing.T) {
	inner := &errors.PermissionDeniedError{Identity: "p", Resource: "network", Message: "denied"}
	wrapped := fmt.Errorf("call failed: %w", inner)

	assert.True(t, errors.IsPermissionDenied(inner))
	assert.True(t, errors.IsPermissionDenied(wrapped))
	assert.False(t, errors.IsPermissionDenied(fmt.Errorf("unrelated")))
	assert.False(t, errors.IsPermissionDenied(nil))
}

func TestMalformedRequestError(t *testing.T) {
	cause := fmt.Errorf("parse failure")
	err := &errors.MalformedRequestError{Target: "::bad::", Reason: "unparsable URL", Err: cause}

	assert.Contains(t, err.Error(), "::bad::")
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "malformed", err.ToErrorDetail().Type)
}

func TestToErrorDetail(t *testing.T) {
	t.Run("nil error", func(t *testing.T) {
		assert.Nil(t, errors.ToErrorDetail(nil))
	})

	t.Run("detailed error", func(t *testing.T) {
		err := &errors.PermissionDeniedError{Identity: "p", Resource: "env", Message: "denied"}
		detail := errors.ToErrorDetail(err)
		assert.Equal(t, "permission", detail.Type)
	})

	t.Run("wrapped detailed error", func(t *testing.T) {
		err := fmt.Errorf("outer: %w", &errors.ConfigError{Field: "network", Err: fmt.Errorf("bad")})
		detail := errors.ToErrorDetail(err)
		assert.Equal(t, "validation", detail.Type)
	})

	t.Run("generic error", func(t *testing.T) {
		detail := errors.ToErrorDetail(fmt.Errorf("boom"))
		assert.Equal(t, "internal", detail.Type)
		assert.Equal(t, "boom", detail.Message)
	})
}
