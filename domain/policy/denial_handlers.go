package policy

import (
	"log/slog"

	"github.com/warden-dev/warden-sdk/domain/ports"
)

// Ensure implementations satisfy the interface.
var _ ports.DenialHandler = (*SlogDenialHandler)(nil)
var _ ports.DenialHandler = (*NopDenialHandler)(nil)

// SlogDenialHandler logs denials through a structured logger.
type SlogDenialHandler struct {
	// Logger defaults to slog.Default when nil.
	Logger *slog.Logger
}

func (h *SlogDenialHandler) OnDenial(kind string, request interface{}, reason string) {
	l := h.Logger
	if l == nil {
		l = slog.Default()
	}
	l.Warn("permission denied",
		slog.String("resource", kind),
		slog.Any("request", request),
		slog.String("reason", reason),
	)
}

// NopDenialHandler does nothing.
type NopDenialHandler struct{}

func (h *NopDenialHandler) OnDenial(kind string, request interface{}, reason string) {}
