// Package guard binds a plugin's identity and permission manifest to the
// dynamic extent of one invocation.
//
// The binding rides on context.Context, Go's execution-scoped propagation
// primitive: everything causally descended from the invocation - nested
// calls, goroutines started with the guarded context, continuations resumed
// after a channel or network wait - observes the same guard, while
// concurrently interleaved invocations never observe each other's. Nested
// invocations shadow via context derivation and the outer guard is restored
// for free when the inner call returns.
//
// Known weakening: a plugin that issues a call with a context not descended
// from its guarded context (for example context.Background()) is
// indistinguishable from host code and receives pass-through treatment at
// the interceptor. Hosts that need to close that hole must hand plugins
// only guarded contexts and pre-wired clients.
package guard

import (
	"context"

	"github.com/google/uuid"
	"github.com/warden-dev/warden-sdk/domain/entities"
	"github.com/warden-dev/warden-sdk/seal"
)

// Guard is the immutable identity+manifest pair active for one plugin
// invocation. The manifest it exposes is a sealed deep copy; later loader
// mutations of the original never leak into a live invocation.
type Guard struct {
	manifest     *entities.Manifest
	identity     string
	invocationID string
}

// Identity returns the process-unique name of the plugin instance.
func (g *Guard) Identity() string {
	return g.identity
}

// Manifest returns the sealed permission manifest bound to this invocation.
func (g *Guard) Manifest() *entities.Manifest {
	return g.manifest
}

// InvocationID returns a unique id for this invocation, for log correlation.
func (g *Guard) InvocationID() string {
	return g.invocationID
}

type ctxKey struct{}

// Run executes fn with the guard bound for its full causal extent and
// propagates fn's result and error unchanged. Nesting is unbounded: an
// inner Run shadows the outer guard for exactly the inner fn's extent.
func Run[T any](ctx context.Context, identity string, manifest *entities.Manifest, fn func(context.Context) (T, error)) (T, error) {
	return fn(Bind(ctx, identity, manifest))
}

// Do is Run for functions with no result.
func Do(ctx context.Context, identity string, manifest *entities.Manifest, fn func(context.Context) error) error {
	return fn(Bind(ctx, identity, manifest))
}

// Bind returns a context carrying a new guard for identity and manifest.
// Most callers want Run or Do; Bind exists for hosts that manage the
// invocation lifecycle themselves (for example, handing a guarded context
// to a long-lived plugin worker).
func Bind(ctx context.Context, identity string, manifest *entities.Manifest) context.Context {
	g := &Guard{
		identity:     identity,
		manifest:     seal.Deep(manifest.Clone()),
		invocationID: uuid.NewString(),
	}
	return context.WithValue(ctx, ctxKey{}, g)
}

// FromContext returns the innermost guard causally active at the call site,
// or false if the context is outside any guard.
func FromContext(ctx context.Context) (*Guard, bool) {
	if ctx == nil {
		return nil, false
	}
	g, ok := ctx.Value(ctxKey{}).(*Guard)
	return g, ok
}
