// Package hostfuncs implements the byte-payload host primitives a plugin
// host exposes to loaded plugins. Each primitive runs under the caller's
// guard context, so permission enforcement happens at the same intercepted
// transport whether a plugin goes through the primitive or reaches the
// process-wide HTTP entry point directly.
package hostfuncs
