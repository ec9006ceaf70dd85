package intercept

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warden-dev/warden-sdk/domain/entities"
	"github.com/warden-dev/warden-sdk/domain/errors"
	"github.com/warden-dev/warden-sdk/guard"
)

// recordingTransport records every request it receives and returns a
// canned 200 response.
type recordingTransport struct {
	requests   []*http.Request
	closedIdle bool
}

func (r *recordingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r.requests = append(r.requests, req)
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader("ok")),
		Request:    req,
	}, nil
}

func (r *recordingTransport) CloseIdleConnections() {
	r.closedIdle = true
}

func newRequest(t *testing.T, ctx context.Context, rawURL string) *http.Request {
	t.Helper()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	require.NoError(t, err)
	return req
}

func networkManifest(domains ...string) *entities.Manifest {
	return &entities.Manifest{
		Network: &entities.NetworkGrant{Enabled: true, AllowedDomains: domains},
	}
}

func TestRoundTrip_NoGuardPassesThrough(t *testing.T) {
	rec := &recordingTransport{}
	tr := Transport(rec)

	req := newRequest(t, context.Background(), "https://anywhere.example/path?q=1")
	resp, err := tr.RoundTrip(req)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, rec.requests, 1)
	// The original input reaches the base unchanged.
	assert.Same(t, req, rec.requests[0])
	assert.Equal(t, "https://anywhere.example/path?q=1", rec.requests[0].URL.String())
}

func TestRoundTrip_NetworkNotGrantedFailsClosed(t *testing.T) {
	manifests := map[string]*entities.Manifest{
		"nil manifest":   nil,
		"empty manifest": {},
		"disabled":       {Network: &entities.NetworkGrant{Enabled: false}},
	}

	for name, m := range manifests {
		t.Run(name, func(t *testing.T) {
			rec := &recordingTransport{}
			tr := Transport(rec, WithLogger(discardLogger()))

			ctx := guard.Bind(context.Background(), "untrusted", m)
			resp, err := tr.RoundTrip(newRequest(t, ctx, "https://anywhere.example/"))

			assert.Nil(t, resp)
			var pd *errors.PermissionDeniedError
			require.ErrorAs(t, err, &pd)
			assert.Equal(t, "untrusted", pd.Identity)
			assert.Equal(t, entities.ResourceNetwork, pd.Resource)
			// Fail closed: the base transport is never invoked.
			assert.Empty(t, rec.requests)
		})
	}
}

func TestRoundTrip_DeniedLogIncludesTarget(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	rec := &recordingTransport{}
	tr := Transport(rec, WithLogger(logger))

	ctx := guard.Bind(context.Background(), "untrusted", nil)
	_, err := tr.RoundTrip(newRequest(t, ctx, "https://blocked.example/path"))

	require.Error(t, err)
	out := buf.String()
	// Denied exactly once, with the offending target and the identity.
	assert.Equal(t, 1, strings.Count(out, "network access denied"))
	assert.Contains(t, out, "https://blocked.example/path")
	assert.Contains(t, out, "plugin=untrusted")
}

func TestRoundTrip_NilURLIsMalformed(t *testing.T) {
	rec := &recordingTransport{}
	tr := Transport(rec, WithLogger(discardLogger()))

	ctx := guard.Bind(context.Background(), "untrusted", nil)
	req := (&http.Request{}).WithContext(ctx)
	resp, err := tr.RoundTrip(req)

	assert.Nil(t, resp)
	var mr *errors.MalformedRequestError
	require.ErrorAs(t, err, &mr)
	assert.Empty(t, rec.requests)
}

func TestRoundTrip_AllowlistEnforced(t *testing.T) {
	rec := &recordingTransport{}
	tr := Transport(rec, WithLogger(discardLogger()))
	ctx := guard.Bind(context.Background(), "weather", networkManifest("allowed.example"))

	// Denied host: zero underlying calls.
	resp, err := tr.RoundTrip(newRequest(t, ctx, "https://not-allowed.example/"))
	assert.Nil(t, resp)
	var pd *errors.PermissionDeniedError
	require.ErrorAs(t, err, &pd)
	assert.Equal(t, "not-allowed.example", pd.Details["host"])
	assert.Equal(t, []string{"allowed.example"}, pd.Details["allowed_domains"])
	assert.Empty(t, rec.requests)

	// Exact domain and subdomain both succeed, recorded in call order.
	_, err = tr.RoundTrip(newRequest(t, ctx, "https://allowed.example/path"))
	require.NoError(t, err)
	_, err = tr.RoundTrip(newRequest(t, ctx, "https://api.allowed.example/path"))
	require.NoError(t, err)

	require.Len(t, rec.requests, 2)
	assert.Equal(t, "allowed.example", rec.requests[0].URL.Hostname())
	assert.Equal(t, "api.allowed.example", rec.requests[1].URL.Hostname())
}

func TestRoundTrip_EnabledWithoutAllowlistDelegates(t *testing.T) {
	rec := &recordingTransport{}
	tr := Transport(rec)
	ctx := guard.Bind(context.Background(), "open", networkManifest())

	resp, err := tr.RoundTrip(newRequest(t, ctx, "https://anywhere.example/"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, rec.requests, 1)
}

func TestRoundTrip_MissingHostnameIsMalformed(t *testing.T) {
	rec := &recordingTransport{}
	tr := Transport(rec, WithLogger(discardLogger()))
	ctx := guard.Bind(context.Background(), "weather", networkManifest("allowed.example"))

	req := newRequest(t, ctx, "https://allowed.example/")
	req.URL.Host = ""
	resp, err := tr.RoundTrip(req)

	assert.Nil(t, resp)
	var mr *errors.MalformedRequestError
	require.ErrorAs(t, err, &mr)
	assert.Empty(t, rec.requests)
}

func TestRoundTrip_DenialSurfacesThroughClient(t *testing.T) {
	// A denial raised inside client.Do surfaces through the plugin's own
	// error channel, wrapped in *url.Error like any transport failure.
	rec := &recordingTransport{}
	client := Client(&http.Client{Transport: rec}, WithLogger(discardLogger()))

	ctx := guard.Bind(context.Background(), "untrusted", nil)
	_, err := client.Do(newRequest(t, ctx, "https://anywhere.example/"))

	require.Error(t, err)
	assert.True(t, errors.IsPermissionDenied(err))
	assert.Empty(t, rec.requests)
}

func TestTransport_NoCompounding(t *testing.T) {
	rec := &recordingTransport{}
	once := Transport(rec)
	twice := Transport(once)

	assert.Same(t, once, twice)
}

func TestTransport_NilBaseUsesDefault(t *testing.T) {
	tr := Transport(nil)
	require.NotNil(t, tr)
	assert.Equal(t, http.DefaultTransport, tr.base)
}

func TestTransport_CloseIdleConnectionsForwards(t *testing.T) {
	rec := &recordingTransport{}
	tr := Transport(rec)

	tr.CloseIdleConnections()
	assert.True(t, rec.closedIdle)

	// A base without the method is simply skipped.
	plain := Transport(roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		return nil, stderrors.New("unused")
	}))
	plain.CloseIdleConnections()
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}
