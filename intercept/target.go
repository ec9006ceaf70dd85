package intercept

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"
	"github.com/warden-dev/warden-sdk/domain/errors"
)

// Target resolves the request target from any of the forms accepted at the
// host-function surface: a URL string, a parsed URL, an *http.Request, or a
// raw JSON request payload carrying a "url" field. An unresolvable target
// is a MalformedRequestError, which fails only the offending call.
func Target(v any) (*url.URL, error) {
	switch t := v.(type) {
	case string:
		return parseTarget(t)
	case *url.URL:
		if t == nil {
			return nil, &errors.MalformedRequestError{Reason: "nil URL"}
		}
		return t, nil
	case url.URL:
		return &t, nil
	case *http.Request:
		if t == nil || t.URL == nil {
			return nil, &errors.MalformedRequestError{Reason: "request has no URL"}
		}
		return t.URL, nil
	case json.RawMessage:
		return targetFromPayload([]byte(t))
	case []byte:
		return targetFromPayload(t)
	default:
		return nil, &errors.MalformedRequestError{Reason: "unsupported target type"}
	}
}

func targetFromPayload(payload []byte) (*url.URL, error) {
	field := gjson.GetBytes(payload, "url")
	if !field.Exists() || field.Type != gjson.String {
		return nil, &errors.MalformedRequestError{Reason: "payload has no url field"}
	}
	return parseTarget(field.String())
}

func parseTarget(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, &errors.MalformedRequestError{Reason: "empty target"}
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, &errors.MalformedRequestError{Target: raw, Reason: "unparsable URL", Err: err}
	}
	if u.Hostname() == "" {
		return nil, &errors.MalformedRequestError{Target: raw, Reason: "missing hostname"}
	}
	return u, nil
}
