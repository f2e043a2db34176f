package apiclient

import (
	"net/http"

	"golang.org/x/oauth2"
)

// bearerTransport injects the stored token on every request, or strips any
// Authorization header when no valid token is stored.
type bearerTransport struct {
	source oauth2.TokenSource
	base   http.RoundTripper
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req2 := req.Clone(req.Context())
	tok, err := t.source.Token()
	if err == nil && tok.Valid() {
		tok.SetAuthHeader(req2)
	} else {
		req2.Header.Del("Authorization")
	}
	return t.base.RoundTrip(req2)
}
