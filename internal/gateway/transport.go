package gateway

import (
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// CredentialSource supplies the current session token synchronously. A nil
// token means no one is logged in.
type CredentialSource interface {
	Token() *oauth2.Token
}

// bearerTransport annotates every request with the session credential and
// a request id. Without a credential the Authorization header is omitted and
// the request goes out anyway; the server decides.
type bearerTransport struct {
	base  http.RoundTripper
	creds CredentialSource
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// RoundTrippers must not modify the caller's request.
	r := req.Clone(req.Context())

	if t.creds != nil {
		if tok := t.creds.Token(); tok != nil && tok.AccessToken != "" {
			tok.SetAuthHeader(r)
		}
	}
	if r.Header.Get("X-Request-ID") == "" {
		r.Header.Set("X-Request-ID", uuid.NewString())
	}

	return t.base.RoundTrip(r)
}
