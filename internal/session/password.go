package session

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
)

// PasswordAuthenticator signs in with the OAuth2 resource owner password
// grant against the configured token endpoint.
type PasswordAuthenticator struct {
	Config *oauth2.Config
}

// NewPasswordAuthenticator builds an authenticator for tokenURL.
func NewPasswordAuthenticator(
	tokenURL, clientID, clientSecret string,
) *PasswordAuthenticator {
	return &PasswordAuthenticator{
		Config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
	}
}

// SignIn implements Authenticator.
func (a *PasswordAuthenticator) SignIn(
	ctx context.Context,
	email, password string,
) (*oauth2.Token, error) {
	tok, err := a.Config.PasswordCredentialsToken(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("password grant: %w", err)
	}
	return tok, nil
}

// TokenSource implements Refresher with the refresh token grant.
func (a *PasswordAuthenticator) TokenSource(
	ctx context.Context,
	tok *oauth2.Token,
) oauth2.TokenSource {
	return a.Config.TokenSource(ctx, tok)
}

// SignOut implements Authenticator. Access tokens are short lived and the
// endpoint exposes no revocation, so there is nothing to call.
func (a *PasswordAuthenticator) SignOut(context.Context, *oauth2.Token) error {
	return nil
}
