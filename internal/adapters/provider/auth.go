package provider

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// OAuthOptions enables the client credentials grant for gateways that front
// the provider with an OAuth2 token endpoint instead of a static API key.
type OAuthOptions struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
}

// Enabled reports whether enough settings are present to request tokens.
func (o *OAuthOptions) Enabled() bool {
	return o != nil && strings.TrimSpace(o.TokenURL) != "" && strings.TrimSpace(o.ClientID) != ""
}

// oauthHTTPClient wraps base so every request carries a cached bearer token.
func oauthHTTPClient(o *OAuthOptions, base *http.Client) (*http.Client, error) {
	if o.ClientSecret == "" {
		return nil, errors.New("provider oauth client secret is required")
	}
	cc := &clientcredentials.Config{
		ClientID:     o.ClientID,
		ClientSecret: o.ClientSecret,
		TokenURL:     o.TokenURL,
		Scopes:       o.Scopes,
	}
	// The token source outlives any single call, so it is bound to a background context.
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	client := oauth2.NewClient(ctx, cc.TokenSource(ctx))
	client.Timeout = base.Timeout
	return client, nil
}
