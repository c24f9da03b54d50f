// Package auth builds HTTP clients that attach bearer tokens to requests
// sent to the liftsim API.
package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

const defaultTimeout = 10 * time.Second

// NewHTTPClient returns a client for conf. Tokens from the client credentials
// flow are cached and refreshed once expired.
func NewHTTPClient(ctx context.Context, conf Conf) (*http.Client, error) {
	var src oauth2.TokenSource
	switch {
	case conf.Token != "":
		src = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: conf.Token, TokenType: "Bearer"})
	case conf.TokenURL != "":
		if conf.ClientID == "" {
			return nil, errors.New("client_id is required with token_url")
		}
		cc := conf.toOauth2Config()
		src = cc.TokenSource(ctx)
	default:
		return &http.Client{Timeout: defaultTimeout}, nil
	}
	client := oauth2.NewClient(ctx, src)
	client.Timeout = defaultTimeout
	return client, nil
}
