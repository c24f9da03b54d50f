package cmd

import (
	"context"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/kilianp07/liftsim/auth"
)

var apiAuth auth.Conf

// addAuthFlags registers the API credential flags on c.
func addAuthFlags(c *cobra.Command) {
	fs := c.PersistentFlags()
	fs.StringVar(&apiAuth.Token, "token", "", "bearer token for the HTTP API")
	fs.StringVar(&apiAuth.TokenURL, "token-url", "", "OAuth2 token endpoint for the client credentials flow")
	fs.StringVar(&apiAuth.ClientID, "client-id", "", "OAuth2 client id")
	fs.StringVar(&apiAuth.ClientSecret, "client-secret", "", "OAuth2 client secret")
}

func apiClient(ctx context.Context) (*http.Client, error) {
	return auth.NewHTTPClient(ctx, apiAuth)
}
