// Package googleauth builds the authorized HTTP client shared by the Drive
// and Sheets services. Authentication uses an OAuth refresh-token grant, so
// a browser flow is only ever needed once, outside of quill.
package googleauth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const tokenURL = "https://oauth2.googleapis.com/token"

// Credentials holds the OAuth client and refresh token for the Google APIs.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// NewClient returns an HTTP client that attaches and refreshes Google API
// access tokens. The context bounds token refresh requests.
func NewClient(ctx context.Context, creds Credentials) (*http.Client, error) {
	if strings.TrimSpace(creds.ClientID) == "" ||
		strings.TrimSpace(creds.ClientSecret) == "" ||
		strings.TrimSpace(creds.RefreshToken) == "" {
		return nil, errors.New("google credentials incomplete")
	}

	conf := &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: tokenURL},
	}
	token := &oauth2.Token{
		RefreshToken: creds.RefreshToken,
		Expiry:       time.Now().Add(-time.Minute),
	}
	return conf.Client(ctx, token), nil
}
