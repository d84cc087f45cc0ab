// Package gauth handles Google OAuth client setup from a client secret
// file and a cached token file, shared by the Gmail and Calendar
// integrations.
package gauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Client builds an authenticated HTTP client from the client secret at
// credentialsFile and the cached token at tokenFile. It does not start
// an interactive flow: a missing or unreadable token is an error, and
// the caller should direct the user to Authorize.
func Client(
	ctx context.Context,
	credentialsFile, tokenFile string,
	scopes ...string,
) (*http.Client, error) {
	cfg, err := configFromFile(credentialsFile, scopes...)
	if err != nil {
		return nil, err
	}

	tok, err := tokenFromFile(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("reading oauth token %s: %w", tokenFile, err)
	}

	return cfg.Client(ctx, tok), nil
}

// Authorize runs the console OAuth flow: it prints the consent URL,
// reads the authorization code from stdin, exchanges it, and caches
// the token at tokenFile.
func Authorize(
	ctx context.Context,
	credentialsFile, tokenFile string,
	scopes ...string,
) error {
	cfg, err := configFromFile(credentialsFile, scopes...)
	if err != nil {
		return err
	}

	authURL := cfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Printf("Go to the following link in your browser then type the "+
		"authorization code:\n%v\n", authURL)

	var authCode string
	if _, err := fmt.Scan(&authCode); err != nil {
		return fmt.Errorf("reading authorization code: %w", err)
	}

	tok, err := cfg.Exchange(ctx, authCode)
	if err != nil {
		return fmt.Errorf("exchanging authorization code: %w", err)
	}

	return saveToken(tokenFile, tok)
}

func configFromFile(credentialsFile string, scopes ...string) (*oauth2.Config, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("reading client secret file %s: %w", credentialsFile, err)
	}
	cfg, err := google.ConfigFromJSON(b, scopes...)
	if err != nil {
		return nil, fmt.Errorf("parsing client secret file %s: %w", credentialsFile, err)
	}
	return cfg, nil
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("decoding token file %s: %w", path, err)
	}
	return tok, nil
}

func saveToken(path string, tok *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating token file %s: %w", path, err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(tok); err != nil {
		return fmt.Errorf("writing token file %s: %w", path, err)
	}
	return nil
}
