// Package oauth performs the client-credentials exchange the authenticated
// providers require. Tokens are short-lived and never cached here; the caller
// holds them in a pass-scoped token set
package oauth

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	perr "guildaudit/internal/platform/errors"
)

const defaultTimeout = 10 * time.Second

// Config identifies one provider's token endpoint and credentials
type Config struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

// Client exchanges client credentials for bearer tokens
type Client struct {
	http *http.Client
	cfg  Config
}

// New constructs a Client; zero Config is allowed and fails on Exchange
func New(cfg Config) *Client {
	t := cfg.Timeout
	if t <= 0 {
		t = defaultTimeout
	}
	return &Client{
		http: &http.Client{Timeout: t},
		cfg:  cfg,
	}
}

// Configured reports whether credentials are present
func (c *Client) Configured() bool {
	return c.cfg.TokenURL != "" && c.cfg.ClientID != "" && c.cfg.ClientSecret != ""
}

// Exchange performs the grant and returns the bearer token.
// Callers absorb the error into an empty token (source unavailable this pass)
func (c *Client) Exchange(ctx context.Context) (string, error) {
	if !c.Configured() {
		return "", perr.Unauthorizedf("token endpoint not configured")
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeUnknown, "token request build failed")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeUnavailable, "token exchange transport error")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return "", perr.Unauthorizedf("token exchange rejected with status %d", resp.StatusCode)
		}
		return "", perr.Unavailablef("token exchange failed with status %d", resp.StatusCode)
	}

	var out struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int    `json:"expires_in"`
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeUnavailable, "token read failed")
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeJSON, "token payload malformed")
	}
	if out.AccessToken == "" {
		return "", perr.Unauthorizedf("token payload missing access_token")
	}
	return out.AccessToken, nil
}
