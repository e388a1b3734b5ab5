// Package suspension calls the internal account service to suspend a
// repeat offender. The call is authenticated with a short-lived HS256
// service token.
package suspension

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	jwt "github.com/golang-jwt/jwt/v5"

	"beatflow/backend/internal/config"
)

const tokenTTL = 5 * time.Minute

// Options configure the client.
type Options struct {
	BaseURL string
	Secret  string
	Timeout time.Duration
}

// Client talks to the account service.
type Client struct {
	http    *resty.Client
	baseURL string
	secret  []byte
}

// New creates a suspension client.
func New(opt Options) (*Client, error) {
	if strings.TrimSpace(opt.BaseURL) == "" {
		return nil, errors.New("suspension: base URL is required")
	}
	if strings.TrimSpace(opt.Secret) == "" {
		return nil, errors.New("suspension: service secret is required")
	}
	if opt.Timeout <= 0 {
		opt.Timeout = config.SuspendTimeout
	}
	return &Client{
		http:    resty.New().SetTimeout(opt.Timeout),
		baseURL: strings.TrimRight(opt.BaseURL, "/"),
		secret:  []byte(opt.Secret),
	}, nil
}

func (c *Client) serviceToken(authorID string) (string, error) {
	claims := jwt.MapClaims{
		"sub": authorID,
		"iss": "beatflow-moderation",
		"exp": time.Now().Add(tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// Suspend asks the account service to suspend the author. The pipeline
// logs failures; they never affect the moderation outcome.
func (c *Client) Suspend(ctx context.Context, authorID string) error {
	token, err := c.serviceToken(authorID)
	if err != nil {
		return fmt.Errorf("suspension: sign service token: %w", err)
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		Post(fmt.Sprintf("%s/internal/users/%s/suspend", c.baseURL, authorID))
	if err != nil {
		return fmt.Errorf("suspension: request failed: %w", err)
	}
	if resp.StatusCode() >= 300 {
		return fmt.Errorf("suspension: account service returned %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}
