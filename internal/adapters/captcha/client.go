package captcha

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"estate_reviews/internal/adapters/outbound"
)

const DefaultVerifyURL = "https://hcaptcha.com/siteverify"

// Client verifies tokens against an hCaptcha/Turnstile style siteverify endpoint.
type Client struct {
	verifyURL string
	secret    string
	call      *outbound.Caller
}

func New(verifyURL, secret string) (*Client, error) {
	if secret == "" {
		return nil, fmt.Errorf("captcha secret is required")
	}
	if verifyURL == "" {
		verifyURL = DefaultVerifyURL
	}
	c := outbound.NewCaller("captcha", 10*time.Second, 20, 20)
	c.Attempts = 2
	return &Client{verifyURL: verifyURL, secret: secret, call: c}, nil
}

type verifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// Verify reports whether token is valid. A missing token is a failed check, not an error.
func (c *Client) Verify(ctx context.Context, token, remoteIP string) (bool, error) {
	if strings.TrimSpace(token) == "" {
		return false, nil
	}
	form := url.Values{}
	form.Set("secret", c.secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}
	body, err := c.call.Do(ctx, "siteverify", func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.verifyURL, strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return false, err
	}
	var out verifyResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return false, fmt.Errorf("captcha: decode: %w", err)
	}
	return out.Success, nil
}
