package console

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"estate_reviews/internal/adapters/outbound"
	"estate_reviews/internal/domain"
)

// HTTPRemote talks to the moderation API with a bearer credential.
type HTTPRemote struct {
	base  string
	token string
	call  *outbound.Caller
}

// NewHTTPRemote builds a client for base. token may be the admin token or
// a session token from Login.
func NewHTTPRemote(base, token string) *HTTPRemote {
	c := outbound.NewCaller("moderation", 15*time.Second, 10, 2)
	// moderation writes are not idempotent
	c.Attempts = 1
	return &HTTPRemote{base: strings.TrimRight(base, "/"), token: token, call: c}
}

type sessionReply struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Login exchanges the moderator password for a session token and uses it
// for later calls.
func (h *HTTPRemote) Login(ctx context.Context, password string) (time.Time, error) {
	raw, err := json.Marshal(map[string]string{"password": password})
	if err != nil {
		return time.Time{}, err
	}
	b, err := h.call.Do(ctx, "session", func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.base+"/api/moderation/session", bytes.NewReader(raw))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return time.Time{}, mapErr(err)
	}
	var out sessionReply
	if err := json.Unmarshal(b, &out); err != nil {
		return time.Time{}, fmt.Errorf("decode session: %w", err)
	}
	h.token = out.Token
	return out.ExpiresAt, nil
}

type listReply struct {
	Reviews []domain.Review `json:"reviews"`
}

func (h *HTTPRemote) List(ctx context.Context, v domain.View) ([]domain.Review, error) {
	u := h.base + "/api/moderation?view=" + url.QueryEscape(string(v))
	b, err := h.call.Do(ctx, "list", func(ctx context.Context) (*http.Request, error) {
		return h.request(ctx, http.MethodGet, u, nil)
	})
	if err != nil {
		return nil, mapErr(err)
	}
	var out listReply
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode moderation list: %w", err)
	}
	return out.Reviews, nil
}

type moderateRequest struct {
	IDs    []string      `json:"ids"`
	Action domain.Action `json:"action"`
}

type moderateReply struct {
	OK      bool                `json:"ok"`
	Results []domain.ItemResult `json:"results"`
}

func (h *HTTPRemote) Moderate(ctx context.Context, ids []string, a domain.Action) (domain.BulkResult, error) {
	raw, err := json.Marshal(moderateRequest{IDs: ids, Action: a})
	if err != nil {
		return domain.BulkResult{}, err
	}
	b, err := h.call.Do(ctx, "apply", func(ctx context.Context) (*http.Request, error) {
		return h.request(ctx, http.MethodPost, h.base+"/api/moderation", raw)
	})
	if err != nil {
		return domain.BulkResult{}, mapErr(err)
	}
	var out moderateReply
	if err := json.Unmarshal(b, &out); err != nil {
		return domain.BulkResult{}, fmt.Errorf("decode moderation result: %w", err)
	}
	return domain.BulkResult{Action: a, Items: out.Results}, nil
}

func (h *HTTPRemote) request(ctx context.Context, method, u string, body []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, u, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}
	return req, nil
}

func mapErr(err error) error {
	if errors.Is(err, outbound.ErrUnauthorized) {
		return domain.ErrUnauthorized
	}
	return err
}
