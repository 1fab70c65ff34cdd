package auth0

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dayscape/dayscape-backend/internal/ports/out/identityprovider"
)

// Client fetches userinfo from the Auth0 /userinfo endpoint. It implements
// identityprovider.Provider.
//
// The endpoint enforces a strict per-minute rate limit; the identity cache in
// front of this client is what keeps request handling off it. No timeout is
// layered beyond the HTTP client's own: a hung upstream call hangs the
// resolve that triggered it.
type Client struct {
	userInfoURL string
	client      *http.Client
}

func NewClient(userInfoURL string, timeout time.Duration) *Client {
	return NewClientWithHTTP(userInfoURL, &http.Client{Timeout: timeout})
}

// NewClientWithHTTP injects the HTTP client, used by tests.
func NewClientWithHTTP(userInfoURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		userInfoURL: userInfoURL,
		client:      httpClient,
	}
}

func (c *Client) FetchUserInfo(ctx context.Context, token string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("userinfo request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read userinfo response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &identityprovider.UpstreamError{
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	if !json.Valid(body) {
		return nil, fmt.Errorf("userinfo response is not valid JSON")
	}
	return json.RawMessage(body), nil
}
