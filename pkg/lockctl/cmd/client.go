package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// client is a minimal HTTP client for the lockdown API.
type client struct {
	baseURL string
	token   string
	http    *http.Client
}

func newClient(rt *runtimeState) (*client, error) {
	if rt == nil || rt.server == "" {
		return nil, fmt.Errorf("no server configured, use --server or LOCKCTL_SERVER")
	}
	if rt.token == "" {
		return nil, fmt.Errorf("no token configured, use --token or LOCKCTL_TOKEN")
	}
	return &client{
		baseURL: strings.TrimRight(rt.server, "/"),
		token:   rt.token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// post sends a JSON body and returns an error for any non-2xx response,
// including the response body to surface validation messages.
func (c *client) post(ctx context.Context, path string, body interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("server returned %s: %s", resp.Status, strings.TrimSpace(string(detail)))
}
