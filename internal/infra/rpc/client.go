package rpc

import (
	"context"

	"github.com/vietddude/nodewatch/internal/infra/rpc/routing"
)

// Client executes operations against a single provider with retry.
type Client struct {
	provider Provider
	retry    RetryConfig
}

// NewClient creates a new RPC client with the default retry policy.
func NewClient(p Provider) *Client {
	return &Client{provider: p, retry: DefaultRetryConfig}
}

// NewClientWithRetry creates a client with a custom retry policy.
func NewClientWithRetry(p Provider, retry RetryConfig) *Client {
	return &Client{provider: p, retry: retry}
}

// Execute runs op, retrying transient failures.
func (c *Client) Execute(ctx context.Context, op Operation) (any, error) {
	return routing.ExecuteWithRetry(ctx, c.provider, op, c.retry)
}

// Name returns the underlying provider name.
func (c *Client) Name() string {
	return c.provider.GetName()
}

// Health returns the underlying provider health.
func (c *Client) Health() HealthStatus {
	return c.provider.GetHealth()
}

// Close releases the underlying provider.
func (c *Client) Close() error {
	return c.provider.Close()
}
