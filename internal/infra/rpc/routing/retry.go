package routing

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/vietddude/nodewatch/internal/infra/rpc/provider"
)

// RetryConfig defines retry behavior.
type RetryConfig struct {
	MaxAttempts     int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	BackoffMultiple float64
}

// DefaultRetryConfig keeps retries short; probes run under their own timeout.
var DefaultRetryConfig = RetryConfig{
	MaxAttempts:     3,
	InitialDelay:    250 * time.Millisecond,
	MaxDelay:        2 * time.Second,
	BackoffMultiple: 2.0,
}

// ErrorAction determines how to handle an error.
type ErrorAction int

const (
	ActionRetry ErrorAction = iota
	ActionFatal
)

// ClassifyError determines the action for a given error.
func ClassifyError(err error) ErrorAction {
	if err == nil {
		return ActionRetry // Should not happen
	}

	s := err.Error()
	sLower := strings.ToLower(s)

	// Fatal (Code or Request issues)
	// -32700: Parse error, -32600: Invalid Request, -32601: Method not found, -32602: Invalid params
	if strings.Contains(s, "-32700") || strings.Contains(s, "-32600") ||
		strings.Contains(s, "-32601") || strings.Contains(s, "-32602") {
		return ActionFatal
	}

	// Node answered but the request can never succeed
	if strings.Contains(sLower, "out of range") ||
		strings.Contains(s, "401") || strings.Contains(sLower, "unauthorized") ||
		strings.Contains(s, "403") || strings.Contains(sLower, "forbidden") {
		return ActionFatal
	}

	// Default to Retry (Network, 5xx, warming up, etc)
	return ActionRetry
}

// ExecuteWithRetry executes an RPC operation with exponential backoff.
func ExecuteWithRetry(
	ctx context.Context,
	p provider.Provider,
	op provider.Operation,
	config RetryConfig,
) (any, error) {
	var lastErr error

	for attempt := 0; attempt < config.MaxAttempts; attempt++ {
		result, err := p.Execute(ctx, op)
		if err == nil {
			return result, nil
		}

		lastErr = err

		if ClassifyError(err) == ActionFatal {
			return nil, err // Stop immediately, do not retry
		}

		if attempt == config.MaxAttempts-1 {
			break
		}

		delay := calculateBackoff(attempt, config)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	return nil, fmt.Errorf("failed after %d attempts: %w", config.MaxAttempts, lastErr)
}

func calculateBackoff(attempt int, config RetryConfig) time.Duration {
	delay := float64(config.InitialDelay) * math.Pow(config.BackoffMultiple, float64(attempt))
	if delay > float64(config.MaxDelay) {
		delay = float64(config.MaxDelay)
	}
	return time.Duration(delay)
}
