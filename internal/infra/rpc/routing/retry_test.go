package routing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vietddude/nodewatch/internal/infra/rpc/provider"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		err    error
		expect ErrorAction
	}{
		{errors.New("Invalid JSON-RPC request -32600"), ActionFatal},
		{errors.New("Method not found -32601"), ActionFatal},
		{errors.New("Parse error -32700"), ActionFatal},
		{errors.New("rpc error -8: Block height out of range"), ActionFatal},
		{errors.New("http 401: Unauthorized"), ActionFatal},
		{errors.New("403 Forbidden"), ActionFatal},
		{errors.New("rpc error -28: Loading block index..."), ActionRetry},
		{errors.New("connection reset by peer"), ActionRetry},
		{errors.New("timeout"), ActionRetry},
		{errors.New("500 Internal Server Error"), ActionRetry},
	}

	for _, tt := range tests {
		if got := ClassifyError(tt.err); got != tt.expect {
			t.Errorf("ClassifyError(%q) = %v, want %v", tt.err, got, tt.expect)
		}
	}
}

type flakyProvider struct {
	failures int
	err      error
	calls    int
}

func (f *flakyProvider) GetName() string                  { return "flaky" }
func (f *flakyProvider) GetHealth() provider.HealthStatus { return provider.HealthStatus{} }
func (f *flakyProvider) Close() error                     { return nil }
func (f *flakyProvider) Execute(ctx context.Context, op provider.Operation) (any, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, f.err
	}
	return "ok", nil
}

var fastRetry = RetryConfig{
	MaxAttempts:     3,
	InitialDelay:    time.Millisecond,
	MaxDelay:        5 * time.Millisecond,
	BackoffMultiple: 2.0,
}

func TestExecuteWithRetry_RecoversFromTransientErrors(t *testing.T) {
	p := &flakyProvider{failures: 2, err: errors.New("connection refused")}

	result, err := ExecuteWithRetry(context.Background(), p, provider.Operation{Name: "getblockcount"}, fastRetry)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "ok" || p.calls != 3 {
		t.Errorf("expected ok after 3 calls, got %v after %d", result, p.calls)
	}
}

func TestExecuteWithRetry_StopsOnFatal(t *testing.T) {
	p := &flakyProvider{failures: 5, err: errors.New("Method not found -32601")}

	if _, err := ExecuteWithRetry(context.Background(), p, provider.Operation{Name: "nope"}, fastRetry); err == nil {
		t.Fatal("expected error")
	}
	if p.calls != 1 {
		t.Errorf("expected a single call, got %d", p.calls)
	}
}

func TestExecuteWithRetry_GivesUp(t *testing.T) {
	p := &flakyProvider{failures: 10, err: errors.New("connection refused")}

	if _, err := ExecuteWithRetry(context.Background(), p, provider.Operation{Name: "getblockcount"}, fastRetry); err == nil {
		t.Fatal("expected error")
	}
	if p.calls != 3 {
		t.Errorf("expected 3 calls, got %d", p.calls)
	}
}
