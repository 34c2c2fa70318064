package rpc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vietddude/nodewatch/internal/infra/rpc/provider"
)

// MockProvider implements provider.Provider for client tests
type MockProvider struct {
	name       string
	shouldFail bool
	callCount  int
	lastOp     provider.Operation
}

func (m *MockProvider) GetName() string { return m.name }

func (m *MockProvider) Execute(ctx context.Context, op provider.Operation) (any, error) {
	m.callCount++
	m.lastOp = op
	if m.shouldFail {
		return nil, errors.New("Method not found -32601")
	}
	return "success_result", nil
}

func (m *MockProvider) GetHealth() provider.HealthStatus {
	return provider.HealthStatus{Available: !m.shouldFail}
}

func (m *MockProvider) Close() error { return nil }

func TestClient_Execute(t *testing.T) {
	mock := &MockProvider{name: "local"}
	client := NewClient(mock)

	result, err := client.Execute(context.Background(), NewJSONRPC10Operation("getblockhash", 42))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "success_result" {
		t.Errorf("unexpected result: %v", result)
	}
	if mock.lastOp.JSONRPCVersion != "1.0" {
		t.Errorf("expected 1.0 operation, got %q", mock.lastOp.JSONRPCVersion)
	}
	if params, ok := mock.lastOp.Params.([]any); !ok || len(params) != 1 || params[0] != 42 {
		t.Errorf("unexpected params: %v", mock.lastOp.Params)
	}
	if client.Name() != "local" || !client.Health().Available {
		t.Errorf("unexpected name/health passthrough")
	}
}

func TestClient_FatalErrorIsNotRetried(t *testing.T) {
	mock := &MockProvider{name: "local", shouldFail: true}
	client := NewClientWithRetry(mock, RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, BackoffMultiple: 1})

	if _, err := client.Execute(context.Background(), NewHTTPOperation("eth_blockNumber", nil)); err == nil {
		t.Fatal("expected error")
	}
	if mock.callCount != 1 {
		t.Errorf("expected 1 call, got %d", mock.callCount)
	}
}
