// Package provider implements RPC provider interfaces.
//
// This package contains:
//   - Provider interface: core abstraction for node RPC endpoints
//   - HTTPProvider: JSON-RPC 1.0 and 2.0 over HTTP
package provider

import (
	"context"
	"time"
)

// Operation represents an RPC operation to execute.
type Operation struct {
	// Name is the RPC method (e.g., "eth_blockNumber", "getblockcount")
	Name string

	// Params are passed positionally. nil is sent as JSON null.
	Params any

	// JSONRPCVersion specifies the JSON-RPC version ("1.0" or "2.0").
	// If empty, defaults to "2.0".
	JSONRPCVersion string
}

// Provider defines the interface for a node RPC endpoint.
type Provider interface {
	// GetName returns provider identifier (e.g., "syscoind-local")
	GetName() string

	// GetHealth returns current health metrics
	GetHealth() HealthStatus

	// Execute performs the operation with monitoring and error handling
	Execute(ctx context.Context, op Operation) (any, error)

	// Close cleans up resources
	Close() error
}

// HealthStatus represents the health state of a provider.
type HealthStatus struct {
	Available     bool
	Latency       time.Duration
	ErrorRate     float64
	LastSuccessAt time.Time
	LastFailureAt time.Time
}
