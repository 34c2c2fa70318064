package rpc

import (
	"github.com/vietddude/nodewatch/internal/infra/rpc/provider"
)

// NewHTTPOperation creates an Operation for JSON-RPC 2.0 calls.
func NewHTTPOperation(method string, params any) Operation {
	return provider.Operation{
		Name:   method,
		Params: params,
	}
}

// NewJSONRPC10Operation creates an Operation for JSON-RPC 1.0 calls.
func NewJSONRPC10Operation(method string, params ...any) Operation {
	var p any = params
	if len(params) == 0 {
		p = []any{}
	}
	return provider.Operation{
		Name:           method,
		Params:         p, // 1.0 uses positional params
		JSONRPCVersion: "1.0",
	}
}
