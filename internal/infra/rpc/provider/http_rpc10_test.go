package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHTTPProvider_Execute_JSONRPC10(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode body: %v", err)
			return
		}

		// 1.0 requests carry no "jsonrpc" field
		if val, ok := req["jsonrpc"]; ok {
			t.Errorf("expected no jsonrpc field for 1.0, got %v", val)
		}
		if user, pass, ok := r.BasicAuth(); !ok || user != "rpcuser" || pass != "rpcpass" {
			t.Errorf("expected basic auth from URL userinfo, got %q %q %v", user, pass, ok)
		}

		response := map[string]any{
			"result": float64(1500000),
			"error":  nil,
			"id":     req["id"],
		}
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	endpoint := strings.Replace(server.URL, "http://", "http://rpcuser:rpcpass@", 1)
	p := NewHTTPProvider("syscoind-mock", endpoint, 5*time.Second)

	op := Operation{
		Name:           "getblockcount",
		JSONRPCVersion: "1.0",
	}

	result, err := p.Execute(context.Background(), op)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.(float64) != 1500000 {
		t.Errorf("expected 1500000, got %v", result)
	}
	if !p.GetHealth().Available {
		t.Errorf("expected provider to stay available")
	}
}

func TestHTTPProvider_Execute_JSONRPC20_Default(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode body: %v", err)
			return
		}

		if v, ok := req["jsonrpc"].(string); !ok || v != "2.0" {
			t.Errorf("expected jsonrpc: 2.0, got %v", req["jsonrpc"])
		}
		if _, ok := req["params"].([]any); !ok {
			t.Errorf("expected params array for 2.0, got %v", req["params"])
		}

		response := map[string]any{
			"result": "0x123",
			"error":  nil,
			"id":     req["id"],
		}
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	p := NewHTTPProvider("geth-mock", server.URL, 5*time.Second)

	result, err := p.Execute(context.Background(), Operation{Name: "eth_blockNumber"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.(string) != "0x123" {
		t.Errorf("expected 0x123, got %v", result)
	}
}

func TestHTTPProvider_Execute_RPCErrorOn500(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]any{
			"result": nil,
			"error":  map[string]any{"code": float64(-8), "message": "Block height out of range"},
			"id":     1,
		})
	}))
	defer server.Close()

	p := NewHTTPProvider("syscoind-mock", server.URL, 5*time.Second)

	_, err := p.Execute(context.Background(), Operation{Name: "getblockhash", Params: []any{99}, JSONRPCVersion: "1.0"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "rpc error -8: Block height out of range") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestHTTPProvider_Execute_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer server.Close()

	p := NewHTTPProvider("geth-mock", server.URL, 5*time.Second)

	for i := 0; i < 3; i++ {
		if _, err := p.Execute(context.Background(), Operation{Name: "eth_blockNumber"}); err == nil {
			t.Fatal("expected error")
		}
	}
	if p.GetHealth().Available {
		t.Errorf("expected provider to be marked unavailable after repeated failures")
	}
}
