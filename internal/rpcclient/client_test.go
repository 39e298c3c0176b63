package rpcclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCallSucceedsAgainstSingleUpstream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req Request
		_ = json.NewDecoder(r.Body).Decode(&req)
		resp := Response{JSONRPC: "2.0", ID: req.ID, Result: json.RawMessage(`{"ok":true}`)}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c, err := New([]string{srv.URL}, 2*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var out struct {
		OK bool `json:"ok"`
	}
	if err := c.Call(context.Background(), "ping", nil, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.OK {
		t.Fatal("expected ok=true in decoded result")
	}
}

func TestCallFailsOverToSecondUpstream(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer down.Close()

	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req Request
		_ = json.NewDecoder(r.Body).Decode(&req)
		resp := Response{JSONRPC: "2.0", ID: req.ID, Result: json.RawMessage(`{"ok":true}`)}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer up.Close()

	c, err := New([]string{down.URL, up.URL}, 2*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Keep retries within this upstream minimal so the failover path is exercised quickly.
	c.maxRetry = 0

	var out struct {
		OK bool `json:"ok"`
	}
	if err := c.Call(context.Background(), "ping", nil, &out); err != nil {
		t.Fatalf("expected failover to the healthy upstream to succeed: %v", err)
	}
	if !out.OK {
		t.Fatal("expected ok=true from the healthy upstream")
	}
}

func TestNewRequiresAtLeastOneURL(t *testing.T) {
	if _, err := New(nil, time.Second); err == nil {
		t.Fatal("expected an error when no upstream URLs are given")
	}
}

func TestCallReturnsRPCError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req Request
		_ = json.NewDecoder(r.Body).Decode(&req)
		resp := Response{JSONRPC: "2.0", ID: req.ID, Error: &Error{Code: -32601, Message: "method not found"}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c, err := New([]string{srv.URL}, 2*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c.maxRetry = 0

	if err := c.Call(context.Background(), "nope", nil, nil); err == nil {
		t.Fatal("expected an error from the RPC error response")
	}
}
