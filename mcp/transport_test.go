package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPInvokerSuccess(t *testing.T) {
	var gotPath, gotAuth, gotContentType string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"result": "ok"})
	}))
	defer srv.Close()

	inv := NewHTTPInvoker(nil)
	data, err := inv.Invoke(context.Background(), srv.URL, "search/query",
		map[string]string{"Authorization": "Bearer tok"},
		map[string]any{"q": "test"})
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}

	if gotPath != "/search/query" {
		t.Errorf("path = %q, want /search/query", gotPath)
	}
	if gotAuth != "Bearer tok" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotContentType != "application/json" {
		t.Errorf("Content-Type = %q", gotContentType)
	}
	if gotBody["q"] != "test" {
		t.Errorf("body = %v", gotBody)
	}

	result, ok := data.(map[string]any)
	if !ok || result["result"] != "ok" {
		t.Errorf("data = %v", data)
	}
}

func TestHTTPInvokerErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]any{"reason": "maintenance"})
	}))
	defer srv.Close()

	inv := NewHTTPInvoker(nil)
	_, err := inv.Invoke(context.Background(), srv.URL, "query", nil, nil)
	if err == nil {
		t.Fatal("Invoke() error = nil for 503")
	}

	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("error = %T, want *TransportError", err)
	}
	if te.Status != http.StatusServiceUnavailable {
		t.Errorf("Status = %d, want 503", te.Status)
	}
	if te.StatusText != "Service Unavailable" {
		t.Errorf("StatusText = %q", te.StatusText)
	}
	body, ok := te.Data.(map[string]any)
	if !ok || body["reason"] != "maintenance" {
		t.Errorf("Data = %v", te.Data)
	}
}

func TestHTTPInvokerNonJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream unavailable"))
	}))
	defer srv.Close()

	inv := NewHTTPInvoker(nil)
	_, err := inv.Invoke(context.Background(), srv.URL, "query", nil, nil)

	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("error = %T, want *TransportError", err)
	}
	if te.Data != "upstream unavailable" {
		t.Errorf("Data = %v", te.Data)
	}
}

func TestHTTPInvokerConnectionFailure(t *testing.T) {
	inv := NewHTTPInvoker(nil)
	_, err := inv.Invoke(context.Background(), "http://127.0.0.1:1", "query", nil, nil)
	if err == nil {
		t.Fatal("Invoke() error = nil for unreachable endpoint")
	}
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("error = %T, want *TransportError", err)
	}
	if te.Status != 0 {
		t.Errorf("Status = %d, want 0 for connection failure", te.Status)
	}
}

func TestHTTPInvokerContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	inv := NewHTTPInvoker(nil)
	_, err := inv.Invoke(ctx, srv.URL, "query", nil, nil)
	if err == nil {
		t.Fatal("Invoke() error = nil for cancelled context")
	}
}

func TestHTTPInvokerNilDataOnJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength != 0 {
			t.Error("request carried a body for nil params")
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	inv := NewHTTPInvoker(nil)
	data, err := inv.Invoke(context.Background(), srv.URL, "query", nil, nil)
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if data != nil {
		t.Errorf("data = %v, want nil for empty body", data)
	}
}

func TestHTTPInvokerTrailingSlash(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	inv := NewHTTPInvoker(nil)
	if _, err := inv.Invoke(context.Background(), srv.URL+"/", "/query", nil, nil); err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if gotPath != "/query" {
		t.Errorf("path = %q, want /query", gotPath)
	}
}
