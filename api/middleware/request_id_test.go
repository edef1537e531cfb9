package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestRequestIDKeepsWellFormedClientID(t *testing.T) {
	supplied := uuid.NewString()
	handler := RequestID(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, supplied)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if got := resp.Header().Get(requestIDHeader); got != supplied {
		t.Fatalf("expected supplied id %s echoed, got %s", supplied, got)
	}
}

func TestRequestIDReplacesMalformedClientID(t *testing.T) {
	handler := RequestID(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "not-a-uuid")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	got := resp.Header().Get(requestIDHeader)
	if got == "not-a-uuid" || got == "" {
		t.Fatalf("expected a generated uuid, got %q", got)
	}
	if _, err := uuid.Parse(got); err != nil {
		t.Fatalf("expected a parseable uuid, got %q", got)
	}
}
