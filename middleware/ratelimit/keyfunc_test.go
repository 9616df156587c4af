package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDefaultKeyFunc_PrefersForwardedFor(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
	r.Header.Set("x-forwarded-for", "1.2.3.4, 5.6.7.8")
	r.Header.Set("X-Real-IP", "9.9.9.9")

	// valor cru, sem separar por vírgula
	if got := DefaultKeyFunc(r); got != "1.2.3.4, 5.6.7.8" {
		t.Fatalf("expected raw forwarded-for value, got %q", got)
	}
}

func TestDefaultKeyFunc_FallsBackToRealIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
	r.Header.Set("x-real-ip", "9.9.9.9")

	if got := DefaultKeyFunc(r); got != "9.9.9.9" {
		t.Fatalf("expected real ip, got %q", got)
	}
}

func TestDefaultKeyFunc_UnknownWithoutHeaders(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
	r.RemoteAddr = "10.0.0.9:5555"

	if got := DefaultKeyFunc(r); got != "unknown" {
		t.Fatalf("expected unknown, got %q", got)
	}
}

func TestNamespacedKeyFunc(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
	r.Header.Set("X-Real-IP", "9.9.9.9")

	if got := NamespacedKeyFunc("validate", DefaultKeyFunc)(r); got != "validate:9.9.9.9" {
		t.Fatalf("unexpected namespaced key %q", got)
	}
	if got := NamespacedKeyFunc("", DefaultKeyFunc)(r); got != "9.9.9.9" {
		t.Fatalf("expected empty namespace to keep key, got %q", got)
	}
}
