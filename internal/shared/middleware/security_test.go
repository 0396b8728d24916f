package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHSTS(t *testing.T) {
	handler := HSTS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	got := rr.Header().Get("Strict-Transport-Security")
	if !strings.Contains(got, "max-age=31536000") {
		t.Errorf("Strict-Transport-Security = %q, want max-age=31536000", got)
	}
}

func TestSecureCookies(t *testing.T) {
	handler := SecureCookies(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "access_token", Value: "abc", Path: "/"})
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	cookies := rr.Header()["Set-Cookie"]
	if len(cookies) != 1 {
		t.Fatalf("got %d Set-Cookie headers, want 1", len(cookies))
	}

	cookie := cookies[0]
	for _, attr := range []string{"Secure", "HttpOnly", "SameSite"} {
		if !strings.Contains(cookie, attr) {
			t.Errorf("cookie %q missing %s attribute", cookie, attr)
		}
	}
}

func TestIsHostAllowed(t *testing.T) {
	tests := []struct {
		name         string
		host         string
		allowedHosts []string
		want         bool
	}{
		{"empty allowlist accepts all", "anything.com", nil, true},
		{"exact match", "api.example.com", []string{"api.example.com"}, true},
		{"match ignoring port", "api.example.com:443", []string{"api.example.com"}, true},
		{"mismatch", "evil.com", []string{"api.example.com"}, false},
		{"case insensitive", "API.Example.COM", []string{"api.example.com"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsHostAllowed(tt.host, tt.allowedHosts); got != tt.want {
				t.Errorf("IsHostAllowed(%q, %v) = %v, want %v", tt.host, tt.allowedHosts, got, tt.want)
			}
		})
	}
}
