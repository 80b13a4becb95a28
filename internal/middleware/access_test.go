package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAccessGateAllowsListedIP(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusNoContent)
	})

	h := AccessGate("192.168.1.100, ::1")(next)

	r := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	r.Header.Set("X-Forwarded-For", "192.168.1.100")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if !called {
		t.Fatal("next handler should run for an allowlisted identity")
	}
	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Code)
	}
}

func TestAccessGateRejectsUnlistedIP(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request work may happen for a rejected identity")
	})

	h := AccessGate("192.168.1.100")(next)

	r := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	r.Header.Set("X-Forwarded-For", "10.0.0.9")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if body["error"] == "" {
		t.Error("error body must carry a message")
	}
}

func TestAccessGateRejectsInvalidLiteral(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run for an invalid identity")
	})

	h := AccessGate("192.168.1.100")(next)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Forwarded-For", "not-an-ip")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
}

func TestAccessGateLoopbackNeedsAllowlisting(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("loopback is a valid literal but still needs allowlist membership")
	})

	h := AccessGate("192.168.1.100")(next)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Real-IP", "127.0.0.1")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
}

func TestClientIPResolution(t *testing.T) {
	tests := []struct {
		name       string
		xff        string
		realIP     string
		remoteAddr string
		want       string
	}{
		{"forwarded wins", "1.2.3.4, 5.6.7.8", "9.9.9.9", "10.0.0.1:1234", "1.2.3.4"},
		{"real ip next", "", "9.9.9.9", "10.0.0.1:1234", "9.9.9.9"},
		{"remote addr fallback", "", "", "10.0.0.1:1234", "10.0.0.1"},
		{"ipv6 remote addr", "", "", "[::1]:8080", "::1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.realIP != "" {
				r.Header.Set("X-Real-IP", tt.realIP)
			}
			if got := ClientIP(r); got != tt.want {
				t.Errorf("ClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}
