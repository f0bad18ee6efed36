package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func cheapHash(t *testing.T, key string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt failed: %v", err)
	}
	return string(h)
}

func TestAuthenticate(t *testing.T) {
	a := NewAuthenticator("plain-admin", []string{"", cheapHash(t, "hashed-one"), cheapHash(t, "hashed-two")})

	tests := []struct {
		name   string
		header string
		ok     bool
		keyID  string
	}{
		{name: "plain key", header: "Bearer plain-admin", ok: true, keyID: "admin"},
		{name: "first hash", header: "Bearer hashed-one", ok: true, keyID: "key-1"},
		{name: "second hash", header: "Bearer hashed-two", ok: true, keyID: "key-2"},
		{name: "wrong key", header: "Bearer nope"},
		{name: "missing header", header: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := a.Authenticate(tt.header)
			if res.Authenticated != tt.ok {
				t.Fatalf("Authenticated = %v, want %v (%s)", res.Authenticated, tt.ok, res.Error)
			}
			if tt.ok && (res.KeyID != tt.keyID || res.Role != RoleAdmin) {
				t.Fatalf("got key %q role %q", res.KeyID, res.Role)
			}
			if !tt.ok && res.Error == "" {
				t.Fatal("expected an error message")
			}
		})
	}
}

func TestRequireAuth(t *testing.T) {
	a := NewAuthenticator("secret", nil)

	var gotKeyID string
	handler := a.RequireAuth(RoleAdmin, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKeyID, _ = GetKeyIDFromContext(r.Context())
		if role, _ := GetRoleFromContext(r.Context()); role != RoleAdmin {
			t.Errorf("role in context = %q", role)
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "authorized", header: "Bearer secret", want: http.StatusNoContent},
		{name: "wrong token", header: "Bearer other", want: http.StatusUnauthorized},
		{name: "no token", want: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/rules", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
	if gotKeyID != "admin" {
		t.Fatalf("key id in context = %q, want admin", gotKeyID)
	}
}

func TestRequireAuth_NoCredentialsConfigured(t *testing.T) {
	a := NewAuthenticator("", nil)
	if a.Enabled() {
		t.Fatal("authenticator without credentials should be disabled")
	}

	var denied int
	deny := func(w http.ResponseWriter, r *http.Request, status int, message string) {
		denied = status
		w.WriteHeader(status)
	}
	handler := a.RequireAuth(RoleAdmin, deny)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/rules", nil)
	req.Header.Set("Authorization", "Bearer ")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if denied != http.StatusUnauthorized {
		t.Fatalf("deny status = %d, want 401", denied)
	}
}

func TestGetIPAddress(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	if got := GetIPAddress(req); got != "10.0.0.1:1234" {
		t.Errorf("RemoteAddr fallback = %q", got)
	}
	req.Header.Set("X-Real-IP", "10.0.0.2")
	if got := GetIPAddress(req); got != "10.0.0.2" {
		t.Errorf("X-Real-IP = %q", got)
	}
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.3")
	if got := GetIPAddress(req); got != "203.0.113.7" {
		t.Errorf("X-Forwarded-For = %q", got)
	}
}
