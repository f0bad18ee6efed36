package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

type contextKey string

const (
	// ContextKeyKeyID is the context key for the identifier of the key used.
	ContextKeyKeyID contextKey = "key_id"
	// ContextKeyRole is the context key for storing the caller role
	ContextKeyRole contextKey = "role"
)

// Authenticator checks bearer tokens against a plain admin key and a list
// of bcrypt hashes. Either source may be empty.
type Authenticator struct {
	adminKey  string
	keyHashes []string
}

// NewAuthenticator creates a new Authenticator. Blank hashes are ignored.
func NewAuthenticator(adminKey string, keyHashes []string) *Authenticator {
	hashes := make([]string, 0, len(keyHashes))
	for _, h := range keyHashes {
		if h = strings.TrimSpace(h); h != "" {
			hashes = append(hashes, h)
		}
	}
	return &Authenticator{adminKey: adminKey, keyHashes: hashes}
}

// Enabled reports whether any credential is configured.
func (a *Authenticator) Enabled() bool {
	return a.adminKey != "" || len(a.keyHashes) > 0
}

// AuthResult contains the result of an authentication attempt
type AuthResult struct {
	Authenticated bool
	Role          Role
	KeyID         string
	Error         string
}

// Authenticate authenticates a request using the Authorization header.
func (a *Authenticator) Authenticate(authHeader string) AuthResult {
	token := ExtractBearerToken(authHeader)
	if token == "" {
		return AuthResult{Error: "missing bearer token"}
	}

	if a.adminKey != "" && VerifyAPIKeyConstantTime(token, a.adminKey) {
		return AuthResult{Authenticated: true, Role: RoleAdmin, KeyID: "admin"}
	}

	// bcrypt hashes are salted, so every hash has to be tried
	for i, hash := range a.keyHashes {
		if VerifyAPIKey(token, hash) {
			return AuthResult{Authenticated: true, Role: RoleAdmin, KeyID: fmt.Sprintf("key-%d", i+1)}
		}
	}

	return AuthResult{Error: "invalid token"}
}

// DenyFunc writes the response for a rejected request.
type DenyFunc func(w http.ResponseWriter, r *http.Request, status int, message string)

// RequireAuth is a middleware that requires a bearer token with at least
// requiredRole. A nil deny falls back to http.Error.
func (a *Authenticator) RequireAuth(requiredRole Role, deny DenyFunc) func(http.Handler) http.Handler {
	if deny == nil {
		deny = func(w http.ResponseWriter, _ *http.Request, status int, message string) {
			http.Error(w, message, status)
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !a.Enabled() {
				deny(w, r, http.StatusUnauthorized, "no admin credentials configured")
				return
			}

			result := a.Authenticate(r.Header.Get("Authorization"))
			if !result.Authenticated {
				deny(w, r, http.StatusUnauthorized, result.Error)
				return
			}
			if !HasPermission(result.Role, requiredRole) {
				deny(w, r, http.StatusForbidden, "insufficient permissions")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyRole, result.Role)
			ctx = context.WithValue(ctx, ContextKeyKeyID, result.KeyID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetRoleFromContext extracts the role from the request context
func GetRoleFromContext(ctx context.Context) (Role, bool) {
	role, ok := ctx.Value(ContextKeyRole).(Role)
	return role, ok
}

// GetKeyIDFromContext extracts the authenticated key id from the request context.
func GetKeyIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ContextKeyKeyID).(string)
	return id, ok && id != ""
}

// GetIPAddress extracts the client IP address from the request.
func GetIPAddress(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
