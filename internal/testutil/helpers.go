// Package testutil holds helpers shared by tests that need a running rule API.
package testutil

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/TimurManjosov/gorules/internal/api"
	"github.com/TimurManjosov/gorules/internal/auth"
	"github.com/TimurManjosov/gorules/internal/engine"
	"github.com/TimurManjosov/gorules/internal/evaluation"
	"github.com/TimurManjosov/gorules/internal/rules"
	"github.com/TimurManjosov/gorules/internal/store"
)

// NewTestServer creates an API server over an in-memory store. attributes is
// the engine allow-list; none means any attribute.
func NewTestServer(t *testing.T, adminKey string, attributes ...string) (*api.Server, *evaluation.Service) {
	t.Helper()
	eng := engine.New(engine.WithAttributes(attributes...))
	svc := evaluation.NewService(store.NewMemoryStore(), eng, zerolog.Nop())
	server := api.NewServer(svc, auth.NewAuthenticator(adminKey, nil), nil, zerolog.Nop(), api.Options{})
	return server, svc
}

// StartTestServer runs NewTestServer behind a real listener and returns its
// base URL. The listener is closed when the test ends.
func StartTestServer(t *testing.T, adminKey string, attributes ...string) (string, *evaluation.Service) {
	t.Helper()
	server, svc := NewTestServer(t, adminKey, attributes...)
	ts := httptest.NewServer(server.Router())
	t.Cleanup(ts.Close)
	return ts.URL, svc
}

// HTTPRequest is a helper for making test HTTP requests.
type HTTPRequest struct {
	Method  string
	Path    string
	Body    string
	Headers map[string]string
}

// Do executes the HTTP request and returns the response recorder.
func (r *HTTPRequest) Do(t *testing.T, handler http.Handler) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if r.Body != "" {
		body = bytes.NewBufferString(r.Body)
	}
	req := httptest.NewRequest(r.Method, r.Path, body)
	if r.Body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// SeedRules creates one rule per rule string, in order.
func SeedRules(ctx context.Context, svc *evaluation.Service, ruleStrings ...string) ([]store.Rule, error) {
	created := make([]store.Rule, 0, len(ruleStrings))
	for _, rs := range ruleStrings {
		rule, err := svc.CreateRule(ctx, rs)
		if err != nil {
			return nil, err
		}
		created = append(created, *rule)
	}
	return created, nil
}

// MustCompile compiles ruleString with the default engine or fails the test.
func MustCompile(t *testing.T, ruleString string) rules.Node {
	t.Helper()
	node, err := engine.CompileString(ruleString)
	if err != nil {
		t.Fatalf("compile %q: %v", ruleString, err)
	}
	return node
}
