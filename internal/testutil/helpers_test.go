package testutil

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/TimurManjosov/gorules/internal/rules"
)

func TestNewTestServer(t *testing.T) {
	server, svc := NewTestServer(t, "test-key", "age")
	if server == nil || svc == nil {
		t.Fatal("Expected non-nil server and service")
	}

	if _, err := svc.CreateRule(context.Background(), "age > 1"); err != nil {
		t.Fatalf("Service should be functional: %v", err)
	}
	if _, err := svc.CreateRule(context.Background(), "salary > 1"); err == nil {
		t.Fatal("allow-list should reject salary")
	}
}

func TestHTTPRequest_Do(t *testing.T) {
	server, _ := NewTestServer(t, "test-key")
	handler := server.Router()

	rr := (&HTTPRequest{Method: http.MethodGet, Path: "/healthz"}).Do(t, handler)
	if rr.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rr.Code)
	}
	if rr.Body.String() != "ok" {
		t.Errorf("Expected body 'ok', got '%s'", rr.Body.String())
	}

	rr = (&HTTPRequest{
		Method:  http.MethodPost,
		Path:    "/api/rules",
		Body:    `{"rule_string": "age > 30"}`,
		Headers: map[string]string{"Authorization": "Bearer test-key"},
	}).Do(t, handler)
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), `"ruleString":"age > 30"`) {
		t.Errorf("unexpected body: %s", rr.Body.String())
	}
}

func TestSeedRules(t *testing.T) {
	_, svc := NewTestServer(t, "test-key")
	ctx := context.Background()

	seeded, err := SeedRules(ctx, svc, "a > 1", "b > 2")
	if err != nil {
		t.Fatalf("SeedRules failed: %v", err)
	}
	if len(seeded) != 2 || seeded[1].RuleString != "b > 2" {
		t.Fatalf("seeded = %+v", seeded)
	}
	if n := len(svc.Snapshot().Rules); n != 2 {
		t.Errorf("snapshot has %d rules, want 2", n)
	}

	if _, err := SeedRules(ctx, svc, "c >"); err == nil {
		t.Error("expected error for malformed rule")
	}
}

func TestMustCompile(t *testing.T) {
	node := MustCompile(t, "a > 1 AND b = 'x'")
	if rules.CountOperands(node) != 2 {
		t.Errorf("CountOperands = %d", rules.CountOperands(node))
	}
}
