package telemetry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveCompile(t *testing.T) {
	ok := testutil.ToFloat64(RuleCompilations.WithLabelValues("ok"))
	bad := testutil.ToFloat64(RuleCompilations.WithLabelValues("malformed"))

	ObserveCompile(nil)
	ObserveCompile(errors.New("boom"))
	ObserveCompile(errors.New("boom"))

	if got := testutil.ToFloat64(RuleCompilations.WithLabelValues("ok")) - ok; got != 1 {
		t.Errorf("ok delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(RuleCompilations.WithLabelValues("malformed")) - bad; got != 2 {
		t.Errorf("malformed delta = %v, want 2", got)
	}
}

func TestObserveEvaluation(t *testing.T) {
	before := testutil.ToFloat64(RuleEvaluations.WithLabelValues("true"))
	ObserveEvaluation(true)
	if got := testutil.ToFloat64(RuleEvaluations.WithLabelValues("true")) - before; got != 1 {
		t.Errorf("true delta = %v, want 1", got)
	}
}

func TestMiddleware_RecordsRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/api/rules/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	before := testutil.ToFloat64(httpReqs.WithLabelValues("/api/rules/{id}", "GET", "Not Found"))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/rules/abc", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	after := testutil.ToFloat64(httpReqs.WithLabelValues("/api/rules/{id}", "GET", "Not Found"))
	if after-before != 1 {
		t.Fatalf("request counter delta = %v, want 1", after-before)
	}
}

func TestInit_Idempotent(t *testing.T) {
	Init()
	Init()
}

func TestSetupTracing_DisabledWithoutEndpoint(t *testing.T) {
	shutdown, err := SetupTracing(context.Background(), "gorules", "")
	if err != nil {
		t.Fatalf("SetupTracing failed: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}
}
