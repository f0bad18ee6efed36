// Package evaluation is the rule service: it compiles rule strings, persists
// the resulting trees, combines and evaluates them, and keeps the published
// snapshot current.
//
// Compilation always happens before any store call, so a malformed rule
// string never reaches the store.
package evaluation

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/TimurManjosov/gorules/internal/engine"
	"github.com/TimurManjosov/gorules/internal/rules"
	"github.com/TimurManjosov/gorules/internal/snapshot"
	"github.com/TimurManjosov/gorules/internal/store"
	"github.com/TimurManjosov/gorules/internal/telemetry"
)

var tracer = otel.Tracer(telemetry.TracerName + "/evaluation")

// CompileResult is the outcome of a dry-run compilation.
type CompileResult struct {
	AST        rules.Node `json:"ast"`
	Operands   int        `json:"operands"`
	Attributes []string   `json:"attributes"`
	Canonical  string     `json:"canonical"`
}

// Service orchestrates the engine and a rule store.
type Service struct {
	store    store.Store
	engine   *engine.Engine
	snapshot *snapshot.Holder
	logger   zerolog.Logger
}

// NewService wires a service. A nil engine means the default engine.
func NewService(st store.Store, eng *engine.Engine, logger zerolog.Logger) *Service {
	if eng == nil {
		eng = engine.New()
	}
	return &Service{
		store:    st,
		engine:   eng,
		snapshot: &snapshot.Holder{},
		logger:   logger,
	}
}

// Snapshot returns the current published view of all rules.
func (s *Service) Snapshot() *snapshot.Snapshot {
	return s.snapshot.Load()
}

// RefreshSnapshot rebuilds the snapshot from the store.
func (s *Service) RefreshSnapshot(ctx context.Context) error {
	all, err := s.store.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list rules: %w", err)
	}
	snap := snapshot.Build(all)
	s.snapshot.Store(snap)
	telemetry.SnapshotRules.Set(float64(len(all)))
	return nil
}

// refreshAfterWrite keeps the snapshot close to the store; a failed refresh
// is logged and leaves the previous snapshot in place.
func (s *Service) refreshAfterWrite(ctx context.Context) {
	if err := s.RefreshSnapshot(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("snapshot refresh failed")
	}
}

func (s *Service) compile(ctx context.Context, ruleString string) (rules.Node, error) {
	_, span := tracer.Start(ctx, "rules.compile")
	defer span.End()

	node, err := s.engine.CompileString(ruleString)
	telemetry.ObserveCompile(err)
	if err != nil {
		endSpan(span, err)
		s.logger.Debug().Err(err).Str("rule_string", ruleString).Msg("rule rejected")
		return nil, err
	}
	span.SetAttributes(attribute.Int("rule.operands", rules.CountOperands(node)))
	return node, nil
}

// CompileRule compiles ruleString without persisting it.
func (s *Service) CompileRule(ctx context.Context, ruleString string) (*CompileResult, error) {
	node, err := s.compile(ctx, ruleString)
	if err != nil {
		return nil, err
	}
	return &CompileResult{
		AST:        node,
		Operands:   rules.CountOperands(node),
		Attributes: rules.Attributes(node),
		Canonical:  rules.String(node),
	}, nil
}

// CreateRule compiles ruleString and stores it.
func (s *Service) CreateRule(ctx context.Context, ruleString string) (*store.Rule, error) {
	ctx, span := tracer.Start(ctx, "rules.create")
	defer span.End()

	node, err := s.compile(ctx, ruleString)
	if err != nil {
		endSpan(span, err)
		return nil, err
	}
	rule, err := s.store.Save(ctx, ruleString, node)
	if err != nil {
		endSpan(span, err)
		return nil, fmt.Errorf("save rule: %w", err)
	}
	span.SetAttributes(attribute.String("rule.id", rule.ID))
	s.logger.Info().Str("rule_id", rule.ID).Msg("rule created")
	s.refreshAfterWrite(ctx)
	return rule, nil
}

// GetRule returns the stored rule with id.
func (s *Service) GetRule(ctx context.Context, id string) (*store.Rule, error) {
	return s.store.FetchByID(ctx, id)
}

// ListRules returns all stored rules in creation order.
func (s *Service) ListRules(ctx context.Context) ([]store.Rule, error) {
	return s.store.ListAll(ctx)
}

// ModifyRule compiles newRuleString and replaces the rule string and tree of
// id in one store update. On a compile error the stored rule is untouched.
func (s *Service) ModifyRule(ctx context.Context, id, newRuleString string) (*store.Rule, error) {
	ctx, span := tracer.Start(ctx, "rules.modify", trace.WithAttributes(attribute.String("rule.id", id)))
	defer span.End()

	node, err := s.compile(ctx, newRuleString)
	if err != nil {
		endSpan(span, err)
		return nil, err
	}
	rule, err := s.store.Update(ctx, id, newRuleString, node)
	if err != nil {
		endSpan(span, err)
		return nil, err
	}
	s.logger.Info().Str("rule_id", id).Msg("rule modified")
	s.refreshAfterWrite(ctx)
	return rule, nil
}

// DeleteRule removes the rule with id.
func (s *Service) DeleteRule(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "rules.delete", trace.WithAttributes(attribute.String("rule.id", id)))
	defer span.End()

	if err := s.store.Delete(ctx, id); err != nil {
		endSpan(span, err)
		return err
	}
	s.logger.Info().Str("rule_id", id).Msg("rule deleted")
	s.refreshAfterWrite(ctx)
	return nil
}

// CombineRuleStrings compiles every rule string and AND-combines the trees.
// The first malformed string aborts the whole call.
func (s *Service) CombineRuleStrings(ctx context.Context, ruleStrings []string) (rules.Node, error) {
	ctx, span := tracer.Start(ctx, "rules.combine", trace.WithAttributes(attribute.Int("rules.count", len(ruleStrings))))
	defer span.End()

	if len(ruleStrings) == 0 {
		endSpan(span, engine.ErrEmptyRuleSet)
		return nil, engine.ErrEmptyRuleSet
	}
	nodes := make([]rules.Node, 0, len(ruleStrings))
	for i, rs := range ruleStrings {
		node, err := s.compile(ctx, rs)
		if err != nil {
			err = fmt.Errorf("rule %d: %w", i, err)
			endSpan(span, err)
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return combine(span, nodes)
}

// CombineRuleIDs AND-combines the stored trees of ids, in the given order.
func (s *Service) CombineRuleIDs(ctx context.Context, ids []string) (rules.Node, error) {
	ctx, span := tracer.Start(ctx, "rules.combine", trace.WithAttributes(attribute.Int("rules.count", len(ids))))
	defer span.End()

	if len(ids) == 0 {
		endSpan(span, engine.ErrEmptyRuleSet)
		return nil, engine.ErrEmptyRuleSet
	}
	nodes := make([]rules.Node, 0, len(ids))
	for _, id := range ids {
		rule, err := s.store.FetchByID(ctx, id)
		if err != nil {
			err = fmt.Errorf("rule %s: %w", id, err)
			endSpan(span, err)
			return nil, err
		}
		nodes = append(nodes, rule.AST)
	}
	return combine(span, nodes)
}

func combine(span trace.Span, nodes []rules.Node) (rules.Node, error) {
	node, err := engine.Combine(nodes)
	if err != nil {
		endSpan(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("rule.operands", rules.CountOperands(node)))
	return node, nil
}

// EvaluateRule evaluates the stored rule id against data.
func (s *Service) EvaluateRule(ctx context.Context, id string, data map[string]any) (bool, error) {
	ctx, span := tracer.Start(ctx, "rules.evaluate", trace.WithAttributes(attribute.String("rule.id", id)))
	defer span.End()

	rule, err := s.store.FetchByID(ctx, id)
	if err != nil {
		endSpan(span, err)
		return false, err
	}
	result := s.engine.Evaluate(rule.AST, data)
	telemetry.ObserveEvaluation(result)
	span.SetAttributes(attribute.Bool("rule.result", result))
	return result, nil
}

// EvaluateAST evaluates an inline tree against data. The tree is checked
// first, so a structurally invalid tree or an attribute outside the
// allow-list is reported instead of silently evaluating to false.
func (s *Service) EvaluateAST(ctx context.Context, node rules.Node, data map[string]any) (bool, error) {
	_, span := tracer.Start(ctx, "rules.evaluate_ast")
	defer span.End()

	if err := s.engine.Check(node); err != nil {
		endSpan(span, err)
		return false, err
	}
	result := s.engine.Evaluate(node, data)
	telemetry.ObserveEvaluation(result)
	span.SetAttributes(attribute.Bool("rule.result", result))
	return result, nil
}

// IsMalformed reports whether err was caused by a malformed rule or tree.
func IsMalformed(err error) bool {
	return errors.Is(err, engine.ErrMalformedInput)
}

// IsNotFound reports whether err was caused by a missing rule.
func IsNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}

func endSpan(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
