package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/TimurManjosov/gorules/internal/audit"
	"github.com/TimurManjosov/gorules/internal/evaluation"
	"github.com/TimurManjosov/gorules/internal/rules"
	"github.com/TimurManjosov/gorules/internal/targeting"
	"github.com/TimurManjosov/gorules/internal/validation"
)

type createRuleRequest struct {
	RuleString string `json:"rule_string"`
}

type modifyRuleRequest struct {
	RuleID        string `json:"ruleId"`
	NewRuleString string `json:"newRuleString"`
}

type combineRequest struct {
	RuleStrings []string `json:"ruleStrings,omitempty"`
	RuleIDs     []string `json:"ruleIds,omitempty"`
}

type combineResponse struct {
	CombinedAST rules.Node `json:"combinedAST"`
}

type evaluateRequest struct {
	RuleID string          `json:"ruleId,omitempty"`
	AST    json.RawMessage `json:"ast,omitempty"`
	Data   map[string]any  `json:"data"`
}

type evaluateResponse struct {
	Result bool `json:"result"`
}

// writeServiceError maps service errors to responses: malformed rules are
// 400 INVALID_RULE, missing rules 404, anything else 500.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case evaluation.IsMalformed(err):
		InvalidRuleError(w, r, err.Error())
	case evaluation.IsNotFound(err):
		NotFoundError(w, r, err.Error())
	default:
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("rule service failure")
		InternalError(w, r, "Internal error")
	}
}

func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	var req createRuleRequest
	if !decodeJSON(w, r, &req, "expected field 'rule_string'") {
		return
	}
	if v := validation.ValidateRuleString("rule_string", req.RuleString); !v.Valid {
		ValidationError(w, r, "Validation failed for one or more fields", v.Errors)
		return
	}

	rule, err := s.svc.CreateRule(r.Context(), req.RuleString)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.logAudit(audit.NewEventBuilder(r).
		ForRule(rule.ID).
		WithAction(audit.ActionCreated).
		WithAfterState(ruleToMap(rule)).
		Build())

	writeJSON(w, http.StatusCreated, rule)
}

func (s *Server) handleGetRule(w http.ResponseWriter, r *http.Request) {
	rule, err := s.svc.GetRule(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

// handleListRules serves the published snapshot with an ETag.
func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	snap := s.svc.Snapshot()
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == snap.ETag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", snap.ETag)
	writeJSON(w, http.StatusOK, snap.Rules)
}

func (s *Server) handleRuleJSONLogic(w http.ResponseWriter, r *http.Request) {
	rule, err := s.svc.GetRule(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	doc, err := targeting.ToJSONLogic(rule.AST)
	if err != nil {
		InvalidRuleError(w, r, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleModifyRule(w http.ResponseWriter, r *http.Request) {
	var req modifyRuleRequest
	if !decodeJSON(w, r, &req, "expected fields 'ruleId' and 'newRuleString'") {
		return
	}
	v := validation.ValidateRuleID("ruleId", req.RuleID)
	v.Merge(validation.ValidateRuleString("newRuleString", req.NewRuleString))
	if !v.Valid {
		ValidationError(w, r, "Validation failed for one or more fields", v.Errors)
		return
	}

	before, err := s.svc.GetRule(r.Context(), req.RuleID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	rule, err := s.svc.ModifyRule(r.Context(), req.RuleID, req.NewRuleString)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.logAudit(audit.NewEventBuilder(r).
		ForRule(rule.ID).
		WithAction(audit.ActionUpdated).
		WithBeforeState(ruleToMap(before)).
		WithAfterState(ruleToMap(rule)).
		WithChanges().
		Build())

	writeJSON(w, http.StatusOK, rule)
}

func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	before, err := s.svc.GetRule(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if err := s.svc.DeleteRule(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.logAudit(audit.NewEventBuilder(r).
		ForRule(id).
		WithAction(audit.ActionDeleted).
		WithBeforeState(ruleToMap(before)).
		Build())

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCombine(w http.ResponseWriter, r *http.Request) {
	var req combineRequest
	if !decodeJSON(w, r, &req, "expected 'ruleStrings' or 'ruleIds'") {
		return
	}
	if v := validation.ValidateCombine(req.RuleStrings, req.RuleIDs); !v.Valid {
		ValidationError(w, r, "Validation failed for one or more fields", v.Errors)
		return
	}

	var (
		node rules.Node
		err  error
	)
	if len(req.RuleIDs) > 0 {
		node, err = s.svc.CombineRuleIDs(r.Context(), req.RuleIDs)
	} else {
		node, err = s.svc.CombineRuleStrings(r.Context(), req.RuleStrings)
	}
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, combineResponse{CombinedAST: node})
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if !decodeJSON(w, r, &req, "expected 'ruleId' or 'ast', and 'data'") {
		return
	}

	v := validation.ValidateData(req.Data)
	hasAST := len(req.AST) > 0 && string(req.AST) != "null"
	switch {
	case req.RuleID == "" && !hasAST:
		v.AddError("ruleId", "Either ruleId or ast is required")
	case req.RuleID != "" && hasAST:
		v.AddError("ast", "Provide either ruleId or ast, not both")
	}
	if !v.Valid {
		ValidationError(w, r, "Validation failed for one or more fields", v.Errors)
		return
	}

	var (
		result bool
		err    error
	)
	if hasAST {
		node, decodeErr := rules.UnmarshalNode(req.AST)
		if decodeErr != nil {
			InvalidRuleError(w, r, decodeErr.Error())
			return
		}
		result, err = s.svc.EvaluateAST(r.Context(), node, req.Data)
	} else {
		result, err = s.svc.EvaluateRule(r.Context(), req.RuleID, req.Data)
	}
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, evaluateResponse{Result: result})
}

func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	var req createRuleRequest
	if !decodeJSON(w, r, &req, "expected field 'rule_string'") {
		return
	}
	if v := validation.ValidateRuleString("rule_string", req.RuleString); !v.Valid {
		ValidationError(w, r, "Validation failed for one or more fields", v.Errors)
		return
	}

	res, err := s.svc.CompileRule(r.Context(), req.RuleString)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
