// Package client is an HTTP client for the rule service API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/TimurManjosov/gorules/internal/rules"
	"github.com/TimurManjosov/gorules/internal/store"
)

// Client is an HTTP client for the rule service API
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Fields     map[string]string
}

func (e *APIError) Error() string {
	msg := e.Message
	if len(e.Fields) > 0 {
		parts := make([]string, 0, len(e.Fields))
		for field, m := range e.Fields {
			parts = append(parts, field+": "+m)
		}
		msg += " (" + strings.Join(parts, "; ") + ")"
	}
	if e.Code != "" {
		return fmt.Sprintf("API error (status %d, %s): %s", e.StatusCode, e.Code, msg)
	}
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, msg)
}

// CompileResult mirrors the compile endpoint response.
type CompileResult struct {
	AST        rules.Node
	Operands   int
	Attributes []string
	Canonical  string
}

// do sends a JSON request and decodes a JSON response into out (when non-nil).
func (c *Client) do(ctx context.Context, method, path string, in, out any, want int) error {
	var body io.Reader
	if in != nil {
		blob, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(blob)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		return decodeAPIError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	bodyBytes, _ := io.ReadAll(resp.Body)
	apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(bodyBytes))}

	var payload struct {
		Message string            `json:"message"`
		Code    string            `json:"code"`
		Fields  map[string]string `json:"fields"`
	}
	if json.Unmarshal(bodyBytes, &payload) == nil && payload.Message != "" {
		apiErr.Message = payload.Message
		apiErr.Code = payload.Code
		apiErr.Fields = payload.Fields
	}
	return apiErr
}

// CreateRule compiles and stores ruleString on the server.
func (c *Client) CreateRule(ctx context.Context, ruleString string) (*store.Rule, error) {
	var rule store.Rule
	err := c.do(ctx, http.MethodPost, "/api/rules", map[string]string{"rule_string": ruleString}, &rule, http.StatusCreated)
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

// GetRule retrieves a single rule by id.
func (c *Client) GetRule(ctx context.Context, id string) (*store.Rule, error) {
	var rule store.Rule
	if err := c.do(ctx, http.MethodGet, "/api/rules/"+url.PathEscape(id), nil, &rule, http.StatusOK); err != nil {
		return nil, err
	}
	return &rule, nil
}

// ListRules retrieves all rules in creation order.
func (c *Client) ListRules(ctx context.Context) ([]store.Rule, error) {
	var list []store.Rule
	if err := c.do(ctx, http.MethodGet, "/api/rules/all", nil, &list, http.StatusOK); err != nil {
		return nil, err
	}
	return list, nil
}

// ModifyRule replaces the rule string of id.
func (c *Client) ModifyRule(ctx context.Context, id, newRuleString string) (*store.Rule, error) {
	var rule store.Rule
	in := map[string]string{"ruleId": id, "newRuleString": newRuleString}
	if err := c.do(ctx, http.MethodPut, "/api/rules/modify", in, &rule, http.StatusOK); err != nil {
		return nil, err
	}
	return &rule, nil
}

// DeleteRule removes the rule with id.
func (c *Client) DeleteRule(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/rules/"+url.PathEscape(id), nil, nil, http.StatusNoContent)
}

// CombineRuleStrings asks the server to AND-combine rule strings.
func (c *Client) CombineRuleStrings(ctx context.Context, ruleStrings []string) (rules.Node, error) {
	return c.combine(ctx, map[string][]string{"ruleStrings": ruleStrings})
}

// CombineRuleIDs asks the server to AND-combine stored rules.
func (c *Client) CombineRuleIDs(ctx context.Context, ids []string) (rules.Node, error) {
	return c.combine(ctx, map[string][]string{"ruleIds": ids})
}

func (c *Client) combine(ctx context.Context, in any) (rules.Node, error) {
	var out struct {
		CombinedAST json.RawMessage `json:"combinedAST"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/rules/combine", in, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return rules.UnmarshalNode(out.CombinedAST)
}

// EvaluateRule evaluates the stored rule id against data.
func (c *Client) EvaluateRule(ctx context.Context, id string, data map[string]any) (bool, error) {
	return c.evaluate(ctx, map[string]any{"ruleId": id, "data": data})
}

// EvaluateAST evaluates an inline tree against data on the server.
func (c *Client) EvaluateAST(ctx context.Context, node rules.Node, data map[string]any) (bool, error) {
	return c.evaluate(ctx, map[string]any{"ast": node, "data": data})
}

func (c *Client) evaluate(ctx context.Context, in any) (bool, error) {
	var out struct {
		Result bool `json:"result"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/rules/evaluate", in, &out, http.StatusOK); err != nil {
		return false, err
	}
	return out.Result, nil
}

// CompileRule compiles ruleString on the server without storing it.
func (c *Client) CompileRule(ctx context.Context, ruleString string) (*CompileResult, error) {
	var out struct {
		AST        json.RawMessage `json:"ast"`
		Operands   int             `json:"operands"`
		Attributes []string        `json:"attributes"`
		Canonical  string          `json:"canonical"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/rules/compile", map[string]string{"rule_string": ruleString}, &out, http.StatusOK); err != nil {
		return nil, err
	}
	node, err := rules.UnmarshalNode(out.AST)
	if err != nil {
		return nil, err
	}
	return &CompileResult{AST: node, Operands: out.Operands, Attributes: out.Attributes, Canonical: out.Canonical}, nil
}

// JSONLogic fetches the JSON Logic rendering of the stored rule id.
func (c *Client) JSONLogic(ctx context.Context, id string) (map[string]any, error) {
	var doc map[string]any
	if err := c.do(ctx, http.MethodGet, "/api/rules/"+url.PathEscape(id)+"/jsonlogic", nil, &doc, http.StatusOK); err != nil {
		return nil, err
	}
	return doc, nil
}
