package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/TimurManjosov/gorules/internal/store"
)

// maxBodyBytes bounds every request body.
const maxBodyBytes = 1 << 20

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads one JSON document from the body into v. Numbers decode
// as json.Number so large integers in data records keep their precision.
// It writes the error response itself and reports whether decoding worked.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, hint string) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			RequestTooLargeError(w, r, "Request body too large")
		case errors.Is(err, io.EOF):
			BadRequestError(w, r, ErrCodeInvalidJSON, "Request body is empty: "+hint)
		default:
			BadRequestError(w, r, ErrCodeInvalidJSON, fmt.Sprintf("Invalid JSON: %s", hint))
		}
		return false
	}
	return true
}

// ruleToMap converts a rule to a map for audit logging.
// Returns nil if the rule is nil.
func ruleToMap(rule *store.Rule) map[string]any {
	if rule == nil {
		return nil
	}
	return map[string]any{
		"id":          rule.ID,
		"rule_string": rule.RuleString,
		"updated_at":  rule.UpdatedAt.Format(time.RFC3339),
	}
}
