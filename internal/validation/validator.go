// Package validation checks request parameters before they reach the rule service.
package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	// MaxRuleStringLength is the maximum length of a rule string in characters
	MaxRuleStringLength = 4096
	// MaxCombineRules is the maximum number of rules in one combine request
	MaxCombineRules = 100
	// MaxDataAttributes is the maximum number of attributes in one data record
	MaxDataAttributes = 256
	// MaxAttributeNameLength is the maximum length of a data record key
	MaxAttributeNameLength = 128
)

// ValidationResult holds the result of validation
type ValidationResult struct {
	Valid  bool
	Errors map[string]string
}

// NewValidationResult creates a new validation result
func NewValidationResult() *ValidationResult {
	return &ValidationResult{
		Valid:  true,
		Errors: make(map[string]string),
	}
}

// AddError adds a field error and marks the result as invalid
func (v *ValidationResult) AddError(field, message string) {
	v.Valid = false
	v.Errors[field] = message
}

// Merge combines another validation result into this one
func (v *ValidationResult) Merge(other *ValidationResult) {
	if other == nil {
		return
	}
	for field, message := range other.Errors {
		v.AddError(field, message)
	}
}

// ValidateRuleString checks that field holds a non-blank, valid UTF-8 rule
// string of bounded length. It does not compile the rule.
func ValidateRuleString(field, ruleString string) *ValidationResult {
	result := NewValidationResult()

	if strings.TrimSpace(ruleString) == "" {
		result.AddError(field, "Rule string is required")
		return result
	}
	if !utf8.ValidString(ruleString) {
		result.AddError(field, "Rule string must be valid UTF-8")
		return result
	}
	if utf8.RuneCountInString(ruleString) > MaxRuleStringLength {
		result.AddError(field, fmt.Sprintf("Rule string must not exceed %d characters", MaxRuleStringLength))
	}
	return result
}

// ValidateRuleID checks that field holds a rule id (a UUID).
func ValidateRuleID(field, id string) *ValidationResult {
	result := NewValidationResult()

	if strings.TrimSpace(id) == "" {
		result.AddError(field, "Rule ID is required")
		return result
	}
	if _, err := uuid.Parse(id); err != nil {
		result.AddError(field, "Rule ID must be a UUID")
	}
	return result
}

// ValidateCombine checks a combine request. Exactly one of ruleStrings and
// ruleIDs must be non-empty.
func ValidateCombine(ruleStrings, ruleIDs []string) *ValidationResult {
	result := NewValidationResult()

	switch {
	case len(ruleStrings) == 0 && len(ruleIDs) == 0:
		result.AddError("ruleStrings", "At least one rule is required")
		return result
	case len(ruleStrings) > 0 && len(ruleIDs) > 0:
		result.AddError("ruleIds", "Provide either ruleStrings or ruleIds, not both")
		return result
	case len(ruleStrings) > MaxCombineRules || len(ruleIDs) > MaxCombineRules:
		result.AddError("ruleStrings", fmt.Sprintf("At most %d rules can be combined", MaxCombineRules))
		return result
	}

	for i, rs := range ruleStrings {
		result.Merge(ValidateRuleString(fmt.Sprintf("ruleStrings[%d]", i), rs))
	}
	for i, id := range ruleIDs {
		result.Merge(ValidateRuleID(fmt.Sprintf("ruleIds[%d]", i), id))
	}
	return result
}

// ValidateData checks a data record: bounded size, non-blank keys, and scalar
// values (string, number, bool or null).
func ValidateData(data map[string]any) *ValidationResult {
	result := NewValidationResult()

	if len(data) > MaxDataAttributes {
		result.AddError("data", fmt.Sprintf("Data must not have more than %d attributes", MaxDataAttributes))
		return result
	}
	for key, value := range data {
		if strings.TrimSpace(key) == "" {
			result.AddError("data", "Attribute names cannot be empty")
			return result
		}
		if utf8.RuneCountInString(key) > MaxAttributeNameLength {
			result.AddError("data", fmt.Sprintf("Attribute name must not exceed %d characters", MaxAttributeNameLength))
			return result
		}
		switch value.(type) {
		case map[string]any, []any:
			result.AddError("data."+key, "Attribute values must be strings or numbers")
		}
	}
	return result
}
