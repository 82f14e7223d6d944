package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateCondition(t *testing.T) {
	variables := map[string]any{
		"name":   "Alice Smith",
		"age":    30,
		"count":  "5",
		"ratio":  "1.0",
		"blank":  "",
		"items":  []any{},
		"filled": []any{"x"},
		"active": true,
	}

	tests := []struct {
		name     string
		cond     Condition
		expected bool
	}{
		{"equals string", Condition{Variable: "name", Operator: "equals", Value: "Alice Smith"}, true},
		{"equals mixed numeric", Condition{Variable: "age", Operator: "equals", Value: "30"}, true},
		{"equals numeric forms", Condition{Variable: "ratio", Operator: "equals", Value: "1"}, true},
		{"equals mismatch", Condition{Variable: "count", Operator: "equals", Value: "10"}, false},
		{"not_equals", Condition{Variable: "name", Operator: "not_equals", Value: "Bob"}, true},
		{"greater_than coerces strings", Condition{Variable: "count", Operator: "greater_than", Value: 3}, true},
		{"greater_than false", Condition{Variable: "count", Operator: "greater_than", Value: "10"}, false},
		{"less_than", Condition{Variable: "count", Operator: "less_than", Value: "10"}, true},
		{"less_than non-numeric", Condition{Variable: "name", Operator: "less_than", Value: 10}, false},
		{"contains", Condition{Variable: "name", Operator: "contains", Value: "Smith"}, true},
		{"starts_with", Condition{Variable: "name", Operator: "starts_with", Value: "Alice"}, true},
		{"ends_with", Condition{Variable: "name", Operator: "ends_with", Value: "Smith"}, true},
		{"contains on number form", Condition{Variable: "age", Operator: "contains", Value: "3"}, true},
		{"is_empty on blank", Condition{Variable: "blank", Operator: "is_empty"}, true},
		{"is_empty on missing variable", Condition{Variable: "ghost", Operator: "is_empty"}, true},
		{"is_empty on empty array", Condition{Variable: "items", Operator: "is_empty"}, true},
		{"is_not_empty", Condition{Variable: "filled", Operator: "is_not_empty"}, true},
		{"is_not_empty on bool", Condition{Variable: "active", Operator: "is_not_empty"}, true},
		{"unknown operator fails closed", Condition{Variable: "name", Operator: "matches", Value: "Alice"}, false},
		{"empty operator fails closed", Condition{Variable: "name", Operator: "", Value: "Alice"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, EvaluateCondition(tt.cond, variables))
		})
	}
}
