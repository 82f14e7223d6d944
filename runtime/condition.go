package runtime

import (
	"fmt"
	"strconv"
	"strings"
)

// Condition is a single variable comparison, used both as an edge guard and
// inside condition-node payloads.
type Condition struct {
	Variable string `yaml:"variable" json:"variable" mapstructure:"variable"`
	Operator string `yaml:"operator" json:"operator" mapstructure:"operator"`
	Value    any    `yaml:"value" json:"value" mapstructure:"value"`
}

// Comparison operators. Anything else evaluates to false: an unknown
// condition never lets a branch proceed.
const (
	OpEquals     = "equals"
	OpNotEquals  = "not_equals"
	OpGreater    = "greater_than"
	OpLess       = "less_than"
	OpContains   = "contains"
	OpStartsWith = "starts_with"
	OpEndsWith   = "ends_with"
	OpIsEmpty    = "is_empty"
	OpIsNotEmpty = "is_not_empty"
)

// EvaluateCondition resolves cond.Variable in the given scope and applies
// the operator. Missing variables resolve to nil, which compares as empty.
func EvaluateCondition(cond Condition, variables map[string]any) bool {
	actual := variables[cond.Variable]

	switch cond.Operator {
	case OpEquals:
		return looseEquals(actual, cond.Value)
	case OpNotEquals:
		return !looseEquals(actual, cond.Value)
	case OpGreater:
		a, aok := toNumber(actual)
		b, bok := toNumber(cond.Value)
		return aok && bok && a > b
	case OpLess:
		a, aok := toNumber(actual)
		b, bok := toNumber(cond.Value)
		return aok && bok && a < b
	case OpContains:
		return strings.Contains(toString(actual), toString(cond.Value))
	case OpStartsWith:
		return strings.HasPrefix(toString(actual), toString(cond.Value))
	case OpEndsWith:
		return strings.HasSuffix(toString(actual), toString(cond.Value))
	case OpIsEmpty:
		return isEmpty(actual)
	case OpIsNotEmpty:
		return !isEmpty(actual)
	default:
		return false
	}
}

// looseEquals compares numerically when both sides coerce to numbers, and
// by string form otherwise, matching how flow authors mix "10" and 10.
// The numeric-first rule is deliberate: "1.0" equals "1" even though their
// string forms differ.
func looseEquals(a, b any) bool {
	if na, ok := toNumber(a); ok {
		if nb, ok := toNumber(b); ok {
			return na == nb
		}
	}
	return toString(a) == toString(b)
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case bool:
		// booleans are not numbers
		return 0, false
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func toString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// isEmpty reports whether a value counts as empty: nil, empty string,
// empty array/map, zero, or false.
func isEmpty(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case []any:
		return len(val) == 0
	case []string:
		return len(val) == 0
	case map[string]any:
		return len(val) == 0
	case bool:
		return !val
	default:
		if n, ok := toNumber(v); ok {
			return n == 0
		}
		return false
	}
}
