package executor

import (
	"encoding/base64"
	"fmt"
	"regexp"

	"github.com/expr-lang/expr"
)

// Custom expression functions available to set_variable and action nodes.
var exprFunctions = []expr.Option{
	expr.Function("base64_encode", func(params ...any) (any, error) {
		s, _ := params[0].(string)
		return base64.StdEncoding.EncodeToString([]byte(s)), nil
	}),
	expr.Function("base64_decode", func(params ...any) (any, error) {
		s, _ := params[0].(string)
		decoded, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return "", err
		}
		return string(decoded), nil
	}),
}

// Eval evaluates an expression against the execution's variable scope using
// expr-lang. Missing variables return nil instead of failing compilation,
// since conversation variables are often bound later in the flow.
func Eval(expression string, variables map[string]any) (any, error) {
	env := make(map[string]any, len(variables)+1)
	for k, v := range variables {
		env[k] = v
	}
	// null as alias for nil (JSON/YAML compatibility)
	env["null"] = nil

	opts := []expr.Option{
		expr.Env(env),
		expr.AllowUndefinedVariables(),
	}
	opts = append(opts, exprFunctions...)

	program, err := expr.Compile(expression, opts...)
	if err != nil {
		return nil, err
	}
	return expr.Run(program, env)
}

var templatePattern = regexp.MustCompile(`\{\{\s*(.+?)\s*\}\}`)

// evalValue resolves {{expression}} templates in string values. A string
// that is a single template returns the expression's typed value; mixed
// text interpolates each template's string form. Strings without templates
// are literals. Maps and arrays are evaluated recursively.
func evalValue(value any, variables map[string]any) any {
	switch v := value.(type) {
	case string:
		return evalTemplate(v, variables)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[k] = evalValue(val, variables)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			out[i] = evalValue(val, variables)
		}
		return out
	default:
		return value
	}
}

func evalTemplate(s string, variables map[string]any) any {
	matches := templatePattern.FindStringSubmatch(s)
	if matches == nil {
		return s
	}

	// A lone template keeps the expression's type (numbers stay numbers).
	if matches[0] == s {
		result, err := Eval(matches[1], variables)
		if err != nil {
			return s
		}
		return result
	}

	return templatePattern.ReplaceAllStringFunc(s, func(m string) string {
		inner := templatePattern.FindStringSubmatch(m)
		result, err := Eval(inner[1], variables)
		if err != nil || result == nil {
			return ""
		}
		return fmt.Sprintf("%v", result)
	})
}
