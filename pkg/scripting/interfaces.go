// Package scripting provides sandboxed script and expression execution for
// flow nodes.
package scripting

import "context"

// ExpressionEvaluator evaluates ${...} expression strings against a context.
// Plain strings pass through unchanged.
type ExpressionEvaluator interface {
	// Evaluate processes an expression string with the given context
	Evaluate(expression string, context map[string]any) (any, error)

	// EvaluateInObject processes all expressions in an object
	EvaluateInObject(obj map[string]any, context map[string]any) (map[string]any, error)
}

// ScriptEngine runs user-supplied script snippets in an isolated VM with a
// fixed set of globals. The VM has no host access; scripts see only what the
// caller passes in.
type ScriptEngine interface {
	// RunScript executes a script with the given globals in scope and
	// returns the script's return value as a Go value. The context deadline
	// interrupts long-running scripts.
	RunScript(ctx context.Context, script string, globals map[string]interface{}) (interface{}, error)
}
