package scripting

import (
	"context"
	"fmt"
	"time"

	"github.com/dop251/goja"
)

// GojaScriptEngine is a ScriptEngine backed by the goja JavaScript
// interpreter. Each run gets a fresh VM so scripts cannot observe state from
// earlier executions.
type GojaScriptEngine struct{}

// NewScriptEngine creates a new GojaScriptEngine.
func NewScriptEngine() *GojaScriptEngine {
	return &GojaScriptEngine{}
}

// RunScript executes a script with the given globals in scope. The script is
// wrapped in a function so top-level return statements work. When the
// context carries a deadline, the VM is interrupted once it passes.
func (e *GojaScriptEngine) RunScript(ctx context.Context, script string, globals map[string]interface{}) (interface{}, error) {
	vm := goja.New()

	console := vm.NewObject()
	_ = console.Set("log", func(call goja.FunctionCall) goja.Value {
		return goja.Undefined()
	})
	_ = vm.Set("console", console)

	for name, value := range globals {
		if err := vm.Set(name, value); err != nil {
			return nil, fmt.Errorf("failed to bind script global %q: %w", name, err)
		}
	}

	if deadline, ok := ctx.Deadline(); ok {
		timer := time.AfterFunc(time.Until(deadline), func() {
			vm.Interrupt("script deadline exceeded")
		})
		defer timer.Stop()
	}

	wrapped := "(function() {\n" + script + "\n})()"
	result, err := vm.RunString(wrapped)
	if err != nil {
		if _, interrupted := err.(*goja.InterruptedError); interrupted {
			return nil, fmt.Errorf("script deadline exceeded")
		}
		return nil, fmt.Errorf("script execution failed: %w", err)
	}

	return result.Export(), nil
}
