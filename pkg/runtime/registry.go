package runtime

import (
	"net/http"
	"sort"
	"time"

	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/proxy"
	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/scripting"
	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/storage"
)

// HandlerRegistry maps node types to handlers. Unregistered types fall
// through to a single fallback handler, which dispatches to the proxy
// service by naming convention.
type HandlerRegistry struct {
	handlers map[string]NodeHandler
	fallback NodeHandler
}

// NewHandlerRegistry creates an empty registry with the given fallback.
func NewHandlerRegistry(fallback NodeHandler) *HandlerRegistry {
	return &HandlerRegistry{
		handlers: make(map[string]NodeHandler),
		fallback: fallback,
	}
}

// Register binds a node type to a handler.
func (r *HandlerRegistry) Register(nodeType string, handler NodeHandler) {
	r.handlers[nodeType] = handler
}

// Lookup returns the handler for a node type, or the fallback.
func (r *HandlerRegistry) Lookup(nodeType string) NodeHandler {
	if handler, ok := r.handlers[nodeType]; ok {
		return handler
	}
	return r.fallback
}

// Types returns the registered node types, sorted.
func (r *HandlerRegistry) Types() []string {
	types := make([]string, 0, len(r.handlers))
	for nodeType := range r.handlers {
		types = append(types, nodeType)
	}
	sort.Strings(types)
	return types
}

// RegistryDeps carries the collaborators the built-in handlers need.
type RegistryDeps struct {
	ScriptEngine scripting.ScriptEngine
	DataTables   storage.DataTableStore
	ProxyClient  *proxy.Client
	HTTPClient   *http.Client
}

// NewDefaultRegistry wires up every built-in node handler.
func NewDefaultRegistry(deps RegistryDeps) *HandlerRegistry {
	if deps.ScriptEngine == nil {
		deps.ScriptEngine = scripting.NewScriptEngine()
	}
	if deps.ProxyClient == nil {
		deps.ProxyClient = proxy.NewClient("")
	}
	if deps.HTTPClient == nil {
		deps.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}

	registry := NewHandlerRegistry(NewProxyNodeHandler(deps.ProxyClient))
	registry.Register(NodeTypeWebhookTrigger, NewWebhookTriggerHandler(deps.ScriptEngine))
	registry.Register(NodeTypeHTTPRequest, NewHTTPRequestHandler(deps.HTTPClient))
	registry.Register(NodeTypeCondition, NewConditionHandler())
	registry.Register(NodeTypeSetVariable, NewSetVariableHandler())
	registry.Register(NodeTypeDataFilter, NewDataFilterHandler())
	registry.Register(NodeTypeCodeExecution, NewCodeExecutionHandler(deps.ScriptEngine))
	registry.Register(NodeTypeAIAgent, NewAIAgentHandler(deps.ProxyClient))
	registry.Register(NodeTypeResponse, NewResponseHandler())
	registry.Register(NodeTypeLogger, NewLoggerHandler())
	if deps.DataTables != nil {
		registry.Register(NodeTypeDataTable, NewDataTableHandler(deps.DataTables))
	}
	return registry
}
