package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/models"
	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/proxy"
)

const defaultAgentModel = "claude-sonnet-4-0"

// AIAgentHandler answers a prompt with a language model. With an API key
// in its inputs the node calls Anthropic directly; otherwise it delegates
// to the external AI proxy.
type AIAgentHandler struct {
	proxyClient *proxy.Client
}

// NewAIAgentHandler creates an ai-agent handler.
func NewAIAgentHandler(proxyClient *proxy.Client) *AIAgentHandler {
	return &AIAgentHandler{proxyClient: proxyClient}
}

// Execute implements NodeHandler.
func (h *AIAgentHandler) Execute(ctx context.Context, node models.Node, inputs map[string]interface{}, ec *ExecutionContext) (map[string]interface{}, error) {
	parseJSON, _ := inputs["parseJson"].(bool)

	apiKey, _ := inputs["apiKey"].(string)
	if apiKey == "" {
		data, err := h.proxyClient.Invoke(ctx, NodeTypeAIAgent, "complete", inputs)
		if err != nil {
			return nil, err
		}
		if output, ok := data.(map[string]interface{}); ok {
			return output, nil
		}
		return map[string]interface{}{"response": data}, nil
	}

	prompt, _ := inputs["prompt"].(string)
	if prompt == "" {
		return nil, fmt.Errorf("prompt is required")
	}
	model, _ := inputs["model"].(string)
	if model == "" {
		model = defaultAgentModel
	}
	maxTokens := int64(1024)
	if v, ok := asFloat(inputs["maxTokens"]); ok && v > 0 {
		maxTokens = int64(v)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if system, _ := inputs["system"].(string); system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	message, err := client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("model call failed: %w", err)
	}

	var text strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	output := map[string]interface{}{
		"response":   text.String(),
		"model":      string(message.Model),
		"stopReason": string(message.StopReason),
	}
	if parseJSON {
		parsed, err := ParseModelJSON(text.String())
		if err != nil {
			return nil, fmt.Errorf("failed to parse model response as JSON: %w", err)
		}
		output["parsed"] = parsed
	}
	return output, nil
}

// ParseModelJSON parses a model response as JSON, tolerating the markdown
// code fences models often wrap structured output in.
func ParseModelJSON(response string) (interface{}, error) {
	response = strings.TrimSpace(response)
	if strings.HasPrefix(response, "```") {
		response = strings.TrimPrefix(response, "```json")
		response = strings.TrimPrefix(response, "```")
		if end := strings.LastIndex(response, "```"); end >= 0 {
			response = response[:end]
		}
		response = strings.TrimSpace(response)
	}

	var parsed interface{}
	if err := json.Unmarshal([]byte(response), &parsed); err != nil {
		return nil, err
	}
	return parsed, nil
}
