package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicModel is the model used for schema-constrained extraction.
const AnthropicModel = "claude-3-5-sonnet-20241022"

// extractToolName is the single forced tool whose input schema is the
// extraction record shape of spec §4.8 step 3.
const extractToolName = "emit_extraction_record"

// AnthropicProvider calls the Claude API with temperature 0 and a
// tool_choice forcing the model to emit one structured record.
type AnthropicProvider struct {
	client anthropic.Client
	model  anthropic.Model
}

// NewAnthropicProvider creates a provider using ANTHROPIC_API_KEY from the
// environment. Returns an error if the key is not set.
func NewAnthropicProvider() (*AnthropicProvider, error) {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
	}
	return &AnthropicProvider{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  anthropic.Model(AnthropicModel),
	}, nil
}

// Name returns "anthropic".
func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

// Extract composes the strict prompt, forces the extraction tool, and
// parses the tool input as a Record. A response that does not call the
// forced tool, or whose input fails schema validation, returns an error
// (callers surface this as SCHEMA_VIOLATION).
func (p *AnthropicProvider) Extract(ctx context.Context, req *Request) (*Record, error) {
	params := anthropic.MessageNewParams{
		Model:       p.model,
		MaxTokens:   1024,
		Temperature: anthropic.Float(0),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt(req)},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt(req))),
		},
		Tools: []anthropic.ToolUnionParam{
			{OfTool: &anthropic.ToolParam{
				Name:        extractToolName,
				Description: anthropic.String("Emit the structured extraction record for this datapoint."),
				InputSchema: anthropic.ToolInputSchemaParam{
					Type:       "object",
					Properties: extractionSchemaProperties(),
					Required:   []string{"status", "evidence_chunk_ids", "rationale"},
				},
			}},
		},
		ToolChoice: anthropic.ToolChoiceUnionParam{
			OfTool: &anthropic.ToolChoiceToolParam{Name: extractToolName},
		},
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic extraction call failed: %w", err)
	}

	for _, block := range resp.Content {
		if block.Type != "tool_use" {
			continue
		}
		var raw schemaRecord
		if err := json.Unmarshal(block.Input, &raw); err != nil {
			return nil, fmt.Errorf("%w: tool input did not match extraction schema: %v", ErrSchemaViolation, err)
		}
		return raw.toRecord(), nil
	}
	return nil, fmt.Errorf("%w: no tool_use block in response", ErrSchemaViolation)
}
