package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiModel is the model used for schema-constrained extraction.
const GeminiModel = "gemini-2.0-flash"

// GeminiProvider calls the Gemini API with temperature 0 and a
// response_mime_type/response_schema pair that forces JSON matching the
// extraction record shape.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider creates a provider using GOOGLE_API_KEY (or
// GEMINI_API_KEY) from the environment.
func NewGeminiProvider(ctx context.Context) (*GeminiProvider, error) {
	apiKey := os.Getenv("GOOGLE_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("GOOGLE_API_KEY (or GEMINI_API_KEY) environment variable not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiProvider{client: client, model: GeminiModel}, nil
}

// Name returns "gemini".
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// Close releases the underlying client.
func (p *GeminiProvider) Close() error {
	return p.client.Close()
}

// Extract sends req to Gemini in JSON response mode and parses the result
// as a Record. A non-conformant response returns ErrSchemaViolation.
func (p *GeminiProvider) Extract(ctx context.Context, req *Request) (*Record, error) {
	model := p.client.GenerativeModel(p.model)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt(req))}}
	model.SetTemperature(0)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = geminiResponseSchema()

	resp, err := model.GenerateContent(ctx, genai.Text(userPrompt(req)))
	if err != nil {
		return nil, fmt.Errorf("gemini extraction call failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("%w: empty Gemini response", ErrSchemaViolation)
	}

	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return nil, fmt.Errorf("%w: non-text Gemini response part", ErrSchemaViolation)
	}

	var raw schemaRecord
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaViolation, err)
	}
	return raw.toRecord(), nil
}

// geminiResponseSchema mirrors extractionSchemaProperties() in genai's
// native Schema type.
func geminiResponseSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"status":             {Type: genai.TypeString, Enum: []string{"Present", "Partial", "Absent", "NA"}},
			"value":              {Type: genai.TypeNumber},
			"unit":               {Type: genai.TypeString},
			"year":               {Type: genai.TypeInteger},
			"baseline_year":      {Type: genai.TypeInteger},
			"baseline_value":     {Type: genai.TypeNumber},
			"evidence_chunk_ids": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
			"rationale":          {Type: genai.TypeString},
		},
		Required: []string{"status", "evidence_chunk_ids", "rationale"},
	}
}
