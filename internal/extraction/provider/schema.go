package provider

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSchemaViolation is returned when an external provider's response does
// not conform to the extraction output schema of spec §4.8 step 3.
var ErrSchemaViolation = errors.New("extraction response violates output schema")

// schemaRecord is the wire shape of the {status, value?, unit?, year?,
// baseline_year?, baseline_value?, evidence_chunk_ids[], rationale} output
// schema, as both external providers are asked to emit it.
type schemaRecord struct {
	Status           string   `json:"status"`
	Value            *float64 `json:"value,omitempty"`
	Unit             *string  `json:"unit,omitempty"`
	Year             *int     `json:"year,omitempty"`
	BaselineYear     *int     `json:"baseline_year,omitempty"`
	BaselineValue    *float64 `json:"baseline_value,omitempty"`
	EvidenceChunkIDs []string `json:"evidence_chunk_ids"`
	Rationale        string   `json:"rationale"`
}

func (r schemaRecord) toRecord() *Record {
	return &Record{
		Status:           r.Status,
		Value:            r.Value,
		Unit:             r.Unit,
		Year:             r.Year,
		BaselineYear:     r.BaselineYear,
		BaselineValue:    r.BaselineValue,
		EvidenceChunkIDs: r.EvidenceChunkIDs,
		Rationale:        r.Rationale,
	}
}

// extractionSchemaProperties is the JSON-Schema-shaped property map shared
// by every provider that advertises a structured-output tool or response
// schema for the extraction record.
func extractionSchemaProperties() map[string]any {
	return map[string]any{
		"status": map[string]any{
			"type": "string",
			"enum": []string{"Present", "Partial", "Absent", "NA"},
		},
		"value":              map[string]any{"type": "number"},
		"unit":               map[string]any{"type": "string"},
		"year":               map[string]any{"type": "integer"},
		"baseline_year":      map[string]any{"type": "integer"},
		"baseline_value":     map[string]any{"type": "number"},
		"evidence_chunk_ids": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"rationale":          map[string]any{"type": "string"},
	}
}

// systemPrompt composes the fixed instruction prefix: schema, datapoint
// metadata, and the non-negotiable evidence-citation rule.
func systemPrompt(req *Request) string {
	var b strings.Builder
	b.WriteString("You extract one regulatory disclosure datapoint from the provided chunks only. ")
	b.WriteString("Never use outside knowledge. Cite every chunk you relied on in evidence_chunk_ids. ")
	b.WriteString(fmt.Sprintf("Datapoint type: %s. Requires baseline: %t.\n", req.DatapointType, req.RequiresBaseline))
	return b.String()
}

// userPrompt composes the ordered retrieved chunks, each tagged with its
// chunk_id, into the user turn.
func userPrompt(req *Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Datapoint: %s\nDisclosure reference: %s\n\nChunks:\n", req.DatapointTitle, req.DisclosureRef)
	for _, c := range req.Chunks {
		fmt.Fprintf(&b, "[%s] %s\n", c.ChunkID, c.Text)
	}
	return b.String()
}
