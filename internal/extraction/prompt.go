package extraction

import (
	"github.com/verascope/verascope/internal/canonical"
)

// PromptSchemaFields is the fixed output schema field list every composed
// prompt declares, per spec §4.8 step 3.
var PromptSchemaFields = []string{
	"status", "value", "unit", "year", "baseline_year", "baseline_value",
	"evidence_chunk_ids", "rationale",
}

// promptChunk is one retrieved chunk as it appears inside the composed
// prompt: ordered, tagged with its chunk_id.
type promptChunk struct {
	ChunkID string `json:"chunk_id"`
	Text    string `json:"text"`
}

// promptStruct is the exact structure hashed to produce prompt_hash. It
// must contain nothing the provider call itself doesn't also see: datapoint
// metadata, the ordered retrieved chunks, and the output schema.
type promptStruct struct {
	DatapointKey     string        `json:"datapoint_key"`
	DatapointType    string        `json:"datapoint_type"`
	RequiresBaseline bool          `json:"requires_baseline"`
	Chunks           []promptChunk `json:"chunks"`
	SchemaFields     []string      `json:"schema_fields"`
}

// ComposePrompt builds the strict prompt payload for one datapoint
// extraction from its metadata and the ordered retrieved chunks.
func ComposePrompt(datapointKey, datapointType string, requiresBaseline bool, chunkIDs, chunkTexts []string) promptStruct {
	chunks := make([]promptChunk, len(chunkIDs))
	for i := range chunkIDs {
		chunks[i] = promptChunk{ChunkID: chunkIDs[i], Text: chunkTexts[i]}
	}
	return promptStruct{
		DatapointKey:     datapointKey,
		DatapointType:    datapointType,
		RequiresBaseline: requiresBaseline,
		Chunks:           chunks,
		SchemaFields:     PromptSchemaFields,
	}
}

// PromptHash computes prompt_hash = SHA-256(canonical(prompt_struct)).
func PromptHash(p promptStruct) (string, error) {
	return canonical.Checksum(p)
}
