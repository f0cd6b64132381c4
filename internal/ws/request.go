package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/paperlens/paperlens/internal/model"

	"github.com/xeipuuv/gojsonschema"
)

// ErrInvalidJSON marks an inbound frame that is not JSON at all, as opposed
// to JSON that fails the request schema.
var ErrInvalidJSON = errors.New("invalid JSON")

// GenerationRequest is one rubric-generation request. The exam tree arrives
// pre-extracted from the structure-analysis step.
type GenerationRequest struct {
	EnhancedAPIResponse model.ExamStructure `json:"enhanced_api_response"`
	UserPreferences     model.Preferences   `json:"user_preferences"`
}

var requestSchema = mustCompileSchema(map[string]any{
	"type":     "object",
	"required": []any{"enhanced_api_response", "user_preferences"},
	"properties": map[string]any{
		"enhanced_api_response": map[string]any{"type": "object"},
		"user_preferences": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"subject_hint":    map[string]any{"type": "string"},
				"grade_level":     map[string]any{"type": "string"},
				"quality_mode":    map[string]any{"type": "string"},
				"rubric_standard": map[string]any{"type": "string"},
			},
		},
	},
})

func mustCompileSchema(doc map[string]any) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(doc))
	if err != nil {
		panic(fmt.Sprintf("compile request schema: %v", err))
	}
	return s
}

// ParseRequest validates an inbound frame against the request schema and
// decodes it. Unknown or out-of-range preference values are not rejected
// here; ApplyDefaults resolves them to service defaults.
func ParseRequest(raw []byte) (*GenerationRequest, error) {
	if !json.Valid(raw) {
		return nil, ErrInvalidJSON
	}

	result, err := requestSchema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("validate request: %w", err)
	}
	if !result.Valid() {
		reasons := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			reasons = append(reasons, e.String())
		}
		return nil, errors.New(strings.Join(reasons, "; "))
	}

	var req GenerationRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}
	req.UserPreferences.ApplyDefaults()
	return &req, nil
}
