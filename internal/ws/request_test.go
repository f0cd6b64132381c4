package ws

import (
	"errors"
	"strings"
	"testing"

	"github.com/paperlens/paperlens/internal/model"
)

func TestParseRequestInvalidJSON(t *testing.T) {
	_, err := ParseRequest([]byte("this is not json"))
	if !errors.Is(err, ErrInvalidJSON) {
		t.Fatalf("expected ErrInvalidJSON, got %v", err)
	}
}

func TestParseRequestMissingFields(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty object", `{}`, "enhanced_api_response"},
		{"missing preferences", `{"enhanced_api_response": {"sections": []}}`, "user_preferences"},
		{"missing tree", `{"user_preferences": {}}`, "enhanced_api_response"},
		{"tree wrong type", `{"enhanced_api_response": "x", "user_preferences": {}}`, "enhanced_api_response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRequest([]byte(tt.body))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if errors.Is(err, ErrInvalidJSON) {
				t.Fatalf("schema violation misreported as invalid JSON: %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error naming %q, got %q", tt.want, err)
			}
		})
	}
}

func TestParseRequestAppliesPreferenceDefaults(t *testing.T) {
	body := `{
		"enhanced_api_response": {"sections": []},
		"user_preferences": {"subject_hint": "Physics"}
	}`
	req, err := ParseRequest([]byte(body))
	if err != nil {
		t.Fatalf("ParseRequest: %v", err)
	}
	if req.UserPreferences.SubjectHint != "Physics" {
		t.Errorf("subject hint lost: %q", req.UserPreferences.SubjectHint)
	}
	if req.UserPreferences.QualityMode != model.QualityHigh {
		t.Errorf("expected default quality mode, got %q", req.UserPreferences.QualityMode)
	}
	if req.UserPreferences.RubricStandard != model.StandardBloom {
		t.Errorf("expected default rubric standard, got %q", req.UserPreferences.RubricStandard)
	}
}

func TestParseRequestFull(t *testing.T) {
	body := `{
		"enhanced_api_response": {
			"sections": [
				{"name": "Section A", "questions": [
					{"number": "1", "type": "essay", "content": {"text": "Discuss."}, "marks": 10}
				]}
			]
		},
		"user_preferences": {"quality_mode": "fast", "rubric_standard": "basic"}
	}`
	req, err := ParseRequest([]byte(body))
	if err != nil {
		t.Fatalf("ParseRequest: %v", err)
	}
	if len(req.EnhancedAPIResponse.Sections) != 1 {
		t.Fatalf("expected 1 section, got %d", len(req.EnhancedAPIResponse.Sections))
	}
	if req.EnhancedAPIResponse.Sections[0].Questions[0].Number != "1" {
		t.Errorf("unexpected question: %+v", req.EnhancedAPIResponse.Sections[0].Questions[0])
	}
	if req.UserPreferences.QualityMode != model.QualityFast {
		t.Errorf("expected fast mode, got %q", req.UserPreferences.QualityMode)
	}
}
