package repair

import (
	"testing"
	"time"

	"github.com/paperlens/paperlens/internal/model"
)

func testItem() model.Item {
	return model.Item{
		Number:      "3",
		Type:        "short_answer",
		Text:        "Define osmosis.",
		Marks:       5,
		SectionName: "Section A",
		Position:    2,
	}
}

func testSection() model.SectionContext {
	return model.SectionContext{Name: "Section A", Instruction: "Answer all", TotalMarks: 20}
}

func testPrefs() model.Preferences {
	p := model.Preferences{}
	p.ApplyDefaults()
	return p
}

func assertCanonicalLevels(t *testing.T, criteria []model.Criterion) {
	t.Helper()
	for _, c := range criteria {
		present := make(map[model.PerformanceLevelName]bool)
		for _, l := range c.PerformanceLevels {
			present[l.Level] = true
		}
		for _, name := range model.CanonicalLevels() {
			if !present[name] {
				t.Errorf("criterion %q missing level %s", c.Criterion, name)
			}
		}
	}
}

func TestResponseEmptyRaw(t *testing.T) {
	resp := Response(testItem(), testSection(), &model.RawRubric{}, testPrefs(), 2*time.Second)

	if resp.ProcessingStatus != model.StatusCompleted {
		t.Errorf("expected completed status, got %s", resp.ProcessingStatus)
	}
	if resp.Classification.Subject != "Unknown" || resp.Classification.Topic != "Unknown" {
		t.Errorf("expected Unknown subject/topic, got %q/%q",
			resp.Classification.Subject, resp.Classification.Topic)
	}
	if resp.Classification.DifficultyLevel != model.DifficultyBasic {
		t.Errorf("expected basic difficulty, got %s", resp.Classification.DifficultyLevel)
	}
	if resp.Classification.BloomLevel != model.BloomKnowledge {
		t.Errorf("expected knowledge bloom level, got %s", resp.Classification.BloomLevel)
	}
	if resp.Classification.Marks != 5 {
		t.Errorf("expected marks carried from item, got %d", resp.Classification.Marks)
	}
	if resp.Classification.EstimatedTime != "5 minutes" {
		t.Errorf("expected default estimated time, got %q", resp.Classification.EstimatedTime)
	}
	if got := resp.Classification.CognitiveSkills; len(got) != 1 || got[0] != "recall" {
		t.Errorf("expected default cognitive skills, got %v", got)
	}
	if resp.QualityMetrics.ConfidenceScore != 0.95 {
		t.Errorf("expected confidence 0.95, got %v", resp.QualityMetrics.ConfidenceScore)
	}
	if resp.QualityMetrics.ProcessingTime != 2.0 {
		t.Errorf("expected processing time 2.0, got %v", resp.QualityMetrics.ProcessingTime)
	}
	assertCanonicalLevels(t, resp.Rubric.Criteria)
}

func TestResponseEmptyCriteria(t *testing.T) {
	raw := &model.RawRubric{
		Rubric: map[string]any{"criteria": []any{}},
	}
	resp := Response(testItem(), testSection(), raw, testPrefs(), time.Second)

	if len(resp.Rubric.Criteria) != 1 {
		t.Fatalf("expected 1 synthesized criterion, got %d", len(resp.Rubric.Criteria))
	}
	c := resp.Rubric.Criteria[0]
	if c.Criterion != "Answer Quality" {
		t.Errorf("expected Answer Quality criterion, got %q", c.Criterion)
	}
	if c.Weight != 100.0 {
		t.Errorf("expected weight 100, got %v", c.Weight)
	}
	if c.Marks != 5.0 {
		t.Errorf("expected criterion marks 5, got %v", c.Marks)
	}
	if resp.Rubric.MarkingScheme.TotalMarks != 5.0 {
		t.Errorf("expected total marks 5, got %v", resp.Rubric.MarkingScheme.TotalMarks)
	}
	assertCanonicalLevels(t, resp.Rubric.Criteria)
}

func TestResponsePreservesGoodData(t *testing.T) {
	raw := &model.RawRubric{
		Classification: map[string]any{
			"question_type":    "Short Answer",
			"subject":          "Biology",
			"topic":            "Cell transport",
			"difficulty_level": "Intermediate",
			"bloom_level":      "Comprehension",
			"cognitive_skills": []any{"explanation", "recall"},
			"marks":            float64(5),
			"estimated_time":   "8 minutes",
		},
		Rubric: map[string]any{
			"type":     "detailed_analytical",
			"standard": "bloom_taxonomy",
			"criteria": []any{
				map[string]any{
					"criterion": "Conceptual Accuracy",
					"weight":    float64(60),
					"marks":     float64(3),
					"performance_levels": []any{
						map[string]any{
							"level":       "Excellent",
							"marks_range": "90-100%",
							"descriptor":  "Precise definition with mechanism",
							"indicators":  []any{"Names solute and solvent movement"},
						},
					},
				},
			},
			"marking_scheme": map[string]any{
				"total_marks":       float64(5),
				"mark_distribution": map[string]any{"definition": float64(3), "example": float64(2)},
			},
		},
		AnswerKey: map[string]any{
			"key_concepts": []any{"diffusion", "semipermeable membrane"},
		},
	}
	resp := Response(testItem(), testSection(), raw, testPrefs(), time.Second)

	if resp.Classification.Subject != "Biology" {
		t.Errorf("subject overwritten: %q", resp.Classification.Subject)
	}
	if resp.Classification.QuestionType != "short_answer" {
		t.Errorf("expected normalized question type, got %q", resp.Classification.QuestionType)
	}
	if resp.Classification.DifficultyLevel != model.DifficultyIntermediate {
		t.Errorf("expected intermediate difficulty, got %s", resp.Classification.DifficultyLevel)
	}
	if resp.Rubric.Type != model.RubricDetailedAnalytical {
		t.Errorf("rubric type overwritten: %s", resp.Rubric.Type)
	}
	if resp.Rubric.Criteria[0].Criterion != "Conceptual Accuracy" {
		t.Errorf("criterion overwritten: %q", resp.Rubric.Criteria[0].Criterion)
	}
	if got := resp.Rubric.MarkingScheme.MarkDistribution["definition"]; got != 3 {
		t.Errorf("mark distribution lost: %v", resp.Rubric.MarkingScheme.MarkDistribution)
	}
	// The single supplied level is kept; the three missing tiers are added.
	assertCanonicalLevels(t, resp.Rubric.Criteria)
	if len(resp.Rubric.Criteria[0].PerformanceLevels) != 4 {
		t.Errorf("expected 4 levels, got %d", len(resp.Rubric.Criteria[0].PerformanceLevels))
	}
	if resp.Rubric.Criteria[0].PerformanceLevels[0].Descriptor != "Precise definition with mechanism" {
		t.Error("supplied level descriptor was not preserved")
	}
}

func TestResponseMarkDistributionAsList(t *testing.T) {
	raw := &model.RawRubric{
		Rubric: map[string]any{
			"marking_scheme": map[string]any{
				"total_marks": float64(5),
				"mark_distribution": []any{
					map[string]any{"component": "definition", "marks": float64(3)},
					map[string]any{"component": "example", "marks": float64(2)},
					map[string]any{"component": "definition", "marks": float64(4)},
				},
			},
		},
	}
	resp := Response(testItem(), testSection(), raw, testPrefs(), time.Second)

	dist := resp.Rubric.MarkingScheme.MarkDistribution
	if dist["definition"] != 4 {
		t.Errorf("expected last-writer-wins on duplicate component, got %v", dist["definition"])
	}
	if dist["example"] != 2 {
		t.Errorf("expected example=2, got %v", dist["example"])
	}
}

func TestResponseScalarCoercions(t *testing.T) {
	raw := &model.RawRubric{
		Classification: map[string]any{
			"cognitive_skills": "recall",
			"marks":            "5",
		},
		AnswerKey: map[string]any{
			"key_concepts": "osmosis",
		},
	}
	resp := Response(testItem(), testSection(), raw, testPrefs(), time.Second)

	if got := resp.Classification.CognitiveSkills; len(got) != 1 || got[0] != "recall" {
		t.Errorf("scalar skill not wrapped: %v", got)
	}
	if resp.Classification.Marks != 5 {
		t.Errorf("string marks not parsed: %d", resp.Classification.Marks)
	}
	if got := resp.AnswerKey.KeyConcepts; len(got) != 1 || got[0] != "osmosis" {
		t.Errorf("scalar concept not wrapped: %v", got)
	}
}

func TestResponseMetadata(t *testing.T) {
	item := model.Item{
		Number:        "2a",
		Type:          "short_answer",
		Text:          "x",
		Marks:         3,
		IsSubquestion: true,
		ParentNumber:  "2",
		SubLabel:      "a",
		Optional:      true,
		OptionalGroup: "either_or_2",
	}
	resp := Response(item, testSection(), &model.RawRubric{}, testPrefs(), time.Second)

	if resp.QuestionMetadata.QuestionID != "q_2a" {
		t.Errorf("expected q_2a, got %q", resp.QuestionMetadata.QuestionID)
	}
	if !resp.QuestionMetadata.IsOptional || resp.QuestionMetadata.OptionalGroup != "either_or_2" {
		t.Errorf("optional metadata lost: %+v", resp.QuestionMetadata)
	}
	if resp.QuestionMetadata.SubquestionLabel != "a" {
		t.Errorf("expected subquestion label a, got %q", resp.QuestionMetadata.SubquestionLabel)
	}
	if resp.SectionMetadata.SectionName != "Section A" {
		t.Errorf("expected section name, got %q", resp.SectionMetadata.SectionName)
	}

	empty := Response(model.Item{Marks: 1, Text: "x"}, model.SectionContext{}, &model.RawRubric{}, testPrefs(), time.Second)
	if empty.SectionMetadata.SectionName != "Unknown Section" {
		t.Errorf("expected Unknown Section default, got %q", empty.SectionMetadata.SectionName)
	}
	if empty.QuestionMetadata.QuestionNumber != "Unknown" {
		t.Errorf("expected Unknown number default, got %q", empty.QuestionMetadata.QuestionNumber)
	}
}

func TestFailed(t *testing.T) {
	resp := Failed(testItem(), testSection(), "model unavailable", 500*time.Millisecond)

	if resp.ProcessingStatus != model.StatusFailed {
		t.Errorf("expected failed status, got %s", resp.ProcessingStatus)
	}
	if resp.QualityMetrics.ConfidenceScore != 0.0 {
		t.Errorf("expected confidence 0, got %v", resp.QualityMetrics.ConfidenceScore)
	}
	if resp.QualityMetrics.RubricCompleteness != 0 {
		t.Errorf("expected completeness 0, got %d", resp.QualityMetrics.RubricCompleteness)
	}
	if resp.QualityMetrics.StandardCompliance != "error" {
		t.Errorf("expected error compliance, got %q", resp.QualityMetrics.StandardCompliance)
	}
	if resp.QualityMetrics.ValidationStatus != model.ValidationFailed {
		t.Errorf("expected failed validation, got %s", resp.QualityMetrics.ValidationStatus)
	}
	if resp.Rubric.Type != model.RubricSimpleChecklist {
		t.Errorf("expected simple_checklist, got %s", resp.Rubric.Type)
	}
	if len(resp.Rubric.Criteria) != 1 || resp.Rubric.Criteria[0].Criterion != "Manual Evaluation Required" {
		t.Errorf("unexpected criteria: %+v", resp.Rubric.Criteria)
	}
	if resp.Rubric.MarkingScheme.TotalMarks != 5.0 {
		t.Errorf("expected total marks from item, got %v", resp.Rubric.MarkingScheme.TotalMarks)
	}
	assertCanonicalLevels(t, resp.Rubric.Criteria)
}

func TestNormalizeType(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Short Answer", "short_answer"},
		{"multiple-choice", "multiple_choice"},
		{"ESSAY", "essay"},
		{"", "unknown"},
	}
	for _, tt := range tests {
		if got := normalizeType(tt.in); got != tt.want {
			t.Errorf("normalizeType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeBloom(t *testing.T) {
	if got := normalizeBloom("Analysis"); got != model.BloomAnalysis {
		t.Errorf("expected analysis, got %s", got)
	}
	if got := normalizeBloom("remembering"); got != model.BloomKnowledge {
		t.Errorf("expected knowledge fallback, got %s", got)
	}
}

func TestToMarkDistribution(t *testing.T) {
	fallback := map[string]float64{"total": 5}

	t.Run("unrecognizable yields fallback", func(t *testing.T) {
		if got := toMarkDistribution("nonsense", fallback); got["total"] != 5 {
			t.Errorf("expected fallback, got %v", got)
		}
		if got := toMarkDistribution(nil, fallback); got["total"] != 5 {
			t.Errorf("expected fallback for nil, got %v", got)
		}
	})

	t.Run("map passes through", func(t *testing.T) {
		got := toMarkDistribution(map[string]any{"a": float64(2), "b": "3"}, fallback)
		if got["a"] != 2 || got["b"] != 3 {
			t.Errorf("unexpected distribution: %v", got)
		}
	})

	t.Run("normalization is idempotent", func(t *testing.T) {
		list := []any{map[string]any{"component": "a", "marks": float64(2)}}
		first := toMarkDistribution(list, fallback)
		second := toMarkDistribution(map[string]float64(first), fallback)
		if second["a"] != 2 {
			t.Errorf("second pass changed result: %v", second)
		}
	})
}
