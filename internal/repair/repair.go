// Package repair normalizes raw model output into strict internal records.
// It is deliberately total: every exported function produces a complete,
// well-formed RubricResponse no matter how malformed its input is. Items
// never fail past this layer; they degrade to manual-review placeholders.
package repair

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/paperlens/paperlens/internal/model"
)

// Response assembles a complete RubricResponse from a raw model result.
// Missing or malformed fields get deterministic defaults derived from the
// item; nothing here can fail.
func Response(item model.Item, sec model.SectionContext, raw *model.RawRubric, prefs model.Preferences, elapsed time.Duration) model.RubricResponse {
	if raw == nil {
		raw = &model.RawRubric{}
	}

	classification := buildClassification(raw.Classification, item)
	rubric := buildRubric(raw.Rubric, item, prefs)
	answerKey := buildAnswerKey(raw.AnswerKey, item)

	return model.RubricResponse{
		SectionMetadata:      sectionMetadata(sec),
		QuestionMetadata:     questionMetadata(item),
		Classification:       classification,
		Rubric:               rubric,
		AnswerKey:            answerKey,
		EvaluationGuidelines: Guidelines(classification),
		QualityMetrics: model.QualityMetrics{
			RubricCompleteness: 100,
			StandardCompliance: string(prefs.RubricStandard),
			ValidationStatus:   model.ValidationPassed,
			ProcessingTime:     elapsed.Seconds(),
			ConfidenceScore:    0.95,
		},
		ProcessingStatus: model.StatusCompleted,
		Timestamp:        time.Now(),
	}
}

// Failed builds the complete manual-review response emitted when an item's
// model call (or anything downstream) gave up.
func Failed(item model.Item, sec model.SectionContext, reason string, elapsed time.Duration) model.RubricResponse {
	slog.Error("emitting failed rubric response", "number", item.Number, "reason", reason)
	marks := float64(item.Marks)

	classification := model.Classification{
		QuestionType:    normalizeType(item.Type),
		Subject:         "Unknown",
		Topic:           "Unknown",
		DifficultyLevel: model.DifficultyBasic,
		BloomLevel:      model.BloomKnowledge,
		CognitiveSkills: []string{"recall"},
		Marks:           item.Marks,
		EstimatedTime:   "Unknown",
	}

	var levels []model.PerformanceLevel
	for _, name := range model.CanonicalLevels() {
		levels = append(levels, model.PerformanceLevel{
			Level:      name,
			MarksRange: defaultMarksRange(name),
			Descriptor: "Processing failed - requires manual evaluation",
			Indicators: []string{"Review question manually", "Apply appropriate rubric"},
		})
	}

	return model.RubricResponse{
		SectionMetadata:  sectionMetadata(sec),
		QuestionMetadata: questionMetadata(item),
		Classification:   classification,
		Rubric: model.Rubric{
			Type:     model.RubricSimpleChecklist,
			Standard: string(model.StandardBasic),
			Criteria: []model.Criterion{{
				Criterion:         "Manual Evaluation Required",
				Weight:            100.0,
				Marks:             marks,
				PerformanceLevels: levels,
			}},
			MarkingScheme: model.MarkingScheme{
				TotalMarks:       marks,
				MarkDistribution: map[string]float64{"manual": marks},
			},
			PartialMarkingGuidelines: model.PartialMarkingGuidelines{
				MinimumPassCriteria: "Manual evaluation required",
				PartialCreditRules:  []string{"Evaluate manually due to processing error"},
			},
		},
		AnswerKey: model.AnswerKey{
			ExpectedOutline: []model.AnswerPoint{{
				Point:     "Manual evaluation required",
				Marks:     marks,
				SubPoints: []string{"Processing failed", "Requires teacher review"},
				Keywords:  []string{"manual", "evaluation"},
			}},
			KeyConcepts:           []string{"Manual evaluation required"},
			AlternativeAnswers:    []string{},
			MarkDistributionGuide: map[string]float64{"manual": marks},
		},
		EvaluationGuidelines: model.EvaluationGuidelines{
			CommonMistakes: []string{"Processing error occurred"},
			EvaluationTips: []string{"Manual evaluation required", "Review question carefully"},
			TimeAllocation: model.TimeAllocation{
				ReadingQuestion: "1 minute",
				EvaluationTime:  "Manual",
				FeedbackWriting: "1 minute",
			},
			RedFlags: []string{"Automated processing failed"},
		},
		QualityMetrics: model.QualityMetrics{
			RubricCompleteness: 0,
			StandardCompliance: "error",
			ValidationStatus:   model.ValidationFailed,
			ProcessingTime:     elapsed.Seconds(),
			ConfidenceScore:    0.0,
		},
		ProcessingStatus: model.StatusFailed,
		Timestamp:        time.Now(),
	}
}

func buildClassification(raw map[string]any, item model.Item) model.Classification {
	return model.Classification{
		QuestionType:    normalizeType(str(raw, "question_type", item.Type)),
		Subject:         str(raw, "subject", "Unknown"),
		Topic:           str(raw, "topic", "Unknown"),
		DifficultyLevel: normalizeDifficulty(str(raw, "difficulty_level", "basic")),
		BloomLevel:      normalizeBloom(str(raw, "bloom_level", "knowledge")),
		CognitiveSkills: stringList(raw["cognitive_skills"], []string{"recall"}),
		Marks:           integer(raw, "marks", item.Marks),
		EstimatedTime:   str(raw, "estimated_time", "5 minutes"),
	}
}

func buildRubric(raw map[string]any, item model.Item, prefs model.Preferences) model.Rubric {
	if raw == nil {
		return defaultRubric(item, prefs)
	}
	marks := float64(item.Marks)

	scheme := mapAny(raw["marking_scheme"])
	totalMarks := num(scheme, "total_marks", num(raw, "total_marks", marks))
	distribution := toMarkDistribution(scheme["mark_distribution"], map[string]float64{"total": marks})

	rawCriteria := sliceAny(raw["criteria"])
	if len(rawCriteria) == 0 {
		rawCriteria = []any{map[string]any{
			"criterion": "Answer Quality",
			"weight":    100.0,
			"marks":     marks,
		}}
	}
	n := float64(len(rawCriteria))
	criteria := make([]model.Criterion, 0, len(rawCriteria))
	for _, rc := range rawCriteria {
		cm := mapAny(rc)
		criteria = append(criteria, model.Criterion{
			Criterion:         str(cm, "criterion", "Assessment Criterion"),
			Weight:            num(cm, "weight", 100.0/n),
			Marks:             num(cm, "marks", marks/n),
			PerformanceLevels: buildLevels(cm["performance_levels"]),
		})
	}

	guidelines := mapAny(raw["partial_marking_guidelines"])

	return model.Rubric{
		Type:     normalizeRubricType(str(raw, "type", "basic_rubric")),
		Standard: str(raw, "standard", string(prefs.RubricStandard)),
		Criteria: criteria,
		MarkingScheme: model.MarkingScheme{
			TotalMarks:       totalMarks,
			MarkDistribution: distribution,
		},
		PartialMarkingGuidelines: model.PartialMarkingGuidelines{
			MinimumPassCriteria: str(guidelines, "minimum_pass_criteria", "Must attempt to answer the question"),
			PartialCreditRules:  stringList(guidelines["partial_credit_rules"], []string{"Partial credit for incomplete but correct information"}),
		},
	}
}

// buildLevels normalizes a raw performance-level list and guarantees that
// all four canonical levels are present, synthesizing any gap.
func buildLevels(v any) []model.PerformanceLevel {
	rawLevels := sliceAny(v)

	var levels []model.PerformanceLevel
	if len(rawLevels) == 0 {
		levels = defaultLevels()
	} else {
		for _, rl := range rawLevels {
			lm := mapAny(rl)
			levels = append(levels, model.PerformanceLevel{
				Level:      normalizeLevelName(str(lm, "level", "Proficient")),
				MarksRange: str(lm, "marks_range", "0-100%"),
				Descriptor: str(lm, "descriptor", "Performance descriptor"),
				Indicators: stringList(lm["indicators"], []string{"Performance indicator"}),
			})
		}
	}

	present := make(map[model.PerformanceLevelName]bool, len(levels))
	for _, l := range levels {
		present[l.Level] = true
	}
	for _, name := range model.CanonicalLevels() {
		if !present[name] {
			levels = append(levels, model.PerformanceLevel{
				Level:      name,
				MarksRange: "0-100%",
				Descriptor: fmt.Sprintf("%s performance level", name),
				Indicators: []string{fmt.Sprintf("%s level indicators", name)},
			})
		}
	}
	return levels
}

func buildAnswerKey(raw map[string]any, item model.Item) model.AnswerKey {
	marks := float64(item.Marks)
	if raw == nil {
		return defaultAnswerKey(item)
	}

	rawOutline := sliceAny(raw["expected_outline"])
	var outline []model.AnswerPoint
	if len(rawOutline) == 0 {
		outline = []model.AnswerPoint{{
			Point:     "Key answer point (requires manual review)",
			Marks:     marks,
			SubPoints: []string{},
			Keywords:  []string{"manual", "review"},
		}}
	} else {
		for _, rp := range rawOutline {
			pm := mapAny(rp)
			outline = append(outline, model.AnswerPoint{
				Point:     str(pm, "point", "Answer point"),
				Marks:     num(pm, "marks", 0),
				SubPoints: stringList(pm["sub_points"], []string{}),
				Keywords:  stringList(pm["keywords"], []string{}),
			})
		}
	}

	return model.AnswerKey{
		ExpectedOutline:       outline,
		KeyConcepts:           stringList(raw["key_concepts"], []string{"Key concept requires manual review"}),
		AlternativeAnswers:    stringList(raw["alternative_answers"], []string{}),
		MarkDistributionGuide: toMarkDistribution(raw["mark_distribution_guide"], map[string]float64{"total": marks}),
	}
}

func defaultRubric(item model.Item, prefs model.Preferences) model.Rubric {
	marks := float64(item.Marks)
	rubricType := model.RubricBasic
	if item.Marks > 5 {
		rubricType = model.RubricDetailedAnalytical
	}
	return model.Rubric{
		Type:     rubricType,
		Standard: string(prefs.RubricStandard),
		Criteria: []model.Criterion{{
			Criterion:         "Answer Quality",
			Weight:            100.0,
			Marks:             marks,
			PerformanceLevels: defaultLevels(),
		}},
		MarkingScheme: model.MarkingScheme{
			TotalMarks:       marks,
			MarkDistribution: map[string]float64{"answer_quality": marks},
		},
		PartialMarkingGuidelines: model.PartialMarkingGuidelines{
			MinimumPassCriteria: "Must attempt to answer the question",
			PartialCreditRules: []string{
				"Partial credit for incomplete but correct information",
				"Credit for showing working/reasoning",
			},
		},
	}
}

func defaultAnswerKey(item model.Item) model.AnswerKey {
	marks := float64(item.Marks)
	return model.AnswerKey{
		ExpectedOutline: []model.AnswerPoint{{
			Point:     "Key answer point (manual evaluation required)",
			Marks:     marks,
			SubPoints: []string{"Requires manual review by teacher"},
			Keywords:  []string{"manual", "evaluation", "required"},
		}},
		KeyConcepts:           []string{"Manual evaluation required due to processing error"},
		AlternativeAnswers:    []string{},
		MarkDistributionGuide: map[string]float64{"manual_evaluation": marks},
	}
}

func defaultLevels() []model.PerformanceLevel {
	return []model.PerformanceLevel{
		{
			Level:      model.LevelExcellent,
			MarksRange: "90-100%",
			Descriptor: "Outstanding performance",
			Indicators: []string{"Exceeds expectations", "Complete understanding"},
		},
		{
			Level:      model.LevelProficient,
			MarksRange: "70-89%",
			Descriptor: "Good performance",
			Indicators: []string{"Meets expectations", "Good understanding"},
		},
		{
			Level:      model.LevelDeveloping,
			MarksRange: "50-69%",
			Descriptor: "Satisfactory performance",
			Indicators: []string{"Partially meets expectations", "Basic understanding"},
		},
		{
			Level:      model.LevelBeginning,
			MarksRange: "0-49%",
			Descriptor: "Needs improvement",
			Indicators: []string{"Below expectations", "Limited understanding"},
		},
	}
}

func defaultMarksRange(name model.PerformanceLevelName) string {
	switch name {
	case model.LevelExcellent:
		return "90-100%"
	case model.LevelProficient:
		return "70-89%"
	case model.LevelDeveloping:
		return "50-69%"
	default:
		return "0-49%"
	}
}

func sectionMetadata(sec model.SectionContext) model.SectionMetadata {
	name := sec.Name
	if name == "" {
		name = "Unknown Section"
	}
	return model.SectionMetadata{
		SectionName:           name,
		SectionInstruction:    sec.Instruction,
		SectionMarks:          sec.TotalMarks,
		SectionTimeAllocation: sec.TimeAllocation,
	}
}

func questionMetadata(item model.Item) model.QuestionMetadata {
	number := item.Number
	if number == "" {
		number = "Unknown"
	}
	return model.QuestionMetadata{
		QuestionNumber:   number,
		QuestionID:       item.QuestionID(),
		IsOptional:       item.Optional,
		OptionalGroup:    item.OptionalGroup,
		SubquestionLabel: item.SubLabel,
	}
}

func normalizeBloom(s string) model.BloomLevel {
	switch b := model.BloomLevel(strings.ToLower(strings.TrimSpace(s))); b {
	case model.BloomKnowledge, model.BloomComprehension, model.BloomApplication,
		model.BloomAnalysis, model.BloomSynthesis, model.BloomEvaluation:
		return b
	default:
		return model.BloomKnowledge
	}
}

func normalizeDifficulty(s string) model.DifficultyLevel {
	switch d := model.DifficultyLevel(strings.ToLower(strings.TrimSpace(s))); d {
	case model.DifficultyBasic, model.DifficultyIntermediate, model.DifficultyAdvanced:
		return d
	default:
		return model.DifficultyBasic
	}
}

func normalizeRubricType(s string) model.RubricType {
	switch t := model.RubricType(strings.ToLower(strings.TrimSpace(s))); t {
	case model.RubricSimpleChecklist, model.RubricBasic,
		model.RubricDetailedAnalytical, model.RubricComprehensive:
		return t
	default:
		return model.RubricBasic
	}
}

func normalizeLevelName(s string) model.PerformanceLevelName {
	for _, name := range model.CanonicalLevels() {
		if strings.EqualFold(strings.TrimSpace(s), string(name)) {
			return name
		}
	}
	return model.LevelProficient
}

func normalizeType(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	if s == "" {
		return "unknown"
	}
	return s
}

// str reads a non-empty string field, falling back to def.
func str(m map[string]any, key, def string) string {
	if m == nil {
		return def
	}
	if s, ok := m[key].(string); ok && strings.TrimSpace(s) != "" {
		return s
	}
	return def
}

// num reads a numeric field, accepting any JSON number representation.
func num(m map[string]any, key string, def float64) float64 {
	if m == nil {
		return def
	}
	if f, ok := toFloat(m[key]); ok {
		return f
	}
	return def
}

func integer(m map[string]any, key string, def int) int {
	if m == nil {
		return def
	}
	if f, ok := toFloat(m[key]); ok {
		return int(f)
	}
	return def
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

// stringList coerces a raw value into a list of strings: a scalar becomes
// a singleton, non-string elements are stringified, nil or empty input
// yields def.
func stringList(v any, def []string) []string {
	switch val := v.(type) {
	case nil:
		return def
	case string:
		if strings.TrimSpace(val) == "" {
			return def
		}
		return []string{val}
	case []string:
		if len(val) == 0 {
			return def
		}
		return val
	case []any:
		if len(val) == 0 {
			return def
		}
		out := make([]string, 0, len(val))
		for _, e := range val {
			if s, ok := e.(string); ok {
				out = append(out, s)
			} else {
				out = append(out, fmt.Sprint(e))
			}
		}
		return out
	default:
		return []string{fmt.Sprint(val)}
	}
}

func mapAny(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func sliceAny(v any) []any {
	s, _ := v.([]any)
	return s
}

// toMarkDistribution normalizes a mark-distribution value that may arrive
// as either a mapping or a list of {component, marks} pairs. Duplicate
// components resolve last-writer-wins. Anything unrecognizable yields the
// fallback.
func toMarkDistribution(v any, fallback map[string]float64) map[string]float64 {
	switch dist := v.(type) {
	case map[string]any:
		out := make(map[string]float64, len(dist))
		for k, raw := range dist {
			if f, ok := toFloat(raw); ok {
				out[k] = f
			}
		}
		if len(out) > 0 {
			return out
		}
	case map[string]float64:
		if len(dist) > 0 {
			return dist
		}
	case []any:
		out := make(map[string]float64, len(dist))
		for _, e := range dist {
			pair := mapAny(e)
			component, ok := pair["component"].(string)
			if !ok {
				continue
			}
			if f, ok := toFloat(pair["marks"]); ok {
				out[component] = f
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return fallback
}
