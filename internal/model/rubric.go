package model

import "time"

// BloomLevel is the cognitive-taxonomy classification of a question.
// Values are always lowercase canonical tokens.
type BloomLevel string

const (
	BloomKnowledge     BloomLevel = "knowledge"
	BloomComprehension BloomLevel = "comprehension"
	BloomApplication   BloomLevel = "application"
	BloomAnalysis      BloomLevel = "analysis"
	BloomSynthesis     BloomLevel = "synthesis"
	BloomEvaluation    BloomLevel = "evaluation"
)

// DifficultyLevel is the coarse difficulty classification, lowercase.
type DifficultyLevel string

const (
	DifficultyBasic        DifficultyLevel = "basic"
	DifficultyIntermediate DifficultyLevel = "intermediate"
	DifficultyAdvanced     DifficultyLevel = "advanced"
)

// RubricType classifies the shape of a generated rubric.
type RubricType string

const (
	RubricSimpleChecklist    RubricType = "simple_checklist"
	RubricBasic              RubricType = "basic_rubric"
	RubricDetailedAnalytical RubricType = "detailed_analytical"
	RubricComprehensive      RubricType = "comprehensive"
)

// PerformanceLevelName is one of the four canonical performance tiers.
type PerformanceLevelName string

const (
	LevelExcellent  PerformanceLevelName = "Excellent"
	LevelProficient PerformanceLevelName = "Proficient"
	LevelDeveloping PerformanceLevelName = "Developing"
	LevelBeginning  PerformanceLevelName = "Beginning"
)

// CanonicalLevels lists the four required performance levels in rank order.
// Every criterion of every emitted rubric carries exactly these levels.
func CanonicalLevels() []PerformanceLevelName {
	return []PerformanceLevelName{LevelExcellent, LevelProficient, LevelDeveloping, LevelBeginning}
}

// ProcessingStatus is the per-item pipeline outcome.
type ProcessingStatus string

const (
	StatusCompleted ProcessingStatus = "completed"
	StatusFailed    ProcessingStatus = "failed"
	StatusPartial   ProcessingStatus = "partial"
)

// ValidationStatus is the quality-check outcome carried in quality metrics.
type ValidationStatus string

const (
	ValidationPassed  ValidationStatus = "passed"
	ValidationFailed  ValidationStatus = "failed"
	ValidationWarning ValidationStatus = "warning"
)

// Classification is the model-derived categorization of one item.
type Classification struct {
	QuestionType    string          `json:"question_type"`
	Subject         string          `json:"subject"`
	Topic           string          `json:"topic"`
	DifficultyLevel DifficultyLevel `json:"difficulty_level"`
	BloomLevel      BloomLevel      `json:"bloom_level"`
	CognitiveSkills []string        `json:"cognitive_skills"`
	Marks           int             `json:"marks"`
	EstimatedTime   string          `json:"estimated_time"`
}

// PerformanceLevel describes one tier of a criterion.
type PerformanceLevel struct {
	Level      PerformanceLevelName `json:"level"`
	MarksRange string               `json:"marks_range"`
	Descriptor string               `json:"descriptor"`
	Indicators []string             `json:"indicators"`
}

// Criterion is one weighted assessment dimension of a rubric.
type Criterion struct {
	Criterion         string             `json:"criterion"`
	Weight            float64            `json:"weight"`
	Marks             float64            `json:"marks"`
	PerformanceLevels []PerformanceLevel `json:"performance_levels"`
}

// MarkingScheme maps answer components to mark values. MarkDistribution is
// always a mapping internally; the wire shape may also be a list of
// {component, marks} pairs, normalized on ingest.
type MarkingScheme struct {
	TotalMarks       float64            `json:"total_marks"`
	MarkDistribution map[string]float64 `json:"mark_distribution"`
}

// PartialMarkingGuidelines describe partial-credit policy.
type PartialMarkingGuidelines struct {
	MinimumPassCriteria string   `json:"minimum_pass_criteria"`
	PartialCreditRules  []string `json:"partial_credit_rules"`
}

// Rubric is the structured grading scheme for one item.
type Rubric struct {
	Type                     RubricType               `json:"type"`
	Standard                 string                   `json:"standard"`
	Criteria                 []Criterion              `json:"criteria"`
	MarkingScheme            MarkingScheme            `json:"marking_scheme"`
	PartialMarkingGuidelines PartialMarkingGuidelines `json:"partial_marking_guidelines"`
}

// AnswerPoint is one expected element of a model answer.
type AnswerPoint struct {
	Point     string   `json:"point"`
	Marks     float64  `json:"marks"`
	SubPoints []string `json:"sub_points"`
	Keywords  []string `json:"keywords"`
}

// AnswerKey holds the expected answer outline and marking guidance.
type AnswerKey struct {
	ExpectedOutline       []AnswerPoint      `json:"expected_outline"`
	KeyConcepts           []string           `json:"key_concepts"`
	AlternativeAnswers    []string           `json:"alternative_answers"`
	MarkDistributionGuide map[string]float64 `json:"mark_distribution_guide"`
}

// TimeAllocation breaks evaluation effort into three durations.
type TimeAllocation struct {
	ReadingQuestion string `json:"reading_question"`
	EvaluationTime  string `json:"evaluation_time"`
	FeedbackWriting string `json:"feedback_writing"`
}

// EvaluationGuidelines are derived locally from the classification, without
// a model call.
type EvaluationGuidelines struct {
	CommonMistakes []string       `json:"common_mistakes"`
	EvaluationTips []string       `json:"evaluation_tips"`
	TimeAllocation TimeAllocation `json:"time_allocation"`
	RedFlags       []string       `json:"red_flags"`
}

// QualityMetrics summarize confidence in one generated rubric.
type QualityMetrics struct {
	RubricCompleteness int              `json:"rubric_completeness"`
	StandardCompliance string           `json:"standard_compliance"`
	ValidationStatus   ValidationStatus `json:"validation_status"`
	ProcessingTime     float64          `json:"processing_time"`
	ConfidenceScore    float64          `json:"confidence_score"`
}

// SectionMetadata echoes the section context into the result.
type SectionMetadata struct {
	SectionName           string `json:"section_name"`
	SectionInstruction    string `json:"section_instruction,omitempty"`
	SectionMarks          int    `json:"section_marks,omitempty"`
	SectionTimeAllocation string `json:"section_time_allocation,omitempty"`
}

// QuestionMetadata identifies the item a result belongs to.
type QuestionMetadata struct {
	QuestionNumber   string `json:"question_number"`
	QuestionID       string `json:"question_id"`
	IsOptional       bool   `json:"is_optional"`
	OptionalGroup    string `json:"optional_group,omitempty"`
	SubquestionLabel string `json:"subquestion_label,omitempty"`
}

// RubricResponse is the complete per-item result. It is created once per
// item by a worker, emitted once over the stream, and never mutated after.
type RubricResponse struct {
	SectionMetadata      SectionMetadata      `json:"section_metadata"`
	QuestionMetadata     QuestionMetadata     `json:"question_metadata"`
	Classification       Classification       `json:"classification"`
	Rubric               Rubric               `json:"rubric"`
	AnswerKey            AnswerKey            `json:"answer_key"`
	EvaluationGuidelines EvaluationGuidelines `json:"evaluation_guidelines"`
	QualityMetrics       QualityMetrics       `json:"quality_metrics"`
	ProcessingStatus     ProcessingStatus     `json:"processing_status"`
	Timestamp            time.Time            `json:"timestamp"`
}

// Summary aggregates one generation run for the final_summary message.
type Summary struct {
	TotalQuestionsProcessed int            `json:"total_questions_processed"`
	SuccessfulGenerations   int            `json:"successful_generations"`
	FailedGenerations       int            `json:"failed_generations"`
	TotalProcessingTime     float64        `json:"total_processing_time"`
	AverageTimePerQuestion  float64        `json:"average_time_per_question"`
	QualityDistribution     map[string]int `json:"quality_distribution"`
}

// QualityBuckets counts results per confidence bucket. The bucket counts
// always sum to len(results).
func QualityBuckets(results []RubricResponse, t QualityThresholds) map[string]int {
	dist := map[string]int{"excellent": 0, "good": 0, "fair": 0, "poor": 0}
	for _, r := range results {
		c := r.QualityMetrics.ConfidenceScore
		switch {
		case c >= t.Excellent:
			dist["excellent"]++
		case c >= t.Good:
			dist["good"]++
		case c >= t.Fair:
			dist["fair"]++
		default:
			dist["poor"]++
		}
	}
	return dist
}

// Summarize builds the run summary from the collected results.
func Summarize(results []RubricResponse, total time.Duration, t QualityThresholds) Summary {
	succeeded := 0
	for _, r := range results {
		if r.ProcessingStatus == StatusCompleted {
			succeeded++
		}
	}
	avg := 0.0
	if len(results) > 0 {
		avg = total.Seconds() / float64(len(results))
	}
	return Summary{
		TotalQuestionsProcessed: len(results),
		SuccessfulGenerations:   succeeded,
		FailedGenerations:       len(results) - succeeded,
		TotalProcessingTime:     total.Seconds(),
		AverageTimePerQuestion:  avg,
		QualityDistribution:     QualityBuckets(results, t),
	}
}
