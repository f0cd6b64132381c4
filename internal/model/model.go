package model

import (
	"strings"
	"time"
)

// QualityMode selects how much effort the model spends per question.
type QualityMode string

const (
	QualityHigh QualityMode = "high"
	QualityFast QualityMode = "fast"
)

// RubricStandard selects the educational standard rubrics follow.
type RubricStandard string

const (
	StandardBloom RubricStandard = "bloom_taxonomy"
	StandardBasic RubricStandard = "basic"
)

// Preferences carries per-request generation hints from the client.
type Preferences struct {
	SubjectHint    string         `json:"subject_hint,omitempty"`
	GradeLevel     string         `json:"grade_level,omitempty"`
	QualityMode    QualityMode    `json:"quality_mode"`
	RubricStandard RubricStandard `json:"rubric_standard"`
}

// ApplyDefaults fills zero-valued preference fields with service defaults.
func (p *Preferences) ApplyDefaults() {
	if p.QualityMode != QualityHigh && p.QualityMode != QualityFast {
		p.QualityMode = QualityHigh
	}
	if p.RubricStandard != StandardBloom && p.RubricStandard != StandardBasic {
		p.RubricStandard = StandardBloom
	}
}

// QuestionContent holds the extractable content of one question.
type QuestionContent struct {
	Text              string   `json:"text"`
	Diagrams          []string `json:"diagrams,omitempty"`
	Tables            []string `json:"tables,omitempty"`
	Formulas          []string `json:"formulas,omitempty"`
	CodeSnippets      []string `json:"code_snippets,omitempty"`
	AdditionalContext string   `json:"additional_context,omitempty"`
}

// SubQuestion is a labelled part of a question, e.g. "(a)".
type SubQuestion struct {
	Label         string          `json:"label"`
	Type          string          `json:"type"`
	Content       QuestionContent `json:"content"`
	Marks         int             `json:"marks"`
	Optional      bool            `json:"optional"`
	OptionalGroup string          `json:"optional_group,omitempty"`
	Options       []string        `json:"options,omitempty"`
}

// Question is one numbered question within a section.
type Question struct {
	Number        string          `json:"number"`
	Type          string          `json:"type"`
	Content       QuestionContent `json:"content"`
	Marks         int             `json:"marks"`
	Optional      bool            `json:"optional"`
	OptionalWith  string          `json:"optional_with,omitempty"`
	Options       []string        `json:"options,omitempty"`
	Passage       string          `json:"passage,omitempty"`
	CaseStudyText string          `json:"case_study_text,omitempty"`
	TimeSuggested string          `json:"time_suggested,omitempty"`
	Subquestions  []SubQuestion   `json:"subquestions,omitempty"`
}

// Section groups questions under a shared instruction.
type Section struct {
	Name           string     `json:"name"`
	Instruction    string     `json:"instruction,omitempty"`
	TotalMarks     int        `json:"total_marks,omitempty"`
	TimeAllocation string     `json:"time_allocation,omitempty"`
	Questions      []Question `json:"questions"`
}

// ExamStructure is the extracted question-paper tree received from the
// structure-extraction service. Sections is nil when the field was absent
// from the payload, which is distinct from an empty list.
type ExamStructure struct {
	Title    string    `json:"title,omitempty"`
	Sections []Section `json:"sections"`
}

// SectionContext is the per-section context attached to each extracted item.
type SectionContext struct {
	Name           string `json:"name"`
	Instruction    string `json:"instruction,omitempty"`
	TotalMarks     int    `json:"total_marks,omitempty"`
	TimeAllocation string `json:"time_allocation,omitempty"`
}

// Item is one gradable unit (a question or subquestion) prepared for rubric
// generation. Items are immutable once extracted and are consumed exactly
// once by the scheduler.
type Item struct {
	Number        string `json:"number"`
	Type          string `json:"type"`
	Text          string `json:"text"`
	Marks         int    `json:"marks"`
	Optional      bool   `json:"optional"`
	OptionalGroup string `json:"optional_group,omitempty"`
	IsSubquestion bool   `json:"is_subquestion"`
	ParentNumber  string `json:"parent_question,omitempty"`
	SubLabel      string `json:"subquestion_label,omitempty"`
	SectionName   string `json:"section_name"`
	Position      int    `json:"position"`
}

// QuestionID returns the deterministic identifier used in question metadata.
func (it Item) QuestionID() string {
	n := strings.TrimSpace(it.Number)
	if n == "" {
		n = "unknown"
	}
	return "q_" + n
}

// RawRubric is the untyped model output for one item: three nested mappings
// in approximately the Classification/Rubric/AnswerKey shape. The repair
// layer is the only consumer; nothing outside it may assume field types.
type RawRubric struct {
	Classification map[string]any
	Rubric         map[string]any
	AnswerKey      map[string]any
}

// ValidatorPenalties are the per-rule score penalties applied by the rubric
// validator. The defaults are hand-tuned constants.
type ValidatorPenalties struct {
	MarksMismatch float64
	Completeness  float64
	MissingLevels float64
	RuleFailure   float64
}

// DefaultValidatorPenalties returns the standard penalty weights.
func DefaultValidatorPenalties() ValidatorPenalties {
	return ValidatorPenalties{
		MarksMismatch: 0.2,
		Completeness:  0.1,
		MissingLevels: 0.1,
		RuleFailure:   0.05,
	}
}

// QualityThresholds bucket confidence scores for the final summary.
type QualityThresholds struct {
	Excellent float64
	Good      float64
	Fair      float64
}

// DefaultQualityThresholds returns the standard bucket boundaries.
func DefaultQualityThresholds() QualityThresholds {
	return QualityThresholds{Excellent: 0.9, Good: 0.7, Fair: 0.5}
}

// PipelineConfig holds runtime pipeline parameters set via CLI flags.
type PipelineConfig struct {
	WorkerCount    int           // logical workers; processing stays sequential
	RequestDelay   time.Duration // pause between model calls
	StreamDelay    time.Duration // pacing pause between streamed results
	IdleTimeout    time.Duration // session closes after this much inbound silence
	MaxAttempts    int           // model call attempts before giving up
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
	Penalties      ValidatorPenalties
	Thresholds     QualityThresholds
}

// DefaultPipelineConfig returns the standard pipeline parameters.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		WorkerCount:    1,
		RequestDelay:   2 * time.Second,
		StreamDelay:    50 * time.Millisecond,
		IdleTimeout:    5 * time.Minute,
		MaxAttempts:    3,
		RetryBaseDelay: 2 * time.Second,
		RetryMaxDelay:  10 * time.Second,
		Penalties:      DefaultValidatorPenalties(),
		Thresholds:     DefaultQualityThresholds(),
	}
}
