package llm

import (
	"fmt"
	"strings"

	"github.com/paperlens/paperlens/internal/model"
)

const systemPrompt = "You are an educational assessment expert. You respond only with a single JSON object and no other text."

const maxQuestionChars = 1000

// buildRubricPrompt asks for the classification, rubric, and answer key for
// one item in a single call, naming the exact field layout the repair layer
// expects.
func buildRubricPrompt(item model.Item, prefs model.Preferences) string {
	subject := "General"
	if prefs.SubjectHint != "" {
		subject = prefs.SubjectHint
	}
	grade := "Secondary"
	if prefs.GradeLevel != "" {
		grade = prefs.GradeLevel
	}

	var sb strings.Builder
	sb.WriteString("Create a comprehensive rubric and answer key for this academic question.\n\n")
	sb.WriteString("QUESTION DETAILS:\n")
	sb.WriteString("- Question Type: " + item.Type + "\n")
	sb.WriteString(fmt.Sprintf("- Total Marks: %d\n", item.Marks))
	sb.WriteString("- Subject: " + subject + "\n")
	sb.WriteString("- Grade Level: " + grade + "\n")
	sb.WriteString("- Section: " + item.SectionName + "\n")
	sb.WriteString("- Question Text: " + sanitizeText(item.Text) + "\n\n")

	sb.WriteString("TASK: Return a JSON object with exactly these top-level keys: classification, rubric, answer_key.\n\n")

	sb.WriteString("1. classification:\n")
	sb.WriteString("   - question_type: the type of question (e.g. \"short_answer\", \"essay\", \"multiple_choice\")\n")
	sb.WriteString("   - subject: the academic subject area\n")
	sb.WriteString("   - topic: the specific topic covered\n")
	sb.WriteString("   - difficulty_level: \"basic\", \"intermediate\", or \"advanced\"\n")
	sb.WriteString("   - bloom_level: one of \"knowledge\", \"comprehension\", \"application\", \"analysis\", \"synthesis\", \"evaluation\"\n")
	sb.WriteString("   - cognitive_skills: array of required thinking skills\n")
	sb.WriteString(fmt.Sprintf("   - marks: %d (integer)\n", item.Marks))
	sb.WriteString("   - estimated_time: time needed to answer (e.g. \"10 minutes\")\n\n")

	sb.WriteString("2. rubric:\n")
	sb.WriteString("   - type: one of \"simple_checklist\", \"basic_rubric\", \"detailed_analytical\", \"comprehensive\"\n")
	sb.WriteString("   - standard: \"" + string(prefs.RubricStandard) + "\"\n")
	sb.WriteString(fmt.Sprintf("   - total_marks: %d\n", item.Marks))
	sb.WriteString("   - criteria: array of assessment criteria, each with:\n")
	sb.WriteString("     * criterion: name of the criterion\n")
	sb.WriteString("     * weight: percentage weight (number)\n")
	sb.WriteString("     * marks: marks allocated (number)\n")
	sb.WriteString("     * performance_levels: array of 4 levels named Excellent, Proficient, Developing, Beginning,\n")
	sb.WriteString("       each with level, marks_range, descriptor, indicators\n")
	sb.WriteString("   - marking_scheme: object with total_marks and mark_distribution\n")
	sb.WriteString("   - partial_marking_guidelines: object with minimum_pass_criteria and partial_credit_rules\n\n")

	sb.WriteString("3. answer_key:\n")
	sb.WriteString("   - expected_outline: array of answer points with point, marks, sub_points, keywords\n")
	sb.WriteString("   - key_concepts: array of essential concepts\n")
	sb.WriteString("   - alternative_answers: array of acceptable alternative responses\n")
	sb.WriteString("   - mark_distribution_guide: object mapping answer components to marks\n\n")

	sb.WriteString("Create a practical, teacher-friendly assessment tool that follows educational best practices.\n")

	return sb.String()
}

// sanitizeText flattens and truncates question text before it goes into a
// prompt.
func sanitizeText(text string) string {
	if strings.TrimSpace(text) == "" {
		return "No question text provided"
	}
	safe := strings.Join(strings.Fields(text), " ")
	if len(safe) > maxQuestionChars {
		safe = safe[:maxQuestionChars] + "..."
	}
	return safe
}
