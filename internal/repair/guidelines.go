package repair

import (
	"fmt"
	"strings"

	"github.com/paperlens/paperlens/internal/model"
)

// Guidelines derives evaluation guidance from a classification without a
// model call. Subject and taxonomy heuristics pick the most relevant
// entries; lists are capped so teachers get a short, usable set.
func Guidelines(c model.Classification) model.EvaluationGuidelines {
	subject := strings.ToLower(c.Subject)
	bloom := strings.ToLower(string(c.BloomLevel))

	return model.EvaluationGuidelines{
		CommonMistakes: commonMistakes(subject, bloom),
		EvaluationTips: evaluationTips(subject, bloom),
		TimeAllocation: timeAllocation(c.Marks),
		RedFlags:       redFlags(subject),
	}
}

func commonMistakes(subject, bloom string) []string {
	mistakes := []string{
		"Incomplete answer missing key components",
		"Misunderstanding of the question requirements",
		"Poor organization of response",
		"Lack of supporting evidence or examples",
	}

	switch {
	case strings.Contains(subject, "math") || strings.Contains(subject, "science"):
		mistakes = append(mistakes,
			"Calculation errors or wrong formulas",
			"Missing units in final answers",
			"Not showing working steps")
	case strings.Contains(subject, "english") || strings.Contains(subject, "literature"):
		mistakes = append(mistakes,
			"Poor grammar and spelling",
			"Lack of textual evidence",
			"Weak thesis statement")
	case strings.Contains(subject, "history") || strings.Contains(subject, "social"):
		mistakes = append(mistakes,
			"Incorrect dates or facts",
			"Lack of historical context",
			"Bias without acknowledgment")
	}

	if bloom == "analysis" || bloom == "synthesis" || bloom == "evaluation" {
		mistakes = append(mistakes,
			"Superficial analysis without depth",
			"Failure to make connections",
			"Lack of critical thinking")
	}

	return capList(mistakes, 6)
}

func evaluationTips(subject, bloom string) []string {
	tips := []string{
		fmt.Sprintf("Focus on %s level thinking skills", bloom),
		"Check for understanding of key concepts",
		"Look for proper reasoning and explanation",
		"Verify use of appropriate terminology",
	}

	switch {
	case strings.Contains(subject, "math") || strings.Contains(subject, "science"):
		tips = append(tips,
			"Verify calculations and formulas used",
			"Check for correct units and significant figures",
			"Look for logical problem-solving approach")
	case strings.Contains(subject, "english") || strings.Contains(subject, "literature"):
		tips = append(tips,
			"Assess clarity and coherence of writing",
			"Check for proper use of literary devices",
			"Evaluate strength of arguments")
	}

	return capList(tips, 6)
}

func redFlags(subject string) []string {
	flags := []string{
		"Completely off-topic response",
		"No attempt at answering the question",
		"Copied content without understanding",
		"Major factual errors or misconceptions",
	}

	switch {
	case strings.Contains(subject, "math") || strings.Contains(subject, "science"):
		flags = append(flags,
			"Fundamental calculation errors",
			"Wrong scientific principles applied")
	case strings.Contains(subject, "english") || strings.Contains(subject, "literature"):
		flags = append(flags,
			"Plagiarism or copied text",
			"Completely irrelevant literary analysis")
	}

	return capList(flags, 5)
}

// timeAllocation scales with marks, with floors so trivial questions still
// get a sane budget.
func timeAllocation(marks int) model.TimeAllocation {
	return model.TimeAllocation{
		ReadingQuestion: fmt.Sprintf("%d seconds", max(30, marks*10)),
		EvaluationTime:  fmt.Sprintf("%d minutes", max(1, marks/2)),
		FeedbackWriting: fmt.Sprintf("%d seconds", max(30, marks*15)),
	}
}

func capList(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
