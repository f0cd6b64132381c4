// Package validate performs fast structural checks on generated rubrics.
// It never blocks a result: failures surface as errors plus a reduced
// quality score, which callers fold into the response's confidence.
package validate

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/paperlens/paperlens/internal/model"
)

type rule struct {
	name  string
	check func(model.RubricResponse) []string
}

// Validator runs a fixed set of cheap rules against a rubric response.
type Validator struct {
	penalties model.ValidatorPenalties
	rules     []rule
}

// New returns a validator with the given penalty weights.
func New(p model.ValidatorPenalties) *Validator {
	v := &Validator{penalties: p}
	v.rules = []rule{
		{"marks_consistency", v.marksConsistency},
		{"basic_completeness", v.basicCompleteness},
		{"performance_levels", v.performanceLevels},
	}
	return v
}

// Validate runs all rules. It returns whether the response is clean, the
// collected error messages, and a quality score in [0, 1]. Each finding
// subtracts its rule's penalty, so a rubric with several incomplete
// criteria scores lower than one with a single gap.
func (v *Validator) Validate(resp model.RubricResponse) (bool, []string, float64) {
	var errs []string
	score := 1.0

	for _, r := range v.rules {
		ruleErrs, failed := v.runRule(r, resp)
		if failed {
			score -= v.penalties.RuleFailure
			continue
		}
		if len(ruleErrs) > 0 {
			errs = append(errs, ruleErrs...)
			score -= v.penaltyFor(r.name) * float64(len(ruleErrs))
		}
	}

	score = math.Max(0.0, math.Min(1.0, score))
	return len(errs) == 0, errs, score
}

// runRule isolates a panicking rule so one bad response cannot take down
// the pipeline. A panic counts as a rule failure, not a validation error.
func (v *Validator) runRule(r rule, resp model.RubricResponse) (errs []string, failed bool) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Warn("validation rule failed", "rule", r.name, "panic", rec)
			errs = nil
			failed = true
		}
	}()
	return r.check(resp), false
}

func (v *Validator) penaltyFor(name string) float64 {
	switch name {
	case "marks_consistency":
		return v.penalties.MarksMismatch
	case "basic_completeness":
		return v.penalties.Completeness
	case "performance_levels":
		return v.penalties.MissingLevels
	default:
		return v.penalties.RuleFailure
	}
}

func (v *Validator) marksConsistency(resp model.RubricResponse) []string {
	classified := float64(resp.Classification.Marks)
	rubric := resp.Rubric.MarkingScheme.TotalMarks
	if math.Abs(classified-rubric) > 0.1 {
		return []string{fmt.Sprintf("Mark mismatch: %g vs %g", classified, rubric)}
	}
	return nil
}

func (v *Validator) basicCompleteness(resp model.RubricResponse) []string {
	var errs []string
	if len(resp.Rubric.Criteria) == 0 {
		errs = append(errs, "No rubric criteria")
	}
	if len(resp.AnswerKey.ExpectedOutline) == 0 {
		errs = append(errs, "No answer key points")
	}
	return errs
}

func (v *Validator) performanceLevels(resp model.RubricResponse) []string {
	var errs []string
	for _, criterion := range resp.Rubric.Criteria {
		present := make(map[model.PerformanceLevelName]bool, len(criterion.PerformanceLevels))
		for _, l := range criterion.PerformanceLevels {
			present[l.Level] = true
		}
		var missing []string
		for _, name := range model.CanonicalLevels() {
			if !present[name] {
				missing = append(missing, string(name))
			}
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			errs = append(errs, fmt.Sprintf("Missing performance levels in %s: %s",
				criterion.Criterion, strings.Join(missing, ", ")))
		}
	}
	return errs
}
