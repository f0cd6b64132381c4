// Package extract flattens an extracted question-paper tree into the
// ordered list of gradable items the rubric pipeline consumes.
package extract

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/paperlens/paperlens/internal/model"
)

// ErrNoSections is returned when the exam tree carries no sections field at
// all. An empty (but present) section list is not an error; it simply
// yields zero items.
var ErrNoSections = errors.New("exam structure has no sections")

// Job pairs one item with the context of the section it came from.
type Job struct {
	Item    model.Item
	Section model.SectionContext
}

// Items walks the tree in document order: for each question the question
// itself is emitted first, followed by its subquestions, before moving on.
// Shape anomalies inside sections are tolerated; only a structurally absent
// tree fails.
func Items(tree model.ExamStructure) ([]Job, error) {
	if tree.Sections == nil {
		return nil, ErrNoSections
	}

	var jobs []Job
	pos := 0
	for _, sec := range tree.Sections {
		ctx := sectionContext(sec)
		for _, q := range sec.Questions {
			jobs = append(jobs, Job{Item: questionItem(q, ctx, pos), Section: ctx})
			pos++
			for _, sub := range q.Subquestions {
				jobs = append(jobs, Job{Item: subquestionItem(sub, q, ctx, pos), Section: ctx})
				pos++
			}
		}
	}
	slog.Info("extracted items from exam structure", "sections", len(tree.Sections), "items", len(jobs))
	return jobs, nil
}

// Filter drops items that cannot be graded: empty or whitespace-only text,
// or a non-positive mark allocation. Each drop is logged; a drop never
// fails the batch.
func Filter(jobs []Job) []Job {
	valid := jobs[:0:0]
	for _, j := range jobs {
		if strings.TrimSpace(j.Item.Text) == "" {
			slog.Warn("skipping item with no content text", "number", j.Item.Number)
			continue
		}
		if j.Item.Marks <= 0 {
			slog.Warn("skipping item with no marks allocated", "number", j.Item.Number)
			continue
		}
		valid = append(valid, j)
	}
	slog.Info("validated items", "valid", len(valid), "total", len(jobs))
	return valid
}

func sectionContext(sec model.Section) model.SectionContext {
	name := sec.Name
	if name == "" {
		name = "Unknown Section"
	}
	return model.SectionContext{
		Name:           name,
		Instruction:    sec.Instruction,
		TotalMarks:     sec.TotalMarks,
		TimeAllocation: sec.TimeAllocation,
	}
}

func questionItem(q model.Question, sec model.SectionContext, pos int) model.Item {
	return model.Item{
		Number:        orUnknown(q.Number),
		Type:          orUnknownType(q.Type),
		Text:          q.Content.Text,
		Marks:         q.Marks,
		Optional:      q.Optional,
		OptionalGroup: q.OptionalWith,
		IsSubquestion: false,
		SectionName:   sec.Name,
		Position:      pos,
	}
}

func subquestionItem(sub model.SubQuestion, parent model.Question, sec model.SectionContext, pos int) model.Item {
	return model.Item{
		Number:        orUnknown(parent.Number) + sub.Label,
		Type:          orUnknownType(sub.Type),
		Text:          sub.Content.Text,
		Marks:         sub.Marks,
		Optional:      sub.Optional,
		OptionalGroup: sub.OptionalGroup,
		IsSubquestion: true,
		ParentNumber:  orUnknown(parent.Number),
		SubLabel:      sub.Label,
		SectionName:   sec.Name,
		Position:      pos,
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

func orUnknownType(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
