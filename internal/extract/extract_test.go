package extract

import (
	"errors"
	"testing"

	"github.com/paperlens/paperlens/internal/model"
)

func sampleTree() model.ExamStructure {
	return model.ExamStructure{
		Sections: []model.Section{
			{
				Name:        "Section A",
				Instruction: "Answer all questions",
				TotalMarks:  20,
				Questions: []model.Question{
					{
						Number:  "1",
						Type:    "short_answer",
						Content: model.QuestionContent{Text: "Define photosynthesis."},
						Marks:   5,
					},
					{
						Number:  "2",
						Type:    "long_answer",
						Content: model.QuestionContent{Text: "Explain the water cycle."},
						Marks:   10,
						Subquestions: []model.SubQuestion{
							{Label: "a", Type: "short_answer", Content: model.QuestionContent{Text: "Define evaporation."}, Marks: 3},
							{Label: "b", Type: "short_answer", Content: model.QuestionContent{Text: "Define condensation."}, Marks: 2},
						},
					},
				},
			},
			{
				Name: "Section B",
				Questions: []model.Question{
					{Number: "3", Type: "essay", Content: model.QuestionContent{Text: "Discuss climate change."}, Marks: 15},
				},
			},
		},
	}
}

func TestItemsOrder(t *testing.T) {
	jobs, err := Items(sampleTree())
	if err != nil {
		t.Fatalf("Items: %v", err)
	}

	wantNumbers := []string{"1", "2", "2a", "2b", "3"}
	if len(jobs) != len(wantNumbers) {
		t.Fatalf("expected %d jobs, got %d", len(wantNumbers), len(jobs))
	}
	for i, want := range wantNumbers {
		if jobs[i].Item.Number != want {
			t.Errorf("job %d: expected number %q, got %q", i, want, jobs[i].Item.Number)
		}
		if jobs[i].Item.Position != i {
			t.Errorf("job %d: expected position %d, got %d", i, i, jobs[i].Item.Position)
		}
	}

	// Subquestions carry their parent and label, and the section context.
	sub := jobs[2].Item
	if !sub.IsSubquestion {
		t.Error("expected 2a to be a subquestion")
	}
	if sub.ParentNumber != "2" || sub.SubLabel != "a" {
		t.Errorf("unexpected parent/label: %q/%q", sub.ParentNumber, sub.SubLabel)
	}
	if jobs[2].Section.Name != "Section A" {
		t.Errorf("expected section A context, got %q", jobs[2].Section.Name)
	}
	if jobs[4].Section.Name != "Section B" {
		t.Errorf("expected section B context, got %q", jobs[4].Section.Name)
	}
}

func TestItemsMissingSections(t *testing.T) {
	_, err := Items(model.ExamStructure{})
	if !errors.Is(err, ErrNoSections) {
		t.Fatalf("expected ErrNoSections, got %v", err)
	}

	// An empty but present section list is not an error.
	jobs, err := Items(model.ExamStructure{Sections: []model.Section{}})
	if err != nil {
		t.Fatalf("Items with empty sections: %v", err)
	}
	if len(jobs) != 0 {
		t.Errorf("expected 0 jobs, got %d", len(jobs))
	}
}

func TestItemsDefaults(t *testing.T) {
	tree := model.ExamStructure{
		Sections: []model.Section{
			{Questions: []model.Question{{Content: model.QuestionContent{Text: "x"}, Marks: 1}}},
		},
	}
	jobs, err := Items(tree)
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	if jobs[0].Section.Name != "Unknown Section" {
		t.Errorf("expected default section name, got %q", jobs[0].Section.Name)
	}
	if jobs[0].Item.Number != "Unknown" {
		t.Errorf("expected default number, got %q", jobs[0].Item.Number)
	}
	if jobs[0].Item.Type != "unknown" {
		t.Errorf("expected default type, got %q", jobs[0].Item.Type)
	}
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name string
		item model.Item
		keep bool
	}{
		{"valid", model.Item{Number: "1", Text: "What is Go?", Marks: 5}, true},
		{"empty text", model.Item{Number: "2", Text: "", Marks: 5}, false},
		{"whitespace text", model.Item{Number: "3", Text: "  \n\t ", Marks: 5}, false},
		{"zero marks", model.Item{Number: "4", Text: "Unmarked question", Marks: 0}, false},
		{"negative marks", model.Item{Number: "5", Text: "Bad marks", Marks: -1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter([]Job{{Item: tt.item}})
			if kept := len(got) == 1; kept != tt.keep {
				t.Errorf("Filter kept=%v, want %v", kept, tt.keep)
			}
		})
	}
}

func TestFilterPreservesOrder(t *testing.T) {
	jobs := []Job{
		{Item: model.Item{Number: "1", Text: "a", Marks: 1}},
		{Item: model.Item{Number: "2", Text: "", Marks: 1}},
		{Item: model.Item{Number: "3", Text: "c", Marks: 1}},
	}
	got := Filter(jobs)
	if len(got) != 2 || got[0].Item.Number != "1" || got[1].Item.Number != "3" {
		t.Errorf("unexpected filtered jobs: %+v", got)
	}
}
