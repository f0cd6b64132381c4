package store

import (
	"testing"

	"github.com/paperlens/paperlens/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("create test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleResponse(questionID string, status model.ProcessingStatus) model.RubricResponse {
	return model.RubricResponse{
		QuestionMetadata: model.QuestionMetadata{
			QuestionNumber: questionID,
			QuestionID:     "q_" + questionID,
		},
		Classification: model.Classification{Marks: 5, Subject: "Biology"},
		QualityMetrics: model.QualityMetrics{
			ConfidenceScore:  0.95,
			ValidationStatus: model.ValidationPassed,
		},
		ProcessingStatus: status,
	}
}

func TestRunLifecycle(t *testing.T) {
	s := newTestStore(t)

	if err := s.CreateRun("run-1", "conn-1"); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	if err := s.AddResult("run-1", 0, sampleResponse("1", model.StatusCompleted)); err != nil {
		t.Fatalf("AddResult: %v", err)
	}
	if err := s.AddResult("run-1", 1, sampleResponse("2", model.StatusFailed)); err != nil {
		t.Fatalf("AddResult: %v", err)
	}
	if err := s.FinishRun("run-1", model.Summary{
		TotalQuestionsProcessed: 2,
		SuccessfulGenerations:   1,
		FailedGenerations:       1,
		TotalProcessingTime:     4.2,
	}); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	detail, err := s.GetRun("run-1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if detail == nil {
		t.Fatal("expected run, got nil")
	}
	if detail.Run.TotalQuestions != 2 || detail.Run.Successful != 1 || detail.Run.Failed != 1 {
		t.Errorf("unexpected counts: %+v", detail.Run)
	}
	if detail.Run.FinishedAt == nil {
		t.Error("expected finished_at to be set")
	}
	if len(detail.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(detail.Results))
	}
	// Results come back in emission order with the full response intact.
	if detail.Results[0].QuestionMetadata.QuestionID != "q_1" {
		t.Errorf("unexpected first result: %q", detail.Results[0].QuestionMetadata.QuestionID)
	}
	if detail.Results[0].Classification.Subject != "Biology" {
		t.Errorf("response blob lost data: %+v", detail.Results[0].Classification)
	}
	if detail.Results[1].ProcessingStatus != model.StatusFailed {
		t.Errorf("expected failed status, got %s", detail.Results[1].ProcessingStatus)
	}
}

func TestGetRunMissing(t *testing.T) {
	s := newTestStore(t)
	detail, err := s.GetRun("no-such-run")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if detail != nil {
		t.Errorf("expected nil for missing run, got %+v", detail)
	}
}

func TestListRuns(t *testing.T) {
	s := newTestStore(t)

	if runs, err := s.ListRuns(); err != nil || len(runs) != 0 {
		t.Fatalf("expected empty archive, got %v (%v)", runs, err)
	}

	for _, id := range []string{"run-a", "run-b"} {
		if err := s.CreateRun(id, "conn-1"); err != nil {
			t.Fatalf("CreateRun %s: %v", id, err)
		}
	}

	runs, err := s.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	count, err := s.RunCount()
	if err != nil {
		t.Fatalf("RunCount: %v", err)
	}
	if count != 2 {
		t.Errorf("expected count 2, got %d", count)
	}
}

func TestExportAll(t *testing.T) {
	s := newTestStore(t)

	if err := s.CreateRun("run-1", "conn-1"); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	if err := s.AddResult("run-1", 0, sampleResponse("1", model.StatusCompleted)); err != nil {
		t.Fatalf("AddResult: %v", err)
	}

	details, err := s.ExportAll()
	if err != nil {
		t.Fatalf("ExportAll: %v", err)
	}
	if len(details) != 1 {
		t.Fatalf("expected 1 run, got %d", len(details))
	}
	if len(details[0].Results) != 1 {
		t.Errorf("expected 1 result, got %d", len(details[0].Results))
	}
}
