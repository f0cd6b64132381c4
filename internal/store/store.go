// Package store archives generation runs in SQLite. The archive is
// best-effort: the streaming path logs persistence failures and moves on,
// so nothing here is on a request's critical path.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/paperlens/paperlens/internal/model"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

// Run is one archived generation run. FinishedAt is nil while the run is
// still streaming or if the process died mid-run.
type Run struct {
	ID                  string     `json:"id"`
	ConnectionID        string     `json:"connection_id"`
	StartedAt           time.Time  `json:"started_at"`
	FinishedAt          *time.Time `json:"finished_at,omitempty"`
	TotalQuestions      int        `json:"total_questions"`
	Successful          int        `json:"successful"`
	Failed              int        `json:"failed"`
	TotalProcessingTime float64    `json:"total_processing_time"`
}

// RunDetail is a run with its per-question results in emission order.
type RunDetail struct {
	Run     Run                    `json:"run"`
	Results []model.RubricResponse `json:"results"`
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS generation_runs (
		id TEXT PRIMARY KEY,
		connection_id TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME,
		total_questions INTEGER NOT NULL DEFAULT 0,
		successful INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0,
		total_processing_time REAL NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS run_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		question_id TEXT NOT NULL,
		processing_status TEXT NOT NULL,
		confidence_score REAL NOT NULL DEFAULT 0,
		response TEXT NOT NULL,
		FOREIGN KEY (run_id) REFERENCES generation_runs(id)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// CreateRun records the start of a generation run.
func (s *Store) CreateRun(id, connectionID string) error {
	_, err := s.db.Exec(
		`INSERT INTO generation_runs (id, connection_id, started_at) VALUES (?, ?, ?)`,
		id, connectionID, time.Now(),
	)
	return err
}

// AddResult stores one per-question result. The full response is kept as a
// JSON blob; indexed columns carry just enough for listing and filtering.
func (s *Store) AddResult(runID string, position int, resp model.RubricResponse) error {
	blob, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO run_results (run_id, position, question_id, processing_status, confidence_score, response)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		runID, position, resp.QuestionMetadata.QuestionID, string(resp.ProcessingStatus),
		resp.QualityMetrics.ConfidenceScore, string(blob),
	)
	return err
}

// FinishRun closes a run with its summary counts.
func (s *Store) FinishRun(id string, summary model.Summary) error {
	_, err := s.db.Exec(
		`UPDATE generation_runs
		 SET finished_at = ?, total_questions = ?, successful = ?, failed = ?, total_processing_time = ?
		 WHERE id = ?`,
		time.Now(), summary.TotalQuestionsProcessed, summary.SuccessfulGenerations,
		summary.FailedGenerations, summary.TotalProcessingTime, id,
	)
	return err
}

// ListRuns returns all runs, newest first.
func (s *Store) ListRuns() ([]Run, error) {
	rows, err := s.db.Query(
		`SELECT id, connection_id, started_at, finished_at, total_questions, successful, failed, total_processing_time
		 FROM generation_runs ORDER BY started_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.ConnectionID, &r.StartedAt, &r.FinishedAt,
			&r.TotalQuestions, &r.Successful, &r.Failed, &r.TotalProcessingTime); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun returns one run with its results in emission order, or nil if the
// run does not exist.
func (s *Store) GetRun(id string) (*RunDetail, error) {
	var r Run
	err := s.db.QueryRow(
		`SELECT id, connection_id, started_at, finished_at, total_questions, successful, failed, total_processing_time
		 FROM generation_runs WHERE id = ?`, id,
	).Scan(&r.ID, &r.ConnectionID, &r.StartedAt, &r.FinishedAt,
		&r.TotalQuestions, &r.Successful, &r.Failed, &r.TotalProcessingTime)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	results, err := s.runResults(id)
	if err != nil {
		return nil, err
	}
	return &RunDetail{Run: r, Results: results}, nil
}

func (s *Store) runResults(runID string) ([]model.RubricResponse, error) {
	rows, err := s.db.Query(
		`SELECT response FROM run_results WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var results []model.RubricResponse
	for rows.Next() {
		var blob string
		if err := rows.Scan(&blob); err != nil {
			return nil, err
		}
		var resp model.RubricResponse
		if err := json.Unmarshal([]byte(blob), &resp); err != nil {
			return nil, fmt.Errorf("unmarshal archived response: %w", err)
		}
		results = append(results, resp)
	}
	return results, rows.Err()
}

// ExportAll returns the full archive, every run with its results.
func (s *Store) ExportAll() ([]RunDetail, error) {
	runs, err := s.ListRuns()
	if err != nil {
		return nil, err
	}
	details := make([]RunDetail, 0, len(runs))
	for _, r := range runs {
		results, err := s.runResults(r.ID)
		if err != nil {
			return nil, err
		}
		details = append(details, RunDetail{Run: r, Results: results})
	}
	return details, nil
}

// RunCount returns the number of archived runs.
func (s *Store) RunCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM generation_runs`).Scan(&count)
	return count, err
}
