// Package scheduler drives the per-item rubric pipeline: model call, repair,
// validation. Items are processed strictly sequentially with a fixed delay
// between model calls to stay inside external rate limits.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/paperlens/paperlens/internal/extract"
	"github.com/paperlens/paperlens/internal/model"
	"github.com/paperlens/paperlens/internal/repair"
	"github.com/paperlens/paperlens/internal/validate"
)

// Generator produces one raw rubric per item. *llm.Client is the production
// implementation.
type Generator interface {
	Generate(ctx context.Context, item model.Item, prefs model.Preferences) (*model.RawRubric, error)
}

// Progress describes one item about to be processed. Index is 1-based.
type Progress struct {
	Index              int
	Total              int
	Item               model.Item
	Section            model.SectionContext
	EstimatedRemaining time.Duration
}

// ProgressFunc is invoked before each item starts.
type ProgressFunc func(Progress)

// Pool schedules jobs over a fixed set of logical workers. Worker selection
// is round-robin by job index; processing stays sequential regardless of
// pool size, so worker identity only decides which generator instance
// serves a job.
type Pool struct {
	generators []Generator
	validator  *validate.Validator
	cfg        model.PipelineConfig
}

// New builds a pool of cfg.WorkerCount logical workers all backed by gen.
func New(gen Generator, cfg model.PipelineConfig) *Pool {
	count := cfg.WorkerCount
	if count < 1 {
		count = 1
	}
	generators := make([]Generator, count)
	for i := range generators {
		generators[i] = gen
	}
	return &Pool{
		generators: generators,
		validator:  validate.New(cfg.Penalties),
		cfg:        cfg,
	}
}

// Process runs every job in submission order and returns exactly one
// response per job, in the same order. A cancelled context stops model
// calls; the remaining jobs still yield failed responses so the caller can
// account for every item.
func (p *Pool) Process(ctx context.Context, jobs []extract.Job, prefs model.Preferences, onProgress ProgressFunc) []model.RubricResponse {
	results := make([]model.RubricResponse, 0, len(jobs))
	start := time.Now()

	for i, job := range jobs {
		if onProgress != nil {
			onProgress(Progress{
				Index:              i + 1,
				Total:              len(jobs),
				Item:               job.Item,
				Section:            job.Section,
				EstimatedRemaining: estimateRemaining(time.Since(start), i, len(jobs)),
			})
		}

		if i > 0 && ctx.Err() == nil {
			if err := sleepCtx(ctx, p.cfg.RequestDelay); err != nil {
				slog.Info("generation run cancelled during rate-limit delay", "done", i)
			}
		}

		if err := ctx.Err(); err != nil {
			results = append(results, repair.Failed(job.Item, job.Section,
				fmt.Sprintf("generation cancelled: %v", err), 0))
			continue
		}

		worker := i % len(p.generators)
		results = append(results, p.processOne(ctx, worker, job, prefs))
	}

	return results
}

// processOne runs the full pipeline for a single job. It cannot fail: any
// error, and even a panic out of a generator, degrades to a failed-status
// response.
func (p *Pool) processOne(ctx context.Context, worker int, job extract.Job, prefs model.Preferences) (resp model.RubricResponse) {
	start := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("panic during item processing", "worker", worker, "number", job.Item.Number, "panic", rec)
			resp = repair.Failed(job.Item, job.Section, fmt.Sprintf("internal error: %v", rec), time.Since(start))
		}
	}()

	slog.Debug("processing item", "worker", worker, "number", job.Item.Number, "marks", job.Item.Marks)

	raw, err := p.generators[worker].Generate(ctx, job.Item, prefs)
	if err != nil {
		slog.Warn("rubric generation failed", "worker", worker, "number", job.Item.Number, "error", err)
		return repair.Failed(job.Item, job.Section, err.Error(), time.Since(start))
	}

	resp = repair.Response(job.Item, job.Section, raw, prefs, time.Since(start))
	p.crossCheck(&resp, job.Item)
	return resp
}

// crossCheck refines the quality signal of a completed response. Validator
// findings downgrade the validation status to a warning and scale the
// confidence score; they never fail the item.
func (p *Pool) crossCheck(resp *model.RubricResponse, item model.Item) {
	if resp.ProcessingStatus != model.StatusCompleted {
		return
	}
	ok, errs, score := p.validator.Validate(*resp)
	if ok {
		return
	}
	slog.Warn("rubric validation findings", "number", item.Number, "errors", errs, "score", score)
	resp.QualityMetrics.ValidationStatus = model.ValidationWarning
	resp.QualityMetrics.ConfidenceScore *= score
}

// estimateRemaining projects the time left from the average pace so far.
// Before the first item completes there is no pace to project from.
func estimateRemaining(elapsed time.Duration, done, total int) time.Duration {
	if done == 0 {
		return 0
	}
	return elapsed / time.Duration(done) * time.Duration(total-done)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
