// Package ws implements the streaming side of rubric generation: one
// Session per websocket connection, a process-wide connection Registry,
// and inbound request validation.
package ws

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/paperlens/paperlens/internal/extract"
	"github.com/paperlens/paperlens/internal/i18n"
	"github.com/paperlens/paperlens/internal/model"
	"github.com/paperlens/paperlens/internal/scheduler"
	"github.com/paperlens/paperlens/internal/store"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var sessionFeatures = []string{
	"Single model call per question",
	"Structured output",
	"Real-time progress updates",
	"Rate-limited processing",
}

// Session owns one connection's lifecycle: registry membership, the
// inbound message loop, and at most one generation run at a time. All
// reads and writes happen on the goroutine that calls Run.
type Session struct {
	conn     *websocket.Conn
	id       string
	registry *Registry
	pool     *scheduler.Pool
	archive  *store.Store
	cfg      model.PipelineConfig
	ctx      context.Context
	alive    bool
}

// NewSession wraps an upgraded connection. ctx carries the localizer for
// outbound message strings; archive may be nil to disable persistence.
func NewSession(ctx context.Context, conn *websocket.Conn, registry *Registry, pool *scheduler.Pool, archive *store.Store, cfg model.PipelineConfig) *Session {
	return &Session{
		conn:     conn,
		id:       uuid.NewString(),
		registry: registry,
		pool:     pool,
		archive:  archive,
		cfg:      cfg,
		ctx:      ctx,
		alive:    true,
	}
}

// ID returns the connection identifier sent to the peer.
func (s *Session) ID() string { return s.id }

// Run drives the session until the peer disconnects or the idle timeout
// fires. It always deregisters the connection exactly once on the way out.
func (s *Session) Run() {
	s.registry.Add(s.id)
	defer func() {
		s.registry.Remove(s.id)
		s.conn.Close()
		slog.Info("session closed", "connection_id", s.id, "active_connections", s.registry.Count())
	}()

	slog.Info("session opened", "connection_id", s.id, "active_connections", s.registry.Count())

	s.send(typeConnectionEstablished, connectionEstablishedData{
		Message:      i18n.T(s.ctx, "ws.connected"),
		Features:     sessionFeatures,
		ConnectionID: s.id,
	})

	for s.alive {
		if err := s.conn.SetReadDeadline(time.Now().Add(s.cfg.IdleTimeout)); err != nil {
			slog.Warn("set read deadline", "connection_id", s.id, "error", err)
			return
		}
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if isTimeout(err) {
				slog.Info("session idle timeout", "connection_id", s.id)
				s.send(typeTimeout, noticeData{
					Message:   i18n.T(s.ctx, "ws.timeout"),
					Timestamp: time.Now(),
				})
			} else {
				slog.Info("session read ended", "connection_id", s.id, "error", err)
			}
			return
		}

		req, err := ParseRequest(raw)
		if err != nil {
			if errors.Is(err, ErrInvalidJSON) {
				s.sendError(i18n.T(s.ctx, "ws.error.invalid_json"))
			} else {
				s.sendError(i18n.Td(s.ctx, "ws.error.invalid_request", map[string]any{"Reason": err.Error()}))
			}
			continue
		}

		s.generate(req)
	}
}

// generate runs one rubric-generation request end to end. Request-level
// failures are reported to the peer; the session stays open either way.
func (s *Session) generate(req *GenerationRequest) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("panic during generation", "connection_id", s.id, "panic", rec)
			s.sendError(i18n.T(s.ctx, "ws.error.internal"))
		}
	}()

	start := time.Now()

	jobs, err := extract.Items(req.EnhancedAPIResponse)
	if err != nil {
		s.sendError(i18n.Td(s.ctx, "ws.error.invalid_request", map[string]any{"Reason": err.Error()}))
		return
	}
	jobs = extract.Filter(jobs)
	if len(jobs) == 0 {
		s.sendError(i18n.T(s.ctx, "ws.error.no_questions"))
		return
	}

	s.send(typeProgress, progressData{
		Status:         "parsing_complete",
		TotalQuestions: len(jobs),
		Message:        i18n.Tp(s.ctx, "ws.parsing_complete", len(jobs)),
	})

	runID := uuid.NewString()
	archived := s.archive != nil
	if archived {
		if err := s.archive.CreateRun(runID, s.id); err != nil {
			slog.Warn("archive run", "run_id", runID, "error", err)
			archived = false
		}
	}

	results := s.pool.Process(s.ctx, jobs, req.UserPreferences, func(p scheduler.Progress) {
		s.send(typeProgress, progressData{
			CurrentQuestion:        p.Index,
			TotalQuestions:         p.Total,
			Section:                p.Section.Name,
			Status:                 fmt.Sprintf("Processing question %s", p.Item.Number),
			EstimatedRemainingTime: p.EstimatedRemaining.Seconds(),
			Message:                i18n.Td(s.ctx, "ws.generating", map[string]any{"Number": p.Item.Number}),
		})
	})

	for i, result := range results {
		if !s.alive {
			slog.Warn("peer disconnected during result streaming", "connection_id", s.id, "streamed", i)
			break
		}
		s.send(typeQuestionComplete, questionCompleteData{
			QuestionIndex:  i + 1,
			TotalQuestions: len(jobs),
			Result:         result,
			Timestamp:      time.Now(),
		})
		if archived {
			if err := s.archive.AddResult(runID, i, result); err != nil {
				slog.Warn("archive result", "run_id", runID, "position", i, "error", err)
			}
		}
		time.Sleep(s.cfg.StreamDelay)
	}

	summary := model.Summarize(results, time.Since(start), s.cfg.Thresholds)
	if s.alive {
		s.send(typeFinalSummary, finalSummaryData{
			Summary:   summary,
			Message:   i18n.Tp(s.ctx, "ws.summary", summary.TotalQuestionsProcessed),
			Timestamp: time.Now(),
		})
	}
	if archived {
		if err := s.archive.FinishRun(runID, summary); err != nil {
			slog.Warn("finish archived run", "run_id", runID, "error", err)
		}
	}

	slog.Info("generation run finished",
		"connection_id", s.id,
		"run_id", runID,
		"successful", summary.SuccessfulGenerations,
		"failed", summary.FailedGenerations,
		"duration", time.Since(start))
}

func (s *Session) sendError(message string) {
	s.send(typeError, noticeData{Message: message, Timestamp: time.Now()})
}

// send writes one enveloped message. A dead peer makes this a logged
// no-op; send failures never propagate to callers.
func (s *Session) send(msgType string, data any) {
	if !s.alive {
		return
	}
	err := s.conn.WriteJSON(envelope{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now(),
	})
	if err != nil {
		slog.Warn("send failed, marking connection dead", "connection_id", s.id, "type", msgType, "error", err)
		s.alive = false
	}
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
