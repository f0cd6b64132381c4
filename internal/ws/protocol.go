package ws

import (
	"time"

	"github.com/paperlens/paperlens/internal/model"
)

// Outbound message type tags. These are protocol surface and are never
// localized.
const (
	typeConnectionEstablished = "connection_established"
	typeProgress              = "progress"
	typeQuestionComplete      = "question_complete"
	typeFinalSummary          = "final_summary"
	typeError                 = "error"
	typeTimeout               = "timeout"
)

// envelope is the frame wrapping every outbound message.
type envelope struct {
	Type      string    `json:"type"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

type connectionEstablishedData struct {
	Message      string   `json:"message"`
	Features     []string `json:"features"`
	ConnectionID string   `json:"connection_id"`
}

type progressData struct {
	CurrentQuestion        int     `json:"current_question,omitempty"`
	TotalQuestions         int     `json:"total_questions,omitempty"`
	Section                string  `json:"section,omitempty"`
	Status                 string  `json:"status"`
	EstimatedRemainingTime float64 `json:"estimated_remaining_time,omitempty"`
	Message                string  `json:"message,omitempty"`
}

type questionCompleteData struct {
	QuestionIndex  int                  `json:"question_index"`
	TotalQuestions int                  `json:"total_questions"`
	Result         model.RubricResponse `json:"result"`
	Timestamp      time.Time            `json:"timestamp"`
}

type finalSummaryData struct {
	Summary   model.Summary `json:"summary"`
	Message   string        `json:"message"`
	Timestamp time.Time     `json:"timestamp"`
}

type noticeData struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
