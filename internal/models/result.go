package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

const (
	ResultStatusPending   = "pending"
	ResultStatusCompleted = "completed"
	ResultStatusAccepted  = "accepted"
	ResultStatusRejected  = "rejected"
)

// ValidResultStatus reports whether s is one of the result statuses.
func ValidResultStatus(s string) bool {
	switch s {
	case ResultStatusPending, ResultStatusCompleted, ResultStatusAccepted, ResultStatusRejected:
		return true
	}
	return false
}

// InterviewResult is the single evaluated record of a session, keyed by session_id.
type InterviewResult struct {
	ID        string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	SessionID string `gorm:"column:session_id;type:text;uniqueIndex" json:"session_id"`

	CandidateID    string `gorm:"column:candidate_id;type:text;index" json:"candidate_id"`
	CandidateName  string `gorm:"column:candidate_name;type:text" json:"candidate_name"`
	InterviewID    string `gorm:"column:interview_id;type:text" json:"interview_id,omitempty"`
	InterviewTitle string `gorm:"column:interview_title;type:text" json:"interview_title,omitempty"`

	Questions pq.StringArray                    `gorm:"column:questions;type:text[]" json:"questions"`
	Answers   datatypes.JSONSlice[Answer]       `gorm:"column:answers;type:jsonb" json:"answers"`
	Feedback  datatypes.JSONSlice[FeedbackItem] `gorm:"column:feedback;type:jsonb" json:"feedback"`
	Scores    datatypes.JSONType[Scores]        `gorm:"column:scores;type:jsonb" json:"scores"`
	Summary   string                            `gorm:"column:summary;type:text" json:"summary"`

	Status string `gorm:"column:status;type:text;index" json:"status"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz" json:"updated_at"`
}

func (InterviewResult) TableName() string { return "interview_results" }

type Answer struct {
	QuestionIndex int    `json:"question_index"`
	Question      string `json:"question"`
	Transcript    string `json:"transcript"`
	TranscriptID  string `json:"transcript_id"`
}

// FeedbackItem is the scored evaluation of one answer.
type FeedbackItem struct {
	QuestionIndex       int     `json:"question_index"`
	Score               float64 `json:"score"`
	Feedback            string  `json:"feedback"`
	Strengths           string  `json:"strengths"`
	AreasForImprovement string  `json:"areas_for_improvement"`
	Source              string  `json:"source"` // ai|fallback
}

type Scores struct {
	Average float64       `json:"average"`
	Details []ScoreDetail `json:"details"`
}

type ScoreDetail struct {
	QuestionIndex int     `json:"question_index"`
	Score         float64 `json:"score"`
}
