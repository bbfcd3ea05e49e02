package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	SessionStatusActive    = "active"
	SessionStatusCompleted = "completed"
)

// Question provenance.
const (
	SourceAI       = "ai"
	SourceFallback = "fallback"
	SourceCaller   = "caller-supplied"
)

const (
	QuestionTypeTechnical  = "technical"
	QuestionTypeBehavioral = "behavioral"
)

type Session struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	SessionID string             `bson:"session_id" json:"session_id"` // uuid v4

	CandidateID    string `bson:"candidate_id" json:"candidate_id"` // "sub" from Supabase Auth
	CandidateName  string `bson:"candidate_name,omitempty" json:"candidate_name,omitempty"`
	JobRole        string `bson:"job_role,omitempty" json:"job_role,omitempty"`
	JobDescription string `bson:"job_description,omitempty" json:"job_description,omitempty"`
	InterviewID    string `bson:"interview_id,omitempty" json:"interview_id,omitempty"`
	InterviewTitle string `bson:"interview_title,omitempty" json:"interview_title,omitempty"`

	Questions       []Question `bson:"questions" json:"questions"`
	CurrentQuestion int        `bson:"current_question" json:"current_question"`
	Status          string     `bson:"status" json:"status"` // active|completed

	QuestionSource string `bson:"question_source" json:"question_source"` // ai|fallback|caller-supplied
	UsedFallback   bool   `bson:"used_fallback" json:"used_fallback"`
	FallbackReason string `bson:"fallback_reason,omitempty" json:"fallback_reason,omitempty"`

	Responses []Response `bson:"responses" json:"responses"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

type Question struct {
	Index           int    `bson:"index" json:"index"`
	Text            string `bson:"text" json:"question"`
	Type            string `bson:"type" json:"type"`     // technical|behavioral
	Source          string `bson:"source" json:"source"` // ai|fallback|caller-supplied
	ScoringCriteria string `bson:"scoring_criteria,omitempty" json:"scoring_criteria,omitempty"`
}

// Response links one question index to its authoritative transcript.
type Response struct {
	QuestionIndex int       `bson:"question_index" json:"question_index"`
	TranscriptID  string    `bson:"transcript_id" json:"transcript_id"`
	SubmittedAt   time.Time `bson:"submitted_at" json:"submitted_at"`
}

// QuestionTexts returns the plain question texts in order.
func (s *Session) QuestionTexts() []string {
	out := make([]string, len(s.Questions))
	for i, q := range s.Questions {
		out[i] = q.Text
	}
	return out
}

// SessionUpdate is a partial update; nil fields are left untouched.
type SessionUpdate struct {
	CurrentQuestion *int
	Status          *string
	Responses       []Response
	CandidateName   *string
	InterviewID     *string
	InterviewTitle  *string
}
