package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SkippedAnswer is stored as the transcript text of a skipped question.
const SkippedAnswer = "[Question was skipped by the candidate]"

// Transcript provenance.
const (
	TranscriptText    = "text"
	TranscriptSpeech  = "speech"
	TranscriptSkipped = "skipped"
)

type Transcript struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	TranscriptID  string             `bson:"transcript_id" json:"transcript_id"`
	SessionID     string             `bson:"session_id" json:"session_id"`
	QuestionIndex int                `bson:"question_index" json:"question_index"`

	Text       string `bson:"text" json:"transcript"`
	Provenance string `bson:"provenance" json:"provenance"` // text|speech|skipped

	AudioPath  string  `bson:"audio_path,omitempty" json:"audio_path,omitempty"`
	Language   string  `bson:"language,omitempty" json:"language,omitempty"`
	Confidence float64 `bson:"confidence,omitempty" json:"confidence,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
