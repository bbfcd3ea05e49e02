package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yoockh/yoointerview/internal/models"
	mongorepo "github.com/yoockh/yoointerview/internal/repositories/mongo"
	"github.com/yoockh/yoointerview/internal/utils"
)

// EvaluationTrigger schedules evaluation of a session that just completed.
type EvaluationTrigger interface {
	Trigger(ctx context.Context, sessionID string) error
}

type SubmitOutcome struct {
	SessionID         string `json:"session_id"`
	QuestionIndex     int    `json:"question_index"`
	TranscriptID      string `json:"transcript_id"`
	Transcript        string `json:"transcript"`
	Skipped           bool   `json:"skipped"`
	NextQuestionIndex int    `json:"next_question_index"`
	TotalQuestions    int    `json:"total_questions"`
	Status            string `json:"status"`
	Completed         bool   `json:"completed"`
}

type ResponseService interface {
	// Submit links transcriptID as the answer to questionIndex, replacing any
	// earlier answer to the same index. An empty transcriptID records a skip.
	Submit(ctx context.Context, sessionID string, questionIndex int, transcriptID string) (*SubmitOutcome, error)
}

type responseService struct {
	sessions    mongorepo.SessionRepository
	transcripts mongorepo.TranscriptRepository
	trigger     EvaluationTrigger
	log         *logrus.Logger
}

// NewResponseService wires answer collection. trigger may be nil.
func NewResponseService(
	sessions mongorepo.SessionRepository,
	transcripts mongorepo.TranscriptRepository,
	trigger EvaluationTrigger,
	log *logrus.Logger,
) ResponseService {
	return &responseService{sessions: sessions, transcripts: transcripts, trigger: trigger, log: log}
}

func (s *responseService) Submit(ctx context.Context, sessionID string, questionIndex int, transcriptID string) (*SubmitOutcome, error) {
	const op = "ResponseService.Submit"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}
	l := s.log.WithFields(logrus.Fields{"session_id": sessionID, "question_index": questionIndex})
	if questionIndex < 0 {
		l.Warn("rejected negative question index")
		return nil, utils.E(utils.CodeInvalidArgument, op, "question_index must be non-negative", nil)
	}

	sess, err := s.sessions.GetBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "session not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get session", err)
	}
	total := len(sess.Questions)
	if questionIndex >= total {
		return nil, utils.E(utils.CodeInvalidArgument, op,
			fmt.Sprintf("question_index %d out of range (session has %d questions)", questionIndex, total), nil)
	}

	t, err := s.resolveTranscript(ctx, op, sessionID, questionIndex, transcriptID)
	if err != nil {
		return nil, err
	}

	updated, err := s.sessions.LinkResponse(ctx, sessionID, models.Response{
		QuestionIndex: questionIndex,
		TranscriptID:  t.TranscriptID,
		SubmittedAt:   time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "session not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to record response", err)
	}

	out := &SubmitOutcome{
		SessionID:         sessionID,
		QuestionIndex:     questionIndex,
		TranscriptID:      t.TranscriptID,
		Transcript:        t.Text,
		Skipped:           t.Provenance == models.TranscriptSkipped,
		NextQuestionIndex: updated.CurrentQuestion,
		TotalQuestions:    total,
		Status:            updated.Status,
	}

	if updated.Status == models.SessionStatusCompleted || !allAnswered(updated, total) {
		out.Completed = updated.Status == models.SessionStatusCompleted
		return out, nil
	}

	transitioned, err := s.sessions.MarkCompleted(ctx, sessionID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to complete session", err)
	}
	out.Status = models.SessionStatusCompleted
	out.Completed = true

	if transitioned {
		l.Info("interview session completed")
		if s.trigger != nil {
			if err := s.trigger.Trigger(ctx, sessionID); err != nil {
				// finalize can still be requested explicitly
				l.WithError(err).Error("failed to schedule evaluation")
			}
		}
	}
	return out, nil
}

func (s *responseService) resolveTranscript(ctx context.Context, op, sessionID string, questionIndex int, transcriptID string) (*models.Transcript, error) {
	if transcriptID == "" {
		t := newTranscript(sessionID, questionIndex, models.SkippedAnswer, models.TranscriptSkipped)
		if err := s.transcripts.Insert(ctx, t); err != nil {
			return nil, utils.E(utils.CodeInternal, op, "failed to record skipped question", err)
		}
		return t, nil
	}

	t, err := s.transcripts.GetByTranscriptID(ctx, transcriptID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "transcript not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get transcript", err)
	}
	if t.SessionID != sessionID {
		return nil, utils.E(utils.CodeInvalidArgument, op, "transcript belongs to another session", nil)
	}
	if t.QuestionIndex != questionIndex {
		return nil, utils.E(utils.CodeInvalidArgument, op,
			fmt.Sprintf("transcript answers question %d, not %d", t.QuestionIndex, questionIndex), nil)
	}
	return t, nil
}

// allAnswered reports whether every index in [0,total) has a response and the
// progress marker has reached the end.
func allAnswered(s *models.Session, total int) bool {
	if total == 0 || s.CurrentQuestion < total {
		return false
	}
	seen := make(map[int]struct{}, len(s.Responses))
	for _, r := range s.Responses {
		if r.QuestionIndex >= 0 && r.QuestionIndex < total {
			seen[r.QuestionIndex] = struct{}{}
		}
	}
	return len(seen) == total
}
