package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yoockh/yoointerview/internal/cache"
	"github.com/yoockh/yoointerview/internal/models"
	"github.com/yoockh/yoointerview/internal/questions"
	mongorepo "github.com/yoockh/yoointerview/internal/repositories/mongo"
	"github.com/yoockh/yoointerview/internal/storage"
	"github.com/yoockh/yoointerview/internal/utils"

	"github.com/google/uuid"
)

type StartParams struct {
	CandidateID    string
	CandidateName  string
	JobRole        string
	JobDescription string
	Difficulty     string
	NumQuestions   int
	Questions      []questions.Supplied
	InterviewID    string
	InterviewTitle string
}

// SessionDetails are the mutable descriptive fields of a session.
type SessionDetails struct {
	CandidateName  *string
	InterviewID    *string
	InterviewTitle *string
}

type SessionService interface {
	Start(ctx context.Context, p StartParams) (*models.Session, error)
	Get(ctx context.Context, sessionID string) (*models.Session, error)
	UpdateDetails(ctx context.Context, sessionID string, d SessionDetails) (*models.Session, error)
	// Delete removes the session with its transcripts, recorded audio and
	// cached evaluation state.
	Delete(ctx context.Context, sessionID string) error
}

type sessionService struct {
	sessions    mongorepo.SessionRepository
	transcripts mongorepo.TranscriptRepository
	questions   QuestionService
	audio       storage.Remover
	cache       cache.Cache
	log         *logrus.Logger
}

// NewSessionService wires the session lifecycle. audio and c may be nil.
func NewSessionService(
	sessions mongorepo.SessionRepository,
	transcripts mongorepo.TranscriptRepository,
	qs QuestionService,
	audio storage.Remover,
	c cache.Cache,
	log *logrus.Logger,
) SessionService {
	return &sessionService{
		sessions:    sessions,
		transcripts: transcripts,
		questions:   qs,
		audio:       audio,
		cache:       c,
		log:         log,
	}
}

func (s *sessionService) Start(ctx context.Context, p StartParams) (*models.Session, error) {
	const op = "SessionService.Start"

	if p.CandidateID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "candidate_id is required", nil)
	}

	set, err := s.questions.Build(ctx, QuestionRequest{
		Count:          p.NumQuestions,
		JobRole:        p.JobRole,
		JobDescription: p.JobDescription,
		Difficulty:     p.Difficulty,
		Supplied:       p.Questions,
	})
	if err != nil {
		return nil, err
	}

	session := &models.Session{
		SessionID:       uuid.NewString(),
		CandidateID:     p.CandidateID,
		CandidateName:   strings.TrimSpace(p.CandidateName),
		JobRole:         strings.TrimSpace(p.JobRole),
		JobDescription:  strings.TrimSpace(p.JobDescription),
		InterviewID:     p.InterviewID,
		InterviewTitle:  p.InterviewTitle,
		Questions:       set.Questions,
		CurrentQuestion: 0,
		Status:          models.SessionStatusActive,
		QuestionSource:  set.Source,
		UsedFallback:    set.UsedFallback,
		FallbackReason:  set.FallbackReason,
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to create session", err)
	}

	s.log.WithFields(logrus.Fields{
		"session_id":    session.SessionID,
		"candidate_id":  session.CandidateID,
		"questions":     len(session.Questions),
		"source":        session.QuestionSource,
		"used_fallback": session.UsedFallback,
	}).Info("interview session started")
	return session, nil
}

func (s *sessionService) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	const op = "SessionService.Get"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}

	out, err := s.sessions.GetBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "session not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get session", err)
	}
	return out, nil
}

func (s *sessionService) UpdateDetails(ctx context.Context, sessionID string, d SessionDetails) (*models.Session, error) {
	const op = "SessionService.UpdateDetails"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}
	if d.CandidateName == nil && d.InterviewID == nil && d.InterviewTitle == nil {
		return nil, utils.E(utils.CodeInvalidArgument, op, "no fields to update", nil)
	}

	err := s.sessions.UpdateFields(ctx, sessionID, models.SessionUpdate{
		CandidateName:  d.CandidateName,
		InterviewID:    d.InterviewID,
		InterviewTitle: d.InterviewTitle,
	})
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "session not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to update session", err)
	}
	return s.Get(ctx, sessionID)
}

func (s *sessionService) Delete(ctx context.Context, sessionID string) error {
	const op = "SessionService.Delete"

	if sessionID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeNotFound, op, "session not found", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to delete session", err)
	}

	l := s.log.WithField("session_id", sessionID)

	n, err := s.transcripts.DeleteBySession(ctx, sessionID)
	if err != nil {
		return utils.E(utils.CodeInternal, op, "failed to delete transcripts", err)
	}

	// best effort below: the session row is already gone
	if s.audio != nil {
		cctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		removed, err := s.audio.DeletePrefix(cctx, storage.AnswerAudioPrefix(sessionID))
		cancel()
		if err != nil {
			l.WithError(err).Warn("failed to delete recorded answers")
		} else if removed > 0 {
			l.WithField("objects", removed).Debug("recorded answers deleted")
		}
	}
	if s.cache != nil {
		if err := s.cache.Del(ctx, cache.ResultKey(sessionID), cache.EvaluationKey(sessionID)); err != nil {
			l.WithError(err).Warn("failed to clear cached evaluation state")
		}
	}

	l.WithField("transcripts", n).Info("interview session deleted")
	return nil
}
