package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/yoockh/yoointerview/internal/cache"
	"github.com/yoockh/yoointerview/internal/models"
	mongorepo "github.com/yoockh/yoointerview/internal/repositories/mongo"
	pgrepo "github.com/yoockh/yoointerview/internal/repositories/postgres"
	"github.com/yoockh/yoointerview/internal/utils"
)

const (
	missingTranscript = "[Transcript not found]"
	unknownQuestion   = "Unknown question"
)

// ResultLookup is either a stored result or the state of a completed
// session whose evaluation has not been written yet. Failed means no
// evaluation is queued and one could not be scheduled; finalize must be
// requested explicitly.
type ResultLookup struct {
	Result      *models.InterviewResult
	Processing  bool
	Failed      bool
	CandidateID string
}

type ResultService interface {
	// Finalize evaluates a completed session and upserts its single result.
	// Repeated calls re-evaluate and overwrite the same row.
	Finalize(ctx context.Context, sessionID string) (*models.InterviewResult, error)
	Get(ctx context.Context, sessionID string) (*ResultLookup, error)
	ListForCandidate(ctx context.Context, candidateID string, limit int) ([]models.InterviewResult, error)
	SetStatus(ctx context.Context, sessionID, status string) error
	// Delete removes the result and the session it was produced from.
	Delete(ctx context.Context, sessionID string) error
}

type resultService struct {
	sessions    SessionService
	transcripts mongorepo.TranscriptRepository
	results     pgrepo.ResultRepository
	evaluator   EvaluationService
	trigger     EvaluationTrigger
	cache       cache.Cache
	cacheTTL    time.Duration
	log         *logrus.Logger
}

// NewResultService wires result aggregation. trigger re-queues evaluations
// that were lost; c and trigger may be nil.
func NewResultService(
	sessions SessionService,
	transcripts mongorepo.TranscriptRepository,
	results pgrepo.ResultRepository,
	evaluator EvaluationService,
	trigger EvaluationTrigger,
	c cache.Cache,
	cacheTTL time.Duration,
	log *logrus.Logger,
) ResultService {
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	return &resultService{
		sessions:    sessions,
		transcripts: transcripts,
		results:     results,
		evaluator:   evaluator,
		trigger:     trigger,
		cache:       c,
		cacheTTL:    cacheTTL,
		log:         log,
	}
}

func (s *resultService) Finalize(ctx context.Context, sessionID string) (*models.InterviewResult, error) {
	const op = "ResultService.Finalize"

	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status != models.SessionStatusCompleted {
		return nil, utils.E(utils.CodeNotReady, op,
			fmt.Sprintf("session is %s: %d of %d questions answered", sess.Status, len(sess.Responses), len(sess.Questions)), nil)
	}

	answers, err := s.collectAnswers(ctx, sess)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load transcripts", err)
	}

	feedback, avg := s.evaluator.EvaluateAll(ctx, answers)
	details := make([]models.ScoreDetail, len(feedback))
	for i, f := range feedback {
		details[i] = models.ScoreDetail{QuestionIndex: f.QuestionIndex, Score: f.Score}
	}

	now := time.Now().UTC()
	res := &models.InterviewResult{
		ID:             uuid.NewString(),
		SessionID:      sess.SessionID,
		CandidateID:    sess.CandidateID,
		CandidateName:  sess.CandidateName,
		InterviewID:    sess.InterviewID,
		InterviewTitle: sess.InterviewTitle,
		Questions:      sess.QuestionTexts(),
		Answers:        datatypes.NewJSONSlice(answers),
		Feedback:       datatypes.NewJSONSlice(feedback),
		Scores:         datatypes.NewJSONType(models.Scores{Average: avg, Details: details}),
		Summary:        fmt.Sprintf("Interview completed with average score of %.1f/10", avg),
		Status:         models.ResultStatusCompleted,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	existing, err := s.results.GetBySessionID(ctx, sessionID)
	switch {
	case err == nil:
		// re-finalization keeps identity and any reviewer decision
		res.ID = existing.ID
		res.CreatedAt = existing.CreatedAt
		res.Status = existing.Status
	case !errors.Is(err, utils.ErrNotFound):
		return nil, utils.E(utils.CodeInternal, op, "failed to read existing result", err)
	}

	if err := s.results.Upsert(ctx, res); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to save result", err)
	}

	// a concurrent first finalize may have won the insert
	if stored, err := s.results.GetBySessionID(ctx, sessionID); err == nil {
		res = stored
	}

	s.cacheResult(ctx, res)
	s.log.WithFields(logrus.Fields{
		"session_id": sessionID,
		"answers":    len(answers),
		"average":    avg,
	}).Info("interview result finalized")
	return res, nil
}

// collectAnswers resolves the session's responses, one per question index in
// ascending order. Missing transcripts and unknown indices get placeholders.
func (s *resultService) collectAnswers(ctx context.Context, sess *models.Session) ([]models.Answer, error) {
	byIndex := make(map[int]models.Response, len(sess.Responses))
	for _, r := range sess.Responses {
		byIndex[r.QuestionIndex] = r
	}
	idx := make([]int, 0, len(byIndex))
	for i := range byIndex {
		idx = append(idx, i)
	}
	sort.Ints(idx)

	answers := make([]models.Answer, 0, len(idx))
	for _, i := range idx {
		r := byIndex[i]
		a := models.Answer{
			QuestionIndex: i,
			Question:      unknownQuestion,
			Transcript:    missingTranscript,
			TranscriptID:  r.TranscriptID,
		}
		if i >= 0 && i < len(sess.Questions) {
			a.Question = sess.Questions[i].Text
		}

		t, err := s.transcripts.GetByTranscriptID(ctx, r.TranscriptID)
		switch {
		case err == nil:
			a.Transcript = t.Text
		case errors.Is(err, utils.ErrNotFound):
			s.log.WithFields(logrus.Fields{
				"session_id":    sess.SessionID,
				"transcript_id": r.TranscriptID,
			}).Warn("response references a missing transcript")
		default:
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, nil
}

func (s *resultService) Get(ctx context.Context, sessionID string) (*ResultLookup, error) {
	const op = "ResultService.Get"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}

	if s.cache != nil {
		var cached models.InterviewResult
		if hit, err := s.cache.GetJSON(ctx, cache.ResultKey(sessionID), &cached); err == nil && hit {
			return &ResultLookup{Result: &cached, CandidateID: cached.CandidateID}, nil
		}
	}

	res, err := s.results.GetBySessionID(ctx, sessionID)
	if err == nil {
		s.cacheResult(ctx, res)
		return &ResultLookup{Result: res, CandidateID: res.CandidateID}, nil
	}
	if !errors.Is(err, utils.ErrNotFound) {
		return nil, utils.E(utils.CodeInternal, op, "failed to get result", err)
	}

	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if utils.IsCode(err, utils.CodeNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "result not found", err)
		}
		return nil, err
	}
	if sess.Status == models.SessionStatusCompleted {
		return s.pendingLookup(ctx, sess), nil
	}
	return nil, utils.E(utils.CodeNotFound, op, "result not found", utils.ErrNotFound)
}

// pendingLookup reports a completed session without a result as processing
// while its evaluation claim is held. Without a claim the evaluation was never
// queued or has failed, so it is queued again.
func (s *resultService) pendingLookup(ctx context.Context, sess *models.Session) *ResultLookup {
	lookup := &ResultLookup{Processing: true, CandidateID: sess.CandidateID}
	log := s.log.WithField("session_id", sess.SessionID)

	if s.cache != nil {
		held, err := s.cache.Claimed(ctx, cache.EvaluationKey(sess.SessionID))
		if err != nil {
			log.WithError(err).Warn("failed to read evaluation claim")
			return lookup
		}
		if held {
			return lookup
		}
	}

	if s.trigger == nil {
		lookup.Processing, lookup.Failed = false, true
		return lookup
	}
	if err := s.trigger.Trigger(ctx, sess.SessionID); err != nil {
		log.WithError(err).Error("failed to re-queue evaluation")
		lookup.Processing, lookup.Failed = false, true
		return lookup
	}
	log.Info("evaluation re-queued")
	return lookup
}

func (s *resultService) ListForCandidate(ctx context.Context, candidateID string, limit int) ([]models.InterviewResult, error) {
	const op = "ResultService.ListForCandidate"

	if candidateID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "candidate_id is required", nil)
	}
	out, err := s.results.ListByCandidate(ctx, candidateID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list results", err)
	}
	return out, nil
}

func (s *resultService) SetStatus(ctx context.Context, sessionID, status string) error {
	const op = "ResultService.SetStatus"

	if sessionID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}
	if !models.ValidResultStatus(status) {
		return utils.E(utils.CodeInvalidArgument, op, "status must be one of pending, completed, accepted, rejected", nil)
	}
	if err := s.results.UpdateStatus(ctx, sessionID, status); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeNotFound, op, "result not found", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to set status", err)
	}
	s.forget(ctx, sessionID)
	return nil
}

func (s *resultService) Delete(ctx context.Context, sessionID string) error {
	const op = "ResultService.Delete"

	if sessionID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}
	if err := s.results.DeleteBySessionID(ctx, sessionID); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeNotFound, op, "result not found", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to delete result", err)
	}
	s.forget(ctx, sessionID)

	if err := s.sessions.Delete(ctx, sessionID); err != nil && !utils.IsCode(err, utils.CodeNotFound) {
		return err
	}
	return nil
}

func (s *resultService) cacheResult(ctx context.Context, res *models.InterviewResult) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetJSON(ctx, cache.ResultKey(res.SessionID), res, s.cacheTTL); err != nil {
		s.log.WithError(err).WithField("session_id", res.SessionID).Warn("failed to cache result")
	}
}

func (s *resultService) forget(ctx context.Context, sessionID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, cache.ResultKey(sessionID)); err != nil {
		s.log.WithError(err).WithField("session_id", sessionID).Warn("failed to evict cached result")
	}
}
