package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yoockh/yoointerview/internal/models"
	"github.com/yoockh/yoointerview/internal/providers/llm"
	"github.com/yoockh/yoointerview/internal/scoring"
)

var errEmptyReply = errors.New("empty evaluation reply")

type EvaluationService interface {
	// EvaluateAnswer never fails: provider errors degrade to length scoring.
	EvaluateAnswer(ctx context.Context, question, answer string) scoring.Evaluation
	// EvaluateAll scores answers in order and returns the feedback with the
	// rounded average score.
	EvaluateAll(ctx context.Context, answers []models.Answer) ([]models.FeedbackItem, float64)
}

type EvaluationConfig struct {
	Timeout     time.Duration
	Temperature float32
	MaxTokens   int
}

type evaluationService struct {
	provider llm.Provider
	cfg      EvaluationConfig
	log      *logrus.Logger
}

func NewEvaluationService(provider llm.Provider, cfg EvaluationConfig, log *logrus.Logger) EvaluationService {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.3
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 300
	}
	return &evaluationService{provider: provider, cfg: cfg, log: log}
}

func (s *evaluationService) EvaluateAnswer(ctx context.Context, question, answer string) scoring.Evaluation {
	ev, _ := s.evaluate(ctx, question, answer)
	return ev
}

// evaluate scores one answer and reports whether the provider call ran out
// of its time budget.
func (s *evaluationService) evaluate(ctx context.Context, question, answer string) (scoring.Evaluation, bool) {
	prepared := scoring.PrepareAnswer(answer)
	if s.provider == nil {
		return scoring.ByLength(prepared), false
	}

	ectx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	reply, err := s.provider.Generate(ectx, scoring.RubricPrompt(question, prepared), llm.Options{
		Temperature: s.cfg.Temperature,
		MaxTokens:   s.cfg.MaxTokens,
	})
	if err == nil && strings.TrimSpace(reply) == "" {
		err = errEmptyReply
	}
	if err != nil {
		timedOut := errors.Is(ectx.Err(), context.DeadlineExceeded)
		s.log.WithFields(logrus.Fields{
			"provider":  s.provider.Name(),
			"error":     err.Error(),
			"timed_out": timedOut,
		}).Warn("answer evaluation degraded to length scoring")
		return scoring.ByLength(prepared), timedOut
	}
	return scoring.ParseRubric(reply), false
}

// EvaluateAll stops calling the provider after its first timeout; the
// remaining answers are scored by length.
func (s *evaluationService) EvaluateAll(ctx context.Context, answers []models.Answer) ([]models.FeedbackItem, float64) {
	feedback := make([]models.FeedbackItem, 0, len(answers))
	scores := make([]float64, 0, len(answers))
	stalled := false
	for _, a := range answers {
		var ev scoring.Evaluation
		if stalled {
			ev = scoring.ByLength(scoring.PrepareAnswer(a.Transcript))
		} else {
			ev, stalled = s.evaluate(ctx, a.Question, a.Transcript)
			if stalled {
				s.log.WithField("remaining", len(answers)-len(feedback)-1).
					Warn("evaluation provider timed out; scoring remaining answers by length")
			}
		}
		feedback = append(feedback, models.FeedbackItem{
			QuestionIndex:       a.QuestionIndex,
			Score:               ev.Score,
			Feedback:            ev.Feedback,
			Strengths:           ev.Strengths,
			AreasForImprovement: ev.AreasForImprovement,
			Source:              ev.Source,
		})
		scores = append(scores, ev.Score)
	}
	return feedback, scoring.Average(scores)
}
