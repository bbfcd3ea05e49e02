package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yoockh/yoointerview/internal/models"
	"github.com/yoockh/yoointerview/internal/providers/llm"
	"github.com/yoockh/yoointerview/internal/questions"
	"github.com/yoockh/yoointerview/internal/utils"
)

const (
	DefaultQuestionCount = 3
	MaxQuestionCount     = 20
)

type QuestionRequest struct {
	Count          int
	JobRole        string
	JobDescription string
	Difficulty     string
	Supplied       []questions.Supplied
}

// QuestionSet is an ordered list of questions plus where it came from.
type QuestionSet struct {
	Questions      []models.Question
	Source         string // ai|fallback|caller-supplied
	UsedFallback   bool
	FallbackReason string
}

type QuestionService interface {
	// Build returns exactly the requested number of questions, or the cleaned
	// caller-supplied list. Provider failures degrade to template questions.
	Build(ctx context.Context, req QuestionRequest) (*QuestionSet, error)
}

type QuestionConfig struct {
	Probe       llm.ProbeConfig
	Timeout     time.Duration
	Temperature float32
	MaxTokens   int
	Templates   questions.TemplateSet
}

type questionService struct {
	provider llm.Provider
	cfg      QuestionConfig
	log      *logrus.Logger
}

func NewQuestionService(provider llm.Provider, cfg QuestionConfig, log *logrus.Logger) QuestionService {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.7
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 800
	}
	if len(cfg.Templates.GenericKeywords) == 0 {
		cfg.Templates = questions.DefaultTemplates()
	}
	return &questionService{provider: provider, cfg: cfg, log: log}
}

func (s *questionService) Build(ctx context.Context, req QuestionRequest) (*QuestionSet, error) {
	const op = "QuestionService.Build"

	if len(req.Supplied) > 0 {
		qs := questions.CleanSupplied(req.Supplied)
		if len(qs) == 0 {
			return nil, utils.E(utils.CodeInvalidArgument, op, "provided questions were empty after cleaning", nil)
		}
		return &QuestionSet{Questions: qs, Source: models.SourceCaller}, nil
	}

	if req.Count <= 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "num_questions must be positive", nil)
	}
	n := req.Count
	if n > MaxQuestionCount {
		n = MaxQuestionCount
	}

	role := strings.TrimSpace(req.JobRole)
	desc := strings.TrimSpace(req.JobDescription)
	if role == "" && desc == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "job_role or job_description is required to generate questions", nil)
	}

	qs, err := s.generate(ctx, n, role, desc, req.Difficulty)
	if err == nil {
		return &QuestionSet{Questions: qs, Source: models.SourceAI}, nil
	}

	s.log.WithFields(logrus.Fields{
		"op":     op,
		"count":  n,
		"reason": err.Error(),
	}).Warn("question generation degraded to templates")

	return &QuestionSet{
		Questions:      s.cfg.Templates.Fallback(n, role, desc),
		Source:         models.SourceFallback,
		UsedFallback:   true,
		FallbackReason: err.Error(),
	}, nil
}

func (s *questionService) generate(ctx context.Context, n int, role, desc, difficulty string) ([]models.Question, error) {
	if s.provider == nil {
		return nil, llm.ErrNotConfigured
	}
	if err := llm.Probe(ctx, s.provider, s.cfg.Probe); err != nil {
		return nil, err
	}

	gctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	prompt := questions.GenerationPrompt(n, role, desc, difficulty)
	out, err := s.provider.Generate(gctx, prompt, llm.Options{
		Temperature: s.cfg.Temperature,
		MaxTokens:   s.cfg.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("%s generate: %w", s.provider.Name(), err)
	}

	parsed := questions.ParseGenerated(out, n)
	if len(parsed) < n {
		return nil, fmt.Errorf("%s returned %d of %d usable questions", s.provider.Name(), len(parsed), n)
	}

	qs := make([]models.Question, n)
	for i, p := range parsed[:n] {
		qs[i] = models.Question{
			Index:  i,
			Text:   p.Text,
			Type:   p.Type,
			Source: models.SourceAI,
		}
	}
	return qs, nil
}
