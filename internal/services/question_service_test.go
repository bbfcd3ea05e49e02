package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/yoockh/yoointerview/internal/logger"
	"github.com/yoockh/yoointerview/internal/models"
	"github.com/yoockh/yoointerview/internal/providers/llm"
	"github.com/yoockh/yoointerview/internal/questions"
	"github.com/yoockh/yoointerview/internal/utils"
)

func newQuestionService(p llm.Provider) QuestionService {
	return NewQuestionService(p, QuestionConfig{Probe: llm.ProbeConfig{Retries: 1}}, logger.Discard())
}

func TestQuestionServiceBuild_Validation(t *testing.T) {
	svc := newQuestionService(&scriptedLLM{})

	tests := []struct {
		name string
		req  QuestionRequest
	}{
		{"zero count", QuestionRequest{Count: 0, JobRole: "Backend Engineer"}},
		{"negative count", QuestionRequest{Count: -2, JobRole: "Backend Engineer"}},
		{"no role or description", QuestionRequest{Count: 3, JobRole: "  "}},
		{"supplied all blank", QuestionRequest{Supplied: []questions.Supplied{{Text: " "}, {Text: ""}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Build(context.Background(), tt.req)
			if !utils.IsCode(err, utils.CodeInvalidArgument) {
				t.Fatalf("want INVALID_ARGUMENT, got %v", err)
			}
		})
	}
}

func TestQuestionServiceBuild_SuppliedAreCleaned(t *testing.T) {
	svc := newQuestionService(nil)

	set, err := svc.Build(context.Background(), QuestionRequest{
		Count: 7, // ignored for supplied lists
		Supplied: []questions.Supplied{
			{Text: "  What is a goroutine?  "},
			{Text: ""},
			{Text: "Tell me about a time you disagreed with a teammate.", Type: "behavioral"},
		},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if set.Source != models.SourceCaller || set.UsedFallback {
		t.Fatalf("source=%q used_fallback=%v", set.Source, set.UsedFallback)
	}
	if len(set.Questions) != 2 {
		t.Fatalf("want 2 questions, got %d", len(set.Questions))
	}
	if got := set.Questions[0].Text; got != "What is a goroutine?" {
		t.Fatalf("question not trimmed: %q", got)
	}
	if set.Questions[1].Index != 1 || set.Questions[1].Type != models.QuestionTypeBehavioral {
		t.Fatalf("unexpected second question: %+v", set.Questions[1])
	}
}

func TestQuestionServiceBuild_ProviderQuestions(t *testing.T) {
	p := &scriptedLLM{reply: "```json\n[" +
		`{"text":"How would you design a rate limiter for a public API?","type":"technical"},` +
		`{"text":"Tell me about a time you handled a production outage","type":"behavioral"},` +
		`{"text":"Which trade-offs matter when choosing between SQL and NoSQL?","type":"technical"}` +
		"]\n```"}
	svc := newQuestionService(p)

	set, err := svc.Build(context.Background(), QuestionRequest{Count: 3, JobRole: "Backend Engineer"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if set.Source != models.SourceAI || set.UsedFallback {
		t.Fatalf("source=%q used_fallback=%v reason=%q", set.Source, set.UsedFallback, set.FallbackReason)
	}
	if len(set.Questions) != 3 {
		t.Fatalf("want 3 questions, got %d", len(set.Questions))
	}
	if !strings.HasSuffix(set.Questions[1].Text, "?") {
		t.Fatalf("question mark not ensured: %q", set.Questions[1].Text)
	}
	for i, q := range set.Questions {
		if q.Index != i || q.Source != models.SourceAI {
			t.Fatalf("question %d: %+v", i, q)
		}
	}
}

func TestQuestionServiceBuild_FallbackReasons(t *testing.T) {
	tests := []struct {
		name     string
		provider llm.Provider
		count    int
		want     int
	}{
		{"no provider", nil, 3, 3},
		{"probe fails", &scriptedLLM{pingErr: errors.New("connection refused")}, 4, 4},
		{"generate fails", &scriptedLLM{err: errors.New("boom")}, 5, 5},
		{"too few parsed", &scriptedLLM{reply: `[{"text":"What is Go used for in backend services?"}]`}, 3, 3},
		{"count capped", &scriptedLLM{err: errors.New("boom")}, 50, MaxQuestionCount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newQuestionService(tt.provider)
			set, err := svc.Build(context.Background(), QuestionRequest{
				Count:          tt.count,
				JobRole:        "Data Engineer",
				JobDescription: "Build pipelines with Spark, Kafka and Airflow.",
			})
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			if !set.UsedFallback || set.Source != models.SourceFallback || set.FallbackReason == "" {
				t.Fatalf("want fallback with reason, got %+v", set)
			}
			if len(set.Questions) != tt.want {
				t.Fatalf("want %d questions, got %d", tt.want, len(set.Questions))
			}
			for _, q := range set.Questions {
				if strings.TrimSpace(q.Text) == "" || q.Source != models.SourceFallback {
					t.Fatalf("bad fallback question: %+v", q)
				}
			}
		})
	}
}
