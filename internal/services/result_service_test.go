package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/yoockh/yoointerview/internal/cache"
	"github.com/yoockh/yoointerview/internal/logger"
	"github.com/yoockh/yoointerview/internal/models"
	"github.com/yoockh/yoointerview/internal/scoring"
	"github.com/yoockh/yoointerview/internal/utils"
)

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

func TestFinalize_NotReadyWhileActive(t *testing.T) {
	h := newHarness(t)
	sess := h.start(t, threeQuestions...)
	h.answer(t, sess.SessionID, 0, "only one answer so far")

	_, err := h.resultSvc.Finalize(context.Background(), sess.SessionID)
	if !utils.IsCode(err, utils.CodeNotReady) {
		t.Fatalf("want NOT_READY, got %v", err)
	}
	if len(h.results.rows) != 0 {
		t.Fatal("result written for an active session")
	}
}

func TestFinalize_UnknownSession(t *testing.T) {
	h := newHarness(t)
	_, err := h.resultSvc.Finalize(context.Background(), "missing")
	if !utils.IsCode(err, utils.CodeNotFound) {
		t.Fatalf("want NOT_FOUND, got %v", err)
	}
}

func TestFinalize_FallbackScoringWhenProviderFails(t *testing.T) {
	h := newHarness(t)
	sess := h.start(t, threeQuestions...)
	h.answer(t, sess.SessionID, 0, words(3))  // 2
	h.answer(t, sess.SessionID, 1, words(10)) // 4
	if _, err := h.responseSvc.Submit(context.Background(), sess.SessionID, 2, ""); err != nil {
		t.Fatal(err) // skip placeholder has six words: 4
	}

	res, err := h.resultSvc.Finalize(context.Background(), sess.SessionID)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	scores := res.Scores.Data()
	if scores.Average != 3.3 {
		t.Fatalf("want average 3.3, got %v", scores.Average)
	}
	if len(res.Feedback) != 3 || len(res.Answers) != 3 || len(res.Questions) != 3 {
		t.Fatalf("feedback=%d answers=%d questions=%d", len(res.Feedback), len(res.Answers), len(res.Questions))
	}
	for i, f := range res.Feedback {
		if f.QuestionIndex != i || f.Source != scoring.SourceFallback {
			t.Fatalf("feedback %d: %+v", i, f)
		}
		if f.Score < scoring.MinScore || f.Score > scoring.MaxScore {
			t.Fatalf("score out of range: %v", f.Score)
		}
	}
	if res.Answers[2].Transcript != models.SkippedAnswer {
		t.Fatalf("skip not carried into answers: %q", res.Answers[2].Transcript)
	}
	if res.Status != models.ResultStatusCompleted || res.CandidateName != "Ada" {
		t.Fatalf("unexpected result header: status=%s name=%s", res.Status, res.CandidateName)
	}
	if res.Summary != "Interview completed with average score of 3.3/10" {
		t.Fatalf("summary: %q", res.Summary)
	}
}

func TestFinalize_RubricScoring(t *testing.T) {
	h := newHarness(t)
	h.provider.err = nil
	h.provider.reply = "Score: 8\nFeedback: Clear and specific.\nStrengths: Concrete example\nAreas for improvement: Mention trade-offs"
	sess := h.start(t, "Single question?")
	h.answer(t, sess.SessionID, 0, "a thoughtful answer")

	res, err := h.resultSvc.Finalize(context.Background(), sess.SessionID)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	f := res.Feedback[0]
	if f.Score != 8 || f.Source != scoring.SourceAI || f.Feedback != "Clear and specific." {
		t.Fatalf("unexpected feedback: %+v", f)
	}
	if res.Scores.Data().Average != 8 {
		t.Fatalf("average: %v", res.Scores.Data().Average)
	}
}

func TestFinalize_IdempotentAndPreservesStatus(t *testing.T) {
	h := newHarness(t)
	sess := h.start(t, "Single question?")
	h.answer(t, sess.SessionID, 0, "answer")
	ctx := context.Background()

	first, err := h.resultSvc.Finalize(ctx, sess.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if err := h.resultSvc.SetStatus(ctx, sess.SessionID, models.ResultStatusAccepted); err != nil {
		t.Fatal(err)
	}
	second, err := h.resultSvc.Finalize(ctx, sess.SessionID)
	if err != nil {
		t.Fatal(err)
	}

	if len(h.results.rows) != 1 {
		t.Fatalf("want one row, got %d", len(h.results.rows))
	}
	if second.ID != first.ID || !second.CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("identity changed: %s/%v -> %s/%v", first.ID, first.CreatedAt, second.ID, second.CreatedAt)
	}
	if second.Status != models.ResultStatusAccepted {
		t.Fatalf("status overwritten: %s", second.Status)
	}
}

func TestFinalize_MissingTranscriptPlaceholder(t *testing.T) {
	h := newHarness(t)
	sess := h.start(t, "Single question?")
	out := h.answer(t, sess.SessionID, 0, "will vanish")
	delete(h.transcripts.rows, out.TranscriptID)

	res, err := h.resultSvc.Finalize(context.Background(), sess.SessionID)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if res.Answers[0].Transcript != missingTranscript {
		t.Fatalf("want placeholder, got %q", res.Answers[0].Transcript)
	}
	if res.Feedback[0].Score != 2 {
		t.Fatalf("want short-answer score 2, got %v", res.Feedback[0].Score)
	}
}

func TestGetResult_States(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if _, err := h.resultSvc.Get(ctx, "missing"); !utils.IsCode(err, utils.CodeNotFound) {
		t.Fatalf("unknown session: want NOT_FOUND, got %v", err)
	}

	sess := h.start(t, "Q0?", "Q1?")
	if _, err := h.resultSvc.Get(ctx, sess.SessionID); !utils.IsCode(err, utils.CodeNotFound) {
		t.Fatalf("active session: want NOT_FOUND, got %v", err)
	}

	h.answer(t, sess.SessionID, 0, "a")
	h.answer(t, sess.SessionID, 1, "b")
	lookup, err := h.resultSvc.Get(ctx, sess.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if !lookup.Processing || lookup.Result != nil || lookup.CandidateID != "cand-1" {
		t.Fatalf("want processing, got %+v", lookup)
	}

	if _, err := h.resultSvc.Finalize(ctx, sess.SessionID); err != nil {
		t.Fatal(err)
	}
	lookup, err = h.resultSvc.Get(ctx, sess.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if lookup.Processing || lookup.Result == nil || lookup.Result.SessionID != sess.SessionID {
		t.Fatalf("want stored result, got %+v", lookup)
	}
}

func TestResultService_SetStatusValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if err := h.resultSvc.SetStatus(ctx, "s", "archived"); !utils.IsCode(err, utils.CodeInvalidArgument) {
		t.Fatalf("want INVALID_ARGUMENT, got %v", err)
	}
	if err := h.resultSvc.SetStatus(ctx, "missing", models.ResultStatusRejected); !utils.IsCode(err, utils.CodeNotFound) {
		t.Fatalf("want NOT_FOUND, got %v", err)
	}
}

func TestResultService_DeleteCascades(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sess := h.start(t, "Single question?")
	h.answer(t, sess.SessionID, 0, "answer")
	if _, err := h.resultSvc.Finalize(ctx, sess.SessionID); err != nil {
		t.Fatal(err)
	}
	if !h.cache.has(cache.ResultKey(sess.SessionID)) {
		t.Fatal("finalized result not cached")
	}

	if err := h.resultSvc.Delete(ctx, sess.SessionID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := h.sessions.GetBySessionID(ctx, sess.SessionID); err == nil {
		t.Fatal("session survived result deletion")
	}
	if n, _ := h.transcripts.DeleteBySession(ctx, sess.SessionID); n != 0 {
		t.Fatalf("%d transcripts survived", n)
	}
	if h.cache.has(cache.ResultKey(sess.SessionID)) {
		t.Fatal("cached result survived deletion")
	}
	if err := h.resultSvc.Delete(ctx, sess.SessionID); !utils.IsCode(err, utils.CodeNotFound) {
		t.Fatalf("second delete: want NOT_FOUND, got %v", err)
	}
}

func TestResultService_ListForCandidate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		sess := h.start(t, "Single question?")
		h.answer(t, sess.SessionID, 0, "answer")
		if _, err := h.resultSvc.Finalize(ctx, sess.SessionID); err != nil {
			t.Fatal(err)
		}
	}

	items, err := h.resultSvc.ListForCandidate(ctx, "cand-1", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("want 2 results, got %d", len(items))
	}
	if _, err := h.resultSvc.ListForCandidate(ctx, "", 10); !utils.IsCode(err, utils.CodeInvalidArgument) {
		t.Fatalf("want INVALID_ARGUMENT, got %v", err)
	}
}

func TestGetResult_RequeuesEvaluationLostAtSubmit(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.trigger.err = errors.New("redis down")
	sess := h.start(t, "Single question?")
	h.answer(t, sess.SessionID, 0, "answer")
	if h.cache.has(cache.EvaluationKey(sess.SessionID)) {
		t.Fatal("claim held after a failed trigger")
	}

	h.trigger.err = nil
	h.answer(t, sess.SessionID, 0, "resubmitted answer")
	if h.trigger.count() != 1 {
		t.Fatalf("resubmission should not trigger, got %d", h.trigger.count())
	}

	lookup, err := h.resultSvc.Get(ctx, sess.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if !lookup.Processing || lookup.Failed {
		t.Fatalf("want processing, got %+v", lookup)
	}
	if h.trigger.count() != 2 || !h.cache.has(cache.EvaluationKey(sess.SessionID)) {
		t.Fatalf("evaluation not re-queued: triggers=%d", h.trigger.count())
	}

	if _, err := h.resultSvc.Get(ctx, sess.SessionID); err != nil {
		t.Fatal(err)
	}
	if h.trigger.count() != 2 {
		t.Fatalf("queued evaluation re-triggered: %d", h.trigger.count())
	}
}

func TestGetResult_RequeuesAfterReleasedClaim(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sess := h.start(t, "Q0?", "Q1?")
	h.answer(t, sess.SessionID, 0, "a")
	h.answer(t, sess.SessionID, 1, "b")

	if _, err := h.resultSvc.Get(ctx, sess.SessionID); err != nil {
		t.Fatal(err)
	}
	if h.trigger.count() != 1 {
		t.Fatalf("held claim should not re-trigger, got %d", h.trigger.count())
	}

	// a failed worker run releases the claim
	_ = h.cache.Del(ctx, cache.EvaluationKey(sess.SessionID))

	lookup, err := h.resultSvc.Get(ctx, sess.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if !lookup.Processing || h.trigger.count() != 2 {
		t.Fatalf("want re-queued processing, got %+v triggers=%d", lookup, h.trigger.count())
	}
}

func TestGetResult_FailedWhenEvaluationCannotBeQueued(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.trigger.err = errors.New("redis down")
	sess := h.start(t, "Single question?")
	h.answer(t, sess.SessionID, 0, "answer")

	lookup, err := h.resultSvc.Get(ctx, sess.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if lookup.Processing || !lookup.Failed || lookup.CandidateID != "cand-1" {
		t.Fatalf("want failed, got %+v", lookup)
	}

	noTrigger := NewResultService(h.sessionSvc, h.transcripts, h.results,
		NewEvaluationService(nil, EvaluationConfig{}, logger.Discard()), nil, h.cache, 0, logger.Discard())
	lookup, err = noTrigger.Get(ctx, sess.SessionID)
	if err != nil || !lookup.Failed {
		t.Fatalf("without a trigger: %+v %v", lookup, err)
	}

	if _, err := h.resultSvc.Finalize(ctx, sess.SessionID); err != nil {
		t.Fatalf("explicit finalize: %v", err)
	}
	lookup, err = h.resultSvc.Get(ctx, sess.SessionID)
	if err != nil || lookup.Result == nil {
		t.Fatalf("want stored result after finalize: %+v %v", lookup, err)
	}
}
