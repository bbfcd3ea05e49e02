package mongo

import (
	"context"
	"errors"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/yoockh/yoointerview/internal/models"
	"github.com/yoockh/yoointerview/internal/utils"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// testDB connects to MONGO_URI and returns a throwaway database dropped at
// the end of the test.
func testDB(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		t.Fatalf("ping: %v", err)
	}

	db := client.Database("yoointerview_test_" + uuid.NewString()[:8])
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	return db
}

func newSession(t *testing.T, repo SessionRepository, questions int) *models.Session {
	t.Helper()
	s := &models.Session{
		SessionID:   uuid.NewString(),
		CandidateID: "cand-1",
		Status:      models.SessionStatusActive,
	}
	for i := 0; i < questions; i++ {
		s.Questions = append(s.Questions, models.Question{Index: i, Text: "Q" + strconv.Itoa(i) + "?"})
	}
	if err := repo.Create(context.Background(), s); err != nil {
		t.Fatalf("Create: %v", err)
	}
	return s
}

func responseFor(s *models.Session, idx int) *models.Response {
	for i := range s.Responses {
		if s.Responses[i].QuestionIndex == idx {
			return &s.Responses[i]
		}
	}
	return nil
}

func TestSessionRepo_LinkResponse(t *testing.T) {
	repo := NewSessionRepo(testDB(t))
	ctx := context.Background()
	sess := newSession(t, repo, 3)

	got, err := repo.LinkResponse(ctx, sess.SessionID, models.Response{QuestionIndex: 2, TranscriptID: "t-2"})
	if err != nil {
		t.Fatalf("link 2: %v", err)
	}
	if len(got.Responses) != 1 || got.CurrentQuestion != 3 {
		t.Fatalf("after index 2: responses=%d current=%d", len(got.Responses), got.CurrentQuestion)
	}

	got, err = repo.LinkResponse(ctx, sess.SessionID, models.Response{QuestionIndex: 0, TranscriptID: "t-0"})
	if err != nil {
		t.Fatalf("link 0: %v", err)
	}
	if len(got.Responses) != 2 || got.CurrentQuestion != 3 {
		t.Fatalf("progress moved backwards: responses=%d current=%d", len(got.Responses), got.CurrentQuestion)
	}

	got, err = repo.LinkResponse(ctx, sess.SessionID, models.Response{QuestionIndex: 0, TranscriptID: "t-0b"})
	if err != nil {
		t.Fatalf("relink 0: %v", err)
	}
	if len(got.Responses) != 2 {
		t.Fatalf("resubmission appended: %d responses", len(got.Responses))
	}
	if r := responseFor(got, 0); r == nil || r.TranscriptID != "t-0b" {
		t.Fatalf("index 0 not replaced: %+v", got.Responses)
	}
	if r := responseFor(got, 2); r == nil || r.TranscriptID != "t-2" {
		t.Fatalf("index 2 disturbed: %+v", got.Responses)
	}

	if _, err := repo.LinkResponse(ctx, "missing", models.Response{QuestionIndex: 0, TranscriptID: "t"}); !errors.Is(err, utils.ErrNotFound) {
		t.Fatalf("missing session: want ErrNotFound, got %v", err)
	}
}

func TestSessionRepo_ConcurrentLinksKeepOnePerIndex(t *testing.T) {
	repo := NewSessionRepo(testDB(t))
	ctx := context.Background()
	sess := newSession(t, repo, 4)

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.LinkResponse(ctx, sess.SessionID, models.Response{
				QuestionIndex: i % 4,
				TranscriptID:  "t-" + strconv.Itoa(i),
			})
			if err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("LinkResponse: %v", err)
	}

	got, err := repo.GetBySessionID(ctx, sess.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Responses) != 4 || got.CurrentQuestion != 4 {
		t.Fatalf("responses=%d current=%d", len(got.Responses), got.CurrentQuestion)
	}
	seen := map[int]bool{}
	for _, r := range got.Responses {
		if seen[r.QuestionIndex] {
			t.Fatalf("duplicate response for index %d: %+v", r.QuestionIndex, got.Responses)
		}
		seen[r.QuestionIndex] = true
	}
}

func TestSessionRepo_MarkCompletedOnce(t *testing.T) {
	repo := NewSessionRepo(testDB(t))
	ctx := context.Background()
	sess := newSession(t, repo, 1)

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.MarkCompleted(ctx, sess.SessionID)
			if err != nil {
				t.Errorf("MarkCompleted: %v", err)
				return
			}
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if wins != 1 {
		t.Fatalf("want exactly one transition, got %d", wins)
	}

	got, _ := repo.GetBySessionID(ctx, sess.SessionID)
	if got.Status != models.SessionStatusCompleted {
		t.Fatalf("status %s", got.Status)
	}
}

func TestTranscriptRepo_ListAndDelete(t *testing.T) {
	repo := NewTranscriptRepo(testDB(t))
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Millisecond)

	for i, idx := range []int{1, 0, 1} {
		err := repo.Insert(ctx, &models.Transcript{
			TranscriptID:  "t-" + strconv.Itoa(i),
			SessionID:     "s1",
			QuestionIndex: idx,
			Text:          "answer",
			Provenance:    models.TranscriptText,
			CreatedAt:     base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	items, err := repo.ListBySession(ctx, "s1", 0)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"t-1", "t-0", "t-2"}
	if len(items) != len(want) {
		t.Fatalf("got %d transcripts", len(items))
	}
	for i, id := range want {
		if items[i].TranscriptID != id {
			t.Fatalf("order: got %s at %d, want %s", items[i].TranscriptID, i, id)
		}
	}

	if _, err := repo.GetByTranscriptID(ctx, "missing"); !errors.Is(err, utils.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if n, err := repo.DeleteBySession(ctx, "s1"); err != nil || n != 3 {
		t.Fatalf("DeleteBySession: %d %v", n, err)
	}
}
