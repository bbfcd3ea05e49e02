package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/yoockh/yoointerview/internal/cache"
	"github.com/yoockh/yoointerview/internal/models"
	"github.com/yoockh/yoointerview/internal/providers/llm"
	"github.com/yoockh/yoointerview/internal/utils"
)

type memSessions struct {
	mu   sync.Mutex
	rows map[string]*models.Session
}

func newMemSessions() *memSessions { return &memSessions{rows: map[string]*models.Session{}} }

func clone(s *models.Session) *models.Session {
	c := *s
	c.Questions = append([]models.Question(nil), s.Questions...)
	c.Responses = append([]models.Response(nil), s.Responses...)
	return &c
}

func (m *memSessions) Create(_ context.Context, s *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.Responses == nil {
		s.Responses = []models.Response{}
	}
	s.CreatedAt = time.Now().UTC()
	s.UpdatedAt = s.CreatedAt
	m.rows[s.SessionID] = clone(s)
	return nil
}

func (m *memSessions) GetBySessionID(_ context.Context, id string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	return clone(s), nil
}

func (m *memSessions) UpdateFields(_ context.Context, id string, u models.SessionUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[id]
	if !ok {
		return utils.ErrNotFound
	}
	if u.CurrentQuestion != nil {
		s.CurrentQuestion = *u.CurrentQuestion
	}
	if u.Status != nil {
		s.Status = *u.Status
	}
	if u.Responses != nil {
		s.Responses = append([]models.Response(nil), u.Responses...)
	}
	if u.CandidateName != nil {
		s.CandidateName = *u.CandidateName
	}
	if u.InterviewID != nil {
		s.InterviewID = *u.InterviewID
	}
	if u.InterviewTitle != nil {
		s.InterviewTitle = *u.InterviewTitle
	}
	return nil
}

func (m *memSessions) LinkResponse(_ context.Context, id string, r models.Response) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	replaced := false
	for i := range s.Responses {
		if s.Responses[i].QuestionIndex == r.QuestionIndex {
			s.Responses[i] = r
			replaced = true
		}
	}
	if !replaced {
		s.Responses = append(s.Responses, r)
	}
	if r.QuestionIndex+1 > s.CurrentQuestion {
		s.CurrentQuestion = r.QuestionIndex + 1
	}
	return clone(s), nil
}

func (m *memSessions) MarkCompleted(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[id]
	if !ok || s.Status == models.SessionStatusCompleted {
		return false, nil
	}
	s.Status = models.SessionStatusCompleted
	return true, nil
}

func (m *memSessions) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return utils.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

type memTranscripts struct {
	mu   sync.Mutex
	rows map[string]*models.Transcript
}

func newMemTranscripts() *memTranscripts {
	return &memTranscripts{rows: map[string]*models.Transcript{}}
}

func (m *memTranscripts) Insert(_ context.Context, t *models.Transcript) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *t
	m.rows[t.TranscriptID] = &c
	return nil
}

func (m *memTranscripts) GetByTranscriptID(_ context.Context, id string) (*models.Transcript, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.rows[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	c := *t
	return &c, nil
}

func (m *memTranscripts) ListBySession(_ context.Context, sessionID string, _ int64) ([]models.Transcript, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Transcript
	for _, t := range m.rows {
		if t.SessionID == sessionID {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionIndex < out[j].QuestionIndex })
	return out, nil
}

func (m *memTranscripts) DeleteBySession(_ context.Context, sessionID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, t := range m.rows {
		if t.SessionID == sessionID {
			delete(m.rows, id)
			n++
		}
	}
	return n, nil
}

type memResults struct {
	mu      sync.Mutex
	rows    map[string]*models.InterviewResult
	upserts int
}

func newMemResults() *memResults { return &memResults{rows: map[string]*models.InterviewResult{}} }

func (m *memResults) GetBySessionID(_ context.Context, id string) (*models.InterviewResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	c := *r
	return &c, nil
}

// Upsert mirrors the ON CONFLICT clause: id, status and created_at survive.
func (m *memResults) Upsert(_ context.Context, res *models.InterviewResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts++
	c := *res
	if old, ok := m.rows[res.SessionID]; ok {
		c.ID = old.ID
		c.Status = old.Status
		c.CreatedAt = old.CreatedAt
	}
	m.rows[res.SessionID] = &c
	return nil
}

func (m *memResults) UpdateStatus(_ context.Context, id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return utils.ErrNotFound
	}
	r.Status = status
	return nil
}

func (m *memResults) DeleteBySessionID(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return utils.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memResults) ListByCandidate(_ context.Context, candidateID string, _ int) ([]models.InterviewResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.InterviewResult
	for _, r := range m.rows {
		if r.CandidateID == candidateID {
			out = append(out, *r)
		}
	}
	return out, nil
}

// scriptedLLM answers every Generate with reply, or fails with err.
type scriptedLLM struct {
	mu      sync.Mutex
	reply   string
	err     error
	pingErr error
	calls   int
}

func (p *scriptedLLM) Generate(context.Context, string, llm.Options) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return p.reply, p.err
}

func (p *scriptedLLM) Ping(context.Context) error { return p.pingErr }
func (p *scriptedLLM) Name() string               { return "scripted" }
func (p *scriptedLLM) Close() error               { return nil }

// recordingTrigger counts calls and, on success, holds the evaluation claim
// in claims like the stream trigger does.
type recordingTrigger struct {
	mu     sync.Mutex
	ids    []string
	err    error
	claims *memCache
}

func (t *recordingTrigger) Trigger(ctx context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ids = append(t.ids, id)
	if t.err != nil {
		return t.err
	}
	if t.claims != nil {
		_, _ = t.claims.Claim(ctx, cache.EvaluationKey(id), time.Hour)
	}
	return nil
}

func (t *recordingTrigger) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.ids)
}

type memCache struct {
	mu   sync.Mutex
	vals map[string]any
}

func newMemCache() *memCache { return &memCache{vals: map[string]any{}} }

func (c *memCache) GetJSON(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.vals[key]
	if !ok {
		return false, nil
	}
	r, ok := v.(*models.InterviewResult)
	d, ok2 := dst.(*models.InterviewResult)
	if !ok || !ok2 {
		return false, errors.New("memCache: unsupported type")
	}
	*d = *r
	return true, nil
}

func (c *memCache) SetJSON(_ context.Context, key string, val any, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if r, ok := val.(*models.InterviewResult); ok {
		cp := *r
		c.vals[key] = &cp
		return nil
	}
	c.vals[key] = val
	return nil
}

func (c *memCache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.vals, k)
	}
	return nil
}

func (c *memCache) Claim(_ context.Context, key string, _ time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.vals[key]; ok {
		return false, nil
	}
	c.vals[key] = true
	return true, nil
}

func (c *memCache) Claimed(_ context.Context, key string) (bool, error) {
	return c.has(key), nil
}

func (c *memCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.vals[key]
	return ok
}
