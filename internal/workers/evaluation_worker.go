package workers

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/yoointerview/internal/cache"
	"github.com/yoockh/yoointerview/internal/services"
)

const (
	DefaultStream = "interview:evaluations"
	DefaultGroup  = "evaluation-workers"
)

// Evaluation progress published on StatusChannel.
const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Broker is the part of the Redis client used to queue evaluations and
// announce their progress.
type Broker interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

func StatusChannel(sessionID string) string {
	return "session:" + sessionID + ":status"
}

type StatusEvent struct {
	Type      string   `json:"type"`
	SessionID string   `json:"session_id"`
	Status    string   `json:"status"`
	Message   string   `json:"message,omitempty"`
	Average   *float64 `json:"average_score,omitempty"`
}

func publishStatus(ctx context.Context, b Broker, ev StatusEvent) error {
	ev.Type = "status"
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.Publish(ctx, StatusChannel(ev.SessionID), string(payload)).Err()
}

// StreamTrigger queues a session for evaluation at most once per claim: the
// claim key is held until the evaluation fails or expires.
type StreamTrigger struct {
	Broker   Broker
	Claims   cache.Cache
	Stream   string
	ClaimTTL time.Duration
	Logger   *logrus.Logger
}

func (t *StreamTrigger) Trigger(ctx context.Context, sessionID string) error {
	if t.Broker == nil || t.Claims == nil {
		return errors.New("StreamTrigger missing dependency: Broker/Claims must be set")
	}
	stream := t.Stream
	if stream == "" {
		stream = DefaultStream
	}
	ttl := t.ClaimTTL
	if ttl <= 0 {
		ttl = time.Hour
	}

	claimed, err := t.Claims.Claim(ctx, cache.EvaluationKey(sessionID), ttl)
	if err != nil {
		return err
	}
	if !claimed {
		if t.Logger != nil {
			t.Logger.WithField("session_id", sessionID).Debug("evaluation already queued")
		}
		return nil
	}

	err = t.Broker.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]any{
			"session_id": sessionID,
			"ts_unix":    strconv.FormatInt(time.Now().UTC().Unix(), 10),
		},
	}).Err()
	if err != nil {
		_ = t.Claims.Del(ctx, cache.EvaluationKey(sessionID))
		return err
	}

	_ = publishStatus(ctx, t.Broker, StatusEvent{SessionID: sessionID, Status: StatusQueued, Message: "evaluation queued"})
	return nil
}

// EvaluationWorkerPool consumes the evaluation stream and finalizes sessions.
type EvaluationWorkerPool struct {
	Redis      *redis.Client
	Broker     Broker // defaults to Redis
	Results    services.ResultService
	Claims     cache.Cache
	NumWorkers int

	Logger *logrus.Logger

	Stream         string
	Group          string
	ConsumerPrefix string

	wg sync.WaitGroup
}

func (p *EvaluationWorkerPool) Start(ctx context.Context) error {
	if p.Redis == nil || p.Results == nil {
		return errors.New("EvaluationWorkerPool missing dependency: Redis/Results must be set")
	}
	if p.Broker == nil {
		p.Broker = p.Redis
	}
	if p.Stream == "" {
		p.Stream = DefaultStream
	}
	if p.Group == "" {
		p.Group = DefaultGroup
	}
	if p.ConsumerPrefix == "" {
		p.ConsumerPrefix = "eval"
	}
	if p.NumWorkers <= 0 {
		p.NumWorkers = 2
	}
	if p.Logger == nil {
		p.Logger = logrus.New()
	}

	_ = p.Redis.XGroupCreateMkStream(ctx, p.Stream, p.Group, "0").Err() // ignore BUSYGROUP

	for i := 0; i < p.NumWorkers; i++ {
		consumer := p.ConsumerPrefix + "-" + strconv.Itoa(i+1)
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.runConsumer(ctx, consumer)
		}()
	}
	return nil
}

// Wait blocks until every consumer has returned after ctx cancellation.
func (p *EvaluationWorkerPool) Wait() { p.wg.Wait() }

func (p *EvaluationWorkerPool) runConsumer(ctx context.Context, consumer string) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := p.Redis.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    p.Group,
			Consumer: consumer,
			Streams:  []string{p.Stream, ">"},
			Count:    1,
			Block:    5 * time.Second,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			p.Logger.WithError(err).WithField("consumer", consumer).Warn("evaluation stream read failed")
			time.Sleep(500 * time.Millisecond)
			continue
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				p.handleMsg(ctx, msg)
				_ = p.Redis.XAck(ctx, p.Stream, p.Group, msg.ID).Err()
			}
		}
	}
}

func (p *EvaluationWorkerPool) handleMsg(ctx context.Context, msg redis.XMessage) {
	sessionID, _ := msg.Values["session_id"].(string)
	if sessionID == "" {
		return
	}

	log := p.Logger.WithFields(logrus.Fields{
		"redis_id":   msg.ID,
		"session_id": sessionID,
	})

	_ = publishStatus(ctx, p.Broker, StatusEvent{SessionID: sessionID, Status: StatusProcessing, Message: "evaluating answers"})

	start := time.Now()
	res, err := p.Results.Finalize(ctx, sessionID)
	if err != nil {
		log.WithError(err).Error("evaluation failed")
		// release the claim so the session can be queued or finalized again
		if p.Claims != nil {
			_ = p.Claims.Del(ctx, cache.EvaluationKey(sessionID))
		}
		_ = publishStatus(ctx, p.Broker, StatusEvent{SessionID: sessionID, Status: StatusFailed, Message: "evaluation failed"})
		return
	}

	avg := res.Scores.Data().Average
	log.WithFields(logrus.Fields{
		"average":       avg,
		"processing_ms": time.Since(start).Milliseconds(),
	}).Info("evaluation completed")
	_ = publishStatus(ctx, p.Broker, StatusEvent{SessionID: sessionID, Status: StatusCompleted, Message: "result ready", Average: &avg})
}
