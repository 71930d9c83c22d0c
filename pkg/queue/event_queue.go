package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"bookstore/internal/util"
)

// ErrPermanent marks a delivery failure no retry can fix. Handlers wrap
// their error with it to send the message straight to the dead-letter
// stream instead of burning through the retry budget.
var ErrPermanent = errors.New("permanent delivery failure")

// Envelope is one serialized domain event in flight. Events themselves are
// never persisted; the stream only holds them between commit and delivery.
type Envelope struct {
	ID       string          `json:"id"`
	Kind     string          `json:"kind"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

// RedisEventQueue carries domain events from the surface that committed a
// change to the notification workers, with at-least-once delivery. Failed
// deliveries are retried and dead-lettered after maxRetries.
type RedisEventQueue struct {
	client       *redis.Client
	stream       string
	group        string
	consumerBase string
	maxRetries   int
	block        time.Duration
	claimIdle    time.Duration
	retryDelay   time.Duration
	maxLen       int64
	once         sync.Once
}

type RedisEventQueueConfig struct {
	Addr       string
	Password   string
	Stream     string
	Group      string
	Consumer   string
	MaxRetries int
	Block      time.Duration
	ClaimIdle  time.Duration
	RetryDelay time.Duration
	MaxLen     int64
}

func NewRedisEventQueue(cfg RedisEventQueueConfig) (*RedisEventQueue, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, errors.New("redis addr required")
	}
	stream := strings.TrimSpace(cfg.Stream)
	if stream == "" {
		return nil, errors.New("event stream required")
	}
	group := strings.TrimSpace(cfg.Group)
	if group == "" {
		group = "notifications"
	}
	consumer := strings.TrimSpace(cfg.Consumer)
	if consumer == "" {
		consumer = util.NewID()
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	block := cfg.Block
	if block <= 0 {
		block = 5 * time.Second
	}
	claimIdle := cfg.ClaimIdle
	if claimIdle <= 0 {
		claimIdle = 30 * time.Second
	}
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = 2 * time.Second
	}
	maxLen := cfg.MaxLen
	if maxLen <= 0 {
		maxLen = 10000
	}
	return &RedisEventQueue{
		client:       redis.NewClient(&redis.Options{Addr: addr, Password: cfg.Password}),
		stream:       stream,
		group:        group,
		consumerBase: consumer,
		maxRetries:   maxRetries,
		block:        block,
		claimIdle:    claimIdle,
		retryDelay:   retryDelay,
		maxLen:       maxLen,
	}, nil
}

// Enqueue serializes the event payload onto the stream.
func (q *RedisEventQueue) Enqueue(ctx context.Context, kind string, payload any) (Envelope, error) {
	kind = strings.TrimSpace(kind)
	if kind == "" {
		return Envelope{}, errors.New("event kind required")
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal event payload: %w", err)
	}
	env := Envelope{ID: util.NewID(), Kind: kind, Payload: raw}
	if err := q.add(ctx, env); err != nil {
		return Envelope{}, err
	}
	return env, nil
}

func (q *RedisEventQueue) add(ctx context.Context, env Envelope) error {
	return q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: q.stream,
		MaxLen: q.maxLen,
		Approx: true,
		Values: map[string]any{
			"event_id": env.ID,
			"kind":     env.Kind,
			"payload":  string(env.Payload),
			"attempts": strconv.Itoa(env.Attempts),
		},
	}).Err()
}

// Start launches concurrency consumer goroutines that run until ctx ends.
func (q *RedisEventQueue) Start(ctx context.Context, concurrency int, handler func(context.Context, Envelope) error) {
	if concurrency <= 0 {
		concurrency = 1
	}
	q.ensureGroup(ctx)
	for i := 0; i < concurrency; i++ {
		consumer := fmt.Sprintf("%s-%d", q.consumerBase, i)
		go q.consumeLoop(ctx, consumer, handler)
	}
}

func (q *RedisEventQueue) ensureGroup(ctx context.Context) {
	q.once.Do(func() {
		err := q.client.XGroupCreateMkStream(ctx, q.stream, q.group, "0").Err()
		if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
			slog.Warn("event queue group create failed", "stream", q.stream, "err", err)
		}
	})
}

func (q *RedisEventQueue) consumeLoop(ctx context.Context, consumer string, handler func(context.Context, Envelope) error) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if msgs, err := q.claimPending(ctx, consumer); err == nil {
			for _, msg := range msgs {
				q.handleMessage(ctx, msg, handler)
			}
		}

		streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    q.group,
			Consumer: consumer,
			Streams:  []string{q.stream, ">"},
			Count:    10,
			Block:    q.block,
		}).Result()
		if err != nil {
			continue
		}
		for _, stream := range streams {
			for _, msg := range stream.Messages {
				q.handleMessage(ctx, msg, handler)
			}
		}
	}
}

func (q *RedisEventQueue) claimPending(ctx context.Context, consumer string) ([]redis.XMessage, error) {
	res, _, err := q.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   q.stream,
		Group:    q.group,
		Consumer: consumer,
		MinIdle:  q.claimIdle,
		Start:    "0-0",
		Count:    10,
	}).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (q *RedisEventQueue) handleMessage(ctx context.Context, msg redis.XMessage, handler func(context.Context, Envelope) error) {
	env, ok := decodeEnvelope(msg)
	if !ok {
		q.ackAndDel(ctx, msg.ID)
		return
	}
	env.Attempts++
	err := handler(ctx, env)
	if err == nil {
		q.ackAndDel(ctx, msg.ID)
		return
	}
	if errors.Is(err, ErrPermanent) || env.Attempts >= q.maxRetries {
		slog.Error("event dead-lettered",
			"stream", q.stream, "kind", env.Kind, "event_id", env.ID,
			"attempts", env.Attempts, "err", err)
		_ = q.deadLetter(ctx, env)
		q.ackAndDel(ctx, msg.ID)
		return
	}
	slog.Warn("event delivery failed, requeueing",
		"stream", q.stream, "kind", env.Kind, "event_id", env.ID,
		"attempts", env.Attempts, "err", err)
	if q.retryDelay > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(q.retryDelay):
		}
	}
	_ = q.requeueAndAck(ctx, msg.ID, env)
}

func (q *RedisEventQueue) ackAndDel(ctx context.Context, msgID string) {
	_, _ = q.client.XAck(ctx, q.stream, q.group, msgID).Result()
	_, _ = q.client.XDel(ctx, q.stream, msgID).Result()
}

func (q *RedisEventQueue) requeueAndAck(ctx context.Context, msgID string, env Envelope) error {
	pipe := q.client.TxPipeline()
	pipe.XAdd(ctx, &redis.XAddArgs{
		Stream: q.stream,
		MaxLen: q.maxLen,
		Approx: true,
		Values: map[string]any{
			"event_id": env.ID,
			"kind":     env.Kind,
			"payload":  string(env.Payload),
			"attempts": strconv.Itoa(env.Attempts),
		},
	})
	pipe.XAck(ctx, q.stream, q.group, msgID)
	pipe.XDel(ctx, q.stream, msgID)
	_, err := pipe.Exec(ctx)
	return err
}

func (q *RedisEventQueue) deadLetter(ctx context.Context, env Envelope) error {
	return q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: q.stream + ":dead",
		MaxLen: q.maxLen,
		Approx: true,
		Values: map[string]any{
			"event_id": env.ID,
			"kind":     env.Kind,
			"payload":  string(env.Payload),
			"attempts": strconv.Itoa(env.Attempts),
		},
	}).Err()
}

func decodeEnvelope(msg redis.XMessage) (Envelope, bool) {
	id, _ := msg.Values["event_id"].(string)
	kind, _ := msg.Values["kind"].(string)
	payload, _ := msg.Values["payload"].(string)
	if id == "" || kind == "" {
		return Envelope{}, false
	}
	env := Envelope{ID: id, Kind: kind, Payload: json.RawMessage(payload)}
	if raw, _ := msg.Values["attempts"].(string); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			env.Attempts = n
		}
	}
	return env, true
}
