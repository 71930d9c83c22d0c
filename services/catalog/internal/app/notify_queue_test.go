package app

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"bookstore/pkg/domain"
	"bookstore/pkg/mail"
	"bookstore/pkg/queue"
	"bookstore/pkg/store"
	"bookstore/pkg/token"
)

func newQueuedEnv(t *testing.T) (*testEnv, *redis.Client) {
	t.Helper()
	srv := miniredis.RunT(t)
	q, err := queue.NewRedisEventQueue(queue.RedisEventQueueConfig{
		Addr:   srv.Addr(),
		Stream: "test:catalog:events",
	})
	if err != nil {
		t.Fatalf("new queue: %v", err)
	}
	codec, err := token.NewJWTCodec("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	env := &testEnv{
		store:  store.NewMemoryStore(),
		mail:   mail.NewMemorySender(),
		tokens: codec,
	}
	env.app, err = New(Config{
		Store:  env.store,
		Mail:   env.mail,
		Tokens: codec,
		Queue:  q,
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return env, redis.NewClient(&redis.Options{Addr: srv.Addr()})
}

func TestRegisterEnqueuesInsteadOfSending(t *testing.T) {
	env, client := newQueuedEnv(t)
	ctx := context.Background()

	err := env.app.Register(ctx, RegisterCommand{
		Username: "alice", Email: "alice@example.com", Password: "Str0ngPassword",
		BaseURL: "https://shop.example.com",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if got := len(env.mail.Messages()); got != 0 {
		t.Fatalf("no mail should be sent inline, got %d", got)
	}

	msgs, err := client.XRange(ctx, "test:catalog:events", "-", "+").Result()
	if err != nil {
		t.Fatalf("xrange: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("stream length = %d, want 1", len(msgs))
	}
	if kind, _ := msgs[0].Values["kind"].(string); kind != "user-created" {
		t.Fatalf("kind = %q, want user-created", kind)
	}
}

func TestDispatchEnvelopeSendsConfirmation(t *testing.T) {
	env, _ := newQueuedEnv(t)
	ctx := context.Background()
	env.registerUser(t, "alice", "alice@example.com")

	payload, err := json.Marshal(domain.UserCreated{
		Username: "alice", BaseURL: "https://shop.example.com",
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	err = env.app.dispatchEnvelope(ctx, queue.Envelope{
		ID: "evt-1", Kind: "user-created", Payload: payload,
	})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	msgs := env.mail.Messages()
	if len(msgs) != 1 || msgs[0].Subject != "Confirm your email" {
		t.Fatalf("unexpected messages: %+v", msgs)
	}
}

func TestDispatchEnvelopeMarksPermanentFailures(t *testing.T) {
	env, _ := newQueuedEnv(t)
	ctx := context.Background()

	payload, err := json.Marshal(domain.PasswordResetRequested{
		Email: "nobody@example.com", BaseURL: "https://shop.example.com",
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	err = env.app.dispatchEnvelope(ctx, queue.Envelope{
		ID: "evt-1", Kind: "password-reset-requested", Payload: payload,
	})
	if !errors.Is(err, queue.ErrPermanent) {
		t.Fatalf("unknown account should fail permanently, got %v", err)
	}

	err = env.app.dispatchEnvelope(ctx, queue.Envelope{
		ID: "evt-2", Kind: "user-created", Payload: []byte("not json"),
	})
	if !errors.Is(err, queue.ErrPermanent) {
		t.Fatalf("malformed payload should fail permanently, got %v", err)
	}
}

func TestDispatchEnvelopeDropsUnknownKind(t *testing.T) {
	env, _ := newQueuedEnv(t)
	err := env.app.dispatchEnvelope(context.Background(), queue.Envelope{
		ID: "evt-1", Kind: "mystery", Payload: []byte(`{}`),
	})
	if err != nil {
		t.Fatalf("unknown kinds must not be retried: %v", err)
	}
}
