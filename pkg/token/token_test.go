package token

import (
	"context"
	"errors"
	"testing"
	"time"

	"bookstore/pkg/domain"
)

func TestGenerateAndVerifyRoundTrip(t *testing.T) {
	codec, err := NewJWTCodec("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	user := domain.User{ID: "user-1", Email: "alice@example.com"}

	raw, err := codec.Generate(context.Background(), KindConfirmEmail, user)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if raw == "" {
		t.Fatal("expected non-empty token")
	}

	userID, err := codec.Verify(context.Background(), KindConfirmEmail, raw)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if userID != "user-1" {
		t.Fatalf("subject = %q, want user-1", userID)
	}
}

func TestVerifyRejectsWrongPurpose(t *testing.T) {
	codec, _ := NewJWTCodec("test-secret", time.Hour)
	raw, err := codec.Generate(context.Background(), KindConfirmEmail, domain.User{ID: "user-1"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := codec.Verify(context.Background(), KindPasswordReset, raw); !errors.Is(err, ErrWrongPurpose) {
		t.Fatalf("expected ErrWrongPurpose, got: %v", err)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer, _ := NewJWTCodec("secret-a", time.Hour)
	verifier, _ := NewJWTCodec("secret-b", time.Hour)
	raw, err := issuer.Generate(context.Background(), KindPasswordReset, domain.User{ID: "user-1"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := verifier.Verify(context.Background(), KindPasswordReset, raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got: %v", err)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	codec, _ := NewJWTCodec("test-secret", time.Hour)

	if _, err := codec.Verify(context.Background(), KindConfirmEmail, "not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got: %v", err)
	}
}

func TestNewJWTCodecRequiresSecret(t *testing.T) {
	if _, err := NewJWTCodec("  ", time.Hour); err == nil {
		t.Fatal("expected error for empty secret")
	}
}
