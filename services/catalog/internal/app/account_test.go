package app

import (
	"context"
	"errors"
	"testing"

	"bookstore/pkg/auth"
)

func TestRegisterSendsConfirmationEmail(t *testing.T) {
	env := newTestEnv(t, 10)
	userID := env.registerUser(t, "alice", "alice@example.com")

	msgs := env.mail.Messages()
	if len(msgs) != 1 {
		t.Fatalf("messages = %d, want 1", len(msgs))
	}
	if msgs[0].To != "alice@example.com" || msgs[0].Subject != "Confirm your email" {
		t.Fatalf("unexpected message: %+v", msgs[0])
	}

	href := anchorHref(t, msgs[0].Body)
	if href.Path != "/api/Account/confirm-email" {
		t.Fatalf("callback path = %q", href.Path)
	}
	if got := href.Query().Get("userId"); got != userID {
		t.Fatalf("callback userId = %q, want %q", got, userID)
	}
	if href.Query().Get("token") == "" {
		t.Fatal("callback token is empty")
	}
}

func TestRegisterThenConfirmEmail(t *testing.T) {
	env := newTestEnv(t, 10)
	userID := env.registerUser(t, "alice", "alice@example.com")

	href := anchorHref(t, env.mail.Messages()[0].Body)
	err := env.app.ConfirmEmail(context.Background(), ConfirmEmailCommand{
		UserID: href.Query().Get("userId"),
		Token:  href.Query().Get("token"),
	})
	if err != nil {
		t.Fatalf("confirm email: %v", err)
	}
	user, ok, err := env.store.GetUserByID(context.Background(), userID)
	if err != nil || !ok {
		t.Fatalf("user missing: %v", err)
	}
	if !user.EmailConfirmed {
		t.Fatal("email should be confirmed")
	}
}

func TestConfirmEmailRejectsForeignToken(t *testing.T) {
	env := newTestEnv(t, 10)
	env.registerUser(t, "alice", "alice@example.com")
	env.registerUser(t, "bob", "bob@example.com")

	msgs := env.mail.Messages()
	aliceHref := anchorHref(t, msgs[0].Body)
	bobHref := anchorHref(t, msgs[1].Body)

	// alice's token against bob's user id
	err := env.app.ConfirmEmail(context.Background(), ConfirmEmailCommand{
		UserID: bobHref.Query().Get("userId"),
		Token:  aliceHref.Query().Get("token"),
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestRegisterDuplicates(t *testing.T) {
	env := newTestEnv(t, 10)
	env.registerUser(t, "alice", "alice@example.com")

	ctx := context.Background()
	err := env.app.Register(ctx, RegisterCommand{
		Username: "alice", Email: "other@example.com", Password: "Str0ngPassword",
	})
	if !errors.Is(err, ErrUserExists) {
		t.Fatalf("duplicate username: expected ErrUserExists, got %v", err)
	}
	err = env.app.Register(ctx, RegisterCommand{
		Username: "alice2", Email: "alice@example.com", Password: "Str0ngPassword",
	})
	if !errors.Is(err, ErrUserExists) {
		t.Fatalf("duplicate email: expected ErrUserExists, got %v", err)
	}
}

func TestRegisterWeakPassword(t *testing.T) {
	env := newTestEnv(t, 10)
	err := env.app.Register(context.Background(), RegisterCommand{
		Username: "alice", Email: "alice@example.com", Password: "short",
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestRegisterSurvivesMailFailure(t *testing.T) {
	env := newTestEnv(t, 10)
	env.mail.FailWith(errors.New("smtp down"))

	err := env.app.Register(context.Background(), RegisterCommand{
		Username: "alice", Email: "alice@example.com", Password: "Str0ngPassword",
		BaseURL: "https://shop.example.com",
	})
	if !errors.Is(err, ErrMailNotSent) {
		t.Fatalf("expected ErrMailNotSent, got %v", err)
	}
	// The account is committed even though the notification failed.
	if _, ok, _ := env.store.GetUserByUsername(context.Background(), "alice"); !ok {
		t.Fatal("user should be saved despite mail failure")
	}
}

func TestPasswordResetFlow(t *testing.T) {
	env := newTestEnv(t, 10)
	userID := env.registerUser(t, "alice", "alice@example.com")

	ctx := context.Background()

	// Unconfirmed accounts cannot reset.
	err := env.app.RequestPasswordReset(ctx, RequestPasswordResetCommand{
		Email: "alice@example.com", BaseURL: "https://shop.example.com",
	})
	if !errors.Is(err, ErrMailNotConfirmed) {
		t.Fatalf("expected ErrMailNotConfirmed, got %v", err)
	}

	if err := env.store.SetEmailConfirmed(ctx, userID); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	err = env.app.RequestPasswordReset(ctx, RequestPasswordResetCommand{
		Email: "alice@example.com", BaseURL: "https://shop.example.com",
	})
	if err != nil {
		t.Fatalf("request reset: %v", err)
	}

	msgs := env.mail.Messages()
	last := msgs[len(msgs)-1]
	if last.Subject != "Reset Password" {
		t.Fatalf("subject = %q", last.Subject)
	}
	href := anchorHref(t, last.Body)
	if href.Path != "/api/Account/reset-password-token" {
		t.Fatalf("callback path = %q", href.Path)
	}

	err = env.app.ResetPassword(ctx, ResetPasswordCommand{
		Email:       href.Query().Get("email"),
		Token:       href.Query().Get("token"),
		NewPassword: "N3wPassword!",
	})
	if err != nil {
		t.Fatalf("reset password: %v", err)
	}
	user, _, _ := env.store.GetUserByID(ctx, userID)
	if !auth.CheckPassword("N3wPassword!", user.PasswordHash) {
		t.Fatal("new password should verify against stored hash")
	}
}

func TestPasswordResetUnknownEmail(t *testing.T) {
	env := newTestEnv(t, 10)
	err := env.app.RequestPasswordReset(context.Background(), RequestPasswordResetCommand{
		Email: "nobody@example.com", BaseURL: "https://shop.example.com",
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResetPasswordRejectsConfirmationToken(t *testing.T) {
	env := newTestEnv(t, 10)
	env.registerUser(t, "alice", "alice@example.com")

	// confirmation token must not work for password reset
	href := anchorHref(t, env.mail.Messages()[0].Body)
	err := env.app.ResetPassword(context.Background(), ResetPasswordCommand{
		Email:       "alice@example.com",
		Token:       href.Query().Get("token"),
		NewPassword: "N3wPassword!",
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
