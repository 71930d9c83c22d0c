package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bookstore/internal/util"
	"bookstore/pkg/auth"
	"bookstore/pkg/domain"
	"bookstore/pkg/mediator"
	"bookstore/pkg/token"
)

func (a *App) handleRegister(ctx context.Context, cmd RegisterCommand) (mediator.Void, error) {
	username := strings.TrimSpace(cmd.Username)
	email := strings.ToLower(strings.TrimSpace(cmd.Email))
	if username == "" {
		return mediator.Void{}, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	if email == "" || !strings.Contains(email, "@") {
		return mediator.Void{}, fmt.Errorf("%w: a valid email is required", ErrInvalidInput)
	}
	if err := auth.ValidatePassword(cmd.Password); err != nil {
		return mediator.Void{}, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}

	if _, ok, err := a.store.GetUserByUsername(ctx, username); err != nil {
		return mediator.Void{}, fmt.Errorf("check username: %w", err)
	} else if ok {
		return mediator.Void{}, fmt.Errorf("%w: username %s", ErrUserExists, username)
	}
	if _, ok, err := a.store.GetUserByEmail(ctx, email); err != nil {
		return mediator.Void{}, fmt.Errorf("check email: %w", err)
	} else if ok {
		return mediator.Void{}, fmt.Errorf("%w: email %s", ErrUserExists, email)
	}

	hash, err := auth.HashPassword(cmd.Password)
	if err != nil {
		return mediator.Void{}, fmt.Errorf("hash password: %w", err)
	}
	now := time.Now().UTC()
	user := domain.User{
		ID:           util.NewID(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := a.store.SaveUser(ctx, user); err != nil {
		return mediator.Void{}, fmt.Errorf("save user: %w", err)
	}
	util.LoggerFromContext(ctx).Info("user registered", "user_id", user.ID, "username", username)

	// The account is committed regardless of what happens to the email.
	event := domain.UserCreated{Username: username, BaseURL: cmd.BaseURL}
	if err := a.publishEvent(ctx, eventKindUserCreated, event); err != nil {
		return mediator.Void{}, err
	}
	return mediator.Void{}, nil
}

func (a *App) handleConfirmEmail(ctx context.Context, cmd ConfirmEmailCommand) (mediator.Void, error) {
	userID := strings.TrimSpace(cmd.UserID)
	if userID == "" || strings.TrimSpace(cmd.Token) == "" {
		return mediator.Void{}, fmt.Errorf("%w: userId and token are required", ErrInvalidInput)
	}
	subject, err := a.tokens.Verify(ctx, token.KindConfirmEmail, cmd.Token)
	if err != nil || subject != userID {
		return mediator.Void{}, fmt.Errorf("%w: confirmation token rejected", ErrInvalidInput)
	}
	if _, ok, err := a.store.GetUserByID(ctx, userID); err != nil {
		return mediator.Void{}, fmt.Errorf("load user: %w", err)
	} else if !ok {
		return mediator.Void{}, fmt.Errorf("%w: user %s", ErrNotFound, userID)
	}
	if err := a.store.SetEmailConfirmed(ctx, userID); err != nil {
		return mediator.Void{}, fmt.Errorf("confirm email: %w", err)
	}
	util.LoggerFromContext(ctx).Info("email confirmed", "user_id", userID)
	return mediator.Void{}, nil
}

func (a *App) handleRequestPasswordReset(ctx context.Context, cmd RequestPasswordResetCommand) (mediator.Void, error) {
	email := strings.ToLower(strings.TrimSpace(cmd.Email))
	if email == "" {
		return mediator.Void{}, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	event := domain.PasswordResetRequested{Email: email, BaseURL: cmd.BaseURL}
	if err := a.publishEvent(ctx, eventKindPasswordReset, event); err != nil {
		return mediator.Void{}, err
	}
	return mediator.Void{}, nil
}

func (a *App) handleResetPassword(ctx context.Context, cmd ResetPasswordCommand) (mediator.Void, error) {
	email := strings.ToLower(strings.TrimSpace(cmd.Email))
	if email == "" || strings.TrimSpace(cmd.Token) == "" {
		return mediator.Void{}, fmt.Errorf("%w: email and token are required", ErrInvalidInput)
	}
	if err := auth.ValidatePassword(cmd.NewPassword); err != nil {
		return mediator.Void{}, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}
	subject, err := a.tokens.Verify(ctx, token.KindPasswordReset, cmd.Token)
	if err != nil {
		return mediator.Void{}, fmt.Errorf("%w: reset token rejected", ErrInvalidInput)
	}
	user, ok, err := a.store.GetUserByEmail(ctx, email)
	if err != nil {
		return mediator.Void{}, fmt.Errorf("load user: %w", err)
	}
	if !ok || user.ID != subject {
		return mediator.Void{}, fmt.Errorf("%w: reset token rejected", ErrInvalidInput)
	}
	hash, err := auth.HashPassword(cmd.NewPassword)
	if err != nil {
		return mediator.Void{}, fmt.Errorf("hash password: %w", err)
	}
	if err := a.store.SetPasswordHash(ctx, user.ID, hash); err != nil {
		return mediator.Void{}, fmt.Errorf("set password: %w", err)
	}
	util.LoggerFromContext(ctx).Info("password reset", "user_id", user.ID)
	return mediator.Void{}, nil
}
