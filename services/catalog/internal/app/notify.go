package app

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"bookstore/internal/util"
	"bookstore/pkg/domain"
	"bookstore/pkg/token"
)

const (
	confirmEmailSubject  = "Confirm your email"
	passwordResetSubject = "Reset Password"
)

// handleUserCreated sends the confirmation email for a freshly registered
// account. Registration already committed, so a vanished user or a
// half-configured environment is logged and dropped rather than failed: the
// account stays usable and confirmation can be re-requested.
func (a *App) handleUserCreated(ctx context.Context, event domain.UserCreated) error {
	logger := util.LoggerFromContext(ctx)

	user, ok, err := a.store.GetUserByUsername(ctx, event.Username)
	if err != nil {
		return fmt.Errorf("resolve user %q: %w", event.Username, err)
	}
	if !ok {
		logger.Warn("confirmation skipped, user no longer exists", "username", event.Username)
		return nil
	}

	tok, err := a.tokens.Generate(ctx, token.KindConfirmEmail, user)
	if err != nil {
		return fmt.Errorf("generate confirmation token: %w", err)
	}
	if tok == "" {
		logger.Warn("confirmation skipped, empty token", "user_id", user.ID)
		return nil
	}

	baseURL := strings.TrimSuffix(strings.TrimSpace(event.BaseURL), "/")
	if baseURL == "" {
		logger.Warn("confirmation skipped, no base url", "user_id", user.ID)
		return nil
	}

	callback := fmt.Sprintf("%s/api/Account/confirm-email?userId=%s&token=%s",
		baseURL, url.QueryEscape(user.ID), url.QueryEscape(tok))
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>Welcome! Please confirm your email address by clicking <a href=%q>here</a>.</p>",
		user.Username, callback)

	if err := a.mail.Send(ctx, user.Email, confirmEmailSubject, body); err != nil {
		return fmt.Errorf("%w: %s", ErrMailNotSent, err)
	}
	logger.Info("confirmation email sent", "user_id", user.ID)
	return nil
}

// handlePasswordResetRequested sends the reset email. Unlike registration,
// this path is strict: an unknown email or an unconfirmed account is an
// error the requester needs to see.
func (a *App) handlePasswordResetRequested(ctx context.Context, event domain.PasswordResetRequested) error {
	logger := util.LoggerFromContext(ctx)

	user, ok, err := a.store.GetUserByEmail(ctx, event.Email)
	if err != nil {
		return fmt.Errorf("resolve email %q: %w", event.Email, err)
	}
	if !ok {
		return fmt.Errorf("%w: no account for %s", ErrNotFound, event.Email)
	}
	if !user.EmailConfirmed {
		return fmt.Errorf("%w: %s", ErrMailNotConfirmed, event.Email)
	}

	tok, err := a.tokens.Generate(ctx, token.KindPasswordReset, user)
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}

	baseURL := strings.TrimSuffix(strings.TrimSpace(event.BaseURL), "/")
	callback := fmt.Sprintf("%s/api/Account/reset-password-token?token=%s&email=%s",
		baseURL, url.QueryEscape(tok), url.QueryEscape(user.Email))
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>To reset your password, click <a href=%q>here</a>. If you did not ask for this, ignore this message.</p>",
		user.Username, callback)

	if err := a.mail.Send(ctx, user.Email, passwordResetSubject, body); err != nil {
		return fmt.Errorf("%w: %s", ErrMailNotSent, err)
	}
	logger.Info("password reset email sent", "user_id", user.ID)
	return nil
}
