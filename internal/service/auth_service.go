package service

import (
	"context"
	"fmt"

	"pos-service/internal/notify"
	"pos-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuthService opens and closes terminal sessions
type AuthService struct {
	users      *UserService
	identities IdentityStore
	sessions   *SessionRegistry
	config     SessionConfig
	logger     *zap.Logger
}

// NewAuthService creates the session manager
func NewAuthService(users *UserService, identities IdentityStore, sessions *SessionRegistry, cfg SessionConfig) *AuthService {
	return &AuthService{
		users:      users,
		identities: identities,
		sessions:   sessions,
		config:     cfg,
		logger:     util.GetLogger(),
	}
}

// Login opens a session for the active user with email. The password is
// not checked against anything; the user directory carries none.
func (a *AuthService) Login(ctx context.Context, email, password string) (*Session, bool, error) {
	ctx, span := util.StartSpan(ctx, "AuthService.Login")
	defer span.End()

	user, ok := a.users.FindActiveByEmail(email)
	if !ok {
		util.LoginsTotal.WithLabelValues("rejected").Inc()
		a.notifier().Notify(notify.Failure("Login Failed", "Invalid credentials or inactive account"))
		a.logger.Info("Login rejected", zap.String("email", email))
		return nil, false, nil
	}

	s := newSession(uuid.New().String(), user.Identity(), a.config)
	if err := a.identities.SaveIdentity(ctx, s.ID, s.User); err != nil {
		util.LoginsTotal.WithLabelValues("error").Inc()
		a.logger.Error("Failed to persist identity", zap.String("session_id", s.ID), zap.Error(err))
		return nil, false, fmt.Errorf("failed to persist identity: %w", err)
	}
	a.sessions.put(s)

	util.LoginsTotal.WithLabelValues("ok").Inc()
	a.logger.Info("User logged in",
		zap.String("session_id", s.ID),
		zap.String("user_id", user.ID),
		zap.String("role", string(user.Role)))
	s.Caller().notify(notify.Success("Login Successful", "Welcome to POS System"))
	return s, true, nil
}

// Restore returns the open session with sessionID, rebuilding it from the
// persisted identity after a restart. A rebuilt session starts empty.
func (a *AuthService) Restore(ctx context.Context, sessionID string) (*Session, error) {
	if s, err := a.sessions.Get(sessionID); err == nil {
		return s, nil
	}

	ctx, span := util.StartSessionSpan(ctx, "AuthService.Restore", sessionID)
	defer span.End()

	identity, err := a.identities.LoadIdentity(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to restore session %s: %w", sessionID, err)
	}
	s := newSession(sessionID, identity, a.config)
	if open := a.sessions.putIfAbsent(s); open != s {
		return open, nil
	}
	a.logger.Info("Session restored", zap.String("session_id", sessionID), zap.String("user_id", identity.ID))
	return s, nil
}

// Logout drops the session and its persisted identity
func (a *AuthService) Logout(ctx context.Context, sessionID string) error {
	ctx, span := util.StartSessionSpan(ctx, "AuthService.Logout", sessionID)
	defer span.End()

	a.sessions.remove(sessionID)
	if err := a.identities.DeleteIdentity(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete identity: %w", err)
	}
	a.logger.Info("User logged out", zap.String("session_id", sessionID))
	return nil
}

// Session returns an open session without restoring it
func (a *AuthService) Session(sessionID string) (*Session, error) {
	return a.sessions.Get(sessionID)
}

func (a *AuthService) notifier() notify.Notifier {
	if a.config.Notifier != nil {
		return a.config.Notifier
	}
	return notify.Discard
}
