package service

import (
	"context"
	"errors"
	"fmt"

	"phone-storefront/internal/cache"
	"phone-storefront/internal/models"
	"phone-storefront/internal/session"
	"phone-storefront/internal/util"

	"go.uber.org/zap"
)

var errNoAccessToken = errors.New("authentication response has no access token")

// AuthAPI is the part of the backend used for sign-in
type AuthAPI interface {
	Authenticate(ctx context.Context, in models.AuthRequest) (models.AuthResponse, error)
	Register(ctx context.Context, in models.RegisterRequest) (models.AuthResponse, error)
	Me(ctx context.Context) (models.User, error)
}

// SessionService signs the user in and out
type SessionService struct {
	api    AuthAPI
	store  session.Store
	events cache.EventPublisher
	logger *zap.Logger
}

// NewSessionService creates a new session service
func NewSessionService(api AuthAPI, store session.Store, events cache.EventPublisher) *SessionService {
	return &SessionService{
		api:    api,
		store:  store,
		events: events,
		logger: util.Named("session"),
	}
}

// Login authenticates and stores the access token
func (s *SessionService) Login(ctx context.Context, in models.AuthRequest) (models.AuthResponse, error) {
	ctx, span := util.StartSpan(ctx, "SessionService.Login")
	defer span.End()

	resp, err := s.api.Authenticate(ctx, in)
	if err != nil {
		return models.AuthResponse{}, fmt.Errorf("login failed: %w", err)
	}
	if err := s.save(ctx, resp); err != nil {
		return models.AuthResponse{}, err
	}
	s.logger.Info("Signed in", zap.String("email", in.Email))
	return resp, nil
}

// Register creates an account and signs it in
func (s *SessionService) Register(ctx context.Context, in models.RegisterRequest) (models.AuthResponse, error) {
	ctx, span := util.StartSpan(ctx, "SessionService.Register")
	defer span.End()

	resp, err := s.api.Register(ctx, in)
	if err != nil {
		return models.AuthResponse{}, fmt.Errorf("registration failed: %w", err)
	}
	if err := s.save(ctx, resp); err != nil {
		return models.AuthResponse{}, err
	}
	s.logger.Info("Registered", zap.String("email", in.Email))
	return resp, nil
}

// Logout forgets the token and announces the end of the session
func (s *SessionService) Logout(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	event := &models.SessionEndedEvent{BaseEvent: models.NewBaseEvent(models.EventTypeSessionEnded)}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish SessionEnded event", zap.Error(err))
	}
	return nil
}

// CurrentUser returns the signed-in user
func (s *SessionService) CurrentUser(ctx context.Context) (models.User, error) {
	if !s.Authenticated(ctx) {
		return models.User{}, cache.ErrNotAuthenticated
	}
	return s.api.Me(ctx)
}

// Authenticated reports whether a token is stored
func (s *SessionService) Authenticated(ctx context.Context) bool {
	token, err := s.store.Token(ctx)
	return err == nil && token != ""
}

func (s *SessionService) save(ctx context.Context, resp models.AuthResponse) error {
	if resp.AccessToken == "" {
		return errNoAccessToken
	}
	if err := s.store.Save(ctx, resp.AccessToken); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}
