package services

import (
	"context"
	"strings"

	"github.com/PitherGabriel/PuntodeVentaTB/apperrors"
	"github.com/PitherGabriel/PuntodeVentaTB/models"
	"go.uber.org/zap"
)

// SessionGateway manages the cookie session with the POS API.
type SessionGateway interface {
	CheckSession(ctx context.Context) (*models.User, error)
	Login(ctx context.Context, creds models.Credentials) (*models.User, error)
	Logout(ctx context.Context) error
}

// SessionService signs the operator in and out. A successful sign-in loads
// the catalog; signing out drops cart, client draft and catalog.
type SessionService struct {
	terminal *Terminal
	gateway  SessionGateway
	catalog  *CatalogService
	logger   *zap.Logger
}

func NewSessionService(terminal *Terminal, gateway SessionGateway, catalog *CatalogService, logger *zap.Logger) *SessionService {
	return &SessionService{
		terminal: terminal,
		gateway:  gateway,
		catalog:  catalog,
		logger:   logger,
	}
}

// Check asks the POS API whether the session cookie is still valid. It
// returns nil when nobody is signed in.
func (s *SessionService) Check(ctx context.Context) (*models.User, error) {
	if !s.terminal.Features().Auth {
		return nil, apperrors.FeatureDisabled("authentication")
	}
	user, err := s.gateway.CheckSession(ctx)
	if err != nil {
		return nil, err
	}
	if user == nil {
		if s.terminal.Authenticated() {
			if s.terminal.signOut() {
				s.logger.Info("Session expired on POS API, sign-out deferred until checkout resolves")
			} else {
				s.logger.Info("Session expired on POS API")
			}
		}
		return nil, nil
	}

	wasSignedIn := s.terminal.Authenticated()
	s.terminal.signIn(*user)
	if !wasSignedIn {
		s.loadCatalog(ctx)
	}
	return user, nil
}

func (s *SessionService) Login(ctx context.Context, username, password string) (*models.User, error) {
	if !s.terminal.Features().Auth {
		return nil, apperrors.FeatureDisabled("authentication")
	}
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apperrors.Validation("username and password are required")
	}

	user, err := s.gateway.Login(ctx, models.Credentials{Username: username, Password: password})
	if err != nil {
		s.logger.Warn("Login failed", zap.String("username", username), zap.Error(err))
		return nil, err
	}

	s.terminal.signIn(*user)
	s.logger.Info("Operator signed in", zap.String("username", user.Username), zap.String("seller", user.DisplayName()))
	s.loadCatalog(ctx)
	return user, nil
}

// Logout ends the session. It is refused while a checkout is submitting.
// Local state is cleared even when the POS API cannot be reached; the error
// is still returned.
func (s *SessionService) Logout(ctx context.Context) error {
	if !s.terminal.Features().Auth {
		return apperrors.FeatureDisabled("authentication")
	}
	if err := s.terminal.ensureIdle(); err != nil {
		return err
	}
	err := s.gateway.Logout(ctx)
	s.terminal.signOut()
	if err != nil {
		s.logger.Warn("Logout on POS API failed", zap.Error(err))
		return err
	}
	s.logger.Info("Operator signed out")
	return nil
}

func (s *SessionService) loadCatalog(ctx context.Context) {
	if s.catalog == nil {
		return
	}
	if _, err := s.catalog.Refresh(ctx); err != nil {
		s.logger.Warn("Catalog load after sign-in failed", zap.Error(err))
	}
}
