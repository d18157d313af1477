package session

import (
	"context"
	"errors"
	"log/slog"

	"github.com/frahmantamala/hr-portal/internal"
	"github.com/frahmantamala/hr-portal/pkg/logger"
)

type Service struct {
	store    CredentialStore
	verifier *TokenVerifier
	logger   *slog.Logger
}

func NewService(store CredentialStore, verifier *TokenVerifier, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		verifier: verifier,
		logger:   logger,
	}
}

// Start checks that token carries an employee id and stores it for clientID.
func (s *Service) Start(ctx context.Context, clientID, token string) (int64, error) {
	lg := logger.FromOr(ctx, s.logger)

	employeeID, err := s.verifier.Subject(token)
	if err != nil {
		lg.Warn("session rejected", "client_id", clientID, "error", err)
		return 0, internal.NewIdentityError(internal.MsgIdentityFailed, err)
	}

	if err := s.store.Save(ctx, clientID, token); err != nil {
		lg.Error("failed to store credential", "client_id", clientID, "error", err)
		return 0, internal.NewInternalError("No se pudo guardar la sesión", err)
	}

	lg.Info("session started", "client_id", clientID, "employee_id", employeeID)
	return employeeID, nil
}

// Current returns the employee id of the credential stored for clientID.
func (s *Service) Current(ctx context.Context, clientID string) (int64, error) {
	token, err := s.store.Find(ctx, clientID)
	if err != nil {
		if errors.Is(err, ErrNoCredential) {
			return 0, internal.NewIdentityError(internal.MsgIdentityFailed, err)
		}
		logger.FromOr(ctx, s.logger).Error("failed to read credential", "client_id", clientID, "error", err)
		return 0, internal.NewInternalError("No se pudo leer la sesión", err)
	}
	return New(token, s.verifier).EmployeeID()
}

func (s *Service) End(ctx context.Context, clientID string) error {
	if err := s.store.Delete(ctx, clientID); err != nil {
		logger.FromOr(ctx, s.logger).Error("failed to delete credential", "client_id", clientID, "error", err)
		return internal.NewInternalError("No se pudo cerrar la sesión", err)
	}
	return nil
}

// Open builds the session of one request. A presented credential wins over the one
// stored for the client. The returned session is never nil.
func (s *Service) Open(ctx context.Context, clientID, presented string) *Session {
	if presented != "" || clientID == "" {
		return New(presented, s.verifier)
	}

	token, err := s.store.Find(ctx, clientID)
	if err != nil && !errors.Is(err, ErrNoCredential) {
		logger.FromOr(ctx, s.logger).Warn("credential lookup failed", "client_id", clientID, "error", err)
	}
	return New(token, s.verifier)
}
