package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dtroode/appblock/internal/logger"
	"github.com/dtroode/appblock/internal/model"
)

var errNilClient = errors.New("token carries no client id")

// TokenService issues control tokens and resolves them back to the
// client they were issued for.
type TokenService struct {
	manager model.TokenManager
	logger  *logger.Logger
}

func NewTokenService(manager model.TokenManager, logger *logger.Logger) *TokenService {
	return &TokenService{manager: manager, logger: logger}
}

// Issue creates a new client identity and a token for it.
func (s *TokenService) Issue(_ context.Context) (uuid.UUID, string, error) {
	clientID := uuid.New()
	token, err := s.manager.GenerateClientToken(clientID)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("issue control token: %w", err)
	}

	s.logger.Info("Token service: issued control token", "client_id", clientID.String())
	return clientID, token, nil
}

func (s *TokenService) GetClientID(_ context.Context, token string) (uuid.UUID, error) {
	clientID, err := s.manager.ParseClientToken(token)
	if err != nil {
		return uuid.Nil, err
	}
	if clientID == uuid.Nil {
		return uuid.Nil, errNilClient
	}
	return clientID, nil
}
