package model

import "github.com/google/uuid"

// TokenManager issues and validates bearer tokens for control clients.
type TokenManager interface {
	GenerateClientToken(clientID uuid.UUID) (string, error)
	ParseClientToken(token string) (uuid.UUID, error)
}
