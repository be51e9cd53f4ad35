package model

import (
	"context"

	"github.com/google/uuid"
)

// ContextManager stores and extracts the authenticated control client.
type ContextManager interface {
	SetClientIDToContext(ctx context.Context, clientID uuid.UUID) context.Context
	GetClientIDFromContext(ctx context.Context) (uuid.UUID, bool)
}
