package session

import (
	"context"
	"errors"
)

var ErrNoCredential = errors.New("no credential stored for client")

// CredentialStore persists the one credential each client registered.
type CredentialStore interface {
	Save(ctx context.Context, clientID, token string) error
	// Find returns ErrNoCredential when nothing is stored for clientID.
	Find(ctx context.Context, clientID string) (string, error)
	Delete(ctx context.Context, clientID string) error
}
