package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/frahmantamala/hr-portal/internal/core/datamodel/portal"
	"github.com/frahmantamala/hr-portal/internal/session"
	"github.com/jmoiron/sqlx"
)

type CredentialRepository struct {
	db *sqlx.DB
}

func NewCredentialRepository(db *sqlx.DB) session.CredentialStore {
	return &CredentialRepository{db: db}
}

func (r *CredentialRepository) Save(ctx context.Context, clientID, token string) error {
	now := time.Now().UTC()
	query := r.db.Rebind(`
		INSERT INTO client_credentials (client_id, token, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (client_id) DO UPDATE
		SET token = EXCLUDED.token, updated_at = EXCLUDED.updated_at`)

	if _, err := r.db.ExecContext(ctx, query, clientID, token, now, now); err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}
	return nil
}

func (r *CredentialRepository) Find(ctx context.Context, clientID string) (string, error) {
	var row portal.ClientCredential
	query := r.db.Rebind(`
		SELECT client_id, token, created_at, updated_at
		FROM client_credentials
		WHERE client_id = ?`)

	if err := r.db.GetContext(ctx, &row, query, clientID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", session.ErrNoCredential
		}
		return "", fmt.Errorf("failed to find credential: %w", err)
	}
	return row.Token, nil
}

func (r *CredentialRepository) Delete(ctx context.Context, clientID string) error {
	query := r.db.Rebind(`DELETE FROM client_credentials WHERE client_id = ?`)
	if _, err := r.db.ExecContext(ctx, query, clientID); err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	return nil
}
