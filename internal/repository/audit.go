package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// AuditRepository appends committed transaction descriptions per game. It
// is a write-only feed for after-the-fact review; the server never reads
// it back, so game state stays memory-resident.
type AuditRepository struct {
	db *DB
}

// NewAuditRepository creates the repository and ensures its table exists.
func NewAuditRepository(ctx context.Context, db *DB) (*AuditRepository, error) {
	const schema = `
		CREATE TABLE IF NOT EXISTS game_audit (
			id          BIGSERIAL PRIMARY KEY,
			game_name   TEXT        NOT NULL,
			description TEXT        NOT NULL,
			recorded_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`
	if _, err := db.pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("ensure audit schema: %w", err)
	}
	return &AuditRepository{db: db}, nil
}

// Record appends one entry. Failures are logged, not propagated: the audit
// feed must never block or fail a game operation.
func (r *AuditRepository) Record(ctx context.Context, gameName, description string) {
	const insert = `INSERT INTO game_audit (game_name, description) VALUES ($1, $2)`
	if _, err := r.db.pool.Exec(ctx, insert, gameName, description); err != nil {
		r.db.logger.Warn("audit insert failed",
			zap.String("game", gameName),
			zap.Error(err),
		)
	}
}
