package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Ivan200915/discipline-engine/internal/core/domain"
)

const (
	stateKindProtection = "protection"
	stateKindSeason     = "season_progress"
	stateKindStreak     = "streak_snapshot"
)

// PostgresStateRepository stores per-user engine state as JSONB payloads in
// a single user_states table keyed by (user_id, kind). Writes are upserts;
// a missing row is a fresh user, not an error.
type PostgresStateRepository struct {
	db *sqlx.DB
}

func NewPostgresStateRepository(db *sqlx.DB) *PostgresStateRepository {
	return &PostgresStateRepository{db: db}
}

func (r *PostgresStateRepository) load(ctx context.Context, userID, kind string, dest any) (bool, error) {
	var payload []byte
	query := `SELECT payload FROM user_states WHERE user_id = $1 AND kind = $2`

	err := r.db.GetContext(ctx, &payload, query, userID, kind)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}

	if err := json.Unmarshal(payload, dest); err != nil {
		return false, fmt.Errorf("unmarshal %s state: %w", kind, err)
	}
	return true, nil
}

func (r *PostgresStateRepository) save(ctx context.Context, userID, kind string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s state: %w", kind, err)
	}

	query := `
		INSERT INTO user_states (user_id, kind, payload, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, kind)
		DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`

	_, err = r.db.ExecContext(ctx, query, userID, kind, payload, time.Now().UTC())
	return err
}

func (r *PostgresStateRepository) GetProtection(ctx context.Context, userID string) (*domain.ProtectionInventory, error) {
	inv := domain.NewProtectionInventory()
	if _, err := r.load(ctx, userID, stateKindProtection, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

func (r *PostgresStateRepository) SaveProtection(ctx context.Context, userID string, inv *domain.ProtectionInventory) error {
	return r.save(ctx, userID, stateKindProtection, inv)
}

func (r *PostgresStateRepository) GetSeasonProgress(ctx context.Context, userID string) (*domain.SeasonProgress, error) {
	var progress domain.SeasonProgress
	found, err := r.load(ctx, userID, stateKindSeason, &progress)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &progress, nil
}

func (r *PostgresStateRepository) SaveSeasonProgress(ctx context.Context, userID string, progress *domain.SeasonProgress) error {
	return r.save(ctx, userID, stateKindSeason, progress)
}

func (r *PostgresStateRepository) GetStreakSnapshot(ctx context.Context, userID string) (*domain.StreakState, error) {
	var state domain.StreakState
	found, err := r.load(ctx, userID, stateKindStreak, &state)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &state, nil
}

func (r *PostgresStateRepository) SaveStreakSnapshot(ctx context.Context, userID string, state *domain.StreakState) error {
	return r.save(ctx, userID, stateKindStreak, state)
}
