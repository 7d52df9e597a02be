package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"

	"github.com/Ivan200915/discipline-engine/internal/core/domain"
)

// PostgresLogRepository persists the daily-log ledger. The habits, metrics
// and check-in payloads live in JSONB columns; a partial unique index on
// (user_id, log_date) WHERE superseded_at IS NULL enforces the single
// active entry per date.
type PostgresLogRepository struct {
	db *sqlx.DB
}

func NewPostgresLogRepository(db *sqlx.DB) *PostgresLogRepository {
	return &PostgresLogRepository{db: db}
}

type logRow struct {
	ID           string         `db:"id"`
	UserID       string         `db:"user_id"`
	Date         string         `db:"log_date"`
	Closed       bool           `db:"closed"`
	Habits       types.JSONText `db:"habits"`
	Metrics      types.JSONText `db:"metrics"`
	CheckIn      types.JSONText `db:"check_in"`
	MealsLogged  int            `db:"meals_logged"`
	Version      int            `db:"version"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
	SupersededAt *time.Time     `db:"superseded_at"`
}

func toRow(log *domain.DailyLog) (*logRow, error) {
	habits, err := json.Marshal(log.Habits)
	if err != nil {
		return nil, fmt.Errorf("marshal habits: %w", err)
	}
	metrics, err := json.Marshal(log.Metrics)
	if err != nil {
		return nil, fmt.Errorf("marshal metrics: %w", err)
	}
	checkIn := types.JSONText("null")
	if log.CheckIn != nil {
		raw, err := json.Marshal(log.CheckIn)
		if err != nil {
			return nil, fmt.Errorf("marshal check-in: %w", err)
		}
		checkIn = types.JSONText(raw)
	}

	return &logRow{
		ID:           log.ID,
		UserID:       log.UserID,
		Date:         log.Date,
		Closed:       log.Closed,
		Habits:       types.JSONText(habits),
		Metrics:      types.JSONText(metrics),
		CheckIn:      checkIn,
		MealsLogged:  log.MealsLogged,
		Version:      log.Version,
		CreatedAt:    log.CreatedAt,
		UpdatedAt:    log.UpdatedAt,
		SupersededAt: log.SupersededAt,
	}, nil
}

func fromRow(row *logRow) (*domain.DailyLog, error) {
	log := &domain.DailyLog{
		ID:           row.ID,
		UserID:       row.UserID,
		Date:         row.Date,
		Closed:       row.Closed,
		MealsLogged:  row.MealsLogged,
		Version:      row.Version,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
		SupersededAt: row.SupersededAt,
	}

	if len(row.Habits) > 0 {
		if err := json.Unmarshal(row.Habits, &log.Habits); err != nil {
			return nil, fmt.Errorf("unmarshal habits: %w", err)
		}
	}
	if len(row.Metrics) > 0 {
		if err := json.Unmarshal(row.Metrics, &log.Metrics); err != nil {
			return nil, fmt.Errorf("unmarshal metrics: %w", err)
		}
	}
	if len(row.CheckIn) > 0 && string(row.CheckIn) != "null" {
		log.CheckIn = &domain.CheckIn{}
		if err := json.Unmarshal(row.CheckIn, log.CheckIn); err != nil {
			return nil, fmt.Errorf("unmarshal check-in: %w", err)
		}
	}

	return log, nil
}

func fromRows(rows []*logRow) ([]*domain.DailyLog, error) {
	logs := make([]*domain.DailyLog, 0, len(rows))
	for _, row := range rows {
		log, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	return logs, nil
}

const insertLogQuery = `
	INSERT INTO daily_logs (
		id, user_id, log_date, closed,
		habits, metrics, check_in, meals_logged,
		version, created_at, updated_at, superseded_at
	) VALUES (
		:id, :user_id, :log_date, :closed,
		:habits, :metrics, :check_in, :meals_logged,
		:version, :created_at, :updated_at, :superseded_at
	)`

func (r *PostgresLogRepository) Create(ctx context.Context, log *domain.DailyLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}

	row, err := toRow(log)
	if err != nil {
		return err
	}

	_, err = r.db.NamedExecContext(ctx, insertLogQuery, row)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23503" {
				return errors.New("referenced user does not exist")
			}
			if pqErr.Code == "23505" {
				return domain.ErrLogConflict
			}
		}
		return err
	}
	return nil
}

func (r *PostgresLogRepository) Update(ctx context.Context, log *domain.DailyLog) error {
	row, err := toRow(log)
	if err != nil {
		return err
	}

	query := `
		UPDATE daily_logs
		SET closed = :closed,
		    habits = :habits,
		    metrics = :metrics,
		    check_in = :check_in,
		    meals_logged = :meals_logged,
		    version = :version,
		    updated_at = :updated_at
		WHERE id = :id
		  AND version = :version - 1 -- Optimistic Lock check
		  AND closed = FALSE
		  AND superseded_at IS NULL`

	result, err := r.db.NamedExecContext(ctx, query, row)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		stored, err := r.getByID(ctx, log.ID)
		if err != nil {
			return domain.ErrLogNotFound
		}
		if stored.Closed || stored.SupersededAt != nil {
			return domain.ErrLogClosed
		}
		return domain.ErrLogConflict
	}

	return nil
}

func (r *PostgresLogRepository) GetByDate(ctx context.Context, userID, date string) (*domain.DailyLog, error) {
	var row logRow
	query := `
		SELECT * FROM daily_logs
		WHERE user_id = $1
		  AND log_date = $2
		  AND superseded_at IS NULL`

	err := r.db.GetContext(ctx, &row, query, userID, date)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrLogNotFound
		}
		return nil, err
	}
	return fromRow(&row)
}

func (r *PostgresLogRepository) ListByUser(ctx context.Context, userID string) ([]*domain.DailyLog, error) {
	rows := []*logRow{}

	query := `
		SELECT * FROM daily_logs
		WHERE user_id = $1
		  AND superseded_at IS NULL
		ORDER BY log_date ASC`

	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, err
	}
	return fromRows(rows)
}

func (r *PostgresLogRepository) ListRange(ctx context.Context, userID, from, to string) ([]*domain.DailyLog, error) {
	rows := []*logRow{}

	query := `
		SELECT * FROM daily_logs
		WHERE user_id = $1
		  AND log_date >= $2
		  AND log_date <= $3
		  AND superseded_at IS NULL
		ORDER BY log_date ASC`

	if err := r.db.SelectContext(ctx, &rows, query, userID, from, to); err != nil {
		return nil, err
	}
	return fromRows(rows)
}

// Supersede retires the old entry and inserts its correction in one
// transaction so a date never shows two active entries.
func (r *PostgresLogRepository) Supersede(ctx context.Context, old, correction *domain.DailyLog) error {
	if correction.ID == "" {
		correction.ID = uuid.NewString()
	}

	now := time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE daily_logs
		SET superseded_at = $1,
		    updated_at = $1
		WHERE id = $2
		  AND superseded_at IS NULL`, now, old.ID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrLogConflict
	}

	row, err := toRow(correction)
	if err != nil {
		return err
	}
	if _, err := tx.NamedExecContext(ctx, insertLogQuery, row); err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return domain.ErrLogConflict
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	old.SupersededAt = &now
	old.UpdatedAt = now
	return nil
}

func (r *PostgresLogRepository) GetChanges(ctx context.Context, userID string, since time.Time) ([]*domain.DailyLog, error) {
	rows := []*logRow{}

	query := `
		SELECT * FROM daily_logs
		WHERE user_id = $1
		  AND updated_at > $2
		ORDER BY updated_at ASC`

	if err := r.db.SelectContext(ctx, &rows, query, userID, since); err != nil {
		return nil, err
	}
	return fromRows(rows)
}

func (r *PostgresLogRepository) getByID(ctx context.Context, id string) (*domain.DailyLog, error) {
	var row logRow
	err := r.db.GetContext(ctx, &row, `SELECT * FROM daily_logs WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrLogNotFound
		}
		return nil, err
	}
	return fromRow(&row)
}
