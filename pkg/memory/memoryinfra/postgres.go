package memoryinfra

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/Abraxas-365/shohayok/pkg/errx"
	"github.com/Abraxas-365/shohayok/pkg/kernel"
	"github.com/Abraxas-365/shohayok/pkg/memory"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// pqUndefinedTable is the Postgres SQLSTATE for a missing relation
const pqUndefinedTable = "42P01"

// PostgresRepository implementación de PostgreSQL para memory.Repository.
// Schema: migrations/001_user_memories.sql
type PostgresRepository struct {
	db *sqlx.DB
}

type memoryRow struct {
	UserID    string    `db:"user_id"`
	Data      string    `db:"data"` // jsonb viaja como texto; lib/pq codifica []byte como bytea
	UpdatedAt time.Time `db:"updated_at"`
}

func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Get busca la memoria de un usuario
func (r *PostgresRepository) Get(ctx context.Context, userID kernel.UserID) (*memory.Record, error) {
	query := `
		SELECT user_id, data, updated_at
		FROM user_memories
		WHERE user_id = $1`

	var row memoryRow
	err := r.db.GetContext(ctx, &row, query, userID.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, memory.ErrMemoryNotFound().WithDetail("user_id", userID.String())
		}
		return nil, classify(memory.ErrLookupFailed(), err).WithDetail("user_id", userID.String())
	}

	data, err := memory.Decode(userID, []byte(row.Data))
	if err != nil {
		return nil, err
	}

	return &memory.Record{
		UserID:    kernel.UserID(row.UserID),
		Data:      data,
		UpdatedAt: row.UpdatedAt,
	}, nil
}

// Save inserta o reemplaza la memoria de un usuario
func (r *PostgresRepository) Save(ctx context.Context, record *memory.Record) error {
	if record == nil || record.UserID.IsEmpty() {
		return memory.ErrInvalidUser()
	}

	data, err := json.Marshal(record.Data)
	if err != nil {
		return memory.ErrSaveFailed().WithCause(err).WithDetail("user_id", record.UserID.String())
	}

	query := `
		INSERT INTO user_memories (user_id, data, updated_at)
		VALUES (:user_id, :data, :updated_at)
		ON CONFLICT (user_id) DO UPDATE
		SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`

	_, err = r.db.NamedExecContext(ctx, query, memoryRow{
		UserID:    record.UserID.String(),
		Data:      string(data),
		UpdatedAt: record.UpdatedAt,
	})
	if err != nil {
		return classify(memory.ErrSaveFailed(), err).WithDetail("user_id", record.UserID.String())
	}
	return nil
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// classify attaches the SQLSTATE of driver errors to base
func classify(base *errx.Error, err error) *errx.Error {
	base.WithCause(err)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		base.WithDetail("sqlstate", string(pqErr.Code))
		if pqErr.Code == pqUndefinedTable {
			base.WithDetail("hint", "run migrations/001_user_memories.sql")
		}
	}
	return base
}
