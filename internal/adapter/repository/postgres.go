package repository

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hive-corporation/fusion/internal/core/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schema string

// PostgresRepository stores each session as one row. The full aggregate lives
// in a JSONB document; the version column guards concurrent writers.
type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// EnsureSchema creates the sessions table when it does not exist yet.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Create(ctx context.Context, s domain.Session) error {
	doc, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	query := `
		INSERT INTO sessions (id, title, target_type, priority, status, document, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = r.db.Exec(ctx, query,
		s.ID,
		s.Title,
		s.TargetType,
		s.Priority,
		s.Status,
		doc,
		s.Version,
		s.CreatedAt,
		s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (domain.Session, error) {
	query := `
		SELECT document, version
		FROM sessions
		WHERE id = $1
	`

	var doc []byte
	var version int64
	err := r.db.QueryRow(ctx, query, id).Scan(&doc, &version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Session{}, domain.ErrSessionNotFound
		}
		return domain.Session{}, fmt.Errorf("failed to load session %s: %w", id, err)
	}

	return decodeSession(doc, version)
}

func (r *PostgresRepository) List(ctx context.Context, limit int) ([]domain.Session, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT document, version
		FROM sessions
		ORDER BY created_at DESC, id
		LIMIT $1
	`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []domain.Session{}
	for rows.Next() {
		var doc []byte
		var version int64
		if err := rows.Scan(&doc, &version); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		s, err := decodeSession(doc, version)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return sessions, nil
}

func (r *PostgresRepository) Save(ctx context.Context, s domain.Session, expectedVersion int64) error {
	s.Version = expectedVersion + 1
	doc, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	query := `
		UPDATE sessions
		SET title = $2, target_type = $3, priority = $4, status = $5,
		    document = $6, version = $7, updated_at = $8
		WHERE id = $1 AND version = $9
	`

	tag, err := r.db.Exec(ctx, query,
		s.ID,
		s.Title,
		s.TargetType,
		s.Priority,
		s.Status,
		doc,
		s.Version,
		s.UpdatedAt,
		expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to update session %s: %w", s.ID, err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM sessions WHERE id = $1)`, s.ID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check session %s: %w", s.ID, err)
	}
	if !exists {
		return domain.ErrSessionNotFound
	}
	return fmt.Errorf("session %s moved past version %d: %w", s.ID, expectedVersion, domain.ErrConcurrentMutation)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func decodeSession(doc []byte, version int64) (domain.Session, error) {
	var s domain.Session
	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()
	if err := dec.Decode(&s); err != nil {
		return domain.Session{}, fmt.Errorf("failed to decode session: %w", err)
	}
	s.Version = version
	return s, nil
}
