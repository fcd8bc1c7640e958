package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"

	"appforge/internal/common/config"
	commonerrors "appforge/internal/common/errors"
	"appforge/internal/models"
)

const createSubmissionsTable = `
CREATE TABLE IF NOT EXISTS submissions (
	key          TEXT PRIMARY KEY,
	email        TEXT NOT NULL,
	task         TEXT NOT NULL,
	round        INTEGER NOT NULL,
	nonce        TEXT NOT NULL,
	repo_url     TEXT NOT NULL,
	commit_sha   TEXT NOT NULL,
	pages_url    TEXT NOT NULL,
	submitted_at TIMESTAMPTZ NOT NULL
)`

// PostgresStore persists submissions in a single upsert-per-key table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens the pool, verifies connectivity and ensures the
// schema exists.
func NewPostgresStore(ctx context.Context, cfg config.PostgresConfig) (*PostgresStore, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if cfg.MaxConnections > 0 {
		db.SetMaxOpenConns(cfg.MaxConnections)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, createSubmissionsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("create submissions table: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreWithDB wraps an existing pool without touching the schema.
// Tests use it with sqlmock.
func NewPostgresStoreWithDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (p *PostgresStore) Put(ctx context.Context, sub *models.Submission) error {
	const query = `
		INSERT INTO submissions (key, email, task, round, nonce, repo_url, commit_sha, pages_url, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (key) DO UPDATE SET
			repo_url = EXCLUDED.repo_url,
			commit_sha = EXCLUDED.commit_sha,
			pages_url = EXCLUDED.pages_url,
			submitted_at = EXCLUDED.submitted_at`

	_, err := p.db.ExecContext(ctx, query,
		sub.Key(), sub.Email, sub.Task, sub.Round, sub.Nonce,
		sub.RepoURL, sub.CommitSHA, sub.PagesURL, sub.SubmittedAt,
	)
	if err != nil {
		return commonerrors.NewStoreError(err)
	}
	return nil
}

func (p *PostgresStore) Get(ctx context.Context, key string) (*models.Submission, error) {
	const query = `
		SELECT email, task, round, nonce, repo_url, commit_sha, pages_url, submitted_at
		FROM submissions WHERE key = $1`

	var sub models.Submission
	err := p.db.QueryRowContext(ctx, query, key).Scan(
		&sub.Email, &sub.Task, &sub.Round, &sub.Nonce,
		&sub.RepoURL, &sub.CommitSHA, &sub.PagesURL, &sub.SubmittedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, commonerrors.NewStoreError(err)
	}
	return &sub, nil
}

func (p *PostgresStore) List(ctx context.Context) ([]*models.Submission, error) {
	const query = `
		SELECT email, task, round, nonce, repo_url, commit_sha, pages_url, submitted_at
		FROM submissions ORDER BY submitted_at`

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, commonerrors.NewStoreError(err)
	}
	defer rows.Close()

	var out []*models.Submission
	for rows.Next() {
		var sub models.Submission
		if err := rows.Scan(
			&sub.Email, &sub.Task, &sub.Round, &sub.Nonce,
			&sub.RepoURL, &sub.CommitSHA, &sub.PagesURL, &sub.SubmittedAt,
		); err != nil {
			return nil, commonerrors.NewStoreError(err)
		}
		out = append(out, &sub)
	}
	if err := rows.Err(); err != nil {
		return nil, commonerrors.NewStoreError(err)
	}
	return out, nil
}

func (p *PostgresStore) Close() error {
	return p.db.Close()
}
