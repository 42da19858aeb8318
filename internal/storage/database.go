// Package storage persists posted reviews for history and auditing.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	// import db drivers
	_ "github.com/lib/pq"

	"github.com/patchpilot/patchpilot/internal/core"
)

// ErrNotFound is returned when a lookup matches no review.
var ErrNotFound = errors.New("review not found")

// Store defines the interface for all database operations.
type Store interface {
	SaveReview(ctx context.Context, record *core.ReviewRecord) error
	GetLatestReviewForPR(ctx context.Context, repoFullName string, prNumber int) (*core.ReviewRecord, error)
	ListReviewsForPR(ctx context.Context, repoFullName string, prNumber int) ([]core.ReviewRecord, error)
}

type postgresStore struct {
	db *sqlx.DB
}

// NewStore creates a new Store backed by PostgreSQL.
func NewStore(db *sqlx.DB) Store {
	return &postgresStore{db: db}
}

// SaveReview inserts a new review record into the database.
func (s *postgresStore) SaveReview(ctx context.Context, record *core.ReviewRecord) error {
	query := `
		INSERT INTO reviews (repo_full_name, pr_number, head_sha, verdict, body, inline_comments, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := s.db.ExecContext(ctx, query,
		record.RepoFullName, record.PRNumber, record.HeadSHA,
		record.Verdict, record.Body, record.InlineComments, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save review for %s#%d: %w", record.RepoFullName, record.PRNumber, err)
	}
	return nil
}

// GetLatestReviewForPR retrieves the most recent review for a given pull request.
func (s *postgresStore) GetLatestReviewForPR(ctx context.Context, repoFullName string, prNumber int) (*core.ReviewRecord, error) {
	query := `
		SELECT id, repo_full_name, pr_number, head_sha, verdict, body, inline_comments, created_at
		FROM reviews
		WHERE repo_full_name = $1 AND pr_number = $2
		ORDER BY created_at DESC
		LIMIT 1`

	var record core.ReviewRecord
	if err := s.db.GetContext(ctx, &record, query, repoFullName, prNumber); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w for %s#%d", ErrNotFound, repoFullName, prNumber)
		}
		return nil, err
	}
	return &record, nil
}

// ListReviewsForPR retrieves all reviews for a pull request, newest first.
func (s *postgresStore) ListReviewsForPR(ctx context.Context, repoFullName string, prNumber int) ([]core.ReviewRecord, error) {
	query := `
		SELECT id, repo_full_name, pr_number, head_sha, verdict, body, inline_comments, created_at
		FROM reviews
		WHERE repo_full_name = $1 AND pr_number = $2
		ORDER BY created_at DESC`

	var records []core.ReviewRecord
	if err := s.db.SelectContext(ctx, &records, query, repoFullName, prNumber); err != nil {
		return nil, err
	}
	return records, nil
}
