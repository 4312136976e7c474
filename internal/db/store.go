package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/QTest-hq/codescope/pkg/model"
)

// Store provides report persistence
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new store
func NewStore(db *DB) *Store {
	return &Store{pool: db.Pool()}
}

// Ping verifies database connectivity
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// ReportRecord is the listing form of a stored report
type ReportRecord struct {
	ID                    uuid.UUID `json:"id"`
	RepositoryURL         *string   `json:"repository_url,omitempty"`
	CommitSHA             *string   `json:"commit_sha,omitempty"`
	TotalFiles            int       `json:"total_files"`
	DocumentationCoverage float64   `json:"documentation_coverage"`
	CreatedAt             time.Time `json:"created_at"`
}

// SaveReport stores a report under its ID. repoURL and commitSHA may be empty.
func (s *Store) SaveReport(ctx context.Context, report *model.RepositoryReport, repoURL, commitSHA string) error {
	id, err := uuid.Parse(report.ID)
	if err != nil {
		return fmt.Errorf("invalid report id %q: %w", report.ID, err)
	}
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO analysis_reports (id, repository_url, commit_sha, total_files, documentation_coverage, report, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, id, nullable(repoURL), nullable(commitSHA), report.TotalFiles, report.DocumentationCoverage, data, report.GeneratedAt)
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

// GetReport loads a report by ID. It returns nil, nil when none exists.
func (s *Store) GetReport(ctx context.Context, id uuid.UUID) (*model.RepositoryReport, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT report FROM analysis_reports WHERE id = $1`, id).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	var report model.RepositoryReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	return &report, nil
}

// ListReports returns the newest reports first, optionally for one repository
func (s *Store) ListReports(ctx context.Context, repoURL string, limit int) ([]ReportRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, repository_url, commit_sha, total_files, documentation_coverage, created_at
		FROM analysis_reports
		WHERE $1 = '' OR repository_url = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, repoURL, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	records := make([]ReportRecord, 0)
	for rows.Next() {
		var r ReportRecord
		if err := rows.Scan(&r.ID, &r.RepositoryURL, &r.CommitSHA, &r.TotalFiles, &r.DocumentationCoverage, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
