package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/atticus-labs/atticus-core/internal/core/domain"
	"github.com/atticus-labs/atticus-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.CaseStore = (*CaseStore)(nil)

// CaseStore implements driven.CaseStore using PostgreSQL
type CaseStore struct {
	db *DB
}

// NewCaseStore creates a new CaseStore
func NewCaseStore(db *DB) *CaseStore {
	return &CaseStore{db: db}
}

const caseColumns = `id, case_name, citation, court, year, facts, issue, holding,
       reasoning, full_text, full_text_url, jurisdiction, case_type, created_at, updated_at`

// Get retrieves a case by ID
func (s *CaseStore) Get(ctx context.Context, id int64) (*domain.CaseRecord, error) {
	query := `SELECT ` + caseColumns + ` FROM cases WHERE id = $1`
	return s.scanOne(s.db.QueryRowContext(ctx, query, id))
}

// GetByCitation retrieves a case by citation
func (s *CaseStore) GetByCitation(ctx context.Context, citation string) (*domain.CaseRecord, error) {
	query := `SELECT ` + caseColumns + ` FROM cases WHERE citation = $1`
	return s.scanOne(s.db.QueryRowContext(ctx, query, citation))
}

// List returns cases matching the filters, newest first
func (s *CaseStore) List(ctx context.Context, filters domain.CaseFilters, limit, offset int) ([]*domain.CaseRecord, error) {
	query := `SELECT ` + caseColumns + ` FROM cases WHERE 1=1`
	var args []any

	if filters.Court != "" {
		args = append(args, filters.Court)
		query += fmt.Sprintf(" AND court = $%d", len(args))
	}
	if filters.Jurisdiction != "" {
		args = append(args, filters.Jurisdiction)
		query += fmt.Sprintf(" AND jurisdiction = $%d", len(args))
	}
	if filters.MinYear > 0 {
		args = append(args, filters.MinYear)
		query += fmt.Sprintf(" AND year >= $%d", len(args))
	}
	if filters.MaxYear > 0 {
		args = append(args, filters.MaxYear)
		query += fmt.Sprintf(" AND year <= $%d", len(args))
	}

	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY year DESC, id DESC LIMIT $%d", len(args))
	args = append(args, offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cases []*domain.CaseRecord
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		cases = append(cases, c)
	}
	return cases, rows.Err()
}

// Save creates or updates a case, keyed on citation
func (s *CaseStore) Save(ctx context.Context, c *domain.CaseRecord) error {
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	query := `
		INSERT INTO cases (case_name, citation, court, year, facts, issue, holding,
			reasoning, full_text, full_text_url, jurisdiction, case_type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (citation) DO UPDATE SET
			case_name = EXCLUDED.case_name,
			court = EXCLUDED.court,
			year = EXCLUDED.year,
			facts = EXCLUDED.facts,
			issue = EXCLUDED.issue,
			holding = EXCLUDED.holding,
			reasoning = EXCLUDED.reasoning,
			full_text = EXCLUDED.full_text,
			full_text_url = EXCLUDED.full_text_url,
			jurisdiction = EXCLUDED.jurisdiction,
			case_type = EXCLUDED.case_type,
			updated_at = EXCLUDED.updated_at
		RETURNING id
	`

	return s.db.QueryRowContext(ctx, query,
		c.CaseName,
		c.Citation,
		c.Court,
		c.Year,
		c.Facts,
		c.Issue,
		c.Holding,
		c.Reasoning,
		c.FullText,
		c.FullTextURL,
		c.Jurisdiction,
		c.CaseType,
		c.CreatedAt,
		c.UpdatedAt,
	).Scan(&c.ID)
}

// Count returns the number of cases in the corpus
func (s *CaseStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cases`).Scan(&count)
	return count, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *CaseStore) scanOne(row rowScanner) (*domain.CaseRecord, error) {
	c, err := scanCase(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func scanCase(row rowScanner) (*domain.CaseRecord, error) {
	var c domain.CaseRecord
	err := row.Scan(
		&c.ID,
		&c.CaseName,
		&c.Citation,
		&c.Court,
		&c.Year,
		&c.Facts,
		&c.Issue,
		&c.Holding,
		&c.Reasoning,
		&c.FullText,
		&c.FullTextURL,
		&c.Jurisdiction,
		&c.CaseType,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
