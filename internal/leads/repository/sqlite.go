package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"nowas_backend/internal/leads/domain"
	"nowas_backend/platform/apperr"

	"github.com/google/uuid"
)

// SQLiteStore keeps leads in a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore wraps a migrated database handle.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (r *SQLiteStore) Append(ctx context.Context, lead domain.Lead) (domain.Lead, error) {
	if lead.Status == "" {
		lead.Status = domain.StatusNew
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO leads (id, submitted_at, name, phone, email, note, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, lead.ID.String(), lead.SubmittedAt.UTC().Format(time.RFC3339Nano), lead.Name, lead.Phone, lead.Email, lead.Note, string(lead.Status))
	if err != nil {
		return domain.Lead{}, apperr.StoreUnavailable("Append", err)
	}
	return lead, nil
}

func (r *SQLiteStore) List(ctx context.Context) ([]domain.Lead, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, submitted_at, name, phone, email, note, status
		FROM leads
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, apperr.StoreUnavailable("List", err)
	}
	defer rows.Close()

	items := make([]domain.Lead, 0)
	for rows.Next() {
		lead, err := scanSQLiteLead(rows)
		if err != nil {
			return nil, apperr.StoreUnavailable("List", err)
		}
		items = append(items, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.StoreUnavailable("List", err)
	}
	return items, nil
}

func (r *SQLiteStore) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.Status) (domain.Lead, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE leads SET status = ?
		WHERE id = ?
		RETURNING id, submitted_at, name, phone, email, note, status
	`, string(status), id.String())

	lead, err := scanSQLiteLead(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Lead{}, errLeadNotFound(id)
	}
	if err != nil {
		return domain.Lead{}, apperr.StoreUnavailable("UpdateStatus", err)
	}
	return lead, nil
}

func (r *SQLiteStore) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteStore) Backend() string { return "sqlite" }

type scanner interface {
	Scan(dest ...any) error
}

func scanSQLiteLead(row scanner) (domain.Lead, error) {
	var (
		lead                    domain.Lead
		id, submittedAt, status string
	)
	if err := row.Scan(&id, &submittedAt, &lead.Name, &lead.Phone, &lead.Email, &lead.Note, &status); err != nil {
		return domain.Lead{}, err
	}

	parsedID, err := uuid.Parse(id)
	if err != nil {
		return domain.Lead{}, fmt.Errorf("parse lead id %q: %w", id, err)
	}
	lead.ID = parsedID

	if lead.SubmittedAt, err = time.Parse(time.RFC3339Nano, submittedAt); err != nil {
		return domain.Lead{}, fmt.Errorf("parse submitted_at %q: %w", submittedAt, err)
	}
	lead.Status, _ = domain.ParseStatus(status)
	return lead, nil
}
