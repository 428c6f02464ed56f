package repository

import (
	"context"
	"errors"
	"time"

	"nowas_backend/internal/leads/domain"
	"nowas_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps leads in the leads table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps a migrated pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (r *PostgresStore) Append(ctx context.Context, lead domain.Lead) (domain.Lead, error) {
	if lead.Status == "" {
		lead.Status = domain.StatusNew
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO leads (id, submitted_at, name, phone, email, note, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, lead.ID, lead.SubmittedAt, lead.Name, lead.Phone, lead.Email, lead.Note, string(lead.Status))
	if err != nil {
		return domain.Lead{}, apperr.StoreUnavailable("Append", err)
	}
	return lead, nil
}

func (r *PostgresStore) List(ctx context.Context) ([]domain.Lead, error) {
	rows, err := r.pool.Query(ctx, `
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
		lead, err := scanPostgresLead(rows)
		if err != nil {
			return nil, apperr.StoreUnavailable("List", err)
		}
		items = append(items, lead)
	}

	if rows.Err() != nil {
		return nil, apperr.StoreUnavailable("List", rows.Err())
	}

	return items, nil
}

func (r *PostgresStore) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.Status) (domain.Lead, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE leads SET status = $2
		WHERE id = $1
		RETURNING id, submitted_at, name, phone, email, note, status
	`, id, string(status))

	lead, err := scanPostgresLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, errLeadNotFound(id)
	}
	if err != nil {
		return domain.Lead{}, apperr.StoreUnavailable("UpdateStatus", err)
	}
	return lead, nil
}

func (r *PostgresStore) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *PostgresStore) Backend() string { return "postgres" }

func scanPostgresLead(row pgx.Row) (domain.Lead, error) {
	var (
		lead        domain.Lead
		submittedAt time.Time
		status      string
	)
	if err := row.Scan(&lead.ID, &submittedAt, &lead.Name, &lead.Phone, &lead.Email, &lead.Note, &status); err != nil {
		return domain.Lead{}, err
	}
	lead.SubmittedAt = submittedAt
	lead.Status, _ = domain.ParseStatus(status)
	return lead, nil
}
