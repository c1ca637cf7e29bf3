package billing

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const subCols = `id, user_id, plan, status, session_id, starts_at, expires_at, created_at, updated_at`

func scanSubscription(row pgx.Row) (*Subscription, error) {
	var s Subscription
	err := row.Scan(&s.ID, &s.UserID, &s.Plan, &s.Status, &s.SessionID,
		&s.StartsAt, &s.ExpiresAt, &s.CreatedAt, &s.UpdatedAt)
	return &s, err
}

func (r *repoPG) Create(ctx context.Context, s *Subscription) error {
	s.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO subscription (id, user_id, plan, status, session_id)
		VALUES ($1, $2, $3, $4, $5)`,
		s.ID, s.UserID, s.Plan, s.Status, s.SessionID)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Subscription, error) {
	return scanSubscription(r.pool.QueryRow(ctx,
		`SELECT `+subCols+` FROM subscription WHERE id = $1`, id))
}

func (r *repoPG) GetBySessionID(ctx context.Context, sessionID string) (*Subscription, error) {
	return scanSubscription(r.pool.QueryRow(ctx,
		`SELECT `+subCols+` FROM subscription WHERE session_id = $1`, sessionID))
}

func (r *repoPG) Update(ctx context.Context, s *Subscription) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE subscription SET status = $2, starts_at = $3, expires_at = $4, updated_at = NOW()
		WHERE id = $1`,
		s.ID, s.Status, s.StartsAt, s.ExpiresAt)
	return err
}

func (r *repoPG) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Subscription, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+subCols+` FROM subscription WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Subscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
