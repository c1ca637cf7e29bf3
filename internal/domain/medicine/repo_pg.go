package medicine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const medCols = `id, name, description, created_at, updated_at`

func scanMedicine(row pgx.Row) (*Medicine, error) {
	var m Medicine
	err := row.Scan(&m.ID, &m.Name, &m.Description, &m.CreatedAt, &m.UpdatedAt)
	return &m, err
}

func (r *repoPG) Create(ctx context.Context, m *Medicine) error {
	m.ID = uuid.New()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO medicine (id, name, description) VALUES ($1, $2, $3)`,
		m.ID, m.Name, m.Description)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Medicine, error) {
	return scanMedicine(r.pool.QueryRow(ctx,
		`SELECT `+medCols+` FROM medicine WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, m *Medicine) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE medicine SET name = $2, description = $3, updated_at = NOW() WHERE id = $1`,
		m.ID, m.Name, m.Description)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM medicine WHERE id = $1`, id)
	return err
}

func (r *repoPG) List(ctx context.Context, q string, limit, offset int) ([]*Medicine, int, error) {
	where := ``
	args := []interface{}{}
	if q != "" {
		where = ` WHERE name ILIKE $1 || '%'`
		args = append(args, q)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM medicine`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	n := len(args)
	rows, err := r.pool.Query(ctx,
		fmt.Sprintf(`SELECT `+medCols+` FROM medicine`+where+` ORDER BY name LIMIT $%d OFFSET $%d`, n+1, n+2),
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*Medicine
	for rows.Next() {
		m, err := scanMedicine(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, m)
	}
	return out, total, rows.Err()
}
