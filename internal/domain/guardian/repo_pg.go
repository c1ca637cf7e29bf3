package guardian

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

const linkCols = `guardian_id, patient_id, relation, created_at, updated_at`

func scanLink(row pgx.Row) (*Link, error) {
	var l Link
	err := row.Scan(&l.GuardianID, &l.PatientID, &l.Relation, &l.CreatedAt, &l.UpdatedAt)
	return &l, err
}

func (r *repoPG) Create(ctx context.Context, l *Link) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO guardian_link (guardian_id, patient_id, relation)
		VALUES ($1, $2, $3)`,
		l.GuardianID, l.PatientID, l.Relation)
	return err
}

func (r *repoPG) Exists(ctx context.Context, guardianID, patientID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM guardian_link WHERE guardian_id = $1 AND patient_id = $2
		)`, guardianID, patientID).Scan(&exists)
	return exists, err
}

func (r *repoPG) ListPatientIDs(ctx context.Context, guardianID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT patient_id FROM guardian_link WHERE guardian_id = $1`, guardianID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *repoPG) ListByGuardian(ctx context.Context, guardianID uuid.UUID) ([]*Link, error) {
	return r.list(ctx, `SELECT `+linkCols+` FROM guardian_link WHERE guardian_id = $1 ORDER BY created_at`, guardianID)
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Link, error) {
	return r.list(ctx, `SELECT `+linkCols+` FROM guardian_link WHERE patient_id = $1 ORDER BY created_at`, patientID)
}

func (r *repoPG) list(ctx context.Context, sql string, arg interface{}) ([]*Link, error) {
	rows, err := r.pool.Query(ctx, sql, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []*Link
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

func (r *repoPG) UpdateRelation(ctx context.Context, guardianID, patientID uuid.UUID, relation *string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE guardian_link SET relation = $3, updated_at = NOW()
		WHERE guardian_id = $1 AND patient_id = $2`,
		guardianID, patientID, relation)
	return err
}

func (r *repoPG) Delete(ctx context.Context, guardianID, patientID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM guardian_link WHERE guardian_id = $1 AND patient_id = $2`,
		guardianID, patientID)
	return err
}
