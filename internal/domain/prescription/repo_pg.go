package prescription

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const rxCols = `p.id, p.user_id, p.medicine_id, p.dosage, p.instructions,
	p.start_date, p.end_date, p.created_at, p.updated_at, m.name`

func scanPrescription(row pgx.Row) (*Prescription, error) {
	var p Prescription
	err := row.Scan(&p.ID, &p.UserID, &p.MedicineID, &p.Dosage, &p.Instructions,
		&p.StartDate, &p.EndDate, &p.CreatedAt, &p.UpdatedAt, &p.MedicineName)
	return &p, err
}

func (r *repoPG) Create(ctx context.Context, p *Prescription) error {
	p.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO prescription (id, user_id, medicine_id, dosage, instructions, start_date, end_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.UserID, p.MedicineID, p.Dosage, p.Instructions, p.StartDate, p.EndDate)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	return scanPrescription(r.pool.QueryRow(ctx, `
		SELECT `+rxCols+` FROM prescription p
		JOIN medicine m ON m.id = p.medicine_id
		WHERE p.id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, p *Prescription) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE prescription SET dosage=$2, instructions=$3, start_date=$4, end_date=$5, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.Dosage, p.Instructions, p.StartDate, p.EndDate)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM prescription WHERE id = $1`, id)
	return err
}

func (r *repoPG) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM prescription WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+rxCols+` FROM prescription p
		JOIN medicine m ON m.id = p.medicine_id
		WHERE p.user_id = $1
		ORDER BY p.created_at DESC
		LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*Prescription
	for rows.Next() {
		p, err := scanPrescription(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (r *repoPG) CountForUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM prescription WHERE user_id = $1`, userID).Scan(&n)
	return n, err
}

const activeCond = `(start_date IS NULL OR start_date <= $2) AND (end_date IS NULL OR end_date >= $2)`

func (r *repoPG) CountActiveForUser(ctx context.Context, userID uuid.UUID, day time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM prescription WHERE user_id = $1 AND `+activeCond,
		userID, day).Scan(&n)
	return n, err
}

func (r *repoPG) CountDistinctActiveMedicines(ctx context.Context, userID uuid.UUID, day time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(DISTINCT medicine_id) FROM prescription WHERE user_id = $1 AND `+activeCond,
		userID, day).Scan(&n)
	return n, err
}

func (r *repoPG) AddSchedule(ctx context.Context, s *Schedule) error {
	s.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO dose_schedule (id, prescription_id, intake_time)
		VALUES ($1, $2, $3)`,
		s.ID, s.PrescriptionID, s.IntakeTime)
	return err
}

func (r *repoPG) GetSchedule(ctx context.Context, id uuid.UUID) (*Schedule, error) {
	var s Schedule
	err := r.pool.QueryRow(ctx, `
		SELECT id, prescription_id, to_char(intake_time, 'HH24:MI'), created_at
		FROM dose_schedule WHERE id = $1`, id).
		Scan(&s.ID, &s.PrescriptionID, &s.IntakeTime, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repoPG) ListSchedules(ctx context.Context, prescriptionID uuid.UUID) ([]*Schedule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, prescription_id, to_char(intake_time, 'HH24:MI'), created_at
		FROM dose_schedule WHERE prescription_id = $1
		ORDER BY intake_time`, prescriptionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Schedule
	for rows.Next() {
		var s Schedule
		if err := rows.Scan(&s.ID, &s.PrescriptionID, &s.IntakeTime, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

func (r *repoPG) DeleteSchedule(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM dose_schedule WHERE id = $1`, id)
	return err
}
