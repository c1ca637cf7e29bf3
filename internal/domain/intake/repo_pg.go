package intake

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const eventCols = `ie.id, ie.user_id, ie.prescription_id, ie.medicine_id, ie.schedule_id,
	ie.reminder_time, ie.action, ie.action_time, ie.notified_at, ie.created_at, ie.updated_at,
	m.name, to_char(ds.intake_time, 'HH24:MI')`

const eventFrom = `FROM intake_event ie
	JOIN medicine m ON m.id = ie.medicine_id
	LEFT JOIN dose_schedule ds ON ds.id = ie.schedule_id`

func scanEvent(row pgx.Row) (*Event, error) {
	var e Event
	var action *string
	err := row.Scan(&e.ID, &e.UserID, &e.PrescriptionID, &e.MedicineID, &e.ScheduleID,
		&e.ReminderTime, &action, &e.ActionTime, &e.NotifiedAt, &e.CreatedAt, &e.UpdatedAt,
		&e.MedicineName, &e.ScheduleTime)
	if err != nil {
		return nil, err
	}
	if action != nil {
		e.Action = Action(*action)
	}
	return &e, nil
}

func actionParam(a Action) *string {
	if a == ActionUnresolved {
		return nil
	}
	s := string(a)
	return &s
}

func (r *repoPG) Create(ctx context.Context, e *Event) error {
	e.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO intake_event (id, user_id, prescription_id, medicine_id, schedule_id, reminder_time, action, action_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.UserID, e.PrescriptionID, e.MedicineID, e.ScheduleID,
		e.ReminderTime, actionParam(e.Action), e.ActionTime)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Event, error) {
	return scanEvent(r.pool.QueryRow(ctx,
		`SELECT `+eventCols+` `+eventFrom+` WHERE ie.id = $1`, id))
}

func (r *repoPG) Query(ctx context.Context, f Filter) ([]*Event, error) {
	sql := `SELECT ` + eventCols + ` ` + eventFrom + ` WHERE ie.user_id = ANY($1)`
	args := []interface{}{f.Subjects}
	n := 2
	if f.Start != nil {
		sql += fmt.Sprintf(` AND ie.reminder_time >= $%d`, n)
		args = append(args, *f.Start)
		n++
	}
	if f.End != nil {
		sql += fmt.Sprintf(` AND ie.reminder_time <= $%d`, n)
		args = append(args, *f.End)
		n++
	}
	if f.MedicineID != nil {
		sql += fmt.Sprintf(` AND ie.medicine_id = $%d`, n)
		args = append(args, *f.MedicineID)
	}
	sql += ` ORDER BY ie.reminder_time`
	return r.list(ctx, sql, args...)
}

func (r *repoPG) QueryDay(ctx context.Context, subject uuid.UUID, day time.Time) ([]*Event, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)
	return r.list(ctx, `SELECT `+eventCols+` `+eventFrom+`
		WHERE ie.user_id = $1 AND ie.reminder_time >= $2 AND ie.reminder_time < $3
		ORDER BY ie.reminder_time`, subject, start, end)
}

func (r *repoPG) Resolve(ctx context.Context, id uuid.UUID, action Action, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE intake_event SET action = $2, action_time = $3, updated_at = NOW()
		WHERE id = $1`, id, actionParam(action), at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repoPG) ListDue(ctx context.Context, now time.Time, limit int) ([]*Event, error) {
	return r.list(ctx, `SELECT `+eventCols+` `+eventFrom+`
		WHERE ie.action IS NULL AND ie.notified_at IS NULL AND ie.reminder_time <= $1
		ORDER BY ie.reminder_time
		LIMIT $2`, now, limit)
}

func (r *repoPG) MarkNotified(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE intake_event SET notified_at = $2, updated_at = NOW() WHERE id = $1`, id, at)
	return err
}

func (r *repoPG) ExpireOverdue(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE intake_event SET action = $1, action_time = NOW(), updated_at = NOW()
		WHERE action IS NULL AND reminder_time < $2`,
		string(ActionNoResponse), cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *repoPG) list(ctx context.Context, sql string, args ...interface{}) ([]*Event, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
