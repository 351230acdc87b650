package calendar

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const eventColumns = `
	id, title, start_time, end_time, all_day,
	description, location, notes,
	patient_id, patient_name, doctor_id, doctor_name,
	event_type, status, is_available,
	remote_id, synced, created_at, updated_at
`

// Helpers

func scanEvent(row pgx.Row) (*Event, error) {
	var e Event
	var patientID, doctorID *uuid.UUID
	var remoteID *string

	err := row.Scan(
		&e.ID,
		&e.Title,
		&e.Start,
		&e.End,
		&e.AllDay,
		&e.Description,
		&e.Location,
		&e.Notes,
		&patientID,
		&e.PatientName,
		&doctorID,
		&e.DoctorName,
		&e.Type,
		&e.Status,
		&e.IsAvailable,
		&remoteID,
		&e.Synced,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}

	e.PatientID = patientID
	e.DoctorID = doctorID
	if remoteID != nil {
		e.RemoteID = *remoteID
	}
	return &e, nil
}

func collectEvents(rows pgx.Rows) ([]Event, error) {
	defer rows.Close()

	var result []Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// Interface methods

func (r *PgRepository) GetEventByID(ctx context.Context, id uuid.UUID) (*Event, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+eventColumns+`
		FROM calendar_events
		WHERE id = $1
	`, id)
	return scanEvent(row)
}

func (r *PgRepository) ListEvents(ctx context.Context, from, to time.Time) ([]Event, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+eventColumns+`
		FROM calendar_events
		WHERE start_time >= $1
		  AND start_time < $2
		ORDER BY start_time
	`, from, to)
	if err != nil {
		return nil, err
	}
	return collectEvents(rows)
}

func (r *PgRepository) InsertEvent(ctx context.Context, e *Event) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO calendar_events (
			id, title, start_time, end_time, all_day,
			description, location, notes,
			patient_id, patient_name, doctor_id, doctor_name,
			event_type, status, is_available,
			remote_id, synced, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, now(), now())
	`,
		e.ID, e.Title, e.Start, e.End, e.AllDay,
		e.Description, e.Location, e.Notes,
		e.PatientID, e.PatientName, e.DoctorID, e.DoctorName,
		e.Type, e.Status, e.IsAvailable,
		nullableString(e.RemoteID), e.Synced,
	)
	return err
}

func (r *PgRepository) UpdateEvent(ctx context.Context, e *Event) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE calendar_events
		SET title = $2,
		    start_time = $3,
		    end_time = $4,
		    all_day = $5,
		    description = $6,
		    location = $7,
		    notes = $8,
		    patient_id = $9,
		    patient_name = $10,
		    doctor_id = $11,
		    doctor_name = $12,
		    event_type = $13,
		    status = $14,
		    is_available = $15,
		    remote_id = $16,
		    synced = $17,
		    updated_at = now()
		WHERE id = $1
	`,
		e.ID, e.Title, e.Start, e.End, e.AllDay,
		e.Description, e.Location, e.Notes,
		e.PatientID, e.PatientName, e.DoctorID, e.DoctorName,
		e.Type, e.Status, e.IsAvailable,
		nullableString(e.RemoteID), e.Synced,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEventNotFound
	}
	return nil
}

func (r *PgRepository) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM calendar_events
		WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEventNotFound
	}
	return nil
}

func (r *PgRepository) MarkSynced(ctx context.Context, id uuid.UUID, remoteID string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE calendar_events
		SET remote_id = $2,
		    synced = true,
		    updated_at = now()
		WHERE id = $1
	`, id, nullableString(remoteID))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEventNotFound
	}
	return nil
}

func (r *PgRepository) ListUnsynced(ctx context.Context, limit int) ([]Event, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+eventColumns+`
		FROM calendar_events
		WHERE synced = false
		ORDER BY updated_at
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	return collectEvents(rows)
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
