package scheduling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueViolation is the Postgres error code raised by the partial unique
// index guarding live (doctor_id, appointment_date) pairs.
const uniqueViolation = "23505"

// pgDB is the subset of pgxpool.Pool the repository uses. Tests substitute
// a pgxmock pool through newPgRepositoryWithDB.
type pgDB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PgRepository struct {
	db pgDB
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{db: pool}
}

func newPgRepositoryWithDB(db pgDB) *PgRepository {
	return &PgRepository{db: db}
}

// Helpers

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	var hours []byte

	err := row.Scan(
		&d.ID,
		&d.FirstName,
		&d.LastName,
		&d.Specialty,
		&d.Email,
		&d.Workplace,
		&d.ContactNumber,
		&hours,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}

	if len(hours) > 0 {
		if err := json.Unmarshal(hours, &d.WorkingHours); err != nil {
			return nil, fmt.Errorf("decode working hours: %w", err)
		}
	}
	return &d, nil
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient

	err := row.Scan(
		&p.ID,
		&p.DisplayName,
		&p.Email,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	return &p, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment

	err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.UserName,
		&a.DoctorID,
		&a.DoctorName,
		&a.AppointmentDate,
		&a.Status,
		&a.CreatedAt,
		&a.IsRated,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	return &a, nil
}

const appointmentColumns = `id, user_id, user_name, doctor_id, doctor_name, appointment_date, status, created_at, is_rated`

// Interface methods

func (r *PgRepository) GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, first_name, last_name, specialty, email, workplace, contact_number, working_hours, created_at, updated_at
		FROM doctors
		WHERE id = $1
	`, id)
	return scanDoctor(row)
}

func (r *PgRepository) GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, display_name, email, created_at, updated_at
		FROM patients
		WHERE id = $1
	`, id)
	return scanPatient(row)
}

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) ListAppointments(ctx context.Context, f AppointmentFilter) ([]Appointment, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.DoctorID != nil {
		where = append(where, "doctor_id = "+arg(*f.DoctorID))
	}
	if f.UserID != nil {
		where = append(where, "user_id = "+arg(*f.UserID))
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		where = append(where, "status = ANY("+arg(statuses)+")")
	}
	if f.From != nil {
		where = append(where, "appointment_date >= "+arg(*f.From))
	}
	if f.To != nil {
		where = append(where, "appointment_date <= "+arg(*f.To))
	}

	query := `SELECT ` + appointmentColumns + ` FROM appointments`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY appointment_date DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAppointments(rows)
}

func (r *PgRepository) ListLiveAppointmentsForDay(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]Appointment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE doctor_id = $1
		  AND status IN ('pending', 'confirmed')
		  AND appointment_date >= $2
		  AND appointment_date <= $3
		ORDER BY appointment_date
	`, doctorID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAppointments(rows)
}

func (r *PgRepository) HasLiveAppointment(ctx context.Context, userID, doctorID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM appointments
			WHERE user_id = $1
			  AND doctor_id = $2
			  AND status IN ('pending', 'confirmed')
		)
	`, userID, doctorID).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// CreateAppointmentLinked runs the only multi-record write in the engine:
// the appointment insert and the conversation linkage commit together or not
// at all. The id comes in on the draft so both records agree on identity; on
// rollback no appointment row remains and a retry generates a fresh id.
func (r *PgRepository) CreateAppointmentLinked(ctx context.Context, appt Appointment, conversationID uuid.UUID) (*Appointment, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin booking tx: %w", err)
	}
	abort := func(cause error) (*Appointment, error) {
		_ = tx.Rollback(ctx)
		return nil, cause
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO appointments (id, user_id, user_name, doctor_id, doctor_name, appointment_date, status, created_at, is_rated)
		VALUES ($1, $2, $3, $4, $5, $6, 'pending', now(), false)
		RETURNING `+appointmentColumns+`
	`, appt.ID, appt.UserID, appt.UserName, appt.DoctorID, appt.DoctorName, appt.AppointmentDate)

	created, err := scanAppointment(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return abort(ErrSlotTaken)
		}
		return abort(fmt.Errorf("insert appointment: %w", err))
	}

	// appointment_id IS NULL keeps the linkage write-once: a conversation
	// that already produced a booking aborts the whole transaction.
	tag, err := tx.Exec(ctx, `
		UPDATE conversations
		SET appointment_id = $1,
		    updated_at = now()
		WHERE id = $2
		  AND user_id = $3
		  AND appointment_id IS NULL
	`, created.ID, conversationID, appt.UserID)
	if err != nil {
		return abort(fmt.Errorf("link conversation: %w", err))
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM conversations WHERE id = $1 AND user_id = $2)
		`, conversationID, appt.UserID).Scan(&exists); err != nil {
			return abort(fmt.Errorf("check conversation: %w", err))
		}
		if !exists {
			return abort(ErrConversationNotFound)
		}
		return abort(ErrConversationLinked)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit booking tx: %w", err)
	}
	return created, nil
}

func (r *PgRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2
		WHERE id = $1
		  AND status = $3
		RETURNING `+appointmentColumns+`
	`, id, to, from)

	return scanAppointment(row)
}

func (r *PgRepository) MarkAppointmentRated(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE appointments
		SET is_rated = true
		WHERE id = $1
		  AND status = 'completed'
		  AND is_rated = false
		RETURNING `+appointmentColumns+`
	`, id)

	return scanAppointment(row)
}

func (r *PgRepository) GetConversation(ctx context.Context, userID, conversationID uuid.UUID) (*Conversation, error) {
	var c Conversation
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, recommended_doctor_id, appointment_id, created_at, updated_at
		FROM conversations
		WHERE id = $1 AND user_id = $2
	`, conversationID, userID).Scan(
		&c.ID,
		&c.UserID,
		&c.RecommendedDoctorID,
		&c.AppointmentID,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	return &c, nil
}

func collectAppointments(rows pgx.Rows) ([]Appointment, error) {
	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
