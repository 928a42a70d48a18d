package scheduling

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (pgxmock.PgxPoolIface, *PgRepository) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, newPgRepositoryWithDB(mock)
}

func appointmentRow(a Appointment) *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "user_id", "user_name", "doctor_id", "doctor_name",
		"appointment_date", "status", "created_at", "is_rated",
	}).AddRow(a.ID, a.UserID, a.UserName, a.DoctorID, a.DoctorName,
		a.AppointmentDate, a.Status, a.CreatedAt, a.IsRated)
}

func sampleAppointment() Appointment {
	return Appointment{
		ID:              uuid.New(),
		UserID:          uuid.New(),
		UserName:        "Ana Torres",
		DoctorID:        uuid.New(),
		DoctorName:      "Dr. Elena Marchetti",
		AppointmentDate: time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC),
		Status:          StatusPending,
		CreatedAt:       time.Now().UTC(),
	}
}

func TestPgGetDoctorByID(t *testing.T) {
	mock, repo := newMockRepo(t)
	id := uuid.New()
	hours := []byte(`[{"dayOfWeek":1,"slots":[{"start":"09:00","end":"12:00"}]}]`)

	mock.ExpectQuery("SELECT id, first_name, last_name").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "first_name", "last_name", "specialty", "email",
			"workplace", "contact_number", "working_hours", "created_at", "updated_at",
		}).AddRow(id, "Elena", "Marchetti", "Dermatology", (*string)(nil),
			(*string)(nil), (*string)(nil), hours, time.Now(), time.Now()))

	doctor, err := repo.GetDoctorByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Elena", doctor.FirstName)
	require.Len(t, doctor.WorkingHours, 1)
	assert.Equal(t, 1, doctor.WorkingHours[0].DayOfWeek)
	assert.Equal(t, "09:00", doctor.WorkingHours[0].Slots[0].Start)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgGetDoctorByIDNotFound(t *testing.T) {
	mock, repo := newMockRepo(t)
	id := uuid.New()

	mock.ExpectQuery("SELECT id, first_name, last_name").
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetDoctorByID(context.Background(), id)
	assert.ErrorIs(t, err, ErrDoctorNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgHasLiveAppointment(t *testing.T) {
	mock, repo := newMockRepo(t)
	userID, doctorID := uuid.New(), uuid.New()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(userID, doctorID).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	live, err := repo.HasLiveAppointment(context.Background(), userID, doctorID)
	require.NoError(t, err)
	assert.True(t, live)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgListLiveAppointmentsForDay(t *testing.T) {
	mock, repo := newMockRepo(t)
	a := sampleAppointment()
	from := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 6, 3, 23, 59, 59, 999000000, time.UTC)

	mock.ExpectQuery("FROM appointments").
		WithArgs(a.DoctorID, from, to).
		WillReturnRows(appointmentRow(a))

	got, err := repo.ListLiveAppointmentsForDay(context.Background(), a.DoctorID, from, to)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, a.ID, got[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgCreateAppointmentLinkedCommitsBothWrites(t *testing.T) {
	mock, repo := newMockRepo(t)
	a := sampleAppointment()
	convID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO appointments").
		WithArgs(a.ID, a.UserID, a.UserName, a.DoctorID, a.DoctorName, a.AppointmentDate).
		WillReturnRows(appointmentRow(a))
	mock.ExpectExec("UPDATE conversations").
		WithArgs(a.ID, convID, a.UserID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	created, err := repo.CreateAppointmentLinked(context.Background(), a, convID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, created.ID)
	assert.Equal(t, StatusPending, created.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgCreateAppointmentLinkedSlotTaken(t *testing.T) {
	mock, repo := newMockRepo(t)
	a := sampleAppointment()
	convID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO appointments").
		WithArgs(a.ID, a.UserID, a.UserName, a.DoctorID, a.DoctorName, a.AppointmentDate).
		WillReturnError(&pgconn.PgError{Code: uniqueViolation})
	mock.ExpectRollback()

	_, err := repo.CreateAppointmentLinked(context.Background(), a, convID)
	assert.ErrorIs(t, err, ErrSlotTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgCreateAppointmentLinkedConversationGone(t *testing.T) {
	mock, repo := newMockRepo(t)
	a := sampleAppointment()
	convID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO appointments").
		WithArgs(a.ID, a.UserID, a.UserName, a.DoctorID, a.DoctorName, a.AppointmentDate).
		WillReturnRows(appointmentRow(a))
	mock.ExpectExec("UPDATE conversations").
		WithArgs(a.ID, convID, a.UserID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(convID, a.UserID).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectRollback()

	_, err := repo.CreateAppointmentLinked(context.Background(), a, convID)
	assert.ErrorIs(t, err, ErrConversationNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgCreateAppointmentLinkedConversationAlreadyLinked(t *testing.T) {
	mock, repo := newMockRepo(t)
	a := sampleAppointment()
	convID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO appointments").
		WithArgs(a.ID, a.UserID, a.UserName, a.DoctorID, a.DoctorName, a.AppointmentDate).
		WillReturnRows(appointmentRow(a))
	mock.ExpectExec("UPDATE conversations").
		WithArgs(a.ID, convID, a.UserID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(convID, a.UserID).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	_, err := repo.CreateAppointmentLinked(context.Background(), a, convID)
	assert.ErrorIs(t, err, ErrConversationLinked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgUpdateAppointmentStatusCAS(t *testing.T) {
	mock, repo := newMockRepo(t)
	a := sampleAppointment()
	a.Status = StatusConfirmed

	mock.ExpectQuery("UPDATE appointments").
		WithArgs(a.ID, StatusConfirmed, StatusPending).
		WillReturnRows(appointmentRow(a))

	updated, err := repo.UpdateAppointmentStatus(context.Background(), a.ID, StatusPending, StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, updated.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgUpdateAppointmentStatusCASMiss(t *testing.T) {
	mock, repo := newMockRepo(t)
	id := uuid.New()

	// The row is no longer in the expected source status.
	mock.ExpectQuery("UPDATE appointments").
		WithArgs(id, StatusConfirmed, StatusPending).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.UpdateAppointmentStatus(context.Background(), id, StatusPending, StatusConfirmed)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgMarkAppointmentRatedGuard(t *testing.T) {
	mock, repo := newMockRepo(t)
	id := uuid.New()

	mock.ExpectQuery("UPDATE appointments").
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.MarkAppointmentRated(context.Background(), id)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
