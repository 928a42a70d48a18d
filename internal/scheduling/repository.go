package scheduling

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrDoctorNotFound       = errors.New("doctor not found")
	ErrPatientNotFound      = errors.New("patient not found")
	ErrAppointmentNotFound  = errors.New("appointment not found")
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrSlotTaken fires when the slot uniqueness guard rejects an insert:
	// another live appointment already occupies the doctor/start-time pair.
	ErrSlotTaken = errors.New("slot already taken")

	// ErrConversationLinked fires when the originating conversation already
	// carries an appointment id; linkage is set exactly once.
	ErrConversationLinked = errors.New("conversation already linked to an appointment")
)

// Repository contains all DB interactions needed by the scheduling service.
type Repository interface {
	GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error)

	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	ListAppointments(ctx context.Context, f AppointmentFilter) ([]Appointment, error)

	// ListLiveAppointmentsForDay returns the doctor's pending and confirmed
	// appointments whose date falls inside the closed interval [from, to].
	ListLiveAppointmentsForDay(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]Appointment, error)

	// HasLiveAppointment is an existence check over the patient/doctor pair,
	// status pending or confirmed.
	HasLiveAppointment(ctx context.Context, userID, doctorID uuid.UUID) (bool, error)

	// CreateAppointmentLinked inserts the appointment and sets the source
	// conversation's appointment id in one transaction. Both writes commit
	// or neither does; on failure no appointment row exists and the caller
	// may retry with a fresh id.
	CreateAppointmentLinked(ctx context.Context, appt Appointment, conversationID uuid.UUID) (*Appointment, error)

	// UpdateAppointmentStatus is a compare-and-swap on the status column.
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error)

	// MarkAppointmentRated flips is_rated once on a completed appointment.
	MarkAppointmentRated(ctx context.Context, id uuid.UUID) (*Appointment, error)

	GetConversation(ctx context.Context, userID, conversationID uuid.UUID) (*Conversation, error)
}
