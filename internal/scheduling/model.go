package scheduling

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusDeclined  AppointmentStatus = "declined"
	StatusCompleted AppointmentStatus = "completed"
)

// SlotDuration is the fixed booking grid. Every bookable slot starts on a
// 30-minute step anchored to its work range's own start time.
const SlotDuration = 30 * time.Minute

// TimeRange is a doctor's working window inside a single day, minute
// precision, "HH:MM" wall-clock strings. Start must be before End.
type TimeRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// WorkDay is one entry of a doctor's weekly template. DayOfWeek follows
// time.Weekday numbering: 0 is Sunday.
type WorkDay struct {
	DayOfWeek int         `json:"dayOfWeek"`
	Slots     []TimeRange `json:"slots"`
}

type Doctor struct {
	ID            uuid.UUID
	FirstName     string
	LastName      string
	Specialty     string
	Email         *string
	Workplace     *string
	ContactNumber *string
	WorkingHours  []WorkDay
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (d *Doctor) DisplayName() string {
	return "Dr. " + d.FirstName + " " + d.LastName
}

type Patient struct {
	ID          uuid.UUID
	DisplayName string
	Email       *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Appointment is immutable after creation except for Status and IsRated.
type Appointment struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	UserName        string
	DoctorID        uuid.UUID
	DoctorName      string
	AppointmentDate time.Time
	Status          AppointmentStatus
	CreatedAt       time.Time
	IsRated         bool
}

// Live reports whether the appointment still occupies its slot and blocks
// further bookings between the same patient and doctor.
func (a *Appointment) Live() bool {
	return a.Status == StatusPending || a.Status == StatusConfirmed
}

// Conversation is owned by the intake chat flow. The scheduler only ever
// sets AppointmentID, exactly once, when a booking is created from it.
type Conversation struct {
	ID                  uuid.UUID
	UserID              uuid.UUID
	RecommendedDoctorID *uuid.UUID
	AppointmentID       *uuid.UUID
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// AppointmentFilter narrows ListAppointments. Zero-value fields are ignored.
type AppointmentFilter struct {
	DoctorID *uuid.UUID
	UserID   *uuid.UUID
	Statuses []AppointmentStatus
	From     *time.Time
	To       *time.Time
}
