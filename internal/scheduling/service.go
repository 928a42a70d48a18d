package scheduling

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	redisclient "github.com/sanamed/telehealth-scheduling/internal/redis"
)

var (
	ErrInvalidDate = errors.New("invalid date")

	// ErrAlreadyBooked means the patient already holds a pending or
	// confirmed appointment with this doctor.
	ErrAlreadyBooked = errors.New("patient already has a live appointment with this doctor")

	ErrSlotBeingBooked = errors.New("slot is currently being booked, please retry")

	ErrInvalidStatusTransition = errors.New("invalid status transition")

	// ErrAppointmentNotDue guards the confirmed -> completed transition:
	// an appointment cannot be marked completed before its scheduled time.
	ErrAppointmentNotDue = errors.New("appointment has not taken place yet")

	ErrNotCompleted = errors.New("appointment is not completed")
	ErrAlreadyRated = errors.New("appointment already rated")
)

// legalTransitions enumerates the appointment lifecycle. pending moves to
// confirmed or declined, confirmed moves to completed, declined and
// completed are terminal.
var legalTransitions = map[AppointmentStatus]AppointmentStatus{
	StatusConfirmed: StatusPending,
	StatusDeclined:  StatusPending,
	StatusCompleted: StatusConfirmed,
}

type BookingRequest struct {
	UserID         uuid.UUID
	UserName       string
	DoctorID       uuid.UUID
	DoctorName     string
	Date           string // "2006-01-02"
	Time           string // "HH:MM"
	ConversationID uuid.UUID
}

type Service struct {
	repo   Repository
	locker redisclient.Locker
	now    func() time.Time
}

func NewService(repo Repository, locker redisclient.Locker) *Service {
	return &Service{
		repo:   repo,
		locker: locker,
		now:    time.Now,
	}
}

// GetAvailableSlots returns the doctor's free "HH:MM" slot starts for one
// civil day: the weekly template's slot walk minus the starts of that day's
// pending and confirmed appointments. A weekday the doctor does not work is
// an empty list, not an error.
func (s *Service) GetAvailableSlots(ctx context.Context, doctorID uuid.UUID, dateCivil string) ([]string, error) {
	day, err := ParseCivilDate(dateCivil)
	if err != nil {
		return nil, err
	}

	doctor, err := s.repo.GetDoctorByID(ctx, doctorID)
	if err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load doctor: %w", err)
	}

	from, to := DayBounds(day)
	live, err := s.repo.ListLiveAppointmentsForDay(ctx, doctorID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list live appointments: %w", err)
	}

	return AvailableSlots(doctor.WorkingHours, day, BookedStarts(live))
}

// HasLiveAppointment reports whether the patient already holds a pending or
// confirmed appointment with the doctor. Declined and completed history
// never blocks a new booking.
func (s *Service) HasLiveAppointment(ctx context.Context, userID, doctorID uuid.UUID) (bool, error) {
	return s.repo.HasLiveAppointment(ctx, userID, doctorID)
}

// BookAppointment atomically creates a pending appointment and links it back
// to the originating conversation.
//
// It takes the per-slot distributed lock for the doctor/start-time pair and
// re-validates inside the critical section that the slot is still free, so
// two concurrent requests for the same slot cannot both commit. The storage
// layer backs this up with a uniqueness guard on live (doctor, start time)
// pairs.
func (s *Service) BookAppointment(ctx context.Context, req BookingRequest) (*Appointment, error) {
	when, err := CombineDateTime(req.Date, req.Time)
	if err != nil {
		return nil, err
	}

	doctor, err := s.repo.GetDoctorByID(ctx, req.DoctorID)
	if err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load doctor: %w", err)
	}

	if _, err := s.repo.GetConversation(ctx, req.UserID, req.ConversationID); err != nil {
		if errors.Is(err, ErrConversationNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load conversation: %w", err)
	}

	taken, err := s.repo.HasLiveAppointment(ctx, req.UserID, req.DoctorID)
	if err != nil {
		return nil, fmt.Errorf("conflict check: %w", err)
	}
	if taken {
		return nil, ErrAlreadyBooked
	}

	var created *Appointment

	err = s.locker.WithSlotLock(ctx, req.DoctorID, when, func(lockCtx context.Context) error {
		// Inside the critical section, re-check the slot is still free.
		day, _ := ParseCivilDate(req.Date)
		from, to := DayBounds(day)
		live, err := s.repo.ListLiveAppointmentsForDay(lockCtx, req.DoctorID, from, to)
		if err != nil {
			return fmt.Errorf("re-check live appointments: %w", err)
		}
		free, err := AvailableSlots(doctor.WorkingHours, day, BookedStarts(live))
		if err != nil {
			return err
		}
		if !contains(free, req.Time) {
			return ErrSlotTaken
		}

		draft := Appointment{
			ID:              uuid.New(),
			UserID:          req.UserID,
			UserName:        req.UserName,
			DoctorID:        req.DoctorID,
			DoctorName:      req.DoctorName,
			AppointmentDate: when,
			Status:          StatusPending,
		}

		appt, err := s.repo.CreateAppointmentLinked(lockCtx, draft, req.ConversationID)
		if err != nil {
			return err
		}
		created = appt
		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, err
	}

	log.Printf("appointment %s booked doctor=%s user=%s at=%s",
		created.ID, req.DoctorID, req.UserID, when.Format(time.RFC3339))

	return created, nil
}

// SetAppointmentStatus applies one lifecycle transition. The update is a
// compare-and-swap against the expected current status, so a concurrent
// transition on the same appointment loses cleanly instead of overwriting.
func (s *Service) SetAppointmentStatus(ctx context.Context, id uuid.UUID, to AppointmentStatus) (*Appointment, error) {
	from, ok := legalTransitions[to]
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a reachable status", ErrInvalidStatusTransition, to)
	}

	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.Status != from {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, appt.Status, to)
	}
	if to == StatusCompleted && s.now().Before(appt.AppointmentDate) {
		return nil, ErrAppointmentNotDue
	}

	updated, err := s.repo.UpdateAppointmentStatus(ctx, id, from, to)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			// The CAS lost: someone else transitioned the row between our
			// read and the update.
			return nil, fmt.Errorf("%w: status changed concurrently", ErrInvalidStatusTransition)
		}
		return nil, fmt.Errorf("update status: %w", err)
	}
	return updated, nil
}

// GetAppointment retrieves one appointment by id.
func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetAppointmentByID(ctx, id)
}

// ListAppointments retrieves appointments matching the filter, newest first.
func (s *Service) ListAppointments(ctx context.Context, f AppointmentFilter) ([]Appointment, error) {
	appts, err := s.repo.ListAppointments(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return appts, nil
}

// RateAppointment flags a completed appointment as rated. A patient rates
// an appointment once, after the doctor marked it completed.
func (s *Service) RateAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.Status != StatusCompleted {
		return nil, ErrNotCompleted
	}
	if appt.IsRated {
		return nil, ErrAlreadyRated
	}
	return s.repo.MarkAppointmentRated(ctx, id)
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
