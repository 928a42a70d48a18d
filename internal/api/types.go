package api

import (
	"time"

	"github.com/google/uuid"
)

type BookAppointmentRequest struct {
	UserID         string `json:"user_id"`
	UserName       string `json:"user_name"`
	DoctorID       string `json:"doctor_id"`
	DoctorName     string `json:"doctor_name"`
	Date           string `json:"date"` // YYYY-MM-DD
	Time           string `json:"time"` // HH:MM
	ConversationID string `json:"conversation_id"`
}

type SetStatusRequest struct {
	Status string `json:"status"`
}

type AppointmentResponse struct {
	ID              uuid.UUID `json:"id"`
	UserID          uuid.UUID `json:"user_id"`
	UserName        string    `json:"user_name"`
	DoctorID        uuid.UUID `json:"doctor_id"`
	DoctorName      string    `json:"doctor_name"`
	AppointmentDate time.Time `json:"appointment_date"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	IsRated         bool      `json:"is_rated"`
}

type AvailabilityResponse struct {
	DoctorID uuid.UUID `json:"doctor_id"`
	Date     string    `json:"date"`
	Slots    []string  `json:"slots"`
}

type ConflictResponse struct {
	HasLiveAppointment bool `json:"has_live_appointment"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
