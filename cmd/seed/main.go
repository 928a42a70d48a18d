package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sanamed/telehealth-scheduling/internal/db"
	"github.com/sanamed/telehealth-scheduling/internal/scheduling"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	doctorIDs, err := seedDoctors(context.Background(), pool, 50)
	if err != nil {
		log.Fatalf("seed doctors: %v", err)
	}
	patientIDs, err := seedPatients(context.Background(), pool, 2000)
	if err != nil {
		log.Fatalf("seed patients: %v", err)
	}
	if err := seedConversations(context.Background(), pool, patientIDs, doctorIDs); err != nil {
		log.Fatalf("seed conversations: %v", err)
	}

	log.Println("seed complete")
}

var specialties = []string{
	"Dermatology",
	"Cardiology",
	"General Practice",
	"Orthopedics",
	"Endocrinology",
	"Neurology",
	"Pediatrics",
	"Psychiatry",
	"Ophthalmology",
	"ENT",
}

// randomWeeklyTemplate builds plausible working hours: Monday to Friday,
// morning range and sometimes an afternoon one. Roughly one doctor in ten
// has no template at all, mirroring doctors who never filled the form.
func randomWeeklyTemplate() []scheduling.WorkDay {
	if gofakeit.Number(1, 10) == 1 {
		return nil
	}

	var week []scheduling.WorkDay
	for dow := 1; dow <= 5; dow++ {
		if gofakeit.Number(1, 5) == 1 {
			continue // day off
		}
		ranges := []scheduling.TimeRange{{Start: "09:00", End: "12:00"}}
		if gofakeit.Bool() {
			ranges = append(ranges, scheduling.TimeRange{Start: "14:00", End: "17:30"})
		}
		week = append(week, scheduling.WorkDay{DayOfWeek: dow, Slots: ranges})
	}
	return week
}

func seedDoctors(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d doctors", count)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New()
		first := gofakeit.FirstName()
		last := gofakeit.LastName()
		specialty := specialties[gofakeit.Number(0, len(specialties)-1)]
		email := gofakeit.Email()
		workplace := gofakeit.Company() + " Clinic"
		phone := gofakeit.Phone()

		hours, err := json.Marshal(randomWeeklyTemplate())
		if err != nil {
			return nil, err
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO doctors (id, first_name, last_name, specialty, email, workplace, contact_number, working_hours, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		`, id, first, last, specialty, email, workplace, phone, hours)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Println("doctors seeded")
	return ids, nil
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d patients", count)

	const batchSize = 500

	ids := make([]uuid.UUID, 0, count)
	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return nil, err
		}

		for i := offset; i < end; i++ {
			id := uuid.New()
			name := gofakeit.Name()
			email := gofakeit.Email()

			_, err := tx.Exec(ctx, `
				INSERT INTO patients (id, display_name, email, created_at, updated_at)
				VALUES ($1, $2, $3, now(), now())
			`, id, name, email)
			if err != nil {
				_ = tx.Rollback(ctx)
				return nil, err
			}
			ids = append(ids, id)
		}

		if err := tx.Commit(ctx); err != nil {
			return nil, err
		}

		log.Printf("patients seeded: %d/%d", end, count)
	}

	log.Println("patients seeded")
	return ids, nil
}

// seedConversations gives every patient one open intake conversation with a
// recommended doctor, the state a patient is in right before booking.
func seedConversations(ctx context.Context, pool *pgxpool.Pool, patientIDs, doctorIDs []uuid.UUID) error {
	log.Printf("seeding %d conversations", len(patientIDs))

	const batchSize = 500

	for offset := 0; offset < len(patientIDs); offset += batchSize {
		end := offset + batchSize
		if end > len(patientIDs) {
			end = len(patientIDs)
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for _, patientID := range patientIDs[offset:end] {
			doctorID := doctorIDs[gofakeit.Number(0, len(doctorIDs)-1)]

			_, err := tx.Exec(ctx, `
				INSERT INTO conversations (id, user_id, recommended_doctor_id, created_at, updated_at)
				VALUES ($1, $2, $3, now(), now())
			`, uuid.New(), patientID, doctorID)
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}
	}

	log.Println("conversations seeded")
	return nil
}
