package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carebridge/calsync/internal/calendar"
	"github.com/carebridge/calsync/internal/db"
)

type person struct {
	id   uuid.UUID
	name string
}

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

	doctors := fakePeople(12)
	patients := fakePeople(200)

	if err := seedAvailableSlots(context.Background(), pool, doctors, 400); err != nil {
		log.Fatalf("seed available slots: %v", err)
	}
	if err := seedAppointments(context.Background(), pool, doctors, patients, 600); err != nil {
		log.Fatalf("seed appointments: %v", err)
	}

	log.Println("seed complete")
}

func fakePeople(count int) []person {
	out := make([]person, count)
	for i := range out {
		out[i] = person{id: uuid.New(), name: gofakeit.Name()}
	}
	return out
}

var eventTypes = []string{
	"consultation",
	"follow-up",
	"physiotherapy",
	"assessment",
	"lab",
	"imaging",
}

func seedAvailableSlots(ctx context.Context, pool *pgxpool.Pool, doctors []person, count int) error {
	log.Printf("seeding %d available slots", count)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		doc := doctors[gofakeit.Number(0, len(doctors)-1)]
		start := randomSlotStart()
		end := start.Add(30 * time.Minute)

		_, err := tx.Exec(ctx, `
			INSERT INTO calendar_events (
				id, title, start_time, end_time, all_day,
				description, location, notes,
				patient_id, patient_name, doctor_id, doctor_name,
				event_type, status, is_available,
				remote_id, synced, created_at, updated_at
			)
			VALUES ($1, $2, $3, $4, false, '', '', '', NULL, '', $5, $6, $7, $8, true, NULL, false, now(), now())
		`, uuid.New(), "Open slot", start, end, doc.id, doc.name,
			eventTypes[gofakeit.Number(0, len(eventTypes)-1)], calendar.StatusScheduled)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("available slots seeded")
	return nil
}

func seedAppointments(ctx context.Context, pool *pgxpool.Pool, doctors, patients []person, count int) error {
	log.Printf("seeding %d appointments", count)

	const batchSize = 200

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for i := offset; i < end; i++ {
			doc := doctors[gofakeit.Number(0, len(doctors)-1)]
			pat := patients[gofakeit.Number(0, len(patients)-1)]
			start := randomSlotStart()
			duration := time.Duration(gofakeit.Number(1, 4)) * 30 * time.Minute

			status := calendar.StatusScheduled
			if gofakeit.Number(0, 3) == 0 {
				status = calendar.StatusConfirmed
			}

			_, err := tx.Exec(ctx, `
				INSERT INTO calendar_events (
					id, title, start_time, end_time, all_day,
					description, location, notes,
					patient_id, patient_name, doctor_id, doctor_name,
					event_type, status, is_available,
					remote_id, synced, created_at, updated_at
				)
				VALUES ($1, $2, $3, $4, false, $5, $6, '', $7, $8, $9, $10, $11, $12, false, NULL, false, now(), now())
			`, uuid.New(), gofakeit.Sentence(3), start, start.Add(duration),
				gofakeit.Sentence(8), gofakeit.City(),
				pat.id, pat.name, doc.id, doc.name,
				eventTypes[gofakeit.Number(0, len(eventTypes)-1)], status)
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		log.Printf("appointments seeded: %d/%d", end, count)
	}

	log.Println("appointments seeded")
	return nil
}

// randomSlotStart picks a half-hour-aligned business-hours start within
// the next 45 days.
func randomSlotStart() time.Time {
	day := gofakeit.Number(0, 45)
	hour := gofakeit.Number(8, 17)
	half := gofakeit.Number(0, 1) * 30

	base := time.Now().AddDate(0, 0, day)
	return time.Date(base.Year(), base.Month(), base.Day(), hour, half, 0, 0, time.Local)
}
