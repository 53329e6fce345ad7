package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"seatwise/internal/events"
	"seatwise/internal/seats"
	"seatwise/internal/shared/config"
	"seatwise/internal/shared/database"
	"seatwise/internal/users"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

type Seeder struct {
	db *database.DB
}

func main() {
	fmt.Println("🌱 Starting Seatwise Database Seeder...")

	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	seeder := &Seeder{db: db}

	fmt.Println("\n🧹 Cleaning database...")
	if err := seeder.CleanDatabase(); err != nil {
		log.Fatalf("Failed to clean database: %v", err)
	}
	fmt.Println("✅ Database cleaned successfully")

	fmt.Println("\n🌱 Seeding database...")
	if err := seeder.SeedAll(); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}

	fmt.Println("\n🎉 Seeding completed! Database is ready for testing.")
}

// CleanDatabase truncates all tables in reverse dependency order.
func (s *Seeder) CleanDatabase() error {
	tables := []string{
		"payments",
		"reservations",
		"seats",
		"events",
		"users",
	}

	tx := s.db.PostgreSQL.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	for _, table := range tables {
		if err := tx.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to truncate %s: %w", table, err)
		}
	}

	return tx.Commit().Error
}

func (s *Seeder) SeedAll() error {
	admin, staff, user, err := s.seedUsers()
	if err != nil {
		return err
	}
	fmt.Printf("✅ Seeded users: %s, %s, %s\n", admin.Email, staff.Email, user.Email)

	if err := s.seedEvents(admin); err != nil {
		return err
	}

	return nil
}

func (s *Seeder) seedUsers() (*users.User, *users.User, *users.User, error) {
	hash := func(password string) string {
		hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("Failed to hash password: %v", err)
		}
		return string(hashed)
	}

	admin := &users.User{
		FirstName: "Ada",
		LastName:  "Admin",
		Email:     "admin@seatwise.io",
		Password:  hash("admin123"),
		Role:      users.RoleAdmin,
	}
	staff := &users.User{
		FirstName: "Sam",
		LastName:  "Staff",
		Email:     "staff@seatwise.io",
		Password:  hash("staff123"),
		Role:      users.RoleStaff,
	}
	user := &users.User{
		FirstName: "Uma",
		LastName:  "User",
		Email:     "user@seatwise.io",
		Password:  hash("user123"),
		Role:      users.RoleUser,
	}

	for _, u := range []*users.User{admin, staff, user} {
		if err := s.db.PostgreSQL.Create(u).Error; err != nil {
			return nil, nil, nil, fmt.Errorf("failed to create user %s: %w", u.Email, err)
		}
	}

	return admin, staff, user, nil
}

func (s *Seeder) seedEvents(admin *users.User) error {
	ctx := context.Background()

	seatRepo := seats.NewRepository(s.db.PostgreSQL)
	seatService := seats.NewService(seatRepo, 10*time.Minute)

	// A published paid event with its full seat grid
	concert := &events.Event{
		Title:       "Symphony Under the Stars",
		Description: "Open-air orchestral night at the waterfront amphitheatre.",
		Venue:       "Harborview Amphitheatre",
		DateTime:    time.Now().AddDate(0, 1, 0),
		Status:      events.EventStatusPublished,
		BasePrice:   45.00,
		VipPrice:    120.00,
		MaxSeats:    120,
		CreatedBy:   admin.ID,
	}
	if err := s.db.PostgreSQL.Create(concert).Error; err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}

	created, err := seatService.GenerateSeats(ctx, concert.ID, concert.MaxSeats, concert.BasePrice, concert.VipPrice)
	if err != nil {
		return fmt.Errorf("failed to generate seats: %w", err)
	}
	fmt.Printf("✅ Seeded event %q with %d seats\n", concert.Title, created)

	// A free community event exercising the zero-amount fast path
	meetup := &events.Event{
		Title:       "Open Rehearsal",
		Description: "Free community rehearsal session, limited seating.",
		Venue:       "Harborview Amphitheatre",
		DateTime:    time.Now().AddDate(0, 0, 14),
		Status:      events.EventStatusPublished,
		BasePrice:   0,
		VipPrice:    0,
		MaxSeats:    40,
		CreatedBy:   admin.ID,
	}
	if err := s.db.PostgreSQL.Create(meetup).Error; err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}

	created, err = seatService.GenerateSeats(ctx, meetup.ID, meetup.MaxSeats, meetup.BasePrice, meetup.VipPrice)
	if err != nil {
		return fmt.Errorf("failed to generate seats: %w", err)
	}
	fmt.Printf("✅ Seeded event %q with %d seats\n", meetup.Title, created)

	return nil
}
