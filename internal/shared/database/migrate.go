package database

import (
	"log"

	"seatwise/internal/events"
	"seatwise/internal/reservations"
	"seatwise/internal/seats"
	"seatwise/internal/users"

	"gorm.io/gorm"
)

// Migrate runs auto-migrations for all registered models.
// Order matters: parents before children so foreign keys resolve.
func Migrate(db *gorm.DB) error {
	models := []interface{}{
		&users.User{},
		&events.Event{},
		&seats.Seat{},
		&reservations.Reservation{},
		&reservations.Payment{},
	}

	for _, model := range models {
		if err := db.AutoMigrate(model); err != nil {
			return err
		}
	}

	log.Println("✅ Database migrations completed")
	return nil
}
