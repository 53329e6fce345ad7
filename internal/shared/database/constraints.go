package database

import (
	"log"

	"gorm.io/gorm"
)

// MigrateConstraints applies constraints AutoMigrate cannot express.
//
// The partial unique indexes on reservations are the database-level
// backstops for double booking: at most one active (PENDING or CONFIRMED)
// reservation may exist per seat, and per user per event, regardless of
// what the application layer does. The per-user index matters when the
// same user races two seats of one event; those attempts hold different
// seat locks, so only the database can arbitrate between them.
func MigrateConstraints(db *gorm.DB) error {
	stmts := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_reservations_active_seat
			ON reservations (seat_id)
			WHERE status IN ('PENDING', 'CONFIRMED')`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_reservations_active_user_event
			ON reservations (user_id, event_id)
			WHERE status IN ('PENDING', 'CONFIRMED')`,
		`CREATE INDEX IF NOT EXISTS idx_seats_hold_expiry
			ON seats (event_id, hold_expiry)
			WHERE status = 'RESERVED'`,
	}

	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}

	log.Println("✅ Database constraints applied")
	return nil
}
