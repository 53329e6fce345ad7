package seats

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Seat struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	EventID    uuid.UUID `json:"event_id" gorm:"type:uuid;not null;uniqueIndex:idx_event_seat,priority:1"`
	Section    string    `json:"section" gorm:"not null;size:50;uniqueIndex:idx_event_seat,priority:2"`
	Row        string    `json:"row" gorm:"not null;size:10;uniqueIndex:idx_event_seat,priority:3"`
	SeatNumber int       `json:"seat_number" gorm:"not null;uniqueIndex:idx_event_seat,priority:4"`

	IsVIP        bool    `json:"is_vip" gorm:"default:false"`
	IsAccessible bool    `json:"is_accessible" gorm:"default:false"`
	Price        float64 `json:"price" gorm:"not null;check:price >= 0"`

	Status     Status     `json:"status" gorm:"type:varchar(20);default:'AVAILABLE';check:status IN ('AVAILABLE','RESERVED','SOLD','BLOCKED')"`
	IsReserved bool       `json:"is_reserved" gorm:"default:false"`
	HoldExpiry *time.Time `json:"hold_expiry"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Seat) TableName() string {
	return "seats"
}

// HoldExpired reports whether the seat carries a hold whose TTL has elapsed.
func (s *Seat) HoldExpired(now time.Time) bool {
	return s.Status == StatusReserved && s.HoldExpiry != nil && s.HoldExpiry.Before(now)
}

// ActivelyHeld reports whether the seat carries a live, unexpired hold.
func (s *Seat) ActivelyHeld(now time.Time) bool {
	return s.Status == StatusReserved && s.HoldExpiry != nil && !s.HoldExpiry.Before(now)
}

// Label returns the human-readable seat position, e.g. "VIP A-3".
func (s *Seat) Label() string {
	return fmt.Sprintf("%s %s-%d", s.Section, s.Row, s.SeatNumber)
}

// Event is the subset of the events table this package reads. Declared
// here so seat transactions can join the parent event without importing
// the events package.
type Event struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	Title    string    `gorm:"column:title"`
	DateTime time.Time `gorm:"column:date_time"`
	Status   string    `gorm:"column:status"`
	MaxSeats int       `gorm:"column:max_seats"`
}

func (Event) TableName() string {
	return "events"
}

// IsBookable reports whether seats of this event may be held or reserved.
func (e *Event) IsBookable(now time.Time) bool {
	return e.Status == "published" && e.DateTime.After(now)
}

type SeatResponse struct {
	ID           string     `json:"id"`
	EventID      string     `json:"event_id"`
	Section      string     `json:"section"`
	Row          string     `json:"row"`
	SeatNumber   int        `json:"seat_number"`
	IsVIP        bool       `json:"is_vip"`
	IsAccessible bool       `json:"is_accessible"`
	Price        float64    `json:"price"`
	Status       Status     `json:"status"`
	HoldExpiry   *time.Time `json:"hold_expiry,omitempty"`
}

type HoldResponse struct {
	SeatID     string    `json:"seat_id"`
	HoldExpiry time.Time `json:"hold_expiry"`
}

type SeatMapResponse struct {
	EventID   string         `json:"event_id"`
	Seats     []SeatResponse `json:"seats"`
	Available int            `json:"available"`
	Total     int            `json:"total"`
}

func toSeatResponse(seat *Seat) SeatResponse {
	return SeatResponse{
		ID:           seat.ID.String(),
		EventID:      seat.EventID.String(),
		Section:      seat.Section,
		Row:          seat.Row,
		SeatNumber:   seat.SeatNumber,
		IsVIP:        seat.IsVIP,
		IsAccessible: seat.IsAccessible,
		Price:        seat.Price,
		Status:       seat.Status,
		HoldExpiry:   seat.HoldExpiry,
	}
}
