package events

import (
	"time"

	"github.com/google/uuid"
)

type Event struct {
	ID          uuid.UUID   `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Title       string      `json:"title" gorm:"not null;size:255"`
	Description string      `json:"description" gorm:"type:text"`
	Venue       string      `json:"venue" gorm:"not null;size:255"`
	DateTime    time.Time   `json:"date_time" gorm:"not null"`
	Status      EventStatus `json:"status" gorm:"type:varchar(20);default:'draft'"`
	BasePrice   float64     `json:"base_price" gorm:"not null;check:base_price >= 0"`
	VipPrice    float64     `json:"vip_price" gorm:"not null;check:vip_price >= 0"`
	MaxSeats    int         `json:"max_seats" gorm:"not null;check:max_seats > 0"`

	CreatedBy uuid.UUID `json:"created_by" gorm:"type:uuid;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Event) TableName() string {
	return "events"
}

type EventResponse struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Venue       string      `json:"venue"`
	DateTime    time.Time   `json:"date_time"`
	Status      EventStatus `json:"status"`
	BasePrice   float64     `json:"base_price"`
	VipPrice    float64     `json:"vip_price"`
	MaxSeats    int         `json:"max_seats"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

type CreateEventRequest struct {
	Title       string    `json:"title" binding:"required,min=3,max=255"`
	Description string    `json:"description" binding:"max=2000"`
	Venue       string    `json:"venue" binding:"required,min=3,max=255"`
	DateTime    time.Time `json:"date_time" binding:"required,futuredate"`
	BasePrice   float64   `json:"base_price" binding:"min=0"`
	VipPrice    float64   `json:"vip_price" binding:"min=0"`
	MaxSeats    int       `json:"max_seats" binding:"required,min=1,max=100000"`
}

type UpdateEventRequest struct {
	Title       *string    `json:"title" binding:"omitempty,min=3,max=255"`
	Description *string    `json:"description" binding:"omitempty,max=2000"`
	Venue       *string    `json:"venue" binding:"omitempty,min=3,max=255"`
	DateTime    *time.Time `json:"date_time" binding:"omitempty,futuredate"`
	BasePrice   *float64   `json:"base_price" binding:"omitempty,min=0"`
	VipPrice    *float64   `json:"vip_price" binding:"omitempty,min=0"`
}

type EventListQuery struct {
	Status   string `form:"status" binding:"omitempty,oneof=draft published cancelled completed"`
	Page     int    `form:"page,default=1" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size,default=20" binding:"omitempty,min=1,max=100"`
}

type PaginatedEvents struct {
	Events     []EventResponse `json:"events"`
	Total      int64           `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	TotalPages int             `json:"total_pages"`
}

func toEventResponse(event *Event) EventResponse {
	return EventResponse{
		ID:          event.ID.String(),
		Title:       event.Title,
		Description: event.Description,
		Venue:       event.Venue,
		DateTime:    event.DateTime,
		Status:      event.Status,
		BasePrice:   event.BasePrice,
		VipPrice:    event.VipPrice,
		MaxSeats:    event.MaxSeats,
		CreatedAt:   event.CreatedAt,
		UpdatedAt:   event.UpdatedAt,
	}
}
