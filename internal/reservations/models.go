package reservations

import (
	"time"

	"github.com/google/uuid"
)

type Reservation struct {
	ID   uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Code string    `json:"code" gorm:"not null;uniqueIndex;size:32"`

	UserID  uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	EventID uuid.UUID `json:"event_id" gorm:"type:uuid;not null;index"`
	SeatID  uuid.UUID `json:"seat_id" gorm:"type:uuid;not null;index"`

	Status        Status        `json:"status" gorm:"type:varchar(20);not null;default:'PENDING'"`
	PaymentStatus PaymentStatus `json:"payment_status" gorm:"type:varchar(20);not null;default:'PENDING'"`
	PaymentMethod string        `json:"payment_method" gorm:"size:50"`
	// Customer-supplied reference (bank transfer note, receipt number)
	// the front desk matches against when settling a paid reservation.
	PaymentReference string  `json:"payment_reference,omitempty" gorm:"size:64"`
	TotalAmount      float64 `json:"total_amount" gorm:"not null;check:total_amount >= 0"`

	ExpiresAt   time.Time  `json:"expires_at" gorm:"not null"`
	QRCode      string     `json:"qr_code" gorm:"type:text"`
	EmailSent   bool       `json:"email_sent" gorm:"default:false"`
	CancelledAt *time.Time `json:"cancelled_at"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Reservation) TableName() string {
	return "reservations"
}

// Payment records one payment attempt against a reservation. A
// reservation can accumulate several rows (initial charge, refund).
type Payment struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	ReservationID uuid.UUID `json:"reservation_id" gorm:"type:uuid;not null;index"`
	Amount        float64   `json:"amount" gorm:"not null"`
	Method        string    `json:"method" gorm:"size:50"`
	Status        string    `json:"status" gorm:"type:varchar(20);not null"`
	TransactionID string    `json:"transaction_id" gorm:"size:64"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (Payment) TableName() string {
	return "payments"
}

// Payment row statuses.
const (
	PaymentRowCompleted = "COMPLETED"
	PaymentRowRefunded  = "REFUNDED"
)

type CreateReservationRequest struct {
	EventID          string `json:"event_id" binding:"required,uuid"`
	SeatID           string `json:"seat_id" binding:"required,uuid"`
	PaymentMethod    string `json:"payment_method" binding:"omitempty,oneof=CASH CARD TRANSFER"`
	PaymentReference string `json:"payment_reference" binding:"omitempty,max=64"`
}

type ReservationResponse struct {
	ID            string        `json:"id"`
	Code          string        `json:"code"`
	UserID        string        `json:"user_id"`
	EventID       string        `json:"event_id"`
	SeatID        string        `json:"seat_id"`
	Status        Status        `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	PaymentMethod    string        `json:"payment_method,omitempty"`
	PaymentReference string        `json:"payment_reference,omitempty"`
	TotalAmount      float64       `json:"total_amount"`
	ExpiresAt     time.Time     `json:"expires_at"`
	QRCode        string        `json:"qr_code,omitempty"`
	EmailSent     bool          `json:"email_sent"`
	CancelledAt   *time.Time    `json:"cancelled_at,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
}

// QRPayload is the document encoded into the reservation QR code.
type QRPayload struct {
	ReservationID   string `json:"reservation_id"`
	ReservationCode string `json:"reservation_code"`
	EventID         string `json:"event_id"`
	EventTitle      string `json:"event_title"`
	SeatInfo        string `json:"seat_info"`
	UserName        string `json:"user_name"`
}

func toReservationResponse(r *Reservation) ReservationResponse {
	return ReservationResponse{
		ID:            r.ID.String(),
		Code:          r.Code,
		UserID:        r.UserID.String(),
		EventID:       r.EventID.String(),
		SeatID:        r.SeatID.String(),
		Status:           r.Status,
		PaymentStatus:    r.PaymentStatus,
		PaymentMethod:    r.PaymentMethod,
		PaymentReference: r.PaymentReference,
		TotalAmount:      r.TotalAmount,
		ExpiresAt:     r.ExpiresAt,
		QRCode:        r.QRCode,
		EmailSent:     r.EmailSent,
		CancelledAt:   r.CancelledAt,
		CreatedAt:     r.CreatedAt,
	}
}
