package reservations

import (
	"net/http"

	"seatwise/internal/shared/middleware"
	"seatwise/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller interface {
	CreateReservation(c *gin.Context)
	CancelReservation(c *gin.Context)
	ApproveReservation(c *gin.Context)
	RejectReservation(c *gin.Context)
	GetReservation(c *gin.Context)
	ListMyReservations(c *gin.Context)
	ListEventReservations(c *gin.Context)
}

type controller struct {
	service Service
}

func NewController(service Service) Controller {
	return &controller{service: service}
}

func (ctrl *controller) CreateReservation(c *gin.Context) {
	var req CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	actor, ok := middleware.CurrentActor(c)
	if !ok {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "Not authenticated", nil, nil)
		return
	}

	eventID, err := uuid.Parse(req.EventID)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid event ID", nil, err.Error())
		return
	}
	seatID, err := uuid.Parse(req.SeatID)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid seat ID", nil, err.Error())
		return
	}

	reservation, err := ctrl.service.CreateReservation(c.Request.Context(), actor, eventID, seatID, req.PaymentMethod, req.PaymentReference)
	if err != nil {
		response.Error(c, "Failed to create reservation", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusCreated, "Reservation created successfully", reservation, nil)
}

func (ctrl *controller) CancelReservation(c *gin.Context) {
	reservationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid reservation ID", nil, err.Error())
		return
	}

	actor, ok := middleware.CurrentActor(c)
	if !ok {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "Not authenticated", nil, nil)
		return
	}

	reservation, err := ctrl.service.CancelReservation(c.Request.Context(), actor, reservationID)
	if err != nil {
		response.Error(c, "Failed to cancel reservation", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Reservation cancelled successfully", reservation, nil)
}

func (ctrl *controller) ApproveReservation(c *gin.Context) {
	reservationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid reservation ID", nil, err.Error())
		return
	}

	actor, ok := middleware.CurrentActor(c)
	if !ok {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "Not authenticated", nil, nil)
		return
	}

	reservation, err := ctrl.service.ApproveReservation(c.Request.Context(), actor, reservationID)
	if err != nil {
		response.Error(c, "Failed to approve reservation", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Reservation approved successfully", reservation, nil)
}

func (ctrl *controller) RejectReservation(c *gin.Context) {
	reservationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid reservation ID", nil, err.Error())
		return
	}

	actor, ok := middleware.CurrentActor(c)
	if !ok {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "Not authenticated", nil, nil)
		return
	}

	reservation, err := ctrl.service.RejectReservation(c.Request.Context(), actor, reservationID)
	if err != nil {
		response.Error(c, "Failed to reject reservation", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Reservation rejected successfully", reservation, nil)
}

func (ctrl *controller) GetReservation(c *gin.Context) {
	reservationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid reservation ID", nil, err.Error())
		return
	}

	actor, ok := middleware.CurrentActor(c)
	if !ok {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "Not authenticated", nil, nil)
		return
	}

	reservation, err := ctrl.service.GetReservation(c.Request.Context(), actor, reservationID)
	if err != nil {
		response.Error(c, "Failed to retrieve reservation", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Reservation retrieved successfully", reservation, nil)
}

func (ctrl *controller) ListMyReservations(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "Not authenticated", nil, nil)
		return
	}

	reservations, err := ctrl.service.ListMyReservations(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, "Failed to retrieve reservations", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Reservations retrieved successfully", reservations, nil)
}

func (ctrl *controller) ListEventReservations(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid event ID", nil, err.Error())
		return
	}

	actor, ok := middleware.CurrentActor(c)
	if !ok {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "Not authenticated", nil, nil)
		return
	}

	reservations, err := ctrl.service.ListEventReservations(c.Request.Context(), actor, eventID)
	if err != nil {
		response.Error(c, "Failed to retrieve reservations", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Reservations retrieved successfully", reservations, nil)
}
