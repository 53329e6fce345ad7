package seats

import (
	"net/http"

	"seatwise/internal/shared/middleware"
	"seatwise/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller interface {
	HoldSeat(c *gin.Context)
	ReleaseSeat(c *gin.Context)
	ListSeats(c *gin.Context)
	GetSeat(c *gin.Context)
}

type controller struct {
	service Service
}

func NewController(service Service) Controller {
	return &controller{service: service}
}

func (ctrl *controller) HoldSeat(c *gin.Context) {
	seatID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid seat ID", nil, err.Error())
		return
	}

	actor, ok := middleware.CurrentActor(c)
	if !ok {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "Not authenticated", nil, nil)
		return
	}

	hold, err := ctrl.service.HoldSeat(c.Request.Context(), actor, seatID)
	if err != nil {
		response.Error(c, "Failed to hold seat", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Seat held successfully", hold, nil)
}

func (ctrl *controller) ReleaseSeat(c *gin.Context) {
	seatID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid seat ID", nil, err.Error())
		return
	}

	if err := ctrl.service.ReleaseSeat(c.Request.Context(), seatID); err != nil {
		response.Error(c, "Failed to release seat", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Seat released successfully", nil, nil)
}

func (ctrl *controller) ListSeats(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid event ID", nil, err.Error())
		return
	}

	seatMap, err := ctrl.service.ListSeats(c.Request.Context(), eventID)
	if err != nil {
		response.Error(c, "Failed to list seats", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Seats retrieved successfully", seatMap, nil)
}

func (ctrl *controller) GetSeat(c *gin.Context) {
	seatID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid seat ID", nil, err.Error())
		return
	}

	seat, err := ctrl.service.GetSeat(c.Request.Context(), seatID)
	if err != nil {
		response.Error(c, "Failed to retrieve seat", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Seat retrieved successfully", seat, nil)
}
