package response

import (
	"seatwise/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

func RespondJSON(c *gin.Context, status string, code int, message string, data interface{}, errors interface{}) {
	c.JSON(code, StandardApiResponse{
		Status:     status,
		StatusCode: code,
		Message:    message,
		Data:       data,
		Errors:     errors,
	})
}

// Success writes a success envelope with the given payload.
func Success(c *gin.Context, code int, message string, data interface{}) {
	RespondJSON(c, "success", code, message, data, nil)
}

// Error writes an error envelope, deriving the HTTP status from the
// apperrors classification of err.
func Error(c *gin.Context, message string, err error) {
	RespondJSON(c, "error", apperrors.StatusCode(err), message, nil, err.Error())
}
