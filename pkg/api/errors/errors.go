package errors

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bharathj0410/leadrabbit/pkg/domain"
	"github.com/bharathj0410/leadrabbit/pkg/models"
)

// Respond maps a domain error onto the wire shape. Internal detail is logged
// server-side; clients only see PublicMessage.
func Respond(c echo.Context, err error) error {
	status := domain.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Printf("[ERROR] path=%s error=%v", c.Request().URL.Path, err)
	}

	return c.JSON(status, models.ErrorResponse{
		Error:   domain.GetErrorCode(err),
		Message: domain.PublicMessage(err),
	})
}

// ValidationError returns a generic validation error without exposing internal details
func ValidationError(c echo.Context, err error) error {
	log.Printf("[VALIDATION ERROR] path=%s error=%v", c.Request().URL.Path, err)

	return c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error:   domain.ErrCodeValidation,
		Message: "Invalid request data. Please check your input and try again.",
	})
}

// BindError rejects a request whose body could not be parsed
func BindError(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error:   domain.ErrCodeBadRequest,
		Message: "Invalid request body",
	})
}
