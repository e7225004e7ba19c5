package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"task_manager/internal/service"

	"github.com/gin-gonic/gin"
)

// respondError maps service errors onto status codes. Anything unknown is
// logged and reported as a bare internal error.
func respondError(c *gin.Context, log *slog.Logger, err error) {
	var verr *service.ValidationError

	switch {
	case errors.As(err, &verr):
		c.AbortWithStatusJSON(http.StatusBadRequest, validationResponse{
			Message: "validation failed",
			Errors:  verr.Fields,
		})
	case errors.Is(err, service.ErrInvalidCredentials):
		newErrorResponse(c, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, service.ErrInvalidRefreshToken):
		newErrorResponse(c, http.StatusUnauthorized, "Invalid refresh token")
	case errors.Is(err, service.ErrRefreshTokenExpired):
		newErrorResponse(c, http.StatusUnauthorized, "Refresh token expired")
	case errors.Is(err, service.ErrEmailInUse):
		newErrorResponse(c, http.StatusConflict, "Email already in use")
	case errors.Is(err, service.ErrForbidden):
		newErrorResponse(c, http.StatusForbidden, "Forbidden")
	case errors.Is(err, service.ErrTaskNotFound):
		newErrorResponse(c, http.StatusNotFound, "Task not found")
	case errors.Is(err, service.ErrUserNotFound):
		newErrorResponse(c, http.StatusNotFound, "User not found")
	default:
		log.Error("request failed", slog.Any("error", err))

		newErrorResponse(c, http.StatusInternalServerError, "internal error")
	}
}
