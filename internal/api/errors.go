package api

import (
	"errors"
	"net/http"

	"github.com/alexanderramin/fieldops/internal/domain"
	"github.com/alexanderramin/fieldops/internal/repository"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) (int, ErrorResponse) {
	var he *echo.HTTPError
	var verr *domain.ValidationError
	var inactive *domain.PlanInactiveError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, ErrorResponse{Message: verr.Message, Field: verr.Field}
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, ErrorResponse{Message: err.Error()}
	case errors.As(err, &inactive):
		return http.StatusConflict, ErrorResponse{Message: inactive.Error()}
	case errors.As(err, &he):
		if msg, ok := he.Message.(string); ok {
			return he.Code, ErrorResponse{Message: msg}
		}
		return he.Code, ErrorResponse{Message: http.StatusText(he.Code)}
	}
	return http.StatusInternalServerError, ErrorResponse{Message: "internal server error"}
}

func errorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code, body := statusFor(err)
		fields := []zap.Field{
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.Int("status", code),
			zap.Error(err),
		}
		if code >= http.StatusInternalServerError {
			logger.Error("api is returning an error", fields...)
		} else {
			logger.Debug("api rejected request", fields...)
		}
		_ = c.JSON(code, body)
	}
}
