package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/septivank/charging-telemetry-service/internal/logging"
	"github.com/septivank/charging-telemetry-service/internal/service"
	"go.uber.org/zap"
)

// RequestIDHeader carries the correlation id of a request
const RequestIDHeader = "X-Request-ID"

const loggerKey = "request_logger"

// StatusClientClosedRequest is reported when the client went away mid-request
const StatusClientClosedRequest = 499

// RequestLogger tags every request with an id and stores a child logger for
// the handlers. An inbound X-Request-ID is reused.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Header(RequestIDHeader, requestID)
		c.Set(loggerKey, logging.WithRequestID(logger, requestID))
		c.Next()
	}
}

func loggerFrom(c *gin.Context, fallback *zap.Logger) *zap.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if logger, ok := v.(*zap.Logger); ok {
			return logger
		}
	}
	return fallback
}

// StatusFor maps a service error onto an HTTP status code
func StatusFor(err error) int {
	var (
		validationErr *service.ValidationError
		notFoundErr   *service.NotFoundError
		timeoutErr    *service.TimeoutError
		storageErr    *service.StorageError
		canceledErr   *service.CanceledError
	)
	switch {
	case errors.As(err, &canceledErr):
		return StatusClientClosedRequest
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound
	case errors.As(err, &timeoutErr):
		return http.StatusGatewayTimeout
	case errors.As(err, &storageErr):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, logger *zap.Logger, err error) {
	status := StatusFor(err)

	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		c.JSON(status, gin.H{"error": "validation failed", "details": validationErr.Violations})
		return
	case status == http.StatusNotFound:
		c.JSON(status, gin.H{"error": err.Error()})
		return
	case status == StatusClientClosedRequest:
		logger.Debug("request canceled by client", zap.Error(err))
		c.AbortWithStatus(status)
		return
	}

	// backend details stay in the logs
	logger.Error("request failed", zap.Error(err), zap.Int("status", status))
	switch status {
	case http.StatusGatewayTimeout:
		c.JSON(status, gin.H{"error": "storage timeout"})
	case http.StatusServiceUnavailable:
		c.JSON(status, gin.H{"error": "storage unavailable"})
	default:
		c.JSON(status, gin.H{"error": "internal error"})
	}
}
