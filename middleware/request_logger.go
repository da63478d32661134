package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"prodhub/catalog-api/config"
)

// RequestLogger returns a middleware handler for structured request logging
// with Logrus. Each request gets a uuid request id, available to handlers
// via c.Locals("requestid").
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		requestID := uuid.NewString()
		c.Locals("requestid", requestID)

		err := c.Next()

		latency := time.Since(start)
		statusCode := c.Response().StatusCode()

		logEntry := config.Log.WithFields(map[string]interface{}{
			"request_id":  requestID,
			"http_method": c.Method(),
			"uri":         c.OriginalURL(),
			"status_code": statusCode,
			"latency_ms":  latency.Milliseconds(),
			"client_ip":   c.IP(),
		})

		switch {
		case err != nil:
			logEntry.WithField("error", err.Error()).Error("Request processing failed")
		case statusCode >= 500:
			logEntry.Error("Request completed with server error")
		case statusCode >= 400:
			logEntry.Warn("Request completed with client error")
		default:
			logEntry.Info("Request completed successfully")
		}

		// Return the error so Fiber's error handler can process it.
		return err
	}
}
