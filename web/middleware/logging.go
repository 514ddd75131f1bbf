package middleware

import (
	"time"

	"github.com/LittleGragon/coffee-shop-sub000/metrics"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// RequestLogger writes one access log entry per request
func RequestLogger(log logrus.FieldLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		entry := log.WithFields(logrus.Fields{
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     status,
			"latency_ms": time.Since(start).Milliseconds(),
			"request_id": c.GetRespHeader(fiber.HeaderXRequestID),
			"ip":         c.IP(),
		})
		switch {
		case err != nil || status >= fiber.StatusInternalServerError:
			entry.Error("Request completed")
		case status >= fiber.StatusBadRequest:
			entry.Warn("Request completed")
		default:
			entry.Info("Request completed")
		}
		return err
	}
}

// Metrics records request counts and latency by matched route. Errors from
// the handler are rendered here, so the recorded status is the one sent.
func Metrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		done := metrics.RequestStarted()

		if err := c.Next(); err != nil {
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		done(c.Method(), c.Route().Path, c.Response().StatusCode())
		return nil
	}
}
