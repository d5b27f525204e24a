package routes

import (
	"errors"
	"time"

	"catalog/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog/log"
)

// NewApp returns a fiber app with the catalog's error handler and middleware.
// bodyLimit must leave room for a full batch of maximum-size images, otherwise
// oversized uploads are cut off before they can be rejected with a 400.
func NewApp(bodyLimit int, corsOrigins string) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "catalog",
		BodyLimit:             bodyLimit,
		ErrorHandler:          ErrorHandler,
		DisableStartupMessage: true,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(requestLogger)
	app.Use(cors.New(cors.Config{AllowOrigins: corsOrigins}))
	return app
}

// ErrorHandler renders every error returned by a handler as the standard
// envelope. Server-side failures are logged and reported with a generic message.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(envelope{Success: false, Message: fe.Message, Error: fe.Message})
	}

	status := apperr.Status(err)
	if status >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).
			Str("kind", apperr.KindOf(err).String()).Msg("Request failed")
	}
	msg := apperr.PublicMessage(err)
	return c.Status(status).JSON(envelope{Success: false, Message: msg, Error: apperr.KindOf(err).String()})
}

func requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	if err != nil {
		if herr := c.App().ErrorHandler(c, err); herr != nil {
			_ = c.SendStatus(fiber.StatusInternalServerError)
		}
	}
	log.Info().
		Str("method", c.Method()).
		Str("path", c.Path()).
		Int("status", c.Response().StatusCode()).
		Dur("latency", time.Since(start)).
		Msg("Request")
	return nil
}
