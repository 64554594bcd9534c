// http/server.go
package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	"github.com/ViniZap4/lumi-entries/auth"
	"github.com/ViniZap4/lumi-entries/config"
	"github.com/ViniZap4/lumi-entries/domain"
)

var errInvalidJSON = errors.New("invalid json body")

// NewApp builds the fiber application serving the entries API.
func NewApp(cfg config.ServerConfig, srv *Server) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit:             10 * 1024 * 1024,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(srv.log),
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CorsOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, X-Lumi-Token",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	app.Use(requestLogger(srv.log))

	srv.RegisterRoutes(app, auth.Middleware(cfg.TokenHash))
	return app
}

// requestLogger renders handler errors itself so the logged status is the
// one the client receives.
func requestLogger(log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		if err := c.Next(); err != nil {
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		evt := log.Info()
		if status >= fiber.StatusInternalServerError {
			evt = log.Error()
		}
		evt.Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("request")
		return nil
	}
}

// errorHandler renders every handler error as a {success:false} envelope.
func errorHandler(log zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		switch {
		case errors.Is(err, errInvalidJSON):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   "Invalid JSON in request body",
			})
		case errors.Is(err, domain.ErrInvalid):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   "Invalid request data",
				"details": err.Error(),
			})
		case errors.Is(err, domain.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"error":   "Entry not found",
			})
		case errors.As(err, &fe):
			return c.Status(fe.Code).JSON(fiber.Map{
				"success": false,
				"error":   fe.Message,
			})
		}

		log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Internal server error",
		})
	}
}
