// Package statusserver exposes a small HTTP surface while a batch runs:
// liveness, the latest progress snapshot, remote pause/resume/cancel and the
// prometheus scrape endpoint.
package statusserver

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"

	"github.com/kursadbilgin/wabatch/internal/batch"
	"github.com/kursadbilgin/wabatch/internal/domain"
	"github.com/kursadbilgin/wabatch/internal/observability"
	"github.com/kursadbilgin/wabatch/internal/progress"
)

type Server struct {
	app    *fiber.App
	logger *zap.Logger
	ctrl   *batch.Control

	mu     sync.RWMutex
	latest *domain.ProgressSnapshot
}

func New(ctrl *batch.Control, metrics *observability.Metrics, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{logger: logger, ctrl: ctrl}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(logger),
	})
	if metrics != nil {
		app.Use(metrics.HTTPMiddleware())
	}

	app.Get("/healthz", s.handleHealthz)
	app.Get("/progress", s.handleProgress)
	app.Post("/control/pause", s.handlePause)
	app.Post("/control/resume", s.handleResume)
	app.Post("/control/cancel", s.handleCancel)
	if metrics != nil {
		scrape := fasthttpadaptor.NewFastHTTPHandler(metrics.Handler())
		app.Get("/metrics", func(c *fiber.Ctx) error {
			scrape(c.Context())
			return nil
		})
	}

	s.app = app
	return s
}

// Observer returns the progress observer that keeps /progress current.
func (s *Server) Observer() progress.Observer {
	return func(snap domain.ProgressSnapshot) {
		s.mu.Lock()
		s.latest = &snap
		s.mu.Unlock()
	}
}

// Listen blocks serving on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) handleHealthz(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "ok",
	})
}

func (s *Server) handleProgress(c *fiber.Ctx) error {
	s.mu.RLock()
	latest := s.latest
	s.mu.RUnlock()

	if latest == nil {
		return c.Status(fiber.StatusNoContent).Send(nil)
	}
	return c.Status(fiber.StatusOK).JSON(latest)
}

func (s *Server) handlePause(c *fiber.Ctx) error {
	s.ctrl.Pause()
	s.logger.Info("pause requested over http")
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"state": "paused"})
}

func (s *Server) handleResume(c *fiber.Ctx) error {
	s.ctrl.Resume()
	s.logger.Info("resume requested over http")
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"state": "running"})
}

func (s *Server) handleCancel(c *fiber.Ctx) error {
	s.ctrl.Cancel()
	s.logger.Info("cancel requested over http")
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"state": "canceled"})
}

func errorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
		}

		logger.Error("request error",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", code),
			zap.Error(err),
		)

		return c.Status(code).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
}
