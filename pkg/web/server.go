// Package web serves the navigation API and the event websocket used by the
// walker's phone or browser.
package web

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/teslashibe/go-nain/pkg/camera"
	"github.com/teslashibe/go-nain/pkg/hub"
	"github.com/teslashibe/go-nain/pkg/intent"
	"github.com/teslashibe/go-nain/pkg/journal"
	"github.com/teslashibe/go-nain/pkg/location"
	"github.com/teslashibe/go-nain/pkg/navigation"
	"github.com/teslashibe/go-nain/pkg/protocol"
	"github.com/teslashibe/go-nain/pkg/transcribe"
)

const maxLogs = 500

// RetryPrompt is spoken when a voice command could not be transcribed.
const RetryPrompt = "Sorry, I didn't catch that. Please try again."

// LogEntry is one activity log line shown to the client.
type LogEntry struct {
	Time    string `json:"time"`
	Level   string `json:"level"` // info, heard, warn, error
	Message string `json:"message"`
}

// HealthCheck probes one collaborator.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Config wires a Server. Transcriber and Journal are optional.
type Config struct {
	Addr        string
	Coordinator *navigation.Coordinator
	Dispatcher  *intent.Dispatcher
	Recognizer  intent.Recognizer
	Transcriber transcribe.Transcriber
	Location    *location.Feed
	Frames      *camera.Latest
	Speaker     intent.Speaker
	Hub         *hub.Hub
	Journal     journal.Journal
	Checks      []HealthCheck
	StaticDir   string
	Version     string
	Logger      *slog.Logger
}

// Server is the navigation web server.
type Server struct {
	cfg     Config
	app     *fiber.App
	logger  *slog.Logger
	started time.Time

	logs   []LogEntry
	logsMu sync.RWMutex
}

// NewServer builds the fiber app and registers routes.
func NewServer(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	s := &Server{
		cfg:     cfg,
		logger:  cfg.Logger.With("component", "web"),
		started: time.Now(),
		logs:    make([]LogEntry, 0, maxLogs),
	}

	app := fiber.New(fiber.Config{
		AppName:               "nain",
		DisableStartupMessage: true,
		BodyLimit:             16 << 20,
		ErrorHandler:          errorHandler,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	if cfg.StaticDir != "" {
		app.Static("/", cfg.StaticDir)
	}

	app.Get("/metrics", s.handleMetrics)

	api := app.Group("/api")
	api.Get("/health", s.handleHealth)
	api.Get("/health/services", s.handleServices)
	api.Get("/status", s.handleStatus)
	api.Get("/logs", s.handleLogs)
	api.Get("/journal", s.handleJournal)
	api.Post("/location", s.handleLocation)
	api.Post("/frame", s.handleFrame)
	api.Post("/navigate", s.handleNavigate)
	api.Post("/navigation/end", s.handleEnd)
	api.Post("/navigation/step", s.handleStep)
	api.Post("/voice", s.handleVoice)
	api.Post("/command", s.handleCommand)
	api.Post("/guidance/check", s.handleGuidanceCheck)

	if cfg.Hub != nil {
		cfg.Hub.OnMessage(s.handleClientMessage)
		cfg.Hub.RegisterRoutes(app, "/ws/events")
	}

	s.app = app
	return s
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App { return s.app }

// Start listens until the app is shut down.
func (s *Server) Start() error {
	s.logger.Info("web server listening", "addr", s.cfg.Addr)
	return s.app.Listen(s.cfg.Addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// AddLog records an activity line and broadcasts it.
func (s *Server) AddLog(level, message string) {
	entry := LogEntry{
		Time:    time.Now().Format("15:04:05"),
		Level:   level,
		Message: message,
	}

	s.logsMu.Lock()
	s.logs = append(s.logs, entry)
	if len(s.logs) > maxLogs {
		s.logs = s.logs[1:]
	}
	s.logsMu.Unlock()

	if s.cfg.Hub != nil {
		s.cfg.Hub.Publish(string(protocol.TypeLog), protocol.LogData{Level: level, Message: message})
	}
}

// StatePublisher broadcasts coordinator snapshots as state events.
func StatePublisher(h *hub.Hub) navigation.Observer {
	return navigation.ObserverFunc(func(snap navigation.Snapshot) {
		h.Publish(string(protocol.TypeState), snap)
	})
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error": message,
	})
}
