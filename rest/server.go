package rest

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	jobboard "github.com/jobhive/jobhive"
)

// Server owns the fiber app and the route tree. Auth routes are public;
// everything else sits behind the bearer middleware, and /admin
// additionally behind the role check.
type Server struct {
	app    *fiber.App
	auther jobboard.Authenticator
	logger jobboard.Logger
	debug  bool

	auth    *AuthController
	users   *UserController
	company *CompanyController
	jobs    *JobController
	admin   *AdminController
	chats   *ChatController
	socket  *ChatSocketHandler
}

func NewServer(auther jobboard.Authenticator) *Server {
	return &Server{
		auther: auther,
		logger: jobboard.NewDefaultLogger(),
	}
}

func (s *Server) WithLogger(logger jobboard.Logger) *Server {
	if logger != nil {
		s.logger = logger
	}
	return s
}

func (s *Server) WithDebug(debug bool) *Server {
	s.debug = debug
	return s
}

func (s *Server) WithAuthController(ct *AuthController) *Server {
	s.auth = ct
	return s
}

func (s *Server) WithUserController(ct *UserController) *Server {
	s.users = ct
	return s
}

func (s *Server) WithCompanyController(ct *CompanyController) *Server {
	s.company = ct
	return s
}

func (s *Server) WithJobController(ct *JobController) *Server {
	s.jobs = ct
	return s
}

func (s *Server) WithAdminController(ct *AdminController) *Server {
	s.admin = ct
	return s
}

func (s *Server) WithChatController(ct *ChatController) *Server {
	s.chats = ct
	return s
}

func (s *Server) WithChatSocket(h *ChatSocketHandler) *Server {
	s.socket = h
	return s
}

// Build assembles the fiber app. Call once before Listen.
func (s *Server) Build() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "jobhive",
		ErrorHandler: NewErrorHandler(s.debug),
	})

	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"success": true, "status": "ok"})
	})

	api := app.Group("/api/v1")

	if s.auth != nil {
		s.auth.Register(api)
	}

	protected := api.Group("", RequireAuth(s.auther))

	if s.users != nil {
		s.users.Register(protected)
	}
	if s.company != nil {
		s.company.Register(protected)
	}
	if s.jobs != nil {
		s.jobs.Register(protected)
	}
	if s.chats != nil {
		s.chats.Register(protected)
	}
	if s.socket != nil {
		s.socket.Register(protected)
	}

	if s.admin != nil {
		s.admin.Register(protected.Group("", RequireAdmin()))
	}

	s.app = app
	return app
}

// Listen blocks serving HTTP until the context is cancelled.
func (s *Server) Listen(ctx context.Context, addr string) error {
	if s.app == nil {
		s.Build()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down http server")
		return s.app.Shutdown()
	}
}
