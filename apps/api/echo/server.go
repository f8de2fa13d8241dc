// Package echoapi is the sandbox implementation of the school REST API, backed by the in-memory store.
package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/edudesk/portal/core"
	inmemdb "github.com/edudesk/portal/storage/database/inmem"
)

type (
	ServerDeps struct {
		Conf           *core.Config
		Logger         core.Logger
		DB             *inmemdb.DB
		Mailer         core.EmailService
		DisableReqLogs bool
	}

	Server struct {
		deps       ServerDeps
		app        *echo.Echo
		validate   *validator.Validate
		translator ut.Translator
		auth       *authenticator
		errors     chan error
		shutdown   chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	translator := core.NewTranslator()
	s := &Server{
		deps:       deps,
		app:        echo.New(),
		validate:   core.NewValidator(translator),
		translator: translator,
		auth:       newAuthenticator(deps.Conf),
		errors:     make(chan error, 1),
		shutdown:   make(chan os.Signal, 1),
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.translator, s.signalShutdown)
	s.app.Debug = conf.Debug && !conf.TestMode

	s.app.GET("/", home)

	api := s.app.Group("/api")
	jwt := middleware.JWTWithConfig(s.auth.jwtConfig)

	registerAuthAPI(api, jwt, s)
	registerSchoolAPI(api, jwt, s)
}

// Start listens on the configured host until the server is shut down.
// Failures are reported on Errors.
func (s *Server) Start() {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	if err := s.app.Start(s.deps.Conf.Server.Host); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error            { return s.errors }
func (s *Server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to the EduDesk sandbox API!")
}
