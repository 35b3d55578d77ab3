package echoapi

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/edupoints/core"
	"github.com/trezcool/edupoints/core/loader"
	"github.com/trezcool/edupoints/core/mockgen"
	"github.com/trezcool/edupoints/core/reward"
	"github.com/trezcool/edupoints/core/session"
)

type (
	ServerDeps struct {
		Conf       *core.Config
		Logger     core.Logger
		Sessions   *session.Manager
		Loaders    *loader.Registry
		Generator  *mockgen.Generator
		RewardSvc  *reward.Service
		Validate   *validator.Validate
		Translator ut.Translator
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal

		stopSweep chan struct{}
		stopOnce  sync.Once
	}
)

const sessionSweepInterval = 10 * time.Minute

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:      deps,
		app:       echo.New(),
		errors:    make(chan error, 1),
		shutdown:  make(chan os.Signal, 1),
		stopSweep: make(chan struct{}),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", s.home)

	v1 := s.app.Group("/v1")
	auth := newAuthenticator(conf, s.deps.Sessions)
	jwt := middleware.JWTWithConfig(auth.jwtConfig)
	authed := []echo.MiddlewareFunc{jwt, auth.sessionMiddleware}

	registerSessionAPI(v1, authed, auth, s.deps)
	registerDashboardAPI(v1, authed, s.deps)
	registerLeaderboardAPI(v1, authed, s.deps)
	registerRewardAPI(v1, authed, s.deps)
}

// Start blocks until the server stops. A failure to listen is reported on Errors.
func (s *Server) Start() {
	go s.sweepSessions()
	if err := s.app.Start(s.deps.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.stop()
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	s.stop()
	return s.app.Close()
}

func (s *Server) stop() {
	s.stopOnce.Do(func() { close(s.stopSweep) })
}

func (s *Server) sweepSessions() {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopSweep:
			return
		case <-ticker.C:
			s.evictIdleSessions()
		}
	}
}

// evictIdleSessions drops the sessions, and their page loaders, unused for as long as a token lives.
// Their persisted state stays, so a still valid token reopens its session.
func (s *Server) evictIdleSessions() int {
	sids := s.deps.Sessions.Evict(s.deps.Conf.Server.JWTExpirationDelta)
	for _, sid := range sids {
		s.deps.Loaders.Forget(sid + ":")
	}
	if len(sids) > 0 {
		s.deps.Logger.Debug(fmt.Sprintf("evicted %d idle sessions", len(sids)))
	}
	return len(sids)
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already signaled
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.deps.Conf.AppName+" API!")
}
