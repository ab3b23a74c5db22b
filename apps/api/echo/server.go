package echoapi

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/rs/zerolog"

	"github.com/infort/rh/core"
	"github.com/infort/rh/core/announcement"
	"github.com/infort/rh/core/event"
	"github.com/infort/rh/core/meeting"
	"github.com/infort/rh/core/notification"
	"github.com/infort/rh/core/payslip"
	"github.com/infort/rh/core/timeoff"
	"github.com/infort/rh/core/user"
)

type (
	ServerDeps struct {
		Conf       *core.Config
		Logger     core.Logger
		AccessLog  zerolog.Logger
		UploadsDir string

		UserSvc         *user.Service
		NotificationSvc *notification.Service
		TimeOffSvc      *timeoff.Service
		MeetingSvc      *meeting.Service
		PayslipSvc      *payslip.Service
		AnnouncementSvc *announcement.Service
		EventSvc        *event.Service

		Validate   *validator.Validate
		Translator ut.Translator
	}

	Server interface {
		http.Handler
		Start()
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
		Shutdown(context.Context) error
		Close() error
	}

	server struct {
		deps     ServerDeps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) Server {
	s := &server{
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.TestMode {
		s.app.Use(requestLogger(s.deps.AccessLog))
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{conf.FrontendBaseURL},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	// leave room for the multipart envelope around the largest accepted file
	s.app.Use(middleware.BodyLimit(fmt.Sprintf("%dB", conf.Uploads.MaxSize+1<<20)))

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug

	// public, read-only announcement images
	s.app.Static("/uploads/"+core.BucketAnnouncements, filepath.Join(s.deps.UploadsDir, core.BucketAnnouncements))

	g := s.app.Group("/api")
	g.GET("/health", health)

	auth := authMiddleware(s.deps.UserSvc)
	hrOnly := roleMiddleware(user.RoleHR)
	uploads := uploadRules{maxSize: conf.Uploads.MaxSize}

	registerAuthAPI(g, rateLimitMiddleware(conf.RateLimit, s.deps.Logger), s.deps.UserSvc, s.deps.Validate)
	registerUserAPI(g, auth, hrOnly, s.deps.UserSvc, s.deps.Validate)
	registerTimeOffAPI(g, auth, hrOnly, s.deps.TimeOffSvc, s.deps.Validate, uploads)
	registerMeetingAPI(g, auth, hrOnly, s.deps.MeetingSvc, s.deps.Validate)
	registerPayslipAPI(g, auth, hrOnly, s.deps.PayslipSvc, s.deps.Validate, uploads)
	registerAnnouncementAPI(g, auth, hrOnly, s.deps.AnnouncementSvc, s.deps.Validate, uploads)
	registerEventAPI(g, auth, hrOnly, s.deps.EventSvc, s.deps.Validate)
	registerMeAPI(g, auth, meApi{
		payslipSvc:      s.deps.PayslipSvc,
		timeOffSvc:      s.deps.TimeOffSvc,
		meetingSvc:      s.deps.MeetingSvc,
		eventSvc:        s.deps.EventSvc,
		notificationSvc: s.deps.NotificationSvc,
	})
}

func (s *server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Address()); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *server) Errors() <-chan error {
	return s.errors
}

func (s *server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already shutting down
	}
}

func (s *server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

// requestLogger emits one access log line per request.
func requestLogger(zl zerolog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogUserAgent: true,
		LogValuesFunc: func(ctx echo.Context, v middleware.RequestLoggerValues) error {
			var evt *zerolog.Event
			if v.Error != nil {
				evt = zl.Warn().Err(v.Error)
			} else {
				evt = zl.Info()
			}
			if usr, err := getContextUser(ctx); err == nil {
				evt = evt.Int("userId", usr.ID)
			}
			evt.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("ip", v.RemoteIP).
				Str("userAgent", v.UserAgent).
				Msg("request")
			return nil
		},
	})
}
