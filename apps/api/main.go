package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/jmoiron/sqlx"

	echoapi "github.com/infort/rh/apps/api/echo"
	"github.com/infort/rh/core"
	"github.com/infort/rh/core/announcement"
	"github.com/infort/rh/core/event"
	"github.com/infort/rh/core/meeting"
	"github.com/infort/rh/core/notification"
	"github.com/infort/rh/core/payslip"
	"github.com/infort/rh/core/timeoff"
	"github.com/infort/rh/core/user"
	emailsvc "github.com/infort/rh/services/email"
	"github.com/infort/rh/services/filestore"
	logsvc "github.com/infort/rh/services/logger"
	"github.com/infort/rh/storage/database"
	sqlxrepos "github.com/infort/rh/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf, err := core.NewConfig()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger := logsvc.NewRollbarLogger(os.Stdout, conf)
	logger.Enable(!conf.Debug)

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Error(fmt.Sprintf("closing database: %v", err), err)
		}
	}()

	files, err := filestore.NewDisk(conf.Uploads.Dir)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up file store: %v", err), err)
	}

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	usrSvc := user.NewService(sqlxrepos.NewUserRepository(db), mailSvc, conf)
	notifSvc := notification.NewService(sqlxrepos.NewNotificationRepository(db))

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate, translator := core.NewValidator()
	user.InitValidators(validate, translator)
	timeoff.InitValidators(validate, translator)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:            conf,
			Logger:          logger,
			AccessLog:       logger.Zerolog(),
			UploadsDir:      files.Root(),
			UserSvc:         usrSvc,
			NotificationSvc: notifSvc,
			TimeOffSvc:      timeoff.NewService(db, sqlxrepos.NewTimeOffRepository(db), usrSvc, notifSvc, files),
			MeetingSvc:      meeting.NewService(db, sqlxrepos.NewMeetingRepository(db), usrSvc, notifSvc),
			PayslipSvc:      payslip.NewService(sqlxrepos.NewPayslipRepository(db), usrSvc, files),
			AnnouncementSvc: announcement.NewService(sqlxrepos.NewAnnouncementRepository(db), files),
			EventSvc:        event.NewService(db, sqlxrepos.NewEventRepository(db), usrSvc, notifSvc),
			Validate:        validate,
			Translator:      translator,
		},
	)

	go server.Start()
	logger.Info(fmt.Sprintf("listening on %s", conf.Server.Address()))

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}
	if err = database.Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
