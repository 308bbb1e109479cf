package main

import (
	"context"
	"expvar"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"

	echoapi "github.com/projectpulse/pulse/apps/api/echo"
	"github.com/projectpulse/pulse/core"
	"github.com/projectpulse/pulse/core/extension"
	"github.com/projectpulse/pulse/core/report"
	"github.com/projectpulse/pulse/core/reschedule"
	"github.com/projectpulse/pulse/core/user"
	emailsvc "github.com/projectpulse/pulse/services/email"
	logsvc "github.com/projectpulse/pulse/services/logger"
	"github.com/projectpulse/pulse/services/notify"
	"github.com/projectpulse/pulse/storage/database"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.Conf

	// set up loggers
	logger := logsvc.NewRollbarLogger(logsvc.NewLogrus(os.Stdout, conf), conf)

	// set up DB
	store, err := database.OpenStore(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = store.Close(); err != nil {
			logger.Error("closing database", err)
		}
	}()

	validate, translator := core.NewValidator()
	user.InitValidators(validate, translator)
	extension.InitValidators(validate, translator)

	// set up services
	mailSvc := emailsvc.New(conf, logger)
	usrSvc := user.NewService(store.Users)
	mailer := notify.NewMailer(mailSvc, usrSvc)

	extSvc := extension.NewService(store.Tx, store.Extensions, store.Projects, validate, logger, mailer)
	rsSvc := reschedule.NewService(store.Tx, store.Reschedules, store.Projects, validate, logger, mailer)
	rptSvc := report.NewService(store.Reports, store.Projects, store.Reschedules, store.Users, validate)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : %s", conf))
	defer logger.Info("Application stopped")

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("dbEngine").Set(store.Engine)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(echoapi.ServerDeps{
		Conf:          conf,
		Logger:        logger,
		Validate:      validate,
		Translator:    translator,
		UserSvc:       usrSvc,
		ExtensionSvc:  extSvc,
		RescheduleSvc: rsSvc,
		ReportSvc:     rptSvc,
	})

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Error(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Error(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}
