package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof" // debug endpoints
	"os"

	"github.com/go-playground/validator/v10"

	echoapi "github.com/trezcool/edupoints/apps/api/echo"
	"github.com/trezcool/edupoints/core"
	"github.com/trezcool/edupoints/core/leaderboard"
	"github.com/trezcool/edupoints/core/loader"
	"github.com/trezcool/edupoints/core/mockgen"
	"github.com/trezcool/edupoints/core/reward"
	"github.com/trezcool/edupoints/core/session"
	"github.com/trezcool/edupoints/core/user"
	emailsvc "github.com/trezcool/edupoints/services/email"
	logsvc "github.com/trezcool/edupoints/services/logger"
	"github.com/trezcool/edupoints/storage"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug && conf.RollbarToken != "") // rollbar is global to both

	// set up storage
	backend, err := storage.Open(context.Background(), conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up %s storage: %v", conf.Storage.Driver, err), err)
	}
	defer func() {
		if err = backend.Close(); err != nil {
			dbLogger.Error("Failed to close", err)
		}
	}()

	// set up services
	gen := mockgen.NewUnseeded()
	if conf.Mock.Seed != 0 {
		gen = mockgen.NewSeeded(conf.Mock.Seed)
	}
	mailSvc := emailsvc.NewService(conf, logger)
	rewardSvc := reward.NewService(backend.Rewards, gen, mailSvc, logger)
	sessions := session.NewManager(
		backend.Sessions,
		session.WithDelay(conf.Mock.LoginDelay),
		session.WithGenerator(gen),
		session.WithLogger(logger),
	)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	leaderboard.InitValidators(validate, translator)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("storage").Set(conf.Storage.Driver)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:       conf,
			Logger:     logger,
			Sessions:   sessions,
			Loaders:    loader.NewRegistry(),
			Generator:  gen,
			RewardSvc:  rewardSvc,
			Validate:   validate,
			Translator: translator,
		},
	)

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
