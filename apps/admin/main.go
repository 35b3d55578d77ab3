package main

import (
	"context"
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/edupoints/core"
	"github.com/trezcool/edupoints/core/user"
	logsvc "github.com/trezcool/edupoints/services/logger"
	"github.com/trezcool/edupoints/storage"
)

func main() {
	os.Exit(run())
}

func run() int {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(log.New(os.Stderr, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)
	logger.Enable(false)

	usePersistentStorage(conf)

	// set up storage
	backend, err := storage.Open(context.Background(), conf)
	if err != nil {
		logger.Error("setting up storage", err)
		return 1
	}
	defer backend.Close()

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	// start CLI
	cli := commandLine{
		conf:     conf,
		storage:  backend.Sessions,
		logger:   logger,
		validate: validate,
		out:      os.Stdout,
	}
	if err = cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error("error", err)
		}
		return 1
	}
	return 0
}

// usePersistentStorage swaps in-memory storage for sqlite: the command line session must outlive the process.
func usePersistentStorage(conf *core.Config) {
	switch conf.Storage.Driver {
	case storage.DriverMemory, "":
		conf.Storage.Driver = storage.DriverSQLite
	}
}
