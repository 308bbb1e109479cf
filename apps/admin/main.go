package main

import (
	"fmt"
	"os"

	"github.com/projectpulse/pulse/core"
	"github.com/projectpulse/pulse/core/user"
	logsvc "github.com/projectpulse/pulse/services/logger"
	"github.com/projectpulse/pulse/storage/database"
)

func main() {
	conf := core.Conf
	logger := logsvc.NewRollbarLogger(logsvc.NewLogrus(os.Stderr, conf), conf)

	validate, translator := core.NewValidator()
	user.InitValidators(validate, translator)

	// start CLI
	cli := newCommandLine(conf, database.OpenStore, validate, os.Stdout)
	err := cli.run(os.Args[1:])
	if cErr := cli.close(); cErr != nil {
		logger.Error("closing database", cErr)
	}
	if err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("error: %v", err), err)
		}
		os.Exit(1)
	}
}
