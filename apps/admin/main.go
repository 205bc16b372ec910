package main

import (
	"context"
	"os"

	"github.com/trezcool/shule/apps/shared"
	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/roster"
	emailsvc "github.com/trezcool/shule/services/email"
	logsvc "github.com/trezcool/shule/services/logger"
	metricsvc "github.com/trezcool/shule/services/metrics"
	sheetsvc "github.com/trezcool/shule/services/spreadsheet"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(os.Stderr, "ADMIN", conf)
	logger.Enable(!conf.Debug)
	core.ParseEmailTemplates(conf, logger)

	// set up DB
	storage, err := shared.OpenStorage(context.Background(), conf, false /* migrate */)
	if err != nil {
		logger.Fatal("setting up database", err)
	}

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	// start CLI
	cli := commandLine{
		out:      os.Stdout,
		storage:  storage,
		importer: roster.NewImporter(conf, sheetsvc.NewExcelCodec(), logger, metricsvc.NewPrometheusRecorder(), mailSvc),
	}
	err = cli.run(os.Args)
	if cerr := storage.Close(); cerr != nil {
		logger.Error("closing database", cerr)
	}
	if err != nil {
		if err != errHelp {
			logger.Error("command failed", err)
		}
		os.Exit(1)
	}
}
