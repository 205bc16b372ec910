package dig_container

import (
	"context"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/shule/apps/api/echo"
	"github.com/trezcool/shule/apps/shared"
	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/account"
	"github.com/trezcool/shule/core/roster"
	emailsvc "github.com/trezcool/shule/services/email"
	logsvc "github.com/trezcool/shule/services/logger"
	metricsvc "github.com/trezcool/shule/services/metrics"
	sheetsvc "github.com/trezcool/shule/services/spreadsheet"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

func newLogger(conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(os.Stdout, "API", conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(os.Stdout, "DB", conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newStorage(conf *core.Config, loggerParam DBLoggerParam) *shared.Storage {
	st, err := shared.OpenStorage(context.Background(), conf, true /* migrate */)
	if err != nil {
		loggerParam.Logger.Fatal("setting up database", err)
	}
	return st
}

func newStudentService(st *shared.Storage) *account.StudentService {
	return account.NewStudentService(st.Students)
}

func newTeacherService(st *shared.Storage, validate *validator.Validate) *account.TeacherService {
	return account.NewTeacherService(st.Teachers, validate)
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newImporter(
	conf *core.Config,
	logger core.Logger,
	recorder *metricsvc.PrometheusRecorder,
	mailSvc core.EmailService,
) *roster.Importer {
	return roster.NewImporter(conf, sheetsvc.NewExcelCodec(), logger, recorder, mailSvc)
}

type serverParams struct {
	dig.In
	Conf       *core.Config
	Logger     core.Logger
	Validate   *validator.Validate
	Translator ut.Translator
	StudentSvc *account.StudentService
	TeacherSvc *account.TeacherService
	Importer   *roster.Importer
}

func newServer(p serverParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:           p.Conf,
		Logger:         p.Logger,
		Validate:       p.Validate,
		Translator:     p.Translator,
		StudentSvc:     p.StudentSvc,
		TeacherSvc:     p.TeacherSvc,
		Importer:       p.Importer,
		MetricsHandler: metricsvc.Handler(),
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newStorage))
	must(c.Provide(newEmailService))
	must(c.Provide(shared.NewTranslator))
	must(c.Provide(shared.NewValidator))
	must(c.Provide(newStudentService))
	must(c.Provide(newTeacherService))
	must(c.Provide(metricsvc.NewPrometheusRecorder))
	must(c.Provide(newImporter))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
