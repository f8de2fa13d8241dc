package dig_container

import (
	"fmt"
	"log"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/edudesk/portal/apps/api/echo"
	"github.com/edudesk/portal/core"
	"github.com/edudesk/portal/core/school"
	emailsvc "github.com/edudesk/portal/services/email"
	logsvc "github.com/edudesk/portal/services/logger"
	inmemdb "github.com/edudesk/portal/storage/database/inmem"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

// newDB opens the sandbox store and seeds it with the superadmin account and a demo school.
func newDB(conf *core.Config, loggerParam DBLoggerParam) *inmemdb.DB {
	db := inmemdb.Open(conf.Subjects)

	demo := db.CreateSchool(school.School{Name: "Sandbox School", Code: "SBX001", StudentCount: 120})
	_, err := db.CreateUser(inmemdb.NewUser{
		Name:     "Sandbox Admin",
		Email:    conf.Sandbox.AdminEmail,
		Password: conf.Sandbox.AdminPassword,
		Role:     school.RoleSuperAdmin,
	})
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("seeding sandbox: %v", err), err)
	}
	loggerParam.Logger.Info(fmt.Sprintf("sandbox seeded: superadmin %q, school %q (%s)", conf.Sandbox.AdminEmail, demo.Name, demo.ID))
	return db
}

func newServer(conf *core.Config, logger core.Logger, db *inmemdb.DB, mailer core.EmailService) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:   conf,
		Logger: logger,
		DB:     db,
		Mailer: mailer,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(emailsvc.NewService))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
