// Package logsvc implements core.Logger.
package logsvc

import (
	"fmt"
	"log"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/edudesk/portal/core"
	"github.com/edudesk/portal/core/school"
)

// RollbarLogger reports to Rollbar and prints to a standard logger.
// The first school.User among the args becomes the Rollbar person, and its school
// and role are merged into the item's extras.
type RollbarLogger struct {
	std *log.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	rollbar.SetCustom(map[string]interface{}{"app": conf.AppName, "apiBaseUrl": conf.API.BaseURL})
	l := &RollbarLogger{std: std}
	l.Enable(!conf.Debug && conf.RollbarToken != "")
	return l
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// entry is a log call split the way Rollbar expects it.
type entry struct {
	user   *school.User
	extras map[string]interface{}
	rest   []interface{} // errors and anything else Rollbar understands
}

// split sorts args into an entry. Rollbar keeps a single extras map, so every
// map arg is merged into one; later keys win.
func split(args []interface{}) entry {
	var e entry
	for _, arg := range args {
		switch v := arg.(type) {
		case school.User:
			if e.user == nil {
				usr := v
				e.user = &usr
			}
		case map[string]interface{}:
			if e.extras == nil {
				e.extras = make(map[string]interface{}, len(v))
			}
			for k, val := range v {
				e.extras[k] = val
			}
		default:
			e.rest = append(e.rest, arg)
		}
	}
	if e.user != nil && (e.user.SchoolID != "" || e.user.Role != "") {
		if e.extras == nil {
			e.extras = make(map[string]interface{}, 2)
		}
		if e.user.SchoolID != "" {
			e.extras["schoolId"] = e.user.SchoolID
		}
		if e.user.Role != "" {
			e.extras["role"] = e.user.Role
		}
	}
	return e
}

func (e entry) rollbarArgs(msg string) []interface{} {
	out := make([]interface{}, 0, len(e.rest)+2)
	out = append(out, msg)
	out = append(out, e.rest...)
	if e.extras != nil {
		out = append(out, e.extras)
	}
	return out
}

func describeUser(usr school.User) string {
	s := "user " + usr.Email
	switch {
	case usr.Role != "" && usr.SchoolID != "":
		s += fmt.Sprintf(" (%s, school %s)", usr.Role, usr.SchoolID)
	case usr.Role != "":
		s += " (" + usr.Role + ")"
	}
	return s
}

func (l RollbarLogger) report(level, msg string, args []interface{}) {
	e := split(args)
	if e.user != nil {
		rollbar.SetPerson(e.user.ID, e.user.Name, e.user.Email)
	} else {
		rollbar.ClearPerson()
	}
	rollbar.Log(level, e.rollbarArgs(msg)...)
	l.print(msg, args)
}

func (l RollbarLogger) print(msg string, args []interface{}) {
	l.std.Println(msg)
	for _, arg := range args {
		if usr, ok := arg.(school.User); ok {
			l.std.Println(describeUser(usr))
			continue
		}
		l.std.Printf("%+v\n", arg)
	}
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	l.report(rollbar.DEBUG, msg, args)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	l.report(rollbar.INFO, msg, args)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	l.report(rollbar.WARN, msg, args)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	l.report(rollbar.ERR, msg, args)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.report(rollbar.CRIT, msg, args)
	rollbar.Wait()
	l.std.Fatal(msg)
}
