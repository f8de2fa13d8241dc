// Package testutil runs the sandbox backend in-process for end-to-end tests.
package testutil

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	echoapi "github.com/edudesk/portal/apps/api/echo"
	"github.com/edudesk/portal/core"
	"github.com/edudesk/portal/core/school"
	emailsvc "github.com/edudesk/portal/services/email"
	"github.com/edudesk/portal/services/schoolapi"
	inmemdb "github.com/edudesk/portal/storage/database/inmem"
	"github.com/edudesk/portal/storage/session"
)

// Password of every user created by the sandbox.
const Password = "pwd"

type NopLogger struct{}

func (NopLogger) Debug(string, ...interface{}) {}
func (NopLogger) Info(string, ...interface{})  {}
func (NopLogger) Warn(string, ...interface{})  {}
func (NopLogger) Error(string, ...interface{}) {}
func (NopLogger) Fatal(string, ...interface{}) {}

// Sandbox is a running sandbox backend with two schools and a user of each role.
// Admin and Teacher belong to School.
type Sandbox struct {
	Conf   *core.Config
	Server *httptest.Server
	DB     *inmemdb.DB
	Mailer *emailsvc.ConsoleServiceMock

	School    school.School
	Other     school.School
	SuperUser school.User
	Admin     school.User
	Teacher   school.User
}

func Config() *core.Config {
	return &core.Config{
		Env:              "TEST",
		TestMode:         true,
		AppName:          "EduDesk",
		SecretKey:        "secret",
		DefaultFromEmail: "noreply@localhost",
		Subjects:         []string{"English", "Maths", "Science", "Art", "Music"},
		API:              core.APIConfig{Timeout: 5 * time.Second},
		Session:          core.SessionConfig{Store: "memory"},
		Server: core.ServerConfig{
			JWTExpirationDelta:        10 * time.Minute,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
	}
}

// NewSandbox starts a sandbox backend, stopped when the test ends.
// The returned Conf points the API client at it.
func NewSandbox(t *testing.T) *Sandbox {
	conf := Config()
	db := inmemdb.Open(conf.Subjects)
	mailer := emailsvc.NewConsoleServiceMock(conf, NopLogger{})

	sb := &Sandbox{
		Conf:   conf,
		DB:     db,
		Mailer: mailer,
		School: db.CreateSchool(school.School{Name: "Green Hill", Code: "GH01", StudentCount: 300}),
		Other:  db.CreateSchool(school.School{Name: "Blue Lake", Code: "BL01"}),
	}
	sb.SuperUser = CreateUser(t, db, "Root", "root@edudesk.test", school.RoleSuperAdmin, "")
	sb.Admin = CreateUser(t, db, "Grace Admin", "admin@gh.test", school.RoleSchoolAdmin, sb.School.ID)
	sb.Teacher = CreateUser(t, db, "Tom Teacher", "teacher@gh.test", school.RoleTeacher, sb.School.ID)

	app := echoapi.NewServer(echoapi.ServerDeps{
		Conf:           conf,
		Logger:         NopLogger{},
		DB:             db,
		Mailer:         mailer,
		DisableReqLogs: true,
	})
	sb.Server = httptest.NewServer(app)
	t.Cleanup(sb.Server.Close)
	conf.API.BaseURL = sb.Server.URL + "/api"
	return sb
}

func CreateUser(t *testing.T, db *inmemdb.DB, name, email, role, schoolID string) school.User {
	usr, err := db.CreateUser(inmemdb.NewUser{
		Name:     name,
		Email:    email,
		Password: Password,
		Role:     role,
		SchoolID: schoolID,
	})
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// Client returns an API client with an in-memory session, logged in as `usr`.
func (sb *Sandbox) Client(t *testing.T, usr school.User) *schoolapi.Client {
	client := schoolapi.NewClient(sb.Conf, session.NewMemoryStore(), NopLogger{})
	if _, err := client.Login(context.Background(), usr.Email, Password); err != nil {
		t.Fatalf("Client() login failed: %v", err)
	}
	return client
}

// CreateGrade seeds a grade with the given sections.
func (sb *Sandbox) CreateGrade(t *testing.T, schoolID, name string, sections ...school.SectionInput) school.Grade {
	g, err := sb.DB.CreateGrade(schoolID, school.NewGrade{GradeName: name, Sections: sections})
	if err != nil {
		t.Fatalf("CreateGrade() failed: %v", err)
	}
	return g
}

func (sb *Sandbox) CreateTutor(t *testing.T, schoolID, name, email string) school.Tutor {
	tut, err := sb.DB.CreateTutor(schoolID, school.TutorInput{Name: name, Email: email, Phone: "0700000000"}, Password)
	if err != nil {
		t.Fatalf("CreateTutor() failed: %v", err)
	}
	return tut
}
