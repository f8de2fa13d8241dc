package echoapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/edudesk/portal/core"
	"github.com/edudesk/portal/core/school"
	emailsvc "github.com/edudesk/portal/services/email"
	inmemdb "github.com/edudesk/portal/storage/database/inmem"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

type (
	httpErr struct {
		Error string `json:"error"`
	}

	httpMsg struct {
		Message string `json:"message"`
	}

	httpTest struct {
		name     string
		method   string
		path     string
		body     []byte
		token    string
		wantCode int
		wantData []byte
	}

	fixture struct {
		app       *Server
		db        *inmemdb.DB
		mailer    *emailsvc.ConsoleServiceMock
		school    school.School
		other     school.School
		superUser school.User
		admin     school.User
		teacher   school.User
	}
)

func testConfig() *core.Config {
	return &core.Config{
		Env:              "TEST",
		TestMode:         true,
		AppName:          "EduDesk",
		SecretKey:        "secret",
		DefaultFromEmail: "noreply@localhost",
		Subjects:         []string{"English", "Maths"},
		Server: core.ServerConfig{
			JWTExpirationDelta:        10 * time.Minute,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
	}
}

func createUser(t *testing.T, db *inmemdb.DB, email, role, schoolID string) school.User {
	usr, err := db.CreateUser(inmemdb.NewUser{Name: email, Email: email, Password: "pwd", Role: role, SchoolID: schoolID})
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

func setup(t *testing.T) *fixture {
	conf := testConfig()
	db := inmemdb.Open(conf.Subjects)
	mailer := emailsvc.NewConsoleServiceMock(conf, nopLogger{})

	f := &fixture{
		db:     db,
		mailer: mailer,
		school: db.CreateSchool(school.School{Name: "Green Hill", Code: "GH01"}),
		other:  db.CreateSchool(school.School{Name: "Blue Lake", Code: "BL01"}),
	}
	f.superUser = createUser(t, db, "root@edudesk.test", school.RoleSuperAdmin, "")
	f.admin = createUser(t, db, "admin@gh.test", school.RoleSchoolAdmin, f.school.ID)
	f.teacher = createUser(t, db, "teacher@gh.test", school.RoleTeacher, f.school.ID)
	f.app = NewServer(ServerDeps{
		Conf:           conf,
		Logger:         nopLogger{},
		DB:             db,
		Mailer:         mailer,
		DisableReqLogs: true,
	})
	return f
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, app *Server, usr school.User, kind ...string) string {
	k := accessToken
	if len(kind) > 0 {
		k = kind[0]
	}
	token, err := app.auth.GenerateToken(app.auth.UserClaims(usr, k))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func unmarshal(t *testing.T, rec *httptest.ResponseRecorder, obj interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), obj); err != nil {
		t.Fatalf("json.Unmarshal() failed: %v; body %s", err, rec.Body.String())
	}
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func (f *fixture) run(t *testing.T, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			req, rec := newAuthRequest(method, tt.path, tt.token, tt.body)
			f.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

// call sends a request and returns its recorder, failing the test on an unexpected status code.
func (f *fixture) call(t *testing.T, method, path, token string, in interface{}, wantCode int) *httptest.ResponseRecorder {
	var body []byte
	if in != nil {
		body = marchallObj(t, in)
	}
	req, rec := newAuthRequest(method, path, token, body)
	f.app.ServeHTTP(rec, req)
	if rec.Code != wantCode {
		t.Fatalf("%s %s: code = %v; wantCode %v; body %s", method, path, rec.Code, wantCode, rec.Body.String())
	}
	return rec
}
