package main

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/xuri/excelize/v2"

	"github.com/edudesk/portal/core"
	"github.com/edudesk/portal/core/dashboard"
	"github.com/edudesk/portal/core/school"
	"github.com/edudesk/portal/services/schoolapi"
	"github.com/edudesk/portal/storage/session"
	"github.com/edudesk/portal/tests"
)

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string // user message of the error
	wantOut    string // substring of the output
}

func setup(t *testing.T) (*commandLine, *testutil.Sandbox, *bytes.Buffer) {
	sb := testutil.NewSandbox(t)
	out := new(bytes.Buffer)
	return &commandLine{
		conf:   sb.Conf,
		client: schoolapi.NewClient(sb.Conf, session.NewMemoryStore(), testutil.NopLogger{}),
		log:    testutil.NopLogger{},
		out:    out,
	}, sb, out
}

func mockPassword(pwd string) {
	readPasswordFunc = func(int) ([]byte, error) { return []byte(pwd), nil }
}

func login(t *testing.T, cli *commandLine, usr school.User) {
	mockPassword(testutil.Password)
	if err := cli.run([]string{"portal", "login", "-email", usr.Email}); err != nil {
		t.Fatalf("login() failed: %v", err)
	}
}

func runTests(t *testing.T, cli *commandLine, out *bytes.Buffer, tests []cliTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out.Reset()
			err := cli.run(append([]string{"portal"}, tt.args...))
			switch {
			case tt.wantErr != nil:
				assert.True(t, errors.Is(err, tt.wantErr), "run() error = %v, wantErr %v", err, tt.wantErr)
			case tt.wantErrStr != "":
				if assert.Error(t, err) {
					assert.Equal(t, tt.wantErrStr, core.UserMessage(err, err.Error()))
				}
			default:
				assert.NoError(t, err)
			}
			if tt.wantOut != "" {
				assert.Contains(t, out.String(), tt.wantOut)
			}
		})
	}
}

func Test_commandLine_run(t *testing.T) {
	cli, _, out := setup(t)
	runTests(t, cli, out, []cliTest{
		{name: "no command", args: nil, wantErr: errHelp, wantOut: "Usage: portal COMMAND"},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "not logged in", args: []string{"dashboard"}, wantErr: errNotLoggedIn},
	})
}

func Test_commandLine_session(t *testing.T) {
	cli, sb, out := setup(t)

	mockPassword("nope")
	runTests(t, cli, out, []cliTest{
		{name: "whoami: not logged in", args: []string{"whoami"}, wantErr: errNotLoggedIn},
		{name: "login: no email", args: []string{"login"}, wantErr: errHelp},
		{name: "login: wrong password", args: []string{"login", "-email", sb.Admin.Email}, wantErrStr: "Invalid email or password"},
	})

	mockPassword(testutil.Password)
	runTests(t, cli, out, []cliTest{
		{name: "login", args: []string{"login", "-email", "ADMIN@gh.test"}, wantOut: "Logged in as Grace Admin <admin@gh.test> (SCHOOL_ADMIN)"},
		{name: "whoami", args: []string{"whoami"}, wantOut: "Grace Admin <admin@gh.test> role: SCHOOL_ADMIN school: " + sb.School.ID},
		{name: "logout", args: []string{"logout"}, wantOut: "Logged out"},
		{name: "whoami: logged out", args: []string{"whoami"}, wantErr: errNotLoggedIn},
	})
}

func Test_commandLine_dashboard(t *testing.T) {
	cli, sb, out := setup(t)
	sb.CreateGrade(t, sb.School.ID, "Grade 1", school.SectionInput{Name: "A", Subjects: []string{"English"}})
	sb.CreateTutor(t, sb.School.ID, "Jane Doe", "jane@gh.test")

	login(t, cli, sb.Admin)
	runTests(t, cli, out, []cliTest{
		{name: "own school", args: []string{"dashboard"}, wantOut: "Green Hill (GH01) [" + sb.School.ID + "] - can-edit"},
		{name: "classes", args: []string{"dashboard"}, wantOut: "Grade 1 ["},
		{name: "tutors", args: []string{"dashboard"}, wantOut: "Jane Doe ["},
		{name: "foreign school", args: []string{"dashboard", "-school", sb.Other.ID}, wantErr: dashboard.ErrForeignSchool},
	})

	login(t, cli, sb.Teacher)
	runTests(t, cli, out, []cliTest{
		{name: "teacher", args: []string{"dashboard"}, wantOut: "- read-only"},
	})

	login(t, cli, sb.SuperUser)
	runTests(t, cli, out, []cliTest{
		{name: "superadmin: any school", args: []string{"dashboard", "-school", sb.Other.ID}, wantOut: "Blue Lake (BL01)"},
		{name: "superadmin: no school", args: []string{"dashboard"}, wantErr: dashboard.ErrNoSchool},
	})
}

func Test_commandLine_classes(t *testing.T) {
	cli, sb, out := setup(t)
	login(t, cli, sb.Admin)

	runTests(t, cli, out, []cliTest{
		{name: "create: no name", args: []string{"class-create"}, wantErr: errHelp},
		{
			name:    "create",
			args:    []string{"class-create", "-name", "Grade 1", "-section", "A:English,Maths", "-section", "B:Science"},
			wantOut: "Class created successfully",
		},
		{
			name:       "create: duplicate name",
			args:       []string{"class-create", "-name", "grade 1"},
			wantErrStr: "A class with this name already exists",
		},
		{
			name:       "create: duplicate section",
			args:       []string{"class-create", "-name", "Grade 2", "-section", "A", "-section", "A"},
			wantErrStr: "A section with this name already exists",
		},
	})

	dash, err := sb.DB.Dashboard(sb.School.ID)
	if !assert.NoError(t, err) || !assert.Len(t, dash.Grades, 1) {
		return
	}
	g := dash.Grades[0]
	assert.Equal(t, []string{"A", "B"}, g.SectionNames())
	assert.Equal(t, []string{"English", "Maths"}, g.Sections[0].SubjectNames())

	runTests(t, cli, out, []cliTest{
		{name: "edit: no grade", args: []string{"class-edit"}, wantErr: errHelp},
		{name: "edit: unknown grade", args: []string{"class-edit", "-grade", "nope"}, wantErr: dashboard.ErrGradeNotFound},
		{name: "edit: unknown section", args: []string{"class-edit", "-grade", g.ID, "-remove", "Z"}, wantErrStr: "Section not found"},
		{
			name:    "edit: dry run",
			args:    []string{"class-edit", "-grade", g.ID, "-name", "Grade One", "-remove", "B", "-dry-run"},
			wantOut: "Planned calls:",
		},
	})

	dash, _ = sb.DB.Dashboard(sb.School.ID)
	assert.Equal(t, "Grade 1", dash.Grades[0].Name)
	assert.Len(t, dash.Grades[0].Sections, 2)

	runTests(t, cli, out, []cliTest{
		{
			name:    "edit",
			args:    []string{"class-edit", "-grade", g.ID, "-name", "Grade One", "-add", "C:Art", "-remove", "B", "-set", "A:English"},
			wantOut: "Class updated successfully",
		},
	})

	dash, _ = sb.DB.Dashboard(sb.School.ID)
	g = dash.Grades[0]
	assert.Equal(t, "Grade One", g.Name)
	assert.Equal(t, []string{"A", "C"}, g.SectionNames())
	assert.Equal(t, []string{"English"}, g.Sections[0].SubjectNames())
	assert.Equal(t, []string{"Art"}, g.Sections[1].SubjectNames())

	runTests(t, cli, out, []cliTest{
		{name: "delete: no grade", args: []string{"class-delete"}, wantErr: errHelp},
		{name: "delete", args: []string{"class-delete", "-grade", g.ID}, wantOut: "Class deleted successfully"},
	})
	dash, _ = sb.DB.Dashboard(sb.School.ID)
	assert.Empty(t, dash.Grades)
}

func Test_commandLine_readOnly(t *testing.T) {
	cli, sb, out := setup(t)
	g := sb.CreateGrade(t, sb.School.ID, "Grade 1", school.SectionInput{Name: "A"})

	login(t, cli, sb.Teacher)
	runTests(t, cli, out, []cliTest{
		{name: "class-create", args: []string{"class-create", "-name", "Grade 2"}, wantErr: dashboard.ErrReadOnly},
		{name: "class-delete", args: []string{"class-delete", "-grade", g.ID}, wantErr: dashboard.ErrReadOnly},
		{name: "tutor-add", args: []string{"tutor-add", "-name", "A", "-email", "a@gh.test", "-phone", "1"}, wantErr: dashboard.ErrReadOnly},
	})
}

func Test_commandLine_tutors(t *testing.T) {
	cli, sb, out := setup(t)
	login(t, cli, sb.Admin)

	runTests(t, cli, out, []cliTest{
		{name: "add: missing flags", args: []string{"tutor-add", "-name", "Jane Doe"}, wantErr: errHelp},
		{
			name:    "add",
			args:    []string{"tutor-add", "-name", "Jane Doe", "-email", "Jane@GH.test", "-phone", "0711111111"},
			wantOut: "Tutor created! Password: ",
		},
		{
			name:       "add: duplicate email",
			args:       []string{"tutor-add", "-name", "Jane Again", "-email", "jane@gh.test", "-phone", "0711111111"},
			wantErrStr: "A user with this email already exists",
		},
	})

	tutors, _ := sb.DB.Tutors(sb.School.ID, false)
	if !assert.Len(t, tutors, 1) {
		return
	}
	jane := tutors[0]
	assert.Equal(t, "jane@gh.test", jane.Email)
	if msgs := sb.Mailer.SentMessages(); assert.Len(t, msgs, 1) && assert.Len(t, msgs[0].To, 1) {
		assert.Equal(t, "jane@gh.test", msgs[0].To[0].Address)
	}

	runTests(t, cli, out, []cliTest{
		{name: "edit: unknown tutor", args: []string{"tutor-edit", "-id", "nope", "-name", "X"}, wantErr: dashboard.ErrTutorNotFound},
		{name: "edit", args: []string{"tutor-edit", "-id", jane.ID, "-phone", "0722222222"}, wantOut: "Tutor updated successfully"},
	})

	tutors, _ = sb.DB.Tutors(sb.School.ID, false)
	assert.Equal(t, "Jane Doe", tutors[0].Name)
	assert.Equal(t, "0722222222", tutors[0].Phone)

	runTests(t, cli, out, []cliTest{
		{name: "delete", args: []string{"tutor-delete", "-id", jane.ID}, wantOut: "Tutor deleted successfully"},
	})
	tutors, _ = sb.DB.Tutors(sb.School.ID, false)
	assert.Empty(t, tutors)
}

func Test_commandLine_tutorImport(t *testing.T) {
	cli, sb, out := setup(t)
	login(t, cli, sb.Admin)

	path := filepath.Join(t.TempDir(), "tutors.xlsx")
	f := excelize.NewFile()
	for i, row := range [][]interface{}{
		{"Phone", "Name", "Email"},
		{"0711111111", "Jane Doe", "jane@gh.test"},
		{"0722222222", "John Roe", "john@gh.test"},
		{"", "No Phone", "nophone@gh.test"},
	} {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("SetSheetRow() failed: %v", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs() failed: %v", err)
	}

	runTests(t, cli, out, []cliTest{
		{name: "no file", args: []string{"tutor-import"}, wantErr: errHelp},
		{name: "import", args: []string{"tutor-import", "-file", path}, wantErrStr: "1 rows could not be imported", wantOut: "row 4: Please enter tutor phone"},
	})
	assert.Contains(t, out.String(), "Imported 2 of 3 tutors")

	tutors, _ := sb.DB.Tutors(sb.School.ID, false)
	assert.Len(t, tutors, 2)
}

func Test_commandLine_assignments(t *testing.T) {
	cli, sb, out := setup(t)
	sb.CreateGrade(t, sb.School.ID, "Grade 1", school.SectionInput{Name: "A", Subjects: []string{"English", "Maths"}})
	jane := sb.CreateTutor(t, sb.School.ID, "Jane Doe", "jane@gh.test")
	login(t, cli, sb.Admin)

	runTests(t, cli, out, []cliTest{
		{name: "no tutor", args: []string{"assign"}, wantErr: errHelp},
		{name: "bad subjects", args: []string{"assign", "-tutor", jane.ID, "-subjects", "Grade1:English"}, wantErrStr: `Invalid class section "Grade1": expected CLASS-SECTION`},
		{name: "edit: no assignment", args: []string{"assign", "-tutor", jane.ID, "-subjects", "Grade 1-A:English", "-edit"}, wantErr: dashboard.ErrAssignmentNotFound},
		{
			name:    "assign",
			args:    []string{"assign", "-tutor", jane.ID, "-subjects", "Grade 1-A:English", "-class-tutor", "Grade 1:A"},
			wantOut: "Tutor assigned successfully",
		},
		{
			name:    "edit",
			args:    []string{"assign", "-tutor", jane.ID, "-subjects", "Grade 1-A:Maths,English", "-edit"},
			wantOut: "Assignment updated successfully",
		},
	})

	assignments, _ := sb.DB.Assignments(sb.School.ID)
	if assert.Len(t, assignments, 1) {
		assert.Equal(t, []string{"English", "Maths"}, assignments[0].Assignments["Grade 1-A"])
		assert.Equal(t, "Grade 1", assignments[0].ClassGrade)
		assert.Equal(t, "A", assignments[0].ClassSection)
	}
	dash, _ := sb.DB.Dashboard(sb.School.ID)
	if sec := dash.Grades[0].Sections[0]; assert.NotNil(t, sec.ClassTutor) {
		assert.Equal(t, jane.ID, sec.ClassTutor.ID)
	}

	runTests(t, cli, out, []cliTest{
		{name: "unassign: no flags", args: []string{"unassign"}, wantErr: errHelp},
		{name: "unassign: both flags", args: []string{"unassign", "-id", "x", "-tutor", jane.ID}, wantErr: errHelp},
		{name: "unassign", args: []string{"unassign", "-tutor", jane.ID}, wantOut: "Assignments removed successfully"},
	})
	assignments, _ = sb.DB.Assignments(sb.School.ID)
	assert.Empty(t, assignments)
}

func Test_commandLine_subjects(t *testing.T) {
	cli, sb, out := setup(t)
	g := sb.CreateGrade(t, sb.School.ID, "Grade 1", school.SectionInput{Name: "A", Subjects: []string{"English"}})
	jane := sb.CreateTutor(t, sb.School.ID, "Jane Doe", "jane@gh.test")
	sec := g.Sections[0]
	login(t, cli, sb.Admin)

	runTests(t, cli, out, []cliTest{
		{name: "add: missing flags", args: []string{"subject-add", "-section", sec.ID}, wantErr: errHelp},
		{name: "add", args: []string{"subject-add", "-section", sec.ID, "-name", "Art"}, wantOut: "Subject added"},
		{name: "add: duplicate", args: []string{"subject-add", "-section", sec.ID, "-name", "Art"}, wantErrStr: "This subject already exists in the section"},
		{name: "tutor", args: []string{"subject-tutor", "-subject", sec.Subjects[0].ID, "-tutor", jane.ID}, wantOut: "Tutor assigned to subject"},
	})

	dash, _ := sb.DB.Dashboard(sb.School.ID)
	subjects := dash.Grades[0].Sections[0].Subjects
	if assert.Len(t, subjects, 2) && assert.NotNil(t, subjects[0].Tutor) {
		assert.Equal(t, jane.ID, subjects[0].Tutor.ID)
		assert.Equal(t, "Art", subjects[1].Name)
	}

	runTests(t, cli, out, []cliTest{
		{name: "remove", args: []string{"subject-remove", "-id", subjects[1].ID}, wantOut: "Subject removed"},
	})
	dash, _ = sb.DB.Dashboard(sb.School.ID)
	assert.Equal(t, []string{"English"}, dash.Grades[0].Sections[0].SubjectNames())
}

func Test_commandLine_export(t *testing.T) {
	cli, sb, out := setup(t)
	sb.CreateGrade(t, sb.School.ID, "Grade 1", school.SectionInput{Name: "A", Subjects: []string{"English"}})
	login(t, cli, sb.Admin)

	path := filepath.Join(t.TempDir(), "dashboard.xlsx")
	runTests(t, cli, out, []cliTest{
		{name: "no output", args: []string{"export"}, wantErr: errHelp},
		{name: "export", args: []string{"export", "-out", path}, wantOut: "Dashboard exported to " + path},
	})

	f, err := excelize.OpenFile(path)
	if assert.NoError(t, err) {
		defer f.Close()
		assert.Equal(t, []string{"Classes", "Tutors", "Assignments"}, f.GetSheetList())
	}
}

func Test_splitSpec(t *testing.T) {
	tests := []struct {
		spec      string
		wantName  string
		wantItems []string
	}{
		{spec: "A:English, Maths", wantName: "A", wantItems: []string{"English", "Maths"}},
		{spec: "Grade 1-A:English", wantName: "Grade 1-A", wantItems: []string{"English"}},
		{spec: "B", wantName: "B", wantItems: []string{}},
		{spec: "Class: 1:B", wantName: "Class: 1", wantItems: []string{"B"}},
		{spec: "C: ,", wantName: "C", wantItems: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			name, items := splitSpec(tt.spec)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantItems, items)
		})
	}
}
