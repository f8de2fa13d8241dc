package dashboard

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/edudesk/portal/core/school"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

// fakeBackend records calls and serves a fixed read model.
type fakeBackend struct {
	mu    sync.Mutex
	calls []string

	dash        school.Dashboard
	tutors      []school.Tutor
	assignments []school.Assignment

	dashErr, tutorsErr, simpleErr, assignmentsErr error
	failWith                                      error // returned by every write
	gate                                          chan struct{} // when set, writes wait on it
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		dash: school.Dashboard{
			School: school.School{ID: "sch1", Name: "Green Hill", Code: "GH"},
			Stats:  school.Stats{TotalClasses: 1, TotalSections: 1, TotalTutors: 1},
			Grades: []school.Grade{{
				ID: "g1", Name: "Grade 1", SectionsCount: 1,
				Sections: []school.Section{{
					ID: "s1", Name: "A",
					Subjects: []school.SectionSubject{{ID: "ss1", Name: "English"}},
				}},
			}},
			Tutors:   []school.Tutor{{ID: "t1", Name: "Jane"}},
			Subjects: []string{"English", "Maths"},
		},
		tutors:      []school.Tutor{{ID: "t1", Name: "Jane", Email: "jane@school.test", Phone: "555"}, {ID: "t2", Name: "John"}},
		assignments: []school.Assignment{{ID: "a1", TutorID: "t1", TutorName: "Jane", Assignments: map[string][]string{"Grade 1-A": {"English"}}}},
	}
}

func (b *fakeBackend) record(call string) {
	b.mu.Lock()
	b.calls = append(b.calls, call)
	b.mu.Unlock()
}

func (b *fakeBackend) Calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

func (b *fakeBackend) write(call string) error {
	b.record(call)
	if b.gate != nil {
		<-b.gate
	}
	return b.failWith
}

func (b *fakeBackend) Dashboard(context.Context) (school.Dashboard, error) {
	b.record("GET dashboard")
	return b.dash, b.dashErr
}

func (b *fakeBackend) Tutors(_ context.Context, simple bool) ([]school.Tutor, error) {
	if simple {
		b.record("GET tutors?simple=true")
		if b.simpleErr != nil {
			return nil, b.simpleErr
		}
		return []school.Tutor{{ID: "t1", Name: "Jane"}}, nil
	}
	b.record("GET tutors")
	return b.tutors, b.tutorsErr
}

func (b *fakeBackend) Assignments(context.Context) ([]school.Assignment, error) {
	b.record("GET assignments")
	return b.assignments, b.assignmentsErr
}

func (b *fakeBackend) CreateGrade(_ context.Context, g school.NewGrade) error {
	return b.write("POST grades " + g.GradeName)
}

func (b *fakeBackend) RenameGrade(_ context.Context, id, name string) error {
	return b.write("PUT grades/" + id + " " + name)
}

func (b *fakeBackend) AddSection(_ context.Context, gradeID string, sec school.SectionInput) error {
	return b.write("POST grades/" + gradeID + "/sections " + sec.Name)
}

func (b *fakeBackend) DeleteSection(_ context.Context, id string) error {
	return b.write("DELETE sections/" + id)
}

func (b *fakeBackend) ReplaceSectionSubjects(_ context.Context, id string, _ []string) error {
	return b.write("PUT sections/" + id + "/subjects")
}

func (b *fakeBackend) CreateTutor(_ context.Context, in school.TutorInput) (school.CreatedTutor, error) {
	if err := b.write("POST tutors " + in.Email); err != nil {
		return school.CreatedTutor{}, err
	}
	return school.CreatedTutor{Tutor: school.Tutor{ID: "t9", Name: in.Name}, TemporaryPassword: "tmp-pwd"}, nil
}

func (b *fakeBackend) UpdateTutor(_ context.Context, id string, _ school.TutorInput) error {
	return b.write("PUT tutors/" + id)
}

func (b *fakeBackend) CreateAssignment(_ context.Context, in school.AssignmentInput) error {
	return b.write("POST assignments " + in.TutorID)
}

func (b *fakeBackend) ReplaceAssignment(_ context.Context, in school.AssignmentInput) error {
	return b.write("PUT assignments " + in.TutorID)
}

func (b *fakeBackend) DeleteGrade(_ context.Context, id string) error {
	return b.write("DELETE grades/" + id)
}

func (b *fakeBackend) DeleteTutor(_ context.Context, id string) error {
	return b.write("DELETE tutors/" + id)
}

func (b *fakeBackend) DeleteAssignment(_ context.Context, id string) error {
	return b.write("DELETE assignments/" + id)
}

func (b *fakeBackend) DeleteTutorAssignments(_ context.Context, tutorID string) error {
	return b.write("DELETE assignments/tutor/" + tutorID)
}

func (b *fakeBackend) AddSectionSubject(_ context.Context, sectionID, name string) error {
	return b.write("POST sections/" + sectionID + "/subjects " + name)
}

func (b *fakeBackend) DeleteSectionSubject(_ context.Context, id string) error {
	return b.write("DELETE section-subjects/" + id)
}

// messageError mimics a backend error carrying a user message.
type messageError string

func (e messageError) Error() string       { return string(e) }
func (e messageError) UserMessage() string { return string(e) }

var errNetwork = errors.New("connection refused")
