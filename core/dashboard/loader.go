// Package dashboard loads a school's read model and holds the state of a dashboard page:
// its snapshot, its three editors and its notices.
package dashboard

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/edudesk/portal/core"
	"github.com/edudesk/portal/core/school"
)

const LoadFailure = "Failed to load school data"

// Source is the read side of the school API.
type Source interface {
	Dashboard(ctx context.Context) (school.Dashboard, error)
	Tutors(ctx context.Context, simple bool) ([]school.Tutor, error)
	Assignments(ctx context.Context) ([]school.Assignment, error)
}

// LoadError is returned when the dashboard itself could not be fetched.
type LoadError struct {
	Err error
}

func (e *LoadError) Error() string       { return "loading dashboard: " + e.Err.Error() }
func (e *LoadError) UserMessage() string { return LoadFailure }
func (e *LoadError) Unwrap() error       { return e.Err }

// Snapshot is the read model of a school at a point in time.
type Snapshot struct {
	School      school.School
	Stats       school.Stats
	Grades      []school.Grade
	Tutors      []school.Tutor
	Subjects    []string
	Assignments []school.Assignment
	LoadedAt    time.Time
}

// Grade returns the loaded grade with the given ID.
func (s Snapshot) Grade(id string) (school.Grade, bool) {
	return school.FindGrade(s.Grades, id)
}

// Tutor returns the loaded tutor with the given ID.
func (s Snapshot) Tutor(id string) (school.Tutor, bool) {
	return school.FindTutor(s.Tutors, id)
}

// Assignment returns the loaded assignment record with the given ID.
func (s Snapshot) Assignment(id string) (school.Assignment, bool) {
	for _, a := range s.Assignments {
		if a.ID == id {
			return a, true
		}
	}
	return school.Assignment{}, false
}

// Section returns the loaded section with the given ID, along with its grade.
func (s Snapshot) Section(id string) (school.Grade, school.Section, bool) {
	for _, g := range s.Grades {
		for _, sec := range g.Sections {
			if sec.ID == id {
				return g, sec, true
			}
		}
	}
	return school.Grade{}, school.Section{}, false
}

// Loader fetches snapshots of a school.
type Loader struct {
	src      Source
	subjects []string // offered when the backend publishes none
	log      core.Logger
}

func NewLoader(src Source, defaultSubjects []string, logger core.Logger) *Loader {
	return &Loader{src: src, subjects: defaultSubjects, log: logger}
}

// Load fetches the dashboard, then the full tutor list and the assignment records.
// Only the dashboard is required: tutors fall back to the simple list, then to the
// dashboard's own summary; assignments fall back to an empty list.
func (l *Loader) Load(ctx context.Context) (Snapshot, error) {
	dash, err := l.src.Dashboard(ctx)
	if err != nil {
		return Snapshot{}, &LoadError{Err: err}
	}

	snap := Snapshot{
		School:   dash.School,
		Stats:    dash.Stats,
		Grades:   dash.Grades,
		Tutors:   dash.Tutors,
		Subjects: dash.Subjects,
		LoadedAt: time.Now().UTC(),
	}
	if len(snap.Subjects) == 0 {
		snap.Subjects = l.subjects
	}

	if tutors, err := l.tutors(ctx); err == nil {
		snap.Tutors = tutors
	} else {
		l.log.Warn("dashboard: loading tutors failed", err)
	}
	if snap.Tutors == nil {
		snap.Tutors = []school.Tutor{}
	}
	if snap.Grades == nil {
		snap.Grades = []school.Grade{}
	}

	if assignments, err := l.src.Assignments(ctx); err == nil && assignments != nil {
		snap.Assignments = assignments
	} else {
		if err != nil {
			l.log.Warn("dashboard: loading assignments failed", err)
		}
		snap.Assignments = []school.Assignment{}
	}
	return snap, nil
}

func (l *Loader) tutors(ctx context.Context) ([]school.Tutor, error) {
	tutors, err := l.src.Tutors(ctx, false)
	if err == nil {
		return tutors, nil
	}
	tutors, simpleErr := l.src.Tutors(ctx, true)
	if simpleErr != nil {
		return nil, errors.Wrapf(simpleErr, "simple list, after %v", err)
	}
	return tutors, nil
}
