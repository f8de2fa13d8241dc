// Package assignment implements the assignment editor: which subjects a tutor teaches in which
// grade & section, and which section they are the class tutor of.
package assignment

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/edudesk/portal/core"
	"github.com/edudesk/portal/core/school"
)

var (
	ErrTutorRequired = core.NewValidationErrorf(
		"Please select a tutor",
		core.FieldError{Field: "tutorId", Error: "Please select a tutor"},
	)
	ErrEmptyAssignment = core.NewValidationErrorf("Please assign at least one subject or class tutor role")
	ErrSectionNotFound = core.NewValidationErrorf("Section not found")
	ErrSubjectNotFound = core.NewValidationErrorf("Subject not found")
)

// Backend is the part of the school API the assignment editor talks to.
type Backend interface {
	CreateAssignment(ctx context.Context, in school.AssignmentInput) error
	ReplaceAssignment(ctx context.Context, in school.AssignmentInput) error
}

// Draft is the local edit state of a tutor's assignment record.
// Assignments maps AssignmentKey(grade, section) to subject names.
// EditingID is the ID of the edited record, empty when creating one.
type Draft struct {
	EditingID    string              `json:"-"`
	TutorID      string              `json:"tutorId"`
	Assignments  map[string][]string `json:"assignments"`
	ClassGrade   string              `json:"classGrade,omitempty"`
	ClassSection string              `json:"classSection,omitempty"`
}

// NewDraft returns an empty draft, for creating an assignment record.
func NewDraft() Draft {
	return Draft{Assignments: map[string][]string{}}
}

// DraftFrom seeds a draft from a persisted assignment record.
func DraftFrom(a school.Assignment) Draft {
	d := Draft{
		EditingID:    a.ID,
		TutorID:      a.TutorID,
		ClassGrade:   a.ClassGrade,
		ClassSection: a.ClassSection,
	}
	d.Assignments = copyAssignments(a.Assignments)
	return d
}

func (d Draft) IsEditing() bool { return d.EditingID != "" }

func (d Draft) clone() Draft {
	d.Assignments = copyAssignments(d.Assignments)
	return d
}

// SetTutor selects the tutor the record belongs to.
func (d Draft) SetTutor(tutorID string) Draft {
	d = d.clone()
	d.TutorID = tutorID
	return d
}

// Subjects returns the subjects selected for a grade & section.
func (d Draft) Subjects(gradeName, sectionName string) []string {
	return d.Assignments[school.AssignmentKey(gradeName, sectionName)]
}

// HasSubject reports whether `subject` is selected for a grade & section.
func (d Draft) HasSubject(gradeName, sectionName, subject string) bool {
	return core.ContainsString(d.Subjects(gradeName, sectionName), subject)
}

// ToggleSubject adds `subject` to the grade & section entry when absent, removes it otherwise.
// The entry is created when missing; an entry left empty is kept.
func (d Draft) ToggleSubject(gradeName, sectionName, subject string) Draft {
	d = d.clone()
	key := school.AssignmentKey(gradeName, sectionName)
	subjects := d.Assignments[key]
	if core.ContainsString(subjects, subject) {
		kept := make([]string, 0, len(subjects))
		for _, s := range subjects {
			if s != subject {
				kept = append(kept, s)
			}
		}
		d.Assignments[key] = kept
	} else {
		d.Assignments[key] = append(subjects, subject)
	}
	return d
}

// SetClassTutor makes the tutor the class tutor of a grade & section.
func (d Draft) SetClassTutor(gradeName, sectionName string) Draft {
	d = d.clone()
	d.ClassGrade = gradeName
	d.ClassSection = sectionName
	return d
}

func (d Draft) ClearClassTutor() Draft {
	return d.SetClassTutor("", "")
}

// HasSubjects reports whether at least one entry has a subject.
func (d Draft) HasSubjects() bool {
	for _, subjects := range d.Assignments {
		if len(subjects) > 0 {
			return true
		}
	}
	return false
}

// Validate checks that a tutor is selected and that something is assigned to them.
func (d Draft) Validate() error {
	if core.CleanString(d.TutorID) == "" {
		return ErrTutorRequired
	}
	if !d.HasSubjects() && core.CleanString(d.ClassGrade) == "" {
		return ErrEmptyAssignment
	}
	return nil
}

// Input returns the request payload of the draft: the complete record.
func (d Draft) Input() school.AssignmentInput {
	return school.AssignmentInput{
		TutorID:      core.CleanString(d.TutorID),
		Assignments:  copyAssignments(d.Assignments),
		ClassGrade:   core.CleanString(d.ClassGrade),
		ClassSection: core.CleanString(d.ClassSection),
	}
}

// Submit sends the draft with a single call: a creation, or a full replacement of the tutor's record.
func Submit(ctx context.Context, b Backend, d Draft) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if d.IsEditing() {
		return errors.Wrap(b.ReplaceAssignment(ctx, d.Input()), "replacing assignment")
	}
	return errors.Wrap(b.CreateAssignment(ctx, d.Input()), "creating assignment")
}

// IsTutorAssigned reports whether the tutor holds an assignment record.
func IsTutorAssigned(assignments []school.Assignment, tutorID string) bool {
	_, ok := school.FindTutorAssignment(assignments, tutorID)
	return ok
}

// SelectableTutors returns the tutors that can be picked in the editor:
// all of them when editing, only those without a record otherwise.
func SelectableTutors(tutors []school.Tutor, assignments []school.Assignment, editing bool) []school.Tutor {
	if editing {
		return tutors
	}
	selectable := make([]school.Tutor, 0, len(tutors))
	for _, t := range tutors {
		if !IsTutorAssigned(assignments, t.ID) {
			selectable = append(selectable, t)
		}
	}
	return selectable
}

// AssignSubjectTutor assigns a tutor to the section subject with ID `subjectID`.
// A tutor without a record gets a new one holding only that subject;
// otherwise the subject is added to their record, which is replaced.
func AssignSubjectTutor(
	ctx context.Context,
	b Backend,
	grades []school.Grade,
	assignments []school.Assignment,
	subjectID, tutorID string,
) error {
	gradeName, sectionName, subject, err := findSubject(grades, subjectID)
	if err != nil {
		return err
	}

	d := NewDraft()
	if a, ok := school.FindTutorAssignment(assignments, tutorID); ok {
		d = DraftFrom(a)
	}
	d = d.SetTutor(tutorID)
	if !d.HasSubject(gradeName, sectionName, subject) {
		d = d.ToggleSubject(gradeName, sectionName, subject)
	}
	return Submit(ctx, b, d)
}

// findSubject locates a section subject in the loaded grades.
func findSubject(grades []school.Grade, subjectID string) (gradeName, sectionName, subject string, err error) {
	if core.CleanString(subjectID) == "" {
		return "", "", "", ErrSubjectNotFound
	}
	for _, g := range grades {
		for _, sec := range g.Sections {
			for _, sub := range sec.Subjects {
				if sub.ID == subjectID {
					return g.Name, sec.Name, sub.Name, nil
				}
			}
		}
	}
	return "", "", "", ErrSectionNotFound
}

// Keys returns the draft's keys sorted, for a stable display.
func (d Draft) Keys() []string {
	keys := make([]string, 0, len(d.Assignments))
	for k := range d.Assignments {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func copyAssignments(m map[string][]string) map[string][]string {
	out := make(map[string][]string, len(m))
	for k, v := range m {
		out[k] = append(make([]string, 0, len(v)), v...)
	}
	return out
}
