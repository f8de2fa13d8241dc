package grade

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/edudesk/portal/core"
	"github.com/edudesk/portal/core/school"
)

// Backend is the part of the school API the grade editor talks to.
type Backend interface {
	CreateGrade(ctx context.Context, grade school.NewGrade) error
	RenameGrade(ctx context.Context, gradeID, name string) error
	AddSection(ctx context.Context, gradeID string, section school.SectionInput) error
	DeleteSection(ctx context.Context, sectionID string) error
	ReplaceSectionSubjects(ctx context.Context, sectionID string, subjects []string) error
}

type StepKind int

const (
	StepCreateGrade StepKind = iota
	StepRenameGrade
	StepDeleteSection
	StepAddSection
	StepReplaceSubjects
)

// GenericFailure is shown when a failed call carries no message of its own.
const GenericFailure = "Operation failed. Please try again."

var stepFallbacks = map[StepKind]string{
	StepCreateGrade:     GenericFailure,
	StepRenameGrade:     GenericFailure,
	StepDeleteSection:   "Failed to delete section",
	StepAddSection:      "Failed to create section",
	StepReplaceSubjects: "Failed to update section subjects",
}

// Step is a single backend call of a Plan.
type Step struct {
	Kind      StepKind
	GradeID   string
	SectionID string
	Name      string // grade name (create, rename) or section name
	NewGrade  school.NewGrade
	Subjects  []string
}

func (s Step) String() string {
	switch s.Kind {
	case StepCreateGrade:
		parts := make([]string, 0, len(s.NewGrade.Sections))
		for _, sec := range s.NewGrade.Sections {
			parts = append(parts, fmt.Sprintf("%s[%s]", sec.Name, strings.Join(sec.Subjects, ", ")))
		}
		return fmt.Sprintf("create grade %q with sections %s", s.Name, strings.Join(parts, " "))
	case StepRenameGrade:
		return fmt.Sprintf("rename grade %s to %q", s.GradeID, s.Name)
	case StepDeleteSection:
		return fmt.Sprintf("delete section %s (%s)", s.Name, s.SectionID)
	case StepAddSection:
		return fmt.Sprintf("add section %s [%s]", s.Name, strings.Join(s.Subjects, ", "))
	case StepReplaceSubjects:
		return fmt.Sprintf("set subjects of section %s (%s) to [%s]", s.Name, s.SectionID, strings.Join(s.Subjects, ", "))
	default:
		return "unknown step"
	}
}

func (s Step) run(ctx context.Context, b Backend) error {
	switch s.Kind {
	case StepCreateGrade:
		return b.CreateGrade(ctx, s.NewGrade)
	case StepRenameGrade:
		return b.RenameGrade(ctx, s.GradeID, s.Name)
	case StepDeleteSection:
		return b.DeleteSection(ctx, s.SectionID)
	case StepAddSection:
		return b.AddSection(ctx, s.GradeID, school.SectionInput{Name: s.Name, Subjects: s.Subjects})
	case StepReplaceSubjects:
		return b.ReplaceSectionSubjects(ctx, s.SectionID, s.Subjects)
	default:
		return errors.Errorf("unknown step kind %d", s.Kind)
	}
}

// Plan is the ordered list of calls converging the backend to a Draft.
type Plan []Step

// Plan computes the calls needed to save the draft.
// A new grade is created in a single call; an existing one is renamed when its name changed,
// then each section is deleted, created or has its subjects replaced, in draft order.
func (d Draft) Plan() (Plan, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	name := core.CleanString(d.Name)

	if !d.IsEditing() {
		ng := school.NewGrade{GradeName: name}
		for _, sec := range d.ActiveSections() {
			ng.Sections = append(ng.Sections, school.SectionInput{Name: sec.Name, Subjects: subjectsOf(sec)})
		}
		return Plan{{Kind: StepCreateGrade, Name: name, NewGrade: ng}}, nil
	}

	var plan Plan
	if name != d.loadedName {
		plan = append(plan, Step{Kind: StepRenameGrade, GradeID: d.GradeID, Name: name})
	}
	for _, sec := range d.Sections {
		switch {
		case sec.ToDelete && sec.ID != "":
			plan = append(plan, Step{Kind: StepDeleteSection, GradeID: d.GradeID, SectionID: sec.ID, Name: sec.Name})
		case sec.ToDelete:
			// never persisted, nothing to do
		case sec.IsNew || sec.ID == "":
			plan = append(plan, Step{Kind: StepAddSection, GradeID: d.GradeID, Name: sec.Name, Subjects: subjectsOf(sec)})
		default:
			plan = append(plan, Step{Kind: StepReplaceSubjects, GradeID: d.GradeID, SectionID: sec.ID, Name: sec.Name, Subjects: subjectsOf(sec)})
		}
	}
	return plan, nil
}

func subjectsOf(sec SectionDraft) []string {
	return append(make([]string, 0, len(sec.Subjects)), sec.Subjects...)
}

// StepError reports the step that aborted a save.
// Steps before it were applied and are not rolled back.
type StepError struct {
	Step    Step
	Applied int // number of steps applied before the failure
	Err     error
	message string
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

// UserMessage is the backend message of the failure, or a message describing the failed step.
func (e *StepError) UserMessage() string { return e.message }

func (e *StepError) Unwrap() error { return e.Err }

// Execute runs the plan's steps one after the other. The first failure aborts the remaining steps.
func (p Plan) Execute(ctx context.Context, b Backend) error {
	for i, step := range p {
		if err := step.run(ctx, b); err != nil {
			return &StepError{
				Step:    step,
				Applied: i,
				Err:     err,
				message: core.UserMessage(err, stepFallbacks[step.Kind]),
			}
		}
	}
	return nil
}

// Save validates the draft and converges the backend to it.
// On success the returned draft is a fresh NewDraft; on failure the given draft is returned as is.
func Save(ctx context.Context, b Backend, d Draft) (Draft, error) {
	plan, err := d.Plan()
	if err != nil {
		return d, err
	}
	if err = plan.Execute(ctx, b); err != nil {
		return d, err
	}
	return NewDraft(), nil
}
