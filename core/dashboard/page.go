package dashboard

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"

	"github.com/edudesk/portal/core"
	"github.com/edudesk/portal/core/assignment"
	"github.com/edudesk/portal/core/grade"
	"github.com/edudesk/portal/core/school"
	"github.com/edudesk/portal/core/tutor"
)

var (
	ErrBusy         = errors.New("Another operation is in progress")
	ErrReadOnly     = errors.New("You are not allowed to modify this school")
	ErrEditorClosed = errors.New("Editor is not open")

	ErrGradeNotFound      = core.NewValidationErrorf("Class not found")
	ErrTutorNotFound      = core.NewValidationErrorf("Tutor not found")
	ErrAssignmentNotFound = core.NewValidationErrorf("Assignment not found")
	ErrSubjectNameBlank   = core.NewValidationErrorf("Please enter a subject name")
)

const (
	deleteFailure     = "Delete failed"
	actionFailure     = "Failed"
	assignmentFailure = "Assignment failed. Please try again."
)

// Backend is everything a dashboard page calls.
type Backend interface {
	Source
	grade.Backend
	tutor.Backend
	assignment.Backend

	DeleteGrade(ctx context.Context, gradeID string) error
	DeleteTutor(ctx context.Context, tutorID string) error
	DeleteAssignment(ctx context.Context, assignmentID string) error
	DeleteTutorAssignments(ctx context.Context, tutorID string) error
	AddSectionSubject(ctx context.Context, sectionID, name string) error
	DeleteSectionSubject(ctx context.Context, subjectID string) error
}

// EditorState is the state of an editor: Closed -> Open -> Submitting -> Closed or back to Open with an error.
type EditorState int

const (
	Closed EditorState = iota
	Open
	Submitting
)

func (s EditorState) String() string {
	switch s {
	case Open:
		return "open"
	case Submitting:
		return "submitting"
	default:
		return "closed"
	}
}

type editor struct {
	State EditorState
	Err   string // message of the last failed submit
}

type GradeEditor struct {
	editor
	Loaded school.Grade // zero when creating
	Draft  grade.Draft
}

type TutorEditor struct {
	editor
	Draft tutor.Draft
}

type AssignmentEditor struct {
	editor
	Draft  assignment.Draft
	Tutors []school.Tutor // tutors the draft may be given to
}

type NoticeKind int

const (
	Success NoticeKind = iota
	Failure
	Info
)

func (k NoticeKind) String() string {
	switch k {
	case Success:
		return "success"
	case Failure:
		return "error"
	default:
		return "info"
	}
}

// Notice is a message queued for the user.
type Notice struct {
	Kind    NoticeKind
	Message string
}

// Page is the state of a school's dashboard page.
// All methods are safe for concurrent use; one submit or action runs at a time.
type Page struct {
	backend Backend
	loader  *Loader
	shell   Shell
	log     core.Logger

	mu         sync.Mutex
	busy       bool
	snapshot   Snapshot
	grade      GradeEditor
	tutor      TutorEditor
	assignment AssignmentEditor
	notices    []Notice
}

func NewPage(b Backend, shell Shell, defaultSubjects []string, logger core.Logger) *Page {
	return &Page{
		backend: b,
		loader:  NewLoader(b, defaultSubjects, logger),
		shell:   shell,
		log:     logger,
	}
}

func (p *Page) Shell() Shell { return p.shell }

func (p *Page) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshot
}

func (p *Page) GradeEditor() GradeEditor {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.grade
}

func (p *Page) TutorEditor() TutorEditor {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tutor
}

func (p *Page) AssignmentEditor() AssignmentEditor {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.assignment
}

// Busy reports whether a submit or action is in flight.
func (p *Page) Busy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.busy
}

// Notices returns and clears the queued notices.
func (p *Page) Notices() []Notice {
	p.mu.Lock()
	defer p.mu.Unlock()
	notices := p.notices
	p.notices = nil
	return notices
}

// notify must be called with p.mu held.
func (p *Page) notify(kind NoticeKind, msg string) {
	p.notices = append(p.notices, Notice{Kind: kind, Message: msg})
}

// Reload replaces the snapshot. On failure the previous snapshot is kept.
func (p *Page) Reload(ctx context.Context) error {
	snap, err := p.loader.Load(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.notify(Failure, core.UserMessage(err, LoadFailure))
		p.log.Error("dashboard: reload failed", err, map[string]interface{}{"school": p.shell.SchoolID})
		return err
	}
	p.snapshot = snap
	return nil
}

// checkOpenable must be called with p.mu held.
func (p *Page) checkOpenable(ed *editor) error {
	if p.shell.Capability != CanEdit {
		return ErrReadOnly
	}
	if ed.State == Submitting {
		return ErrBusy
	}
	return nil
}

// checkEditable must be called with p.mu held.
func checkEditable(ed *editor) error {
	switch ed.State {
	case Closed:
		return ErrEditorClosed
	case Submitting:
		return ErrBusy
	}
	return nil
}

// begin must be called with p.mu held.
func (p *Page) begin(ed *editor) error {
	if p.shell.Capability != CanEdit {
		return ErrReadOnly
	}
	if p.busy {
		return ErrBusy
	}
	if err := checkEditable(ed); err != nil {
		return err
	}
	p.busy = true
	ed.State = Submitting
	ed.Err = ""
	return nil
}

// finish ends a submit started by begin. On success the editor is closed, `closed` runs
// under the lock and the snapshot is reloaded; on failure the editor stays open with the error.
func (p *Page) finish(ctx context.Context, ed *editor, err error, fallback, success string, closed func()) error {
	p.mu.Lock()
	p.busy = false
	if err != nil {
		ed.State = Open
		ed.Err = core.UserMessage(err, fallback)
		p.mu.Unlock()
		if !core.IsValidationError(err) {
			p.log.Error("dashboard: submit failed", err)
		}
		return err
	}
	ed.State = Closed
	ed.Err = ""
	closed()
	p.notify(Success, success)
	p.mu.Unlock()

	_ = p.Reload(ctx)
	return nil
}

// act runs a direct action: no editor, the outcome is reported as a notice.
func (p *Page) act(ctx context.Context, call func(context.Context) error, fallback, success string) error {
	p.mu.Lock()
	if p.shell.Capability != CanEdit {
		p.mu.Unlock()
		return ErrReadOnly
	}
	if p.busy {
		p.mu.Unlock()
		return ErrBusy
	}
	p.busy = true
	p.mu.Unlock()

	err := call(ctx)

	p.mu.Lock()
	p.busy = false
	if err != nil {
		p.notify(Failure, core.UserMessage(err, fallback))
		p.mu.Unlock()
		if !core.IsValidationError(err) {
			p.log.Error("dashboard: action failed", err)
		}
		return err
	}
	p.notify(Success, success)
	p.mu.Unlock()

	_ = p.Reload(ctx)
	return nil
}

// Class editor

// OpenGradeEditor opens the class editor on the loaded grade `gradeID`, or on a new grade when it is empty.
func (p *Page) OpenGradeEditor(gradeID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.checkOpenable(&p.grade.editor); err != nil {
		return err
	}
	ed := GradeEditor{editor: editor{State: Open}, Draft: grade.NewDraft()}
	if gradeID != "" {
		g, ok := p.snapshot.Grade(gradeID)
		if !ok {
			return ErrGradeNotFound
		}
		ed.Loaded = g
		ed.Draft = grade.DraftFrom(g)
	}
	p.grade = ed
	return nil
}

// EditGrade applies a draft transition. A rejected transition leaves the draft as is and sets the editor's error.
func (p *Page) EditGrade(fn func(grade.Draft) (grade.Draft, error)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := checkEditable(&p.grade.editor); err != nil {
		return err
	}
	d, err := fn(p.grade.Draft)
	if err != nil {
		p.grade.Err = core.UserMessage(err, err.Error())
		return err
	}
	p.grade.Draft = d
	p.grade.Err = ""
	return nil
}

// PreviewGrade describes the calls SaveGrade would make.
func (p *Page) PreviewGrade() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := checkEditable(&p.grade.editor); err != nil {
		return "", err
	}
	return grade.Preview(p.grade.Loaded, p.grade.Draft)
}

func (p *Page) CloseGradeEditor() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.grade.State == Submitting {
		return ErrBusy
	}
	p.grade = GradeEditor{}
	return nil
}

// SaveGrade saves the class editor's draft.
func (p *Page) SaveGrade(ctx context.Context) error {
	p.mu.Lock()
	if err := p.begin(&p.grade.editor); err != nil {
		p.mu.Unlock()
		return err
	}
	draft := p.grade.Draft
	p.mu.Unlock()

	_, err := grade.Save(ctx, p.backend, draft)
	success := "Class created successfully"
	if draft.IsEditing() {
		success = "Class updated successfully"
	}
	return p.finish(ctx, &p.grade.editor, err, grade.GenericFailure, success, func() {
		p.grade = GradeEditor{}
	})
}

// Tutor editor

// OpenTutorEditor opens the tutor editor on the loaded tutor `tutorID`, or on a new tutor when it is empty.
func (p *Page) OpenTutorEditor(tutorID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.checkOpenable(&p.tutor.editor); err != nil {
		return err
	}
	ed := TutorEditor{editor: editor{State: Open}, Draft: tutor.NewDraft()}
	if tutorID != "" {
		t, ok := p.snapshot.Tutor(tutorID)
		if !ok {
			return ErrTutorNotFound
		}
		ed.Draft = tutor.DraftFrom(t)
	}
	p.tutor = ed
	return nil
}

// EditTutor replaces the tutor editor's draft fields, keeping its ID.
func (p *Page) EditTutor(fn func(tutor.Draft) tutor.Draft) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := checkEditable(&p.tutor.editor); err != nil {
		return err
	}
	d := fn(p.tutor.Draft)
	d.ID = p.tutor.Draft.ID
	p.tutor.Draft = d
	return nil
}

func (p *Page) CloseTutorEditor() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.tutor.State == Submitting {
		return ErrBusy
	}
	p.tutor = TutorEditor{}
	return nil
}

// SaveTutor saves the tutor editor's draft. On creation the temporary password, when the backend
// returns one, is only ever shown in the success notice.
func (p *Page) SaveTutor(ctx context.Context) error {
	p.mu.Lock()
	if err := p.begin(&p.tutor.editor); err != nil {
		p.mu.Unlock()
		return err
	}
	draft := p.tutor.Draft
	p.mu.Unlock()

	created, err := tutor.Save(ctx, p.backend, draft)
	success := "Tutor updated successfully"
	if !draft.IsEditing() {
		pwd := created.TemporaryPassword
		if pwd == "" {
			pwd = "Check email"
		}
		success = fmt.Sprintf("Tutor created! Password: %s", pwd)
	}
	return p.finish(ctx, &p.tutor.editor, err, grade.GenericFailure, success, func() {
		p.tutor = TutorEditor{}
	})
}

// Assignment editor

// OpenAssignmentEditor opens the assignment editor on the loaded record `assignmentID`,
// or on a new record when it is empty.
func (p *Page) OpenAssignmentEditor(assignmentID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.checkOpenable(&p.assignment.editor); err != nil {
		return err
	}
	ed := AssignmentEditor{editor: editor{State: Open}, Draft: assignment.NewDraft()}
	if assignmentID != "" {
		a, ok := p.snapshot.Assignment(assignmentID)
		if !ok {
			return ErrAssignmentNotFound
		}
		ed.Draft = assignment.DraftFrom(a)
	}
	ed.Tutors = assignment.SelectableTutors(p.snapshot.Tutors, p.snapshot.Assignments, ed.Draft.IsEditing())
	p.assignment = ed
	return nil
}

// EditAssignment applies a draft transition.
func (p *Page) EditAssignment(fn func(assignment.Draft) assignment.Draft) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := checkEditable(&p.assignment.editor); err != nil {
		return err
	}
	p.assignment.Draft = fn(p.assignment.Draft)
	return nil
}

func (p *Page) CloseAssignmentEditor() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.assignment.State == Submitting {
		return ErrBusy
	}
	p.assignment = AssignmentEditor{}
	return nil
}

// SaveAssignment submits the assignment editor's draft.
func (p *Page) SaveAssignment(ctx context.Context) error {
	p.mu.Lock()
	if err := p.begin(&p.assignment.editor); err != nil {
		p.mu.Unlock()
		return err
	}
	draft := p.assignment.Draft
	p.mu.Unlock()

	err := assignment.Submit(ctx, p.backend, draft)
	success := "Tutor assigned successfully"
	if draft.IsEditing() {
		success = "Assignment updated successfully"
	}
	return p.finish(ctx, &p.assignment.editor, err, assignmentFailure, success, func() {
		p.assignment = AssignmentEditor{}
	})
}

// Direct actions

func (p *Page) DeleteGrade(ctx context.Context, gradeID string) error {
	return p.act(ctx, func(ctx context.Context) error {
		return p.backend.DeleteGrade(ctx, gradeID)
	}, deleteFailure, "Class deleted successfully")
}

func (p *Page) DeleteTutor(ctx context.Context, tutorID string) error {
	return p.act(ctx, func(ctx context.Context) error {
		return p.backend.DeleteTutor(ctx, tutorID)
	}, deleteFailure, "Tutor deleted successfully")
}

func (p *Page) DeleteAssignment(ctx context.Context, assignmentID string) error {
	return p.act(ctx, func(ctx context.Context) error {
		return p.backend.DeleteAssignment(ctx, assignmentID)
	}, deleteFailure, "Assignment deleted")
}

// RemoveTutorAssignments deletes every assignment record of a tutor.
func (p *Page) RemoveTutorAssignments(ctx context.Context, tutorID string) error {
	return p.act(ctx, func(ctx context.Context) error {
		return p.backend.DeleteTutorAssignments(ctx, tutorID)
	}, deleteFailure, "Assignments removed successfully")
}

// AddSubject adds a subject to a section.
func (p *Page) AddSubject(ctx context.Context, sectionID, name string) error {
	name = core.CleanString(name)
	return p.act(ctx, func(ctx context.Context) error {
		if name == "" {
			return ErrSubjectNameBlank
		}
		return p.backend.AddSectionSubject(ctx, sectionID, name)
	}, actionFailure, "Subject added")
}

func (p *Page) RemoveSubject(ctx context.Context, subjectID string) error {
	return p.act(ctx, func(ctx context.Context) error {
		return p.backend.DeleteSectionSubject(ctx, subjectID)
	}, actionFailure, "Subject removed")
}

// AssignSubjectTutor makes a tutor teach the section subject `subjectID`.
func (p *Page) AssignSubjectTutor(ctx context.Context, subjectID, tutorID string) error {
	snap := p.Snapshot()
	return p.act(ctx, func(ctx context.Context) error {
		return assignment.AssignSubjectTutor(ctx, p.backend, snap.Grades, snap.Assignments, subjectID, tutorID)
	}, actionFailure, "Tutor assigned to subject")
}
