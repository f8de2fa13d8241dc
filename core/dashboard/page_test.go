package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/edudesk/portal/core/assignment"
	"github.com/edudesk/portal/core/grade"
	"github.com/edudesk/portal/core/tutor"
)

func setup(t *testing.T, capability Capability) (*Page, *fakeBackend) {
	b := newFakeBackend()
	page := NewPage(b, Shell{SchoolID: "sch1", Capability: capability}, nil, nopLogger{})
	if err := page.Reload(context.Background()); err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	b.calls = nil
	return page, b
}

func TestPage_gradeEditorLifecycle(t *testing.T) {
	ctx := context.Background()
	page, b := setup(t, CanEdit)

	assert.Equal(t, ErrEditorClosed, page.SaveGrade(ctx))
	assert.Equal(t, ErrEditorClosed, page.EditGrade(func(d grade.Draft) (grade.Draft, error) { return d, nil }))

	assert.NoError(t, page.OpenGradeEditor("g1"))
	ed := page.GradeEditor()
	assert.Equal(t, Open, ed.State)
	assert.Equal(t, "Grade 1", ed.Draft.Name)

	// rejected transition: editor keeps its draft and shows the error
	err := page.EditGrade(func(d grade.Draft) (grade.Draft, error) { return d.RemoveSection(0) })
	assert.Equal(t, grade.ErrLastSection, err)
	assert.Equal(t, "At least one section is required", page.GradeEditor().Err)
	assert.Len(t, page.GradeEditor().Draft.Sections, 1)

	assert.NoError(t, page.EditGrade(func(d grade.Draft) (grade.Draft, error) { return d.AddSection() }))
	assert.Equal(t, "", page.GradeEditor().Err)

	// backend failure: back to open with the backend message
	b.failWith = messageError("Section B already exists")
	assert.Error(t, page.SaveGrade(ctx))
	ed = page.GradeEditor()
	assert.Equal(t, Open, ed.State)
	assert.Equal(t, "Section B already exists", ed.Err)
	assert.False(t, page.Busy())

	// success: closed, reloaded and notified
	b.failWith = nil
	b.calls = nil
	assert.NoError(t, page.SaveGrade(ctx))
	assert.Equal(t, Closed, page.GradeEditor().State)
	assert.Equal(t, GradeEditor{}, page.GradeEditor())
	assert.Equal(t, []string{
		"PUT sections/s1/subjects",
		"POST grades/g1/sections B",
		"GET dashboard", "GET tutors", "GET assignments",
	}, b.Calls())
	assert.Equal(t, []Notice{{Kind: Success, Message: "Class updated successfully"}}, page.Notices())
	assert.Empty(t, page.Notices(), "notices are drained")
}

func TestPage_gradeValidationMakesNoCall(t *testing.T) {
	ctx := context.Background()
	page, b := setup(t, CanEdit)

	assert.NoError(t, page.OpenGradeEditor(""))
	assert.Equal(t, grade.ErrNameRequired, page.SaveGrade(ctx))
	assert.Equal(t, "Please enter a class name", page.GradeEditor().Err)
	assert.Empty(t, b.Calls())

	assert.Equal(t, ErrGradeNotFound, page.OpenGradeEditor("nope"))
}

func TestPage_readOnly(t *testing.T) {
	ctx := context.Background()
	page, b := setup(t, ReadOnly)

	assert.Equal(t, ErrReadOnly, page.OpenGradeEditor(""))
	assert.Equal(t, ErrReadOnly, page.OpenTutorEditor(""))
	assert.Equal(t, ErrReadOnly, page.OpenAssignmentEditor(""))
	assert.Equal(t, ErrReadOnly, page.DeleteGrade(ctx, "g1"))
	assert.Equal(t, ErrReadOnly, page.AddSubject(ctx, "s1", "Art"))
	assert.Empty(t, b.Calls())

	assert.NoError(t, page.Reload(ctx), "read-only pages still load")
	assert.Equal(t, "Green Hill", page.Snapshot().School.Name)
}

func TestPage_busyRejectsOverlappingSubmits(t *testing.T) {
	ctx := context.Background()
	page, b := setup(t, CanEdit)
	b.gate = make(chan struct{})

	assert.NoError(t, page.OpenTutorEditor("t1"))
	done := make(chan error)
	go func() { done <- page.SaveTutor(ctx) }()

	assert.Eventually(t, page.Busy, time.Second, time.Millisecond)
	assert.Equal(t, Submitting, page.TutorEditor().State)
	assert.Equal(t, ErrBusy, page.SaveTutor(ctx))
	assert.Equal(t, ErrBusy, page.DeleteTutor(ctx, "t2"))
	assert.Equal(t, ErrBusy, page.CloseTutorEditor())
	assert.Equal(t, ErrBusy, page.EditTutor(func(d tutor.Draft) tutor.Draft { return d }))

	close(b.gate)
	assert.NoError(t, <-done)
	assert.False(t, page.Busy())
	assert.Equal(t, Closed, page.TutorEditor().State)
	assert.Equal(t, "PUT tutors/t1", b.Calls()[0])
}

func TestPage_SaveTutor(t *testing.T) {
	ctx := context.Background()
	page, b := setup(t, CanEdit)

	assert.NoError(t, page.OpenTutorEditor(""))
	assert.Error(t, page.SaveTutor(ctx))
	assert.Equal(t, "Please enter tutor name", page.TutorEditor().Err)
	assert.Empty(t, b.Calls())

	assert.NoError(t, page.EditTutor(func(d tutor.Draft) tutor.Draft {
		d.Name, d.Email, d.Phone = "Mary", "mary@school.test", "777"
		return d
	}))
	assert.NoError(t, page.SaveTutor(ctx))
	assert.Equal(t, "POST tutors mary@school.test", b.Calls()[0])
	assert.Equal(t, []Notice{{Kind: Success, Message: "Tutor created! Password: tmp-pwd"}}, page.Notices())
	assert.Equal(t, TutorEditor{}, page.TutorEditor(), "the temporary password is not kept")
}

func TestPage_assignmentEditor(t *testing.T) {
	ctx := context.Background()
	page, b := setup(t, CanEdit)

	assert.NoError(t, page.OpenAssignmentEditor(""))
	ed := page.AssignmentEditor()
	assert.Len(t, ed.Tutors, 1, "tutors holding a record are not selectable")
	assert.Equal(t, "t2", ed.Tutors[0].ID)

	assert.Equal(t, assignment.ErrTutorRequired, page.SaveAssignment(ctx))
	assert.Equal(t, "Please select a tutor", page.AssignmentEditor().Err)

	assert.NoError(t, page.EditAssignment(func(d assignment.Draft) assignment.Draft {
		return d.SetTutor("t2").SetClassTutor("Grade 1", "A")
	}))
	assert.NoError(t, page.SaveAssignment(ctx))
	assert.Equal(t, "POST assignments t2", b.Calls()[0])

	assert.NoError(t, page.OpenAssignmentEditor("a1"))
	assert.Len(t, page.AssignmentEditor().Tutors, 2, "editing keeps every tutor selectable")
	b.calls = nil
	assert.NoError(t, page.SaveAssignment(ctx))
	assert.Equal(t, "PUT assignments t1", b.Calls()[0])
	notices := page.Notices()
	assert.Equal(t, Notice{Kind: Success, Message: "Assignment updated successfully"}, notices[len(notices)-1])
}

func TestPage_actions(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		action     func(p *Page) error
		failWith   error
		wantCall   string
		wantNotice Notice
	}{
		{
			name: "delete grade", action: func(p *Page) error { return p.DeleteGrade(ctx, "g1") },
			wantCall: "DELETE grades/g1", wantNotice: Notice{Success, "Class deleted successfully"},
		},
		{
			name: "delete tutor fails", action: func(p *Page) error { return p.DeleteTutor(ctx, "t1") },
			failWith: errNetwork, wantCall: "DELETE tutors/t1", wantNotice: Notice{Failure, "Delete failed"},
		},
		{
			name: "delete assignment", action: func(p *Page) error { return p.DeleteAssignment(ctx, "a1") },
			wantCall: "DELETE assignments/a1", wantNotice: Notice{Success, "Assignment deleted"},
		},
		{
			name: "remove tutor assignments", action: func(p *Page) error { return p.RemoveTutorAssignments(ctx, "t1") },
			wantCall: "DELETE assignments/tutor/t1", wantNotice: Notice{Success, "Assignments removed successfully"},
		},
		{
			name: "add subject", action: func(p *Page) error { return p.AddSubject(ctx, "s1", " Art ") },
			wantCall: "POST sections/s1/subjects Art", wantNotice: Notice{Success, "Subject added"},
		},
		{
			name: "add blank subject", action: func(p *Page) error { return p.AddSubject(ctx, "s1", "  ") },
			wantNotice: Notice{Failure, "Please enter a subject name"},
		},
		{
			name: "remove subject fails with a message", action: func(p *Page) error { return p.RemoveSubject(ctx, "ss1") },
			failWith: messageError("Subject is in use"), wantCall: "DELETE section-subjects/ss1",
			wantNotice: Notice{Failure, "Subject is in use"},
		},
		{
			name: "assign subject tutor", action: func(p *Page) error { return p.AssignSubjectTutor(ctx, "ss1", "t2") },
			wantCall: "POST assignments t2", wantNotice: Notice{Success, "Tutor assigned to subject"},
		},
		{
			name: "assign unknown subject", action: func(p *Page) error { return p.AssignSubjectTutor(ctx, "nope", "t2") },
			wantNotice: Notice{Failure, "Section not found"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, b := setup(t, CanEdit)
			b.failWith = tt.failWith
			err := tt.action(page)

			calls := b.Calls()
			if tt.wantCall == "" {
				assert.Empty(t, calls)
			} else {
				assert.Equal(t, tt.wantCall, calls[0])
			}
			if tt.wantNotice.Kind == Success {
				assert.NoError(t, err)
				assert.Contains(t, calls, "GET dashboard", "success reloads the snapshot")
			} else {
				assert.Error(t, err)
				assert.NotContains(t, calls, "GET dashboard")
			}
			assert.Equal(t, []Notice{tt.wantNotice}, page.Notices())
		})
	}
}

func TestPage_reloadFailureKeepsSnapshot(t *testing.T) {
	ctx := context.Background()
	page, b := setup(t, CanEdit)

	b.dashErr = errNetwork
	assert.Error(t, page.Reload(ctx))
	assert.Equal(t, "Green Hill", page.Snapshot().School.Name)
	assert.Equal(t, []Notice{{Kind: Failure, Message: LoadFailure}}, page.Notices())
}
