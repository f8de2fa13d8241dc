package dashboard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/edudesk/portal/core"
	"github.com/edudesk/portal/core/school"
)

func TestLoader_Load(t *testing.T) {
	defaults := []string{"Art"}

	tests := []struct {
		name            string
		setup           func(b *fakeBackend)
		wantErr         bool
		wantTutors      []school.Tutor
		wantAssignments int
		wantSubjects    []string
		wantCalls       []string
	}{
		{
			name:            "full load",
			wantTutors:      newFakeBackend().tutors,
			wantAssignments: 1,
			wantSubjects:    []string{"English", "Maths"},
			wantCalls:       []string{"GET dashboard", "GET tutors", "GET assignments"},
		},
		{
			name:            "tutors fall back to the simple list",
			setup:           func(b *fakeBackend) { b.tutorsErr = errNetwork },
			wantTutors:      []school.Tutor{{ID: "t1", Name: "Jane"}},
			wantAssignments: 1,
			wantSubjects:    []string{"English", "Maths"},
			wantCalls:       []string{"GET dashboard", "GET tutors", "GET tutors?simple=true", "GET assignments"},
		},
		{
			name: "tutors keep the dashboard summary",
			setup: func(b *fakeBackend) {
				b.tutorsErr = errNetwork
				b.simpleErr = errNetwork
			},
			wantTutors:      []school.Tutor{{ID: "t1", Name: "Jane"}},
			wantAssignments: 1,
			wantSubjects:    []string{"English", "Maths"},
			wantCalls:       []string{"GET dashboard", "GET tutors", "GET tutors?simple=true", "GET assignments"},
		},
		{
			name: "assignments fail silently",
			setup: func(b *fakeBackend) {
				b.assignmentsErr = errNetwork
				b.dash.Subjects = nil
			},
			wantTutors:   newFakeBackend().tutors,
			wantSubjects: defaults,
			wantCalls:    []string{"GET dashboard", "GET tutors", "GET assignments"},
		},
		{
			name:      "dashboard failure",
			setup:     func(b *fakeBackend) { b.dashErr = messageError("School not found") },
			wantErr:   true,
			wantCalls: []string{"GET dashboard"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newFakeBackend()
			if tt.setup != nil {
				tt.setup(b)
			}
			snap, err := NewLoader(b, defaults, nopLogger{}).Load(context.Background())
			assert.Equal(t, tt.wantCalls, b.Calls())
			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, LoadFailure, core.UserMessage(err, ""))
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, "Green Hill", snap.School.Name)
			assert.Equal(t, tt.wantTutors, snap.Tutors)
			assert.Len(t, snap.Assignments, tt.wantAssignments)
			assert.NotNil(t, snap.Assignments)
			assert.Equal(t, tt.wantSubjects, snap.Subjects)
			assert.False(t, snap.LoadedAt.IsZero())
		})
	}
}

func TestSnapshot_lookups(t *testing.T) {
	b := newFakeBackend()
	snap, err := NewLoader(b, nil, nopLogger{}).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	g, sec, ok := snap.Section("s1")
	assert.True(t, ok)
	assert.Equal(t, "Grade 1", g.Name)
	assert.Equal(t, "A", sec.Name)

	_, _, ok = snap.Section("nope")
	assert.False(t, ok)

	a, ok := snap.Assignment("a1")
	assert.True(t, ok)
	assert.Equal(t, "t1", a.TutorID)

	tut, ok := snap.Tutor("t2")
	assert.True(t, ok)
	assert.Equal(t, "John", tut.Name)
}
