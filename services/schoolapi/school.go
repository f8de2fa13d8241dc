package schoolapi

import (
	"context"
	"net/url"

	"github.com/sendgrid/rest"

	"github.com/edudesk/portal/core/dashboard"
	"github.com/edudesk/portal/core/school"
)

// School is the API of one school: every path lives under /schools/{id}.
type School struct {
	client *Client
	id     string
}

var _ dashboard.Backend = (*School)(nil)

func (s *School) ID() string { return s.id }

func (s *School) path(parts ...string) string {
	p := "/schools/" + url.PathEscape(s.id)
	for _, part := range parts {
		p += "/" + part
	}
	return p
}

func (s *School) Dashboard(ctx context.Context) (school.Dashboard, error) {
	var dash school.Dashboard
	err := s.client.do(ctx, rest.Get, s.path("dashboard"), nil, nil, &dash)
	return dash, err
}

// Tutors returns the tutors of the school; the simple list only carries IDs and names.
func (s *School) Tutors(ctx context.Context, simple bool) ([]school.Tutor, error) {
	var query map[string]string
	if simple {
		query = map[string]string{"simple": "true"}
	}
	var tutors []school.Tutor
	err := s.client.do(ctx, rest.Get, s.path("tutors"), query, nil, &tutors)
	return tutors, err
}

func (s *School) CreateTutor(ctx context.Context, in school.TutorInput) (school.CreatedTutor, error) {
	var created school.CreatedTutor
	err := s.client.do(ctx, rest.Post, s.path("tutors"), nil, in, &created)
	return created, err
}

func (s *School) UpdateTutor(ctx context.Context, tutorID string, in school.TutorInput) error {
	return s.client.do(ctx, rest.Put, s.path("tutors", url.PathEscape(tutorID)), nil, in, nil)
}

func (s *School) DeleteTutor(ctx context.Context, tutorID string) error {
	return s.client.do(ctx, rest.Delete, s.path("tutors", url.PathEscape(tutorID)), nil, nil, nil)
}

func (s *School) CreateGrade(ctx context.Context, in school.NewGrade) error {
	return s.client.do(ctx, rest.Post, s.path("grades"), nil, in, nil)
}

func (s *School) RenameGrade(ctx context.Context, gradeID, name string) error {
	return s.client.do(ctx, rest.Put, s.path("grades", url.PathEscape(gradeID)), nil, school.RenameGrade{Name: name}, nil)
}

func (s *School) DeleteGrade(ctx context.Context, gradeID string) error {
	return s.client.do(ctx, rest.Delete, s.path("grades", url.PathEscape(gradeID)), nil, nil, nil)
}

func (s *School) AddSection(ctx context.Context, gradeID string, in school.SectionInput) error {
	return s.client.do(ctx, rest.Post, s.path("grades", url.PathEscape(gradeID), "sections"), nil, in, nil)
}

func (s *School) DeleteSection(ctx context.Context, sectionID string) error {
	return s.client.do(ctx, rest.Delete, s.path("grades", "sections", url.PathEscape(sectionID)), nil, nil, nil)
}

func (s *School) ReplaceSectionSubjects(ctx context.Context, sectionID string, subjects []string) error {
	if subjects == nil {
		subjects = []string{}
	}
	in := school.SectionSubjects{Subjects: subjects}
	return s.client.do(ctx, rest.Put, s.path("grades", "sections", url.PathEscape(sectionID), "subjects"), nil, in, nil)
}

func (s *School) AddSectionSubject(ctx context.Context, sectionID, name string) error {
	in := school.NewSubject{Name: name}
	return s.client.do(ctx, rest.Post, s.path("grades", "sections", url.PathEscape(sectionID), "subjects"), nil, in, nil)
}

func (s *School) DeleteSectionSubject(ctx context.Context, subjectID string) error {
	return s.client.do(ctx, rest.Delete, s.path("grades", "section-subjects", url.PathEscape(subjectID)), nil, nil, nil)
}

func (s *School) Assignments(ctx context.Context) ([]school.Assignment, error) {
	var assignments []school.Assignment
	err := s.client.do(ctx, rest.Get, s.path("assignments"), nil, nil, &assignments)
	return assignments, err
}

func (s *School) CreateAssignment(ctx context.Context, in school.AssignmentInput) error {
	return s.client.do(ctx, rest.Post, s.path("assignments"), nil, in, nil)
}

// ReplaceAssignment overwrites the whole record of in.TutorID.
func (s *School) ReplaceAssignment(ctx context.Context, in school.AssignmentInput) error {
	return s.client.do(ctx, rest.Put, s.path("assignments"), nil, in, nil)
}

func (s *School) DeleteAssignment(ctx context.Context, assignmentID string) error {
	return s.client.do(ctx, rest.Delete, s.path("assignments", url.PathEscape(assignmentID)), nil, nil, nil)
}

func (s *School) DeleteTutorAssignments(ctx context.Context, tutorID string) error {
	return s.client.do(ctx, rest.Delete, s.path("assignments", "tutor", url.PathEscape(tutorID)), nil, nil, nil)
}
