package echoapi

import (
	"github.com/go-playground/validator/v10"

	"github.com/edudesk/portal/core/school"
)

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	RefreshRequest struct {
		RefreshToken string `json:"refreshToken" validate:"required"`
	}

	TutorRequest struct {
		Name  string `json:"name" validate:"required,notblank,max=100"`
		Email string `json:"email" validate:"required,email"`
		Phone string `json:"phone" validate:"required,notblank,max=30"`
	}

	SectionRequest struct {
		Name     string   `json:"name" validate:"required,notblank,max=20"`
		Subjects []string `json:"subjects" validate:"dive,notblank"`
	}

	GradeRequest struct {
		GradeName string           `json:"gradeName" validate:"required,notblank,max=50"`
		Sections  []SectionRequest `json:"sections" validate:"required,min=1,dive"`
	}

	RenameRequest struct {
		Name string `json:"name" validate:"required,notblank,max=50"`
	}

	SubjectsRequest struct {
		Subjects []string `json:"subjects" validate:"dive,notblank"`
	}

	SubjectRequest struct {
		Name string `json:"name" validate:"required,notblank,max=50"`
	}

	AssignmentRequest struct {
		TutorID      string              `json:"tutorId" validate:"required"`
		Assignments  map[string][]string `json:"assignments" validate:"dive,keys,notblank,endkeys,dive,notblank"`
		ClassGrade   string              `json:"classGrade" validate:"required_with=ClassSection"`
		ClassSection string              `json:"classSection" validate:"required_with=ClassGrade"`
	}

	// SuccessResponse is the body of mutations that return nothing else.
	SuccessResponse struct {
		Success bool `json:"success"`
	}
)

func (r LoginRequest) Validate(validate *validator.Validate) error   { return validate.Struct(r) }
func (r RefreshRequest) Validate(validate *validator.Validate) error { return validate.Struct(r) }
func (r TutorRequest) Validate(validate *validator.Validate) error   { return validate.Struct(r) }
func (r GradeRequest) Validate(validate *validator.Validate) error   { return validate.Struct(r) }
func (r SectionRequest) Validate(validate *validator.Validate) error { return validate.Struct(r) }
func (r RenameRequest) Validate(validate *validator.Validate) error  { return validate.Struct(r) }
func (r SubjectRequest) Validate(validate *validator.Validate) error { return validate.Struct(r) }

func (r SubjectsRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(r)
}

func (r AssignmentRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(r)
}

func (r TutorRequest) input() school.TutorInput {
	return school.TutorInput{Name: r.Name, Email: r.Email, Phone: r.Phone}
}

func (r SectionRequest) input() school.SectionInput {
	return school.SectionInput{Name: r.Name, Subjects: r.Subjects}
}

func (r GradeRequest) input() school.NewGrade {
	ng := school.NewGrade{GradeName: r.GradeName, Sections: make([]school.SectionInput, 0, len(r.Sections))}
	for _, sec := range r.Sections {
		ng.Sections = append(ng.Sections, sec.input())
	}
	return ng
}

func (r AssignmentRequest) input() school.AssignmentInput {
	return school.AssignmentInput{
		TutorID:      r.TutorID,
		Assignments:  r.Assignments,
		ClassGrade:   r.ClassGrade,
		ClassSection: r.ClassSection,
	}
}
