// Package tutor implements the tutor editor.
package tutor

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/edudesk/portal/core"
	"github.com/edudesk/portal/core/school"
)

var (
	translator = core.NewTranslator()
	validate   = core.NewValidator(translator)

	nameTag   = "tutorname"
	nameText  = "Please enter tutor name"
	emailTag  = "tutoremail"
	emailText = "Please enter tutor email"
	phoneTag  = "tutorphone"
	phoneText = "Please enter tutor phone"
)

func init() {
	validate.RegisterStructValidation(draftStructValidation, Draft{})
	core.RegisterCustomTranslation(validate, translator, nameTag, nameText)
	core.RegisterCustomTranslation(validate, translator, emailTag, emailText)
	core.RegisterCustomTranslation(validate, translator, phoneTag, phoneText)
}

// Backend is the part of the school API the tutor editor talks to.
type Backend interface {
	CreateTutor(ctx context.Context, tutor school.TutorInput) (school.CreatedTutor, error)
	UpdateTutor(ctx context.Context, tutorID string, tutor school.TutorInput) error
}

// Draft is the local edit state of a tutor. ID is empty when creating one.
type Draft struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone"`
}

// NewDraft returns an empty draft, for creating a tutor.
func NewDraft() Draft { return Draft{} }

// DraftFrom seeds a draft from a persisted tutor.
func DraftFrom(t school.Tutor) Draft {
	return Draft{ID: t.ID, Name: t.Name, Email: t.Email, Phone: t.Phone}
}

func (d Draft) IsEditing() bool { return d.ID != "" }

func (d Draft) clean() Draft {
	d.Name = core.CleanString(d.Name)
	d.Email = core.CleanString(d.Email, true /* lower */)
	d.Phone = core.CleanString(d.Phone)
	return d
}

// Input returns the request payload of the draft.
func (d Draft) Input() school.TutorInput {
	d = d.clean()
	return school.TutorInput{Name: d.Name, Email: d.Email, Phone: d.Phone}
}

// Validate checks that name, email and phone are filled in and that email is well formed.
func (d Draft) Validate() error {
	if err := validate.Struct(d.clean()); err != nil {
		return core.TranslateValidationErrors(err, translator)
	}
	return nil
}

// Save creates or updates the tutor with a single call.
// The returned CreatedTutor carries the temporary password the backend may hand out on creation;
// it is meant to be displayed once and never stored.
func Save(ctx context.Context, b Backend, d Draft) (school.CreatedTutor, error) {
	if err := d.Validate(); err != nil {
		return school.CreatedTutor{}, err
	}
	in := d.Input()
	if d.IsEditing() {
		if err := b.UpdateTutor(ctx, d.ID, in); err != nil {
			return school.CreatedTutor{}, errors.Wrap(err, "updating tutor")
		}
		return school.CreatedTutor{Tutor: school.Tutor{ID: d.ID, Name: in.Name, Email: in.Email, Phone: in.Phone}}, nil
	}
	created, err := b.CreateTutor(ctx, in)
	if err != nil {
		return school.CreatedTutor{}, errors.Wrap(err, "creating tutor")
	}
	return created, nil
}

// draftStructValidation reports each blank required field with its own message.
func draftStructValidation(sl validator.StructLevel) {
	d := sl.Current().Interface().(Draft)
	if d.Name == "" {
		sl.ReportError(d.Name, "name", "Name", nameTag, "")
	}
	if d.Email == "" {
		sl.ReportError(d.Email, "email", "Email", emailTag, "")
	}
	if d.Phone == "" {
		sl.ReportError(d.Phone, "phone", "Phone", phoneTag, "")
	}
}
