package inmemdb

import "github.com/pkg/errors"

type (
	// NotFoundError is returned when a row does not exist, or belongs to another school.
	NotFoundError struct {
		What string
	}

	// ConflictError is returned when a write would break a uniqueness rule.
	ConflictError struct {
		Message string
	}
)

func (e NotFoundError) Error() string { return e.What + " not found" }
func (e ConflictError) Error() string { return e.Message }

var (
	ErrSchoolNotFound     = &NotFoundError{What: "School"}
	ErrUserNotFound       = &NotFoundError{What: "User"}
	ErrGradeNotFound      = &NotFoundError{What: "Class"}
	ErrSectionNotFound    = &NotFoundError{What: "Section"}
	ErrSubjectNotFound    = &NotFoundError{What: "Subject"}
	ErrTutorNotFound      = &NotFoundError{What: "Tutor"}
	ErrAssignmentNotFound = &NotFoundError{What: "Assignment"}

	ErrEmailExists   = &ConflictError{Message: "A user with this email already exists"}
	ErrGradeExists   = &ConflictError{Message: "A class with this name already exists"}
	ErrSectionExists = &ConflictError{Message: "A section with this name already exists"}
	ErrSubjectExists = &ConflictError{Message: "This subject already exists in the section"}
	ErrTutorAssigned = &ConflictError{Message: "This tutor already has an assignment"}

	ErrInvalidCredentials = errors.New("invalid credentials")
)

// IsNotFound reports whether the cause of err is a *NotFoundError.
func IsNotFound(err error) bool {
	_, ok := errors.Cause(err).(*NotFoundError)
	return ok
}

// IsConflict reports whether the cause of err is a *ConflictError.
func IsConflict(err error) bool {
	_, ok := errors.Cause(err).(*ConflictError)
	return ok
}
