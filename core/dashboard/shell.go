package dashboard

import (
	"github.com/pkg/errors"

	"github.com/edudesk/portal/core/school"
)

var (
	ErrNoSchool      = errors.New("No school assigned")
	ErrForeignSchool = errors.New("You can only manage your own school")
	ErrUnknownRole   = errors.New("Access denied")
)

// Capability tells whether a page may mutate the school.
type Capability int

const (
	ReadOnly Capability = iota
	CanEdit
)

func (c Capability) String() string {
	if c == CanEdit {
		return "can-edit"
	}
	return "read-only"
}

// Shell is what a role-specific presentation needs to open a dashboard page.
type Shell struct {
	User       school.User
	SchoolID   string
	Capability Capability
}

// ShellFor resolves the school a user works on and what they may do with it.
// Superadmins may open any school (their own when none is requested); school admins and
// teachers are bound to their own school, teachers read-only.
func ShellFor(usr school.User, requestedSchool string) (Shell, error) {
	shell := Shell{User: usr}
	switch usr.Role {
	case school.RoleSuperAdmin:
		shell.SchoolID = requestedSchool
		if shell.SchoolID == "" {
			shell.SchoolID = usr.SchoolID
		}
		shell.Capability = CanEdit
	case school.RoleSchoolAdmin, school.RoleTeacher:
		if requestedSchool != "" && requestedSchool != usr.SchoolID {
			return Shell{}, ErrForeignSchool
		}
		shell.SchoolID = usr.SchoolID
		if usr.IsSchoolAdmin() {
			shell.Capability = CanEdit
		}
	default:
		return Shell{}, ErrUnknownRole
	}

	if shell.SchoolID == "" {
		return Shell{}, ErrNoSchool
	}
	return shell, nil
}
