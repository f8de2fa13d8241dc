package inmemdb

import (
	"github.com/edudesk/portal/core"
	"github.com/edudesk/portal/core/school"
)

func (t *tutorRow) toTutor(simple bool) school.Tutor {
	if simple {
		return school.Tutor{ID: t.id, Name: t.name}
	}
	return school.Tutor{ID: t.id, Name: t.name, Email: t.email, Phone: t.phone}
}

func (db *DB) tutor(schoolID, id string) *tutorRow {
	for _, t := range db.tutors {
		if t.id == id && t.schoolID == schoolID {
			return t
		}
	}
	return nil
}

func (db *DB) schoolTutors(schoolID string, simple bool) []school.Tutor {
	tutors := []school.Tutor{}
	for _, t := range db.tutors {
		if t.schoolID == schoolID {
			tutors = append(tutors, t.toTutor(simple))
		}
	}
	return tutors
}

// Tutors returns the school's tutors. The simple list carries IDs and names only.
func (db *DB) Tutors(schoolID string, simple bool) ([]school.Tutor, error) {
	db.RLock()
	defer db.RUnlock()

	if db.school(schoolID) == nil {
		return nil, ErrSchoolNotFound
	}
	return db.schoolTutors(schoolID, simple), nil
}

// CreateTutor stores a tutor along with the teacher account it logs in with.
func (db *DB) CreateTutor(schoolID string, in school.TutorInput, password string) (school.Tutor, error) {
	db.Lock()
	defer db.Unlock()

	if db.school(schoolID) == nil {
		return school.Tutor{}, ErrSchoolNotFound
	}
	usr, err := db.createUser(NewUser{
		Name:     in.Name,
		Email:    in.Email,
		Password: password,
		Role:     school.RoleTeacher,
		SchoolID: schoolID,
	})
	if err != nil {
		return school.Tutor{}, err
	}
	t := &tutorRow{
		id:       newID(),
		schoolID: schoolID,
		userID:   usr.id,
		name:     usr.name,
		email:    usr.email,
		phone:    core.CleanString(in.Phone),
	}
	db.tutors = append(db.tutors, t)
	return t.toTutor(false), nil
}

// UpdateTutor updates a tutor and its account.
func (db *DB) UpdateTutor(schoolID, id string, in school.TutorInput) (school.Tutor, error) {
	db.Lock()
	defer db.Unlock()

	t := db.tutor(schoolID, id)
	if t == nil {
		return school.Tutor{}, ErrTutorNotFound
	}
	email := core.CleanString(in.Email, true /* lower */)
	if u := db.userByEmail(email); u != nil && u.id != t.userID {
		return school.Tutor{}, ErrEmailExists
	}

	t.name = core.CleanString(in.Name)
	t.email = email
	t.phone = core.CleanString(in.Phone)
	for _, u := range db.users {
		if u.id == t.userID {
			u.name = t.name
			u.email = t.email
		}
	}
	return t.toTutor(false), nil
}

// DeleteTutor deletes a tutor, its account and its assignment.
func (db *DB) DeleteTutor(schoolID, id string) error {
	db.Lock()
	defer db.Unlock()

	t := db.tutor(schoolID, id)
	if t == nil {
		return ErrTutorNotFound
	}
	db.deleteAssignments(func(a *assignmentRow) bool { return a.tutorID != t.id })
	db.deleteUser(t.userID)

	tutors := db.tutors[:0]
	for _, row := range db.tutors {
		if row.id != t.id {
			tutors = append(tutors, row)
		}
	}
	db.tutors = tutors
	db.rebind(schoolID)
	return nil
}
