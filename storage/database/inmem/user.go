package inmemdb

import (
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/edudesk/portal/core"
	"github.com/edudesk/portal/core/school"
)

// NewUser is a user to create. Password is hashed before it is stored.
type NewUser struct {
	Name     string
	Email    string
	Password string
	Role     string
	SchoolID string
}

func (u *userRow) toUser() school.User {
	return school.User{ID: u.id, Name: u.name, Email: u.email, Role: u.role, SchoolID: u.schoolID}
}

func hashPassword(pwd string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	return hash, errors.Wrap(err, "hashing password")
}

func (db *DB) userByEmail(email string) *userRow {
	for _, u := range db.users {
		if u.email == email {
			return u
		}
	}
	return nil
}

func (db *DB) createUser(nu NewUser) (*userRow, error) {
	email := core.CleanString(nu.Email, true /* lower */)
	if db.userByEmail(email) != nil {
		return nil, ErrEmailExists
	}
	if nu.SchoolID != "" && db.school(nu.SchoolID) == nil {
		return nil, ErrSchoolNotFound
	}
	hash, err := hashPassword(nu.Password)
	if err != nil {
		return nil, err
	}
	u := &userRow{
		id:       newID(),
		name:     core.CleanString(nu.Name),
		email:    email,
		role:     nu.Role,
		schoolID: nu.SchoolID,
		password: hash,
	}
	db.users = append(db.users, u)
	return u, nil
}

// CreateUser stores a new user. Emails are unique across the store.
func (db *DB) CreateUser(nu NewUser) (school.User, error) {
	db.Lock()
	defer db.Unlock()

	u, err := db.createUser(nu)
	if err != nil {
		return school.User{}, err
	}
	return u.toUser(), nil
}

// GetUser returns the user with the given ID.
func (db *DB) GetUser(id string) (school.User, error) {
	db.RLock()
	defer db.RUnlock()

	for _, u := range db.users {
		if u.id == id {
			return u.toUser(), nil
		}
	}
	return school.User{}, ErrUserNotFound
}

// Authenticate returns the user matching both email and password.
func (db *DB) Authenticate(email, password string) (school.User, error) {
	db.RLock()
	defer db.RUnlock()

	u := db.userByEmail(core.CleanString(email, true /* lower */))
	if u == nil {
		return school.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(u.password, []byte(password)); err != nil {
		return school.User{}, ErrInvalidCredentials
	}
	return u.toUser(), nil
}

func (db *DB) deleteUser(id string) {
	users := db.users[:0]
	for _, u := range db.users {
		if u.id != id {
			users = append(users, u)
		}
	}
	db.users = users
}
