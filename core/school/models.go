// Package school holds the read model published by the backend.
// Values of these types are snapshots: editors never mutate them, they build drafts instead.
package school

import "strings"

// Roles
const (
	RoleSuperAdmin  = "SUPERADMIN"
	RoleSchoolAdmin = "SCHOOL_ADMIN"
	RoleTeacher     = "TEACHER"
)

var AllRoles = []string{RoleSuperAdmin, RoleSchoolAdmin, RoleTeacher}

type User struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	SchoolID string `json:"schoolId,omitempty"`
}

func (u User) IsSuperAdmin() bool  { return u.Role == RoleSuperAdmin }
func (u User) IsSchoolAdmin() bool { return u.Role == RoleSchoolAdmin }
func (u User) IsTeacher() bool     { return u.Role == RoleTeacher }

type School struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Code            string `json:"code"`
	District        string `json:"district,omitempty"`
	IsChainedSchool bool   `json:"isChainedSchool"`
	StudentCount    int    `json:"studentCount"`
}

type Stats struct {
	TotalClasses  int `json:"totalClasses"`
	TotalSections int `json:"totalSections"`
	TotalTutors   int `json:"totalTutors"`
}

// TutorRef is a weak reference to a Tutor: lookup only, never ownership.
type TutorRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type SectionSubject struct {
	ID    string    `json:"id"`
	Name  string    `json:"name"`
	Tutor *TutorRef `json:"tutor"`
}

type Section struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	ClassTutor *TutorRef        `json:"classTutor"`
	Subjects   []SectionSubject `json:"subjects"`
}

// SubjectNames returns the names of the section's subjects, in order.
func (s Section) SubjectNames() []string {
	names := make([]string, 0, len(s.Subjects))
	for _, sub := range s.Subjects {
		names = append(names, sub.Name)
	}
	return names
}

type Grade struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Order         int       `json:"order"`
	SectionsCount int       `json:"sectionsCount"`
	Sections      []Section `json:"sections"`
}

// SectionNames returns the names of the grade's sections, in order.
func (g Grade) SectionNames() []string {
	names := make([]string, 0, len(g.Sections))
	for _, sec := range g.Sections {
		names = append(names, sec.Name)
	}
	return names
}

type Tutor struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Assignment is the persisted record of what a tutor teaches where.
type Assignment struct {
	ID           string              `json:"id"`
	TutorID      string              `json:"tutorId"`
	TutorName    string              `json:"tutorName"`
	Assignments  map[string][]string `json:"assignments"`
	ClassGrade   string              `json:"classGrade,omitempty"`
	ClassSection string              `json:"classSection,omitempty"`
}

// Dashboard is the payload of GET /schools/{id}/dashboard.
type Dashboard struct {
	School   School   `json:"school"`
	Stats    Stats    `json:"stats"`
	Grades   []Grade  `json:"grades"`
	Tutors   []Tutor  `json:"tutors"`
	Subjects []string `json:"subjects"`
}

// AssignmentKey is the key of an Assignment entry for a grade & section.
func AssignmentKey(gradeName, sectionName string) string {
	return gradeName + "-" + sectionName
}

// SplitAssignmentKey splits a key built by AssignmentKey on its last "-".
// Grade names may contain dashes, section labels do not.
func SplitAssignmentKey(key string) (gradeName, sectionName string, ok bool) {
	i := strings.LastIndex(key, "-")
	if i <= 0 || i == len(key)-1 {
		return "", "", false
	}
	return key[:i], key[i+1:], true
}

// FindGrade returns the grade with the given ID.
func FindGrade(grades []Grade, id string) (Grade, bool) {
	for _, g := range grades {
		if g.ID == id {
			return g, true
		}
	}
	return Grade{}, false
}

// FindGradeByName returns the grade with the given name.
func FindGradeByName(grades []Grade, name string) (Grade, bool) {
	for _, g := range grades {
		if g.Name == name {
			return g, true
		}
	}
	return Grade{}, false
}

// FindTutor returns the tutor with the given ID.
func FindTutor(tutors []Tutor, id string) (Tutor, bool) {
	for _, t := range tutors {
		if t.ID == id {
			return t, true
		}
	}
	return Tutor{}, false
}

// FindTutorAssignment returns the assignment record held by a tutor, if any.
func FindTutorAssignment(assignments []Assignment, tutorID string) (Assignment, bool) {
	for _, a := range assignments {
		if a.TutorID == tutorID {
			return a, true
		}
	}
	return Assignment{}, false
}

// Session is the state kept between portal runs: the tokens attached to every request
// and the user they were issued to.
type Session struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
	User         User   `json:"user"`
}

// LoggedIn reports whether the session holds an access token.
func (s Session) LoggedIn() bool { return s.AccessToken != "" }
