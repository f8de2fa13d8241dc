// Package inmemdb is the in-memory store behind the sandbox server.
// Nothing is persisted: every Open starts from an empty store.
package inmemdb

import (
	"sync"

	"github.com/google/uuid"
)

type (
	userRow struct {
		id       string
		name     string
		email    string
		role     string
		schoolID string
		password []byte // bcrypt hash
	}

	gradeRow struct {
		id       string
		schoolID string
		name     string
		order    int
	}

	sectionRow struct {
		id           string
		gradeID      string
		name         string
		classTutorID string
	}

	subjectRow struct {
		id        string
		sectionID string
		name      string
		tutorID   string
	}

	tutorRow struct {
		id       string
		schoolID string
		userID   string
		name     string
		email    string
		phone    string
	}

	assignmentRow struct {
		id           string
		schoolID     string
		tutorID      string
		assignments  map[string][]string
		classGrade   string
		classSection string
	}

	schoolRow struct {
		id              string
		name            string
		code            string
		district        string
		isChainedSchool bool
		studentCount    int
	}

	// DB holds every table in insertion order.
	DB struct {
		sync.RWMutex

		subjects []string // default subject catalog

		schools     []*schoolRow
		users       []*userRow
		grades      []*gradeRow
		sections    []*sectionRow
		subjectRows []*subjectRow
		tutors      []*tutorRow
		assignments []*assignmentRow
	}
)

// Open returns an empty store. defaultSubjects is the catalog every school dashboard starts from.
func Open(defaultSubjects []string) *DB {
	return &DB{subjects: append([]string(nil), defaultSubjects...)}
}

func newID() string {
	return uuid.New().String()
}

func copyAssignments(m map[string][]string) map[string][]string {
	out := make(map[string][]string, len(m))
	for k, v := range m {
		out[k] = append([]string{}, v...)
	}
	return out
}
