package inmemdb

import (
	"github.com/edudesk/portal/core"
	"github.com/edudesk/portal/core/school"
)

func (db *DB) toAssignment(a *assignmentRow) school.Assignment {
	out := school.Assignment{
		ID:           a.id,
		TutorID:      a.tutorID,
		Assignments:  copyAssignments(a.assignments),
		ClassGrade:   a.classGrade,
		ClassSection: a.classSection,
	}
	if ref := db.tutorRef(a.tutorID); ref != nil {
		out.TutorName = ref.Name
	}
	return out
}

func (db *DB) schoolAssignments(schoolID string) []*assignmentRow {
	var rows []*assignmentRow
	for _, a := range db.assignments {
		if a.schoolID == schoolID {
			rows = append(rows, a)
		}
	}
	return rows
}

func (db *DB) tutorAssignment(schoolID, tutorID string) *assignmentRow {
	for _, a := range db.schoolAssignments(schoolID) {
		if a.tutorID == tutorID {
			return a
		}
	}
	return nil
}

func (db *DB) deleteAssignments(keep func(*assignmentRow) bool) {
	rows := db.assignments[:0]
	for _, a := range db.assignments {
		if keep(a) {
			rows = append(rows, a)
		}
	}
	db.assignments = rows
}

// pruneAssignments drops `subject` from the entries of a grade & section,
// or the whole entry and the matching class tutor role when subject is blank.
func (db *DB) pruneAssignments(schoolID, gradeName, sectionName, subject string) {
	key := school.AssignmentKey(gradeName, sectionName)
	for _, a := range db.schoolAssignments(schoolID) {
		if subject == "" {
			delete(a.assignments, key)
			if a.classGrade == gradeName && a.classSection == sectionName {
				a.classGrade, a.classSection = "", ""
			}
			continue
		}
		subjects, ok := a.assignments[key]
		if !ok {
			continue
		}
		kept := subjects[:0]
		for _, s := range subjects {
			if s != subject {
				kept = append(kept, s)
			}
		}
		if len(kept) == 0 {
			delete(a.assignments, key)
		} else {
			a.assignments[key] = kept
		}
	}
}

// rebind recomputes the class and subject tutors of a school's sections from its assignments.
// Later assignments win when two tutors claim the same section or subject.
func (db *DB) rebind(schoolID string) {
	for _, g := range db.grades {
		if g.schoolID != schoolID {
			continue
		}
		for _, sec := range db.gradeSections(g.id) {
			sec.classTutorID = ""
			for _, sub := range db.sectionSubjects(sec.id) {
				sub.tutorID = ""
			}
		}
	}

	for _, a := range db.schoolAssignments(schoolID) {
		for key, subjects := range a.assignments {
			gradeName, sectionName, ok := school.SplitAssignmentKey(key)
			if !ok {
				continue
			}
			g := db.gradeByName(schoolID, gradeName)
			if g == nil {
				continue
			}
			sec := db.sectionByName(g.id, sectionName)
			if sec == nil {
				continue
			}
			for _, name := range subjects {
				if sub := db.subjectByName(sec.id, name); sub != nil {
					sub.tutorID = a.tutorID
				}
			}
		}
		if a.classGrade == "" {
			continue
		}
		if g := db.gradeByName(schoolID, a.classGrade); g != nil {
			if sec := db.sectionByName(g.id, a.classSection); sec != nil {
				sec.classTutorID = a.tutorID
			}
		}
	}
}

func cleanAssignments(in map[string][]string) map[string][]string {
	out := make(map[string][]string, len(in))
	for key, subjects := range in {
		cleaned := make([]string, 0, len(subjects))
		for _, s := range subjects {
			if s = core.CleanString(s); s != "" && !core.ContainsString(cleaned, s) {
				cleaned = append(cleaned, s)
			}
		}
		out[key] = cleaned
	}
	return out
}

// Assignments returns the school's assignment records.
func (db *DB) Assignments(schoolID string) ([]school.Assignment, error) {
	db.RLock()
	defer db.RUnlock()

	if db.school(schoolID) == nil {
		return nil, ErrSchoolNotFound
	}
	assignments := []school.Assignment{}
	for _, a := range db.schoolAssignments(schoolID) {
		assignments = append(assignments, db.toAssignment(a))
	}
	return assignments, nil
}

// CreateAssignment stores the assignment record of a tutor. A tutor holds at most one record.
func (db *DB) CreateAssignment(schoolID string, in school.AssignmentInput) (school.Assignment, error) {
	db.Lock()
	defer db.Unlock()

	if db.tutor(schoolID, in.TutorID) == nil {
		return school.Assignment{}, ErrTutorNotFound
	}
	if db.tutorAssignment(schoolID, in.TutorID) != nil {
		return school.Assignment{}, ErrTutorAssigned
	}
	a := &assignmentRow{
		id:           newID(),
		schoolID:     schoolID,
		tutorID:      in.TutorID,
		assignments:  cleanAssignments(in.Assignments),
		classGrade:   core.CleanString(in.ClassGrade),
		classSection: core.CleanString(in.ClassSection),
	}
	db.assignments = append(db.assignments, a)
	db.rebind(schoolID)
	return db.toAssignment(a), nil
}

// ReplaceAssignment replaces the whole assignment record of a tutor.
func (db *DB) ReplaceAssignment(schoolID string, in school.AssignmentInput) (school.Assignment, error) {
	db.Lock()
	defer db.Unlock()

	if db.tutor(schoolID, in.TutorID) == nil {
		return school.Assignment{}, ErrTutorNotFound
	}
	a := db.tutorAssignment(schoolID, in.TutorID)
	if a == nil {
		return school.Assignment{}, ErrAssignmentNotFound
	}
	a.assignments = cleanAssignments(in.Assignments)
	a.classGrade = core.CleanString(in.ClassGrade)
	a.classSection = core.CleanString(in.ClassSection)
	db.rebind(schoolID)
	return db.toAssignment(a), nil
}

// DeleteAssignment deletes an assignment record by ID.
func (db *DB) DeleteAssignment(schoolID, id string) error {
	db.Lock()
	defer db.Unlock()

	found := false
	db.deleteAssignments(func(a *assignmentRow) bool {
		if a.id == id && a.schoolID == schoolID {
			found = true
			return false
		}
		return true
	})
	if !found {
		return ErrAssignmentNotFound
	}
	db.rebind(schoolID)
	return nil
}

// DeleteTutorAssignments deletes the assignment record of a tutor, if any.
func (db *DB) DeleteTutorAssignments(schoolID, tutorID string) error {
	db.Lock()
	defer db.Unlock()

	if db.tutor(schoolID, tutorID) == nil {
		return ErrTutorNotFound
	}
	db.deleteAssignments(func(a *assignmentRow) bool { return a.schoolID != schoolID || a.tutorID != tutorID })
	db.rebind(schoolID)
	return nil
}
