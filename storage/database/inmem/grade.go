package inmemdb

import (
	"sort"
	"strings"

	"github.com/edudesk/portal/core"
	"github.com/edudesk/portal/core/school"
)

func (db *DB) tutorRef(id string) *school.TutorRef {
	if id == "" {
		return nil
	}
	for _, t := range db.tutors {
		if t.id == id {
			return &school.TutorRef{ID: t.id, Name: t.name}
		}
	}
	return nil
}

func (db *DB) grade(schoolID, id string) *gradeRow {
	for _, g := range db.grades {
		if g.id == id && g.schoolID == schoolID {
			return g
		}
	}
	return nil
}

func (db *DB) gradeByName(schoolID, name string) *gradeRow {
	for _, g := range db.grades {
		if g.schoolID == schoolID && strings.EqualFold(g.name, name) {
			return g
		}
	}
	return nil
}

func (db *DB) gradeSections(gradeID string) []*sectionRow {
	var sections []*sectionRow
	for _, sec := range db.sections {
		if sec.gradeID == gradeID {
			sections = append(sections, sec)
		}
	}
	return sections
}

func (db *DB) sectionByName(gradeID, name string) *sectionRow {
	for _, sec := range db.gradeSections(gradeID) {
		if strings.EqualFold(sec.name, name) {
			return sec
		}
	}
	return nil
}

// section returns a section along with its grade, provided both belong to the school.
func (db *DB) section(schoolID, id string) (*sectionRow, *gradeRow) {
	for _, sec := range db.sections {
		if sec.id == id {
			if g := db.grade(schoolID, sec.gradeID); g != nil {
				return sec, g
			}
			return nil, nil
		}
	}
	return nil, nil
}

func (db *DB) sectionSubjects(sectionID string) []*subjectRow {
	var subjects []*subjectRow
	for _, sub := range db.subjectRows {
		if sub.sectionID == sectionID {
			subjects = append(subjects, sub)
		}
	}
	return subjects
}

func (db *DB) subjectByName(sectionID, name string) *subjectRow {
	for _, sub := range db.sectionSubjects(sectionID) {
		if strings.EqualFold(sub.name, name) {
			return sub
		}
	}
	return nil
}

func (db *DB) toSection(sec *sectionRow) school.Section {
	s := school.Section{
		ID:         sec.id,
		Name:       sec.name,
		ClassTutor: db.tutorRef(sec.classTutorID),
		Subjects:   []school.SectionSubject{},
	}
	for _, sub := range db.sectionSubjects(sec.id) {
		s.Subjects = append(s.Subjects, school.SectionSubject{ID: sub.id, Name: sub.name, Tutor: db.tutorRef(sub.tutorID)})
	}
	return s
}

func (db *DB) toGrade(g *gradeRow) school.Grade {
	grade := school.Grade{ID: g.id, Name: g.name, Order: g.order, Sections: []school.Section{}}
	for _, sec := range db.gradeSections(g.id) {
		grade.Sections = append(grade.Sections, db.toSection(sec))
	}
	grade.SectionsCount = len(grade.Sections)
	return grade
}

func (db *DB) schoolGrades(schoolID string) []school.Grade {
	grades := []school.Grade{}
	for _, g := range db.grades {
		if g.schoolID == schoolID {
			grades = append(grades, db.toGrade(g))
		}
	}
	sort.SliceStable(grades, func(i, j int) bool { return grades[i].Order < grades[j].Order })
	return grades
}

func (db *DB) addSection(gradeID string, in school.SectionInput) (*sectionRow, error) {
	name := core.CleanString(in.Name)
	if db.sectionByName(gradeID, name) != nil {
		return nil, ErrSectionExists
	}
	sec := &sectionRow{id: newID(), gradeID: gradeID, name: name}
	db.sections = append(db.sections, sec)
	for _, subject := range in.Subjects {
		db.addSubject(sec.id, subject)
	}
	return sec, nil
}

// addSubject adds a subject unless it is blank or already in the section.
func (db *DB) addSubject(sectionID, name string) *subjectRow {
	name = core.CleanString(name)
	if name == "" || db.subjectByName(sectionID, name) != nil {
		return nil
	}
	sub := &subjectRow{id: newID(), sectionID: sectionID, name: name}
	db.subjectRows = append(db.subjectRows, sub)
	return sub
}

func (db *DB) deleteSubjects(keep func(*subjectRow) bool) {
	rows := db.subjectRows[:0]
	for _, sub := range db.subjectRows {
		if keep(sub) {
			rows = append(rows, sub)
		}
	}
	db.subjectRows = rows
}

func (db *DB) deleteSections(keep func(*sectionRow) bool) {
	rows := db.sections[:0]
	var dropped []string
	for _, sec := range db.sections {
		if keep(sec) {
			rows = append(rows, sec)
		} else {
			dropped = append(dropped, sec.id)
		}
	}
	db.sections = rows
	db.deleteSubjects(func(sub *subjectRow) bool { return !core.ContainsString(dropped, sub.sectionID) })
}

// CreateGrade stores a grade and its sections. Grade names are unique per school.
func (db *DB) CreateGrade(schoolID string, ng school.NewGrade) (school.Grade, error) {
	db.Lock()
	defer db.Unlock()

	if db.school(schoolID) == nil {
		return school.Grade{}, ErrSchoolNotFound
	}
	name := core.CleanString(ng.GradeName)
	if db.gradeByName(schoolID, name) != nil {
		return school.Grade{}, ErrGradeExists
	}
	seen := make(map[string]bool, len(ng.Sections))
	for _, sec := range ng.Sections {
		key := strings.ToLower(core.CleanString(sec.Name))
		if seen[key] {
			return school.Grade{}, ErrSectionExists
		}
		seen[key] = true
	}

	order := 1
	for _, g := range db.grades {
		if g.schoolID == schoolID && g.order >= order {
			order = g.order + 1
		}
	}
	g := &gradeRow{id: newID(), schoolID: schoolID, name: name, order: order}
	db.grades = append(db.grades, g)
	for _, sec := range ng.Sections {
		if _, err := db.addSection(g.id, sec); err != nil {
			return school.Grade{}, err
		}
	}
	db.rebind(schoolID)
	return db.toGrade(g), nil
}

// RenameGrade renames a grade. Assignment entries follow the new name.
func (db *DB) RenameGrade(schoolID, gradeID, name string) error {
	db.Lock()
	defer db.Unlock()

	g := db.grade(schoolID, gradeID)
	if g == nil {
		return ErrGradeNotFound
	}
	name = core.CleanString(name)
	if other := db.gradeByName(schoolID, name); other != nil && other.id != g.id {
		return ErrGradeExists
	}
	oldName := g.name
	g.name = name
	for _, a := range db.schoolAssignments(schoolID) {
		renamed := make(map[string][]string, len(a.assignments))
		for key, subjects := range a.assignments {
			if gradeName, sectionName, ok := school.SplitAssignmentKey(key); ok && gradeName == oldName {
				key = school.AssignmentKey(name, sectionName)
			}
			renamed[key] = subjects
		}
		a.assignments = renamed
		if a.classGrade == oldName {
			a.classGrade = name
		}
	}
	db.rebind(schoolID)
	return nil
}

// DeleteGrade deletes a grade with its sections and subjects, and drops the assignment entries pointing at them.
func (db *DB) DeleteGrade(schoolID, gradeID string) error {
	db.Lock()
	defer db.Unlock()

	g := db.grade(schoolID, gradeID)
	if g == nil {
		return ErrGradeNotFound
	}
	for _, sec := range db.gradeSections(g.id) {
		db.pruneAssignments(schoolID, g.name, sec.name, "")
	}

	grades := db.grades[:0]
	for _, row := range db.grades {
		if row.id != g.id {
			grades = append(grades, row)
		}
	}
	db.grades = grades
	db.deleteSections(func(sec *sectionRow) bool { return sec.gradeID != g.id })
	db.rebind(schoolID)
	return nil
}

// AddSection adds a section to a grade. Section names are unique within a grade.
func (db *DB) AddSection(schoolID, gradeID string, in school.SectionInput) (school.Section, error) {
	db.Lock()
	defer db.Unlock()

	g := db.grade(schoolID, gradeID)
	if g == nil {
		return school.Section{}, ErrGradeNotFound
	}
	sec, err := db.addSection(g.id, in)
	if err != nil {
		return school.Section{}, err
	}
	db.rebind(schoolID)
	return db.toSection(sec), nil
}

// DeleteSection deletes a section and its subjects.
func (db *DB) DeleteSection(schoolID, sectionID string) error {
	db.Lock()
	defer db.Unlock()

	sec, g := db.section(schoolID, sectionID)
	if sec == nil {
		return ErrSectionNotFound
	}
	db.pruneAssignments(schoolID, g.name, sec.name, "")
	db.deleteSections(func(row *sectionRow) bool { return row.id != sec.id })
	db.rebind(schoolID)
	return nil
}

// ReplaceSectionSubjects sets the section's subjects. Subjects kept by name keep their ID and tutor.
func (db *DB) ReplaceSectionSubjects(schoolID, sectionID string, subjects []string) error {
	db.Lock()
	defer db.Unlock()

	sec, g := db.section(schoolID, sectionID)
	if sec == nil {
		return ErrSectionNotFound
	}
	wanted := make([]string, 0, len(subjects))
	for _, s := range subjects {
		if s = core.CleanString(s); s != "" {
			wanted = append(wanted, strings.ToLower(s))
		}
	}
	for _, sub := range db.sectionSubjects(sec.id) {
		if !core.ContainsString(wanted, strings.ToLower(sub.name)) {
			db.pruneAssignments(schoolID, g.name, sec.name, sub.name)
		}
	}
	db.deleteSubjects(func(sub *subjectRow) bool {
		return sub.sectionID != sec.id || core.ContainsString(wanted, strings.ToLower(sub.name))
	})
	for _, s := range subjects {
		db.addSubject(sec.id, s)
	}
	db.rebind(schoolID)
	return nil
}

// AddSectionSubject adds a single subject to a section.
func (db *DB) AddSectionSubject(schoolID, sectionID, name string) (school.SectionSubject, error) {
	db.Lock()
	defer db.Unlock()

	sec, _ := db.section(schoolID, sectionID)
	if sec == nil {
		return school.SectionSubject{}, ErrSectionNotFound
	}
	sub := db.addSubject(sec.id, name)
	if sub == nil {
		return school.SectionSubject{}, ErrSubjectExists
	}
	db.rebind(schoolID)
	return school.SectionSubject{ID: sub.id, Name: sub.name, Tutor: db.tutorRef(sub.tutorID)}, nil
}

// DeleteSectionSubject removes a subject from its section, along with the assignment entries teaching it there.
func (db *DB) DeleteSectionSubject(schoolID, subjectID string) error {
	db.Lock()
	defer db.Unlock()

	var sub *subjectRow
	for _, row := range db.subjectRows {
		if row.id == subjectID {
			sub = row
			break
		}
	}
	if sub == nil {
		return ErrSubjectNotFound
	}
	sec, g := db.section(schoolID, sub.sectionID)
	if sec == nil {
		return ErrSubjectNotFound
	}
	db.pruneAssignments(schoolID, g.name, sec.name, sub.name)
	db.deleteSubjects(func(row *subjectRow) bool { return row.id != sub.id })
	db.rebind(schoolID)
	return nil
}
