package inmemdb

import (
	"github.com/edudesk/portal/core"
	"github.com/edudesk/portal/core/school"
)

func (s *schoolRow) toSchool() school.School {
	return school.School{
		ID:              s.id,
		Name:            s.name,
		Code:            s.code,
		District:        s.district,
		IsChainedSchool: s.isChainedSchool,
		StudentCount:    s.studentCount,
	}
}

func (db *DB) school(id string) *schoolRow {
	for _, s := range db.schools {
		if s.id == id {
			return s
		}
	}
	return nil
}

// CreateSchool stores a school. A blank ID is generated.
func (db *DB) CreateSchool(s school.School) school.School {
	db.Lock()
	defer db.Unlock()

	if s.ID == "" {
		s.ID = newID()
	}
	db.schools = append(db.schools, &schoolRow{
		id:              s.ID,
		name:            core.CleanString(s.Name),
		code:            core.CleanString(s.Code),
		district:        core.CleanString(s.District),
		isChainedSchool: s.IsChainedSchool,
		studentCount:    s.StudentCount,
	})
	return db.schools[len(db.schools)-1].toSchool()
}

// GetSchool returns the school with the given ID.
func (db *DB) GetSchool(id string) (school.School, error) {
	db.RLock()
	defer db.RUnlock()

	if s := db.school(id); s != nil {
		return s.toSchool(), nil
	}
	return school.School{}, ErrSchoolNotFound
}

// Dashboard returns the school's read model: its grades with sections and subjects, its tutors,
// and the subject catalog (the defaults followed by any custom subject in use).
func (db *DB) Dashboard(schoolID string) (school.Dashboard, error) {
	db.RLock()
	defer db.RUnlock()

	s := db.school(schoolID)
	if s == nil {
		return school.Dashboard{}, ErrSchoolNotFound
	}

	grades := db.schoolGrades(schoolID)
	subjects := append([]string{}, db.subjects...)
	stats := school.Stats{TotalClasses: len(grades)}
	for _, g := range grades {
		stats.TotalSections += len(g.Sections)
		for _, sec := range g.Sections {
			for _, name := range sec.SubjectNames() {
				if !core.ContainsString(subjects, name) {
					subjects = append(subjects, name)
				}
			}
		}
	}
	tutors := db.schoolTutors(schoolID, false)
	stats.TotalTutors = len(tutors)

	return school.Dashboard{
		School:   s.toSchool(),
		Stats:    stats,
		Grades:   grades,
		Tutors:   tutors,
		Subjects: subjects,
	}, nil
}
