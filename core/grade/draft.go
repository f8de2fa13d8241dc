// Package grade implements the class (grade) & section editor: a local draft of a grade's name
// and sections, and its reconciliation with the backend.
package grade

import (
	"github.com/edudesk/portal/core"
	"github.com/edudesk/portal/core/school"
)

// SectionLabels is the ordered pool of section names.
var SectionLabels = []string{"A", "B", "C", "D", "E", "F", "G", "H"}

var (
	ErrNameRequired     = core.NewValidationErrorf("Please enter a class name", core.FieldError{Field: "name", Error: "Please enter a class name"})
	ErrSectionsRequired = core.NewValidationErrorf("Please add at least one section", core.FieldError{Field: "sections", Error: "Please add at least one section"})
	ErrMaxSections      = core.NewValidationErrorf("Maximum 8 sections (A-H) allowed")
	ErrLastSection      = core.NewValidationErrorf("At least one section is required")
	ErrSectionNotFound  = core.NewValidationErrorf("Section not found")
	ErrSectionExists    = core.NewValidationErrorf("A section with this name already exists")
	ErrSectionPersisted = core.NewValidationErrorf("Existing sections cannot be renamed")
)

// SectionDraft is a section being edited.
// ID is empty for sections that were never persisted (IsNew).
// ToDelete marks a persisted section for deletion at save time: it stays in the draft so its ID survives.
type SectionDraft struct {
	ID       string   `json:"id,omitempty"`
	Name     string   `json:"name"`
	Subjects []string `json:"subjects"`
	IsNew    bool     `json:"isNew,omitempty"`
	ToDelete bool     `json:"toDelete,omitempty"`
}

// Persisted reports whether the section exists on the backend.
func (s SectionDraft) Persisted() bool { return s.ID != "" && !s.IsNew }

func (s SectionDraft) HasSubject(subject string) bool {
	return core.ContainsString(s.Subjects, subject)
}

func (s SectionDraft) clone() SectionDraft {
	s.Subjects = append(make([]string, 0, len(s.Subjects)), s.Subjects...)
	return s
}

// Draft is the local edit state of a grade.
// Every operation returns a new Draft and leaves its receiver untouched;
// a rejected operation returns the receiver unchanged along with the error.
type Draft struct {
	GradeID  string         `json:"id,omitempty"` // empty when creating a grade
	Name     string         `json:"name"`
	Sections []SectionDraft `json:"sectionsData"`

	loadedName string
}

// NewDraft returns the draft of a grade to create: no name and a single new section "A".
func NewDraft() Draft {
	return Draft{
		Sections: []SectionDraft{{Name: SectionLabels[0], Subjects: []string{}, IsNew: true}},
	}
}

// DraftFrom seeds a draft from a persisted grade.
func DraftFrom(g school.Grade) Draft {
	d := Draft{GradeID: g.ID, Name: g.Name, loadedName: g.Name}
	for _, sec := range g.Sections {
		d.Sections = append(d.Sections, SectionDraft{
			ID:       sec.ID,
			Name:     sec.Name,
			Subjects: sec.SubjectNames(),
		})
	}
	if len(d.Sections) == 0 {
		d.Sections = NewDraft().Sections
	}
	return d
}

// IsEditing reports whether the draft edits an existing grade.
func (d Draft) IsEditing() bool { return d.GradeID != "" }

// ActiveSections returns the sections not marked for deletion.
func (d Draft) ActiveSections() []SectionDraft {
	active := make([]SectionDraft, 0, len(d.Sections))
	for _, sec := range d.Sections {
		if !sec.ToDelete {
			active = append(active, sec)
		}
	}
	return active
}

// SectionIndex returns the index of the non deleted section named `name`, or -1.
func (d Draft) SectionIndex(name string) int {
	for i, sec := range d.Sections {
		if !sec.ToDelete && sec.Name == name {
			return i
		}
	}
	return -1
}

func (d Draft) clone() Draft {
	sections := make([]SectionDraft, 0, len(d.Sections))
	for _, sec := range d.Sections {
		sections = append(sections, sec.clone())
	}
	d.Sections = sections
	return d
}

func (d Draft) activeNames() []string {
	var names []string
	for _, sec := range d.ActiveSections() {
		names = append(names, sec.Name)
	}
	return names
}

func (d Draft) checkIndex(i int) error {
	if i < 0 || i >= len(d.Sections) || d.Sections[i].ToDelete {
		return ErrSectionNotFound
	}
	return nil
}

// SetName sets the grade name.
func (d Draft) SetName(name string) Draft {
	d = d.clone()
	d.Name = name
	return d
}

// AddSection appends a new section named after the first unused label of SectionLabels.
func (d Draft) AddSection() (Draft, error) {
	used := d.activeNames()
	for _, label := range SectionLabels {
		if !core.ContainsString(used, label) {
			nd := d.clone()
			nd.Sections = append(nd.Sections, SectionDraft{Name: label, Subjects: []string{}, IsNew: true})
			return nd, nil
		}
	}
	return d, ErrMaxSections
}

// RemoveSection drops a new section from the draft, or marks a persisted one for deletion.
// The last remaining section cannot be removed.
func (d Draft) RemoveSection(i int) (Draft, error) {
	if err := d.checkIndex(i); err != nil {
		return d, err
	}
	if len(d.ActiveSections()) <= 1 {
		return d, ErrLastSection
	}

	nd := d.clone()
	if nd.Sections[i].IsNew || nd.Sections[i].ID == "" {
		nd.Sections = append(nd.Sections[:i], nd.Sections[i+1:]...)
	} else {
		nd.Sections[i].ToDelete = true
	}
	return nd, nil
}

// ToggleSubject adds `subject` to the section when absent, removes it otherwise.
func (d Draft) ToggleSubject(i int, subject string) (Draft, error) {
	if err := d.checkIndex(i); err != nil {
		return d, err
	}
	nd := d.clone()
	sec := &nd.Sections[i]
	if sec.HasSubject(subject) {
		sec.Subjects = removeString(sec.Subjects, subject)
	} else {
		sec.Subjects = append(sec.Subjects, subject)
	}
	return nd, nil
}

// AddCustomSubject adds a free-form subject to the section. Blank or already present subjects are ignored.
func (d Draft) AddCustomSubject(i int, subject string) (Draft, error) {
	if err := d.checkIndex(i); err != nil {
		return d, err
	}
	subject = core.CleanString(subject)
	if subject == "" || d.Sections[i].HasSubject(subject) {
		return d, nil
	}
	nd := d.clone()
	nd.Sections[i].Subjects = append(nd.Sections[i].Subjects, subject)
	return nd, nil
}

// RemoveSubject removes `subject` from the section.
func (d Draft) RemoveSubject(i int, subject string) (Draft, error) {
	if err := d.checkIndex(i); err != nil {
		return d, err
	}
	nd := d.clone()
	nd.Sections[i].Subjects = removeString(nd.Sections[i].Subjects, subject)
	return nd, nil
}

// SetSubjects replaces the section's subjects. Blank and duplicate subjects are dropped.
func (d Draft) SetSubjects(i int, subjects []string) (Draft, error) {
	if err := d.checkIndex(i); err != nil {
		return d, err
	}
	nd := d.clone()
	nd.Sections[i].Subjects = uniqueStrings(subjects)
	return nd, nil
}

// RenameSection renames a new section. Its subject selection moves along with it.
// Persisted sections cannot be renamed: the backend has no endpoint for it.
func (d Draft) RenameSection(i int, name string) (Draft, error) {
	if err := d.checkIndex(i); err != nil {
		return d, err
	}
	name = core.CleanString(name)
	sec := d.Sections[i]
	if name == sec.Name {
		return d, nil
	}
	if sec.Persisted() {
		return d, ErrSectionPersisted
	}
	if name == "" {
		return d, core.NewValidationErrorf("Section name cannot be blank")
	}
	if d.SectionIndex(name) >= 0 {
		return d, ErrSectionExists
	}
	nd := d.clone()
	nd.Sections[i].Name = name
	return nd, nil
}

// Validate checks the draft before it is saved.
func (d Draft) Validate() error {
	if core.CleanString(d.Name) == "" {
		return ErrNameRequired
	}
	active := d.ActiveSections()
	if len(active) == 0 {
		return ErrSectionsRequired
	}
	seen := make(map[string]bool, len(active))
	for _, sec := range active {
		if seen[sec.Name] {
			return ErrSectionExists
		}
		seen[sec.Name] = true
	}
	return nil
}

func removeString(list []string, s string) []string {
	out := list[:0]
	for _, item := range list {
		if item != s {
			out = append(out, item)
		}
	}
	return out
}

func uniqueStrings(list []string) []string {
	out := make([]string, 0, len(list))
	for _, item := range list {
		item = core.CleanString(item)
		if item != "" && !core.ContainsString(out, item) {
			out = append(out, item)
		}
	}
	return out
}
