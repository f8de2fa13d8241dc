// Package sheets exports a school's snapshot to XLSX and imports tutors from XLSX.
package sheets

import (
	"io"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/edudesk/portal/core"
	"github.com/edudesk/portal/core/dashboard"
	"github.com/edudesk/portal/core/school"
	"github.com/edudesk/portal/core/tutor"
)

const (
	ClassesSheet     = "Classes"
	TutorsSheet      = "Tutors"
	AssignmentsSheet = "Assignments"
)

// Export writes the snapshot as a workbook of three sheets: classes, tutors and assignments.
func Export(w io.Writer, snap dashboard.Snapshot) error {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return errors.Wrap(err, "creating header style")
	}

	sheets := []struct {
		name   string
		header []interface{}
		rows   [][]interface{}
	}{
		{
			name:   ClassesSheet,
			header: []interface{}{"Class", "Section", "Class tutor", "Subject", "Subject tutor"},
			rows:   classRows(snap.Grades),
		},
		{
			name:   TutorsSheet,
			header: []interface{}{"Name", "Email", "Phone", "Assigned"},
			rows:   tutorRows(snap.Tutors, snap.Assignments),
		},
		{
			name:   AssignmentsSheet,
			header: []interface{}{"Tutor", "Class", "Section", "Subjects", "Class tutor"},
			rows:   assignmentRows(snap.Assignments),
		},
	}
	for i, sh := range sheets {
		if i == 0 {
			// the new workbook's default sheet becomes the first one
			err = f.SetSheetName(f.GetSheetName(0), sh.name)
		} else {
			_, err = f.NewSheet(sh.name)
		}
		if err != nil {
			return errors.Wrapf(err, "creating sheet %s", sh.name)
		}
		if err = writeRow(f, sh.name, 1, sh.header); err != nil {
			return err
		}
		if err = f.SetRowStyle(sh.name, 1, 1, bold); err != nil {
			return errors.Wrapf(err, "styling %s header", sh.name)
		}
		for r, row := range sh.rows {
			if err = writeRow(f, sh.name, r+2, row); err != nil {
				return err
			}
		}
	}
	f.SetActiveSheet(0)
	return errors.Wrap(f.Write(w), "writing workbook")
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return errors.Wrap(err, "excelize.CoordinatesToCellName()")
	}
	return errors.Wrapf(f.SetSheetRow(sheet, cell, &values), "writing %s!%s", sheet, cell)
}

func tutorName(ref *school.TutorRef) string {
	if ref == nil {
		return ""
	}
	return ref.Name
}

func classRows(grades []school.Grade) [][]interface{} {
	var rows [][]interface{}
	for _, g := range grades {
		for _, sec := range g.Sections {
			if len(sec.Subjects) == 0 {
				rows = append(rows, []interface{}{g.Name, sec.Name, tutorName(sec.ClassTutor), "", ""})
				continue
			}
			for _, sub := range sec.Subjects {
				rows = append(rows, []interface{}{g.Name, sec.Name, tutorName(sec.ClassTutor), sub.Name, tutorName(sub.Tutor)})
			}
		}
	}
	return rows
}

func tutorRows(tutors []school.Tutor, assignments []school.Assignment) [][]interface{} {
	rows := make([][]interface{}, 0, len(tutors))
	for _, t := range tutors {
		assigned := "no"
		if _, ok := school.FindTutorAssignment(assignments, t.ID); ok {
			assigned = "yes"
		}
		rows = append(rows, []interface{}{t.Name, t.Email, t.Phone, assigned})
	}
	return rows
}

func assignmentRows(assignments []school.Assignment) [][]interface{} {
	var rows [][]interface{}
	for _, a := range assignments {
		keys := make([]string, 0, len(a.Assignments))
		for k := range a.Assignments {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		classTutor := ""
		if a.ClassGrade != "" {
			classTutor = school.AssignmentKey(a.ClassGrade, a.ClassSection)
		}
		if len(keys) == 0 {
			rows = append(rows, []interface{}{a.TutorName, "", "", "", classTutor})
		}
		for _, k := range keys {
			gradeName, sectionName, _ := school.SplitAssignmentKey(k)
			rows = append(rows, []interface{}{a.TutorName, gradeName, sectionName, strings.Join(a.Assignments[k], ", "), classTutor})
		}
	}
	return rows
}

// TutorRow is a tutor read from a workbook. Row is the 1-based row number in the sheet.
type TutorRow struct {
	Row   int
	Draft tutor.Draft
}

// ImportTutors reads tutors from the first sheet of a workbook.
// The first row is a header naming the "name", "email" and "phone" columns, in any order and case;
// blank rows are skipped. Rows are not validated.
func ImportTutors(r io.Reader) ([]TutorRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "opening workbook")
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, core.NewValidationErrorf("The workbook has no sheet")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "reading sheet %s", sheet)
	}
	if len(rows) == 0 {
		return nil, core.NewValidationErrorf("The sheet is empty")
	}

	cols := map[string]int{"name": -1, "email": -1, "phone": -1}
	for i, title := range rows[0] {
		if _, ok := cols[core.CleanString(title, true /* lower */)]; ok {
			cols[core.CleanString(title, true /* lower */)] = i
		}
	}
	var missing []core.FieldError
	for _, name := range []string{"name", "email", "phone"} {
		if cols[name] < 0 {
			missing = append(missing, core.FieldError{Field: name, Error: "missing column " + name})
		}
	}
	if len(missing) > 0 {
		return nil, core.NewValidationErrorf("The header row must name the name, email and phone columns", missing...)
	}

	cell := func(row []string, col int) string {
		if col < len(row) {
			return core.CleanString(row[col])
		}
		return ""
	}
	var tutors []TutorRow
	for i, row := range rows[1:] {
		d := tutor.Draft{
			Name:  cell(row, cols["name"]),
			Email: cell(row, cols["email"]),
			Phone: cell(row, cols["phone"]),
		}
		if d.Name == "" && d.Email == "" && d.Phone == "" {
			continue
		}
		tutors = append(tutors, TutorRow{Row: i + 2, Draft: d})
	}
	return tutors, nil
}
