package main

import (
	"context"
	"fmt"
	"os"
	"syscall"

	"github.com/pkg/errors"

	"github.com/edudesk/portal/core"
	"github.com/edudesk/portal/core/assignment"
	"github.com/edudesk/portal/core/dashboard"
	"github.com/edudesk/portal/core/grade"
	"github.com/edudesk/portal/core/school"
	"github.com/edudesk/portal/core/tutor"
	"github.com/edudesk/portal/services/sheets"
)

// Session

func (cli *commandLine) login(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("login")
	email := fs.String("email", "", "The user's email. The password is prompted.")
	if err := fs.parse(args, email); err != nil {
		return err
	}

	_, _ = fmt.Fprint(cli.out, "Password: ")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	_, _ = fmt.Fprintln(cli.out)
	if err != nil {
		return errors.Wrap(err, "reading password")
	}

	if _, err = cli.client.Login(ctx, *email, string(pwd)); err != nil {
		return err
	}
	usr, err := cli.client.Me(ctx)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cli.out, "Logged in as %s <%s> (%s)\n", usr.Name, usr.Email, usr.Role)
	return nil
}

func (cli *commandLine) logout(ctx context.Context) error {
	if err := cli.client.Logout(ctx); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cli.out, "Logged out")
	return nil
}

func (cli *commandLine) whoami(ctx context.Context) error {
	sess, err := cli.client.Session(ctx)
	if err != nil {
		return err
	}
	if !sess.LoggedIn() {
		return errNotLoggedIn
	}
	usr, err := cli.client.Me(ctx)
	if err != nil {
		return err
	}
	schoolID := usr.SchoolID
	if schoolID == "" {
		schoolID = "-"
	}
	_, _ = fmt.Fprintf(cli.out, "%s <%s> role: %s school: %s\n", usr.Name, usr.Email, usr.Role, schoolID)
	return nil
}

// Dashboard

func (cli *commandLine) dashboard(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("dashboard")
	if err := fs.parse(args); err != nil {
		return err
	}
	page, err := cli.openPage(ctx, fs.school)
	if err != nil {
		return err
	}
	cli.printSnapshot(page.Shell(), page.Snapshot())
	return nil
}

// Classes

func (cli *commandLine) classCreate(ctx context.Context, args []string) error {
	var sections listFlag
	fs := cli.newFlagSet("class-create")
	name := fs.String("name", "", "The class name.")
	fs.Var(&sections, "section", "A section and its subjects, as NAME:subject,subject. Repeatable; defaults to a single section A.")
	if err := fs.parse(args, name); err != nil {
		return err
	}

	page, err := cli.openPage(ctx, fs.school)
	if err != nil {
		return err
	}
	if err = page.OpenGradeEditor(""); err != nil {
		return err
	}
	err = page.EditGrade(func(d grade.Draft) (grade.Draft, error) {
		d = d.SetName(*name)
		for i, spec := range sections {
			secName, subjects := splitSpec(spec)
			idx := 0
			if i > 0 {
				nd, err := d.AddSection()
				if err != nil {
					return d, err
				}
				d, idx = nd, len(nd.Sections)-1
			}
			nd, err := d.RenameSection(idx, secName)
			if err != nil {
				return d, err
			}
			if d, err = nd.SetSubjects(idx, subjects); err != nil {
				return nd, err
			}
		}
		return d, nil
	})
	return cli.saveGrade(ctx, page, err)
}

func (cli *commandLine) classEdit(ctx context.Context, args []string) error {
	var adds, removes, sets listFlag
	fs := cli.newFlagSet("class-edit")
	gradeID := fs.String("grade", "", "The class ID.")
	name := fs.String("name", "", "The new class name.")
	fs.Var(&adds, "add", "A section to add, as NAME:subject,subject. Repeatable.")
	fs.Var(&removes, "remove", "The name of a section to remove. Repeatable.")
	fs.Var(&sets, "set", "The subjects of an existing section, as NAME:subject,subject. Repeatable.")
	dryRun := fs.Bool("dry-run", false, "Print the changes without saving them.")
	if err := fs.parse(args, gradeID); err != nil {
		return err
	}

	page, err := cli.openPage(ctx, fs.school)
	if err != nil {
		return err
	}
	if err = page.OpenGradeEditor(*gradeID); err != nil {
		return err
	}
	err = page.EditGrade(func(d grade.Draft) (grade.Draft, error) {
		var err error
		if *name != "" {
			d = d.SetName(*name)
		}
		for _, spec := range adds {
			secName, subjects := splitSpec(spec)
			if d, err = d.AddSection(); err != nil {
				return d, err
			}
			idx := len(d.Sections) - 1
			if d, err = d.RenameSection(idx, secName); err != nil {
				return d, err
			}
			if d, err = d.SetSubjects(idx, subjects); err != nil {
				return d, err
			}
		}
		for _, secName := range removes {
			if d, err = d.RemoveSection(d.SectionIndex(core.CleanString(secName))); err != nil {
				return d, err
			}
		}
		for _, spec := range sets {
			secName, subjects := splitSpec(spec)
			if d, err = d.SetSubjects(d.SectionIndex(secName), subjects); err != nil {
				return d, err
			}
		}
		return d, nil
	})
	if err != nil || !*dryRun {
		return cli.saveGrade(ctx, page, err)
	}

	preview, err := page.PreviewGrade()
	_ = page.CloseGradeEditor()
	if err != nil {
		return err
	}
	_, _ = fmt.Fprint(cli.out, preview)
	return nil
}

// saveGrade saves the open class editor unless editing it failed with `editErr`.
func (cli *commandLine) saveGrade(ctx context.Context, page *dashboard.Page, editErr error) error {
	if editErr != nil {
		_ = page.CloseGradeEditor()
		return editErr
	}
	if err := page.SaveGrade(ctx); err != nil {
		_ = page.CloseGradeEditor()
		return err
	}
	cli.printNotices(page)
	return nil
}

func (cli *commandLine) classDelete(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("class-delete")
	gradeID := fs.String("grade", "", "The class ID.")
	if err := fs.parse(args, gradeID); err != nil {
		return err
	}
	page, err := cli.openPage(ctx, fs.school)
	if err != nil {
		return err
	}
	if err = page.DeleteGrade(ctx, *gradeID); err != nil {
		return err
	}
	cli.printNotices(page)
	return nil
}

// Tutors

func (cli *commandLine) tutorAdd(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("tutor-add")
	name := fs.String("name", "", "The tutor's name.")
	email := fs.String("email", "", "The tutor's email.")
	phone := fs.String("phone", "", "The tutor's phone number.")
	if err := fs.parse(args, name, email, phone); err != nil {
		return err
	}
	page, err := cli.openPage(ctx, fs.school)
	if err != nil {
		return err
	}
	return cli.saveTutor(ctx, page, "", func(d tutor.Draft) tutor.Draft {
		d.Name, d.Email, d.Phone = *name, *email, *phone
		return d
	})
}

func (cli *commandLine) tutorEdit(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("tutor-edit")
	id := fs.String("id", "", "The tutor ID.")
	name := fs.String("name", "", "The tutor's new name.")
	email := fs.String("email", "", "The tutor's new email.")
	phone := fs.String("phone", "", "The tutor's new phone number.")
	if err := fs.parse(args, id); err != nil {
		return err
	}
	page, err := cli.openPage(ctx, fs.school)
	if err != nil {
		return err
	}
	return cli.saveTutor(ctx, page, *id, func(d tutor.Draft) tutor.Draft {
		if *name != "" {
			d.Name = *name
		}
		if *email != "" {
			d.Email = *email
		}
		if *phone != "" {
			d.Phone = *phone
		}
		return d
	})
}

// saveTutor opens the tutor editor on `tutorID` (a new tutor when empty), applies `edit` and saves.
func (cli *commandLine) saveTutor(ctx context.Context, page *dashboard.Page, tutorID string, edit func(tutor.Draft) tutor.Draft) error {
	if err := page.OpenTutorEditor(tutorID); err != nil {
		return err
	}
	if err := page.EditTutor(edit); err != nil {
		_ = page.CloseTutorEditor()
		return err
	}
	if err := page.SaveTutor(ctx); err != nil {
		_ = page.CloseTutorEditor()
		return err
	}
	cli.printNotices(page)
	return nil
}

func (cli *commandLine) tutorDelete(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("tutor-delete")
	id := fs.String("id", "", "The tutor ID.")
	if err := fs.parse(args, id); err != nil {
		return err
	}
	page, err := cli.openPage(ctx, fs.school)
	if err != nil {
		return err
	}
	if err = page.DeleteTutor(ctx, *id); err != nil {
		return err
	}
	cli.printNotices(page)
	return nil
}

func (cli *commandLine) tutorImport(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("tutor-import")
	file := fs.String("file", "", "The workbook to import.")
	if err := fs.parse(args, file); err != nil {
		return err
	}

	f, err := os.Open(*file)
	if err != nil {
		return errors.Wrap(err, "opening workbook")
	}
	defer f.Close()
	rows, err := sheets.ImportTutors(f)
	if err != nil {
		return err
	}

	page, err := cli.openPage(ctx, fs.school)
	if err != nil {
		return err
	}
	failed := 0
	for _, row := range rows {
		draft := row.Draft
		if err := cli.saveTutor(ctx, page, "", func(tutor.Draft) tutor.Draft { return draft }); err != nil {
			_, _ = fmt.Fprintf(cli.out, "row %d: %s\n", row.Row, core.UserMessage(err, err.Error()))
			failed++
		}
	}
	_, _ = fmt.Fprintf(cli.out, "Imported %d of %d tutors\n", len(rows)-failed, len(rows))
	if failed > 0 {
		return fmt.Errorf("%d rows could not be imported", failed)
	}
	return nil
}

// Assignments

func (cli *commandLine) assign(ctx context.Context, args []string) error {
	var subjectSpecs listFlag
	fs := cli.newFlagSet("assign")
	tutorID := fs.String("tutor", "", "The tutor ID.")
	fs.Var(&subjectSpecs, "subjects", `Subjects of a class section, as "CLASS-SECTION:subject,subject". Repeatable.`)
	classTutor := fs.String("class-tutor", "", `The class section the tutor is class tutor of, as "CLASS:SECTION".`)
	edit := fs.Bool("edit", false, "Edit the tutor's existing assignment instead of creating one.")
	if err := fs.parse(args, tutorID); err != nil {
		return err
	}

	type entry struct {
		grade, section string
		subjects       []string
	}
	entries := make([]entry, 0, len(subjectSpecs))
	for _, spec := range subjectSpecs {
		key, subjects := splitSpec(spec)
		g, s, ok := school.SplitAssignmentKey(key)
		if !ok {
			return core.NewValidationErrorf(fmt.Sprintf("Invalid class section %q: expected CLASS-SECTION", key))
		}
		entries = append(entries, entry{grade: g, section: s, subjects: subjects})
	}
	var classGrade, classSection string
	if *classTutor != "" {
		g, secs := splitSpec(*classTutor)
		if g == "" || len(secs) != 1 {
			return core.NewValidationErrorf(fmt.Sprintf("Invalid class tutor %q: expected CLASS:SECTION", *classTutor))
		}
		classGrade, classSection = g, secs[0]
	}

	page, err := cli.openPage(ctx, fs.school)
	if err != nil {
		return err
	}
	assignmentID := ""
	if *edit {
		a, ok := school.FindTutorAssignment(page.Snapshot().Assignments, *tutorID)
		if !ok {
			return dashboard.ErrAssignmentNotFound
		}
		assignmentID = a.ID
	}
	if err = page.OpenAssignmentEditor(assignmentID); err != nil {
		return err
	}
	err = page.EditAssignment(func(d assignment.Draft) assignment.Draft {
		d = d.SetTutor(*tutorID)
		for _, e := range entries {
			for _, subject := range e.subjects {
				if !d.HasSubject(e.grade, e.section, subject) {
					d = d.ToggleSubject(e.grade, e.section, subject)
				}
			}
		}
		if classGrade != "" {
			d = d.SetClassTutor(classGrade, classSection)
		}
		return d
	})
	if err == nil {
		err = page.SaveAssignment(ctx)
	}
	if err != nil {
		_ = page.CloseAssignmentEditor()
		return err
	}
	cli.printNotices(page)
	return nil
}

func (cli *commandLine) unassign(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("unassign")
	id := fs.String("id", "", "The assignment ID.")
	tutorID := fs.String("tutor", "", "The tutor ID: removes all of the tutor's assignments.")
	if err := fs.parse(args); err != nil {
		return err
	}
	if (*id == "") == (*tutorID == "") {
		fs.Usage()
		return errHelp
	}

	page, err := cli.openPage(ctx, fs.school)
	if err != nil {
		return err
	}
	if *id != "" {
		err = page.DeleteAssignment(ctx, *id)
	} else {
		err = page.RemoveTutorAssignments(ctx, *tutorID)
	}
	if err != nil {
		return err
	}
	cli.printNotices(page)
	return nil
}

// Subjects

func (cli *commandLine) subjectAdd(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("subject-add")
	sectionID := fs.String("section", "", "The section ID.")
	name := fs.String("name", "", "The subject name.")
	if err := fs.parse(args, sectionID, name); err != nil {
		return err
	}
	page, err := cli.openPage(ctx, fs.school)
	if err != nil {
		return err
	}
	if err = page.AddSubject(ctx, *sectionID, *name); err != nil {
		return err
	}
	cli.printNotices(page)
	return nil
}

func (cli *commandLine) subjectRemove(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("subject-remove")
	id := fs.String("id", "", "The section subject ID.")
	if err := fs.parse(args, id); err != nil {
		return err
	}
	page, err := cli.openPage(ctx, fs.school)
	if err != nil {
		return err
	}
	if err = page.RemoveSubject(ctx, *id); err != nil {
		return err
	}
	cli.printNotices(page)
	return nil
}

func (cli *commandLine) subjectTutor(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("subject-tutor")
	subjectID := fs.String("subject", "", "The section subject ID.")
	tutorID := fs.String("tutor", "", "The tutor ID.")
	if err := fs.parse(args, subjectID, tutorID); err != nil {
		return err
	}
	page, err := cli.openPage(ctx, fs.school)
	if err != nil {
		return err
	}
	if err = page.AssignSubjectTutor(ctx, *subjectID, *tutorID); err != nil {
		return err
	}
	cli.printNotices(page)
	return nil
}

// Export

func (cli *commandLine) export(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("export")
	out := fs.String("out", "", "The workbook to write.")
	if err := fs.parse(args, out); err != nil {
		return err
	}
	page, err := cli.openPage(ctx, fs.school)
	if err != nil {
		return err
	}

	f, err := os.Create(*out)
	if err != nil {
		return errors.Wrap(err, "creating workbook")
	}
	if err = sheets.Export(f, page.Snapshot()); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return errors.Wrap(err, "closing workbook")
	}
	_, _ = fmt.Fprintf(cli.out, "Dashboard exported to %s\n", *out)
	return nil
}
