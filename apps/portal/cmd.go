package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"

	"golang.org/x/term"

	"github.com/edudesk/portal/core"
	"github.com/edudesk/portal/core/dashboard"
	"github.com/edudesk/portal/core/school"
	"github.com/edudesk/portal/services/schoolapi"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp        = errors.New("help provided")
	errNotLoggedIn = errors.New("Not logged in: run `portal login -email EMAIL` first")
)

type commandLine struct {
	conf   *core.Config
	client *schoolapi.Client
	log    core.Logger
	out    io.Writer
}

func (cli *commandLine) printUsage() {
	_, _ = fmt.Fprint(cli.out, `Usage: portal COMMAND [flags]

Session:
  login -email EMAIL                  - log in (the password is prompted next)
  logout                              - forget the stored tokens
  whoami                              - show the logged in user

School (every command accepts -school ID; superadmins only):
  dashboard                           - show classes, tutors and assignments
  class-create -name NAME [-section A:English,Maths ...]
  class-edit -grade ID [-name NAME] [-add B:Science ...] [-remove A ...] [-set A:English ...] [-dry-run]
  class-delete -grade ID
  tutor-add -name NAME -email EMAIL -phone PHONE
  tutor-edit -id ID [-name NAME] [-email EMAIL] [-phone PHONE]
  tutor-delete -id ID
  tutor-import -file FILE.xlsx        - add the tutors listed in a workbook (name, email, phone columns)
  assign -tutor ID [-subjects "Grade 1-A:English,Maths" ...] [-class-tutor "Grade 1:B"] [-edit]
  unassign -id ID | -tutor ID
  subject-add -section ID -name NAME
  subject-remove -id ID
  subject-tutor -subject ID -tutor ID
  export -out FILE.xlsx               - export the dashboard to a workbook
`)
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}
	ctx := context.Background()
	cmd, cmdArgs := args[1], args[2:]

	switch cmd {
	case "login":
		return cli.login(ctx, cmdArgs)
	case "logout":
		return cli.logout(ctx)
	case "whoami":
		return cli.whoami(ctx)
	case "dashboard":
		return cli.dashboard(ctx, cmdArgs)
	case "class-create":
		return cli.classCreate(ctx, cmdArgs)
	case "class-edit":
		return cli.classEdit(ctx, cmdArgs)
	case "class-delete":
		return cli.classDelete(ctx, cmdArgs)
	case "tutor-add":
		return cli.tutorAdd(ctx, cmdArgs)
	case "tutor-edit":
		return cli.tutorEdit(ctx, cmdArgs)
	case "tutor-delete":
		return cli.tutorDelete(ctx, cmdArgs)
	case "tutor-import":
		return cli.tutorImport(ctx, cmdArgs)
	case "assign":
		return cli.assign(ctx, cmdArgs)
	case "unassign":
		return cli.unassign(ctx, cmdArgs)
	case "subject-add":
		return cli.subjectAdd(ctx, cmdArgs)
	case "subject-remove":
		return cli.subjectRemove(ctx, cmdArgs)
	case "subject-tutor":
		return cli.subjectTutor(ctx, cmdArgs)
	case "export":
		return cli.export(ctx, cmdArgs)
	default:
		cli.printUsage()
		return errHelp
	}
}

// listFlag collects the values of a repeated flag.
type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, " ") }

func (l *listFlag) Set(v string) error {
	*l = append(*l, v)
	return nil
}

// schoolFlags is a flag set carrying the -school flag every school command accepts.
type schoolFlags struct {
	*flag.FlagSet
	school string
}

func (cli *commandLine) newFlagSet(name string) *schoolFlags {
	fs := &schoolFlags{FlagSet: flag.NewFlagSet(name, flag.ContinueOnError)}
	fs.SetOutput(cli.out)
	fs.StringVar(&fs.school, "school", "", "The school ID. Superadmins only; defaults to the user's school.")
	return fs
}

// parse parses args, reporting errHelp when it fails or when a required flag is blank.
func (fs *schoolFlags) parse(args []string, required ...*string) error {
	if err := fs.Parse(args); err != nil {
		return errHelp
	}
	for _, val := range required {
		if core.CleanString(*val) == "" {
			fs.Usage()
			return errHelp
		}
	}
	return nil
}

// splitSpec splits "NAME:a,b" into NAME and its non blank items. The name ends at the last ":".
func splitSpec(spec string) (string, []string) {
	name, list := spec, ""
	if i := strings.LastIndex(spec, ":"); i >= 0 {
		name, list = spec[:i], spec[i+1:]
	}
	items := []string{}
	for _, item := range strings.Split(list, ",") {
		if item = core.CleanString(item); item != "" {
			items = append(items, item)
		}
	}
	return core.CleanString(name), items
}

// openPage resolves the user's shell on the requested school and loads its dashboard.
func (cli *commandLine) openPage(ctx context.Context, schoolID string) (*dashboard.Page, error) {
	sess, err := cli.client.Session(ctx)
	if err != nil {
		return nil, err
	}
	if !sess.LoggedIn() {
		return nil, errNotLoggedIn
	}
	usr, err := cli.client.Me(ctx)
	if err != nil {
		if schoolapi.IsUnauthorized(err) {
			return nil, errNotLoggedIn
		}
		return nil, err
	}
	shell, err := dashboard.ShellFor(usr, schoolID)
	if err != nil {
		return nil, err
	}
	page := dashboard.NewPage(cli.client.School(shell.SchoolID), shell, cli.conf.Subjects, cli.log)
	if err = page.Reload(ctx); err != nil {
		return nil, err
	}
	page.Notices() // nothing to report yet
	return page, nil
}

// printNotices prints the page's queued success and info notices. Failures are returned as errors.
func (cli *commandLine) printNotices(page *dashboard.Page) {
	for _, n := range page.Notices() {
		if n.Kind != dashboard.Failure {
			_, _ = fmt.Fprintln(cli.out, n.Message)
		}
	}
}

func tutorName(ref *school.TutorRef) string {
	if ref == nil {
		return "-"
	}
	return ref.Name
}

func (cli *commandLine) printSnapshot(shell dashboard.Shell, snap dashboard.Snapshot) {
	w := cli.out
	_, _ = fmt.Fprintf(w, "%s (%s) [%s] - %s\n", snap.School.Name, snap.School.Code, snap.School.ID, shell.Capability)
	_, _ = fmt.Fprintf(w, "Classes: %d  Sections: %d  Tutors: %d\n", snap.Stats.TotalClasses, snap.Stats.TotalSections, snap.Stats.TotalTutors)

	_, _ = fmt.Fprintln(w, "\nClasses")
	for _, g := range snap.Grades {
		_, _ = fmt.Fprintf(w, "  %s [%s]\n", g.Name, g.ID)
		for _, sec := range g.Sections {
			_, _ = fmt.Fprintf(w, "    %s [%s] class tutor: %s\n", sec.Name, sec.ID, tutorName(sec.ClassTutor))
			for _, sub := range sec.Subjects {
				_, _ = fmt.Fprintf(w, "      - %s [%s] tutor: %s\n", sub.Name, sub.ID, tutorName(sub.Tutor))
			}
		}
	}

	_, _ = fmt.Fprintln(w, "\nTutors")
	for _, t := range snap.Tutors {
		assigned := ""
		if _, ok := school.FindTutorAssignment(snap.Assignments, t.ID); ok {
			assigned = " (assigned)"
		}
		_, _ = fmt.Fprintf(w, "  %s [%s] %s %s%s\n", t.Name, t.ID, t.Email, t.Phone, assigned)
	}

	_, _ = fmt.Fprintln(w, "\nAssignments")
	for _, a := range snap.Assignments {
		keys := make([]string, 0, len(a.Assignments))
		for k := range a.Assignments {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys)+1)
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(a.Assignments[k], ", ")))
		}
		if a.ClassGrade != "" {
			parts = append(parts, "class tutor of "+school.AssignmentKey(a.ClassGrade, a.ClassSection))
		}
		_, _ = fmt.Fprintf(w, "  %s [%s]: %s\n", a.TutorName, a.ID, strings.Join(parts, "; "))
	}
}
