package grade

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/pkg/errors"

	"github.com/edudesk/portal/core/school"
)

// Preview describes what saving the draft would do: the planned calls,
// followed by a unified diff between the loaded grade and the draft.
func Preview(orig school.Grade, d Draft) (string, error) {
	plan, err := d.Plan()
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("Planned calls:\n")
	for i, step := range plan {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, step)
	}

	before := gradeLines(orig.Name, orig.Sections)
	var after []string
	after = append(after, fmt.Sprintf("Grade: %s", strings.TrimSpace(d.Name)))
	for _, sec := range d.ActiveSections() {
		after = append(after, sectionLine(sec.Name, sec.Subjects))
	}

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(strings.Join(before, "\n") + "\n"),
		B:        difflib.SplitLines(strings.Join(after, "\n") + "\n"),
		FromFile: "loaded",
		ToFile:   "draft",
		Context:  3,
	})
	if err != nil {
		return "", errors.Wrap(err, "diffing grade")
	}
	if diff == "" {
		diff = "(no changes)\n"
	}
	b.WriteString("\n")
	b.WriteString(diff)
	return b.String(), nil
}

func gradeLines(name string, sections []school.Section) []string {
	if name == "" && len(sections) == 0 {
		return nil
	}
	lines := []string{fmt.Sprintf("Grade: %s", name)}
	for _, sec := range sections {
		lines = append(lines, sectionLine(sec.Name, sec.SubjectNames()))
	}
	return lines
}

func sectionLine(name string, subjects []string) string {
	return fmt.Sprintf("Section %s: %s", name, strings.Join(subjects, ", "))
}
