// pattern: Functional Core

package doctor

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Check is the result of a single environment probe.
type Check struct {
	Name   string
	Detail string
	OK     bool
}

// Report collects check results in the order they ran.
type Report struct {
	Checks []Check
}

func pass(name, detail string) Check { return Check{Name: name, Detail: detail, OK: true} }
func fail(name, detail string) Check { return Check{Name: name, Detail: detail, OK: false} }

func (r *Report) add(c Check) {
	r.Checks = append(r.Checks, c)
}

// Failed returns the number of failing checks.
func (r *Report) Failed() int {
	n := 0
	for _, c := range r.Checks {
		if !c.OK {
			n++
		}
	}
	return n
}

// AllPassed reports whether every check succeeded.
func (r *Report) AllPassed() bool {
	return r.Failed() == 0
}

var (
	passMark    = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Render("✓")
	failMark    = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Render("✗")
	checkName   = lipgloss.NewStyle().Bold(true)
	checkDetail = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Render formats the report for terminal output, one line per check plus a
// summary line.
func (r *Report) Render() string {
	var b strings.Builder
	for _, c := range r.Checks {
		mark := passMark
		if !c.OK {
			mark = failMark
		}
		fmt.Fprintf(&b, "%s %s", mark, checkName.Render(c.Name))
		if c.Detail != "" {
			fmt.Fprintf(&b, ": %s", checkDetail.Render(c.Detail))
		}
		b.WriteString("\n")
	}

	if failed := r.Failed(); failed > 0 {
		fmt.Fprintf(&b, "\n%d of %d checks failed\n", failed, len(r.Checks))
	} else {
		fmt.Fprintf(&b, "\nall %d checks passed\n", len(r.Checks))
	}
	return b.String()
}
