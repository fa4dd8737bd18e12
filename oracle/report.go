package oracle

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/afero"

	"github.com/sarchlab/firverify/dut"
)

// Report is the result of one run.
type Report struct {
	Golden     string
	Candidates []string
	Scenarios  []string
	Outcomes   []*Outcome
	Warnings   []string

	// Transcript adds per-unit command statistics when set.
	Transcript *dut.Transcript

	// Style is the table style. The zero value renders with StyleLight.
	Style *table.Style
}

// Outcome returns the outcome of a scenario on a unit.
func (r *Report) Outcome(unit, scenarioName string) (*Outcome, bool) {
	for _, o := range r.Outcomes {
		if o.Unit == unit && o.Scenario == scenarioName {
			return o, true
		}
	}

	return nil, false
}

// Passed reports whether no unit failed any scenario.
func (r *Report) Passed() bool {
	for _, o := range r.Outcomes {
		if o.Verdict.Failed() {
			return false
		}
	}

	return true
}

// newTable prints the heading on its own line, where a narrow table cannot
// wrap it, and returns a table writing to w.
func (r *Report) newTable(w io.Writer, heading string) table.Writer {
	fmt.Fprintln(w, heading)

	t := table.NewWriter()
	t.SetOutputMirror(w)

	if r.Style != nil {
		t.SetStyle(*r.Style)
	} else {
		t.SetStyle(table.StyleLight)
	}

	// Footers carry notes and error text, which must not be re-cased.
	t.Style().Format.Footer = text.FormatDefault

	return t
}

// WriteReport renders the summary, the per-observation details and the
// transport statistics.
func (r *Report) WriteReport(w io.Writer) {
	r.writeSummary(w)

	for _, o := range r.Outcomes {
		fmt.Fprintln(w)
		r.writeOutcome(w, o)
	}

	if r.Transcript != nil {
		fmt.Fprintln(w)
		r.writeTransport(w)
	}

	for _, warning := range r.Warnings {
		fmt.Fprintf(w, "\nWARNING: %s\n", warning)
	}

	verdict := "PASS"
	if !r.Passed() {
		verdict = "FAIL"
	}
	fmt.Fprintf(w, "\nOverall: %s\n", verdict)
}

func (r *Report) writeSummary(w io.Writer) {
	t := r.newTable(w, "Verification Summary (golden: "+r.Golden+")")

	header := table.Row{"Unit"}
	for _, s := range r.Scenarios {
		header = append(header, s)
	}
	t.AppendHeader(header)

	units := append([]string{r.Golden}, r.Candidates...)
	for i, u := range units {
		row := table.Row{u}
		for _, s := range r.Scenarios {
			if o, ok := r.Outcome(u, s); ok {
				row = append(row, o.Verdict.String())
			} else {
				row = append(row, "-")
			}
		}
		t.AppendRow(row)

		if i == 0 && len(units) > 1 {
			t.AppendSeparator()
		}
	}

	t.Render()
}

func (r *Report) writeOutcome(w io.Writer, o *Outcome) {
	t := r.newTable(w,
		fmt.Sprintf("%s / %s: %s", o.Unit, o.Scenario, o.Verdict))

	if o.Err != nil {
		t.AppendHeader(table.Row{"Error"})
		t.AppendRow(table.Row{o.Err.Error()})
		t.Render()
		return
	}

	t.AppendHeader(table.Row{
		"Observation", "Reference", "Observed", "Expected", "Verdict", "Detail",
	})
	for _, c := range o.Checks {
		t.AppendRow(table.Row{
			c.Observation, c.Reference, c.Observed, c.Expected, c.Verdict.String(), c.Detail,
		})
	}

	if len(o.Notes) > 0 {
		t.AppendFooter(table.Row{"Notes", strings.Join(o.Notes, "; ")})
	}

	t.Render()
}

func (r *Report) writeTransport(w io.Writer) {
	t := r.newTable(w, "Device Commands")
	t.AppendHeader(table.Row{"Unit", "Commands", "Failures", "Busy"})

	for _, u := range r.Transcript.Units() {
		s := r.Transcript.Stats(u)
		t.AppendRow(table.Row{u, s.Invocations, s.Failures, s.Busy.String()})
	}

	t.Render()
}

// SaveReportToFile writes the report to a file.
func (r *Report) SaveReportToFile(fs afero.Fs, filename string) error {
	file, err := fs.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	r.WriteReport(file)

	return nil
}
