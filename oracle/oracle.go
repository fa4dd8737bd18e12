// Package oracle runs the scenarios on the golden unit and on every
// candidate, and decides which candidates behave like the golden one.
//
// The golden unit runs every scenario to completion before any candidate
// starts. Candidates then run concurrently with each other, each one going
// through the scenarios in order on its own handle.
package oracle

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/sarchlab/firverify/csr"
	"github.com/sarchlab/firverify/dut"
	"github.com/sarchlab/firverify/fixture"
	"github.com/sarchlab/firverify/scenario"
)

// Outcome is the verdict of one scenario on one unit.
type Outcome struct {
	Unit     string
	Scenario string
	Verdict  Verdict
	Checks   []Check
	Notes    []string
	Err      error
}

// Oracle holds an immutable run configuration.
type Oracle struct {
	golden      dut.Handle
	candidates  []dut.Handle
	scenarios   []scenario.Scenario
	por         fixture.POR
	hasPOR      bool
	layout      *csr.Layout
	parallelism int
}

type run struct {
	result *scenario.Result
	err    error
}

// Run evaluates every unit. The returned error is only set if ctx ends
// before the run completes; failing units are reported in the Report.
func (o *Oracle) Run(ctx context.Context) (*Report, error) {
	report := &Report{
		Golden:    o.golden.Name(),
		Scenarios: make([]string, len(o.scenarios)),
	}
	for i, s := range o.scenarios {
		report.Scenarios[i] = s.Name()
	}
	for _, h := range o.candidates {
		report.Candidates = append(report.Candidates, h.Name())
	}

	golden := o.runUnit(ctx, o.golden)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report.Outcomes = append(report.Outcomes, o.judgeGolden(golden)...)

	candidates := make([][]*Outcome, len(o.candidates))

	var g errgroup.Group
	if o.parallelism > 0 {
		g.SetLimit(o.parallelism)
	}

	for i, h := range o.candidates {
		g.Go(func() error {
			runs := o.runUnit(ctx, h)
			candidates[i] = o.judgeCandidate(h.Name(), runs, golden)

			return nil
		})
	}

	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, outs := range candidates {
		report.Outcomes = append(report.Outcomes, outs...)
	}

	if !o.hasPOR && o.hasPORScenario(golden) {
		report.Warnings = append(report.Warnings,
			"no power-on-reset specification given, POR checks skipped")
	}

	return report, nil
}

func (o *Oracle) runUnit(ctx context.Context, h dut.Handle) []run {
	runs := make([]run, len(o.scenarios))

	for i, s := range o.scenarios {
		if ctx.Err() != nil {
			runs[i].err = ctx.Err()
			continue
		}

		slog.Info("Scenario",
			"Behavior", "Start", "Unit", h.Name(), "Scenario", s.Name())

		runs[i].result, runs[i].err = s.Run(ctx, h)
		if runs[i].err != nil {
			slog.Error("Scenario",
				"Behavior", "Error", "Unit", h.Name(), "Scenario", s.Name(),
				"Error", runs[i].err)
		}
	}

	return runs
}

func (o *Oracle) hasPORScenario(runs []run) bool {
	for _, r := range runs {
		if r.result != nil && r.result.Reference == scenario.ReferencePOR {
			return true
		}
	}

	return false
}

func (o *Oracle) judgeGolden(runs []run) []*Outcome {
	outs := make([]*Outcome, len(runs))

	for i, r := range runs {
		out := &Outcome{Unit: o.golden.Name(), Scenario: o.scenarios[i].Name()}
		outs[i] = out

		if r.err != nil {
			out.Verdict, out.Err = Error, r.err
			continue
		}

		out.Notes = r.result.Notes
		if r.result.Reference == scenario.ReferencePOR {
			out.Checks = o.porChecks(r.result)
		} else {
			out.Checks = checkExpectations(r.result)
		}

		o.finish(out)
	}

	return outs
}

func (o *Oracle) judgeCandidate(unit string, runs, golden []run) []*Outcome {
	outs := make([]*Outcome, len(runs))

	for i, r := range runs {
		out := &Outcome{Unit: unit, Scenario: o.scenarios[i].Name()}
		outs[i] = out

		if r.err != nil {
			out.Verdict, out.Err = Error, r.err
			o.log(out)
			continue
		}

		out.Notes = r.result.Notes

		switch {
		case r.result.Reference == scenario.ReferencePOR:
			out.Checks = o.porChecks(r.result)
		case golden[i].err != nil:
			out.Verdict = Error
			out.Err = fmt.Errorf("no golden result: %w", golden[i].err)
			o.log(out)
			continue
		default:
			out.Checks = checkAgainstGolden(r.result, golden[i].result)
		}

		o.finish(out)
	}

	return outs
}

func (o *Oracle) porChecks(r *scenario.Result) []Check {
	if !o.hasPOR {
		return skipAll(r, "no specification")
	}

	return checkAgainstPOR(r, o.por, o.layout)
}

func (o *Oracle) finish(out *Outcome) {
	vs := make([]Verdict, len(out.Checks))
	for i, c := range out.Checks {
		vs[i] = c.Verdict
	}
	out.Verdict = Aggregate(vs)

	o.log(out)
}

func (o *Oracle) log(out *Outcome) {
	slog.Info("Scenario",
		"Behavior", "Judged",
		"Unit", out.Unit,
		"Scenario", out.Scenario,
		"Verdict", out.Verdict.String(),
	)
}
