package oracle

import (
	"fmt"
	"strings"

	"github.com/sarchlab/firverify/csr"
	"github.com/sarchlab/firverify/dut"
	"github.com/sarchlab/firverify/fixture"
	"github.com/sarchlab/firverify/scenario"
)

// Check is the verdict on one observation of one unit.
type Check struct {
	Observation string
	Verdict     Verdict

	// Reference is the golden or specification value, empty when there is
	// none.
	Reference string
	Observed  string
	Expected  string
	Detail    string
}

// compareSequences judges two ordered sequences element by element.
func compareSequences(got, want []dut.Value) (Verdict, string) {
	if len(got) != len(want) {
		return Fail, fmt.Sprintf("length %d, reference has %d", len(got), len(want))
	}

	verdict := Pass
	var mismatches []string
	for i := range want {
		v := compareValues(got[i], want[i])
		if v == Pass {
			continue
		}

		verdict = worse(verdict, v)
		if len(mismatches) < 3 {
			mismatches = append(mismatches,
				fmt.Sprintf("[%d] %v != %v", i, got[i], want[i]))
		}
	}

	if verdict == Pass {
		return Pass, ""
	}

	return verdict, strings.Join(mismatches, "; ")
}

func display(o scenario.Observation) string {
	if o.Kind == scenario.KindSequence {
		return fmt.Sprintf("%d samples", len(o.Values))
	}

	return o.Value.String()
}

// expectation applies the scenario's own expected value to a check.
func expectation(c *Check, o scenario.Observation) {
	if !o.HasExpectation {
		return
	}

	c.Expected = o.Expected.String()

	v := compareValues(o.Value, o.Expected)
	if v == Pass {
		return
	}

	c.Verdict = worse(c.Verdict, v)
	c.Detail = joinDetail(c.Detail, "expected "+o.Expected.String())
}

func joinDetail(a, b string) string {
	if a == "" {
		return b
	}

	return a + "; " + b
}

// checkAgainstGolden compares a candidate result with the golden result.
// Golden observations the candidate lacks fail; observations only the
// candidate has are skipped.
func checkAgainstGolden(cand, golden *scenario.Result) []Check {
	var checks []Check

	for _, g := range golden.Observations() {
		c := Check{
			Observation: g.Name,
			Reference:   display(g),
		}

		o, ok := cand.Lookup(g.Name)
		switch {
		case !ok:
			c.Verdict = Fail
			c.Observed = "-"
			c.Detail = "not observed"
		case o.Kind != g.Kind:
			c.Verdict = Fail
			c.Observed = display(o)
			c.Detail = "scalar and sequence mismatch"
		case o.Kind == scenario.KindSequence:
			c.Observed = display(o)
			c.Verdict, c.Detail = compareSequences(o.Values, g.Values)
		default:
			c.Observed = display(o)
			c.Verdict = compareValues(o.Value, g.Value)
		}

		if ok {
			expectation(&c, o)
		}

		checks = append(checks, c)
	}

	for _, o := range cand.Observations() {
		if _, ok := golden.Lookup(o.Name); ok {
			continue
		}

		checks = append(checks, Check{
			Observation: o.Name,
			Verdict:     Skip,
			Observed:    display(o),
			Detail:      "not observed on golden",
		})
	}

	return checks
}

// checkExpectations judges a result on its own, for the golden unit.
func checkExpectations(r *scenario.Result) []Check {
	var checks []Check

	for _, o := range r.Observations() {
		c := Check{
			Observation: o.Name,
			Verdict:     Pass,
			Observed:    display(o),
		}
		if !o.HasExpectation {
			c.Verdict = Skip
			c.Detail = "reference unit"
		}

		expectation(&c, o)
		checks = append(checks, c)
	}

	return checks
}

// checkAgainstPOR compares register reads with the power-on-reset
// specification. Registers in the specification that were not read fail;
// registers read but not specified are skipped.
func checkAgainstPOR(r *scenario.Result, por fixture.POR, layout *csr.Layout) []Check {
	var checks []Check

	for _, e := range por {
		want := dut.Available(int64(e.Value))
		c := Check{
			Observation: e.Register,
			Reference:   want.String(),
		}

		o, ok := r.Lookup(e.Register)
		switch {
		case !ok:
			c.Verdict = Fail
			c.Observed = "-"
			c.Detail = "not observed"
		case o.Kind != scenario.KindScalar:
			c.Verdict = Fail
			c.Observed = display(o)
			c.Detail = "register read as a sequence"
		default:
			c.Observed = display(o)
			c.Verdict = compareValues(o.Value, want)
			if c.Verdict == Fail && e.Register == dut.RegisterCSR && layout != nil {
				c.Detail = fieldDiff(layout, e.Value, o.Value)
			}
		}

		checks = append(checks, c)
	}

	for _, o := range r.Observations() {
		if _, ok := por.Lookup(o.Name); ok {
			continue
		}

		checks = append(checks, Check{
			Observation: o.Name,
			Verdict:     Skip,
			Observed:    display(o),
			Detail:      "not in specification",
		})
	}

	return checks
}

// skipAll marks every observation as skipped, for a POR result when no
// specification was given.
func skipAll(r *scenario.Result, reason string) []Check {
	var checks []Check
	for _, o := range r.Observations() {
		checks = append(checks, Check{
			Observation: o.Name,
			Verdict:     Skip,
			Observed:    display(o),
			Detail:      reason,
		})
	}

	return checks
}

func fieldDiff(layout *csr.Layout, want uint32, got dut.Value) string {
	word, ok := got.Uint32()
	if !ok {
		return ""
	}

	changes := layout.Decode(want).Diff(layout.Decode(word))
	parts := make([]string, 0, len(changes))
	for _, ch := range changes {
		parts = append(parts, fmt.Sprintf("%s %d->%d", ch.Name, ch.From, ch.To))
	}

	return strings.Join(parts, ", ")
}
