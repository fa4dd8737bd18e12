package oracle

import "github.com/sarchlab/firverify/dut"

// Verdict is the judgement of one observation or one scenario.
type Verdict int

// Verdicts, from best to worst.
const (
	Pass Verdict = iota
	Skip
	FailUnavailable
	Fail
	Error
)

func (v Verdict) String() string {
	switch v {
	case Pass:
		return "PASS"
	case Skip:
		return "SKIP"
	case FailUnavailable:
		return "FAIL (unavailable)"
	case Fail:
		return "FAIL"
	case Error:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Failed reports whether the verdict counts against the unit.
func (v Verdict) Failed() bool {
	return v == FailUnavailable || v == Fail || v == Error
}

// worse returns the more severe of two verdicts.
func worse(a, b Verdict) Verdict {
	if b > a {
		return b
	}

	return a
}

// Aggregate folds observation verdicts into a scenario verdict. A scenario
// where every observation was skipped, or that has none, is skipped.
func Aggregate(vs []Verdict) Verdict {
	agg := Skip
	for _, v := range vs {
		switch v {
		case Skip:
		case Pass:
			if agg == Skip {
				agg = Pass
			}
		default:
			agg = worse(agg, v)
		}
	}

	return agg
}

// compareValues judges an observed value against a reference value. Two
// unavailable values match.
func compareValues(got, want dut.Value) Verdict {
	if got.Equal(want) {
		return Pass
	}

	if !got.IsAvailable() || !want.IsAvailable() {
		return FailUnavailable
	}

	return Fail
}
