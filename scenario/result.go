package scenario

import (
	"fmt"

	"github.com/sarchlab/firverify/dut"
)

// Kind tells scalar observations from sequences.
type Kind int

// Observation kinds.
const (
	KindScalar Kind = iota
	KindSequence
)

// Reference names what a unit's observations are judged against.
type Reference int

const (
	// ReferenceGolden compares every candidate with the golden unit.
	ReferenceGolden Reference = iota

	// ReferencePOR compares every unit with the power-on-reset
	// specification, golden included.
	ReferencePOR
)

func (r Reference) String() string {
	if r == ReferencePOR {
		return "por"
	}

	return "golden"
}

// Observation is one named quantity read from a unit.
type Observation struct {
	Name   string
	Kind   Kind
	Value  dut.Value
	Values []dut.Value

	// Expected is set when the scenario itself knows the correct value.
	Expected       dut.Value
	HasExpectation bool
}

// Display renders the observed value.
func (o Observation) Display() string {
	if o.Kind == KindScalar {
		return o.Value.String()
	}

	return fmt.Sprint(o.Values)
}

// Result holds the observations of one scenario on one unit, in the order
// they were recorded.
type Result struct {
	Scenario  string
	Unit      string
	Reference Reference
	Notes     []string

	observations []Observation
	index        map[string]int
}

// NewResult creates an empty result.
func NewResult(scenario, unit string, ref Reference) *Result {
	return &Result{
		Scenario:  scenario,
		Unit:      unit,
		Reference: ref,
		index:     make(map[string]int),
	}
}

func (r *Result) put(o Observation) {
	if i, ok := r.index[o.Name]; ok {
		r.observations[i] = o
		return
	}

	r.index[o.Name] = len(r.observations)
	r.observations = append(r.observations, o)
}

// Record stores a scalar observation. Recording a name twice keeps the
// first position and the last value.
func (r *Result) Record(name string, v dut.Value) {
	r.put(Observation{Name: name, Kind: KindScalar, Value: v})
}

// RecordExpected stores a scalar observation with the value it should have.
func (r *Result) RecordExpected(name string, v, want dut.Value) {
	r.put(Observation{
		Name:           name,
		Kind:           KindScalar,
		Value:          v,
		Expected:       want,
		HasExpectation: true,
	})
}

// RecordSequence stores an ordered sequence of values.
func (r *Result) RecordSequence(name string, vs []dut.Value) {
	cp := make([]dut.Value, len(vs))
	copy(cp, vs)

	r.put(Observation{Name: name, Kind: KindSequence, Values: cp})
}

// Notef adds a free-form remark, such as a write the unit rejected.
func (r *Result) Notef(format string, args ...any) {
	r.Notes = append(r.Notes, fmt.Sprintf(format, args...))
}

// Observations returns the observations in recording order.
func (r *Result) Observations() []Observation {
	out := make([]Observation, len(r.observations))
	copy(out, r.observations)

	return out
}

// Lookup returns an observation by name.
func (r *Result) Lookup(name string) (Observation, bool) {
	i, ok := r.index[name]
	if !ok {
		return Observation{}, false
	}

	return r.observations[i], true
}

// Len returns the number of observations.
func (r *Result) Len() int {
	return len(r.observations)
}
