package oracle

import (
	"errors"
	"fmt"

	"github.com/sarchlab/firverify/csr"
	"github.com/sarchlab/firverify/dut"
	"github.com/sarchlab/firverify/fixture"
	"github.com/sarchlab/firverify/scenario"
)

// ErrInvalidOracle is returned by Build for an incomplete configuration.
var ErrInvalidOracle = errors.New("invalid oracle configuration")

// Builder creates an Oracle.
type Builder struct {
	golden      dut.Handle
	candidates  []dut.Handle
	scenarios   []scenario.Scenario
	por         fixture.POR
	hasPOR      bool
	layout      *csr.Layout
	parallelism int
}

// MakeBuilder returns a builder with the default layout and no limit on
// how many candidates run at once.
func MakeBuilder() Builder {
	return Builder{
		layout: csr.DefaultLayout(),
	}
}

// WithGolden sets the reference unit.
func (b Builder) WithGolden(h dut.Handle) Builder {
	b.golden = h
	return b
}

// WithCandidates sets the units under evaluation.
func (b Builder) WithCandidates(hs ...dut.Handle) Builder {
	b.candidates = append([]dut.Handle(nil), hs...)
	return b
}

// WithScenarios sets the scenarios, in run order.
func (b Builder) WithScenarios(ss ...scenario.Scenario) Builder {
	b.scenarios = append([]scenario.Scenario(nil), ss...)
	return b
}

// WithPOR sets the power-on-reset specification. Without one, POR results
// are skipped.
func (b Builder) WithPOR(por fixture.POR) Builder {
	b.por = append(fixture.POR(nil), por...)
	b.hasPOR = true
	return b
}

// WithLayout sets the layout used to explain CSR mismatches.
func (b Builder) WithLayout(l *csr.Layout) Builder {
	b.layout = l
	return b
}

// WithParallelism limits how many candidates run at once. Zero or less
// means no limit.
func (b Builder) WithParallelism(n int) Builder {
	b.parallelism = n
	return b
}

// Build creates the oracle.
func (b Builder) Build() (*Oracle, error) {
	if b.golden == nil {
		return nil, fmt.Errorf("%w: no golden unit", ErrInvalidOracle)
	}

	if len(b.scenarios) == 0 {
		return nil, fmt.Errorf("%w: no scenarios", ErrInvalidOracle)
	}

	seen := map[string]bool{b.golden.Name(): true}
	for _, h := range b.candidates {
		if seen[h.Name()] {
			return nil, fmt.Errorf("%w: unit %s listed twice",
				ErrInvalidOracle, h.Name())
		}
		seen[h.Name()] = true
	}

	return &Oracle{
		golden:      b.golden,
		candidates:  b.candidates,
		scenarios:   b.scenarios,
		por:         b.por,
		hasPOR:      b.hasPOR,
		layout:      b.layout,
		parallelism: b.parallelism,
	}, nil
}
