package scenario

import (
	"context"
	"fmt"

	"github.com/spf13/afero"

	"github.com/sarchlab/firverify/buffer"
	"github.com/sarchlab/firverify/csr"
	"github.com/sarchlab/firverify/dut"
	"github.com/sarchlab/firverify/fixture"
)

// SignalProcessing loads a coefficient set and streams input vectors through
// the filter, recording one output per input.
type SignalProcessing struct {
	Platform

	FS               afero.Fs
	CoefficientsFile string
	VectorsFile      string

	// EnableFilter sets fen before the halt, so the samples go through the
	// taps instead of the bypass.
	EnableFilter bool
}

// Name returns "signal_processing".
func (s SignalProcessing) Name() string {
	return NameSignalProcessing
}

func (s SignalProcessing) inputs(ctx context.Context) (csr.Coefficients, []int64, error) {
	var coefs csr.Coefficients

	if s.CoefficientsFile == "" {
		return coefs, nil, fmt.Errorf("coefficients: %w", ErrMissingInput)
	}
	if s.VectorsFile == "" {
		return coefs, nil, fmt.Errorf("vectors: %w", ErrMissingInput)
	}

	coefs, err := fixture.LoadCoefficients(ctx, s.FS, s.CoefficientsFile)
	if err != nil {
		return coefs, nil, err
	}

	samples, err := fixture.LoadVectors(s.FS, s.VectorsFile)
	if err != nil {
		return coefs, nil, err
	}

	return coefs, samples, nil
}

// Run reads the input files, then halts the unit with both clear pulses,
// loads the coefficients, releases the halt and drives every sample.
func (s SignalProcessing) Run(ctx context.Context, h dut.Handle) (*Result, error) {
	coefs, samples, err := s.inputs(ctx)
	if err != nil {
		return nil, err
	}

	r := NewResult(s.Name(), h.Name(), ReferenceGolden)
	ctrl := buffer.NewController(h, s.Layout, s.Addresses)

	if s.EnableFilter {
		err := ctrl.Modify(ctx, func(c csr.CSR) csr.CSR {
			return c.WithBit(csr.FieldFEN, true)
		})
		if err != nil {
			r.Notef("enable filter: %v", err)
		}
	}

	if err := ctrl.HaltAndClear(ctx, true, true); err != nil {
		r.Notef("halt and clear: %v", err)
	}

	if err := ctrl.LoadCoefficients(ctx, coefs); err != nil {
		r.Notef("load coefficients: %v", err)
	}

	if err := ctrl.ReleaseHalt(ctx); err != nil {
		r.Notef("release halt: %v", err)
	}

	out := make([]dut.Value, 0, len(samples))
	for _, x := range samples {
		out = append(out, h.DriveSignal(ctx, x))
	}

	r.RecordSequence(ObsOutput, out)

	return r, nil
}
