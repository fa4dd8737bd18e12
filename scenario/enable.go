package scenario

import (
	"context"

	"github.com/sarchlab/firverify/csr"
	"github.com/sarchlab/firverify/dut"
)

// DefaultTestSignal is driven through a disabled filter.
const DefaultTestSignal = 0x55

// EnableDisable checks that the common-channel enable and disable actions
// reach fen, and records what a disabled filter does with a sample.
type EnableDisable struct {
	Platform
	TestSignal int64
}

// Name returns "enable_disable".
func (s EnableDisable) Name() string {
	return NameEnableDisable
}

// Run resets, enables, disables and drives one sample, reading fen after
// each action.
func (s EnableDisable) Run(ctx context.Context, h dut.Handle) (*Result, error) {
	r := NewResult(s.Name(), h.Name(), ReferenceGolden)

	if err := h.Reset(ctx); err != nil {
		r.Notef("reset: %v", err)
	}

	if err := h.Enable(ctx); err != nil {
		r.Notef("enable: %v", err)
	}
	fen := s.field(h.ReadRegister(ctx, s.Addresses.CSR), csr.FieldFEN)
	r.RecordExpected(ObsEnabledFEN, fen, dut.Available(1))

	if err := h.Disable(ctx); err != nil {
		r.Notef("disable: %v", err)
	}
	fen = s.field(h.ReadRegister(ctx, s.Addresses.CSR), csr.FieldFEN)
	r.RecordExpected(ObsDisabledFEN, fen, dut.Available(0))

	r.Record(ObsSignalBypass, h.DriveSignal(ctx, s.TestSignal))

	return r, nil
}
