package scenario

import (
	"context"

	"github.com/sarchlab/firverify/dut"
)

// PowerOnReset reads every register of the address map right after reset.
// Its observations are named after the registers and are judged against the
// power-on-reset specification rather than the golden unit.
type PowerOnReset struct {
	Platform
}

// Name returns "por".
func (s PowerOnReset) Name() string {
	return NamePowerOnReset
}

// Run resets the unit and reads CSR, COEF and OUTCAP.
func (s PowerOnReset) Run(ctx context.Context, h dut.Handle) (*Result, error) {
	r := NewResult(s.Name(), h.Name(), ReferencePOR)

	if err := h.Reset(ctx); err != nil {
		r.Notef("reset: %v", err)
	}

	for _, reg := range s.Addresses.Registers() {
		r.Record(reg.Name, h.ReadRegister(ctx, reg.Address))
	}

	return r, nil
}
