// Package scenario defines the fixed procedures run against every unit.
//
// A scenario drives one handle through a sequence of protocol operations and
// records what the unit answered. An unavailable answer never stops a
// scenario; the remaining steps run and record what they can. Run returns an
// error only when something the scenario depends on outside the unit is
// missing, such as a coefficient or vector file.
package scenario

import (
	"context"
	"errors"

	"github.com/sarchlab/firverify/csr"
	"github.com/sarchlab/firverify/dut"
)

// Scenario is a named procedure over one unit.
type Scenario interface {
	Name() string
	Run(ctx context.Context, h dut.Handle) (*Result, error)
}

// Names of the standard scenarios.
const (
	NameEnableDisable    = "enable_disable"
	NamePowerOnReset     = "por"
	NameBufferOverflow   = "buffer_overflow"
	NameSignalProcessing = "signal_processing"
)

// Observation names.
const (
	ObsEnabledFEN      = "enabled_fen"
	ObsDisabledFEN     = "disabled_fen"
	ObsSignalBypass    = "signal_bypass"
	ObsOverflow        = "overflow_triggered"
	ObsOverflowSticky  = "overflow_sticky"
	ObsCountTrace      = "ibcnt_trace"
	ObsOverflowAt      = "overflow_at"
	ObsCountAfterClear = "ibcnt_after_clear"
	ObsBufferCleared   = "buffer_cleared"
	ObsOutput          = "output"
)

// ErrMissingInput is returned when a scenario has no file to read its
// inputs from.
var ErrMissingInput = errors.New("scenario input not configured")

// Platform is what every standard scenario needs to know about the units.
type Platform struct {
	Layout    *csr.Layout
	Addresses dut.AddressMap
}

// DefaultPlatform returns the default layout and address map.
func DefaultPlatform() Platform {
	return Platform{
		Layout:    csr.DefaultLayout(),
		Addresses: dut.DefaultAddressMap(),
	}
}

// field extracts one CSR field from a register read.
func (p Platform) field(v dut.Value, name string) dut.Value {
	word, ok := v.Uint32()
	if !ok {
		return dut.Unavailable
	}

	return dut.Available(int64(p.Layout.Decode(word).Get(name)))
}

func boolValue(b bool) dut.Value {
	if b {
		return dut.Available(1)
	}

	return dut.Available(0)
}
