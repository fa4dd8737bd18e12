package buffer

import (
	"context"
	"errors"
	"fmt"

	"github.com/sarchlab/firverify/csr"
	"github.com/sarchlab/firverify/dut"
)

var (
	// ErrCSRUnavailable is returned when a read-modify-write cannot start
	// because the CSR read produced no answer.
	ErrCSRUnavailable = errors.New("CSR read unavailable")

	// ErrNotHalted is returned when coefficients are loaded before halt=1
	// has been read back from the device.
	ErrNotHalted = errors.New("halt not observed before coefficient load")
)

// Controller performs the halt, clear and coefficient-load sequences on one
// device. Every CSR change is a read-modify-write through the layout so that
// fields the controller does not touch, reserved bits included, are written
// back as they were read.
//
// A Controller is bound to one handle and must not be shared between
// goroutines.
type Controller struct {
	handle dut.Handle
	layout *csr.Layout
	addrs  dut.AddressMap

	haltObserved bool
}

// NewController creates a controller for h.
func NewController(
	h dut.Handle,
	layout *csr.Layout,
	addrs dut.AddressMap,
) *Controller {
	return &Controller{
		handle: h,
		layout: layout,
		addrs:  addrs,
	}
}

// ReadCSR reads and decodes the CSR. The boolean is false if the device did
// not answer.
func (c *Controller) ReadCSR(ctx context.Context) (csr.CSR, bool) {
	word, ok := c.handle.ReadRegister(ctx, c.addrs.CSR).Uint32()
	if !ok {
		return csr.CSR{}, false
	}

	return c.layout.Decode(word), true
}

// ReadState reads the CSR and derives the buffer state from it.
func (c *Controller) ReadState(ctx context.Context) (State, bool) {
	r, ok := c.ReadCSR(ctx)
	if !ok {
		return State{}, false
	}

	return StateOf(r), true
}

// Modify reads the CSR, applies f and writes the result back. Pulse bits are
// written as 0 unless f sets them, so a pulse that failed to self-clear on
// the device is not repeated by later writes.
func (c *Controller) Modify(ctx context.Context, f func(csr.CSR) csr.CSR) error {
	r, ok := c.ReadCSR(ctx)
	if !ok {
		return ErrCSRUnavailable
	}

	r = r.WithBit(csr.FieldIBClr, false).WithBit(csr.FieldTClr, false)
	r = f(r)

	if err := c.handle.WriteRegister(ctx, c.addrs.CSR, r.Encode()); err != nil {
		return fmt.Errorf("writing CSR: %w", err)
	}

	return nil
}

// AssertHalt sets halt=1 and reads the CSR back to observe it.
func (c *Controller) AssertHalt(ctx context.Context) error {
	return c.HaltAndClear(ctx, false, false)
}

// HaltAndClear sets halt=1 together with the requested clear pulses in a
// single write, then reads the CSR back to observe the halt.
func (c *Controller) HaltAndClear(
	ctx context.Context,
	bufferClear, tapClear bool,
) error {
	err := c.Modify(ctx, func(r csr.CSR) csr.CSR {
		r = r.WithBit(csr.FieldHalt, true)
		if bufferClear {
			r = r.WithBit(csr.FieldIBClr, true)
		}
		if tapClear {
			r = r.WithBit(csr.FieldTClr, true)
		}

		return r
	})
	if err != nil {
		return err
	}

	s, ok := c.ReadState(ctx)
	c.haltObserved = ok && s.Halted

	return nil
}

// ReleaseHalt sets halt=0. Coefficients cannot be loaded again until the
// next halt has been observed.
func (c *Controller) ReleaseHalt(ctx context.Context) error {
	c.haltObserved = false

	return c.Modify(ctx, func(r csr.CSR) csr.CSR {
		return r.WithBit(csr.FieldHalt, false)
	})
}

// Clear writes the requested clear pulses. Whether the buffer actually
// emptied is decided by reading the CSR afterwards.
func (c *Controller) Clear(ctx context.Context, bufferClear, tapClear bool) error {
	return c.Modify(ctx, func(r csr.CSR) csr.CSR {
		return r.WithBit(csr.FieldIBClr, bufferClear).
			WithBit(csr.FieldTClr, tapClear)
	})
}

// HaltObserved reports whether halt=1 was read back since the last release.
func (c *Controller) HaltObserved() bool {
	return c.haltObserved
}

// LoadCoefficients writes the coefficient register and the per-tap enables.
// The device must be halted first.
func (c *Controller) LoadCoefficients(
	ctx context.Context,
	coefs csr.Coefficients,
) error {
	if !c.haltObserved {
		return ErrNotHalted
	}

	if err := c.handle.WriteRegister(ctx, c.addrs.COEF, coefs.Word()); err != nil {
		return fmt.Errorf("writing COEF: %w", err)
	}

	return c.Modify(ctx, coefs.ApplyEnables)
}
