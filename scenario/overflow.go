package scenario

import (
	"context"

	"github.com/sarchlab/firverify/buffer"
	"github.com/sarchlab/firverify/dut"
)

// Default buffer geometry.
const (
	DefaultCapacity = 255
	DefaultMargin   = 5
)

// BufferOverflow fills the input buffer of a halted unit past its capacity,
// then clears it.
type BufferOverflow struct {
	Platform
	Capacity int
	Margin   int
}

// Name returns "buffer_overflow".
func (s BufferOverflow) Name() string {
	return NameBufferOverflow
}

// Run halts the unit, drives Capacity+Margin samples reading the CSR after
// each one, then pulses ibclr and reads the count back. The ibcnt of every
// read is recorded so that a count that does not follow the drives shows up
// against the golden unit.
func (s BufferOverflow) Run(ctx context.Context, h dut.Handle) (*Result, error) {
	r := NewResult(s.Name(), h.Name(), ReferenceGolden)
	ctrl := buffer.NewController(h, s.Layout, s.Addresses)
	mon := buffer.NewMonitor()

	if err := ctrl.AssertHalt(ctx); err != nil {
		r.Notef("assert halt: %v", err)
	} else if !ctrl.HaltObserved() {
		r.Notef("halt did not read back as 1")
	}

	for i := 0; i < s.Capacity+s.Margin; i++ {
		h.DriveSignal(ctx, int64(i))
		mon.ObserveValue(ctrl.ReadState(ctx))
	}

	// overflowAt counts the samples driven when ibovf first read 1, or 0 if
	// it never did.
	triggered, sticky, overflowAt := dut.Unavailable, dut.Unavailable, dut.Unavailable
	if mon.AnyAvailable() {
		triggered = boolValue(mon.OverflowSeen())
		sticky = boolValue(mon.Sticky())
		overflowAt = dut.Available(0)
		if i, ok := mon.FirstOverflow(); ok {
			overflowAt = dut.Available(int64(i + 1))
		}
	}
	if n := mon.Violations(); n > 0 {
		r.Notef("ibovf dropped without a clear %d time(s)", n)
	}

	r.RecordExpected(ObsOverflow, triggered, dut.Available(1))
	r.RecordExpected(ObsOverflowSticky, sticky, dut.Available(1))
	r.RecordSequence(ObsCountTrace, mon.CountTrace())
	r.Record(ObsOverflowAt, overflowAt)

	if err := ctrl.Clear(ctx, true, false); err != nil {
		r.Notef("clear: %v", err)
	}
	mon.NoteClear()

	count, cleared := dut.Unavailable, dut.Unavailable
	if st, ok := ctrl.ReadState(ctx); ok {
		count = dut.Available(int64(st.Count))
		cleared = boolValue(st.Cleared())
	}

	r.Record(ObsCountAfterClear, count)
	r.RecordExpected(ObsBufferCleared, cleared, dut.Available(1))

	if err := ctrl.ReleaseHalt(ctx); err != nil {
		r.Notef("release halt: %v", err)
	}

	return r, nil
}
