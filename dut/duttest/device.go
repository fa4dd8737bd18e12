// Package duttest provides an in-process device that behaves like a
// correctly working filter peripheral, with switches to break it in the ways
// real candidate implementations break.
package duttest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sarchlab/firverify/csr"
	"github.com/sarchlab/firverify/dut"
)

// Register addresses the device decodes.
const (
	AddrCSR    uint32 = 0x0
	AddrCOEF   uint32 = 0x4
	AddrOUTCAP uint32 = 0x8
)

// DefaultCapacity is the number of samples the input buffer holds.
const DefaultCapacity = 255

// ErrMuted is returned by every command of a muted device.
var ErrMuted = errors.New("device does not answer")

// Faults selects deviations from the reference behaviour.
type Faults struct {
	// PowerOnCSR is the CSR value after reset.
	PowerOnCSR uint32

	// Mute makes every command fail.
	Mute bool

	// IgnoreDisable leaves fen set on "com --action disable".
	IgnoreDisable bool

	// NonStickyOverflow clears ibovf once it has been read.
	NonStickyOverflow bool

	// IgnoreBufferClear makes the ibclr pulse a no-op.
	IgnoreBufferClear bool

	// FrozenCount makes ibcnt read as 0 however many samples are buffered.
	FrozenCount bool

	// OutputBias is added to every filter output.
	OutputBias int64

	// MuteSignalAfter makes DriveSignal unavailable after this many samples
	// since reset. Zero disables the fault.
	MuteSignalAfter int
}

// Device is a behavioural model of the filter peripheral.
type Device struct {
	lock   sync.Mutex
	name   string
	layout *csr.Layout
	faults Faults

	capacity int
	csr      uint32
	coef     uint32
	outcap   uint32
	taps     [csr.NumTaps]int64
	count    int
	overflow bool
	raised   bool
	driven   int

	log []string
}

// NewDevice creates a device with the given faults.
func NewDevice(name string, faults Faults) *Device {
	d := &Device{
		name:     name,
		layout:   csr.DefaultLayout(),
		faults:   faults,
		capacity: DefaultCapacity,
	}
	d.powerOn()

	return d
}

// WithCapacity changes the input buffer capacity.
func (d *Device) WithCapacity(n int) *Device {
	d.capacity = n
	return d
}

// Log returns the commands the device received, in order.
func (d *Device) Log() []string {
	d.lock.Lock()
	defer d.lock.Unlock()

	out := make([]string, len(d.log))
	copy(out, d.log)

	return out
}

func (d *Device) powerOn() {
	d.csr = d.faults.PowerOnCSR
	d.coef = 0
	d.outcap = 0
	d.taps = [csr.NumTaps]int64{}
	d.count = 0
	d.overflow = false
	d.raised = false
	d.driven = 0
}

// Name returns the unit name.
func (d *Device) Name() string {
	return d.name
}

// Reset restores the power-on state.
func (d *Device) Reset(_ context.Context) error {
	return d.do("reset", func() { d.powerOn() })
}

// Enable sets fen.
func (d *Device) Enable(_ context.Context) error {
	return d.do("enable", func() { d.setField(csr.FieldFEN, 1) })
}

// Disable clears fen.
func (d *Device) Disable(_ context.Context) error {
	return d.do("disable", func() {
		if !d.faults.IgnoreDisable {
			d.setField(csr.FieldFEN, 0)
		}
	})
}

func (d *Device) do(what string, f func()) error {
	d.lock.Lock()
	defer d.lock.Unlock()

	d.log = append(d.log, what)
	if d.faults.Mute {
		return ErrMuted
	}

	f()

	return nil
}

func (d *Device) setField(name string, v uint32) {
	d.csr = d.layout.Decode(d.csr).With(name, v).Encode()
}

func (d *Device) field(name string) uint32 {
	return d.layout.Decode(d.csr).Get(name)
}

// ReadRegister returns the register contents.
func (d *Device) ReadRegister(_ context.Context, addr uint32) dut.Value {
	d.lock.Lock()
	defer d.lock.Unlock()

	d.log = append(d.log, fmt.Sprintf("read 0x%x", addr))
	if d.faults.Mute {
		return dut.Unavailable
	}

	switch addr {
	case AddrCSR:
		count := uint32(d.count)
		if d.faults.FrozenCount {
			count = 0
		}

		r := d.layout.Decode(d.csr).
			With(csr.FieldIBCnt, count).
			WithBit(csr.FieldIBOvf, d.overflow)

		if d.faults.NonStickyOverflow {
			d.overflow = false
		}

		return dut.Available(int64(r.Encode()))
	case AddrCOEF:
		return dut.Available(int64(d.coef))
	case AddrOUTCAP:
		return dut.Available(int64(d.outcap))
	default:
		return dut.Unavailable
	}
}

// WriteRegister updates a register. Writing ibclr or tclr as 1 performs the
// clear and the bit reads back as 0.
func (d *Device) WriteRegister(_ context.Context, addr uint32, value uint32) error {
	d.lock.Lock()
	defer d.lock.Unlock()

	d.log = append(d.log, fmt.Sprintf("write 0x%x=0x%x", addr, value))
	if d.faults.Mute {
		return ErrMuted
	}

	switch addr {
	case AddrCSR:
		r := d.layout.Decode(value)
		if r.Bit(csr.FieldIBClr) && !d.faults.IgnoreBufferClear {
			d.count = 0
			d.overflow = false
			d.raised = false
		}
		if r.Bit(csr.FieldTClr) {
			d.taps = [csr.NumTaps]int64{}
		}

		d.csr = r.WithBit(csr.FieldIBClr, false).
			WithBit(csr.FieldTClr, false).
			With(csr.FieldIBCnt, 0).
			WithBit(csr.FieldIBOvf, false).
			Encode()
	case AddrCOEF:
		d.coef = value
	case AddrOUTCAP:
		d.outcap = value
	default:
		return fmt.Errorf("no register at 0x%x", addr)
	}

	return nil
}

// DriveSignal accepts one sample. While halted the sample is buffered and
// nothing comes out; while disabled the sample bypasses the filter.
func (d *Device) DriveSignal(_ context.Context, sample int64) dut.Value {
	d.lock.Lock()
	defer d.lock.Unlock()

	d.log = append(d.log, fmt.Sprintf("sig 0x%x", sample))
	if d.faults.Mute {
		return dut.Unavailable
	}

	d.driven++
	if d.faults.MuteSignalAfter > 0 && d.driven > d.faults.MuteSignalAfter {
		return dut.Unavailable
	}

	if d.field(csr.FieldHalt) != 0 {
		switch {
		case d.count < d.capacity:
			d.count++
		case !d.raised:
			d.overflow = true
			d.raised = true
		}

		return dut.Unavailable
	}

	if d.field(csr.FieldFEN) == 0 {
		return dut.Available(sample)
	}

	copy(d.taps[1:], d.taps[:csr.NumTaps-1])
	d.taps[0] = sample

	coefs := csr.UnpackCoefficients(d.coef)
	var out int64
	for i := 0; i < csr.NumTaps; i++ {
		if d.field(csr.TapEnableField(i)) != 0 {
			out += int64(coefs[i]) * d.taps[i]
		}
	}
	out += d.faults.OutputBias

	d.outcap = uint32(out)

	return dut.Available(out)
}
