// Package csr models the control/status register of the FIR filter
// peripheral as a set of named bit-fields.
//
// The register itself lives in the device under test. A CSR value is only a
// faithful view of one read: it is created by Layout.Decode, mutated with Set,
// and turned back into a word with Encode before it is written. Bits that no
// field of the layout covers are carried through untouched.
//
// The bit layout is data rather than code, because different filter families
// place the rounding, capture and reserved fields differently. DefaultLayout
// returns the layout of the current filter revision:
//
//	bit  0      fen     global filter enable
//	bits 1-4    c0en..c3en per-coefficient enable
//	bit  5      halt    halt signal ingestion
//	bits 6-7    sts     status code
//	bits 8-15   ibcnt   input buffer sample count
//	bit  16     ibovf   input buffer overflow (sticky)
//	bit  17     ibclr   write-1 pulse, clear input buffer
//	bit  18     tclr    write-1 pulse, clear taps
//	bits 19-20  rnd     rounding mode
//	bit  21     icoef   coefficient load in progress
//	bit  22     icap    output capture
//	bits 23-31  rsvd    reserved
package csr

import (
	"errors"
	"fmt"
)

// Names of the fields the harness relies on.
const (
	FieldFEN   = "fen"
	FieldC0EN  = "c0en"
	FieldC1EN  = "c1en"
	FieldC2EN  = "c2en"
	FieldC3EN  = "c3en"
	FieldHalt  = "halt"
	FieldSTS   = "sts"
	FieldIBCnt = "ibcnt"
	FieldIBOvf = "ibovf"
	FieldIBClr = "ibclr"
	FieldTClr  = "tclr"
	FieldRnd   = "rnd"
	FieldICoef = "icoef"
	FieldICap  = "icap"
	FieldRsvd  = "rsvd"
)

// RegisterWidth is the width of the register in bits.
const RegisterWidth = 32

// ErrInvalidLayout is returned when a layout cannot describe a 32-bit
// register.
var ErrInvalidLayout = errors.New("invalid CSR layout")

// RequiredFields lists the fields every layout must define.
var RequiredFields = []string{
	FieldFEN,
	FieldC0EN, FieldC1EN, FieldC2EN, FieldC3EN,
	FieldHalt,
	FieldIBCnt, FieldIBOvf, FieldIBClr, FieldTClr,
}

// Field is a contiguous run of bits inside the register.
type Field struct {
	Name  string `yaml:"name"`
	Shift uint   `yaml:"shift"`
	Width uint   `yaml:"width"`
}

// Mask returns the right-aligned mask of the field.
func (f Field) Mask() uint32 {
	return uint32(uint64(1)<<f.Width - 1)
}

// Bits returns the mask of the field at its position in the register.
func (f Field) Bits() uint32 {
	return f.Mask() << f.Shift
}

// Layout is an immutable, validated set of fields.
type Layout struct {
	name    string
	fields  []Field
	index   map[string]int
	covered uint32
}

// NewLayout validates the fields and builds a layout.
func NewLayout(name string, fields []Field) (*Layout, error) {
	l := &Layout{
		name:   name,
		fields: make([]Field, 0, len(fields)),
		index:  make(map[string]int, len(fields)),
	}

	for _, f := range fields {
		if err := l.add(f); err != nil {
			return nil, err
		}
	}

	for _, name := range RequiredFields {
		if _, ok := l.index[name]; !ok {
			return nil, fmt.Errorf("%w: %s: missing field %q",
				ErrInvalidLayout, l.name, name)
		}
	}

	return l, nil
}

func (l *Layout) add(f Field) error {
	switch {
	case f.Name == "":
		return fmt.Errorf("%w: %s: field without a name", ErrInvalidLayout, l.name)
	case f.Width == 0:
		return fmt.Errorf("%w: %s: field %q has zero width",
			ErrInvalidLayout, l.name, f.Name)
	case f.Shift >= RegisterWidth || f.Width > RegisterWidth-f.Shift:
		return fmt.Errorf("%w: %s: field %q does not fit in %d bits (shift %d, width %d)",
			ErrInvalidLayout, l.name, f.Name, RegisterWidth, f.Shift, f.Width)
	}

	if _, dup := l.index[f.Name]; dup {
		return fmt.Errorf("%w: %s: duplicate field %q",
			ErrInvalidLayout, l.name, f.Name)
	}

	if l.covered&f.Bits() != 0 {
		return fmt.Errorf("%w: %s: field %q overlaps bits 0x%08X",
			ErrInvalidLayout, l.name, f.Name, l.covered&f.Bits())
	}

	l.index[f.Name] = len(l.fields)
	l.fields = append(l.fields, f)
	l.covered |= f.Bits()

	return nil
}

// MustNewLayout is like NewLayout but panics on an invalid layout.
func MustNewLayout(name string, fields []Field) *Layout {
	l, err := NewLayout(name, fields)
	if err != nil {
		panic(err)
	}

	return l
}

var defaultLayout = MustNewLayout("fir4", []Field{
	{Name: FieldFEN, Shift: 0, Width: 1},
	{Name: FieldC0EN, Shift: 1, Width: 1},
	{Name: FieldC1EN, Shift: 2, Width: 1},
	{Name: FieldC2EN, Shift: 3, Width: 1},
	{Name: FieldC3EN, Shift: 4, Width: 1},
	{Name: FieldHalt, Shift: 5, Width: 1},
	{Name: FieldSTS, Shift: 6, Width: 2},
	{Name: FieldIBCnt, Shift: 8, Width: 8},
	{Name: FieldIBOvf, Shift: 16, Width: 1},
	{Name: FieldIBClr, Shift: 17, Width: 1},
	{Name: FieldTClr, Shift: 18, Width: 1},
	{Name: FieldRnd, Shift: 19, Width: 2},
	{Name: FieldICoef, Shift: 21, Width: 1},
	{Name: FieldICap, Shift: 22, Width: 1},
	{Name: FieldRsvd, Shift: 23, Width: 9},
})

// DefaultLayout returns the layout of the current filter revision.
func DefaultLayout() *Layout {
	return defaultLayout
}

// Name returns the name of the layout.
func (l *Layout) Name() string {
	return l.name
}

// Fields returns the fields in declaration order.
func (l *Layout) Fields() []Field {
	out := make([]Field, len(l.fields))
	copy(out, l.fields)

	return out
}

// Field looks up a field by name.
func (l *Layout) Field(name string) (Field, bool) {
	i, ok := l.index[name]
	if !ok {
		return Field{}, false
	}

	return l.fields[i], true
}

// Covered returns the mask of all bits that belong to some field.
func (l *Layout) Covered() uint32 {
	return l.covered
}

// Decode splits a register word into its fields.
func (l *Layout) Decode(word uint32) CSR {
	c := CSR{
		layout:  l,
		values:  make([]uint32, len(l.fields)),
		residue: word &^ l.covered,
	}

	for i, f := range l.fields {
		c.values[i] = (word >> f.Shift) & f.Mask()
	}

	return c
}
