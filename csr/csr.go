package csr

import (
	"fmt"
	"strings"
)

// CSR is a decoded register word. The zero value is not usable; obtain one
// from Layout.Decode.
//
// A CSR is immutable. With and WithBit return modified copies so that a
// decoded read can be kept around while the next write is prepared.
type CSR struct {
	layout  *Layout
	values  []uint32
	residue uint32
}

// Layout returns the layout the register was decoded with.
func (c CSR) Layout() *Layout {
	return c.layout
}

// Lookup returns the value of a field and whether the layout defines it.
func (c CSR) Lookup(name string) (uint32, bool) {
	i, ok := c.layout.index[name]
	if !ok {
		return 0, false
	}

	return c.values[i], true
}

// Get returns the value of a field. It panics if the layout has no such
// field.
func (c CSR) Get(name string) uint32 {
	v, ok := c.Lookup(name)
	if !ok {
		panic(fmt.Sprintf("csr: layout %s has no field %q", c.layout.name, name))
	}

	return v
}

// Bit reports whether a field is non-zero.
func (c CSR) Bit(name string) bool {
	return c.Get(name) != 0
}

// With returns a copy of the register with one field replaced. The value is
// masked to the field width. It panics if the layout has no such field.
func (c CSR) With(name string, v uint32) CSR {
	i, ok := c.layout.index[name]
	if !ok {
		panic(fmt.Sprintf("csr: layout %s has no field %q", c.layout.name, name))
	}

	out := c.clone()
	out.values[i] = v & c.layout.fields[i].Mask()

	return out
}

// WithBit sets a field to 1 or 0.
func (c CSR) WithBit(name string, set bool) CSR {
	if set {
		return c.With(name, 1)
	}

	return c.With(name, 0)
}

// Encode packs the fields back into a register word.
func (c CSR) Encode() uint32 {
	word := c.residue &^ c.layout.covered

	for i, f := range c.layout.fields {
		word |= (c.values[i] & f.Mask()) << f.Shift
	}

	return word
}

// Equal reports whether two registers hold the same fields and residue.
func (c CSR) Equal(o CSR) bool {
	if c.layout != o.layout || c.residue != o.residue {
		return false
	}

	for i := range c.values {
		if c.values[i] != o.values[i] {
			return false
		}
	}

	return true
}

// FieldChange is a field whose value differs between two registers.
type FieldChange struct {
	Name string
	From uint32
	To   uint32
}

// Diff lists the fields that differ from c to o, in layout order. Both
// registers must share a layout.
func (c CSR) Diff(o CSR) []FieldChange {
	var changes []FieldChange
	for i, f := range c.layout.fields {
		if c.values[i] != o.values[i] {
			changes = append(changes, FieldChange{
				Name: f.Name,
				From: c.values[i],
				To:   o.values[i],
			})
		}
	}

	return changes
}

func (c CSR) clone() CSR {
	out := c
	out.values = make([]uint32, len(c.values))
	copy(out.values, c.values)

	return out
}

// String dumps every field, one per line.
func (c CSR) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "CSR 0x%08X (%s)", c.Encode(), c.layout.name)
	for i, f := range c.layout.fields {
		fmt.Fprintf(&b, "\n%-6s: 0x%X", f.Name, c.values[i])
	}

	return b.String()
}
